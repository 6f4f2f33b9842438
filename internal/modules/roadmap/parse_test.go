package roadmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "Python": {
    "Day 1": {
      "Topic": "Setup",
      "Description": "Install Python",
      "Resources": "https://www.youtube.com/watch?v=x",
      "Tasks": ["Install", "Run hello world"]
    },
    "Day 2": {"Topic": "Types", "Description": "Numbers and strings"}
  }
}`

func TestParseEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := Parse(in)
		var pe *ParseError
		require.ErrorAs(t, err, &pe, "input %q", in)
	}
}

func TestParseValidDocument(t *testing.T) {
	r, err := Parse(sample)
	require.NoError(t, err)
	require.Len(t, r.Subjects, 1)

	s, ok := r.Subject("Python")
	require.True(t, ok)
	require.Len(t, s.Days, 2)
	assert.Equal(t, "Day 1", s.Days[0].Key)
	assert.Equal(t, "Day 2", s.Days[1].Key)

	names := []string{}
	for _, f := range s.Days[0].Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Topic", "Description", "Resources", "Tasks"}, names)

	topic, ok := s.Days[0].Field("Topic")
	require.True(t, ok)
	text, ok := topic.Text()
	require.True(t, ok)
	assert.Equal(t, "Setup", text)

	tasks, _ := s.Days[0].Field("Tasks")
	_, ok = tasks.Text()
	assert.False(t, ok)
	assert.JSONEq(t, `["Install","Run hello world"]`, string(tasks.Value))
}

func TestParseRoundTrip(t *testing.T) {
	r, err := Parse(sample)
	require.NoError(t, err)
	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, sample, string(out))

	var compact bytes.Buffer
	require.NoError(t, json.Compact(&compact, []byte(sample)))
	assert.Equal(t, compact.String(), string(out), "key order must be preserved")

	var again Roadmap
	require.NoError(t, json.Unmarshal(out, &again))
	assert.Equal(t, *r, again)
}

func TestParseManyDays(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"Python":{`)
	for i := 1; i <= 30; i++ {
		if i > 1 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `"Day %d":{"Topic":"t%d","Description":"d%d","Resources":"r","Tasks":"k"}`, i, i, i)
	}
	b.WriteString(`}}`)

	r, err := Parse(b.String())
	require.NoError(t, err)
	s, _ := r.Subject("Python")
	require.Len(t, s.Days, 30)
	assert.Equal(t, "Day 30", s.Days[29].Key)
	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, b.String(), string(out))
}

func TestParseLenientShape(t *testing.T) {
	r, err := Parse(`{"Go":{"Day 1":{"Topic":"x"}}}`)
	require.NoError(t, err)
	assert.Len(t, r.Subjects[0].Days, 1)

	r, err = Parse(`{"Golang":{}}`)
	require.NoError(t, err)
	assert.Equal(t, "Golang", r.Subjects[0].Name)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"not json":       `not-json`,
		"truncated":      `{"Go":{"Day 1":{"Topic":"x"`,
		"array root":     `[{"Go":{}}]`,
		"string root":    `"Go"`,
		"empty object":   `{}`,
		"subject string": `{"Go":"30 days"}`,
		"day array":      `{"Go":{"Day 1":["a"]}}`,
		"number field":   `{"Go":{"Day 1":{"Topic":1}}}`,
		"object field":   `{"Go":{"Day 1":{"Topic":{"a":"b"}}}}`,
		"mixed array":    `{"Go":{"Day 1":{"Tasks":["a",2]}}}`,
		"null field":     `{"Go":{"Day 1":{"Topic":null}}}`,
		"trailing data":  `{"Go":{}} extra`,
		"two documents":  `{"Go":{}}{"Rust":{}}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			r, err := Parse(in)
			assert.Nil(t, r)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.NotEmpty(t, pe.Error())
		})
	}
}

func TestParseErrorNamesPath(t *testing.T) {
	_, err := Parse(`{"Go":{"Day 1":{"Topic":1}}}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `["Go"]["Day 1"]["Topic"]`)
	assert.Contains(t, err.Error(), "number")
}

func TestParseSyntaxErrorUnwraps(t *testing.T) {
	_, err := Parse(`not-json`)
	var syn *json.SyntaxError
	assert.True(t, errors.As(err, &syn))
}

func TestParseCodeFences(t *testing.T) {
	fenced := "```json\n" + sample + "\n```"

	_, err := Parse(fenced)
	require.Error(t, err, "fences are rejected unless stripping is enabled")

	r, err := ParseWithOptions(fenced, ParseOptions{StripCodeFences: true})
	require.NoError(t, err)
	assert.Len(t, r.Subjects[0].Days, 2)

	r, err = ParseWithOptions("```\n{\"Go\":{}}\n```", ParseOptions{StripCodeFences: true})
	require.NoError(t, err)
	assert.Equal(t, "Go", r.Subjects[0].Name)

	r, err = ParseWithOptions(sample, ParseOptions{StripCodeFences: true})
	require.NoError(t, err)
	assert.Len(t, r.Subjects, 1)
}
