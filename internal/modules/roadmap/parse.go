package roadmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseError reports model output that is not a roadmap document.
type ParseError struct {
	Path   string
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	if e.Path == "" || e.Path == "$" {
		return "invalid roadmap: " + e.Err.Error()
	}
	return fmt.Sprintf("invalid roadmap at %s: %s", e.Path, e.Err.Error())
}

func (e *ParseError) Unwrap() error { return e.Err }

type ParseOptions struct {
	// StripCodeFences removes one surrounding ``` or ```json fence before decoding.
	StripCodeFences bool
}

// Parse strictly decodes raw as {subject: {day: {field: string | [string]}}}.
// Day counts and field names are not checked.
func Parse(raw string) (*Roadmap, error) {
	return ParseWithOptions(raw, ParseOptions{})
}

func ParseWithOptions(raw string, opts ParseOptions) (*Roadmap, error) {
	if opts.StripCodeFences {
		raw = stripCodeFences(raw)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, &ParseError{Path: "$", Err: errors.New("empty response")}
	}

	p := &parser{dec: json.NewDecoder(strings.NewReader(raw))}
	out := &Roadmap{}
	err := p.object("$", func(path, key string) error {
		subject := Subject{Name: key}
		err := p.object(path, func(path, key string) error {
			day := Day{Key: key}
			err := p.object(path, func(path, key string) error {
				value, err := p.fieldValue(path)
				if err != nil {
					return err
				}
				day.Fields = append(day.Fields, Field{Name: key, Value: value})
				return nil
			})
			if err != nil {
				return err
			}
			subject.Days = append(subject.Days, day)
			return nil
		})
		if err != nil {
			return err
		}
		out.Subjects = append(out.Subjects, subject)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out.Subjects) == 0 {
		return nil, &ParseError{Path: "$", Err: errors.New("no subject key")}
	}
	if _, err := p.dec.Token(); err != io.EOF {
		return nil, &ParseError{Path: "$", Offset: p.dec.InputOffset(), Err: errors.New("unexpected data after top-level object")}
	}
	return out, nil
}

type parser struct {
	dec *json.Decoder
}

func (p *parser) fail(path string, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &ParseError{Path: path, Offset: p.dec.InputOffset(), Err: err}
}

// object walks one JSON object at path, calling member for each key in order.
func (p *parser) object(path string, member func(path, key string) error) error {
	tok, err := p.dec.Token()
	if err != nil {
		return p.fail(path, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return p.fail(path, fmt.Errorf("expected object, got %s", describe(tok)))
	}
	for p.dec.More() {
		tok, err := p.dec.Token()
		if err != nil {
			return p.fail(path, err)
		}
		key, ok := tok.(string)
		if !ok {
			return p.fail(path, fmt.Errorf("expected object key, got %s", describe(tok)))
		}
		if err := member(path+"["+strconv.Quote(key)+"]", key); err != nil {
			return err
		}
	}
	if _, err := p.dec.Token(); err != nil {
		return p.fail(path, err)
	}
	return nil
}

func (p *parser) fieldValue(path string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := p.dec.Decode(&raw); err != nil {
		return nil, p.fail(path, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, p.fail(path, err)
	}
	switch t := v.(type) {
	case string:
	case []any:
		for i, item := range t {
			if _, ok := item.(string); !ok {
				return nil, p.fail(path+"["+strconv.Itoa(i)+"]", fmt.Errorf("expected string, got %s", describeValue(item)))
			}
		}
	default:
		return nil, p.fail(path, fmt.Errorf("expected string or array of strings, got %s", describeValue(v)))
	}
	var b bytes.Buffer
	if err := json.Compact(&b, raw); err != nil {
		return nil, p.fail(path, err)
	}
	return json.RawMessage(b.Bytes()), nil
}

func describe(tok json.Token) string {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return "object"
		case '[':
			return "array"
		default:
			return strconv.Quote(t.String())
		}
	default:
		return describeValue(t)
	}
}

func describeValue(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return raw
	}
	nl := strings.IndexByte(s, '\n')
	if nl < 0 {
		return raw
	}
	s = strings.TrimSpace(s[nl+1:])
	return strings.TrimSuffix(s, "```")
}
