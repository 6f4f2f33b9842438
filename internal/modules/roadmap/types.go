package roadmap

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Request is the client input for one generation.
type Request struct {
	SubjectName string `json:"languageName"`
	Duration    string `json:"duration"`
}

// Roadmap is the decoded model output. Slices keep the key order of the source document.
type Roadmap struct {
	Subjects []Subject
}

type Subject struct {
	Name string
	Days []Day
}

type Day struct {
	Key    string
	Fields []Field
}

// Field value is a compact JSON string or array of strings.
type Field struct {
	Name  string
	Value json.RawMessage
}

// Subject returns the first subject with the given name.
func (r Roadmap) Subject(name string) (Subject, bool) {
	for _, s := range r.Subjects {
		if s.Name == name {
			return s, true
		}
	}
	return Subject{}, false
}

func (d Day) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Text returns the value when it is a JSON string.
func (f Field) Text() (string, bool) {
	var s string
	if err := json.Unmarshal(f.Value, &s); err != nil {
		return "", false
	}
	return s, true
}

// MarshalJSON writes the document back with its original key order.
func (r Roadmap) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, s := range r.Subjects {
		if i > 0 {
			b.WriteByte(',')
		}
		writeKey(&b, s.Name)
		b.WriteByte('{')
		for j, d := range s.Days {
			if j > 0 {
				b.WriteByte(',')
			}
			writeKey(&b, d.Key)
			b.WriteByte('{')
			for k, f := range d.Fields {
				if k > 0 {
					b.WriteByte(',')
				}
				writeKey(&b, f.Name)
				if len(f.Value) == 0 {
					b.WriteString("null")
				} else {
					b.Write(f.Value)
				}
			}
			b.WriteByte('}')
		}
		b.WriteByte('}')
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON applies the same rules as Parse.
func (r *Roadmap) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

func writeKey(b *bytes.Buffer, key string) {
	raw, err := json.Marshal(key)
	if err != nil {
		raw = []byte(strconv.Quote(key))
	}
	b.Write(raw)
	b.WriteByte(':')
}
