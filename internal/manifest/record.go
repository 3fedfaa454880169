// Package manifest reads and writes JSON Lines manifests one record at a
// time. Records keep the key order of the line they were parsed from, so a
// read/modify/write round trip only changes the fields that were set.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"
)

var (
	errEmptyLine = errors.New("empty line")
	errNotObject = errors.New("value is not a JSON object")
	errBadUTF8   = errors.New("invalid UTF-8")
)

type field struct {
	key   string
	value json.RawMessage
}

// Record is an ordered mapping of field name to JSON value.
type Record struct {
	fields []field
	index  map[string]int
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{index: make(map[string]int)}
}

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.fields) }

// Keys returns the field names in order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.key
	}
	return out
}

// Get returns the compact JSON encoding of a field.
func (r *Record) Get(key string) (json.RawMessage, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.fields[i].value, true
}

// String returns the value of a field when it holds a JSON string.
func (r *Record) String(key string) (string, bool) {
	raw, ok := r.Get(key)
	if !ok || len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Set stores v under key. An existing key keeps its position; a new key is
// appended.
func (r *Record) Set(key string, v any) error {
	b, err := encodeValue(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	r.setRaw(key, b)
	return nil
}

func (r *Record) setRaw(key string, raw json.RawMessage) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[key]; ok {
		r.fields[i].value = raw
		return
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, field{key: key, value: raw})
}

// MarshalJSON writes the record as a compact object in field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, f.key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		buf.Write(f.value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses a JSON object, replacing the record contents. Values
// are re-encoded compactly with non-ASCII text left unescaped; nested object
// key order and number literals are kept as written. A key repeated in the
// object keeps its first position and takes the last value.
func (r *Record) UnmarshalJSON(b []byte) error {
	if !utf8.Valid(b) {
		return errBadUTF8
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	tok, err := dec.Token()
	if err == io.EOF {
		return errEmptyLine
	}
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errNotObject
	}
	r.fields = r.fields[:0]
	r.index = make(map[string]int)
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", kt)
		}
		var buf bytes.Buffer
		if err := reencode(dec, &buf); err != nil {
			return err
		}
		r.setRaw(key, buf.Bytes())
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return err
		}
		return fmt.Errorf("unexpected trailing data %v", tok)
	}
	return nil
}

// reencode copies the next JSON value from dec to buf in compact form.
func reencode(dec *json.Decoder, buf *bytes.Buffer) error {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			buf.WriteByte('{')
			for n := 0; dec.More(); n++ {
				kt, err := dec.Token()
				if err != nil {
					return err
				}
				key, ok := kt.(string)
				if !ok {
					return fmt.Errorf("unexpected object key %v", kt)
				}
				if n > 0 {
					buf.WriteByte(',')
				}
				if err := writeString(buf, key); err != nil {
					return err
				}
				buf.WriteByte(':')
				if err := reencode(dec, buf); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
			buf.WriteByte('}')
		case '[':
			buf.WriteByte('[')
			for n := 0; dec.More(); n++ {
				if n > 0 {
					buf.WriteByte(',')
				}
				if err := reencode(dec, buf); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
			buf.WriteByte(']')
		default:
			return fmt.Errorf("unexpected delimiter %v", t)
		}
	case string:
		return writeString(buf, t)
	case json.Number:
		buf.WriteString(t.String())
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case nil:
		buf.WriteString("null")
	default:
		return fmt.Errorf("unexpected token %v", tok)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := encodeValue(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// encodeValue marshals v without HTML escaping and without the trailing
// newline json.Encoder appends. U+2028 and U+2029 are written raw.
func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeLineSeparators undoes the \u2028 and \u2029 escapes encoding/json
// always applies. A sequence preceded by an odd run of backslashes is a
// literal backslash followed by "u2028" and is left alone.
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' {
			out = append(out, b[i])
			continue
		}
		if i+5 < len(b) && b[i+1] == 'u' && string(b[i+2:i+5]) == "202" && (b[i+5] == '8' || b[i+5] == '9') {
			if b[i+5] == '8' {
				out = utf8.AppendRune(out, '\u2028')
			} else {
				out = utf8.AppendRune(out, '\u2029')
			}
			i += 5
			continue
		}
		// any other escape: copy the backslash and the escaped byte together
		out = append(out, b[i])
		if i+1 < len(b) {
			i++
			out = append(out, b[i])
		}
	}
	return out
}
