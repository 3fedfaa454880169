package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// ParseError reports a manifest line that is not a JSON object.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("manifest line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Reader yields manifest records one line at a time. Lines may be of any
// length.
type Reader struct {
	br   *bufio.Reader
	line int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 64*1024)}
}

// Next parses the next line. It returns io.EOF once the input is exhausted.
func (r *Reader) Next() (*Record, error) {
	b, err := r.br.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	if len(b) == 0 && err == io.EOF {
		return nil, io.EOF
	}
	r.line++
	b = bytes.TrimSuffix(b, []byte("\n"))
	b = bytes.TrimSuffix(b, []byte("\r"))
	rec := NewRecord()
	if perr := rec.UnmarshalJSON(b); perr != nil {
		return nil, &ParseError{Line: r.line, Err: perr}
	}
	return rec, nil
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int { return r.line }
