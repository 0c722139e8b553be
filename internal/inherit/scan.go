package inherit

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"
)

const (
	// StartSentinel opens a directive span; the identifier follows it.
	StartSentinel = '←'
	// EndSentinel terminates the identifier; a JSON object follows it.
	EndSentinel = '|'
)

// ErrFormat is matched by every error reported for a malformed override
// document.
var ErrFormat = errors.New("malformed override document")

// SyntaxError describes a malformed directive span.
type SyntaxError struct {
	Offset int // byte offset in the override document
	Msg    string
	Err    error // underlying JSON error, if any
}

func (e *SyntaxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("override directive at offset %d: %s: %v", e.Offset, e.Msg, e.Err)
	}
	return fmt.Sprintf("override directive at offset %d: %s", e.Offset, e.Msg)
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrFormat
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Directive overlays Changes onto the template node whose id equals ID.
type Directive struct {
	ID      string
	Changes *Object
}

// Directives scans src left to right and yields its directive spans in
// document order. Scanning stops at the first error, which is yielded with a
// zero Directive. The sequence is single-use.
func Directives(src string) iter.Seq2[Directive, error] {
	return func(yield func(Directive, error) bool) {
		s := &scanner{src: src}
		for {
			d, ok, err := s.next()
			if err != nil {
				yield(Directive{}, err)
				return
			}
			if !ok {
				return
			}
			if !yield(d, nil) {
				return
			}
		}
	}
}

// ParseDirectives collects every directive of src.
func ParseDirectives(src string) ([]Directive, error) {
	var ds []Directive
	for d, err := range Directives(src) {
		if err != nil {
			return nil, err
		}
		ds = append(ds, d)
	}
	return ds, nil
}

type scanner struct {
	src string
	pos int
}

// next returns the next directive span, or ok == false at end of input.
func (s *scanner) next() (d Directive, ok bool, err error) {
	start := strings.IndexRune(s.src[s.pos:], StartSentinel)
	if start < 0 {
		s.pos = len(s.src)
		return Directive{}, false, nil
	}
	spanStart := s.pos + start
	s.pos = spanStart + utf8.RuneLen(StartSentinel)

	id, err := s.ident(spanStart)
	if err != nil {
		return Directive{}, false, err
	}

	s.skipSpace()
	if s.pos >= len(s.src) || s.src[s.pos] != '{' {
		return Directive{}, false, &SyntaxError{Offset: s.pos, Msg: fmt.Sprintf("expected '{' after identifier %q", id)}
	}
	body, err := s.object()
	if err != nil {
		return Directive{}, false, err
	}

	v, err := Decode([]byte(body))
	if err != nil {
		return Directive{}, false, &SyntaxError{Offset: s.pos - len(body), Msg: fmt.Sprintf("invalid JSON for %q", id), Err: err}
	}
	changes, ok := v.(*Object)
	if !ok {
		return Directive{}, false, &SyntaxError{Offset: s.pos - len(body), Msg: fmt.Sprintf("changes for %q are not an object", id)}
	}
	return Directive{ID: id, Changes: changes}, true, nil
}

// ident reads up to the end sentinel. A repeated start sentinel restarts the
// identifier.
func (s *scanner) ident(spanStart int) (string, error) {
	idStart := s.pos
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		switch r {
		case EndSentinel:
			id := s.src[idStart:s.pos]
			s.pos += size
			return id, nil
		case StartSentinel:
			idStart = s.pos + size
		}
		s.pos += size
	}
	return "", &SyntaxError{Offset: spanStart, Msg: "unterminated directive identifier"}
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\r', '\n':
			s.pos++
		default:
			return
		}
	}
}

// object returns the JSON object starting at s.pos, tracking brace depth.
// Braces inside string literals do not count.
func (s *scanner) object() (string, error) {
	start := s.pos
	depth := 0
	inString := false
	for ; s.pos < len(s.src); s.pos++ {
		c := s.src[s.pos]
		if inString {
			switch c {
			case '\\':
				s.pos++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				s.pos++
				return s.src[start:s.pos], nil
			}
		}
	}
	return "", &SyntaxError{Offset: start, Msg: "unbalanced braces in directive body"}
}
