// Package reader presents source text as a lazy character sequence with
// line/column tracking.
package reader

import (
	"bufio"
	"io"

	"lark/pkg/token"
)

// EOT is the sentinel returned past the end of the source.
const EOT rune = '\x03'

// CharStream reads one character at a time. Position always refers to the
// character Current returns. The sequences "\r\n" and "\r" are both
// normalized to a single '\n'.
type CharStream struct {
	src     *bufio.Reader
	current rune
	pos     token.Position
}

func New(r io.Reader) (*CharStream, error) {
	s := &CharStream{
		src: bufio.NewReader(r),
		pos: token.Position{Line: 1, Column: 1},
	}
	first, err := s.read()
	if err != nil {
		return nil, err
	}
	s.current = first
	return s, nil
}

func (s *CharStream) Current() rune {
	return s.current
}

func (s *CharStream) Position() token.Position {
	return s.pos
}

// Next consumes the current character and returns the one after it.
func (s *CharStream) Next() (rune, error) {
	if s.current == EOT {
		return EOT, nil
	}
	if s.current == '\n' {
		s.pos.Line++
		s.pos.Column = 1
	} else {
		s.pos.Column++
	}
	next, err := s.read()
	if err != nil {
		return EOT, err
	}
	s.current = next
	return s.current, nil
}

func (s *CharStream) read() (rune, error) {
	r, _, err := s.src.ReadRune()
	if err == io.EOF {
		return EOT, nil
	}
	if err != nil {
		return EOT, err
	}
	if r == '\r' {
		if peek, _, err := s.src.ReadRune(); err == nil && peek != '\n' {
			s.src.UnreadRune()
		}
		return '\n', nil
	}
	return r, nil
}
