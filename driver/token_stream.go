package driver

import (
	"bufio"
	"io"
	"strings"
)

type VToken interface {
	// TerminalID returns a terminal index. It is meaningless for an EOF or invalid token.
	TerminalID() int

	Lexeme() []byte

	EOF() bool

	// Invalid is set for a word naming no terminal.
	Invalid() bool

	// Position returns the 1-based row and column.
	Position() (int, int)
}

type TokenStream interface {
	Next() (VToken, error)
}

type vToken struct {
	terminalID int
	lexeme     string
	eof        bool
	invalid    bool
	row        int
	col        int
}

func (t *vToken) TerminalID() int {
	return t.terminalID
}

func (t *vToken) Lexeme() []byte {
	return []byte(t.lexeme)
}

func (t *vToken) EOF() bool {
	return t.eof
}

func (t *vToken) Invalid() bool {
	return t.invalid
}

func (t *vToken) Position() (int, int) {
	return t.row, t.col
}

// tokenStream reads terminal names separated by white spaces. The input
// carries no lexical layer; each word must be the name of a terminal.
type tokenStream struct {
	gram    Grammar
	scanner *bufio.Scanner
	row     int
	words   []string
	cols    []int
	eof     bool
}

func NewTokenStream(gram Grammar, src io.Reader) (TokenStream, error) {
	return &tokenStream{
		gram:    gram,
		scanner: bufio.NewScanner(src),
	}, nil
}

func (s *tokenStream) Next() (VToken, error) {
	for len(s.words) == 0 {
		if s.eof || !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, err
			}
			s.eof = true
			return &vToken{
				terminalID: s.gram.EOF(),
				eof:        true,
				row:        s.row + 1,
				col:        1,
			}, nil
		}
		s.row++
		s.words, s.cols = splitWords(s.scanner.Text())
	}

	word, col := s.words[0], s.cols[0]
	s.words, s.cols = s.words[1:], s.cols[1:]

	tok := &vToken{
		lexeme: word,
		row:    s.row,
		col:    col,
	}
	term, ok := s.gram.TerminalID(word)
	if !ok || term == s.gram.EOF() {
		tok.invalid = true
	} else {
		tok.terminalID = term
	}
	return tok, nil
}

// splitWords splits a line like strings.Fields and also returns the 1-based
// column of each word, counted in runes.
func splitWords(line string) ([]string, []int) {
	var words []string
	var cols []int
	start, startCol := -1, 0
	col := 0
	for i, r := range line {
		col++
		if strings.ContainsRune(" \t\r\v\f", r) {
			if start >= 0 {
				words = append(words, line[start:i])
				cols = append(cols, startCol)
				start = -1
			}
			continue
		}
		if start < 0 {
			start, startCol = i, col
		}
	}
	if start >= 0 {
		words = append(words, line[start:])
		cols = append(cols, startCol)
	}
	return words, cols
}
