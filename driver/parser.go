package driver

import (
	"fmt"
	"strings"
)

type SyntaxError struct {
	Row               int
	Col               int
	Message           string
	Token             VToken
	ExpectedTerminals []string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v:%v: %v", e.Row, e.Col, e.Message)
}

type ParserOption func(p *Parser) error

func SemanticAction(semAct SemanticActionSet) ParserOption {
	return func(p *Parser) error {
		p.semAct = semAct
		return nil
	}
}

// Parser runs a parsing table over a token stream. It stops at the first
// syntax error, which includes a cell holding more than one action.
type Parser struct {
	toks       TokenStream
	gram       Grammar
	stateStack *stateStack
	semAct     SemanticActionSet
	synErrs    []*SyntaxError
}

func NewParser(toks TokenStream, gram Grammar, opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		toks:       toks,
		gram:       gram,
		stateStack: &stateStack{},
	}

	for _, opt := range opts {
		err := opt(p)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Parser) Parse() error {
	p.stateStack.push(p.gram.InitialState())
	tok, err := p.toks.Next()
	if err != nil {
		return err
	}

	for {
		if tok.Invalid() {
			p.missError(tok, fmt.Sprintf("unknown terminal: %v", string(tok.Lexeme())), nil)
			return nil
		}

		kind, v := p.gram.Action(p.stateStack.top(), p.tokenToTerminal(tok))
		switch kind {
		case ActionShift:
			p.stateStack.push(v)
			if p.semAct != nil {
				p.semAct.Shift(tok)
			}

			tok, err = p.toks.Next()
			if err != nil {
				return err
			}
		case ActionReduce:
			err := p.reduce(v)
			if err != nil {
				return err
			}
			if p.semAct != nil {
				p.semAct.Reduce(v)
			}
		case ActionAccept:
			if p.semAct != nil {
				p.semAct.Accept()
			}
			return nil
		case ActionConflict:
			acts := p.gram.Conflict(v)
			descs := make([]string, len(acts))
			for i, act := range acts {
				descs[i] = act.String()
			}
			p.missError(tok, fmt.Sprintf("ambiguous action: %v", strings.Join(descs, ", ")), nil)
			return nil
		default:
			p.missError(tok, "unexpected token", p.searchLookahead(p.stateStack.top()))
			return nil
		}
	}
}

func (p *Parser) tokenToTerminal(tok VToken) int {
	if tok.EOF() {
		return p.gram.EOF()
	}

	return tok.TerminalID()
}

func (p *Parser) reduce(rule int) error {
	p.stateStack.pop(p.gram.AlternativeSymbolCount(rule))
	next := p.gram.GoTo(p.stateStack.top(), p.gram.LHS(rule))
	if next < 0 {
		return fmt.Errorf("no goto entry; state: %v, nonterminal: %v", p.stateStack.top(), p.gram.NonTerminal(p.gram.LHS(rule)))
	}
	p.stateStack.push(next)
	return nil
}

func (p *Parser) missError(tok VToken, msg string, expected []string) {
	row, col := tok.Position()
	p.synErrs = append(p.synErrs, &SyntaxError{
		Row:               row,
		Col:               col,
		Message:           msg,
		Token:             tok,
		ExpectedTerminals: expected,
	})
	if p.semAct != nil {
		p.semAct.MissError(tok)
	}
}

func (p *Parser) SyntaxErrors() []*SyntaxError {
	return p.synErrs
}

func (p *Parser) searchLookahead(state int) []string {
	kinds := []string{}
	for term := 0; term < p.gram.TerminalCount(); term++ {
		kind, _ := p.gram.Action(state, term)
		if kind == ActionError {
			continue
		}

		if term == p.gram.EOF() {
			kinds = append(kinds, "<eof>")
			continue
		}

		kinds = append(kinds, p.gram.Terminal(term))
	}

	return kinds
}

type stateStack struct {
	items []int
}

func (s *stateStack) top() int {
	return s.items[len(s.items)-1]
}

func (s *stateStack) push(state int) {
	s.items = append(s.items, state)
}

func (s *stateStack) pop(n int) {
	s.items = s.items[:len(s.items)-n]
}
