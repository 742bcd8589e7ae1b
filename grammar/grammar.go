package grammar

import (
	"fmt"
	"strings"

	verr "github.com/nihei9/loquat/error"
	spec "github.com/nihei9/loquat/spec/grammar"
)

// Grammar is an augmented grammar: `$start → Goal $EOI` is the last rule,
// `$EOI` is the terminal with value 0 and `$start` is the last nonterminal.
type Grammar struct {
	Name          string
	Symbols       []*Symbol
	TerminalCount int
	Rules         []*Rule
	Locations     []Location
	Start         *Symbol
	Goal          *Symbol
	EOI           *Symbol
	StartRule     *Rule

	name2Sym map[string]*Symbol
}

func (g *Grammar) Terminals() []*Symbol {
	return g.Symbols[:g.TerminalCount]
}

func (g *Grammar) NonTerminals() []*Symbol {
	return g.Symbols[g.TerminalCount:]
}

func (g *Grammar) Symbol(name string) (*Symbol, bool) {
	sym, ok := g.name2Sym[name]
	return sym, ok
}

type rhsDraft struct {
	name   string
	expect bool
}

type ruleDraft struct {
	lhs    string
	rhs    []*rhsDraft
	prec   string
	expect bool
	pos    Position
}

type termDraft struct {
	name  string
	prec  int
	assoc Associativity
}

// GrammarBuilder assembles a grammar rule by rule.
//
//	b := NewGrammarBuilder("expr")
//	b.Left("+")
//	b.LHS("E").N("E").T("+").N("E").End()
//	b.LHS("E").T("id").End()
//	g, err := b.Build()
type GrammarBuilder struct {
	name      string
	start     string
	terms     []*termDraft
	name2Term map[string]*termDraft
	precLevel int
	rules     []*ruleDraft

	errs verr.Diagnostics
}

func NewGrammarBuilder(name string) *GrammarBuilder {
	return &GrammarBuilder{
		name:      name,
		name2Term: map[string]*termDraft{},
	}
}

// Terminal declares terminals without precedence. Terminals referenced with
// RuleBuilder.T need no declaration.
func (b *GrammarBuilder) Terminal(names ...string) *GrammarBuilder {
	for _, name := range names {
		b.terminal(name)
	}
	return b
}

func (b *GrammarBuilder) terminal(name string) *termDraft {
	if t, ok := b.name2Term[name]; ok {
		return t
	}
	t := &termDraft{
		name: name,
		prec: PrecedenceNone,
	}
	b.terms = append(b.terms, t)
	b.name2Term[name] = t
	return t
}

// Left, Right and Nonassoc each open a new precedence level that binds
// tighter than every level declared before.
func (b *GrammarBuilder) Left(names ...string) *GrammarBuilder {
	return b.precedence(AssocLeft, names)
}

func (b *GrammarBuilder) Right(names ...string) *GrammarBuilder {
	return b.precedence(AssocRight, names)
}

func (b *GrammarBuilder) Nonassoc(names ...string) *GrammarBuilder {
	return b.precedence(AssocNonassoc, names)
}

func (b *GrammarBuilder) precedence(assoc Associativity, names []string) *GrammarBuilder {
	for _, name := range names {
		t := b.terminal(name)
		if t.prec != PrecedenceNone {
			b.errs = append(b.errs, &verr.Diagnostic{
				Cause:  semErrDuplicateTerminal,
				Detail: fmt.Sprintf("precedence of '%v' is already declared", name),
			})
			continue
		}
		t.prec = b.precLevel
		t.assoc = assoc
	}
	b.precLevel++
	return b
}

// Start sets the goal symbol. Without it, the nonterminal of the first rule is the goal.
func (b *GrammarBuilder) Start(name string) *GrammarBuilder {
	b.start = name
	return b
}

func (b *GrammarBuilder) LHS(name string) *RuleBuilder {
	return &RuleBuilder{
		b: b,
		r: &ruleDraft{
			lhs: name,
		},
	}
}

type RuleBuilder struct {
	b *GrammarBuilder
	r *ruleDraft
}

// N appends a nonterminal.
func (rb *RuleBuilder) N(name string) *RuleBuilder {
	rb.r.rhs = append(rb.r.rhs, &rhsDraft{
		name: name,
	})
	return rb
}

// T appends a terminal, declaring it when necessary.
func (rb *RuleBuilder) T(name string) *RuleBuilder {
	rb.b.terminal(name)
	rb.r.rhs = append(rb.r.rhs, &rhsDraft{
		name: name,
	})
	return rb
}

// ExpectShift marks a conflict on shifting the most recently appended symbol as anticipated.
func (rb *RuleBuilder) ExpectShift() *RuleBuilder {
	if len(rb.r.rhs) > 0 {
		rb.r.rhs[len(rb.r.rhs)-1].expect = true
	}
	return rb
}

// ExpectReduce marks a conflict on reducing this rule as anticipated.
func (rb *RuleBuilder) ExpectReduce() *RuleBuilder {
	rb.r.expect = true
	return rb
}

// Prec gives the rule the precedence of a terminal.
func (rb *RuleBuilder) Prec(term string) *RuleBuilder {
	rb.r.prec = term
	return rb
}

func (rb *RuleBuilder) At(row, col int) *RuleBuilder {
	rb.r.pos = Position{
		Row: row,
		Col: col,
	}
	return rb
}

func (rb *RuleBuilder) End() *GrammarBuilder {
	rb.b.rules = append(rb.b.rules, rb.r)
	return rb.b
}

func (b *GrammarBuilder) Build() (*Grammar, error) {
	errs := append(verr.Diagnostics{}, b.errs...)
	addErr := func(cause error, detail string, pos Position) {
		errs = append(errs, &verr.Diagnostic{
			Cause:  cause,
			Detail: detail,
			Row:    pos.Row,
		})
	}

	g := &Grammar{
		Name:     b.name,
		name2Sym: map[string]*Symbol{},
	}

	g.EOI = newTerminal(symbolNameEOI)
	g.Symbols = append(g.Symbols, g.EOI)
	g.name2Sym[g.EOI.Name] = g.EOI
	for _, t := range b.terms {
		if strings.HasPrefix(t.name, "$") {
			addErr(semErrReservedName, t.name, Position{})
			continue
		}
		sym := newTerminal(t.name)
		sym.Precedence = t.prec
		sym.Associativity = t.assoc
		g.Symbols = append(g.Symbols, sym)
		g.name2Sym[sym.Name] = sym
	}
	g.TerminalCount = len(g.Symbols)

	for _, r := range b.rules {
		if _, ok := g.name2Sym[r.lhs]; ok {
			if sym := g.name2Sym[r.lhs]; sym.IsTerminal() {
				addErr(semErrDuplicateName, r.lhs, r.pos)
			}
			continue
		}
		if strings.HasPrefix(r.lhs, "$") {
			addErr(semErrReservedName, r.lhs, r.pos)
			continue
		}
		sym := newNonTerminal(r.lhs)
		g.Symbols = append(g.Symbols, sym)
		g.name2Sym[sym.Name] = sym
	}

	{
		name := b.start
		if name == "" && len(b.rules) > 0 {
			name = b.rules[0].lhs
		}
		if name == "" {
			addErr(semErrNoStartSymbol, "", Position{})
			return nil, errs
		}
		sym, ok := g.name2Sym[name]
		switch {
		case !ok:
			addErr(semErrUndefinedSym, fmt.Sprintf("start symbol '%v'", name), Position{})
			return nil, errs
		case sym.IsTerminal():
			addErr(semErrStartNotNonTerminal, name, Position{})
			return nil, errs
		}
		g.Goal = sym
	}

	g.Start = newNonTerminal(symbolNameStart)
	g.Symbols = append(g.Symbols, g.Start)
	g.name2Sym[g.Start.Name] = g.Start

	for i, sym := range g.Symbols {
		sym.Value = i
	}

	for _, r := range b.rules {
		lhs, ok := g.name2Sym[r.lhs]
		if !ok || lhs.IsTerminal() {
			continue
		}
		rule := &Rule{
			Nonterminal:    lhs,
			LocStart:       len(g.Locations),
			LocCount:       len(r.rhs) + 1,
			ExpectConflict: r.expect,
			Pos:            r.pos,
			Number:         len(g.Rules),
			Index:          -1,
		}
		for _, e := range r.rhs {
			sym, ok := g.name2Sym[e.name]
			switch {
			case strings.HasPrefix(e.name, "$"):
				addErr(semErrReservedName, e.name, r.pos)
				sym = nil
			case !ok:
				addErr(semErrUndefinedSym, e.name, r.pos)
			}
			if sym != nil && sym.IsTerminal() {
				rule.Precedence = sym
			}
			g.Locations = append(g.Locations, Location{
				Rule:           rule,
				Symbol:         sym,
				ExpectConflict: e.expect,
				Pos:            r.pos,
			})
		}
		g.Locations = append(g.Locations, Location{
			Rule:           rule,
			ExpectConflict: r.expect,
			Pos:            r.pos,
		})

		if r.prec != "" {
			sym, ok := g.name2Sym[r.prec]
			switch {
			case !ok:
				addErr(semErrUndefinedSym, fmt.Sprintf("precedence symbol '%v'", r.prec), r.pos)
			case !sym.IsTerminal():
				addErr(semErrPrecNotTerminal, r.prec, r.pos)
			default:
				rule.Precedence = sym
			}
		}

		lhs.Rules = append(lhs.Rules, rule)
		g.Rules = append(g.Rules, rule)
	}

	{
		rule := &Rule{
			Nonterminal: g.Start,
			LocStart:    len(g.Locations),
			LocCount:    3,
			Number:      len(g.Rules),
			Index:       -1,
		}
		g.Locations = append(g.Locations,
			Location{Rule: rule, Symbol: g.Goal},
			Location{Rule: rule, Symbol: g.EOI},
			Location{Rule: rule},
		)
		g.Start.Rules = append(g.Start.Rules, rule)
		g.Rules = append(g.Rules, rule)
		g.StartRule = rule
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return g, nil
}

// NewGrammarFromDescription builds a grammar from its JSON form.
func NewGrammarFromDescription(desc *spec.GrammarDescription) (*Grammar, error) {
	b := NewGrammarBuilder(desc.Name)
	b.Terminal(desc.Terminals...)
	for _, level := range desc.Precedence {
		switch level.Associativity {
		case spec.AssocLeft:
			b.Left(level.Symbols...)
		case spec.AssocRight:
			b.Right(level.Symbols...)
		case spec.AssocNonassoc:
			b.Nonassoc(level.Symbols...)
		default:
			b.errs = append(b.errs, &verr.Diagnostic{
				Cause:  semErrInvalidAssociativity,
				Detail: level.Associativity,
			})
		}
	}
	b.Start(desc.Start)

	terms := map[string]struct{}{}
	for _, t := range b.terms {
		terms[t.name] = struct{}{}
	}
	for _, r := range desc.Rules {
		rb := b.LHS(r.LHS).At(r.Row, r.Col)
		for _, e := range r.RHS {
			if _, ok := terms[e.Name]; ok {
				rb.T(e.Name)
			} else {
				rb.N(e.Name)
			}
			if e.Expect {
				rb.ExpectShift()
			}
		}
		if r.Precedence != "" {
			rb.Prec(r.Precedence)
		}
		if r.Expect {
			rb.ExpectReduce()
		}
		rb.End()
	}

	return b.Build()
}
