package grammar

import "fmt"

type symbolKind string

const (
	symbolKindNonTerminal = symbolKind("non-terminal")
	symbolKindTerminal    = symbolKind("terminal")
)

func (t symbolKind) String() string {
	return string(t)
}

type Associativity string

const (
	AssocNone     = Associativity("")
	AssocLeft     = Associativity("left")
	AssocRight    = Associativity("right")
	AssocNonassoc = Associativity("nonassoc")
)

// PrecedenceNone is the precedence of a terminal or rule without a declared one.
const PrecedenceNone = -1

const (
	// The names contain `$` to avoid conflicting with user-defined symbols.
	symbolNameStart = "$start"
	symbolNameEOI   = "$EOI"
)

// Symbol is either a terminal or a nonterminal. Value is dense: terminals
// are numbered first, then nonterminals.
type Symbol struct {
	Name  string
	Value int
	kind  symbolKind

	// terminals
	Precedence    int
	Associativity Associativity

	// nonterminals
	Rules    []*Rule
	Erasable bool
}

func newTerminal(name string) *Symbol {
	return &Symbol{
		Name:       name,
		kind:       symbolKindTerminal,
		Precedence: PrecedenceNone,
	}
}

func newNonTerminal(name string) *Symbol {
	return &Symbol{
		Name:       name,
		kind:       symbolKindNonTerminal,
		Precedence: PrecedenceNone,
	}
}

func (s *Symbol) IsTerminal() bool {
	return s.kind == symbolKindTerminal
}

func (s *Symbol) String() string {
	return s.Name
}

// Position is a source position of a rule or a symbol reference.
type Position struct {
	Row int
	Col int
}

// Rule is a production occupying the locations [LocStart, LocStart+LocCount).
// The last location is the one with the dot at the end.
type Rule struct {
	Nonterminal *Symbol
	LocStart    int
	LocCount    int

	// Precedence is the terminal giving the rule its precedence; nil when the
	// rule has none.
	Precedence *Symbol

	ExpectConflict bool
	Pos            Position

	// Number is the declaration order; Index is the dense index assigned to
	// reachable rules, or -1.
	Number    int
	Index     int
	Reachable bool
}

func (r *Rule) Len() int {
	return r.LocCount - 1
}

func (r *Rule) IsEmpty() bool {
	return r.LocCount == 1
}

func (r *Rule) precedence() int {
	if r.Precedence == nil {
		return PrecedenceNone
	}
	return r.Precedence.Precedence
}

// Location is one dot position within a rule.
type Location struct {
	Rule *Rule

	// Symbol is the symbol after the dot, nil when the dot is at the end.
	Symbol *Symbol

	ExpectConflict bool
	Pos            Position
}

func (g *Grammar) ruleString(r *Rule) string {
	rhs := ""
	for i := r.LocStart; i < r.LocStart+r.Len(); i++ {
		rhs += " " + g.Locations[i].Symbol.Name
	}
	if rhs == "" {
		rhs = " ε"
	}
	return fmt.Sprintf("%v →%v", r.Nonterminal.Name, rhs)
}

func (g *Grammar) locationString(loc int) string {
	r := g.Locations[loc].Rule
	s := r.Nonterminal.Name + " →"
	for i := r.LocStart; i < r.LocStart+r.LocCount; i++ {
		if i == loc {
			s += " ・"
		}
		if sym := g.Locations[i].Symbol; sym != nil {
			s += " " + sym.Name
		}
	}
	return s
}
