package driver

import (
	"fmt"

	spec "github.com/nihei9/loquat/spec/grammar"
)

type ActionKind int

const (
	ActionError ActionKind = iota
	ActionShift
	ActionReduce
	ActionAccept
	ActionConflict
)

func (k ActionKind) String() string {
	switch k {
	case ActionShift:
		return "shift"
	case ActionReduce:
		return "reduce"
	case ActionAccept:
		return "accept"
	case ActionConflict:
		return "conflict"
	default:
		return "error"
	}
}

// Action is a decoded action cell.
type Action struct {
	Kind  ActionKind
	Value int
}

func (a Action) String() string {
	switch a.Kind {
	case ActionShift, ActionReduce:
		return fmt.Sprintf("%v %v", a.Kind, a.Value)
	default:
		return a.Kind.String()
	}
}

// Grammar is the view of a parsing table the parser runs on.
type Grammar interface {
	// InitialState returns the index of the start state.
	InitialState() int

	// Action decodes the action cell of a state and a terminal. The value is
	// a state to shift to, a rule to reduce, or an offset into the conflict
	// table depending on the kind.
	Action(state int, terminal int) (ActionKind, int)

	// Conflict returns the competing actions of a conflict table entry.
	Conflict(offset int) []Action

	// GoTo returns the state entered after reducing to lhs, or -1 when the table has none.
	GoTo(state int, lhs int) int

	// AlternativeSymbolCount returns the right-hand side length of a rule.
	AlternativeSymbolCount(rule int) int

	// LHS returns the nonterminal index of a rule.
	LHS(rule int) int

	TerminalCount() int
	EOF() int
	Terminal(terminal int) string
	NonTerminal(nonTerminal int) string

	// TerminalID finds a terminal by name.
	TerminalID(name string) (int, bool)
}

type grammarImpl struct {
	t         *spec.ParsingTable
	name2Term map[string]int
}

func NewGrammar(t *spec.ParsingTable) *grammarImpl {
	name2Term := make(map[string]int, len(t.Terminals))
	for i, name := range t.Terminals {
		name2Term[name] = i
	}
	return &grammarImpl{
		t:         t,
		name2Term: name2Term,
	}
}

func (g *grammarImpl) InitialState() int {
	return g.t.StartState
}

func (g *grammarImpl) Action(state int, terminal int) (ActionKind, int) {
	return g.decode(g.t.Action.Lookup(state, terminal))
}

func (g *grammarImpl) decode(v int) (ActionKind, int) {
	act := g.t.Action
	switch {
	case v < act.StateCount:
		return ActionShift, v
	case v < act.StateCount+act.RuleCount:
		return ActionReduce, v - act.StateCount
	case v < act.AcceptAction:
		return ActionConflict, v - act.StateCount - act.RuleCount
	case v == act.AcceptAction:
		return ActionAccept, 0
	default:
		return ActionError, 0
	}
}

func (g *grammarImpl) Conflict(offset int) []Action {
	n := g.t.Action.Conflicts[offset]
	acts := make([]Action, 0, n-1)
	for _, v := range g.t.Action.Conflicts[offset+1 : offset+n] {
		kind, value := g.decode(v)
		acts = append(acts, Action{
			Kind:  kind,
			Value: value,
		})
	}
	return acts
}

func (g *grammarImpl) GoTo(state int, lhs int) int {
	next := g.t.GoTo.Lookup(state, lhs)
	if next == g.t.GoTo.ErrorValue {
		return -1
	}
	return next
}

func (g *grammarImpl) AlternativeSymbolCount(rule int) int {
	return g.t.Action.Rules[rule].Length
}

func (g *grammarImpl) LHS(rule int) int {
	return g.t.Action.Rules[rule].LHS
}

func (g *grammarImpl) TerminalCount() int {
	return g.t.Action.TokenCount
}

func (g *grammarImpl) EOF() int {
	return g.t.EOISymbol
}

func (g *grammarImpl) Terminal(terminal int) string {
	return g.t.Terminals[terminal]
}

func (g *grammarImpl) NonTerminal(nonTerminal int) string {
	return g.t.NonTerminals[nonTerminal]
}

func (g *grammarImpl) TerminalID(name string) (int, bool) {
	term, ok := g.name2Term[name]
	return term, ok
}
