package grammar

import (
	"sort"
	"testing"
)

func buildTestGrammar(t *testing.T, build func(b *GrammarBuilder)) *Grammar {
	t.Helper()

	b := NewGrammarBuilder("test")
	build(b)
	g, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build a grammar: %v", err)
	}
	return g
}

// exprGrammar is `E → E + E | id`, optionally with '+' declared left-associative.
func exprGrammar(t *testing.T, leftAssoc bool) *Grammar {
	t.Helper()

	return buildTestGrammar(t, func(b *GrammarBuilder) {
		if leftAssoc {
			b.Left("+")
		}
		b.LHS("E").N("E").T("+").N("E").End()
		b.LHS("E").T("id").End()
	})
}

// lalrGrammar belongs to LALR(1) class, not SLR(1).
func lalrGrammar(t *testing.T) *Grammar {
	t.Helper()

	return buildTestGrammar(t, func(b *GrammarBuilder) {
		b.LHS("S").N("L").T("=").N("R").End()
		b.LHS("S").N("R").End()
		b.LHS("L").T("*").N("R").End()
		b.LHS("L").T("id").End()
		b.LHS("R").N("L").End()
	})
}

// erasableGrammar has erasable symbols in the middle and at the end of rules.
func erasableGrammar(t *testing.T) *Grammar {
	t.Helper()

	return buildTestGrammar(t, func(b *GrammarBuilder) {
		b.LHS("S").N("A").N("B").T("c").End()
		b.LHS("S").T("x").N("T").T("y").End()
		b.LHS("A").T("a").End()
		b.LHS("A").End()
		b.LHS("B").T("b").End()
		b.LHS("B").End()
		b.LHS("T").N("U").N("V").End()
		b.LHS("U").T("u").End()
		b.LHS("V").T("v").End()
		b.LHS("V").End()
	})
}

func testSymbol(t *testing.T, g *Grammar, name string) *Symbol {
	t.Helper()

	sym, ok := g.Symbol(name)
	if !ok {
		t.Fatalf("symbol was not found: %v", name)
	}
	return sym
}

// testRule finds the rule `lhs → rhs...`.
func testRule(t *testing.T, g *Grammar, lhs string, rhs ...string) *Rule {
	t.Helper()

RULES:
	for _, r := range g.Rules {
		if r.Nonterminal.Name != lhs || r.Len() != len(rhs) {
			continue
		}
		for i, name := range rhs {
			if g.Locations[r.LocStart+i].Symbol.Name != name {
				continue RULES
			}
		}
		return r
	}
	t.Fatalf("rule was not found: %v → %v", lhs, rhs)
	return nil
}

func termNames(g *Grammar, terms []int) []string {
	names := make([]string, len(terms))
	for i, term := range terms {
		names[i] = g.Symbols[term].Name
	}
	sort.Strings(names)
	return names
}

// compileAutomaton runs the analysis without flattening the tables.
func compileAutomaton(g *Grammar) *automaton {
	a := genLALR1Automaton(g)
	a.buildActions()
	a.markReachable()
	a.assignIndices()
	return a
}
