package grammar

import (
	"errors"
	"testing"

	verr "github.com/nihei9/loquat/error"
	spec "github.com/nihei9/loquat/spec/grammar"
)

func TestGrammarBuilder_Build(t *testing.T) {
	g := buildTestGrammar(t, func(b *GrammarBuilder) {
		b.Left("+", "-")
		b.Left("*")
		b.Right("^")
		b.LHS("E").N("E").T("+").N("E").End()
		b.LHS("E").N("E").T("-").N("E").End()
		b.LHS("E").N("E").T("*").N("E").End()
		b.LHS("E").N("E").T("^").N("E").End()
		b.LHS("E").T("-").N("E").Prec("^").End()
		b.LHS("E").T("(").N("E").T(")").End()
		b.LHS("E").T("id").End()
	})

	expectedSyms := []struct {
		name     string
		terminal bool
		prec     int
		assoc    Associativity
	}{
		{name: "$EOI", terminal: true, prec: PrecedenceNone},
		{name: "+", terminal: true, prec: 0, assoc: AssocLeft},
		{name: "-", terminal: true, prec: 0, assoc: AssocLeft},
		{name: "*", terminal: true, prec: 1, assoc: AssocLeft},
		{name: "^", terminal: true, prec: 2, assoc: AssocRight},
		{name: "(", terminal: true, prec: PrecedenceNone},
		{name: ")", terminal: true, prec: PrecedenceNone},
		{name: "id", terminal: true, prec: PrecedenceNone},
		{name: "E", prec: PrecedenceNone},
		{name: "$start", prec: PrecedenceNone},
	}
	if len(g.Symbols) != len(expectedSyms) {
		t.Fatalf("unexpected symbol count; want: %v, got: %v", len(expectedSyms), len(g.Symbols))
	}
	for i, e := range expectedSyms {
		sym := g.Symbols[i]
		if sym.Name != e.name || sym.Value != i || sym.IsTerminal() != e.terminal || sym.Precedence != e.prec || sym.Associativity != e.assoc {
			t.Errorf("unexpected symbol #%v; want: %+v, got: %+v", i, e, sym)
		}
	}
	if g.TerminalCount != 8 {
		t.Errorf("unexpected terminal count: %v", g.TerminalCount)
	}
	if g.EOI.Value != 0 || g.Start != g.Symbols[len(g.Symbols)-1] || g.Goal.Name != "E" {
		t.Errorf("unexpected distinguished symbols; EOI: %v, start: %v, goal: %v", g.EOI, g.Start, g.Goal)
	}

	rulePrecs := []struct {
		rhs  []string
		prec string
	}{
		{rhs: []string{"E", "+", "E"}, prec: "+"},
		{rhs: []string{"E", "*", "E"}, prec: "*"},
		{rhs: []string{"-", "E"}, prec: "^"},
		// The last terminal gives the precedence.
		{rhs: []string{"(", "E", ")"}, prec: ")"},
		{rhs: []string{"id"}, prec: "id"},
	}
	for _, e := range rulePrecs {
		r := testRule(t, g, "E", e.rhs...)
		if r.Precedence == nil || r.Precedence.Name != e.prec {
			t.Errorf("unexpected precedence symbol of %v; want: %v, got: %v", g.ruleString(r), e.prec, r.Precedence)
		}
	}

	if g.StartRule != g.Rules[len(g.Rules)-1] {
		t.Fatalf("the augmented rule must be the last rule")
	}
	if g.ruleString(g.StartRule) != "$start → E $EOI" || g.StartRule.LocCount != 3 {
		t.Errorf("unexpected augmented rule: %v", g.ruleString(g.StartRule))
	}

	for _, r := range g.Rules {
		if r.LocCount != r.Len()+1 {
			t.Errorf("unexpected location count of %v: %v", g.ruleString(r), r.LocCount)
		}
		last := g.Locations[r.LocStart+r.LocCount-1]
		if last.Symbol != nil || last.Rule != r {
			t.Errorf("the last location of %v must have no symbol", g.ruleString(r))
		}
		if r.Index != -1 {
			t.Errorf("a rule index must stay unassigned until compilation: %v", r.Index)
		}
	}
}

func TestGrammarBuilder_EmptyRule(t *testing.T) {
	g := buildTestGrammar(t, func(b *GrammarBuilder) {
		b.LHS("S").N("A").T("a").End()
		b.LHS("A").End()
	})
	r := testRule(t, g, "A")
	if !r.IsEmpty() || r.Len() != 0 || r.Precedence != nil {
		t.Fatalf("unexpected empty rule: %+v", r)
	}
	if g.ruleString(r) != "A → ε" {
		t.Fatalf("unexpected rule string: %v", g.ruleString(r))
	}
	if g.locationString(r.LocStart) != "A → ・" {
		t.Fatalf("unexpected location string: %v", g.locationString(r.LocStart))
	}
}

func TestGrammarBuilder_Start(t *testing.T) {
	g := buildTestGrammar(t, func(b *GrammarBuilder) {
		b.Start("B")
		b.LHS("A").T("a").End()
		b.LHS("B").N("A").End()
	})
	if g.Goal.Name != "B" {
		t.Fatalf("unexpected goal: %v", g.Goal)
	}
}

func TestGrammarBuilder_Errors(t *testing.T) {
	tests := []struct {
		caption string
		build   func(b *GrammarBuilder)
		cause   error
	}{
		{
			caption: "a grammar without rules has no start symbol",
			build:   func(b *GrammarBuilder) {},
			cause:   semErrNoStartSymbol,
		},
		{
			caption: "a right-hand side cannot contain an undefined symbol",
			build: func(b *GrammarBuilder) {
				b.LHS("S").N("A").End()
			},
			cause: semErrUndefinedSym,
		},
		{
			caption: "a start symbol must be defined",
			build: func(b *GrammarBuilder) {
				b.Start("X")
				b.LHS("S").T("a").End()
			},
			cause: semErrUndefinedSym,
		},
		{
			caption: "a start symbol must be a nonterminal",
			build: func(b *GrammarBuilder) {
				b.Start("a")
				b.LHS("S").T("a").End()
			},
			cause: semErrStartNotNonTerminal,
		},
		{
			caption: "a terminal cannot appear on a left-hand side",
			build: func(b *GrammarBuilder) {
				b.LHS("S").T("a").End()
				b.LHS("a").T("b").End()
			},
			cause: semErrDuplicateName,
		},
		{
			caption: "names starting with $ are reserved",
			build: func(b *GrammarBuilder) {
				b.LHS("$S").T("a").End()
			},
			cause: semErrReservedName,
		},
		{
			caption: "a right-hand side cannot refer to $EOI",
			build: func(b *GrammarBuilder) {
				b.LHS("S").T("a").N("$EOI").End()
			},
			cause: semErrReservedName,
		},
		{
			caption: "a precedence symbol must be a terminal",
			build: func(b *GrammarBuilder) {
				b.LHS("S").T("a").Prec("S").End()
			},
			cause: semErrPrecNotTerminal,
		},
		{
			caption: "a precedence symbol must be defined",
			build: func(b *GrammarBuilder) {
				b.LHS("S").T("a").Prec("b").End()
			},
			cause: semErrUndefinedSym,
		},
		{
			caption: "precedence cannot be declared twice",
			build: func(b *GrammarBuilder) {
				b.Left("a")
				b.Right("a")
				b.LHS("S").T("a").End()
			},
			cause: semErrDuplicateTerminal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			b := NewGrammarBuilder("test")
			tt.build(b)
			g, err := b.Build()
			if err == nil {
				t.Fatalf("an error must occur")
			}
			if g != nil {
				t.Fatalf("no grammar must be returned")
			}
			var diags verr.Diagnostics
			if !errors.As(err, &diags) {
				t.Fatalf("unexpected error type: %T", err)
			}
			found := false
			for _, d := range diags {
				if errors.Is(d, tt.cause) {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("unexpected errors; want: %v, got: %v", tt.cause, err)
			}
		})
	}
}

func TestNewGrammarFromDescription(t *testing.T) {
	desc := &spec.GrammarDescription{
		Name:      "expr",
		Terminals: []string{"id"},
		Precedence: []*spec.PrecedenceLevel{
			{Associativity: spec.AssocLeft, Symbols: []string{"+"}},
			{Associativity: spec.AssocNonassoc, Symbols: []string{"<"}},
		},
		Rules: []*spec.RuleDescription{
			{LHS: "E", RHS: []*spec.RHSEntry{{Name: "E"}, {Name: "+"}, {Name: "E"}}},
			{LHS: "E", RHS: []*spec.RHSEntry{{Name: "E"}, {Name: "<", Expect: true}, {Name: "E"}}, Expect: true, Row: 3},
			{LHS: "E", RHS: []*spec.RHSEntry{{Name: "id"}}, Precedence: "+"},
		},
	}

	g, err := NewGrammarFromDescription(desc)
	if err != nil {
		t.Fatal(err)
	}

	if g.Name != "expr" || g.Goal.Name != "E" {
		t.Fatalf("unexpected grammar: %v, goal: %v", g.Name, g.Goal)
	}
	if lt := testSymbol(t, g, "<"); !lt.IsTerminal() || lt.Precedence != 1 || lt.Associativity != AssocNonassoc {
		t.Fatalf("unexpected terminal: %+v", lt)
	}

	r := testRule(t, g, "E", "E", "<", "E")
	if !r.ExpectConflict || r.Pos.Row != 3 {
		t.Fatalf("unexpected rule attributes: %+v", r)
	}
	if !g.Locations[r.LocStart+1].ExpectConflict || g.Locations[r.LocStart].ExpectConflict {
		t.Fatalf("the expected-conflict marker must be on the location of '<'")
	}
	if r := testRule(t, g, "E", "id"); r.Precedence.Name != "+" {
		t.Fatalf("unexpected precedence: %v", r.Precedence)
	}

	desc.Precedence = append(desc.Precedence, &spec.PrecedenceLevel{Associativity: "both", Symbols: []string{"id"}})
	_, err = NewGrammarFromDescription(desc)
	if err == nil {
		t.Fatalf("an invalid associativity must be an error")
	}
}
