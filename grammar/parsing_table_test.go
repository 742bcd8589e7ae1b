package grammar

import (
	"errors"
	"fmt"
	"testing"

	verr "github.com/nihei9/loquat/error"
	spec "github.com/nihei9/loquat/spec/grammar"
)

func TestResolveSRConflict(t *testing.T) {
	term := func(prec int, assoc Associativity) *Symbol {
		sym := newTerminal("t")
		sym.Precedence = prec
		sym.Associativity = assoc
		return sym
	}
	rule := func(prec int) *Rule {
		if prec == PrecedenceNone {
			return &Rule{}
		}
		return &Rule{
			Precedence: term(prec, AssocLeft),
		}
	}

	tests := []struct {
		caption  string
		term     *Symbol
		rule     *Rule
		expected actionKind
	}{
		{
			caption:  "a terminal without precedence leaves a conflict",
			term:     term(PrecedenceNone, AssocNone),
			rule:     rule(1),
			expected: actionConflict,
		},
		{
			caption:  "a rule without precedence leaves a conflict",
			term:     term(1, AssocLeft),
			rule:     rule(PrecedenceNone),
			expected: actionConflict,
		},
		{
			caption:  "a terminal with higher precedence is shifted",
			term:     term(2, AssocLeft),
			rule:     rule(1),
			expected: actionShift,
		},
		{
			caption:  "a rule with higher precedence is reduced",
			term:     term(1, AssocRight),
			rule:     rule(2),
			expected: actionReduce,
		},
		{
			caption:  "a right-associative terminal of equal precedence is shifted",
			term:     term(1, AssocRight),
			rule:     rule(1),
			expected: actionShift,
		},
		{
			caption:  "a left-associative terminal of equal precedence is reduced",
			term:     term(1, AssocLeft),
			rule:     rule(1),
			expected: actionReduce,
		},
		{
			caption:  "a non-associative terminal of equal precedence leaves a conflict",
			term:     term(1, AssocNonassoc),
			rule:     rule(1),
			expected: actionConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			if got := resolveSRConflict(tt.term, tt.rule); got != tt.expected {
				t.Fatalf("unexpected action; want: %v, got: %v", tt.expected, got)
			}
		})
	}
}

// actionOn returns the action of the state reached by shifting syms from the
// start state.
func actionOn(t *testing.T, a *automaton, term string, syms ...string) action {
	t.Helper()

	s := a.start
	for _, name := range syms {
		s = a.transitions[mustTransition(t, a, s, testSymbol(t, a.g, name))].next
	}
	return a.states[s].actions[testSymbol(t, a.g, term).Value]
}

func TestBuildActions_Precedence(t *testing.T) {
	g := buildTestGrammar(t, func(b *GrammarBuilder) {
		b.Left("+")
		b.Left("*")
		b.Right("^")
		b.Nonassoc("<")
		b.LHS("E").N("E").T("+").N("E").End()
		b.LHS("E").N("E").T("*").N("E").End()
		b.LHS("E").N("E").T("^").N("E").End()
		b.LHS("E").N("E").T("<").N("E").End()
		b.LHS("E").T("id").End()
	})
	a := compileAutomaton(g)

	tests := []struct {
		op       string
		next     string
		expected actionKind
	}{
		{op: "+", next: "+", expected: actionReduce},
		{op: "+", next: "*", expected: actionShift},
		{op: "*", next: "+", expected: actionReduce},
		{op: "*", next: "*", expected: actionReduce},
		{op: "^", next: "^", expected: actionShift},
		{op: "^", next: "*", expected: actionReduce},
		{op: "<", next: "<", expected: actionConflict},
		{op: "<", next: "+", expected: actionReduce},
		{op: "+", next: "<", expected: actionShift},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("E %v E ・ %v", tt.op, tt.next), func(t *testing.T) {
			act := actionOn(t, a, tt.next, "E", tt.op, "E")
			if act.kind != tt.expected {
				t.Fatalf("unexpected action; want: %v, got: %v", tt.expected, act.kind)
			}
		})
	}

	for _, s := range a.states {
		if len(s.actions) != g.TerminalCount {
			t.Fatalf("state %v has %v action cells", s.id, len(s.actions))
		}
	}
}

func TestBuildActions_ReduceReduce(t *testing.T) {
	t.Run("a rule with higher precedence wins", func(t *testing.T) {
		g := buildTestGrammar(t, func(b *GrammarBuilder) {
			b.Left("lo")
			b.Left("hi")
			b.LHS("S").N("A").T("x").End()
			b.LHS("S").N("B").T("x").End()
			b.LHS("A").T("id").Prec("hi").End()
			b.LHS("B").T("id").Prec("lo").End()
		})
		a := compileAutomaton(g)
		act := actionOn(t, a, "x", "id")
		if act.kind != actionReduce || a.reductions[act.reduction()].rule != testRule(t, g, "A", "id") {
			t.Fatalf("unexpected action: %+v", act)
		}
		if len(a.conflicts) != 0 {
			t.Fatalf("no conflict must be recorded: %v", len(a.conflicts))
		}
	})

	t.Run("rules without precedence keep every contender", func(t *testing.T) {
		g := buildTestGrammar(t, func(b *GrammarBuilder) {
			b.LHS("S").N("A").T("x").End()
			b.LHS("S").N("B").T("x").End()
			b.LHS("S").N("C").T("x").End()
			b.LHS("A").T("id").End()
			b.LHS("B").T("id").End()
			b.LHS("C").T("id").End()
		})
		a := compileAutomaton(g)
		act := actionOn(t, a, "x", "id")
		if act.kind != actionConflict {
			t.Fatalf("unexpected action: %+v", act)
		}
		c := a.conflicts[act.conflict()]
		if c.shift != transitionNil {
			t.Fatalf("a reduce/reduce conflict must have no shift")
		}
		var rules []string
		for _, rid := range c.reduces {
			rules = append(rules, g.ruleString(a.reductions[rid].rule))
		}
		if fmt.Sprint(rules) != "[A → id B → id C → id]" {
			t.Fatalf("unexpected reduces: %v", rules)
		}
		if len(a.conflicts) != 1 {
			t.Fatalf("a third contender must join the existing conflict: %v", len(a.conflicts))
		}
	})
}

func TestMarkReachable(t *testing.T) {
	t.Run("a rule outside every derivation is unreachable", func(t *testing.T) {
		g := buildTestGrammar(t, func(b *GrammarBuilder) {
			b.LHS("S").T("a").N("S").End()
			b.LHS("S").T("b").End()
			b.LHS("X").T("c").End()
		})
		a := compileAutomaton(g)

		rules := a.unreachableRules()
		if len(rules) != 1 || rules[0] != testRule(t, g, "X", "c") {
			t.Fatalf("unexpected unreachable rules: %v", rules)
		}
		for _, r := range g.Rules {
			if r.Reachable == (r.Index < 0) {
				t.Errorf("%v: reachable: %v, index: %v", g.ruleString(r), r.Reachable, r.Index)
			}
		}
		if g.StartRule.Index != 2 {
			t.Fatalf("unexpected index of the start rule: %v", g.StartRule.Index)
		}
	})

	t.Run("a rule losing every lookahead to precedence is unreachable", func(t *testing.T) {
		g := buildTestGrammar(t, func(b *GrammarBuilder) {
			b.Left("lo")
			b.Left("hi")
			b.LHS("S").N("A").T("x").End()
			b.LHS("S").N("B").T("x").End()
			b.LHS("A").T("id").Prec("hi").End()
			b.LHS("B").T("id").Prec("lo").End()
		})
		a := compileAutomaton(g)

		var names []string
		for _, r := range a.unreachableRules() {
			names = append(names, g.ruleString(r))
		}
		if fmt.Sprint(names) != "[S → B x B → id]" {
			t.Fatalf("unexpected unreachable rules: %v", names)
		}

		// The state reached by B never becomes reachable.
		b := a.transitions[mustTransition(t, a, a.start, testSymbol(t, g, "B"))].next
		if a.states[b].reachable || a.states[b].index != -1 {
			t.Fatalf("the state after B must be unreachable")
		}
	})

	t.Run("an empty rule is reached through its goto", func(t *testing.T) {
		g := buildTestGrammar(t, func(b *GrammarBuilder) {
			b.LHS("S").N("A").T("a").End()
			b.LHS("A").End()
		})
		a := compileAutomaton(g)
		if rules := a.unreachableRules(); len(rules) != 0 {
			t.Fatalf("unexpected unreachable rules: %v", rules)
		}
	})
}

func TestCompile_ShiftReduceConflict(t *testing.T) {
	var sink verr.Diagnostics
	tab, report, err := Compile(exprGrammar(t, false), EnableReporting(), WithSink(&sink))
	if err == nil {
		t.Fatalf("an unexpected conflict must be an error")
	}
	if tab != nil {
		t.Fatalf("no table must be returned")
	}

	var diags verr.Diagnostics
	if !errors.As(err, &diags) || len(diags) != 1 {
		t.Fatalf("unexpected error: %v", err)
	}
	d := diags[0]
	if !errors.Is(d, semErrConflict) || d.Severity != verr.SeverityError {
		t.Fatalf("unexpected diagnostic: %v", d)
	}
	if d.Detail != "shift/reduce conflict in state 4 on '+'" || d.State != 4 || fmt.Sprint(d.Terminals) != "[+]" {
		t.Fatalf("unexpected diagnostic: %v", d)
	}

	expectedExamples := []struct {
		action     string
		derivation string
	}{
		{action: "shift '+'", derivation: "[E E + [E E + [E id]]]"},
		{action: "reduce E → E + E", derivation: "[E [E E + E] + [E id]]"},
	}
	if len(d.Examples) != len(expectedExamples) {
		t.Fatalf("unexpected example count: %v", len(d.Examples))
	}
	for i, e := range expectedExamples {
		ex := d.Examples[i]
		if ex.Action != e.action || ex.Derivation() != e.derivation || ex.Truncated {
			t.Errorf("unexpected example; want: %v: %v, got: %v: %v", e.action, e.derivation, ex.Action, ex.Derivation())
		}
	}

	if len(sink) != 1 || sink[0] != d {
		t.Fatalf("the sink must receive the diagnostic")
	}

	if report == nil || len(report.Diagnostics) != 1 || len(report.Diagnostics[0].Examples) != 2 {
		t.Fatalf("the report must carry the diagnostic")
	}
	if len(report.States) != 5 || len(report.States[4].Conflicts) != 1 {
		t.Fatalf("unexpected states in the report")
	}
}

func TestCompile_ExpectedConflict(t *testing.T) {
	g := buildTestGrammar(t, func(b *GrammarBuilder) {
		b.LHS("E").N("E").T("+").ExpectShift().N("E").ExpectReduce().End()
		b.LHS("E").T("id").End()
	})

	var sink verr.Diagnostics
	tab, _, err := Compile(g, WithSink(&sink))
	if err != nil {
		t.Fatal(err)
	}
	if len(sink) != 1 || sink[0].Severity != verr.SeverityInfo || !errors.Is(sink[0], semErrExpectedConflict) {
		t.Fatalf("an expected conflict must be reported as a notice: %v", sink)
	}

	const e = 12
	const accept = 11
	expected := &spec.ParsingTable{
		Name:         "test",
		Terminals:    []string{"$EOI", "+", "id"},
		NonTerminals: []string{"E", "$start"},
		StartState:   0,
		StartRule:    2,
		EOISymbol:    0,
		Action: &spec.ActionTable{
			TokenCount:    3,
			StateCount:    5,
			RuleCount:     3,
			ConflictCount: 3,
			ErrorAction:   e,
			AcceptAction:  accept,
			Rules: []*spec.RuleInfo{
				{LHS: 0, Length: 3},
				{LHS: 0, Length: 1},
				{LHS: 1, Length: 2},
			},
			// One entry: its length, the shift to state 3 and the reduce of rule 0.
			Conflicts: []int{3, 3, 5},
			Actions: []int{
				e, e, 1,
				6, 6, e,
				accept, 3, e,
				e, e, 1,
				5, 8, e,
			},
		},
		GoTo: &spec.GotoTable{
			NTermCount: 2,
			StateCount: 5,
			ErrorValue: 5,
			GoTos: []int{
				2, 5,
				5, 5,
				5, 5,
				4, 5,
				5, 5,
			},
		},
	}
	testParsingTable(t, expected, tab)

	sink = nil
	_, _, err = Compile(g, WithSink(&sink), SuppressExpectedConflicts())
	if err != nil {
		t.Fatal(err)
	}
	if len(sink) != 0 {
		t.Fatalf("expected conflicts must be suppressed: %v", sink)
	}
}

func TestCompile_SharedConflictEntry(t *testing.T) {
	// The state after `x` has the same reduce/reduce conflict on 'c' and 'd'.
	g := buildTestGrammar(t, func(b *GrammarBuilder) {
		b.LHS("S").N("A").T("c").End()
		b.LHS("S").N("B").T("c").End()
		b.LHS("S").N("A").T("d").End()
		b.LHS("S").N("B").T("d").End()
		b.LHS("A").T("x").ExpectReduce().End()
		b.LHS("B").T("x").ExpectReduce().End()
	})

	tab, _, err := Compile(g)
	if err != nil {
		t.Fatal(err)
	}

	// 9 indexed states; the reductions of A → x (rule 4) and B → x (rule 5).
	act := tab.Action
	if act.StateCount != 9 || act.RuleCount != 7 {
		t.Fatalf("unexpected table size: %v states, %v rules", act.StateCount, act.RuleCount)
	}
	if fmt.Sprint(act.Conflicts) != "[3 13 14]" || act.ConflictCount != 3 {
		t.Fatalf("unexpected conflicts: %v", act.Conflicts)
	}
	c, d := 1, 2
	offset := act.StateCount + act.RuleCount
	if act.Actions[1*act.TokenCount+c] != offset || act.Actions[1*act.TokenCount+d] != offset {
		t.Fatalf("both cells must refer to the same entry: %v", act.Actions[act.TokenCount:2*act.TokenCount])
	}
}

func TestCompile_ResolvedByPrecedence(t *testing.T) {
	var sink verr.Diagnostics
	tab, _, err := Compile(exprGrammar(t, true), WithSink(&sink))
	if err != nil {
		t.Fatal(err)
	}
	if len(sink) != 0 {
		t.Fatalf("no diagnostic must be reported: %v", sink)
	}

	const e = 9
	const accept = 8
	expected := []int{
		e, e, 1,
		6, 6, e,
		accept, 3, e,
		e, e, 1,
		// `E → E + E ・` reduces on '+'.
		5, 5, e,
	}
	if tab.Action.ConflictCount != 0 || tab.Action.AcceptAction != accept || tab.Action.ErrorAction != e {
		t.Fatalf("unexpected sentinels: %+v", tab.Action)
	}
	if fmt.Sprint(tab.Action.Actions) != fmt.Sprint(expected) {
		t.Fatalf("unexpected actions; want: %v, got: %v", expected, tab.Action.Actions)
	}
}

func TestCompile_UnreachableRule(t *testing.T) {
	g := buildTestGrammar(t, func(b *GrammarBuilder) {
		b.LHS("S").T("a").N("S").End()
		b.LHS("S").T("b").End()
		b.LHS("X").T("c").At(3, 1).End()
	})
	tab, report, err := Compile(g, EnableReporting())
	if err == nil || tab != nil {
		t.Fatalf("an unreachable rule must be an error")
	}
	var diags verr.Diagnostics
	if !errors.As(err, &diags) || len(diags) != 1 {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(diags[0], semErrUnreachableRule) || diags[0].Detail != "X → c" || diags[0].Row != 3 {
		t.Fatalf("unexpected diagnostic: %v", diags[0])
	}

	for _, r := range report.Rules {
		if r.Reachable != (r.Index >= 0) {
			t.Fatalf("unexpected rule in the report: %+v", r)
		}
	}
}

func TestCompile_CompressionLevels(t *testing.T) {
	g := lalrGrammar(t)
	dense, _, err := Compile(g)
	if err != nil {
		t.Fatal(err)
	}

	for _, lv := range []int{CompressionLevelRowDisplacement, CompressionLevelMax} {
		t.Run(fmt.Sprintf("level %v", lv), func(t *testing.T) {
			tab, _, err := Compile(g, CompressionLevel(lv))
			if err != nil {
				t.Fatal(err)
			}
			if tab.Action.Actions != nil || tab.GoTo.GoTos != nil {
				t.Fatalf("a compressed table must not carry the dense arrays")
			}
			if (tab.Action.Compressed.UniqueRows != nil) != (lv == CompressionLevelMax) {
				t.Fatalf("unique rows must be present only at the maximum level")
			}
			for s := 0; s < dense.Action.StateCount; s++ {
				for term := 0; term < dense.Action.TokenCount; term++ {
					if want, got := dense.Action.Lookup(s, term), tab.Action.Lookup(s, term); want != got {
						t.Fatalf("action [%v, %v]; want: %v, got: %v", s, term, want, got)
					}
				}
				for nt := 0; nt < dense.GoTo.NTermCount; nt++ {
					if want, got := dense.GoTo.Lookup(s, nt), tab.GoTo.Lookup(s, nt); want != got {
						t.Fatalf("goto [%v, %v]; want: %v, got: %v", s, nt, want, got)
					}
				}
			}
		})
	}

	_, _, err = Compile(g, CompressionLevel(3))
	if err == nil {
		t.Fatalf("an invalid compression level must be an error")
	}
}

func testParsingTable(t *testing.T, expected, actual *spec.ParsingTable) {
	t.Helper()

	if actual == nil {
		t.Fatalf("the table is nil")
	}
	if expected.Name != actual.Name ||
		fmt.Sprint(expected.Terminals) != fmt.Sprint(actual.Terminals) ||
		fmt.Sprint(expected.NonTerminals) != fmt.Sprint(actual.NonTerminals) ||
		expected.StartState != actual.StartState ||
		expected.StartRule != actual.StartRule ||
		expected.EOISymbol != actual.EOISymbol {
		t.Fatalf("unexpected table header; want: %+v, got: %+v", expected, actual)
	}

	ea, aa := expected.Action, actual.Action
	if ea.TokenCount != aa.TokenCount || ea.StateCount != aa.StateCount || ea.RuleCount != aa.RuleCount ||
		ea.ConflictCount != aa.ConflictCount || ea.ErrorAction != aa.ErrorAction || ea.AcceptAction != aa.AcceptAction {
		t.Fatalf("unexpected action table header; want: %+v, got: %+v", ea, aa)
	}
	if len(ea.Rules) != len(aa.Rules) {
		t.Fatalf("unexpected rule count; want: %v, got: %v", len(ea.Rules), len(aa.Rules))
	}
	for i, r := range ea.Rules {
		if *r != *aa.Rules[i] {
			t.Fatalf("unexpected rule #%v; want: %+v, got: %+v", i, r, aa.Rules[i])
		}
	}
	if fmt.Sprint(ea.Conflicts) != fmt.Sprint(aa.Conflicts) {
		t.Fatalf("unexpected conflicts; want: %v, got: %v", ea.Conflicts, aa.Conflicts)
	}
	if fmt.Sprint(ea.Actions) != fmt.Sprint(aa.Actions) {
		t.Fatalf("unexpected actions; want: %v, got: %v", ea.Actions, aa.Actions)
	}

	eg, ag := expected.GoTo, actual.GoTo
	if eg.NTermCount != ag.NTermCount || eg.StateCount != ag.StateCount || eg.ErrorValue != ag.ErrorValue {
		t.Fatalf("unexpected goto table header; want: %+v, got: %+v", eg, ag)
	}
	if fmt.Sprint(eg.GoTos) != fmt.Sprint(ag.GoTos) {
		t.Fatalf("unexpected gotos; want: %v, got: %v", eg.GoTos, ag.GoTos)
	}
}
