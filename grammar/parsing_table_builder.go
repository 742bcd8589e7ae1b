package grammar

import (
	"fmt"

	"github.com/cnf/structhash"

	"github.com/nihei9/loquat/compressor"
	verr "github.com/nihei9/loquat/error"
	spec "github.com/nihei9/loquat/spec/grammar"
)

const (
	CompressionLevelNone            = 0
	CompressionLevelRowDisplacement = 1
	CompressionLevelMax             = 2
)

// conflictSignature identifies the actions of a conflict cell. Cells with
// equal signatures share one entry of the conflict table.
type conflictSignature struct {
	// Shift is the index of the state shifted to, or -1.
	Shift int
	// Accept is set when the shift enters the accept state.
	Accept  bool
	Reduces []int
}

func (sig *conflictSignature) len() int {
	n := 1 + len(sig.Reduces)
	if sig.Shift >= 0 || sig.Accept {
		n++
	}
	return n
}

type lrTableBuilder struct {
	a                *automaton
	ruleCount        int
	stateCount       int
	compressionLevel int
}

func (b *lrTableBuilder) build() (*spec.ParsingTable, error) {
	g := b.a.g
	stateCount := b.stateCount
	ruleCount := b.ruleCount
	termCount := g.TerminalCount
	nonTermCount := len(g.NonTerminals())

	// The conflict table must be sized before any cell is written, since the
	// accept and error actions come right after it.
	offsets := make([]int, len(b.a.conflicts))
	var sigs []*conflictSignature
	conflictCount := 0
	{
		key2Offset := map[string]int{}
		for i := range offsets {
			offsets[i] = -1
		}
		for _, s := range b.a.states {
			if !s.reachable {
				continue
			}
			for _, act := range s.actions {
				if act.kind != actionConflict {
					continue
				}
				cid := act.conflict()
				if offsets[cid] >= 0 {
					continue
				}
				sig := b.signature(b.a.conflicts[cid])
				key := string(structhash.Dump(sig, 1))
				offset, ok := key2Offset[key]
				if !ok {
					offset = conflictCount
					key2Offset[key] = offset
					conflictCount += sig.len()
					sigs = append(sigs, sig)
				}
				offsets[cid] = offset
			}
		}
	}

	acceptAction := stateCount + ruleCount + conflictCount
	errorAction := acceptAction + 1

	conflicts := make([]int, 0, conflictCount)
	for _, sig := range sigs {
		conflicts = append(conflicts, sig.len())
		switch {
		case sig.Accept:
			conflicts = append(conflicts, acceptAction)
		case sig.Shift >= 0:
			conflicts = append(conflicts, sig.Shift)
		}
		for _, r := range sig.Reduces {
			conflicts = append(conflicts, stateCount+r)
		}
	}

	actions := make([]int, stateCount*termCount)
	goTos := make([]int, stateCount*nonTermCount)
	for _, s := range b.a.states {
		if !s.reachable {
			continue
		}

		row := s.index * termCount
		for term, act := range s.actions {
			switch act.kind {
			case actionError:
				actions[row+term] = errorAction
			case actionShift:
				actions[row+term] = b.shiftValue(act.transition(), acceptAction)
			case actionReduce:
				actions[row+term] = stateCount + b.a.reductions[act.reduction()].rule.Index
			case actionConflict:
				actions[row+term] = stateCount + ruleCount + offsets[act.conflict()]
			}
		}

		row = s.index * nonTermCount
		for col := 0; col < nonTermCount; col++ {
			goTos[row+col] = stateCount
		}
		for _, tid := range s.next {
			t := b.a.transitions[tid]
			if t.sym.IsTerminal() {
				continue
			}
			next := b.a.states[t.next]
			if !next.reachable {
				continue
			}
			goTos[row+t.sym.Value-termCount] = next.index
		}
	}

	rules := make([]*spec.RuleInfo, ruleCount)
	for _, r := range g.Rules {
		if !r.Reachable {
			continue
		}
		rules[r.Index] = &spec.RuleInfo{
			LHS:    r.Nonterminal.Value - termCount,
			Length: r.Len(),
		}
	}

	terms := make([]string, termCount)
	for i, sym := range g.Terminals() {
		terms[i] = sym.Name
	}
	nonTerms := make([]string, nonTermCount)
	for i, sym := range g.NonTerminals() {
		nonTerms[i] = sym.Name
	}

	tab := &spec.ParsingTable{
		Name:             g.Name,
		Terminals:        terms,
		NonTerminals:     nonTerms,
		StartState:       b.a.states[b.a.start].index,
		StartRule:        g.StartRule.Index,
		EOISymbol:        g.EOI.Value,
		CompressionLevel: b.compressionLevel,
		Action: &spec.ActionTable{
			TokenCount:    termCount,
			StateCount:    stateCount,
			RuleCount:     ruleCount,
			ConflictCount: conflictCount,
			ErrorAction:   errorAction,
			AcceptAction:  acceptAction,
			Rules:         rules,
			Conflicts:     conflicts,
		},
		GoTo: &spec.GotoTable{
			NTermCount: nonTermCount,
			StateCount: stateCount,
			ErrorValue: stateCount,
		},
	}

	switch b.compressionLevel {
	case CompressionLevelNone:
		tab.Action.Actions = actions
		tab.GoTo.GoTos = goTos
	case CompressionLevelRowDisplacement, CompressionLevelMax:
		var err error
		tab.Action.Compressed, err = compressTable(actions, termCount, errorAction, b.compressionLevel)
		if err != nil {
			return nil, err
		}
		tab.GoTo.Compressed, err = compressTable(goTos, nonTermCount, stateCount, b.compressionLevel)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid compression level: %v", b.compressionLevel)
	}

	tracer().Debugf("tables: %v states, %v rules, %v conflict entries", stateCount, ruleCount, conflictCount)

	return tab, nil
}

func (b *lrTableBuilder) shiftValue(tid transitionID, acceptAction int) int {
	next := b.a.transitions[tid].next
	if next == b.a.accept {
		return acceptAction
	}
	return b.a.states[next].index
}

func (b *lrTableBuilder) signature(c *conflict) *conflictSignature {
	sig := &conflictSignature{
		Shift:   -1,
		Reduces: make([]int, len(c.reduces)),
	}
	if c.shift != transitionNil {
		next := b.a.transitions[c.shift].next
		if next == b.a.accept {
			sig.Accept = true
		} else {
			sig.Shift = b.a.states[next].index
		}
	}
	for i, rid := range c.reduces {
		sig.Reduces[i] = b.a.reductions[rid].rule.Index
	}
	return sig
}

func compressTable(entries []int, colCount int, errorValue int, level int) (*spec.CompressedTable, error) {
	tab := &spec.CompressedTable{
		Rows:       len(entries) / colCount,
		Cols:       colCount,
		ErrorValue: errorValue,
	}

	if level >= CompressionLevelMax {
		orig, err := compressor.NewOriginalTable(entries, colCount)
		if err != nil {
			return nil, err
		}
		ue := compressor.NewUniqueEntriesTable()
		err = ue.Compress(orig)
		if err != nil {
			return nil, err
		}
		entries = ue.UniqueEntries
		tab.UniqueRows = ue.RowNums
	}

	rd, err := compressor.CompressTable(entries, colCount, errorValue)
	if err != nil {
		return nil, err
	}
	tab.Displace = rd.RowDisplacement
	tab.Compress = rd.Entries
	tab.CompRows = rd.Bounds

	return tab, nil
}

func (b *lrTableBuilder) genReport(diags verr.Diagnostics) *spec.Report {
	g := b.a.g

	terms := make([]*spec.Terminal, 0, g.TerminalCount)
	for _, sym := range g.Terminals() {
		terms = append(terms, &spec.Terminal{
			Number:        sym.Value,
			Name:          sym.Name,
			Precedence:    sym.Precedence,
			Associativity: string(sym.Associativity),
		})
	}

	nonTerms := make([]*spec.NonTerminal, 0, len(g.NonTerminals()))
	for _, sym := range g.NonTerminals() {
		nonTerms = append(nonTerms, &spec.NonTerminal{
			Number:   sym.Value,
			Name:     sym.Name,
			Erasable: sym.Erasable,
		})
	}

	rules := make([]*spec.Rule, 0, len(g.Rules))
	for _, r := range g.Rules {
		rhs := make([]int, r.Len())
		for i := range rhs {
			rhs[i] = g.Locations[r.LocStart+i].Symbol.Value
		}
		rules = append(rules, &spec.Rule{
			Number:     r.Number,
			Index:      r.Index,
			LHS:        r.Nonterminal.Value,
			RHS:        rhs,
			Precedence: r.precedence(),
			Reachable:  r.Reachable,
		})
	}

	var states []*spec.State
	for _, s := range b.a.states {
		if !s.reachable {
			continue
		}
		states = append(states, b.genStateReport(s))
	}

	reported := make([]*spec.Diagnostic, 0, len(diags))
	for _, d := range diags {
		msg := d.Cause.Error()
		if d.Detail != "" {
			msg = fmt.Sprintf("%v: %v", msg, d.Detail)
		}
		rd := &spec.Diagnostic{
			Severity:  d.Severity.String(),
			Message:   msg,
			State:     d.State,
			Terminals: d.Terminals,
			Row:       d.Row,
		}
		for _, ex := range d.Examples {
			rd.Examples = append(rd.Examples, &spec.Example{
				Action:     ex.Action,
				Derivation: ex.Derivation(),
			})
		}
		reported = append(reported, rd)
	}

	return &spec.Report{
		Terminals:    terms,
		NonTerminals: nonTerms,
		Rules:        rules,
		States:       states,
		Diagnostics:  reported,
	}
}

func (b *lrTableBuilder) genStateReport(s *state) *spec.State {
	g := b.a.g

	var kernel []*spec.Item
	for _, loc := range s.closure.locs {
		r := g.Locations[loc].Rule
		dot := loc - r.LocStart
		if dot == 0 && !(s.id == b.a.start && r == g.StartRule) {
			continue
		}
		kernel = append(kernel, &spec.Item{
			Rule: r.Number,
			Dot:  dot,
		})
	}

	stateIndex := func(sid stateID) int {
		if sid == b.a.accept {
			return -1
		}
		return b.a.states[sid].index
	}

	var shift []*spec.Transition
	var goTo []*spec.Transition
	for _, tid := range s.next {
		t := b.a.transitions[tid]
		if !b.a.states[t.next].reachable && t.next != b.a.accept {
			continue
		}
		tr := &spec.Transition{
			Symbol: t.sym.Value,
			State:  stateIndex(t.next),
		}
		if t.sym.IsTerminal() {
			if s.actions[t.sym.Value].kind == actionShift {
				shift = append(shift, tr)
			}
		} else {
			goTo = append(goTo, tr)
		}
	}

	var reduce []*spec.Reduce
	var conflicts []*spec.Conflict
	rule2Reduce := map[*Rule]*spec.Reduce{}
	for term, act := range s.actions {
		switch act.kind {
		case actionReduce:
			rule := b.a.reductions[act.reduction()].rule
			r, ok := rule2Reduce[rule]
			if !ok {
				r = &spec.Reduce{
					Rule: rule.Number,
				}
				rule2Reduce[rule] = r
				reduce = append(reduce, r)
			}
			r.LookAhead = append(r.LookAhead, term)
		case actionConflict:
			c := b.a.conflicts[act.conflict()]
			rc := &spec.Conflict{
				Symbol: term,
			}
			if c.shift != transitionNil {
				n := stateIndex(b.a.transitions[c.shift].next)
				rc.Shift = &n
			}
			for _, rid := range c.reduces {
				rc.Reduces = append(rc.Reduces, b.a.reductions[rid].rule.Number)
			}
			conflicts = append(conflicts, rc)
		}
	}

	return &spec.State{
		Number:    s.index,
		Kernel:    kernel,
		Shift:     shift,
		Reduce:    reduce,
		GoTo:      goTo,
		Conflicts: conflicts,
	}
}
