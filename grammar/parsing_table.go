package grammar

import "fmt"

// buildActions fills the action row of every state. Reductions are written
// first, then terminal shifts, so a shift can only meet an error, a reduce or
// a conflict.
func (a *automaton) buildActions() {
	for _, s := range a.states {
		s.actions = make([]action, a.g.TerminalCount)

		for _, rid := range s.reductions {
			for _, term := range a.reductions[rid].lookahead.terms() {
				a.writeReduceAction(s, term, rid)
			}
		}

		for _, tid := range s.next {
			t := a.transitions[tid]
			if !t.sym.IsTerminal() {
				continue
			}
			a.writeShiftAction(s, t)
		}
	}
}

// writeReduceAction writes a reduce action. Between two reductions, the rule
// with the higher precedence wins when both rules have one; any other
// collision stays as a conflict.
func (a *automaton) writeReduceAction(s *state, term int, rid reductionID) {
	act := s.actions[term]
	switch act.kind {
	case actionError:
		s.actions[term] = reduceAction(rid)
	case actionReduce:
		other := act.reduction()
		prec1 := a.reductions[other].rule.precedence()
		prec2 := a.reductions[rid].rule.precedence()
		if prec1 != PrecedenceNone && prec2 != PrecedenceNone && prec1 != prec2 {
			if prec2 > prec1 {
				s.actions[term] = reduceAction(rid)
			}
			tracer().Debugf("state %v: reduce/reduce on '%v' resolved by precedence", s.id, a.g.Symbols[term])
			return
		}
		s.actions[term] = conflictAction(a.newConflict(s.id, a.g.Symbols[term], transitionNil, other, rid))
	case actionConflict:
		c := a.conflicts[act.conflict()]
		c.reduces = append(c.reduces, rid)
	default:
		panic(fmt.Errorf("state %v: a reduction on '%v' met a shift", s.id, a.g.Symbols[term]))
	}
}

// writeShiftAction writes a shift action, settling a shift/reduce collision
// with resolveSRConflict.
func (a *automaton) writeShiftAction(s *state, t *transition) {
	term := t.sym.Value
	act := s.actions[term]
	switch act.kind {
	case actionError:
		s.actions[term] = shiftAction(t.id)
	case actionReduce:
		rid := act.reduction()
		switch resolveSRConflict(t.sym, a.reductions[rid].rule) {
		case actionShift:
			tracer().Debugf("state %v: shift/reduce on '%v' resolved to shift", s.id, t.sym)
			s.actions[term] = shiftAction(t.id)
		case actionReduce:
			tracer().Debugf("state %v: shift/reduce on '%v' resolved to reduce", s.id, t.sym)
		default:
			s.actions[term] = conflictAction(a.newConflict(s.id, t.sym, t.id, rid))
		}
	case actionConflict:
		a.conflicts[act.conflict()].shift = t.id
	default:
		panic(fmt.Errorf("state %v: '%v' is shifted twice", s.id, t.sym))
	}
}

// resolveSRConflict decides between shifting term and reducing rule. It
// returns actionConflict when precedence cannot decide.
func resolveSRConflict(term *Symbol, rule *Rule) actionKind {
	termPrec := term.Precedence
	rulePrec := rule.precedence()
	switch {
	case termPrec == PrecedenceNone || rulePrec == PrecedenceNone:
		return actionConflict
	case termPrec > rulePrec:
		return actionShift
	case termPrec < rulePrec:
		return actionReduce
	}
	switch term.Associativity {
	case AssocRight:
		return actionShift
	case AssocLeft:
		return actionReduce
	}
	return actionConflict
}
