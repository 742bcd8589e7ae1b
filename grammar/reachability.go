package grammar

// markReachable walks the actions from the start state and marks every state
// a parse can enter and every rule a parse can reduce. A reduction leads to
// the goto of each nonterminal transition in its lookback, but only from a
// source state that is itself reachable; a goto whose source has not been
// reached yet waits on that state.
func (a *automaton) markReachable() {
	epoch := a.nextEpoch()
	for _, r := range a.g.Rules {
		r.Reachable = false
	}

	var work []stateID
	visit := func(sid stateID) {
		s := a.states[sid]
		if s.visited == epoch {
			return
		}
		s.visited = epoch
		s.reachable = true
		work = append(work, sid)
	}

	reduce := func(sid stateID, rid reductionID) {
		rule := a.reductions[rid].rule
		rule.Reachable = true
		if rule.IsEmpty() {
			if tid, ok := a.findTransition(sid, rule.Nonterminal); ok {
				visit(a.transitions[tid].next)
			}
			return
		}
		for _, tid := range a.lookback(sid, rule) {
			t := a.transitions[tid]
			p := a.states[t.prev]
			if p.visited == epoch {
				visit(t.next)
				continue
			}
			p.waiting = append(p.waiting, tid)
		}
	}

	shift := func(tid transitionID) {
		next := a.transitions[tid].next
		if next == a.accept {
			a.g.StartRule.Reachable = true
			return
		}
		visit(next)
	}

	visit(a.start)
	for len(work) > 0 {
		sid := work[len(work)-1]
		work = work[:len(work)-1]
		s := a.states[sid]

		waiting := s.waiting
		s.waiting = nil
		for _, tid := range waiting {
			visit(a.transitions[tid].next)
		}

		for _, act := range s.actions {
			switch act.kind {
			case actionShift:
				shift(act.transition())
			case actionReduce:
				reduce(sid, act.reduction())
			case actionConflict:
				c := a.conflicts[act.conflict()]
				if c.shift != transitionNil {
					shift(c.shift)
				}
				for _, rid := range c.reduces {
					reduce(sid, rid)
				}
			}
		}
	}
}

// assignIndices numbers reachable rules in declaration order and reachable
// states in creation order. Unreachable ones keep index -1.
func (a *automaton) assignIndices() (ruleCount, stateCount int) {
	for _, r := range a.g.Rules {
		if !r.Reachable {
			r.Index = -1
			continue
		}
		r.Index = ruleCount
		ruleCount++
	}
	for _, s := range a.states {
		if !s.reachable {
			s.index = -1
			continue
		}
		s.index = stateCount
		stateCount++
	}
	return ruleCount, stateCount
}

func (a *automaton) unreachableRules() []*Rule {
	var rules []*Rule
	for _, r := range a.g.Rules {
		if !r.Reachable {
			rules = append(rules, r)
		}
	}
	return rules
}
