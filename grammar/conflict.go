package grammar

import (
	"fmt"
	"strings"

	verr "github.com/nihei9/loquat/error"
)

type conflictExplainer struct {
	a                *automaton
	sink             verr.Sink
	searchLimit      int
	contextLimit     int
	suppressExpected bool
}

// explain reports every conflict left in a reachable state. Conflicts of one
// state with the same shape are reported together.
func (e *conflictExplainer) explain() {
	for _, s := range e.a.states {
		if !s.reachable || !s.hasConflict {
			continue
		}
		for _, act := range s.actions {
			if act.kind != actionConflict {
				continue
			}
			c := e.a.conflicts[act.conflict()]
			if c.reported {
				continue
			}
			e.report(s, e.group(s, c))
		}
	}
}

// group collects the unreported conflicts of s that are similar to c, in
// terminal order, and marks them reported.
func (e *conflictExplainer) group(s *state, c *conflict) []*conflict {
	var group []*conflict
	for _, act := range s.actions {
		if act.kind != actionConflict {
			continue
		}
		other := e.a.conflicts[act.conflict()]
		if other.reported || !e.similar(c, other) {
			continue
		}
		other.reported = true
		group = append(group, other)
	}
	return group
}

func (e *conflictExplainer) similar(c1, c2 *conflict) bool {
	if (c1.shift == transitionNil) != (c2.shift == transitionNil) {
		return false
	}
	if len(c1.reduces) != len(c2.reduces) {
		return false
	}
	for i := range c1.reduces {
		if e.a.reductions[c1.reduces[i]].rule != e.a.reductions[c2.reduces[i]].rule {
			return false
		}
	}
	return true
}

// expected reports whether every action taking part in the conflicts is
// marked as an anticipated conflict.
func (e *conflictExplainer) expected(group []*conflict) bool {
	for _, c := range group {
		if c.shift != transitionNil && !e.a.transitions[c.shift].expect {
			return false
		}
		for _, rid := range c.reduces {
			if !e.a.reductions[rid].rule.ExpectConflict {
				return false
			}
		}
	}
	return true
}

func (e *conflictExplainer) report(s *state, group []*conflict) {
	c := group[0]

	terms := make([]string, len(group))
	quoted := make([]string, len(group))
	for i, gc := range group {
		terms[i] = gc.sym.Name
		quoted[i] = fmt.Sprintf("'%v'", gc.sym.Name)
	}
	kind := "reduce/reduce"
	if c.shift != transitionNil {
		kind = "shift/reduce"
	}
	d := &verr.Diagnostic{
		Detail:    fmt.Sprintf("%v conflict in state %v on %v", kind, s.index, strings.Join(quoted, ", ")),
		State:     s.index,
		Terminals: terms,
		Row:       e.a.reductions[c.reduces[0]].rule.Pos.Row,
	}

	if e.expected(group) {
		if e.suppressExpected {
			return
		}
		d.Severity = verr.SeverityInfo
		d.Cause = semErrExpectedConflict
		e.sink.Report(d)
		return
	}

	d.Severity = verr.SeverityError
	d.Cause = semErrConflict
	d.Examples = e.examples(s, group)
	if d.Examples == nil {
		tracer().Infof("state %v: no left context admits every action of the conflict on %v", s.index, strings.Join(quoted, ", "))
	}
	e.sink.Report(d)
}

// examples searches left contexts until one admits every competing action
// and renders one example per action. It returns nil when the contexts run
// out first.
func (e *conflictExplainer) examples(s *state, group []*conflict) []*verr.Example {
	g := e.a.g
	c := group[0]

	// Demonstrate on the terminal whose shift is closest to accepting.
	term := c.sym
	shift := c.shift
	if shift != transitionNil {
		best := distanceInf
		for _, gc := range group {
			t := e.a.transitions[gc.shift]
			if d := e.a.states[t.next].acceptDistance; d < best {
				best = d
				shift = gc.shift
				term = gc.sym
			}
		}
	}

	ls := newLeftSearch(e.a, s.id)
	for i := 0; i < e.contextLimit; i++ {
		ctx := ls.next()
		if ctx == nil {
			return nil
		}

		var searches []*derivationSearch
		var labels []string
		if shift != transitionNil {
			ds := newDerivationSearch(e.a, ctx, e.searchLimit)
			ds.shift(e.a.transitions[shift].next, term)
			searches = append(searches, ds)
			labels = append(labels, fmt.Sprintf("shift '%v'", term.Name))
		}
		admitted := true
		for _, rid := range c.reduces {
			rule := e.a.reductions[rid].rule
			ds := newDerivationSearch(e.a, ctx, e.searchLimit)
			if !ds.reduce(rule, term) {
				admitted = false
				break
			}
			searches = append(searches, ds)
			labels = append(labels, fmt.Sprintf("reduce %v", g.ruleString(rule)))
		}
		if !admitted {
			continue
		}

		examples := make([]*verr.Example, len(searches))
		for j, ds := range searches {
			ds.search()
			examples[j] = ds.example(labels[j])
		}
		return examples
	}

	return nil
}
