package grammar

import (
	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/emirpasic/gods/utils"

	verr "github.com/nihei9/loquat/error"
)

// value is an element of one of the candidate parse stacks. Stacks share
// their tails, so a value is never modified once pushed.
type value struct {
	prev *value

	// state is the state the parser was in when the value was pushed.
	state stateID
	sym   *Symbol

	// The children of a reduced value run from chead to ctail along prev.
	chead   *value
	ctail   *value
	reduced bool

	// hash and depth summarize the states on the stack down from this value.
	hash  uint64
	depth int
}

func newValue(prev *value, state stateID, sym *Symbol) *value {
	v := &value{
		prev:  prev,
		state: state,
		sym:   sym,
		hash:  14695981039346656037,
		depth: 1,
	}
	if prev != nil {
		v.hash = prev.hash
		v.depth = prev.depth + 1
	}
	v.hash ^= uint64(state) + 1
	v.hash *= 1099511628211
	return v
}

type searchHead struct {
	stack *value
	state stateID

	// term is the terminal a head left by a reduction still has to consume.
	// It is nil once the head has shifted.
	term *Symbol

	// distance is the number of symbols shifted since the left context.
	distance int
	// actions is the number of shifts and reductions since the left context.
	actions int

	seq int
}

// headKey identifies a parser configuration. Heads with the same key behave
// the same from here on, whatever trees their stacks hold.
type headKey struct {
	hash  uint64
	depth int
	state stateID
	term  int
}

func (h *searchHead) key() headKey {
	k := headKey{
		state: h.state,
		term:  -1,
	}
	if h.stack != nil {
		k.hash = h.stack.hash
		k.depth = h.stack.depth
	}
	if h.term != nil {
		k.term = h.term.Value
	}
	return k
}

// derivationSearch continues a parse from a left context, following every
// action the table allows, until some branch reaches the accept state. The
// open set is ordered by the shifted symbol count plus the distance to the
// accept state; ties go to the head with fewer actions, then to the older
// one.
//
// limit bounds both the size of the open set and the number of heads the
// search expands.
type derivationSearch struct {
	a     *automaton
	left  searchHead
	open  *binaryheap.Heap
	limit int

	expanded map[headKey]struct{}
	steps    int
	seq      int

	// consumed counts the heads that shifted a symbol.
	consumed int

	first    *searchHead
	accepted *searchHead
}

func newDerivationSearch(a *automaton, ctx *leftContext, limit int) *derivationSearch {
	a.computeDistances()

	d := &derivationSearch{
		a:        a,
		limit:    limit,
		expanded: map[headKey]struct{}{},
	}
	d.open = binaryheap.NewWith(func(x, y interface{}) int {
		hx, hy := x.(*searchHead), y.(*searchHead)
		if c := utils.IntComparator(d.cost(hx), d.cost(hy)); c != 0 {
			return c
		}
		if c := utils.IntComparator(hx.actions, hy.actions); c != 0 {
			return c
		}
		return utils.IntComparator(hx.seq, hy.seq)
	})

	var stack *value
	for _, v := range ctx.values {
		stack = newValue(stack, v.state, v.sym)
	}
	d.left = searchHead{
		stack: stack,
		state: ctx.target,
	}

	return d
}

func (d *derivationSearch) cost(h *searchHead) int {
	return h.distance + d.a.states[h.state].acceptDistance
}

// shift starts the search by shifting term into next.
func (d *derivationSearch) shift(next stateID, term *Symbol) bool {
	d.push(d.shiftHead(d.left, next, term))
	return true
}

// reduce starts the search by reducing rule with term as the lookahead. It
// fails when the left context is too short for the reduction or no branch
// can consume term afterwards.
func (d *derivationSearch) reduce(rule *Rule, term *Symbol) bool {
	h, ok := d.reduceHead(d.left, rule, term)
	if !ok {
		return false
	}
	d.push(h)

	// Until something shifts, the open set holds only heads waiting for term.
	for d.consumed == 0 {
		if d.open.Empty() || d.steps >= d.limit {
			return false
		}
		v, _ := d.open.Pop()
		d.expand(v.(*searchHead))
	}
	return true
}

// search reports whether a complete parse was found.
func (d *derivationSearch) search() bool {
	for !d.open.Empty() {
		v, _ := d.open.Pop()
		h := v.(*searchHead)
		if h.state == d.a.accept {
			d.accepted = h
			return true
		}
		if d.steps >= d.limit {
			break
		}
		d.expand(h)
		if d.open.Size() > d.limit {
			break
		}
	}
	tracer().Debugf("derivation search gave up after %v steps with %v open heads", d.steps, d.open.Size())
	return false
}

// expand pushes the successors of h: the heads after each action on its
// pending terminal, or on every terminal once h has shifted. Conflicts
// branch into all of their actions.
func (d *derivationSearch) expand(h *searchHead) {
	key := h.key()
	if _, ok := d.expanded[key]; ok {
		return
	}
	d.expanded[key] = struct{}{}
	d.steps++

	actions := d.a.states[h.state].actions
	for term, act := range actions {
		if act.kind == actionError || h.term != nil && term != h.term.Value {
			continue
		}

		sym := d.a.g.Symbols[term]
		var shifts []transitionID
		var reduces []reductionID
		switch act.kind {
		case actionShift:
			shifts = append(shifts, act.transition())
		case actionReduce:
			reduces = append(reduces, act.reduction())
		case actionConflict:
			c := d.a.conflicts[act.conflict()]
			if c.shift != transitionNil {
				shifts = append(shifts, c.shift)
			}
			reduces = append(reduces, c.reduces...)
		}

		for _, tid := range shifts {
			d.push(d.shiftHead(*h, d.a.transitions[tid].next, sym))
		}
		for _, rid := range reduces {
			if next, ok := d.reduceHead(*h, d.a.reductions[rid].rule, sym); ok {
				d.push(next)
			}
		}
	}
}

func (d *derivationSearch) push(h searchHead) {
	if d.a.states[h.state].acceptDistance == distanceInf {
		return
	}
	if _, ok := d.expanded[h.key()]; ok {
		return
	}
	h.seq = d.seq
	d.seq++
	if h.term == nil {
		d.consumed++
	}
	if d.first == nil || d.first.term != nil && h.term == nil {
		d.first = &h
	}
	d.open.Push(&h)
}

func (d *derivationSearch) shiftHead(h searchHead, next stateID, sym *Symbol) searchHead {
	return searchHead{
		stack:    newValue(h.stack, h.state, sym),
		state:    next,
		distance: h.distance + 1,
		actions:  h.actions + 1,
	}
}

func (d *derivationSearch) reduceHead(h searchHead, rule *Rule, term *Symbol) (searchHead, bool) {
	top := h.stack
	from := h.state
	var chead, ctail *value
	if !rule.IsEmpty() {
		ctail = top
		for i := 0; i < rule.Len(); i++ {
			if top == nil {
				return searchHead{}, false
			}
			chead = top
			from = top.state
			top = top.prev
		}
	}

	tid, ok := d.a.findTransition(from, rule.Nonterminal)
	if !ok {
		return searchHead{}, false
	}

	v := newValue(top, from, rule.Nonterminal)
	v.chead = chead
	v.ctail = ctail
	v.reduced = true
	return searchHead{
		stack:    v,
		state:    d.a.transitions[tid].next,
		term:     term,
		distance: h.distance,
		actions:  h.actions + 1,
	}, true
}

// example renders the accepted parse, or the stack right after the
// conflicting action when the search failed.
func (d *derivationSearch) example(action string) *verr.Example {
	ex := &verr.Example{
		Action: action,
	}
	h := d.accepted
	if h == nil {
		ex.Truncated = true
		h = d.first
	}
	if h == nil {
		return ex
	}

	var roots []*verr.Derivation
	for v := h.stack; v != nil; v = v.prev {
		if v.sym == d.a.g.EOI {
			continue
		}
		roots = append(roots, d.tree(v))
	}
	for i, j := 0, len(roots)-1; i < j; i, j = i+1, j-1 {
		roots[i], roots[j] = roots[j], roots[i]
	}
	ex.Roots = roots

	return ex
}

func (d *derivationSearch) tree(v *value) *verr.Derivation {
	node := &verr.Derivation{
		Symbol: v.sym.Name,
	}
	if !v.reduced {
		return node
	}
	node.Expanded = true
	if v.ctail == nil {
		return node
	}
	for c := v.ctail; ; c = c.prev {
		node.Children = append(node.Children, d.tree(c))
		if c == v.chead {
			break
		}
	}
	for i, j := 0, len(node.Children)-1; i < j; i, j = i+1, j-1 {
		node.Children[i], node.Children[j] = node.Children[j], node.Children[i]
	}
	return node
}
