package grammar

import (
	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/emirpasic/gods/utils"
)

type leftContextValue struct {
	state stateID
	sym   *Symbol
}

// leftContext is a sequence of shifts leading from the start state to target.
// values[0].state is the start state and values[i].sym is shifted out of
// values[i].state.
type leftContext struct {
	target stateID
	values []leftContextValue
}

type leftNode struct {
	parent *leftNode
	state  stateID

	// sym is shifted from state to parent.state; nil at the root.
	sym *Symbol

	// depth is the number of shifts between state and the target.
	depth int

	// tried[i] is set once state.prev[i] has been expanded from this node.
	tried []bool
}

// leftSearch walks backwards from a target state and produces progressively
// longer left contexts. Every transition is expanded by at most one node, so
// the search ends once all backward routes are used up.
type leftSearch struct {
	a      *automaton
	target stateID
	epoch  uint64
	root   *leftNode
	open   *binaryheap.Heap
}

func newLeftSearch(a *automaton, target stateID) *leftSearch {
	a.computeDistances()
	return &leftSearch{
		a:      a,
		target: target,
		epoch:  a.nextEpoch(),
		open: binaryheap.NewWith(func(x, y interface{}) int {
			return utils.IntComparator(x.(*leftNode).depth, y.(*leftNode).depth)
		}),
	}
}

func (l *leftSearch) newNode(parent *leftNode, sid stateID, sym *Symbol) *leftNode {
	n := &leftNode{
		parent: parent,
		state:  sid,
		sym:    sym,
		tried:  make([]bool, len(l.a.states[sid].prev)),
	}
	if parent != nil {
		n.depth = parent.depth + 1
	}
	return n
}

// next returns another left context, or nil when none is left.
func (l *leftSearch) next() *leftContext {
	if l.root == nil {
		l.root = l.newNode(nil, l.target, nil)
		l.open.Push(l.root)
		if l.target == l.a.start {
			return &leftContext{
				target: l.target,
			}
		}
	}

	for !l.open.Empty() {
		v, _ := l.open.Pop()
		node := v.(*leftNode)

		// Pick the open route whose source is closest to the start state.
		index := -1
		distance := distanceInf
		for i, tid := range l.a.states[node.state].prev {
			if node.tried[i] {
				continue
			}
			t := l.a.transitions[tid]
			if t.visited == l.epoch {
				continue
			}
			if d := l.a.states[t.prev].startDistance; d < distance {
				index = i
				distance = d
			}
		}
		if index < 0 {
			continue
		}

		l.open.Push(node)

		t := l.a.transitions[l.a.states[node.state].prev[index]]
		t.visited = l.epoch
		node.tried[index] = true
		child := l.newNode(node, t.prev, t.sym)
		l.open.Push(child)

		return l.route(child)
	}

	return nil
}

// route extends node along the shortest path back to the start state and
// returns the resulting context. The transitions it walks count as explored,
// though route itself follows them even when another route already has.
func (l *leftSearch) route(node *leftNode) *leftContext {
	for node.state != l.a.start {
		s := l.a.states[node.state]
		moved := false
		for i, tid := range s.prev {
			t := l.a.transitions[tid]
			if l.a.states[t.prev].startDistance >= s.startDistance {
				continue
			}
			node.tried[i] = true
			t.visited = l.epoch
			child := l.newNode(node, t.prev, t.sym)
			l.open.Push(child)
			node = child
			moved = true
			break
		}
		if !moved {
			panic("a state has no predecessor closer to the start state")
		}
	}

	ctx := &leftContext{
		target: l.target,
		values: make([]leftContextValue, 0, node.depth),
	}
	for ; node.sym != nil; node = node.parent {
		ctx.values = append(ctx.values, leftContextValue{
			state: node.state,
			sym:   node.sym,
		})
	}
	return ctx
}
