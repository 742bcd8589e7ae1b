package grammar

import "math"

type stateID int

type transitionID int

type reduceFromID int

type reductionID int

type conflictID int

const (
	stateNil      = stateID(-1)
	transitionNil = transitionID(-1)
)

// distanceInf is the distance to a state that cannot be reached.
const distanceInf = math.MaxInt32

// closure is a sorted set of location indices. Locations are ordered by the
// value of the symbol after the dot, with completed locations last, and then
// by index, so locations wanting the same symbol are contiguous.
type closure struct {
	hash uint64
	locs []int
}

type state struct {
	id         stateID
	closure    closure
	next       []transitionID
	prev       []transitionID
	reductions []reductionID

	// actions is indexed by terminal value.
	actions     []action
	hasConflict bool

	startDistance  int
	acceptDistance int

	visited   uint64
	reachable bool
	index     int

	// waiting holds nonterminal transitions leaving this state whose goto
	// becomes reachable once this state is reached.
	waiting []transitionID
}

type transition struct {
	id   transitionID
	prev stateID
	next stateID
	sym  *Symbol

	// expect is set when a location shifting sym carries the expected-conflict marker.
	expect bool

	// rfrom lists reducefroms whose nonterminal is shifted by this transition.
	rfrom []reduceFromID
	// rgoto lists reducefroms whose rule ends with the symbol shifted by this transition.
	rgoto []reduceFromID
	// rtail lists reducefroms whose rule continues with only erasable
	// symbols after the nonterminal shifted by this transition.
	rtail []reduceFromID

	visited uint64
}

// reduceFrom links the transition that shifts a rule's last symbol to the
// transition that shifts the rule's nonterminal from the state where the
// rule started.
type reduceFrom struct {
	rule        *Rule
	nonterminal transitionID
	finalsymbol transitionID
}

type reduction struct {
	state     stateID
	rule      *Rule
	lookahead termSet
}

// conflict holds the actions left ambiguous for one terminal at one state.
type conflict struct {
	state    stateID
	sym      *Symbol
	shift    transitionID
	reduces  []reductionID
	reported bool
}

type actionKind uint8

const (
	actionError actionKind = iota
	actionShift
	actionReduce
	actionConflict
)

// action is a tagged reference. The zero value is an error action.
type action struct {
	kind actionKind
	ref  int
}

func shiftAction(t transitionID) action {
	return action{kind: actionShift, ref: int(t)}
}

func reduceAction(r reductionID) action {
	return action{kind: actionReduce, ref: int(r)}
}

func conflictAction(c conflictID) action {
	return action{kind: actionConflict, ref: int(c)}
}

func (a action) transition() transitionID {
	if a.kind != actionShift {
		panic("not a shift action")
	}
	return transitionID(a.ref)
}

func (a action) reduction() reductionID {
	if a.kind != actionReduce {
		panic("not a reduce action")
	}
	return reductionID(a.ref)
}

func (a action) conflict() conflictID {
	if a.kind != actionConflict {
		panic("not a conflict action")
	}
	return conflictID(a.ref)
}

// automaton owns every state, transition, reducefrom, reduction and conflict
// of one compilation. Everything else refers to them by id.
type automaton struct {
	g           *Grammar
	states      []*state
	transitions []*transition
	reduceFroms []*reduceFrom
	reductions  []*reduction
	conflicts   []*conflict
	start       stateID
	accept      stateID

	// epoch increases once per traversal; a node was seen by the current
	// traversal when its visited field equals epoch.
	epoch uint64

	distancesReady bool
}

func (a *automaton) nextEpoch() uint64 {
	a.epoch++
	return a.epoch
}

func (a *automaton) findTransition(s stateID, sym *Symbol) (transitionID, bool) {
	for _, tid := range a.states[s].next {
		if a.transitions[tid].sym == sym {
			return tid, true
		}
	}
	return transitionNil, false
}

func (a *automaton) newReduceFrom(rule *Rule, nonterminal, finalsymbol transitionID) reduceFromID {
	id := reduceFromID(len(a.reduceFroms))
	a.reduceFroms = append(a.reduceFroms, &reduceFrom{
		rule:        rule,
		nonterminal: nonterminal,
		finalsymbol: finalsymbol,
	})
	return id
}

func (a *automaton) newConflict(s stateID, sym *Symbol, shift transitionID, reduces ...reductionID) conflictID {
	id := conflictID(len(a.conflicts))
	a.conflicts = append(a.conflicts, &conflict{
		state:   s,
		sym:     sym,
		shift:   shift,
		reduces: reduces,
	})
	a.states[s].hasConflict = true
	return id
}

// lookback returns the nonterminal transitions a reduction of rule at state
// s can go to.
func (a *automaton) lookback(s stateID, rule *Rule) []transitionID {
	var ts []transitionID
	if rule.IsEmpty() {
		if tid, ok := a.findTransition(s, rule.Nonterminal); ok {
			ts = append(ts, tid)
		}
		return ts
	}
	for _, e := range a.states[s].prev {
		for _, rfid := range a.transitions[e].rgoto {
			rf := a.reduceFroms[rfid]
			if rf.rule == rule {
				ts = append(ts, rf.nonterminal)
			}
		}
	}
	return ts
}
