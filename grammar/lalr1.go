package grammar

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"sort"
)

type automatonBuilder struct {
	g *Grammar
	a *automaton

	// scratch collects the locations of the closure under construction and
	// is reused by every closure.
	scratch []int
	// mark[loc] == markEpoch when loc is already in scratch.
	mark      []uint64
	markEpoch uint64

	index map[uint64][]stateID
	queue []stateID
}

// genLALR1Automaton builds the LALR(1) automaton of an augmented grammar,
// including the lookahead sets of every reduction.
func genLALR1Automaton(g *Grammar) *automaton {
	b := &automatonBuilder{
		g: g,
		a: &automaton{
			g:      g,
			start:  stateNil,
			accept: stateNil,
		},
		mark:  make([]uint64, len(g.Locations)),
		index: map[uint64][]stateID{},
	}

	b.genStates()
	b.genErasable()
	b.genReduceFroms()
	b.genLookahead()

	tracer().Debugf("automaton: %v states, %v transitions, %v reductions", len(b.a.states), len(b.a.transitions), len(b.a.reductions))

	return b.a
}

func (b *automatonBuilder) genStates() {
	b.beginClosure()
	b.add(b.g.StartRule.LocStart)
	b.a.start, _ = b.intern()

	for len(b.queue) > 0 {
		s := b.queue[0]
		b.queue = b.queue[1:]
		b.genTransitions(s)
	}

	if b.a.accept == stateNil {
		panic("the accept state was not generated")
	}
}

func (b *automatonBuilder) beginClosure() {
	b.scratch = b.scratch[:0]
	b.markEpoch++
}

func (b *automatonBuilder) add(loc int) {
	if b.mark[loc] == b.markEpoch {
		return
	}
	b.mark[loc] = b.markEpoch
	b.scratch = append(b.scratch, loc)
}

// intern closes the locations in scratch and returns the state with that
// closure, creating it when it is new.
func (b *automatonBuilder) intern() (stateID, bool) {
	// scratch grows while it is scanned, so it doubles as the work-list.
	for i := 0; i < len(b.scratch); i++ {
		sym := b.g.Locations[b.scratch[i]].Symbol
		if sym == nil || sym.IsTerminal() {
			continue
		}
		for _, r := range sym.Rules {
			b.add(r.LocStart)
		}
	}

	locs := b.scratch
	sort.Slice(locs, func(i, j int) bool {
		ki, kj := b.sortKey(locs[i]), b.sortKey(locs[j])
		if ki != kj {
			return ki < kj
		}
		return locs[i] < locs[j]
	})

	h := fnv.New64a()
	var buf [8]byte
	for _, loc := range locs {
		binary.LittleEndian.PutUint64(buf[:], uint64(loc))
		h.Write(buf[:])
	}
	hash := h.Sum64()

	for _, id := range b.index[hash] {
		if equalLocations(b.a.states[id].closure.locs, locs) {
			return id, false
		}
	}

	id := stateID(len(b.a.states))
	s := &state{
		id: id,
		closure: closure{
			hash: hash,
			locs: append([]int(nil), locs...),
		},
		startDistance:  distanceInf,
		acceptDistance: distanceInf,
		index:          -1,
	}
	b.a.states = append(b.a.states, s)
	b.index[hash] = append(b.index[hash], id)
	b.queue = append(b.queue, id)

	final := b.g.StartRule.LocStart + b.g.StartRule.LocCount - 1
	for _, loc := range s.closure.locs {
		if loc == final {
			b.a.accept = id
			break
		}
	}

	return id, true
}

func (b *automatonBuilder) sortKey(loc int) int {
	sym := b.g.Locations[loc].Symbol
	if sym == nil {
		return len(b.g.Symbols)
	}
	return sym.Value
}

func equalLocations(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// genTransitions emits one transition per distinct symbol after the dot and
// one reduction per completed location.
func (b *automatonBuilder) genTransitions(sid stateID) {
	locs := b.a.states[sid].closure.locs
	for i := 0; i < len(locs); {
		sym := b.g.Locations[locs[i]].Symbol
		if sym == nil {
			for ; i < len(locs); i++ {
				b.newReduction(sid, b.g.Locations[locs[i]].Rule)
			}
			break
		}

		expect := false
		b.beginClosure()
		for ; i < len(locs) && b.g.Locations[locs[i]].Symbol == sym; i++ {
			if b.g.Locations[locs[i]].ExpectConflict {
				expect = true
			}
			b.add(locs[i] + 1)
		}
		next, _ := b.intern()

		tid := transitionID(len(b.a.transitions))
		b.a.transitions = append(b.a.transitions, &transition{
			id:     tid,
			prev:   sid,
			next:   next,
			sym:    sym,
			expect: expect,
		})
		b.a.states[sid].next = append(b.a.states[sid].next, tid)
		b.a.states[next].prev = append(b.a.states[next].prev, tid)
	}
}

func (b *automatonBuilder) newReduction(sid stateID, rule *Rule) {
	id := reductionID(len(b.a.reductions))
	b.a.reductions = append(b.a.reductions, &reduction{
		state:     sid,
		rule:      rule,
		lookahead: newTermSet(b.g.TerminalCount),
	})
	b.a.states[sid].reductions = append(b.a.states[sid].reductions, id)
}

// genErasable marks every nonterminal that derives the empty string.
func (b *automatonBuilder) genErasable() {
	for changed := true; changed; {
		changed = false
		for _, sym := range b.g.NonTerminals() {
			if sym.Erasable {
				continue
			}
			for _, r := range sym.Rules {
				if b.isErasableRule(r) {
					sym.Erasable = true
					changed = true
					break
				}
			}
		}
	}
}

func (b *automatonBuilder) isErasableRule(r *Rule) bool {
	for loc := r.LocStart; loc < r.LocStart+r.Len(); loc++ {
		sym := b.g.Locations[loc].Symbol
		if sym.IsTerminal() || !sym.Erasable {
			return false
		}
	}
	return true
}

// genReduceFroms replays every rule of every shifted nonterminal from the
// state the nonterminal is shifted from.
func (b *automatonBuilder) genReduceFroms() {
	var path []transitionID
	for _, t := range b.a.transitions {
		if t.sym.IsTerminal() {
			continue
		}
		for _, r := range t.sym.Rules {
			if r.IsEmpty() {
				continue
			}

			path = path[:0]
			s := t.prev
			for loc := r.LocStart; loc < r.LocStart+r.Len(); loc++ {
				tid, ok := b.a.findTransition(s, b.g.Locations[loc].Symbol)
				if !ok {
					panic(fmt.Errorf("a transition of '%v' is missing at state %v", b.g.locationString(loc), s))
				}
				path = append(path, tid)
				s = b.a.transitions[tid].next
			}

			final := path[len(path)-1]
			rf := b.a.newReduceFrom(r, t.id, final)
			b.a.transitions[final].rgoto = append(b.a.transitions[final].rgoto, rf)
			t.rfrom = append(t.rfrom, rf)

			for i := len(path) - 1; i > 0; i-- {
				after := b.g.Locations[r.LocStart+i].Symbol
				if after.IsTerminal() || !after.Erasable {
					break
				}
				tail := b.a.transitions[path[i-1]]
				if !tail.sym.IsTerminal() {
					tail.rtail = append(tail.rtail, rf)
				}
			}
		}
	}
}

func (b *automatonBuilder) genLookahead() {
	var work []transitionID
	for _, rd := range b.a.reductions {
		epoch := b.a.nextEpoch()
		work = work[:0]
		for _, tid := range b.a.lookback(rd.state, rd.rule) {
			t := b.a.transitions[tid]
			if t.visited == epoch {
				continue
			}
			t.visited = epoch
			work = append(work, tid)
		}

		// Follow the nonterminal transitions the reduction can go to, and
		// the transitions of the rules those nonterminals complete.
		for len(work) > 0 {
			t := b.a.transitions[work[len(work)-1]]
			work = work[:len(work)-1]

			b.collectDirectLookahead(t.next, epoch, rd.lookahead)

			for _, links := range [][]reduceFromID{t.rgoto, t.rtail} {
				for _, rfid := range links {
					nt := b.a.transitions[b.a.reduceFroms[rfid].nonterminal]
					if nt.visited == epoch {
						continue
					}
					nt.visited = epoch
					work = append(work, nt.id)
				}
			}
		}
	}
}

// collectDirectLookahead adds the terminals shifted out of a state, seeing
// past erasable nonterminals.
func (b *automatonBuilder) collectDirectLookahead(sid stateID, epoch uint64, la termSet) {
	stack := []stateID{sid}
	for len(stack) > 0 {
		s := b.a.states[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if s.visited == epoch {
			continue
		}
		s.visited = epoch

		for _, tid := range s.next {
			t := b.a.transitions[tid]
			if t.sym.IsTerminal() {
				la.add(t.sym.Value)
				continue
			}
			if t.sym.Erasable {
				stack = append(stack, t.next)
			}
		}
	}
}
