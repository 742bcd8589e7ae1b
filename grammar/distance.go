package grammar

// computeDistances fills startDistance and acceptDistance of every state. A
// step is a shift of any symbol or a reduction followed by its goto.
func (a *automaton) computeDistances() {
	if a.distancesReady {
		return
	}
	a.distancesReady = true

	a.states[a.start].startDistance = 0
	queue := []stateID{a.start}
	for len(queue) > 0 {
		s := a.states[queue[0]]
		queue = queue[1:]
		for _, tid := range s.next {
			next := a.states[a.transitions[tid].next]
			if next.startDistance != distanceInf {
				continue
			}
			next.startDistance = s.startDistance + 1
			queue = append(queue, next.id)
		}
	}

	a.states[a.accept].acceptDistance = 0
	queue = append(queue[:0], a.accept)
	for len(queue) > 0 {
		s := a.states[queue[0]]
		queue = queue[1:]
		d := s.acceptDistance + 1
		reach := func(sid stateID) {
			p := a.states[sid]
			if p.acceptDistance != distanceInf {
				return
			}
			p.acceptDistance = d
			queue = append(queue, sid)
		}
		for _, tid := range s.prev {
			t := a.transitions[tid]
			reach(t.prev)
			// The states completing a rule of t.sym continue to s by reducing.
			for _, rfid := range t.rfrom {
				reach(a.transitions[a.reduceFroms[rfid].finalsymbol].next)
			}
		}
	}
}
