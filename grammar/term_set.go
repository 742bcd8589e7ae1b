package grammar

import "math/bits"

// termSet is a set of terminal values backed by a bit vector.
type termSet []uint64

func newTermSet(termCount int) termSet {
	return make(termSet, (termCount+63)/64)
}

func (s termSet) add(term int) bool {
	w, b := term/64, uint(term%64)
	if s[w]&(1<<b) != 0 {
		return false
	}
	s[w] |= 1 << b
	return true
}

func (s termSet) has(term int) bool {
	return s[term/64]&(1<<uint(term%64)) != 0
}

func (s termSet) len() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount64(w)
	}
	return n
}

// terms returns the members in ascending order.
func (s termSet) terms() []int {
	terms := make([]int, 0, s.len())
	for i, w := range s {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			terms = append(terms, i*64+b)
			w &^= 1 << uint(b)
		}
	}
	return terms
}
