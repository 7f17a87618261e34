package model

import "sort"

// Positions is an ordered list of token offsets at which a term occurs
// within one (field, document) pair.
type Positions []int

// Merge returns the union of p and other as a new, sorted Positions.
func (p Positions) Merge(other Positions) Positions {
	seen := make(map[int]struct{}, len(p)+len(other))
	out := make(Positions, 0, len(p)+len(other))
	for _, positions := range [2]Positions{p, other} {
		for _, pos := range positions {
			if _, ok := seen[pos]; ok {
				continue
			}
			seen[pos] = struct{}{}
			out = append(out, pos)
		}
	}
	sort.Ints(out)
	return out
}

// Sorted returns a sorted copy of p.
func (p Positions) Sorted() Positions {
	out := make(Positions, len(p))
	copy(out, p)
	sort.Ints(out)
	return out
}
