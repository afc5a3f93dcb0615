package neighbor

import (
	"fmt"
	"iter"

	"github.com/kpotier/molorder/pkg/util"
)

// List is an immutable neighbor list. Bonds are grouped by reference point
// in ascending order, so that the bonds of one reference point are
// contiguous.
type List struct {
	bonds   []Bond
	offsets []int
	nPoints int
}

// NewList returns a List holding a copy of bonds. The bonds must be grouped
// by ascending reference index and indices must be lower than nRefs and
// nPoints; an error wrapping util.ErrShapeMismatch is returned otherwise.
func NewList(bonds []Bond, nRefs, nPoints int) (*List, error) {
	last := 0
	for k, b := range bonds {
		if b.I < last || b.I >= nRefs {
			return nil, fmt.Errorf("%w: bond %d has reference index %d (previous %d, %d references)",
				util.ErrShapeMismatch, k, b.I, last, nRefs)
		}
		if b.J < 0 || b.J >= nPoints {
			return nil, fmt.Errorf("%w: bond %d has point index %d (%d points)",
				util.ErrShapeMismatch, k, b.J, nPoints)
		}
		last = b.I
	}

	return newListFromParts([][]Bond{bonds}, nRefs, nPoints), nil
}

// newListFromParts concatenates grouped parts, in order, into a List.
func newListFromParts(parts [][]Bond, nRefs, nPoints int) *List {
	var n int
	for _, p := range parts {
		n += len(p)
	}

	l := &List{
		bonds:   make([]Bond, 0, n),
		offsets: make([]int, nRefs+1),
		nPoints: nPoints,
	}
	for _, p := range parts {
		l.bonds = append(l.bonds, p...)
	}

	// offsets[i+1] first counts the bonds of i.
	for _, b := range l.bonds {
		l.offsets[b.I+1]++
	}
	for i := 0; i < nRefs; i++ {
		l.offsets[i+1] += l.offsets[i]
	}
	return l
}

// Len returns the number of bonds.
func (l *List) Len() int {
	return len(l.bonds)
}

// NumRefs returns the number of reference points.
func (l *List) NumRefs() int {
	return len(l.offsets) - 1
}

// NumPoints returns the number of points.
func (l *List) NumPoints() int {
	return l.nPoints
}

// Bond returns the k-th bond.
func (l *List) Bond(k int) Bond {
	return l.bonds[k]
}

// Bonds returns a copy of every bond.
func (l *List) Bonds() []Bond {
	return append([]Bond(nil), l.bonds...)
}

// Segment returns the bonds of reference point i. The slice is owned by the
// List and must not be modified.
func (l *List) Segment(i int) []Bond {
	return l.bonds[l.offsets[i]:l.offsets[i+1]]
}

// Count returns the number of bonds of reference point i.
func (l *List) Count(i int) int {
	return l.offsets[i+1] - l.offsets[i]
}

// Counts returns the number of bonds of every reference point.
func (l *List) Counts() []int {
	counts := make([]int, l.NumRefs())
	for i := range counts {
		counts[i] = l.Count(i)
	}
	return counts
}

// Point yields the bonds of reference point i.
func (l *List) Point(i int) iter.Seq[Bond] {
	return func(yield func(Bond) bool) {
		for _, b := range l.Segment(i) {
			if !yield(b) {
				return
			}
		}
	}
}

// All yields every bond.
func (l *List) All() iter.Seq[Bond] {
	return func(yield func(Bond) bool) {
		for _, b := range l.bonds {
			if !yield(b) {
				return
			}
		}
	}
}

// Filter returns a new List with the bonds for which keep returns true.
func (l *List) Filter(keep func(Bond) bool) *List {
	kept := make([]Bond, 0, len(l.bonds))
	for _, b := range l.bonds {
		if keep(b) {
			kept = append(kept, b)
		}
	}
	return newListFromParts([][]Bond{kept}, l.NumRefs(), l.nPoints)
}

// Copy returns a deep copy of the List.
func (l *List) Copy() *List {
	return &List{
		bonds:   l.Bonds(),
		offsets: append([]int(nil), l.offsets...),
		nPoints: l.nPoints,
	}
}
