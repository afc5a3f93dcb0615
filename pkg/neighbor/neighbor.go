// Package neighbor finds the neighbors of reference points among a set of
// points in a periodic box, either within a cutoff or among the k nearest.
//
// A Query owns the points and their spatial index. Query.Query validates the
// arguments, prepares the index and returns an Iterator whose per-reference
// sequences are read-only and can be consumed from several goroutines.
package neighbor

import (
	"fmt"
	"iter"

	"github.com/kpotier/molorder/pkg/util"
)

// Mode is the kind of neighbor query.
type Mode int

const (
	// Ball finds every point closer than Args.RMax.
	Ball Mode = iota
	// Nearest finds the Args.K nearest points.
	Nearest
	// NearestBall finds the Args.K nearest points and drops those that are
	// not closer than Args.RMax.
	NearestBall
)

// String implements the fmt.Stringer interface.
func (m Mode) String() string {
	switch m {
	case Ball:
		return "ball"
	case Nearest:
		return "nearest"
	case NearestBall:
		return "nearest_ball"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Args are the arguments of a neighbor query.
type Args struct {
	Mode Mode
	// RMax is the cutoff of Ball and NearestBall queries. A bond is accepted
	// if its distance is strictly lower than RMax.
	RMax float32
	// K is the number of neighbors of Nearest and NearestBall queries.
	K int
	// ExcludeSelf drops bonds whose reference and point indices are equal.
	// It is meant for queries of a point set against itself.
	ExcludeSelf bool
}

// Validate returns an error wrapping util.ErrDegenerateQuery if the
// arguments can't produce any bond.
func (a Args) Validate() error {
	switch a.Mode {
	case Ball:
	case Nearest, NearestBall:
		if a.K <= 0 {
			return fmt.Errorf("%w: number of neighbors must be positive (got %d)",
				util.ErrDegenerateQuery, a.K)
		}
	default:
		return fmt.Errorf("%w: unknown query mode %v", util.ErrInvalidConfiguration, a.Mode)
	}

	if a.Mode != Nearest && !(a.RMax > 0) {
		return fmt.Errorf("%w: cutoff must be positive (got %g)",
			util.ErrDegenerateQuery, a.RMax)
	}
	return nil
}

// Bond links reference point I to point J.
type Bond struct {
	I, J     int
	Distance float32
	Weight   float32
}

// Source provides the bonds of each reference point. It is implemented by
// Iterator and List, so that computations accept either a fresh query or a
// cached neighbor list.
type Source interface {
	NumRefs() int
	NumPoints() int
	Point(i int) iter.Seq[Bond]
}
