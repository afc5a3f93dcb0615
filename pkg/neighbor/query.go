package neighbor

import (
	"iter"
	"math"
	"slices"

	"github.com/kpotier/molorder/pkg/box"
	"github.com/kpotier/molorder/pkg/cell"
	"github.com/kpotier/molorder/pkg/parallel"
)

// smallSystem is the number of points below which a brute force scan is
// faster than binning.
const smallSystem = 64

// Query finds neighbors among a set of points. The points are borrowed, not
// copied, and must not be modified while the Query or its iterators are in
// use. Calls to Query.Query on the same instance must be serialized.
type Query struct {
	box    box.Box
	points []box.Vec3

	cells      cell.List
	cellsWidth float32
	cellsBuilt bool
}

// NewQuery returns a Query over points in the box b.
func NewQuery(b box.Box, points []box.Vec3) *Query {
	return &Query{box: b, points: points}
}

// Box returns the box of the query.
func (q *Query) Box() box.Box {
	return q.box
}

// Points returns the points of the query.
func (q *Query) Points() []box.Vec3 {
	return q.points
}

// Query validates args and returns the neighbors of each reference point.
// The spatial index is built before Query returns, so that the iterator is
// read-only.
func (q *Query) Query(refs []box.Vec3, args Args) (*Iterator, error) {
	err := args.Validate()
	if err != nil {
		return nil, err
	}

	it := &Iterator{
		box:    q.box,
		points: q.points,
		refs:   refs,
		args:   args,
	}

	switch args.Mode {
	case Ball:
		if q.useCells(args.RMax) {
			it.cells = q.buildCells(args.RMax)
		}
	case Nearest, NearestBall:
		w := q.nearestWidth(args.K)
		if w > 0 {
			it.cells = q.buildCells(w)
			it.prepareShells()
		}
	}

	return it, nil
}

// useCells returns true if a cell list is worth building for a cutoff. The
// grid must have at least 3 cells along each axis.
func (q *Query) useCells(rmax float32) bool {
	if len(q.points) <= smallSystem {
		return false
	}

	planes := q.box.NearestPlaneDistance()
	lmin := min(planes[0], planes[1])
	if !q.box.Is2D() {
		lmin = min(lmin, planes[2])
	}
	return rmax < lmin/3
}

// nearestWidth returns the cell width used for k nearest neighbor queries, or
// 0 if a brute force scan is preferable. Cells are sized to hold about k
// points.
func (q *Query) nearestWidth(k int) float32 {
	if len(q.points) <= smallSystem {
		return 0
	}

	dim := float64(q.box.Dim())
	w := float32(math.Pow(float64(q.box.Volume())*float64(k)/float64(len(q.points)), 1/dim))
	dims := cell.Dims(q.box, w)
	for a := 0; a < q.box.Dim(); a++ {
		if dims[a] < 3 {
			return 0
		}
	}
	return w
}

func (q *Query) buildCells(width float32) *cell.List {
	if !q.cellsBuilt || q.cellsWidth != width {
		// The error is only possible for a non-positive width.
		_ = q.cells.Build(q.box, q.points, width)
		q.cellsWidth = width
		q.cellsBuilt = true
	}
	return &q.cells
}

// Iterator holds a prepared query. Its methods can be called concurrently.
// It stays valid until the next call to Query.Query on the Query that
// created it.
type Iterator struct {
	box    box.Box
	points []box.Vec3
	refs   []box.Vec3
	args   Args

	// cells is nil when the points are scanned by brute force.
	cells *cell.List

	// Per-axis offset ranges of the cell shells and the smallest cell width.
	shellLo, shellHi [3]int
	maxShell         int
	cellMin          float32
}

// Args returns the arguments of the query.
func (it *Iterator) Args() Args {
	return it.args
}

// NumRefs returns the number of reference points.
func (it *Iterator) NumRefs() int {
	return len(it.refs)
}

// NumPoints returns the number of points searched.
func (it *Iterator) NumPoints() int {
	return len(it.points)
}

// UsesCells returns true if the query is backed by a cell list.
func (it *Iterator) UsesCells() bool {
	return it.cells != nil
}

// Point yields the bonds of reference point i. Ball bonds come in cell
// order; nearest neighbor bonds come sorted by distance then index.
func (it *Iterator) Point(i int) iter.Seq[Bond] {
	return func(yield func(Bond) bool) {
		switch it.args.Mode {
		case Ball:
			it.ball(i, yield)
		default:
			for _, b := range it.nearest(i) {
				if !yield(b) {
					return
				}
			}
		}
	}
}

// All yields every bond, grouped by reference point in ascending order.
func (it *Iterator) All() iter.Seq[Bond] {
	return func(yield func(Bond) bool) {
		for i := range it.refs {
			for b := range it.Point(i) {
				if !yield(b) {
					return
				}
			}
		}
	}
}

// ToList materializes the bonds into a List, computing the reference points
// in parallel. Ball bonds of each reference point are sorted by index.
func (it *Iterator) ToList() *List {
	bufs, _ := parallel.Accumulate(len(it.refs), 0,
		func() *[]Bond { return new([]Bond) },
		func(buf *[]Bond, begin, end int) error {
			for i := begin; i < end; i++ {
				start := len(*buf)
				*buf = slices.AppendSeq(*buf, it.Point(i))
				if it.args.Mode == Ball {
					slices.SortFunc((*buf)[start:], func(a, b Bond) int { return a.J - b.J })
				}
			}
			return nil
		},
	)

	parts := make([][]Bond, len(bufs))
	for w, b := range bufs {
		parts[w] = *b
	}
	return newListFromParts(parts, len(it.refs), len(it.points))
}

func (it *Iterator) ball(i int, yield func(Bond) bool) {
	r := it.refs[i]
	rmax2 := it.args.RMax * it.args.RMax

	visit := func(j int) bool {
		if it.args.ExcludeSelf && i == j {
			return true
		}
		rsq := it.box.Wrap(it.points[j].Sub(r)).Norm2()
		if rsq < rmax2 {
			return yield(Bond{I: i, J: j, Distance: sqrt(rsq), Weight: 1})
		}
		return true
	}

	if it.cells == nil {
		for j := range it.points {
			if !visit(j) {
				return
			}
		}
		return
	}

	for j := range it.cells.Candidates(r) {
		if !visit(j) {
			return
		}
	}
}

func sqrt(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}
