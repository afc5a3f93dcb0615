// Package cell bins particles of a periodic box into a uniform grid of cells.
// A cell is at least as wide as the requested width, so that the neighbors
// of a particle within that width are in its own cell or in one of the
// adjacent cells.
package cell

import (
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/kpotier/molorder/pkg/box"
	"github.com/kpotier/molorder/pkg/util"
)

// The grid is bounded when the width is tiny compared to the box: at most
// maxCellsPerAxis along an axis, and at most maxCellsPerPoint cells per point
// once it holds more than minCells. Capping only makes the cells wider.
const (
	maxCellsPerAxis  = 1024
	maxCellsPerPoint = 2
	minCells         = 1024
)

// Coord is the integer coordinate of a cell in the grid.
type Coord [3]int

// List is a cell list. Particles are stored by cell in ascending index order.
// A List is read-only once built: it can be queried concurrently, but a Build
// must not run concurrently with anything else on the same List.
type List struct {
	box   box.Box
	width float32
	dim   [3]int

	// start[c]:start[c+1] is the range of members belonging to cell c.
	start   []int
	members []int

	// neighbors[c] lists the cells adjacent to c, c included, without
	// duplicates.
	neighbors [][]int

	points []box.Vec3
}

// Build returns a cell list of the points in the box, with cells at least
// width wide.
func Build(b box.Box, points []box.Vec3, width float32) (*List, error) {
	l := &List{}
	err := l.Build(b, points, width)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Build rebuilds the cell list, reusing its buffers. The neighbor table is
// only recomputed when the grid dimensions change.
func (l *List) Build(b box.Box, points []box.Vec3, width float32) error {
	if !(width > 0) {
		return fmt.Errorf("%w: cell width must be positive (got %g)",
			util.ErrDegenerateQuery, width)
	}

	dim := DimsFor(b, width, len(points))
	if dim != l.dim || l.neighbors == nil {
		l.dim = dim
		l.neighbors = l.neighborTable()
	}
	l.box = b
	l.width = width
	l.points = points

	cells := l.NumCells()
	l.start = resize(l.start, cells+1)
	l.members = resize(l.members, len(points))
	clear(l.start)

	// Counting sort: start[c+1] holds the count of cell c, then is turned
	// into an offset.
	idx := make([]int, len(points))
	for i, p := range points {
		idx[i] = l.Index(l.CellOf(p))
		l.start[idx[i]+1]++
	}
	for c := 0; c < cells; c++ {
		l.start[c+1] += l.start[c]
	}

	fill := make([]int, cells)
	copy(fill, l.start[:cells])
	for i, c := range idx {
		l.members[fill[c]] = i
		fill[c]++
	}

	return nil
}

// Dims returns the number of cells along each axis for a box and a cell
// width. An axis shorter than twice the width gets a single cell.
func Dims(b box.Box, width float32) [3]int {
	planes := b.NearestPlaneDistance()
	dim := [3]int{1, 1, 1}
	for k := 0; k < b.Dim(); k++ {
		n := int(math.Floor(float64(planes[k] / width)))
		dim[k] = max(1, min(n, maxCellsPerAxis))
	}
	return dim
}

// DimsFor is like Dims for a grid holding n points. The largest axes are
// shrunk until the grid has no more than max(2n, 1024) cells, so that a
// dilute system doesn't allocate a cell per unit of volume.
func DimsFor(b box.Box, width float32, n int) [3]int {
	dim := Dims(b, width)
	limit := max(maxCellsPerPoint*n, minCells)
	for dim[0]*dim[1]*dim[2] > limit {
		k := 0
		for a := 1; a < 3; a++ {
			if dim[a] > dim[k] {
				k = a
			}
		}
		dim[k] = dim[k] * 3 / 4
	}
	return dim
}

func resize(s []int, n int) []int {
	if cap(s) < n {
		return make([]int, n)
	}
	return s[:n]
}

// Box returns the box of the last build.
func (l *List) Box() box.Box {
	return l.box
}

// Width returns the width requested at the last build.
func (l *List) Width() float32 {
	return l.width
}

// Dims returns the number of cells along each axis.
func (l *List) Dims() [3]int {
	return l.dim
}

// NumCells returns the total number of cells.
func (l *List) NumCells() int {
	return l.dim[0] * l.dim[1] * l.dim[2]
}

// NumPoints returns the number of points binned at the last build.
func (l *List) NumPoints() int {
	return len(l.points)
}

// CellWidth returns the perpendicular width of a cell along each axis.
func (l *List) CellWidth() box.Vec3 {
	planes := l.box.NearestPlaneDistance()
	var w box.Vec3
	for k := 0; k < 3; k++ {
		w[k] = planes[k] / float32(l.dim[k])
	}
	return w
}

// Index returns the flat index of a cell coordinate.
func (l *List) Index(c Coord) int {
	return c[0] + c[1]*l.dim[0] + c[2]*l.dim[0]*l.dim[1]
}

// Coord returns the cell coordinate of a flat index.
func (l *List) Coord(idx int) Coord {
	area := l.dim[0] * l.dim[1]
	return Coord{idx % l.dim[0], (idx % area) / l.dim[0], idx / area}
}

// CellOf returns the cell containing a point. Points outside the box are
// wrapped back into it.
func (l *List) CellOf(p box.Vec3) Coord {
	f := l.box.MakeFractional(p)
	var c Coord
	for k := 0; k < l.box.Dim(); k++ {
		v := int(math.Floor(float64(f[k] * float32(l.dim[k]))))
		c[k] = pMod(v, l.dim[k])
	}
	return c
}

// pMod computes the positive modulo x % y.
func pMod(x, y int) int {
	m := x % y
	if m < 0 {
		m += y
	}
	return m
}

func (l *List) neighborTable() [][]int {
	reach := [3]int{1, 1, 1}
	if l.dim[2] == 1 {
		reach[2] = 0
	}

	table := make([][]int, l.NumCells())
	for idx := range table {
		c := l.Coord(idx)
		cells := make([]int, 0, 27)
		for dz := -reach[2]; dz <= reach[2]; dz++ {
			for dy := -reach[1]; dy <= reach[1]; dy++ {
				for dx := -reach[0]; dx <= reach[0]; dx++ {
					n := Coord{
						pMod(c[0]+dx, l.dim[0]),
						pMod(c[1]+dy, l.dim[1]),
						pMod(c[2]+dz, l.dim[2]),
					}
					cells = append(cells, l.Index(n))
				}
			}
		}
		slices.Sort(cells)
		table[idx] = slices.Compact(cells)
	}
	return table
}

// NeighborCells returns the cells adjacent to c, c included: 27 cells in 3D
// and 9 in 2D, fewer when the grid is narrower than 3 cells along an axis.
func (l *List) NeighborCells(c Coord) []Coord {
	idx := l.neighbors[l.Index(c)]
	coords := make([]Coord, len(idx))
	for k, n := range idx {
		coords[k] = l.Coord(n)
	}
	return coords
}

// NeighborIndices is like NeighborCells but returns flat indices. The
// returned slice is owned by the List and must not be modified.
func (l *List) NeighborIndices(idx int) []int {
	return l.neighbors[idx]
}

// Members returns the particles of the cell with a flat index. The returned
// slice is owned by the List and must not be modified.
func (l *List) Members(idx int) []int {
	return l.members[l.start[idx]:l.start[idx+1]]
}

// ParticlesIn yields the particles of a cell in ascending order.
func (l *List) ParticlesIn(c Coord) iter.Seq[int] {
	members := l.Members(l.Index(c))
	return func(yield func(int) bool) {
		for _, i := range members {
			if !yield(i) {
				return
			}
		}
	}
}

// Candidates yields every particle in the cells adjacent to the cell of p.
// The true neighbors of p within the width of the list are a subset of them.
func (l *List) Candidates(p box.Vec3) iter.Seq[int] {
	cells := l.neighbors[l.Index(l.CellOf(p))]
	return func(yield func(int) bool) {
		for _, c := range cells {
			for _, i := range l.Members(c) {
				if !yield(i) {
					return
				}
			}
		}
	}
}
