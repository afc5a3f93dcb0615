package neighbor

import (
	"github.com/kpotier/molorder/pkg/box"
	"github.com/kpotier/molorder/pkg/cell"
)

// prepareShells computes the offset ranges of the cell shells. Along an axis
// with n cells, offsets span [-lo, hi] with lo+hi+1 == n, so that every cell
// is visited exactly once.
func (it *Iterator) prepareShells() {
	dims := it.cells.Dims()
	width := it.cells.CellWidth()

	it.cellMin = 0
	for k := 0; k < 3; k++ {
		it.shellLo[k] = (dims[k] - 1) / 2
		it.shellHi[k] = dims[k] - 1 - it.shellLo[k]
		it.maxShell = max(it.maxShell, it.shellHi[k])
		if dims[k] > 1 && (it.cellMin == 0 || width[k] < it.cellMin) {
			it.cellMin = width[k]
		}
	}
}

// nearest returns the bonds of reference point i sorted by distance then
// index. Fewer than K bonds are returned when not enough points exist.
func (it *Iterator) nearest(i int) []Bond {
	r := it.refs[i]
	q := newQueue(it.args.K)

	push := func(j int) {
		if it.args.ExcludeSelf && i == j {
			return
		}
		rsq := it.box.Wrap(it.points[j].Sub(r)).Norm2()
		q.Push(candidate{J: j, Rsq: rsq})
	}

	if it.cells == nil {
		for j := range it.points {
			push(j)
		}
	} else {
		it.shells(r, q, push)
	}

	sorted := q.Sorted()
	bonds := make([]Bond, 0, len(sorted))
	rmax2 := it.args.RMax * it.args.RMax
	for _, c := range sorted {
		if it.args.Mode == NearestBall && c.Rsq >= rmax2 {
			break
		}
		bonds = append(bonds, Bond{I: i, J: c.J, Distance: sqrt(c.Rsq), Weight: 1})
	}
	return bonds
}

// shells visits the cells around the cell of r by increasing Chebyshev
// distance. After shell s, unvisited points are at least s cell widths away,
// so the search stops once the queue is full and its worst candidate is
// closer than that.
func (it *Iterator) shells(r box.Vec3, q *queue, push func(j int)) {
	c := it.cells.CellOf(r)
	dims := it.cells.Dims()

	for s := 0; s <= it.maxShell; s++ {
		it.shell(c, s, dims, push)

		if q.Full() {
			top, _ := q.Top()
			bound := float32(s) * it.cellMin
			if top.Rsq < bound*bound {
				return
			}
		}
	}
}

// shell pushes the points of every cell whose largest offset from c is s.
func (it *Iterator) shell(c cell.Coord, s int, dims [3]int, push func(j int)) {
	lo, hi := it.shellLo, it.shellHi
	for dz := -min(s, lo[2]); dz <= min(s, hi[2]); dz++ {
		for dy := -min(s, lo[1]); dy <= min(s, hi[1]); dy++ {
			inner := abs(dz) < s && abs(dy) < s
			for dx := -min(s, lo[0]); dx <= min(s, hi[0]); dx++ {
				if inner && abs(dx) < s {
					// Jump to the positive face of the shell.
					if s > hi[0] {
						break
					}
					dx = s
				}
				n := cell.Coord{
					(c[0] + dx + dims[0]) % dims[0],
					(c[1] + dy + dims[1]) % dims[1],
					(c[2] + dz + dims[2]) % dims[2],
				}
				for _, j := range it.cells.Members(it.cells.Index(n)) {
					push(j)
				}
			}
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
