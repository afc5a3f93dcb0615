// Package rdf calculates the radial distribution function and its integral.
package rdf

import (
	"fmt"
	"math"

	"github.com/kpotier/molorder/pkg/box"
	"github.com/kpotier/molorder/pkg/neighbor"
	"github.com/kpotier/molorder/pkg/parallel"
	"github.com/kpotier/molorder/pkg/util"
)

// RDF is the radial distribution function between reference points and
// points, averaged over every accumulated frame.
type RDF struct {
	rmax float32
	dr   float32
	bins int

	hist *parallel.Histogram
	box  box.Box

	frames int
	// refs is the sum over the frames of Nref and density the sum of
	// Nref*Np/V.
	refs    float64
	density float64
}

// New returns an RDF from 0 to rmax with bins of width dr. The number of
// bins must be greater than 1.
func New(rmax, dr float32) (*RDF, error) {
	if !(rmax > 0) || !(dr > 0) {
		return nil, fmt.Errorf("%w: rmax and dr must be positive (got %g and %g)",
			util.ErrInvalidConfiguration, rmax, dr)
	}

	bins := int(rmax / dr)
	if bins <= 1 {
		return nil, fmt.Errorf("%w: the number of bins must be greater than 1 (got %d)",
			util.ErrInvalidConfiguration, bins)
	}

	return &RDF{
		rmax: rmax,
		dr:   dr,
		bins: bins,
		hist: parallel.NewHistogram(bins),
	}, nil
}

// Reset clears the histogram.
func (r *RDF) Reset() {
	r.hist.Reset()
	r.frames = 0
	r.refs = 0
	r.density = 0
}

// Compute is Reset followed by Accumulate.
func (r *RDF) Compute(b box.Box, refs, points []box.Vec3, excludeSelf bool) error {
	it, err := r.query(b, refs, points, excludeSelf)
	if err != nil {
		return err
	}
	r.Reset()
	return r.accumulate(b, it, nil)
}

// Accumulate adds the distances between refs and points to the histogram.
// excludeSelf must be set when refs and points are the same set.
func (r *RDF) Accumulate(b box.Box, refs, points []box.Vec3, excludeSelf bool) error {
	it, err := r.query(b, refs, points, excludeSelf)
	if err != nil {
		return err
	}
	return r.accumulate(b, it, nil)
}

// AccumulateExcluding is like Accumulate for selections that may share
// particles. The bonds between the reference i and the point j are skipped
// when same(i, j) is true.
func (r *RDF) AccumulateExcluding(b box.Box, refs, points []box.Vec3, same func(i, j int) bool) error {
	it, err := r.query(b, refs, points, false)
	if err != nil {
		return err
	}
	return r.accumulate(b, it, same)
}

func (r *RDF) query(b box.Box, refs, points []box.Vec3, excludeSelf bool) (*neighbor.Iterator, error) {
	it, err := neighbor.NewQuery(b, points).Query(refs, neighbor.Args{
		Mode:        neighbor.Ball,
		RMax:        r.rmax,
		ExcludeSelf: excludeSelf,
	})
	if err != nil {
		return nil, fmt.Errorf("Query: %w", err)
	}
	return it, nil
}

func (r *RDF) accumulate(b box.Box, it *neighbor.Iterator, same func(i, j int) bool) error {
	err := r.hist.Accumulate(it.NumRefs(), 0, func(local []uint32, begin, end int) error {
		for i := begin; i < end; i++ {
			for bond := range it.Point(i) {
				if same != nil && same(bond.I, bond.J) {
					continue
				}
				index := int(bond.Distance / r.dr)
				if index < r.bins {
					local[index]++
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.box = b
	r.frames++
	r.refs += float64(it.NumRefs())
	r.density += float64(it.NumRefs()) * float64(it.NumPoints()) / float64(b.Volume())
	return nil
}

// Bins returns the number of bins.
func (r *RDF) Bins() int {
	return r.bins
}

// Frames returns the number of accumulated frames.
func (r *RDF) Frames() int {
	return r.frames
}

// Box returns the box of the last accumulated frame.
func (r *RDF) Box() box.Box {
	return r.box
}

// R returns the centre of each bin.
func (r *RDF) R() []float32 {
	centers := make([]float32, r.bins)
	for i := range centers {
		centers[i] = (float32(i) + 0.5) * r.dr
	}
	return centers
}

// Counts returns the raw histogram.
func (r *RDF) Counts() []uint32 {
	return r.hist.Bins()
}

// RDF returns g(r). Each bin is normalised by the volume of its shell (the
// area of its ring for 2D boxes) and by the average density of points.
func (r *RDF) RDF() []float32 {
	g := make([]float32, r.bins)
	if r.density == 0 {
		return g
	}

	is2D := r.box.Is2D()
	for i, c := range r.hist.Bins() {
		r1 := float64(i) * float64(r.dr)
		r2 := float64(i+1) * float64(r.dr)
		var shell float64
		if is2D {
			shell = math.Pi * (r2*r2 - r1*r1)
		} else {
			shell = 4. / 3. * math.Pi * (r2*r2*r2 - r1*r1*r1)
		}
		g[i] = float32(float64(c) / (shell * r.density))
	}
	return g
}

// NR returns the average number of points closer than the upper edge of each
// bin.
func (r *RDF) NR() []float32 {
	n := make([]float32, r.bins)
	if r.refs == 0 {
		return n
	}

	var sum float64
	for i, c := range r.hist.Bins() {
		sum += float64(c)
		n[i] = float32(sum / r.refs)
	}
	return n
}
