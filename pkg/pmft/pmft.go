// Package pmft computes the potential of mean force and torque of 2D
// anisotropic particles: a histogram of the position of each neighbor in
// the frame of the reference particle, and of the relative orientation of
// the pair.
package pmft

import (
	"fmt"
	"math"

	"github.com/kpotier/molorder/pkg/box"
	"github.com/kpotier/molorder/pkg/neighbor"
	"github.com/kpotier/molorder/pkg/parallel"
	"github.com/kpotier/molorder/pkg/util"
)

// XYT is the PMFT in x, y and the relative angle T. Histograms accumulate
// across calls to Accumulate until Reset is called.
type XYT struct {
	maxX, maxY, maxT float32
	dx, dy, dT       float32
	nx, ny, nT       int

	x, y, t []float32
	hist    *parallel.Histogram

	box    box.Box
	frames int
	// density is the sum over the frames of Nref*Np/V.
	density float64
}

// NewXYT returns an XYT binning x in [-maxX, maxX), y in [-maxY, maxY) and T
// in [-maxT, maxT) with widths dx, dy and dT. Every value must be positive
// and each width must not exceed its maximum.
func NewXYT(maxX, maxY, maxT, dx, dy, dT float32) (*XYT, error) {
	for _, v := range []struct {
		name    string
		hi, bin float32
	}{{"x", maxX, dx}, {"y", maxY, dy}, {"T", maxT, dT}} {
		if !(v.hi > 0) || !(v.bin > 0) {
			return nil, fmt.Errorf("%w: max_%s and d%s must be positive (got %g and %g)",
				util.ErrInvalidConfiguration, v.name, v.name, v.hi, v.bin)
		}
		if v.bin > v.hi {
			return nil, fmt.Errorf("%w: max_%s must be greater than d%s (got %g and %g)",
				util.ErrInvalidConfiguration, v.name, v.name, v.hi, v.bin)
		}
	}

	p := &XYT{
		maxX: maxX, maxY: maxY, maxT: maxT,
		dx: dx, dy: dy, dT: dT,
		nx: nbins(maxX, dx),
		ny: nbins(maxY, dy),
		nT: nbins(maxT, dT),
	}
	p.x = centers(p.nx, maxX, dx)
	p.y = centers(p.ny, maxY, dy)
	p.t = centers(p.nT, maxT, dT)
	p.hist = parallel.NewHistogram(p.nx, p.ny, p.nT)
	return p, nil
}

func nbins(hi, d float32) int {
	return int(2 * math.Floor(float64(hi/d)))
}

func centers(n int, hi, d float32) []float32 {
	c := make([]float32, n)
	for i := range c {
		c[i] = -hi + (float32(i)+0.5)*d
	}
	return c
}

// Reset clears the histogram.
func (p *XYT) Reset() {
	p.hist.Reset()
	p.frames = 0
	p.density = 0
}

// Compute is Reset followed by Accumulate. The histogram is not reset if
// the arguments are rejected.
func (p *XYT) Compute(b box.Box, refs []box.Vec3, refAngles []float32, points []box.Vec3, angles []float32) error {
	err := p.check(b, refs, refAngles, points, angles)
	if err != nil {
		return err
	}
	p.Reset()
	return p.Accumulate(b, refs, refAngles, points, angles)
}

func (p *XYT) check(b box.Box, refs []box.Vec3, refAngles []float32, points []box.Vec3, angles []float32) error {
	if !b.Is2D() {
		return fmt.Errorf("%w: box must be 2D", util.ErrInvalidConfiguration)
	}
	planes := b.NearestPlaneDistance()
	if p.maxX > planes[0]/2 || p.maxY > planes[1]/2 {
		return fmt.Errorf("%w: max_x and max_y must not exceed half the distance between box planes (got %g, %g in %v)",
			util.ErrInvalidConfiguration, p.maxX, p.maxY, b)
	}
	if len(refs) != len(refAngles) {
		return fmt.Errorf("%w: %d reference points for %d angles",
			util.ErrShapeMismatch, len(refs), len(refAngles))
	}
	if len(points) != len(angles) {
		return fmt.Errorf("%w: %d points for %d angles",
			util.ErrShapeMismatch, len(points), len(angles))
	}
	return nil
}

// Accumulate adds the bonds of refs to the histogram. The angles are the
// orientations of the particles in the xy plane. Nothing is modified if an
// error is returned.
func (p *XYT) Accumulate(b box.Box, refs []box.Vec3, refAngles []float32, points []box.Vec3, angles []float32) error {
	err := p.check(b, refs, refAngles, points, angles)
	if err != nil {
		return err
	}

	rmax := float32(math.Hypot(float64(p.maxX), float64(p.maxY)))
	it, err := neighbor.NewQuery(b, points).Query(refs, neighbor.Args{Mode: neighbor.Ball, RMax: rmax})
	if err != nil {
		return fmt.Errorf("Query: %w", err)
	}

	err = p.hist.Accumulate(len(refs), 0, func(local []uint32, begin, end int) error {
		for i := begin; i < end; i++ {
			for bond := range it.Point(i) {
				if idx, ok := p.bin(b, refs[i], refAngles[i], points[bond.J], angles[bond.J]); ok {
					local[idx]++
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.box = b
	p.frames++
	p.density += float64(len(refs)) * float64(len(points)) / float64(b.Volume())
	return nil
}

// bin returns the histogram index of the bond from ref to point.
func (p *XYT) bin(b box.Box, ref box.Vec3, refAngle float32, point box.Vec3, angle float32) (int, bool) {
	d := b.Wrap(point.Sub(ref))
	if d.Norm2() < 1e-6 {
		return 0, false
	}

	// Position of point in the frame of ref.
	sin, cos := math.Sincos(float64(-refAngle))
	dx, dy := float64(d[0]), float64(d[1])
	x := float32(cos*dx-sin*dy) + p.maxX
	y := float32(sin*dx+cos*dy) + p.maxY

	t1 := math.Atan2(dy, dx) - float64(refAngle)
	t2 := math.Atan2(-dy, -dx) - float64(angle)
	t := float32(wrapAngle(t1+t2)) + p.maxT

	ix := int(math.Floor(float64(x / p.dx)))
	iy := int(math.Floor(float64(y / p.dy)))
	iT := int(math.Floor(float64(t / p.dT)))
	if ix < 0 || ix >= p.nx || iy < 0 || iy >= p.ny || iT < 0 || iT >= p.nT {
		return 0, false
	}
	return p.hist.Index(ix, iy, iT), true
}

// wrapAngle returns a in [-pi, pi).
func wrapAngle(a float64) float64 {
	return a - 2*math.Pi*math.Floor((a+math.Pi)/(2*math.Pi))
}

// Box returns the box of the last accumulated frame.
func (p *XYT) Box() box.Box {
	return p.box
}

// Frames returns the number of accumulated frames.
func (p *XYT) Frames() int {
	return p.frames
}

// Shape returns the number of bins along x, y and T.
func (p *XYT) Shape() (nx, ny, nT int) {
	return p.nx, p.ny, p.nT
}

// X returns the centres of the bins along x.
func (p *XYT) X() []float32 {
	return p.x
}

// Y returns the centres of the bins along y.
func (p *XYT) Y() []float32 {
	return p.y
}

// T returns the centres of the bins along T.
func (p *XYT) T() []float32 {
	return p.t
}

// PCF returns the raw bond counts, indexed by (x*ny + y)*nT + T. The slice
// is owned by the XYT.
func (p *XYT) PCF() []uint32 {
	return p.hist.Bins()
}

// At returns the bond count of the bin (ix, iy, iT).
func (p *XYT) At(ix, iy, iT int) uint32 {
	return p.hist.At(ix, iy, iT)
}

// PMFT returns -ln of the pair correlation, laid out like PCF. The counts
// are normalised so that an ideal gas gives a pair correlation of 1. Empty
// bins are +Inf.
func (p *XYT) PMFT() []float32 {
	counts := p.hist.Bins()
	out := make([]float32, len(counts))

	expected := p.density * float64(p.dx) * float64(p.dy) * float64(p.dT) / (2 * math.Pi)
	for k, c := range counts {
		if c == 0 || expected == 0 {
			out[k] = float32(math.Inf(1))
			continue
		}
		out[k] = float32(-math.Log(float64(c) / expected))
	}
	return out
}

// AnglesFromQuaternions returns the angle in the xy plane of rotations
// about z, given as unit quaternions (w, x, y, z).
func AnglesFromQuaternions(q [][4]float32) []float32 {
	angles := make([]float32, len(q))
	for i, v := range q {
		angles[i] = float32(2 * math.Atan2(float64(v[3]), float64(v[0])))
	}
	return angles
}
