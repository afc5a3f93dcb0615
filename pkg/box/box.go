// Package box contains the periodic geometry of simulation boxes. A box is
// centred on the origin, can be orthorhombic or triclinic, and two or three
// dimensional.
//
// The lattice vectors of a box are
//
//	a1 = (Lx, 0, 0)
//	a2 = (xy*Ly, Ly, 0)
//	a3 = (xz*Lz, yz*Lz, Lz)
//
// so that the tilt factors are dimensionless. A point with fractional
// coordinates f in [0, 1)^3 sits at a1*(fx-1/2) + a2*(fy-1/2) + a3*(fz-1/2).
package box

import (
	"fmt"
	"math"

	"github.com/kpotier/molorder/pkg/util"
)

// Box is an immutable periodic simulation box. The zero value is not a valid
// box; use New, NewCube or NewSquare.
type Box struct {
	l          Vec3
	xy, xz, yz float32
	is2D       bool
}

// New returns a box with lengths lx, ly, lz and tilt factors xy, xz, yz. If
// is2D is true, lz, xz and yz are ignored. A non-positive or NaN length
// returns an error wrapping util.ErrInvalidConfiguration.
func New(lx, ly, lz, xy, xz, yz float32, is2D bool) (Box, error) {
	if is2D {
		lz, xz, yz = 0, 0, 0
	}

	if !(lx > 0) || !(ly > 0) || (!is2D && !(lz > 0)) {
		return Box{}, fmt.Errorf("%w: box lengths must be positive (got %g, %g, %g)",
			util.ErrInvalidConfiguration, lx, ly, lz)
	}
	if xy != xy || xz != xz || yz != yz {
		return Box{}, fmt.Errorf("%w: box tilts must be numbers (got %g, %g, %g)",
			util.ErrInvalidConfiguration, xy, xz, yz)
	}

	return Box{l: Vec3{lx, ly, lz}, xy: xy, xz: xz, yz: yz, is2D: is2D}, nil
}

// NewCube returns a cubic box of side l.
func NewCube(l float32) (Box, error) {
	return New(l, l, l, 0, 0, 0, false)
}

// NewSquare returns a square 2D box of side l.
func NewSquare(l float32) (Box, error) {
	return New(l, l, 0, 0, 0, 0, true)
}

// L returns the box lengths. Lz is zero for 2D boxes.
func (b Box) L() Vec3 {
	return b.l
}

// Tilts returns the tilt factors xy, xz and yz.
func (b Box) Tilts() (xy, xz, yz float32) {
	return b.xy, b.xz, b.yz
}

// Is2D returns true if the box is two dimensional.
func (b Box) Is2D() bool {
	return b.is2D
}

// Dim returns the number of dimensions of the box (2 or 3).
func (b Box) Dim() int {
	if b.is2D {
		return 2
	}
	return 3
}

// Volume returns the volume of the box, or its area for a 2D box.
func (b Box) Volume() float32 {
	if b.is2D {
		return b.l[0] * b.l[1]
	}
	return b.l[0] * b.l[1] * b.l[2]
}

// NearestPlaneDistance returns, for each axis, the distance between the two
// opposite faces of the box. It equals the lengths for an orthorhombic box
// and is smaller when the box is tilted. The z component is zero for 2D
// boxes.
func (b Box) NearestPlaneDistance() Vec3 {
	xy, xz, yz := float64(b.xy), float64(b.xz), float64(b.yz)
	d := Vec3{
		b.l[0] / float32(math.Sqrt(1+xy*xy+(xy*yz-xz)*(xy*yz-xz))),
		b.l[1] / float32(math.Sqrt(1+yz*yz)),
		b.l[2],
	}
	if b.is2D {
		d[0] = b.l[0] / float32(math.Sqrt(1+xy*xy))
		d[2] = 0
	}
	return d
}

// toLattice converts a Cartesian vector into lattice units, i.e. the
// coefficients of v on the lattice vectors.
func (b Box) toLattice(v Vec3) Vec3 {
	var s Vec3
	if !b.is2D {
		s[2] = v[2] / b.l[2]
	}
	s[1] = (v[1] - b.yz*b.l[2]*s[2]) / b.l[1]
	s[0] = (v[0] - b.xy*b.l[1]*s[1] - b.xz*b.l[2]*s[2]) / b.l[0]
	return s
}

// fromLattice is the inverse of toLattice.
func (b Box) fromLattice(s Vec3) Vec3 {
	if b.is2D {
		s[2] = 0
	}
	return Vec3{
		b.l[0]*s[0] + b.xy*b.l[1]*s[1] + b.xz*b.l[2]*s[2],
		b.l[1]*s[1] + b.yz*b.l[2]*s[2],
		b.l[2] * s[2],
	}
}

// MakeFractional returns the fractional coordinates of an absolute position.
// Positions inside the box map to [0, 1) along each axis.
func (b Box) MakeFractional(v Vec3) Vec3 {
	if b.is2D {
		v[2] = 0
	}
	f := b.toLattice(v)
	f[0] += 0.5
	f[1] += 0.5
	if !b.is2D {
		f[2] += 0.5
	}
	return f
}

// MakeAbsolute is the inverse of MakeFractional.
func (b Box) MakeAbsolute(f Vec3) Vec3 {
	f[0] -= 0.5
	f[1] -= 0.5
	f[2] -= 0.5
	return b.fromLattice(f)
}

// Wrap applies the minimum image convention to a displacement. Each
// fractional component is brought back into [-0.5, 0.5). For 2D boxes the z
// component is zero on return.
func (b Box) Wrap(d Vec3) Vec3 {
	if b.is2D {
		d[2] = 0
	}
	s := b.toLattice(d)
	for k := 0; k < b.Dim(); k++ {
		s[k] -= float32(math.Floor(float64(s[k]) + 0.5))
	}
	return b.fromLattice(s)
}

// WrapPoint maps an absolute position back into the box.
func (b Box) WrapPoint(p Vec3) Vec3 {
	f := b.MakeFractional(p)
	for k := 0; k < b.Dim(); k++ {
		f[k] -= float32(math.Floor(float64(f[k])))
		// Rounding of values slightly below zero can give exactly 1.
		if f[k] >= 1 {
			f[k] = 0
		}
	}
	if b.is2D {
		f[2] = 0.5
	}
	return b.MakeAbsolute(f)
}

// DistanceSquared returns the squared minimum image distance between a and c.
func (b Box) DistanceSquared(a, c Vec3) float32 {
	return b.Wrap(c.Sub(a)).Norm2()
}

// String implements the fmt.Stringer interface.
func (b Box) String() string {
	return fmt.Sprintf("Box(Lx=%g, Ly=%g, Lz=%g, xy=%g, xz=%g, yz=%g, 2D=%t)",
		b.l[0], b.l[1], b.l[2], b.xy, b.xz, b.yz, b.is2D)
}
