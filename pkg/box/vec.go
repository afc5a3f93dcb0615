package box

import "math"

// Vec3 is a single precision 3-vector. 2D computations leave the z component
// at zero.
type Vec3 [3]float32

// Add returns v + u.
func (v Vec3) Add(u Vec3) Vec3 {
	return Vec3{v[0] + u[0], v[1] + u[1], v[2] + u[2]}
}

// Sub returns v - u.
func (v Vec3) Sub(u Vec3) Vec3 {
	return Vec3{v[0] - u[0], v[1] - u[1], v[2] - u[2]}
}

// Scale returns s * v.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Dot returns the dot product of v and u.
func (v Vec3) Dot(u Vec3) float32 {
	return v[0]*u[0] + v[1]*u[1] + v[2]*u[2]
}

// Norm2 returns the squared norm of v.
func (v Vec3) Norm2() float32 {
	return v.Dot(v)
}

// Norm returns the norm of v.
func (v Vec3) Norm() float32 {
	return float32(math.Sqrt(float64(v.Norm2())))
}
