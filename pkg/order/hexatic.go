package order

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/kpotier/molorder/pkg/box"
	"github.com/kpotier/molorder/pkg/util"
)

// NewHexatic returns the k-atic order parameter
// psi_k(i) = 1/k sum_j exp(i k theta_ij), where theta_ij is the angle of the
// bond in the xy plane. It is usually computed over the k nearest neighbors.
// k must be positive.
func NewHexatic(k int) (*Engine, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive (got %d)", util.ErrInvalidConfiguration, k)
	}
	fk := float64(k)
	return NewEngine(func(delta box.Vec3) complex64 {
		theta := math.Atan2(float64(delta[1]), float64(delta[0]))
		return complex64(cmplx.Exp(complex(0, fk*theta)))
	}, float32(k)), nil
}

// NewTranslational returns the translational order parameter
// 1/k sum_j (dx + i dy). Bonds shorter than 1e-3 are ignored.
func NewTranslational(k float32) (*Engine, error) {
	if !(k > 0) {
		return nil, fmt.Errorf("%w: k must be positive (got %g)", util.ErrInvalidConfiguration, k)
	}
	return NewEngine(func(delta box.Vec3) complex64 {
		if delta.Norm2() <= 1e-6 {
			return 0
		}
		return complex(delta[0], delta[1])
	}, k), nil
}
