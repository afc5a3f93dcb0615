// Package order computes per-particle complex order parameters from the
// bonds of each particle. Every order parameter is an Engine with its own
// bond kernel.
package order

import (
	"fmt"

	"github.com/kpotier/molorder/pkg/box"
	"github.com/kpotier/molorder/pkg/neighbor"
	"github.com/kpotier/molorder/pkg/parallel"
	"github.com/kpotier/molorder/pkg/util"
)

// Kernel returns the contribution of a bond. delta is the minimum image of
// the bond, from the reference particle to its neighbor.
type Kernel func(delta box.Vec3) complex64

// Engine sums a Kernel over the bonds of each particle and divides the sum by
// a normalisation constant.
type Engine struct {
	kernel Kernel
	norm   complex64

	box box.Box
	np  int
	psi []complex64
}

// NewEngine returns an Engine. The sum over the bonds of each particle is
// divided by norm.
func NewEngine(kernel Kernel, norm float32) *Engine {
	return &Engine{kernel: kernel, norm: complex(norm, 0)}
}

// Compute computes the order parameter of every point. The bonds come from
// nlist if it is not nil, and from a query with args otherwise. Nothing is
// modified if an error is returned.
func (e *Engine) Compute(b box.Box, points []box.Vec3, args neighbor.Args, nlist neighbor.Source) error {
	if nlist == nil {
		it, err := neighbor.NewQuery(b, points).Query(points, args)
		if err != nil {
			return fmt.Errorf("Query: %w", err)
		}
		nlist = it
	} else if nlist.NumRefs() != len(points) || nlist.NumPoints() != len(points) {
		return fmt.Errorf("%w: neighbor list over %d references and %d points (expected %d)",
			util.ErrShapeMismatch, nlist.NumRefs(), nlist.NumPoints(), len(points))
	}

	np := len(points)
	if np != e.np {
		e.psi = make([]complex64, np)
	}

	// Every worker writes to the particles of its own range.
	_ = parallel.ForEach(np, 0, func(begin, end int) error {
		for i := begin; i < end; i++ {
			var sum complex64
			for bond := range nlist.Point(i) {
				sum += e.kernel(b.Wrap(points[bond.J].Sub(points[i])))
			}
			e.psi[i] = sum / e.norm
		}
		return nil
	})

	e.box = b
	e.np = np
	return nil
}

// Psi returns the order parameter of every point of the last call to
// Compute. The slice is owned by the Engine and is overwritten by the next
// call.
func (e *Engine) Psi() []complex64 {
	return e.psi
}

// NumPoints returns the number of points of the last call to Compute.
func (e *Engine) NumPoints() int {
	return e.np
}

// Box returns the box of the last call to Compute.
func (e *Engine) Box() box.Box {
	return e.box
}
