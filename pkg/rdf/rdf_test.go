package rdf

import (
	"math"
	"math/rand"
	"testing"

	"github.com/kpotier/molorder/pkg/box"
	"github.com/kpotier/molorder/pkg/parallel"
	"github.com/kpotier/molorder/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r, err := New(5, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 50, r.Bins())
	assert.InDelta(t, 0.05, r.R()[0], 1e-6)
	assert.InDelta(t, 4.95, r.R()[49], 1e-4)

	_, err = New(1, 0.6)
	require.ErrorIs(t, err, util.ErrInvalidConfiguration)
	_, err = New(1, 0)
	require.ErrorIs(t, err, util.ErrInvalidConfiguration)
	_, err = New(float32(math.NaN()), 0.1)
	require.ErrorIs(t, err, util.ErrInvalidConfiguration)
}

func TestPair(t *testing.T) {
	b, err := box.NewCube(10)
	require.NoError(t, err)
	points := []box.Vec3{{0, 0, 0}, {1.05, 0, 0}}

	r, err := New(2, 0.1)
	require.NoError(t, err)
	require.NoError(t, r.Compute(b, points, points, true))

	counts := r.Counts()
	assert.Equal(t, uint32(2), counts[10])

	nr := r.NR()
	assert.Zero(t, nr[9])
	assert.InDelta(t, 1, nr[10], 1e-6)
	assert.InDelta(t, 1, nr[19], 1e-6)

	shell := 4. / 3. * math.Pi * (math.Pow(1.1, 3) - 1)
	assert.InDelta(t, 2/(shell*4/1000.), r.RDF()[10], 1e-2)
}

func TestIdealGas(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	b, _ := box.NewCube(10)

	r, err := New(3, 0.25)
	require.NoError(t, err)
	for frame := 0; frame < 5; frame++ {
		points := make([]box.Vec3, 1000)
		for i := range points {
			points[i] = b.MakeAbsolute(box.Vec3{rng.Float32(), rng.Float32(), rng.Float32()})
		}
		require.NoError(t, r.Accumulate(b, points, points, true))
	}

	assert.Equal(t, 5, r.Frames())
	g := r.RDF()
	for i := 4; i < r.Bins(); i++ {
		assert.InDelta(t, 1, g[i], 0.1, "bin %d", i)
	}
}

func TestIdealGas2D(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	b, _ := box.NewSquare(20)
	points := make([]box.Vec3, 2000)
	for i := range points {
		points[i] = b.MakeAbsolute(box.Vec3{rng.Float32(), rng.Float32(), 0})
	}

	r, err := New(4, 0.5)
	require.NoError(t, err)
	require.NoError(t, r.Compute(b, points, points, true))

	g := r.RDF()
	for i := 2; i < r.Bins(); i++ {
		assert.InDelta(t, 1, g[i], 0.15, "bin %d", i)
	}
}

func TestResetAccumulateMatchesCompute(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	b, _ := box.NewCube(8)
	frame := func() []box.Vec3 {
		points := make([]box.Vec3, 300)
		for i := range points {
			points[i] = b.MakeAbsolute(box.Vec3{rng.Float32(), rng.Float32(), rng.Float32()})
		}
		return points
	}
	first, second := frame(), frame()

	reused, _ := New(2.5, 0.1)
	require.NoError(t, reused.Accumulate(b, first, first, true))
	reused.Reset()
	require.NoError(t, reused.Accumulate(b, second, second, true))

	fresh, _ := New(2.5, 0.1)
	require.NoError(t, fresh.Compute(b, second, second, true))

	assert.Equal(t, fresh.Counts(), reused.Counts())
	assert.Equal(t, fresh.RDF(), reused.RDF())
	assert.Equal(t, fresh.NR(), reused.NR())
}

func TestWorkerInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	b, _ := box.NewCube(8)
	points := make([]box.Vec3, 500)
	for i := range points {
		points[i] = b.MakeAbsolute(box.Vec3{rng.Float32(), rng.Float32(), rng.Float32()})
	}

	var reference []uint32
	for _, workers := range []int{1, 2, 8} {
		restore := parallel.SetNumWorkers(workers)
		r, _ := New(2, 0.05)
		err := r.Compute(b, points, points, true)
		restore()
		require.NoError(t, err)

		if reference == nil {
			reference = r.Counts()
			continue
		}
		assert.Equal(t, reference, r.Counts(), "%d workers", workers)
	}
}

func TestEmpty(t *testing.T) {
	r, _ := New(2, 0.5)
	assert.Equal(t, []float32{0, 0, 0, 0}, r.RDF())
	assert.Equal(t, []float32{0, 0, 0, 0}, r.NR())
}
