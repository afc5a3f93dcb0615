package traj

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpotier/molorder/pkg/box"
)

const orthorhombic = `ITEM: TIMESTEP
100
ITEM: NUMBER OF ATOMS
3
ITEM: BOX BOUNDS pp pp pp
0 10
0 10
0 10
ITEM: ATOMS id type x y z vx
7 1 1 2 9 0.5
3 2 5 5 5 -1
1 1 11 5 5 2
ITEM: TIMESTEP
200
ITEM: NUMBER OF ATOMS
1
ITEM: BOX BOUNDS pp pp pp
0 20
0 20
0 20
ITEM: ATOMS id type x y z vx
1 1 10 10 10 0
`

func TestNextOrthorhombic(t *testing.T) {
	r := NewReader(strings.NewReader(orthorhombic))
	defer r.Close()

	f, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(100), f.Timestep)
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, []int{7, 3, 1}, f.IDs)
	assert.Equal(t, []string{"1", "2", "1"}, f.Types)
	assert.InDeltaSlice(t, []float32{-4, -3, 4}, f.Positions[0][:], 1e-5)
	assert.InDeltaSlice(t, []float32{0, 0, 0}, f.Positions[1][:], 1e-5)
	// x = 11 is outside of the box and is wrapped.
	assert.InDeltaSlice(t, []float32{-4, 0, 0}, f.Positions[2][:], 1e-5)
	assert.Equal(t, []float32{0.5, -1, 2}, f.Extra["vx"])
	l := f.Box.L()
	assert.InDeltaSlice(t, []float32{10, 10, 10}, l[:], 1e-6)

	f, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(200), f.Timestep)
	assert.InDelta(t, 20, f.Box.L()[0], 1e-6)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNextTriclinic(t *testing.T) {
	const dump = `ITEM: TIMESTEP
0
ITEM: NUMBER OF ATOMS
2
ITEM: BOX BOUNDS xy xz yz pp pp pp
0 12 2
0 10 0
0 10 0
ITEM: ATOMS id type x y z
1 1 6 5 5
2 1 7 6 5
`
	f, err := NewReader(strings.NewReader(dump)).Next()
	require.NoError(t, err)

	l := f.Box.L()
	assert.InDeltaSlice(t, []float32{10, 10, 10}, l[:], 1e-5)
	xy, xz, yz := f.Box.Tilts()
	assert.InDelta(t, 0.2, xy, 1e-6)
	assert.Zero(t, xz)
	assert.Zero(t, yz)
	assert.InDeltaSlice(t, []float32{0, 0, 0}, f.Positions[0][:], 1e-5)
	assert.InDeltaSlice(t, []float32{1, 1, 0}, f.Positions[1][:], 1e-5)
}

func TestNextScaled(t *testing.T) {
	const dump = `ITEM: TIMESTEP
0
ITEM: NUMBER OF ATOMS
2
ITEM: BOX BOUNDS pp pp pp
-5 5
-5 5
-5 5
ITEM: ATOMS id type xs ys zs
1 1 0.5 0.5 0.5
2 1 0.75 0.5 0.25
`
	f, err := NewReader(strings.NewReader(dump)).Next()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0, 0, 0}, f.Positions[0][:], 1e-5)
	assert.InDeltaSlice(t, []float32{2.5, 0, -2.5}, f.Positions[1][:], 1e-5)
}

func TestNext2D(t *testing.T) {
	const dump = `ITEM: TIMESTEP
0
ITEM: NUMBER OF ATOMS
1
ITEM: BOX BOUNDS pp pp pp
0 10
0 10
-0.5 0.5
ITEM: ATOMS id type x y z
1 1 2 3 0
`
	f, err := NewReader(strings.NewReader(dump), With2D()).Next()
	require.NoError(t, err)
	assert.True(t, f.Box.Is2D())
	assert.InDeltaSlice(t, []float32{-3, -2, 0}, f.Positions[0][:], 1e-5)
}

func TestSkip(t *testing.T) {
	r := NewReader(strings.NewReader(orthorhombic))
	require.NoError(t, r.Skip(1))

	f, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(200), f.Timestep)

	r = NewReader(strings.NewReader(orthorhombic))
	assert.ErrorIs(t, r.Skip(3), io.EOF)
}

func TestMalformed(t *testing.T) {
	tests := []struct {
		name string
		dump string
	}{
		{"truncated", orthorhombic[:strings.Index(orthorhombic, "3 2 5")]},
		{"no item", "100\n"},
		{"unknown item", "ITEM: FOO\n1\n"},
		{"timestep", "ITEM: TIMESTEP\nabc\n"},
		{"columns", strings.Replace(orthorhombic, "3 2 5 5 5 -1", "3 2 5 5", 1)},
		{"positions", strings.Replace(orthorhombic, "x y z", "a b c", 1)},
		{"box", strings.Replace(orthorhombic, "0 10\n0 10\n0 10", "0 10\n0\n0 10", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tt.dump)).Next()
			require.ErrorIs(t, err, ErrFormat)
		})
	}

	_, err := NewReader(strings.NewReader(tests[0].dump)).Next()
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestFrameSelect(t *testing.T) {
	f, err := NewReader(strings.NewReader(orthorhombic)).Next()
	require.NoError(t, err)

	idx := f.Select("1")
	assert.Equal(t, []int{0, 2}, idx)
	assert.Equal(t, []int{0, 1, 2}, f.Select())
	assert.Empty(t, f.Select("3"))

	pos := f.PositionsOf(idx)
	assert.Equal(t, f.Positions[2], pos[1])

	vx, err := f.Column("vx", idx)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 2}, vx)

	_, err = f.Column("vy", idx)
	assert.Error(t, err)
}

func TestOpenCompressed(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "dump.lammpstrj")
	require.NoError(t, os.WriteFile(plain, []byte(orthorhombic), 0o644))

	zst := filepath.Join(dir, "dump.lammpstrj.zst")
	fz, err := os.Create(zst)
	require.NoError(t, err)
	enc, err := zstd.NewWriter(fz)
	require.NoError(t, err)
	_, err = enc.Write([]byte(orthorhombic))
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NoError(t, fz.Close())

	lz := filepath.Join(dir, "dump.lammpstrj.lz4")
	fl, err := os.Create(lz)
	require.NoError(t, err)
	w := lz4.NewWriter(fl)
	_, err = w.Write([]byte(orthorhombic))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, fl.Close())

	for _, path := range []string{plain, zst, lz} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			r, err := Open(path)
			require.NoError(t, err)
			defer r.Close()

			var steps []int64
			for {
				f, err := r.Next()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				steps = append(steps, f.Timestep)
			}
			assert.Equal(t, []int64{100, 200}, steps)
		})
	}

	_, err = Open(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestWalk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.lammpstrj")
	require.NoError(t, os.WriteFile(path, []byte(orthorhombic), 0o644))

	var cfgs []int
	var steps []int64
	err := Walk(path, 1, 2, func(cfg int, f *Frame) error {
		cfgs = append(cfgs, cfg)
		steps = append(steps, f.Timestep)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, cfgs)
	assert.Equal(t, []int64{200}, steps)

	err = Walk(path, 0, 3, func(int, *Frame) error { return nil })
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	failure := errors.New("failure")
	err = Walk(path, 0, 2, func(int, *Frame) error { return failure })
	assert.ErrorIs(t, err, failure)

	assert.Error(t, Walk(path, 2, 2, func(int, *Frame) error { return nil }))
}

func TestWriteFrame(t *testing.T) {
	b, err := box.New(10, 12, 9, 0.2, -0.1, 0.3, false)
	require.NoError(t, err)
	in := &Frame{
		Timestep:  42,
		Box:       b,
		IDs:       []int{4, 8},
		Types:     []string{"O", "H"},
		Positions: []box.Vec3{{1, -2, 3}, {-2.5, 4, -3.25}},
		Extra:     map[string][]float32{"q": {-0.8, 0.4}, "angle": {0.1, 1.2}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, in))

	out, err := NewReader(&buf).Next()
	require.NoError(t, err)
	assert.Equal(t, in.Timestep, out.Timestep)
	assert.Equal(t, in.IDs, out.IDs)
	assert.Equal(t, in.Types, out.Types)
	assert.Equal(t, in.Extra, out.Extra)
	want, got := b.L(), out.Box.L()
	assert.InDeltaSlice(t, want[:], got[:], 1e-5)
	xy, xz, yz := out.Box.Tilts()
	assert.InDeltaSlice(t, []float32{0.2, -0.1, 0.3}, []float32{xy, xz, yz}, 1e-5)
	for i := range in.Positions {
		assert.InDeltaSlice(t, in.Positions[i][:], out.Positions[i][:], 1e-4)
	}

	square, _ := box.NewSquare(8)
	buf.Reset()
	require.NoError(t, WriteFrame(&buf, &Frame{Box: square, Positions: []box.Vec3{{1, 2, 0}}}))
	out, err = NewReader(&buf, With2D()).Next()
	require.NoError(t, err)
	assert.True(t, out.Box.Is2D())
	assert.Equal(t, []string{"1"}, out.Types)
	assert.InDeltaSlice(t, []float32{1, 2, 0}, out.Positions[0][:], 1e-5)
}
