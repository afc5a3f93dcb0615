package pmft

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpotier/molorder/pkg/box"
	"github.com/kpotier/molorder/pkg/traj"
	"github.com/kpotier/molorder/pkg/util"
)

func writeDump(t *testing.T, dir string) string {
	t.Helper()
	b, _ := box.NewSquare(16)
	s := float32(math.Sin(0.15))
	c := float32(math.Cos(0.15))

	path := filepath.Join(dir, "dump.lammpstrj")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, traj.WriteFrame(f, &traj.Frame{
		Box:       b,
		Positions: []box.Vec3{{0, 0, 0}, {1, 1, 0}},
		Extra: map[string][]float32{
			"angle": {0, 0.3},
			"qw":    {1, c},
			"qx":    {0, 0},
			"qy":    {0, 0},
			"qz":    {0, s},
		},
	}))
	return path
}

func TestJob(t *testing.T) {
	dir := t.TempDir()
	in := writeDump(t, dir)

	for _, orientation := range []string{`angle = "angle"`, `quaternion = ["qw", "qx", "qy", "qz"]`} {
		t.Run(orientation, func(t *testing.T) {
			out := filepath.Join(dir, "pmft.txt")
			path := filepath.Join(dir, "pmft.toml")
			require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`[pmft_xyt]
file_in = %q
file_out = %q
cfg_start = 0
cfg_end = 1
%s
max_x = 3.0
max_y = 3.0
dx = 0.5
dy = 0.5
dt = %v
`, in, out, orientation, math.Pi/4)), 0o644))

			j, err := NewJob(path)
			require.NoError(t, err)
			require.NoError(t, j.Start())
			assert.Equal(t, uint32(1), j.pmft.At(8, 8, 1))
			assert.Equal(t, uint32(1), j.pmft.At(3, 4, 1))

			b, err := os.ReadFile(out)
			require.NoError(t, err)
			var (
				rows  int
				total int
			)
			for _, line := range strings.Split(string(b), "\n") {
				if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "x ") {
					continue
				}
				var (
					x, y, T, pmft float64
					pcf           int
				)
				_, err := fmt.Sscan(line, &x, &y, &T, &pcf, &pmft)
				require.NoError(t, err)
				rows++
				total += pcf
			}
			assert.Equal(t, 12*12*8, rows)
			assert.Equal(t, 2, total)
		})
	}
}

func TestNewJobErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(body string) string {
		path := filepath.Join(dir, "job.toml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	_, err := NewJob(write("[pmft_xyt]\ncfg_start = 0\ncfg_end = 1\nmax_x = 3.0\nmax_y = 3.0\ndx = 0.5\ndy = 0.5\ndt = 0.5\n"))
	require.ErrorIs(t, err, util.ErrInvalidConfiguration)
	_, err = NewJob(write("[pmft_xyt]\ncfg_start = 0\ncfg_end = 1\nangle = \"a\"\nmax_x = 3.0\nmax_y = 3.0\ndx = 0.5\ndy = 0.5\n"))
	require.ErrorIs(t, err, util.ErrInvalidConfiguration)
}
