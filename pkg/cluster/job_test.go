package cluster

import (
	"fmt"
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

func writeJob(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "cluster.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// dataLines returns the lines of an output file that aren't comments.
func dataLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var lines []string
	for _, line := range strings.Split(string(b), "\n") {
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestJob(t *testing.T) {
	dir := t.TempDir()
	b, _ := box.NewCube(10)

	in := filepath.Join(dir, "dump.lammpstrj")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, traj.WriteFrame(f, &traj.Frame{
		Timestep:  10,
		Box:       b,
		Types:     []string{"C", "C", "C", "W", "C"},
		Positions: []box.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {2.5, 0, 0}, {-4, -4, -4}},
	}))
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "cluster.txt")
	members := filepath.Join(dir, "members.txt")
	path := writeJob(t, dir, fmt.Sprintf(`[cluster]
file_in = %q
file_out = %q
file_members = %q
cfg_start = 0
cfg_end = 1
atoms = ["C"]
rcut = 1.5
dt = 0.5
`, in, out, members))

	j, err := NewJob(path)
	require.NoError(t, err)
	require.NoError(t, j.Start())

	lines := dataLines(t, out)
	require.Len(t, lines, 2)
	assert.Equal(t, "cfg t clusters largest x y z radius", lines[0])

	var (
		cfg, clusters, largest int
		tm, x, y, z, rg        float64
	)
	_, err = fmt.Sscan(lines[1], &cfg, &tm, &clusters, &largest, &x, &y, &z, &rg)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg)
	assert.InDelta(t, 5, tm, 1e-9)
	assert.Equal(t, 2, clusters)
	assert.Equal(t, 3, largest)
	assert.InDelta(t, 1, x, 1e-5)
	assert.InDelta(t, 0, y, 1e-5)
	assert.InDelta(t, 0.8164966, rg, 1e-5)

	assert.Equal(t, []string{"0 1 2 3"}, dataLines(t, members))
}

func TestJobMasses(t *testing.T) {
	dir := t.TempDir()
	b, _ := box.NewCube(10)

	in := filepath.Join(dir, "dump.lammpstrj")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, traj.WriteFrame(f, &traj.Frame{
		Box:       b,
		Types:     []string{"O", "H"},
		Positions: []box.Vec3{{0, 0, 0}, {1, 0, 0}},
	}))
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "cluster.txt")
	path := writeJob(t, dir, fmt.Sprintf(`[cluster]
file_in = %q
file_out = %q
cfg_start = 0
cfg_end = 1
rcut = 1.5
[cluster.masses]
O = 3.0
H = 1.0
`, in, out))

	j, err := NewJob(path)
	require.NoError(t, err)
	require.NoError(t, j.Start())

	lines := dataLines(t, out)
	require.Len(t, lines, 2)
	var (
		cfg, clusters, largest int
		tm, x, y, z, rg        float64
	)
	_, err = fmt.Sscan(lines[1], &cfg, &tm, &clusters, &largest, &x, &y, &z, &rg)
	require.NoError(t, err)
	assert.Equal(t, 1, clusters)
	assert.InDelta(t, 0.25, x, 1e-5)
	assert.InDelta(t, 0.4330127, rg, 1e-5)

	delete(j.Masses, "H")
	assert.Error(t, j.Start())
}

func TestNewJobErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewJob(writeJob(t, dir, "[cluster]\ncfg_start = 1\ncfg_end = 0\nrcut = 1.0\n"))
	require.ErrorIs(t, err, util.ErrInvalidConfiguration)

	_, err = NewJob(writeJob(t, dir, "[cluster]\ncfg_start = 0\ncfg_end = 1\n"))
	require.ErrorIs(t, err, util.ErrInvalidConfiguration)
}
