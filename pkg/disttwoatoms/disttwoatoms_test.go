package disttwoatoms

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

func TestStart(t *testing.T) {
	dir := t.TempDir()
	b, _ := box.NewCube(10)

	in := filepath.Join(dir, "dump.lammpstrj")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, traj.WriteFrame(f, &traj.Frame{
		Timestep:  4,
		Box:       b,
		IDs:       []int{12, 5, 7},
		Positions: []box.Vec3{{4, 0, 0}, {0, 0, 0}, {-4, 0, 0}},
	}))
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "dist.txt")
	path := filepath.Join(dir, "dist.toml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`[dist_two_atoms]
file_in = %q
file_out = %q
cfg_start = 0
cfg_end = 1
atom_1 = 12
atom_2 = 7
dt = 0.5
`, in, out)), 0o644))

	d, err := New(path)
	require.NoError(t, err)
	require.NoError(t, d.Start())

	b2, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b2)), "\n")
	assert.Equal(t, "cfg t x y z dist", lines[len(lines)-2])

	var (
		cfg             int
		tm, x, y, z, dd float64
	)
	_, err = fmt.Sscan(lines[len(lines)-1], &cfg, &tm, &x, &y, &z, &dd)
	require.NoError(t, err)
	assert.InDelta(t, 2, tm, 1e-9)
	// The minimum image crosses the boundary.
	assert.InDelta(t, 2, x, 1e-5)
	assert.InDelta(t, 2, dd, 1e-5)

	d.Atom2 = 99
	assert.Error(t, d.Start())
}

func TestNewErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dist.toml")
	require.NoError(t, os.WriteFile(path, []byte("[dist_two_atoms]\ncfg_start = 0\ncfg_end = 1\natom_1 = 3\natom_2 = 3\n"), 0o644))
	_, err := New(path)
	require.ErrorIs(t, err, util.ErrInvalidConfiguration)
}
