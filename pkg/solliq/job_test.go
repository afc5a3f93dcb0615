package solliq

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpotier/molorder/pkg/traj"
	"github.com/kpotier/molorder/pkg/util"
)

func TestJob(t *testing.T) {
	dir := t.TempDir()
	b, points := fcc(t, 3)

	in := filepath.Join(dir, "dump.lammpstrj")
	f, err := os.Create(in)
	require.NoError(t, err)
	for step := 0; step < 2; step++ {
		require.NoError(t, traj.WriteFrame(f, &traj.Frame{Timestep: int64(step * 100), Box: b, Positions: points}))
	}
	require.NoError(t, f.Close())

	tests := []struct {
		method string
		s      int
		want   string
	}{
		{"", 6, "108 1 108"},
		{MethodNoNorm, 6, "108 1 108"},
		{MethodShared, 3, "108 1 108"},
		{MethodShared, 4, "108 108 1"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.method, tt.s), func(t *testing.T) {
			out := filepath.Join(dir, "sol_liq.txt")
			path := filepath.Join(dir, "sol_liq.toml")
			require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`[sol_liq]
file_in = %q
file_out = %q
cfg_start = 0
cfg_end = 2
rmax = 0.8
q_threshold = 0.7
s_threshold = %d
l = 6
method = %q
dt = 0.01
`, in, out, tt.s, tt.method)), 0o644))

			j, err := NewJob(path)
			require.NoError(t, err)
			require.NoError(t, j.Start())

			b, err := os.ReadFile(out)
			require.NoError(t, err)
			lines := strings.Split(strings.TrimSpace(string(b)), "\n")
			assert.Equal(t, "cfg t solid clusters largest", lines[len(lines)-3])
			assert.Equal(t, "0 0 "+tt.want, lines[len(lines)-2])
			assert.Equal(t, "1 1 "+tt.want, lines[len(lines)-1])
		})
	}
}

func TestNewJobErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		toml string
	}{
		{"cfg", "[sol_liq]\ncfg_start = 1\ncfg_end = 1\nrmax = 0.8\nl = 6\n"},
		{"method", "[sol_liq]\ncfg_start = 0\ncfg_end = 1\nrmax = 0.8\nl = 6\nmethod = \"foo\"\n"},
		{"l", "[sol_liq]\ncfg_start = 0\ncfg_end = 1\nrmax = 0.8\nl = 3\n"},
		{"radius", "[sol_liq]\ncfg_start = 0\ncfg_end = 1\nrmax = 0.8\nl = 6\nclustering_radius = -1.0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.toml), 0o644))
			_, err := NewJob(path)
			require.ErrorIs(t, err, util.ErrInvalidConfiguration)
		})
	}
}
