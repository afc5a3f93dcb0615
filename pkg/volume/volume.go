// Package volume follows the size of the simulation box over time, along
// with the number density of a group of atoms.
package volume

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"

	"github.com/kpotier/molorder/pkg/traj"
	"github.com/kpotier/molorder/pkg/util"
)

// Type is the type of calculation.
var Type = "volume"

// Volume is a structure containing the parameters that can be parsed from
// a TOML configuration file. This structure can be instanced through the New
// method. The density is the number of atoms of types Atoms (every atom if
// empty) divided by the volume, or by the area of 2D boxes.
type Volume struct {
	FileIn  string `toml:"volume.file_in"`
	FileOut string `toml:"volume.file_out"`

	CfgStart   int `toml:"volume.cfg_start"`
	CfgEnd     int `toml:"volume.cfg_end"`
	CfgSpacing int `toml:"volume.cfg_spacing"`

	Atoms []string `toml:"volume.atoms"`
	Is2D  bool     `toml:"volume.is_2d"`

	Dt float64 `toml:"volume.dt"`
}

// New returns an instance of the Volume structure. It reads and parses
// the configuration file given in argument. The file must be a TOML file.
func New(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var volume Volume
	dec := toml.NewDecoder(f)
	err = dec.Decode(&volume)
	if err != nil {
		return nil, err
	}

	if volume.CfgStart >= volume.CfgEnd {
		return nil, fmt.Errorf("%w: CfgStart is greater or equal than CfgEnd", util.ErrInvalidConfiguration)
	}
	if volume.CfgSpacing < 0 {
		return nil, fmt.Errorf("%w: CfgSpacing is negative", util.ErrInvalidConfiguration)
	}

	return &volume, nil
}

// Start performs the calculation. It is a thread blocking method. Only one
// configuration every CfgSpacing+1 is written.
func (v *Volume) Start() error {
	out, err := util.Write(v.FileOut, v)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()
	out.WriteString("cfg t vol lx ly lz xy xz yz density\n")

	var opts []traj.Option
	if v.Is2D {
		opts = append(opts, traj.With2D())
	}

	err = traj.Walk(v.FileIn, v.CfgStart, v.CfgEnd, func(cfg int, f *traj.Frame) error {
		if (cfg-v.CfgStart)%(v.CfgSpacing+1) != 0 {
			return nil
		}

		vol := f.Box.Volume()
		l := f.Box.L()
		xy, xz, yz := f.Box.Tilts()
		density := float32(len(f.Select(v.Atoms...))) / vol
		fmt.Fprintf(out, "%d %g %g %g %g %g %g %g %g %g\n",
			cfg, float64(f.Timestep)*v.Dt, vol, l[0], l[1], l[2], xy, xz, yz, density)
		return nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("Walk: %w", err)
	}
	return nil
}
