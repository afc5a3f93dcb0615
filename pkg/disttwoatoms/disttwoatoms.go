// Package disttwoatoms calculates the distance between two atoms over time.
package disttwoatoms

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/pelletier/go-toml"

	"github.com/kpotier/molorder/pkg/box"
	"github.com/kpotier/molorder/pkg/traj"
	"github.com/kpotier/molorder/pkg/util"
)

// Type is name of the calculation.
var Type = "dist_two_atoms"

// DistTwoAtoms is a structure containing the parameters that can be parsed from
// a TOML configuration file. This structure can be instanced through the New
// method. Atom1 and Atom2 are the ids of the atoms. The distance is the
// minimum image distance.
type DistTwoAtoms struct {
	FileIn  string `toml:"dist_two_atoms.file_in"`
	FileOut string `toml:"dist_two_atoms.file_out"`

	CfgStart int `toml:"dist_two_atoms.cfg_start"`
	CfgEnd   int `toml:"dist_two_atoms.cfg_end"`

	Atom1 int  `toml:"dist_two_atoms.atom_1"`
	Atom2 int  `toml:"dist_two_atoms.atom_2"`
	Is2D  bool `toml:"dist_two_atoms.is_2d"`

	Dt float64 `toml:"dist_two_atoms.dt"`
}

// New returns an instance of the DistTwoAtoms structure. It reads and parses
// the configuration file given in argument. The file must be a TOML file.
func New(path string) (*DistTwoAtoms, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var distTwoAtoms DistTwoAtoms
	dec := toml.NewDecoder(f)
	err = dec.Decode(&distTwoAtoms)
	if err != nil {
		return nil, err
	}

	if distTwoAtoms.CfgStart >= distTwoAtoms.CfgEnd {
		return nil, fmt.Errorf("%w: CfgStart is greater or equal than CfgEnd", util.ErrInvalidConfiguration)
	}

	if distTwoAtoms.Atom1 == distTwoAtoms.Atom2 {
		return nil, fmt.Errorf("%w: Atom1 is equal to Atom2", util.ErrInvalidConfiguration)
	}

	return &distTwoAtoms, nil
}

// Start performs the calculation. It is a thread blocking method. It is a very
// fast calculation. This calculation only use one thread.
func (d *DistTwoAtoms) Start() error {
	out, err := util.Write(d.FileOut, d)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()
	out.WriteString("cfg t x y z dist\n")

	var opts []traj.Option
	if d.Is2D {
		opts = append(opts, traj.With2D())
	}

	err = traj.Walk(d.FileIn, d.CfgStart, d.CfgEnd, func(cfg int, f *traj.Frame) error {
		i := slices.Index(f.IDs, d.Atom1)
		j := slices.Index(f.IDs, d.Atom2)
		if i < 0 || j < 0 {
			return fmt.Errorf("atoms %d and %d not found", d.Atom1, d.Atom2)
		}
		d.result(out, cfg, f, f.Positions[i], f.Positions[j])
		return nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("Walk: %w", err)
	}
	return nil
}

// result calculates the vector from the first atom to the second one and
// writes it into a file.
func (d *DistTwoAtoms) result(w io.Writer, cfg int, f *traj.Frame, xyz1, xyz2 box.Vec3) {
	vec := f.Box.Wrap(xyz2.Sub(xyz1))
	fmt.Fprintf(w, "%d %g %g %g %g %g\n",
		cfg, float64(f.Timestep)*d.Dt, vec[0], vec[1], vec[2], vec.Norm())
}
