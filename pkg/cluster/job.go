package cluster

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml"

	"github.com/kpotier/molorder/pkg/traj"
	"github.com/kpotier/molorder/pkg/util"
)

// Type is the type of calculation.
var Type = "cluster"

// Job is a structure containing the parameters that can be parsed from a
// TOML configuration file. The atoms of types Atoms closer than RCut are
// clustered. For each configuration, it writes the number of clusters and
// the size, centre of mass and radius of gyration of the largest one. If
// FileMembers isn't empty, the ids of the atoms of the largest cluster are
// written in it.
//
// Masses are given by atom type. Every atom has a unit mass if Masses is
// empty.
type Job struct {
	FileIn      string `toml:"cluster.file_in"`
	FileOut     string `toml:"cluster.file_out"`
	FileMembers string `toml:"cluster.file_members"`

	CfgStart int `toml:"cluster.cfg_start"`
	CfgEnd   int `toml:"cluster.cfg_end"`

	Atoms  []string           `toml:"cluster.atoms"`
	Masses map[string]float64 `toml:"cluster.masses"`

	RCut float64 `toml:"cluster.rcut"`
	Is2D bool    `toml:"cluster.is_2d"`

	Dt float64 `toml:"cluster.dt"`
}

// NewJob returns an instance of the Job structure. It reads and parses the
// configuration file given in argument. The file must be a TOML file.
func NewJob(path string) (*Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var j Job
	dec := toml.NewDecoder(f)
	err = dec.Decode(&j)
	if err != nil {
		return nil, err
	}

	if j.CfgStart >= j.CfgEnd {
		return nil, fmt.Errorf("%w: CfgStart is greater or equal than CfgEnd", util.ErrInvalidConfiguration)
	}
	if !(j.RCut > 0) {
		return nil, fmt.Errorf("%w: rcut must be positive (got %g)", util.ErrInvalidConfiguration, j.RCut)
	}
	return &j, nil
}

// Start performs the calculation. It is a thread blocking method.
func (j *Job) Start() error {
	out, err := util.Write(j.FileOut, j)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()
	fmt.Fprintln(out, "cfg t clusters largest x y z radius")

	var members io.Writer = io.Discard
	if j.FileMembers != "" {
		f, err := os.Create(j.FileMembers)
		if err != nil {
			return err
		}
		defer f.Close()
		members = f
	}

	var opts []traj.Option
	if j.Is2D {
		opts = append(opts, traj.With2D())
	}

	var c Cluster
	err = traj.Walk(j.FileIn, j.CfgStart, j.CfgEnd, func(cfg int, f *traj.Frame) error {
		idx := f.Select(j.Atoms...)
		points := f.PositionsOf(idx)

		masses, err := j.masses(f, idx)
		if err != nil {
			return err
		}

		err = c.Compute(f.Box, points, float32(j.RCut))
		if err != nil {
			return err
		}
		stats, err := c.WeightedProperties(f.Box, points, masses)
		if err != nil {
			return err
		}

		largest := -1
		for id, s := range stats {
			if largest < 0 || s.Size > stats[largest].Size {
				largest = id
			}
		}

		t := float64(f.Timestep) * j.Dt
		if largest < 0 {
			fmt.Fprintf(out, "%d %g 0 0 0 0 0 0\n", cfg, t)
			return nil
		}

		s := stats[largest]
		fmt.Fprintf(out, "%d %g %d %d %g %g %g %g\n", cfg, t, len(stats), s.Size,
			s.Center[0], s.Center[1], s.Center[2], s.Gyration)

		fmt.Fprintf(members, "%d", cfg)
		for _, i := range c.Labels().Members()[largest].ToArray() {
			fmt.Fprintf(members, " %d", f.IDs[idx[i]])
		}
		fmt.Fprintln(members)
		return nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("Walk: %w", err)
	}
	return nil
}

// masses returns the mass of the atoms idx, or nil if Masses is empty.
func (j *Job) masses(f *traj.Frame, idx []int) ([]float32, error) {
	if len(j.Masses) == 0 {
		return nil, nil
	}

	m := make([]float32, len(idx))
	for k, i := range idx {
		mass, ok := j.Masses[f.Types[i]]
		if !ok {
			return nil, fmt.Errorf("mass for atom type `%s` doesn't exist", f.Types[i])
		}
		m[k] = float32(mass)
	}
	return m, nil
}
