package rdf

import (
	"fmt"
	"os"
	"slices"

	"github.com/pelletier/go-toml"

	"github.com/kpotier/molorder/pkg/traj"
	"github.com/kpotier/molorder/pkg/util"
)

// Type is the type of calculation.
var Type = "rdf"

// Job is a structure containing the parameters that can be parsed from a
// TOML configuration file. It averages the RDF between the atoms of types
// Refs and the atoms of types Points over the configurations CfgStart to
// CfgEnd (excluded) of FileIn. An empty list selects every atom.
type Job struct {
	FileIn  string `toml:"rdf.file_in"`
	FileOut string `toml:"rdf.file_out"`

	CfgStart int `toml:"rdf.cfg_start"`
	CfgEnd   int `toml:"rdf.cfg_end"`

	Refs   []string `toml:"rdf.refs"`
	Points []string `toml:"rdf.points"`

	RMax float64 `toml:"rdf.rmax"`
	Dr   float64 `toml:"rdf.dr"`
	Is2D bool    `toml:"rdf.is_2d"`

	rdf *RDF
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

	j.rdf, err = New(float32(j.RMax), float32(j.Dr))
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// Start performs the calculation. It is a thread blocking method.
func (j *Job) Start() error {
	var opts []traj.Option
	if j.Is2D {
		opts = append(opts, traj.With2D())
	}

	err := traj.Walk(j.FileIn, j.CfgStart, j.CfgEnd, func(cfg int, f *traj.Frame) error {
		refs := f.Select(j.Refs...)
		points := f.Select(j.Points...)
		if slices.Equal(refs, points) {
			return j.rdf.Accumulate(f.Box, f.PositionsOf(refs), f.PositionsOf(points), true)
		}
		// An atom selected by both lists is not its own neighbor.
		return j.rdf.AccumulateExcluding(f.Box, f.PositionsOf(refs), f.PositionsOf(points),
			func(i, k int) bool { return refs[i] == points[k] })
	}, opts...)
	if err != nil {
		return fmt.Errorf("Walk: %w", err)
	}

	out, err := util.Write(j.FileOut, j)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()

	fmt.Fprintln(out, "r g(r) n(r)")
	r, g, n := j.rdf.R(), j.rdf.RDF(), j.rdf.NR()
	for i := range r {
		fmt.Fprintf(out, "%g %g %g\n", r[i], g[i], n[i])
	}
	return nil
}
