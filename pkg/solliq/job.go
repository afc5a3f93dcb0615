package solliq

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"

	"github.com/kpotier/molorder/pkg/traj"
	"github.com/kpotier/molorder/pkg/util"
)

// Type is the type of calculation.
var Type = "sol_liq"

// Methods of clustering.
const (
	MethodNormalized = "normalized"
	MethodNoNorm     = "no_norm"
	MethodShared     = "shared"
)

// Job is a structure containing the parameters that can be parsed from a
// TOML configuration file. For each configuration it writes the number of
// solid-like atoms, the number of clusters and the size of the largest one.
// Method is one of normalized (default), no_norm and shared.
type Job struct {
	FileIn  string `toml:"sol_liq.file_in"`
	FileOut string `toml:"sol_liq.file_out"`

	CfgStart int `toml:"sol_liq.cfg_start"`
	CfgEnd   int `toml:"sol_liq.cfg_end"`

	Atoms []string `toml:"sol_liq.atoms"`

	RMax             float64 `toml:"sol_liq.rmax"`
	ClusteringRadius float64 `toml:"sol_liq.clustering_radius"`
	QThreshold       float64 `toml:"sol_liq.q_threshold"`
	SThreshold       int     `toml:"sol_liq.s_threshold"`
	L                int     `toml:"sol_liq.l"`
	Method           string  `toml:"sol_liq.method"`

	Dt float64 `toml:"sol_liq.dt"`

	solliq *SolLiq
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

	switch j.Method {
	case "":
		j.Method = MethodNormalized
	case MethodNormalized, MethodNoNorm, MethodShared:
	default:
		return nil, fmt.Errorf("%w: unknown method `%s`", util.ErrInvalidConfiguration, j.Method)
	}

	j.solliq, err = New(float32(j.RMax), float32(j.QThreshold), j.SThreshold, j.L)
	if err != nil {
		return nil, err
	}
	if j.ClusteringRadius != 0 {
		err = j.solliq.SetClusteringRadius(float32(j.ClusteringRadius))
		if err != nil {
			return nil, err
		}
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
	fmt.Fprintln(out, "cfg t solid clusters largest")

	err = traj.Walk(j.FileIn, j.CfgStart, j.CfgEnd, func(cfg int, f *traj.Frame) error {
		points := f.PositionsOf(f.Select(j.Atoms...))

		var err error
		switch j.Method {
		case MethodNoNorm:
			err = j.solliq.ComputeNoNorm(f.Box, points)
		case MethodShared:
			err = j.solliq.ComputeVariant(f.Box, points)
		default:
			err = j.solliq.Compute(f.Box, points)
		}
		if err != nil {
			return err
		}

		var solid int
		for i := range points {
			if j.solliq.solid(i) {
				solid++
			}
		}
		fmt.Fprintf(out, "%d %g %d %d %d\n", cfg, float64(f.Timestep)*j.Dt,
			solid, j.solliq.NumClusters(), j.solliq.LargestClusterSize())
		return nil
	})
	if err != nil {
		return fmt.Errorf("Walk: %w", err)
	}
	return nil
}
