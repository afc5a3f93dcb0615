package order

import (
	"fmt"
	"io"
	"math/cmplx"
	"os"

	"github.com/pelletier/go-toml"

	"github.com/kpotier/molorder/pkg/neighbor"
	"github.com/kpotier/molorder/pkg/traj"
	"github.com/kpotier/molorder/pkg/util"
)

// Types of calculation.
var (
	HexaticType       = "hexatic"
	TranslationalType = "trans_order"
)

// HexaticJob is a structure containing the parameters that can be parsed
// from a TOML configuration file. The k-atic order parameter of the atoms of
// types Atoms is computed over the NumNeighbors nearest neighbors (K by
// default), within RMax if it is positive. The trajectory is read as a 2D
// system.
type HexaticJob struct {
	FileIn  string `toml:"hexatic.file_in"`
	FileOut string `toml:"hexatic.file_out"`

	CfgStart int `toml:"hexatic.cfg_start"`
	CfgEnd   int `toml:"hexatic.cfg_end"`

	Atoms []string `toml:"hexatic.atoms"`

	K            int     `toml:"hexatic.k"`
	NumNeighbors int     `toml:"hexatic.num_neighbors"`
	RMax         float64 `toml:"hexatic.rmax"`

	Dt float64 `toml:"hexatic.dt"`
}

// NewHexaticJob returns an instance of the HexaticJob structure. It reads
// and parses the configuration file given in argument. The file must be a
// TOML file.
func NewHexaticJob(path string) (*HexaticJob, error) {
	var j HexaticJob
	err := decode(path, &j)
	if err != nil {
		return nil, err
	}

	if j.CfgStart >= j.CfgEnd {
		return nil, fmt.Errorf("%w: CfgStart is greater or equal than CfgEnd", util.ErrInvalidConfiguration)
	}
	if j.K <= 0 {
		return nil, fmt.Errorf("%w: k must be positive (got %d)", util.ErrInvalidConfiguration, j.K)
	}
	if j.NumNeighbors == 0 {
		j.NumNeighbors = j.K
	}
	return &j, nil
}

// Start performs the calculation. It is a thread blocking method.
func (j *HexaticJob) Start() error {
	args := neighbor.Args{Mode: neighbor.Nearest, K: j.NumNeighbors, RMax: float32(j.RMax), ExcludeSelf: true}
	if j.RMax > 0 {
		args.Mode = neighbor.NearestBall
	}
	e, err := NewHexatic(j.K)
	if err != nil {
		return err
	}
	return run(j, e, args, series{
		fileIn: j.FileIn, fileOut: j.FileOut,
		start: j.CfgStart, end: j.CfgEnd,
		atoms: j.Atoms, dt: j.Dt,
	})
}

// TranslationalJob is like HexaticJob for the translational order
// parameter. Neighbors are every atom closer than RMax, or the NumNeighbors
// nearest if it is positive. The sum is divided by K.
type TranslationalJob struct {
	FileIn  string `toml:"trans_order.file_in"`
	FileOut string `toml:"trans_order.file_out"`

	CfgStart int `toml:"trans_order.cfg_start"`
	CfgEnd   int `toml:"trans_order.cfg_end"`

	Atoms []string `toml:"trans_order.atoms"`

	K            float64 `toml:"trans_order.k"`
	NumNeighbors int     `toml:"trans_order.num_neighbors"`
	RMax         float64 `toml:"trans_order.rmax"`

	Dt float64 `toml:"trans_order.dt"`
}

// NewTranslationalJob returns an instance of the TranslationalJob
// structure. K defaults to 6.
func NewTranslationalJob(path string) (*TranslationalJob, error) {
	var j TranslationalJob
	err := decode(path, &j)
	if err != nil {
		return nil, err
	}

	if j.CfgStart >= j.CfgEnd {
		return nil, fmt.Errorf("%w: CfgStart is greater or equal than CfgEnd", util.ErrInvalidConfiguration)
	}
	if j.K == 0 {
		j.K = 6
	}
	if !(j.K > 0) {
		return nil, fmt.Errorf("%w: k must be positive (got %g)", util.ErrInvalidConfiguration, j.K)
	}
	if j.NumNeighbors <= 0 && !(j.RMax > 0) {
		return nil, fmt.Errorf("%w: rmax or num_neighbors must be positive", util.ErrInvalidConfiguration)
	}
	return &j, nil
}

// Start performs the calculation. It is a thread blocking method.
func (j *TranslationalJob) Start() error {
	args := neighbor.Args{Mode: neighbor.Ball, RMax: float32(j.RMax), ExcludeSelf: true}
	if j.NumNeighbors > 0 {
		args.Mode, args.K = neighbor.Nearest, j.NumNeighbors
		if j.RMax > 0 {
			args.Mode = neighbor.NearestBall
		}
	}
	e, err := NewTranslational(float32(j.K))
	if err != nil {
		return err
	}
	return run(j, e, args, series{
		fileIn: j.FileIn, fileOut: j.FileOut,
		start: j.CfgStart, end: j.CfgEnd,
		atoms: j.Atoms, dt: j.Dt,
	})
}

func decode(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	return dec.Decode(v)
}

// series is the part of the jobs that produce one line per configuration.
type series struct {
	fileIn, fileOut string
	start, end      int
	atoms           []string
	dt              float64
}

// run computes the order parameter of each configuration and writes the
// average over the atoms.
func run(job any, e *Engine, args neighbor.Args, s series) error {
	out, err := util.Write(s.fileOut, job)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()
	fmt.Fprintln(out, "cfg t re(psi) im(psi) |psi| <|psi_i|>")

	err = traj.Walk(s.fileIn, s.start, s.end, func(cfg int, f *traj.Frame) error {
		err := e.Compute(f.Box, f.PositionsOf(f.Select(s.atoms...)), args, nil)
		if err != nil {
			return err
		}
		writeAverage(out, cfg, float64(f.Timestep)*s.dt, e.Psi())
		return nil
	}, traj.With2D())
	if err != nil {
		return fmt.Errorf("Walk: %w", err)
	}
	return nil
}

func writeAverage(w io.Writer, cfg int, t float64, psi []complex64) {
	var (
		mean complex128
		norm float64
	)
	for _, p := range psi {
		mean += complex128(p)
		norm += cmplx.Abs(complex128(p))
	}
	if n := float64(len(psi)); n > 0 {
		mean /= complex(n, 0)
		norm /= n
	}
	fmt.Fprintf(w, "%d %g %g %g %g %g\n", cfg, t, real(mean), imag(mean), cmplx.Abs(mean), norm)
}
