package pmft

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/pelletier/go-toml"

	"github.com/kpotier/molorder/pkg/traj"
	"github.com/kpotier/molorder/pkg/util"
)

// Type is the type of calculation.
var Type = "pmft_xyt"

// Job is a structure containing the parameters that can be parsed from a
// TOML configuration file. The trajectory is read as a 2D system.
//
// The orientation of each atom is read from the column Angle or, if Angle
// is empty, from the four columns of Quaternion (w, x, y, z). An empty list
// of types selects every atom.
type Job struct {
	FileIn  string `toml:"pmft_xyt.file_in"`
	FileOut string `toml:"pmft_xyt.file_out"`

	CfgStart int `toml:"pmft_xyt.cfg_start"`
	CfgEnd   int `toml:"pmft_xyt.cfg_end"`

	Refs   []string `toml:"pmft_xyt.refs"`
	Points []string `toml:"pmft_xyt.points"`

	Angle      string   `toml:"pmft_xyt.angle"`
	Quaternion []string `toml:"pmft_xyt.quaternion"`

	MaxX float64 `toml:"pmft_xyt.max_x"`
	MaxY float64 `toml:"pmft_xyt.max_y"`
	MaxT float64 `toml:"pmft_xyt.max_t"`
	Dx   float64 `toml:"pmft_xyt.dx"`
	Dy   float64 `toml:"pmft_xyt.dy"`
	DT   float64 `toml:"pmft_xyt.dt"`

	pmft *XYT
}

// NewJob returns an instance of the Job structure. It reads and parses the
// configuration file given in argument. The file must be a TOML file. MaxT
// defaults to pi.
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
	if j.Angle == "" && len(j.Quaternion) != 4 {
		return nil, fmt.Errorf("%w: either angle or the 4 quaternion columns must be given",
			util.ErrInvalidConfiguration)
	}
	if j.MaxT == 0 {
		j.MaxT = math.Pi
	}

	j.pmft, err = NewXYT(float32(j.MaxX), float32(j.MaxY), float32(j.MaxT),
		float32(j.Dx), float32(j.Dy), float32(j.DT))
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// Start performs the calculation. It is a thread blocking method.
func (j *Job) Start() error {
	err := traj.Walk(j.FileIn, j.CfgStart, j.CfgEnd, func(cfg int, f *traj.Frame) error {
		refs := f.Select(j.Refs...)
		points := f.Select(j.Points...)

		refAngles, err := j.angles(f, refs)
		if err != nil {
			return err
		}
		angles, err := j.angles(f, points)
		if err != nil {
			return err
		}
		return j.pmft.Accumulate(f.Box, f.PositionsOf(refs), refAngles, f.PositionsOf(points), angles)
	}, traj.With2D())
	if err != nil {
		return fmt.Errorf("Walk: %w", err)
	}

	out, err := util.Write(j.FileOut, j)
	if err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	defer out.Close()

	fmt.Fprintln(out, "x y t pcf pmft")
	pcf, pmft := j.pmft.PCF(), j.pmft.PMFT()
	x, y, t := j.pmft.X(), j.pmft.Y(), j.pmft.T()
	var k int
	for ix := range x {
		for iy := range y {
			for iT := range t {
				fmt.Fprintf(out, "%g %g %g %d %g\n", x[ix], y[iy], t[iT], pcf[k], pmft[k])
				k++
			}
		}
	}
	return nil
}

// angles returns the orientation of the atoms idx.
func (j *Job) angles(f *traj.Frame, idx []int) ([]float32, error) {
	if j.Angle != "" {
		return f.Column(j.Angle, idx)
	}

	var cols [4][]float32
	for k, name := range j.Quaternion {
		var err error
		cols[k], err = f.Column(name, idx)
		if err != nil {
			return nil, err
		}
	}

	q := make([][4]float32, len(idx))
	for i := range q {
		q[i] = [4]float32{cols[0][i], cols[1][i], cols[2][i], cols[3][i]}
		if q[i] == [4]float32{} {
			return nil, errors.New("null quaternion")
		}
	}
	return AnglesFromQuaternions(q), nil
}
