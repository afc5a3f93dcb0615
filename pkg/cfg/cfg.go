// Package cfg dispatches several calculations. It avoids to start a
// specific program for each calculation.
package cfg

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/kpotier/molorder/pkg/parallel"
	"github.com/kpotier/molorder/pkg/util"
)

// Cfg is a structure where the types of calculations are stored. It can be
// instanced through the New method. The length of the Files slice must be equal
// to the length of the Types files. Each calculation requires a configuration
// file where the parameters required to run the calculation are stored.
//
// Threads is the number of workers used by each calculation. It defaults to
// the number of CPUs.
type Cfg struct {
	Types   [][]string `toml:"types"`
	Files   [][]string `toml:"files"`
	Threads int        `toml:"threads"`
}

// New returns an instance of the Cfg structure. It opens and reads the
// configuration file where Types and Files are stored. The configuration file
// must use the TOML format.
func New(path string) (Cfg, error) {
	f, err := os.Open(path)
	if err != nil {
		return Cfg{}, err
	}
	defer f.Close()

	var cfg Cfg
	dec := toml.NewDecoder(f)
	err = dec.Decode(&cfg)
	if err != nil {
		return Cfg{}, err
	}

	if len(cfg.Files) != len(cfg.Types) {
		return Cfg{}, fmt.Errorf("length of Files isn't equal to Types (%d vs %d)",
			len(cfg.Files), len(cfg.Types))
	}

	for k, v := range cfg.Files {
		if len(v) != len(cfg.Types[k]) {
			return Cfg{}, fmt.Errorf("length of Files isn't equal to Types (%d vs %d, step %d)",
				len(v), len(cfg.Types[k]), k)
		}
	}

	if cfg.Threads < 0 {
		return Cfg{}, fmt.Errorf("%w: threads must be positive (got %d)",
			util.ErrInvalidConfiguration, cfg.Threads)
	}

	return cfg, nil
}

// Start dispatches and performs the calculations. If several calculations are
// in the same array (e.g Types: ["x", "y", "z"]), they will be performed in
// parallel. Each calculation also splits its own work between the workers of
// the parallel package.
//
// It is a thread blocking method. If an error occurs for a specific
// calculation, the calculation will stop and log the error but the method won't
// stop. It returns the number of failed calculations.
func (c Cfg) Start(log *util.Logger) int {
	if c.Threads > 0 {
		restore := parallel.SetNumWorkers(c.Threads)
		defer restore()
	}

	var (
		wg     sync.WaitGroup
		mux    sync.Mutex
		failed int
	)
	run := func(step, rtn int, name string) {
		l := log.WithCalculation(name).WithStep(step, rtn)
		l.Info("calculation started", "file", c.Files[step][rtn])

		start := time.Now()
		err := Launch(name, c.Files[step][rtn])
		l.LogRun(context.Background(), c.Files[step][rtn], start, err)
		if err != nil {
			mux.Lock()
			failed++
			mux.Unlock()
		}
	}

	for step, types := range c.Types {
		if len(types) == 0 {
			continue
		}

		for rtn, name := range types[1:] { // For each calculation
			wg.Add(1)
			go func() {
				defer wg.Done()
				run(step, rtn+1, name)
			}()
		}

		run(step, 0, types[0])
		wg.Wait()
	}
	return failed
}
