package cfg

import (
	"fmt"

	"github.com/kpotier/molorder/pkg/cluster"
	"github.com/kpotier/molorder/pkg/disttwoatoms"
	"github.com/kpotier/molorder/pkg/order"
	"github.com/kpotier/molorder/pkg/pmft"
	"github.com/kpotier/molorder/pkg/rdf"
	"github.com/kpotier/molorder/pkg/solliq"
	"github.com/kpotier/molorder/pkg/volume"
)

// Calculation is an interface that only contains one method: Start. Every
// calculation must have a Start method that will launch the calculation. It
// must be a thread blocking method.
type Calculation interface {
	Start() error
}

// Launch launchs a specific calculation. It is a thread blocking method. The
// parameters required to launch the calculation must be in a file.
func Launch(name string, path string) error {
	var (
		err error
		cal Calculation
	)

	switch name {
	case rdf.Type:
		cal, err = rdf.NewJob(path)
	case pmft.Type:
		cal, err = pmft.NewJob(path)
	case order.HexaticType:
		cal, err = order.NewHexaticJob(path)
	case order.TranslationalType:
		cal, err = order.NewTranslationalJob(path)
	case solliq.Type:
		cal, err = solliq.NewJob(path)
	case cluster.Type:
		cal, err = cluster.NewJob(path)
	case disttwoatoms.Type:
		cal, err = disttwoatoms.New(path)
	case volume.Type:
		cal, err = volume.New(path)
	default:
		return fmt.Errorf("calculation `%s` doesn't exist", name)
	}

	if err != nil {
		return fmt.Errorf("%s: New: %w", name, err)
	}

	err = cal.Start()
	if err != nil {
		return fmt.Errorf("%s: Start: %w", name, err)
	}

	return nil
}
