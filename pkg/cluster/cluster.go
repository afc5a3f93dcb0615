package cluster

import (
	"fmt"
	"math"

	"github.com/kpotier/molorder/pkg/box"
	"github.com/kpotier/molorder/pkg/neighbor"
	"github.com/kpotier/molorder/pkg/util"
)

// Cluster groups particles closer than a cutoff. Two particles belong to the
// same cluster if a chain of bonds shorter than the cutoff links them.
type Cluster struct {
	labels Labels
}

// Compute labels the clusters of points. The previous labels are kept if
// an error is returned.
func (c *Cluster) Compute(b box.Box, points []box.Vec3, rcut float32) error {
	it, err := neighbor.NewQuery(b, points).Query(points, neighbor.Args{
		Mode:        neighbor.Ball,
		RMax:        rcut,
		ExcludeSelf: true,
	})
	if err != nil {
		return fmt.Errorf("Query: %w", err)
	}

	builder := NewBuilder(len(points))
	for bond := range it.ToList().All() {
		if bond.I < bond.J {
			builder.AddEdge(bond.I, bond.J)
		}
	}
	c.labels = builder.Finalize()
	return nil
}

// Labels returns the labels of the last call to Compute.
func (c *Cluster) Labels() Labels {
	return c.labels
}

// Stats are the geometric properties of a cluster.
type Stats struct {
	Size int
	// Center is the centre of mass, wrapped into the box.
	Center box.Vec3
	// Gyration is the radius of gyration.
	Gyration float32
}

// Properties returns the properties of each cluster of the last call to
// Compute. Every particle has the same mass.
func (c *Cluster) Properties(b box.Box, points []box.Vec3) ([]Stats, error) {
	return c.WeightedProperties(b, points, nil)
}

// WeightedProperties is like Properties but weights every particle by its
// mass. A nil masses gives every particle a unit mass.
//
// The centre of mass of a cluster is computed from the minimum image of each
// member relative to the first member, so that clusters crossing a periodic
// boundary stay compact. Clusters larger than half the box are therefore
// ill-defined.
func (c *Cluster) WeightedProperties(b box.Box, points []box.Vec3, masses []float32) ([]Stats, error) {
	ids := c.labels.IDs
	if len(points) != len(ids) {
		return nil, fmt.Errorf("%w: %d points for %d labels",
			util.ErrShapeMismatch, len(points), len(ids))
	}
	if masses != nil && len(masses) != len(ids) {
		return nil, fmt.Errorf("%w: %d masses for %d labels",
			util.ErrShapeMismatch, len(masses), len(ids))
	}

	mass := func(i int) float32 {
		if masses == nil {
			return 1
		}
		return masses[i]
	}

	ref := make([]int, c.labels.Num)
	for id := range ref {
		ref[id] = -1
	}
	sums := make([]box.Vec3, c.labels.Num)
	total := make([]float32, c.labels.Num)
	stats := make([]Stats, c.labels.Num)

	for i, id := range ids {
		if ref[id] < 0 {
			ref[id] = i
		}
		m := mass(i)
		d := b.Wrap(points[i].Sub(points[ref[id]]))
		sums[id] = sums[id].Add(d.Scale(m))
		total[id] += m
		stats[id].Size++
	}

	for id := range stats {
		if total[id] == 0 {
			continue
		}
		stats[id].Center = b.WrapPoint(points[ref[id]].Add(sums[id].Scale(1 / total[id])))
	}

	rg := make([]float32, c.labels.Num)
	for i, id := range ids {
		d := b.Wrap(points[i].Sub(stats[id].Center))
		rg[id] += mass(i) * d.Norm2()
	}
	for id := range stats {
		if total[id] == 0 {
			continue
		}
		stats[id].Gyration = float32(math.Sqrt(float64(rg[id] / total[id])))
	}

	return stats, nil
}
