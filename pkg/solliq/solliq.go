// Package solliq identifies solid-like particles and their clusters from the
// correlation of the local bond orientational order of neighboring
// particles.
//
// For each particle i, q_lm(i) is the sum of the spherical harmonics Y_l^m
// over the bonds of i. Two neighbors are connected when the real part of the
// normalised dot product of their q_lm is greater than a threshold. Particles
// with enough connections are solid-like and are clustered together.
package solliq

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kpotier/molorder/pkg/box"
	"github.com/kpotier/molorder/pkg/cluster"
	"github.com/kpotier/molorder/pkg/neighbor"
	"github.com/kpotier/molorder/pkg/order"
	"github.com/kpotier/molorder/pkg/parallel"
	"github.com/kpotier/molorder/pkg/util"
)

// coincident is the squared distance below which two particles are
// considered to be at the same position.
const coincident = 1e-6

// SolLiq is the solid-liquid order parameter. Its results are overwritten
// by each call to one of the Compute methods.
type SolLiq struct {
	rmax        float32
	rmaxCluster float32
	qThreshold  float32
	sThreshold  int
	l           int

	box          box.Box
	np           int
	qlmi         []complex64
	nNeighbors   []int
	nConnections []int
	qldot        []complex64
	nShared      []int
	labels       cluster.Labels
}

// New returns a SolLiq. rmax is the neighbor cutoff, also used for
// clustering until SetClusteringRadius is called. qThreshold is the
// threshold on the dot product above which two neighbors are connected, and
// sThreshold the number of connections (or of shared connections for
// ComputeVariant) needed to be solid-like. l must be even and positive.
func New(rmax, qThreshold float32, sThreshold, l int) (*SolLiq, error) {
	switch {
	case !(rmax > 0):
		return nil, fmt.Errorf("%w: rmax must be positive (got %g)", util.ErrInvalidConfiguration, rmax)
	case !(qThreshold >= 0):
		return nil, fmt.Errorf("%w: dot product threshold must be non negative (got %g)",
			util.ErrInvalidConfiguration, qThreshold)
	case sThreshold < 0:
		return nil, fmt.Errorf("%w: number of solid-like bonds must be non negative (got %d)",
			util.ErrInvalidConfiguration, sThreshold)
	case l <= 0 || l%2 != 0:
		return nil, fmt.Errorf("%w: l must be even and greater than 0 (got %d)",
			util.ErrInvalidConfiguration, l)
	}

	return &SolLiq{
		rmax:        rmax,
		rmaxCluster: rmax,
		qThreshold:  qThreshold,
		sThreshold:  sThreshold,
		l:           l,
	}, nil
}

// SetClusteringRadius sets the cutoff of the bonds considered for
// clustering.
func (s *SolLiq) SetClusteringRadius(r float32) error {
	if !(r > 0) {
		return fmt.Errorf("%w: clustering radius must be positive (got %g)",
			util.ErrInvalidConfiguration, r)
	}
	s.rmaxCluster = r
	return nil
}

// Compute computes q_lm, connects neighbors whose normalised dot product is
// above the threshold and clusters the solid-like particles, those with at
// least sThreshold connections.
func (s *SolLiq) Compute(b box.Box, points []box.Vec3) error {
	return s.compute(b, points, true)
}

// ComputeNoNorm is like Compute but the dot products are not normalised.
func (s *SolLiq) ComputeNoNorm(b box.Box, points []box.Vec3) error {
	return s.compute(b, points, false)
}

func (s *SolLiq) compute(b box.Box, points []box.Vec3, normalize bool) error {
	nlist, clist, err := s.query(b, points)
	if err != nil {
		return err
	}

	s.setup(b, len(points))
	s.computeQlmi(b, points, nlist)
	s.qldot = s.connections(nlist, normalize, nil)

	builder := cluster.NewBuilder(len(points))
	for bond := range clist.All() {
		if bond.I >= bond.J || bond.Distance*bond.Distance <= coincident {
			continue
		}
		if s.solid(bond.I) && s.solid(bond.J) {
			builder.AddEdge(bond.I, bond.J)
		}
	}
	s.labels = builder.Finalize()
	s.nShared = s.nShared[:0]
	return nil
}

// ComputeVariant clusters two neighbors if they share more than sThreshold
// solid-like neighbors, instead of requiring each of them to have enough
// connections.
func (s *SolLiq) ComputeVariant(b box.Box, points []box.Vec3) error {
	nlist, clist, err := s.query(b, points)
	if err != nil {
		return err
	}

	s.setup(b, len(points))
	s.computeQlmi(b, points, nlist)

	sets := make([]*roaring.Bitmap, len(points))
	for i := range sets {
		sets[i] = roaring.New()
	}
	s.qldot = s.connections(nlist, true, sets)

	builder := cluster.NewBuilder(len(points))
	s.nShared = s.nShared[:0]
	for bond := range clist.All() {
		if bond.I >= bond.J || bond.Distance*bond.Distance <= coincident {
			continue
		}
		shared := int(sets[bond.I].AndCardinality(sets[bond.J]))
		s.nShared = append(s.nShared, shared)
		if shared > s.sThreshold {
			builder.AddEdge(bond.I, bond.J)
		}
	}
	s.labels = builder.Finalize()
	return nil
}

// query returns the neighbor list and the clustering list. They are the
// same list when both radii are equal.
func (s *SolLiq) query(b box.Box, points []box.Vec3) (nlist, clist *neighbor.List, err error) {
	q := neighbor.NewQuery(b, points)
	it, err := q.Query(points, neighbor.Args{Mode: neighbor.Ball, RMax: s.rmax, ExcludeSelf: true})
	if err != nil {
		return nil, nil, fmt.Errorf("Query: %w", err)
	}
	nlist = it.ToList()

	if s.rmaxCluster == s.rmax {
		return nlist, nlist, nil
	}
	it, err = q.Query(points, neighbor.Args{Mode: neighbor.Ball, RMax: s.rmaxCluster, ExcludeSelf: true})
	if err != nil {
		return nil, nil, fmt.Errorf("Query: %w", err)
	}
	return nlist, it.ToList(), nil
}

// setup reallocates the per-particle arrays if the number of particles
// changed since the last call.
func (s *SolLiq) setup(b box.Box, np int) {
	s.box = b
	if np == s.np && s.qlmi != nil {
		return
	}
	s.np = np
	s.qlmi = make([]complex64, np*(2*s.l+1))
	s.nNeighbors = make([]int, np)
	s.nConnections = make([]int, np)
}

func (s *SolLiq) computeQlmi(b box.Box, points []box.Vec3, nlist *neighbor.List) {
	width := 2*s.l + 1
	_ = parallel.ForEach(len(points), 0, func(begin, end int) error {
		y := make([]complex64, width)
		for i := begin; i < end; i++ {
			q := s.qlmi[i*width : (i+1)*width]
			clear(q)
			s.nNeighbors[i] = 0

			for _, bond := range nlist.Segment(i) {
				d := b.Wrap(points[bond.J].Sub(points[i]))
				rsq := d.Norm2()
				if rsq <= coincident {
					continue
				}
				phi := float32(math.Atan2(float64(d[1]), float64(d[0])))
				theta := float32(math.Acos(float64(d[2]) / math.Sqrt(float64(rsq))))
				y = s.harmonics(theta, phi, y)
				for k := range q {
					q[k] += y[k]
				}
				s.nNeighbors[i]++
			}
		}
		return nil
	})
}

func (s *SolLiq) harmonics(theta, phi float32, y []complex64) []complex64 {
	switch s.l {
	case 4:
		return order.Y4m(theta, phi, y)
	case 6:
		return order.Y6m(theta, phi, y)
	default:
		return order.Ylm(s.l, theta, phi, y)
	}
}

// connections counts the connections of every particle and returns the dot
// products of the bonds with i < j, ordered like the bonds. If sets is not
// nil, the connected neighbors of i are added to sets[i].
func (s *SolLiq) connections(nlist *neighbor.List, normalize bool, sets []*roaring.Bitmap) []complex64 {
	bufs, _ := parallel.Accumulate(s.np, 0,
		func() *[]complex64 { return new([]complex64) },
		func(buf *[]complex64, begin, end int) error {
			for i := begin; i < end; i++ {
				s.nConnections[i] = 0
				for _, bond := range nlist.Segment(i) {
					if bond.Distance*bond.Distance <= coincident {
						continue
					}
					dot := s.dot(bond.I, bond.J, normalize)
					if bond.I < bond.J {
						*buf = append(*buf, dot)
					}
					if real(dot) > s.qThreshold {
						s.nConnections[i]++
						if sets != nil {
							sets[i].Add(uint32(bond.J))
						}
					}
				}
			}
			return nil
		},
	)

	dots := s.qldot[:0]
	for _, b := range bufs {
		dots = append(dots, *b...)
	}
	return dots
}

// dot returns sum_m q_lm(i) conj(q_lm(j)), divided by |q_l(i)| |q_l(j)| if
// normalize is true. The real part is symmetric in i and j.
func (s *SolLiq) dot(i, j int, normalize bool) complex64 {
	width := 2*s.l + 1
	qi := s.qlmi[i*width : (i+1)*width]
	qj := s.qlmi[j*width : (j+1)*width]

	var dot complex64
	var ni, nj float32
	for k := range qi {
		dot += qi[k] * complex(real(qj[k]), -imag(qj[k]))
		ni += real(qi[k])*real(qi[k]) + imag(qi[k])*imag(qi[k])
		nj += real(qj[k])*real(qj[k]) + imag(qj[k])*imag(qj[k])
	}
	if !normalize {
		return dot
	}

	norm := float32(math.Sqrt(float64(ni)) * math.Sqrt(float64(nj)))
	if norm == 0 {
		return 0
	}
	return dot / complex(norm, 0)
}

func (s *SolLiq) solid(i int) bool {
	return s.nConnections[i] >= s.sThreshold
}

// Box returns the box of the last computation.
func (s *SolLiq) Box() box.Box {
	return s.box
}

// L returns the order of the spherical harmonics.
func (s *SolLiq) L() int {
	return s.l
}

// NumPoints returns the number of particles of the last computation.
func (s *SolLiq) NumPoints() int {
	return s.np
}

// Qlmi returns q_lm of every particle, particle-major: the value of m for
// particle i is at index i*(2l+1) + m + l.
func (s *SolLiq) Qlmi() []complex64 {
	return s.qlmi
}

// NumberOfNeighbors returns the number of bonds of every particle.
func (s *SolLiq) NumberOfNeighbors() []int {
	return s.nNeighbors
}

// QldotIJ returns the dot product of each pair of neighbors i < j, grouped
// by i and then ordered by j.
func (s *SolLiq) QldotIJ() []complex64 {
	return s.qldot
}

// NumberOfConnections returns the number of connected neighbors of every
// particle.
func (s *SolLiq) NumberOfConnections() []int {
	return s.nConnections
}

// NumberOfSharedConnections returns, for each pair of clustering neighbors
// i < j of the last ComputeVariant, the number of connected neighbors they
// share. It is empty after Compute and ComputeNoNorm.
func (s *SolLiq) NumberOfSharedConnections() []int {
	return s.nShared
}

// Clusters returns the cluster id of every particle. Liquid-like particles
// are singleton clusters unless ComputeVariant merged them.
func (s *SolLiq) Clusters() []int {
	return s.labels.IDs
}

// NumClusters returns the number of clusters.
func (s *SolLiq) NumClusters() int {
	return s.labels.Num
}

// Labels returns the cluster labels.
func (s *SolLiq) Labels() cluster.Labels {
	return s.labels
}

// LargestClusterSize returns the number of solid-like particles of the
// largest cluster.
func (s *SolLiq) LargestClusterSize() int {
	return s.labels.LargestSize(s.solid)
}

// ClusterSizes returns the number of solid-like particles of every cluster,
// in descending order.
func (s *SolLiq) ClusterSizes() []int {
	return s.labels.SizesDescending(s.solid)
}
