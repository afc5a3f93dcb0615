package cluster

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// Builder accumulates accepted edges and labels the resulting clusters. The
// caller decides which pairs are edges: the Builder merges whatever it is
// given.
type Builder struct {
	set       *DisjointSet
	finalized bool
}

// NewBuilder returns a Builder over n particles.
func NewBuilder(n int) *Builder {
	return &Builder{set: NewDisjointSet(n)}
}

// AddEdge merges the clusters of i and j. It panics if called after
// Finalize.
func (b *Builder) AddEdge(i, j int) {
	if b.finalized {
		panic("cluster: AddEdge called on a finalized Builder")
	}
	b.set.Union(i, j)
}

// Finalize labels every particle. Cluster ids are assigned in the order
// their first particle appears when scanning indices ascending, so that
// particle 0 always belongs to cluster 0. A particle without any edge is a
// singleton cluster.
func (b *Builder) Finalize() Labels {
	b.finalized = true

	n := b.set.Len()
	ids := make([]int, n)
	label := make(map[int]int)
	for i := 0; i < n; i++ {
		root := b.set.Find(i)
		id, ok := label[root]
		if !ok {
			id = len(label)
			label[root] = id
		}
		ids[i] = id
	}
	return Labels{IDs: ids, Num: len(label)}
}

// Labels is the cluster id of every particle. Ids span [0, Num).
type Labels struct {
	IDs []int
	Num int
}

// Sizes returns the number of particles of each cluster for which include
// returns true. A nil include counts every particle. Excluded particles keep
// their cluster id but do not count.
func (l Labels) Sizes(include func(i int) bool) []int {
	sizes := make([]int, l.Num)
	for i, id := range l.IDs {
		if include == nil || include(i) {
			sizes[id]++
		}
	}
	return sizes
}

// LargestSize returns the size of the largest cluster, counting only the
// particles for which include returns true.
func (l Labels) LargestSize(include func(i int) bool) int {
	var largest int
	for _, s := range l.Sizes(include) {
		largest = max(largest, s)
	}
	return largest
}

// SizesDescending returns the sizes of every cluster sorted in descending
// order. A cluster whose particles are all excluded has size 0.
func (l Labels) SizesDescending(include func(i int) bool) []int {
	sizes := l.Sizes(include)
	slices.SortFunc(sizes, func(a, b int) int { return b - a })
	return sizes
}

// Members returns the particle indices of each cluster.
func (l Labels) Members() []*roaring.Bitmap {
	members := make([]*roaring.Bitmap, l.Num)
	for id := range members {
		members[id] = roaring.New()
	}
	for i, id := range l.IDs {
		members[id].Add(uint32(i))
	}
	return members
}
