// Package cluster groups particles into clusters. Edges between particles are
// merged with a disjoint set and the resulting sets are labelled densely from
// zero.
package cluster

// DisjointSet is a union-find structure over the indices [0, n).
type DisjointSet struct {
	parent []int
}

// NewDisjointSet returns a DisjointSet where every index is its own set.
func NewDisjointSet(n int) *DisjointSet {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &DisjointSet{parent: parent}
}

// Len returns the number of indices.
func (d *DisjointSet) Len() int {
	return len(d.parent)
}

// Find returns the root of the set containing i. Every index visited on the
// way is attached directly to the root.
func (d *DisjointSet) Find(i int) int {
	root := i
	for d.parent[root] != root {
		root = d.parent[root]
	}

	for d.parent[i] != root {
		next := d.parent[i]
		d.parent[i] = root
		i = next
	}
	return root
}

// Union merges the sets containing i and j. The root of j's set is attached
// to the root of i's set.
func (d *DisjointSet) Union(i, j int) {
	a, b := d.Find(i), d.Find(j)
	if a != b {
		d.parent[b] = a
	}
}

// Connected returns true if i and j are in the same set.
func (d *DisjointSet) Connected(i, j int) bool {
	return d.Find(i) == d.Find(j)
}
