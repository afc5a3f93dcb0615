package neighbor

import (
	"slices"
	"testing"

	"github.com/kpotier/molorder/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewList(t *testing.T) {
	bonds := []Bond{
		{I: 0, J: 1, Distance: 1},
		{I: 0, J: 2, Distance: 2},
		{I: 2, J: 0, Distance: 2},
	}

	l, err := NewList(bonds, 3, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 3, l.NumRefs())
	assert.Equal(t, []int{2, 0, 1}, l.Counts())
	assert.Empty(t, l.Segment(1))
	assert.Equal(t, bonds[2], l.Segment(2)[0])

	// The list holds its own copy.
	bonds[0].J = 2
	assert.Equal(t, 1, l.Bond(0).J)
}

func TestNewListRejectsBadBonds(t *testing.T) {
	tests := []struct {
		name  string
		bonds []Bond
	}{
		{"not grouped", []Bond{{I: 1, J: 0}, {I: 0, J: 1}}},
		{"reference out of range", []Bond{{I: 3, J: 0}}},
		{"point out of range", []Bond{{I: 0, J: 5}}},
		{"negative point", []Bond{{I: 0, J: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewList(tt.bonds, 2, 2)
			require.ErrorIs(t, err, util.ErrShapeMismatch)
		})
	}
}

func TestListFilterAndCopy(t *testing.T) {
	l, err := NewList([]Bond{
		{I: 0, J: 1, Distance: 1},
		{I: 0, J: 2, Distance: 3},
		{I: 1, J: 0, Distance: 1},
	}, 2, 3)
	require.NoError(t, err)

	short := l.Filter(func(b Bond) bool { return b.Distance < 2 })
	assert.Equal(t, []int{1, 1}, short.Counts())
	assert.Equal(t, 3, l.Len())

	c := l.Copy()
	assert.Equal(t, l.Bonds(), c.Bonds())
	assert.Equal(t, slices.Collect(l.All()), slices.Collect(c.All()))
	assert.Equal(t, slices.Collect(l.Point(0)), l.Segment(0))
}
