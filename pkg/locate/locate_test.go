package locate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stress_islands/pkg/graph"
)

// ottawa builds two labelled island edges along Wellington Street and an
// excluded edge just north of them.
func ottawa(t *testing.T) *graph.Network {
	t.Helper()
	n := graph.NewNetwork()
	n.AddVertex(1, 45.4236, -75.7010)
	n.AddVertex(2, 45.4236, -75.6990)
	n.AddVertex(3, 45.4236, -75.6970)
	n.AddVertex(4, 45.4250, -75.7010)
	n.AddVertex(5, 45.4250, -75.6970)

	e, err := n.AddEdge(10, 1, 1, 2)
	require.NoError(t, err)
	e.Island = 2
	e, err = n.AddEdge(11, 2, 2, 3)
	require.NoError(t, err)
	e.Island = 3
	e, err = n.AddEdge(12, 4, 4, 5)
	require.NoError(t, err)
	e.Island = graph.Excluded
	return n
}

func TestNearest(t *testing.T) {
	idx := NewIndex(ottawa(t), nil, 0)
	assert.Equal(t, 2, idx.Len())

	m, err := idx.Nearest(45.4237, -75.6975)
	require.NoError(t, err)
	assert.Equal(t, graph.EdgeID(11), m.Edge)
	assert.Equal(t, graph.Tag(3), m.Island)
	assert.Equal(t, 2, m.Tier)
	assert.Equal(t, 0, m.Segment)
	assert.InDelta(t, 0.75, m.Ratio, 0.01)
	assert.InDelta(t, 11.1, m.Dist, 0.5)
}

func TestNearestSkipsExcludedEdges(t *testing.T) {
	// Right on the excluded edge, but it is not indexed by default.
	m, err := NewIndex(ottawa(t), nil, 0).Nearest(45.4250, -75.7000)
	require.NoError(t, err)
	assert.Equal(t, graph.EdgeID(10), m.Edge)
	assert.InDelta(t, 155.8, m.Dist, 1.0)

	all := NewIndex(ottawa(t), func(*graph.Edge) bool { return true }, 0)
	m, err = all.Nearest(45.4250, -75.7000)
	require.NoError(t, err)
	assert.Equal(t, graph.EdgeID(12), m.Edge)
	assert.InDelta(t, 0, m.Dist, 0.01)
}

func TestNearestTooFar(t *testing.T) {
	idx := NewIndex(ottawa(t), nil, 100)
	_, err := idx.Nearest(45.4300, -75.6990) // ~710 m north
	assert.ErrorIs(t, err, ErrPointTooFar)

	_, err = NewIndex(graph.NewNetwork(), nil, 0).Nearest(45.4236, -75.7)
	assert.ErrorIs(t, err, ErrPointTooFar)
}
