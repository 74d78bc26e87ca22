package boundary

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stress_islands/pkg/graph"
)

// triangle builds A(0,0) B(1,0) C(0,1) in lon/lat with one edge per side.
func triangle(t *testing.T) *graph.Network {
	t.Helper()
	n := graph.NewNetwork()
	n.AddVertex(1, 0, 0) // A
	n.AddVertex(2, 0, 1) // B
	n.AddVertex(3, 1, 0) // C
	for _, e := range []struct {
		id   graph.EdgeID
		a, b graph.VertexID
	}{{10, 1, 2}, {11, 2, 3}, {12, 3, 1}} {
		_, err := n.AddEdge(e.id, 1, e.a, e.b)
		require.NoError(t, err)
	}
	return n
}

func TestTraceTriangle(t *testing.T) {
	ring, err := Trace([]graph.EdgeID{10, 11, 12}, triangle(t), Options{})
	require.NoError(t, err)

	require.Len(t, ring, 4)
	assert.True(t, ring.Closed())
	assert.Equal(t, orb.Point{1, 0}, ring[0], "starts at the easternmost vertex")
	assert.InDelta(t, 0.5, planar.Area(orb.Polygon{ring}), 1e-12)
	assert.Equal(t, orb.CW, ring.Orientation())
}

func TestTraceSquareWithTail(t *testing.T) {
	// Unit square 1-2-3-4 with a spur 2-5 poking out of the east side and
	// a diagonal 1-3 inside. The outer walk goes round the spur and never
	// uses the diagonal.
	n := graph.NewNetwork()
	n.AddVertex(1, 0, 0)
	n.AddVertex(2, 0, 1)
	n.AddVertex(3, 1, 1)
	n.AddVertex(4, 1, 0)
	n.AddVertex(5, 0.5, 2)
	edges := []struct {
		id graph.EdgeID
		vs []graph.VertexID
	}{
		{20, []graph.VertexID{1, 2, 3}},
		{21, []graph.VertexID{3, 4, 1}},
		{22, []graph.VertexID{2, 5}},
		{23, []graph.VertexID{1, 3}},
	}
	for _, e := range edges {
		_, err := n.AddEdge(e.id, 1, e.vs...)
		require.NoError(t, err)
	}

	ring, err := Trace([]graph.EdgeID{20, 21, 22, 23}, n, Options{})
	require.NoError(t, err)

	assert.True(t, ring.Closed())
	assert.Equal(t, orb.Point{2, 0.5}, ring[0])
	assert.Contains(t, ring, orb.Point{1, 0})
	assert.Contains(t, ring, orb.Point{0, 1})
	assert.InDelta(t, 1.0, planar.Area(orb.Polygon{ring}), 1e-12)
}

func TestTraceSingleEdge(t *testing.T) {
	n := graph.NewNetwork()
	n.AddVertex(1, 0, 0)
	n.AddVertex(2, 0, 1)
	_, err := n.AddEdge(7, 1, 1, 2)
	require.NoError(t, err)

	ring, err := Trace([]graph.EdgeID{7}, n, Options{})
	require.NoError(t, err)

	// Out and back along the only edge.
	assert.Equal(t, orb.Ring{{1, 0}, {0, 0}, {1, 0}}, ring)
}

func TestTraceOnlyFollowsIslandEdges(t *testing.T) {
	n := triangle(t)
	n.AddVertex(4, 0, 5) // far east, but reached only by a foreign edge
	_, err := n.AddEdge(13, 4, 2, 4)
	require.NoError(t, err)

	ring, err := Trace([]graph.EdgeID{10, 11, 12}, n, Options{})
	require.NoError(t, err)
	assert.Len(t, ring, 4)
	assert.NotContains(t, ring, orb.Point{5, 0})
}

func TestTraceStartTieBreak(t *testing.T) {
	// Vertices 8 and 9 share the maximum longitude; the lower id wins.
	n := graph.NewNetwork()
	n.AddVertex(9, 1, 1)
	n.AddVertex(8, 0, 1)
	n.AddVertex(5, 0, 0)
	_, err := n.AddEdge(1, 1, 9, 8, 5, 9)
	require.NoError(t, err)

	ring, err := Trace([]graph.EdgeID{1}, n, Options{})
	require.NoError(t, err)
	assert.Equal(t, orb.Point{1, 0}, ring[0])
}

func TestTraceSafetyCap(t *testing.T) {
	// S is easternmost and reaches A, but A's incident set omits the edge
	// back to S, so the walk bounces between A and B forever.
	n := graph.NewNetwork()
	n.AddVertex(1, 0, 2) // S
	n.AddVertex(2, 0, 1) // A
	n.AddVertex(3, 0, 0) // B
	n.Edges[30] = &graph.Edge{ID: 30, Vertices: []graph.VertexID{1, 2}, Tier: 1}
	n.Edges[31] = &graph.Edge{ID: 31, Vertices: []graph.VertexID{2, 3}, Tier: 1}
	n.Vertices[1].Edges = []graph.EdgeID{30}
	n.Vertices[2].Edges = []graph.EdgeID{31}
	n.Vertices[3].Edges = []graph.EdgeID{31}

	_, err := Trace([]graph.EdgeID{30, 31}, n, Options{MaxPoints: 50})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTraceNotTerminated))

	_, err = Trace([]graph.EdgeID{30, 31}, n, Options{})
	assert.ErrorIs(t, err, ErrTraceNotTerminated)
}

func TestTraceErrors(t *testing.T) {
	n := triangle(t)

	_, err := Trace(nil, n, Options{})
	assert.ErrorIs(t, err, ErrEmptyIsland)

	_, err = Trace([]graph.EdgeID{99}, n, Options{})
	assert.Error(t, err)
}
