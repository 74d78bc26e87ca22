package boundary

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stress_islands/pkg/graph"
)

// batchNetwork holds a good triangle island (tag 2), a broken island whose
// incidence makes the walk bounce forever (tag 3) and a second good
// triangle far to the east (tag 4).
func batchNetwork(t *testing.T) (*graph.Network, map[graph.Tag][]graph.EdgeID) {
	t.Helper()
	n := triangle(t)

	n.AddVertex(101, 10, 2)
	n.AddVertex(102, 10, 1)
	n.AddVertex(103, 10, 0)
	n.Edges[130] = &graph.Edge{ID: 130, Vertices: []graph.VertexID{101, 102}, Tier: 1}
	n.Edges[131] = &graph.Edge{ID: 131, Vertices: []graph.VertexID{102, 103}, Tier: 1}
	n.Vertices[101].Edges = []graph.EdgeID{130}
	n.Vertices[102].Edges = []graph.EdgeID{131}
	n.Vertices[103].Edges = []graph.EdgeID{131}

	n.AddVertex(201, 20, 20)
	n.AddVertex(202, 20, 21)
	n.AddVertex(203, 21, 20)
	for _, e := range []struct {
		id   graph.EdgeID
		a, b graph.VertexID
	}{{210, 201, 202}, {211, 202, 203}, {212, 203, 201}} {
		_, err := n.AddEdge(e.id, 1, e.a, e.b)
		require.NoError(t, err)
	}

	return n, map[graph.Tag][]graph.EdgeID{
		4: {210, 211, 212},
		2: {10, 11, 12},
		3: {130, 131},
	}
}

func TestTraceAllIsolatesFailures(t *testing.T) {
	n, islands := batchNetwork(t)

	results, err := TraceAll(context.Background(), n, islands, BatchOptions{
		Options: Options{MaxPoints: 100},
		Workers: 3,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, graph.Tag(2), results[0].Island)
	assert.Equal(t, graph.Tag(3), results[1].Island)
	assert.Equal(t, graph.Tag(4), results[2].Island)

	assert.NoError(t, results[0].Err)
	assert.Len(t, results[0].Ring, 4)
	assert.InDelta(t, 0.5, results[0].Area, 1e-12)
	assert.Equal(t, 3, results[0].Edges)

	assert.ErrorIs(t, results[1].Err, ErrTraceNotTerminated)
	assert.Nil(t, results[1].Ring)

	assert.NoError(t, results[2].Err)
	assert.Equal(t, orb.Point{21, 20}, results[2].Ring[0])
}

func TestTraceAllSingleWorkerMatchesParallel(t *testing.T) {
	n, islands := batchNetwork(t)

	one, err := TraceAll(context.Background(), n, islands, BatchOptions{Options: Options{MaxPoints: 100}, Workers: 1})
	require.NoError(t, err)
	many, err := TraceAll(context.Background(), n, islands, BatchOptions{Options: Options{MaxPoints: 100}, Workers: 8})
	require.NoError(t, err)

	require.Len(t, many, len(one))
	for i := range one {
		assert.Equal(t, one[i].Island, many[i].Island)
		assert.Equal(t, one[i].Ring, many[i].Ring)
	}
}

func TestTraceAllSimplify(t *testing.T) {
	// A square whose west side has an almost collinear midpoint.
	n := graph.NewNetwork()
	n.AddVertex(1, 0, 0)
	n.AddVertex(2, 0, 1)
	n.AddVertex(3, 0.5, -0.00001)
	n.AddVertex(4, 1, 1)
	n.AddVertex(5, 1, 0)
	_, err := n.AddEdge(1, 1, 1, 2, 4, 5, 3, 1)
	require.NoError(t, err)
	islands := map[graph.Tag][]graph.EdgeID{2: {1}}

	raw, err := TraceAll(context.Background(), n, islands, BatchOptions{})
	require.NoError(t, err)
	require.NoError(t, raw[0].Err)
	assert.Len(t, raw[0].Ring, 6)

	simple, err := TraceAll(context.Background(), n, islands, BatchOptions{SimplifyTolerance: 0.001})
	require.NoError(t, err)
	require.NoError(t, simple[0].Err)
	assert.Len(t, simple[0].Ring, 5)
	assert.True(t, simple[0].Ring.Closed())
	assert.InDelta(t, 1.0, simple[0].Area, 1e-4)
}

func TestTraceAllEmpty(t *testing.T) {
	results, err := TraceAll(context.Background(), graph.NewNetwork(), nil, BatchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTraceAllCancelled(t *testing.T) {
	n, islands := batchNetwork(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TraceAll(ctx, n, islands, BatchOptions{Workers: 2})
	assert.ErrorIs(t, err, context.Canceled)
}
