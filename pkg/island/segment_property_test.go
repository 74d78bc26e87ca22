package island

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"stress_islands/pkg/graph"
)

const gridSize = 4

// gridNetwork lays out gridSize rows and gridSize columns of long edges
// over a shared vertex lattice, so every row crosses every column at an
// interior vertex. tiers holds one tier per row followed by one per column.
func gridNetwork(tiers []int) *graph.Network {
	n := graph.NewNetwork()
	vid := func(r, c int) graph.VertexID { return graph.VertexID(r*gridSize + c + 1) }
	for r := range gridSize {
		for c := range gridSize {
			n.AddVertex(vid(r, c), 45+float64(r)*0.001, -75+float64(c)*0.001)
		}
	}
	for r := range gridSize {
		verts := make([]graph.VertexID, gridSize)
		for c := range gridSize {
			verts[c] = vid(r, c)
		}
		n.AddEdge(graph.EdgeID(100+r), tiers[r], verts...)
	}
	for c := range gridSize {
		verts := make([]graph.VertexID, gridSize)
		for r := range gridSize {
			verts[r] = vid(r, c)
		}
		n.AddEdge(graph.EdgeID(200+c), tiers[gridSize+c], verts...)
	}
	return n
}

func genTiers() gopter.Gen {
	return gen.SliceOfN(2*gridSize, gen.IntRange(0, 4))
}

func TestSegment_FinalTagsAreConcrete(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("no edge is left seed or unvisited", prop.ForAll(
		func(tiers []int, threshold int) bool {
			res, err := Segment(gridNetwork(tiers), Options{Threshold: threshold})
			if err != nil {
				return false
			}
			for _, e := range res.Network.Edges {
				if e.Island != graph.Excluded && !e.Island.IsIsland() {
					return false
				}
			}
			return true
		},
		genTiers(),
		gen.IntRange(1, 3),
	))

	properties.TestingRun(t)
}

func TestSegment_FabricatedVerticesHaveOneEdge(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("fabricated vertices belong to exactly one edge", prop.ForAll(
		func(tiers []int, threshold int) bool {
			net := gridNetwork(tiers)
			maxInput, _ := net.MaxIDs()
			res, err := Segment(net, Options{Threshold: threshold})
			if err != nil {
				return false
			}
			for id, v := range res.Network.Vertices {
				if id > maxInput && len(v.Edges) != 1 {
					return false
				}
			}
			return true
		},
		genTiers(),
		gen.IntRange(1, 3),
	))

	properties.TestingRun(t)
}

func TestSegment_SplitsPreserveSequence(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("split pieces reassemble into the input edge", prop.ForAll(
		func(tiers []int, threshold int) bool {
			net := gridNetwork(tiers)
			res, err := Segment(net, Options{Threshold: threshold})
			if err != nil {
				return false
			}
			for id, e := range net.Edges {
				if !reflect.DeepEqual(reassemble(res.Network, id), e.Vertices) {
					return false
				}
			}
			return true
		},
		genTiers(),
		gen.IntRange(1, 3),
	))

	properties.TestingRun(t)
}

func TestSegment_PartitionVerifies(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("labels agree with connected components", prop.ForAll(
		func(tiers []int, threshold int) bool {
			_, err := Segment(gridNetwork(tiers), Options{Threshold: threshold, Verify: true})
			return err == nil
		},
		genTiers(),
		gen.IntRange(1, 3),
	))

	properties.TestingRun(t)
}

func TestSegment_HistogramMatchesIslands(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("histogram counts every island once", prop.ForAll(
		func(tiers []int, threshold int) bool {
			res, err := Segment(gridNetwork(tiers), Options{Threshold: threshold})
			if err != nil {
				return false
			}
			islands, edges := 0, 0
			for size, count := range res.Histogram {
				islands += count
				edges += size * count
			}
			return islands == res.IslandCount && edges == res.Stats.IslandEdgesTotal
		},
		genTiers(),
		gen.IntRange(1, 3),
	))

	properties.TestingRun(t)
}

func TestSegment_InputUnchanged(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("segmentation never mutates its input", prop.ForAll(
		func(tiers []int, threshold int) bool {
			net := gridNetwork(tiers)
			before := net.Clone()
			if _, err := Segment(net, Options{Threshold: threshold}); err != nil {
				return false
			}
			return reflect.DeepEqual(before, net)
		},
		genTiers(),
		gen.IntRange(1, 3),
	))

	properties.TestingRun(t)
}
