package island

import (
	"fmt"

	"stress_islands/pkg/graph"
)

// verify checks the labelled partition independently of the flood fill:
// connected components of island edges must coincide with island ids,
// no island edge may touch an edge above the threshold, and every
// fabricated vertex must belong to exactly one edge.
func verify(res *Result, threshold int) error {
	net := res.Network

	comps := graph.EdgeComponents(net, func(e *graph.Edge) bool { return e.Island.IsIsland() })
	if len(comps) != res.IslandCount {
		return fmt.Errorf("%w: verify: %d connected components but %d islands", ErrInvariant, len(comps), res.IslandCount)
	}
	seen := make(map[graph.Tag]bool, len(comps))
	for _, comp := range comps {
		tag := net.Edges[comp[0]].Island
		if seen[tag] {
			return fmt.Errorf("%w: verify: island %d spans disconnected components", ErrInvariant, tag)
		}
		seen[tag] = true
		for _, id := range comp[1:] {
			if got := net.Edges[id].Island; got != tag {
				return fmt.Errorf("%w: verify: edge %d labelled %d but connected to island %d", ErrInvariant, id, got, tag)
			}
		}
	}

	for _, edges := range res.Islands {
		for _, id := range edges {
			for _, vid := range net.Edges[id].Vertices {
				for _, other := range net.Vertices[vid].Edges {
					if other != id && net.Edges[other].Tier > threshold {
						return fmt.Errorf("%w: verify: island edge %d meets edge %d at vertex %d", ErrInvariant, id, other, vid)
					}
				}
			}
		}
	}

	for _, v := range net.Vertices {
		if v.Origin != 0 && len(v.Edges) != 1 {
			return fmt.Errorf("%w: verify: fabricated vertex %d has %d incident edges", ErrInvariant, v.ID, len(v.Edges))
		}
	}

	if err := net.Validate(); err != nil {
		return fmt.Errorf("%w: verify: %w", ErrInvariant, err)
	}
	return nil
}
