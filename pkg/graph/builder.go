package graph

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/paulmach/osm"

	osmparser "stress_islands/pkg/osm"
)

// Build creates a classified Network from parsed OSM ways. tiers maps each
// way to its stress tier; ways missing from tiers are skipped.
func Build(result *osmparser.ParseResult, tiers map[osm.WayID]int) (*Network, error) {
	n := NewNetwork()
	if len(result.Ways) == 0 {
		return n, nil
	}

	// Step 1: Add every referenced node as a vertex.
	for _, w := range result.Ways {
		if _, ok := tiers[w.ID]; !ok {
			continue
		}
		for _, id := range w.NodeIDs {
			vid := VertexID(id)
			if _, ok := n.Vertices[vid]; ok {
				continue
			}
			lat, ok := result.NodeLat[id]
			if !ok {
				return nil, fmt.Errorf("way %d references node %d without coordinates", w.ID, id)
			}
			n.AddVertex(vid, lat, result.NodeLon[id])
		}
	}

	// Step 2: Add edges in way-id order so incident lists are deterministic.
	ways := slices.Clone(result.Ways)
	slices.SortFunc(ways, func(a, b osmparser.RawWay) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	var skipped int
	for _, w := range ways {
		tier, ok := tiers[w.ID]
		if !ok {
			skipped++
			continue
		}
		vids := make([]VertexID, len(w.NodeIDs))
		for i, id := range w.NodeIDs {
			vids[i] = VertexID(id)
		}
		if _, err := n.AddEdge(EdgeID(w.ID), tier, vids...); err != nil {
			return nil, fmt.Errorf("build: %w", err)
		}
	}

	if skipped > 0 {
		slog.Warn("ways without a tier were skipped", "ways", skipped)
	}
	slog.Info("built network", "vertices", len(n.Vertices), "edges", len(n.Edges))

	return n, nil
}
