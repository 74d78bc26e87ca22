package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/osm"

	"stress_islands/pkg/graph"
	osmparser "stress_islands/pkg/osm"
	"stress_islands/pkg/stress"
)

// isSnapshot reports whether path names a preprocessed network.
func isSnapshot(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".bin")
}

// loadNetwork reads a classified network from an OSM extract or a
// snapshot written by preprocess.
func (a *app) loadNetwork(ctx context.Context, path string) (*graph.Network, *osm.Bounds, error) {
	start := time.Now()

	if isSnapshot(path) {
		net, err := graph.ReadBinary(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read snapshot: %w", err)
		}
		slog.Info("loaded snapshot",
			"path", path,
			"vertices", len(net.Vertices),
			"edges", len(net.Edges),
			"elapsed", time.Since(start).Round(time.Millisecond))
		return net, networkBounds(net), nil
	}

	bbox, err := a.cfg.BBox()
	if err != nil {
		return nil, nil, err
	}
	if !bbox.IsZero() {
		slog.Info("using bounding box filter",
			"min_lat", bbox.MinLat, "max_lat", bbox.MaxLat,
			"min_lng", bbox.MinLng, "max_lng", bbox.MaxLng)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	parsed, err := osmparser.Parse(ctx, f, osmparser.ParseOptions{
		Format: osmparser.FormatFromPath(path),
		BBox:   bbox,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}

	tiers, _, err := stress.Evaluate(parsed.Ways, stress.Options{Strict: a.cfg.Analysis.Strict})
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate stress: %w", err)
	}

	net, err := graph.Build(parsed, tiers)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("loaded extract", "path", path, "elapsed", time.Since(start).Round(time.Millisecond))
	return net, parsed.Bounds, nil
}

// networkBounds returns the bounding box of every vertex, nil when empty.
func networkBounds(net *graph.Network) *osm.Bounds {
	var b *osm.Bounds
	for _, v := range net.Vertices {
		if b == nil {
			b = &osm.Bounds{MinLat: v.Lat, MaxLat: v.Lat, MinLon: v.Lon, MaxLon: v.Lon}
			continue
		}
		b.MinLat = min(b.MinLat, v.Lat)
		b.MaxLat = max(b.MaxLat, v.Lat)
		b.MinLon = min(b.MinLon, v.Lon)
		b.MaxLon = max(b.MaxLon, v.Lon)
	}
	return b
}
