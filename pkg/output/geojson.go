// Package output writes classified networks, islands and boundaries as
// GeoJSON or OSM XML.
package output

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"stress_islands/pkg/boundary"
	"stress_islands/pkg/geo"
	"stress_islands/pkg/graph"
)

// lineString returns the lon/lat geometry of an edge.
func lineString(net *graph.Network, e *graph.Edge) orb.LineString {
	ls := make(orb.LineString, len(e.Vertices))
	for i, vid := range e.Vertices {
		lat, lon := net.Coord(vid)
		ls[i] = orb.Point{lon, lat}
	}
	return ls
}

func edgeLength(ls orb.LineString) float64 {
	lats := make([]float64, len(ls))
	lons := make([]float64, len(ls))
	for i, p := range ls {
		lons[i], lats[i] = p[0], p[1]
	}
	return geo.PolylineLength(lats, lons)
}

// LevelFeatures returns one LineString feature per edge of the given tier.
func LevelFeatures(net *graph.Network, tier int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, id := range net.SortedEdgeIDs() {
		e := net.Edges[id]
		if e.Tier != tier {
			continue
		}
		f := geojson.NewFeature(lineString(net, e))
		f.ID = fmt.Sprintf("way/%d", id)
		f.Properties["id"] = f.ID
		fc.Append(f)
	}
	return fc
}

// IslandEdgeFeatures returns one LineString feature per island edge.
func IslandEdgeFeatures(net *graph.Network) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, id := range net.SortedEdgeIDs() {
		e := net.Edges[id]
		if !e.Island.IsIsland() {
			continue
		}
		origin := e.Origin
		if origin == 0 {
			origin = e.ID
		}
		ls := lineString(net, e)
		f := geojson.NewFeature(ls)
		f.ID = fmt.Sprintf("way/%d", id)
		f.Properties["island"] = int(e.Island)
		f.Properties["tier"] = e.Tier
		f.Properties["origin"] = int64(origin)
		f.Properties["length_m"] = edgeLength(ls)
		fc.Append(f)
	}
	return fc
}

// BoundaryFeatures returns one Polygon per successfully traced island.
// Exterior rings are wound counter-clockwise. Failed traces and rings
// enclosing no area are skipped.
func BoundaryFeatures(boundaries []boundary.IslandBoundary) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, b := range boundaries {
		if b.Err != nil {
			continue
		}
		if !b.IsPolygon() {
			slog.Debug("skipping degenerate boundary", "island", int(b.Island), "edges", b.Edges, "points", len(b.Ring))
			continue
		}
		ring := b.Ring.Clone()
		if ring.Orientation() == orb.CW {
			ring.Reverse()
		}
		f := geojson.NewFeature(orb.Polygon{ring})
		f.ID = fmt.Sprintf("island/%d", int(b.Island))
		f.Properties["island"] = int(b.Island)
		f.Properties["edges"] = b.Edges
		f.Properties["area_deg2"] = b.Area
		fc.Append(f)
	}
	return fc
}

// WriteFeatureCollection writes fc to path, replacing any existing file
// only once the new content is complete.
func WriteFeatureCollection(path string, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never see a partial file.
func WriteFileAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
