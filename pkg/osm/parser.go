package osm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
)

// Format identifies the on-disk OSM encoding.
type Format int

const (
	FormatXML Format = iota
	FormatPBF
)

// FormatFromPath guesses the encoding from a file name.
func FormatFromPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(filepath.Base(path)), ".pbf") {
		return FormatPBF
	}
	return FormatXML
}

// RawWay is a highway-tagged way with its tags kept for stress evaluation.
type RawWay struct {
	ID      osm.WayID
	NodeIDs []osm.NodeID
	Tags    osm.Tags
}

// ParseResult holds the output of parsing an OSM file.
type ParseResult struct {
	Ways    []RawWay
	NodeLat map[osm.NodeID]float64
	NodeLon map[osm.NodeID]float64
	Bounds  *osm.Bounds // bounding box of the kept nodes, nil when empty
}

// isCandidateWay reports whether a way can take part in the analysis.
// Anything without a highway tag is skipped at load time; finer
// filtering happens when the stress tier is evaluated.
func isCandidateWay(w *osm.Way) bool {
	if w.Tags.Find("highway") == "" {
		return false
	}
	return len(w.Nodes) >= 2
}

// dedupeConsecutive drops repeated consecutive node references, which some
// editors leave behind and which would otherwise produce zero-length segments.
func dedupeConsecutive(ids []osm.NodeID) []osm.NodeID {
	out := ids[:0]
	for i, id := range ids {
		if i > 0 && id == ids[i-1] {
			continue
		}
		out = append(out, id)
	}
	return out
}

// BBox defines a geographic bounding box for filtering.
// If non-zero, only ways with every node inside the box are kept.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ParseBBox reads "minLat,minLng,maxLat,maxLng".
func ParseBBox(s string) (BBox, error) {
	var b BBox
	if _, err := fmt.Sscanf(s, "%f,%f,%f,%f", &b.MinLat, &b.MinLng, &b.MaxLat, &b.MaxLng); err != nil {
		return BBox{}, fmt.Errorf("invalid bbox %q (expected minLat,minLng,maxLat,maxLng): %w", s, err)
	}
	if b.MinLat > b.MaxLat || b.MinLng > b.MaxLng {
		return BBox{}, fmt.Errorf("invalid bbox %q: min exceeds max", s)
	}
	return b, nil
}

// ParseOptions configures the OSM parser.
type ParseOptions struct {
	Format Format
	BBox   BBox // if non-zero, filter ways to this bounding box
}

type scanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
	Close() error
}

func newScanner(ctx context.Context, r io.Reader, format Format, skipNodes bool) scanner {
	if format == FormatPBF {
		s := osmpbf.New(ctx, r, 1)
		s.SkipNodes = skipNodes
		s.SkipWays = !skipNodes
		s.SkipRelations = true
		return s
	}
	return osmxml.New(ctx, r)
}

// Parse reads an OSM file and returns highway ways with their tags plus the
// coordinates of every node they reference.
// The reader is consumed twice (seeks back to start for the second pass),
// so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opts ...ParseOptions) (*ParseResult, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	useBBox := !opt.BBox.IsZero()

	// Pass 1: Scan ways to collect referenced node IDs.
	referencedNodes := make(map[osm.NodeID]struct{})
	var ways []RawWay

	sc := newScanner(ctx, rs, opt.Format, true)
	for sc.Scan() {
		w, ok := sc.Object().(*osm.Way)
		if !ok {
			continue
		}
		if !isCandidateWay(w) {
			continue
		}

		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
		}
		nodeIDs = dedupeConsecutive(nodeIDs)
		if len(nodeIDs) < 2 {
			continue
		}
		for _, id := range nodeIDs {
			referencedNodes[id] = struct{}{}
		}

		ways = append(ways, RawWay{ID: w.ID, NodeIDs: nodeIDs, Tags: w.Tags})
	}
	if err := sc.Err(); err != nil {
		sc.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	sc.Close()

	slog.Info("pass 1 complete", "ways", len(ways), "referenced_nodes", len(referencedNodes))

	// Pass 2: Scan nodes to collect coordinates for referenced nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodeLat := make(map[osm.NodeID]float64, len(referencedNodes))
	nodeLon := make(map[osm.NodeID]float64, len(referencedNodes))

	sc = newScanner(ctx, rs, opt.Format, false)
	for sc.Scan() {
		n, ok := sc.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referencedNodes[n.ID]; !needed {
			continue
		}
		nodeLat[n.ID] = n.Lat
		nodeLon[n.ID] = n.Lon
	}
	if err := sc.Err(); err != nil {
		sc.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	sc.Close()

	slog.Info("pass 2 complete", "node_coordinates", len(nodeLat))

	// Drop ways that reference missing nodes or leave the bounding box.
	kept := ways[:0]
	var skippedWays, bboxFiltered int
	for _, w := range ways {
		complete, inside := true, true
		for _, id := range w.NodeIDs {
			lat, ok := nodeLat[id]
			if !ok {
				complete = false
				break
			}
			if useBBox && !opt.BBox.Contains(lat, nodeLon[id]) {
				inside = false
			}
		}
		switch {
		case !complete:
			skippedWays++
		case !inside:
			bboxFiltered++
		default:
			kept = append(kept, w)
		}
	}

	if skippedWays > 0 {
		slog.Warn("skipped ways with missing node coordinates", "ways", skippedWays)
	}
	if bboxFiltered > 0 {
		slog.Info("filtered ways outside bounding box", "ways", bboxFiltered)
	}

	// Keep only nodes still referenced by a kept way.
	used := make(map[osm.NodeID]struct{}, len(nodeLat))
	for _, w := range kept {
		for _, id := range w.NodeIDs {
			used[id] = struct{}{}
		}
	}
	var bounds *osm.Bounds
	for id := range nodeLat {
		if _, ok := used[id]; !ok {
			delete(nodeLat, id)
			delete(nodeLon, id)
			continue
		}
		lat, lon := nodeLat[id], nodeLon[id]
		if bounds == nil {
			bounds = &osm.Bounds{MinLat: lat, MaxLat: lat, MinLon: lon, MaxLon: lon}
			continue
		}
		bounds.MinLat = min(bounds.MinLat, lat)
		bounds.MaxLat = max(bounds.MaxLat, lat)
		bounds.MinLon = min(bounds.MinLon, lon)
		bounds.MaxLon = max(bounds.MaxLon, lon)
	}

	slog.Info("parsed network", "ways", len(kept), "nodes", len(nodeLat))

	return &ParseResult{
		Ways:    kept,
		NodeLat: nodeLat,
		NodeLon: nodeLon,
		Bounds:  bounds,
	}, nil
}
