// Package locate finds the island edge nearest to a coordinate.
package locate

import (
	"errors"
	"math"

	"github.com/tidwall/rtree"

	"stress_islands/pkg/geo"
	"stress_islands/pkg/graph"
)

// DefaultMaxDistance is the search radius in meters.
const DefaultMaxDistance = 500.0

// metersPerDegreeLat slightly understates one degree of latitude so the
// search box always covers the full radius.
const metersPerDegreeLat = 111_000.0

// ErrPointTooFar is returned when no indexed segment is within range.
var ErrPointTooFar = errors.New("point too far from any island")

// Match is an edge segment snapped to a query point.
type Match struct {
	Edge    graph.EdgeID
	Island  graph.Tag
	Tier    int
	Segment int     // index of the segment's first vertex in the edge
	Ratio   float64 // 0.0 = at the segment start, 1.0 = at its end
	Dist    float64 // meters from the query point
}

type segment struct {
	edge graph.EdgeID
	idx  int
}

// Index is an R-tree over the segments of the selected edges.
type Index struct {
	tree        rtree.RTreeG[segment]
	net         *graph.Network
	maxDistance float64
	segments    int
}

// NewIndex indexes every segment of the edges accepted by keep. A nil keep
// indexes island edges only. maxDistance <= 0 means DefaultMaxDistance.
func NewIndex(net *graph.Network, keep func(*graph.Edge) bool, maxDistance float64) *Index {
	if keep == nil {
		keep = func(e *graph.Edge) bool { return e.Island.IsIsland() }
	}
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}
	idx := &Index{net: net, maxDistance: maxDistance}
	for _, id := range net.SortedEdgeIDs() {
		e := net.Edges[id]
		if !keep(e) {
			continue
		}
		for i := 1; i < len(e.Vertices); i++ {
			aLat, aLon := net.Coord(e.Vertices[i-1])
			bLat, bLon := net.Coord(e.Vertices[i])
			idx.tree.Insert(
				[2]float64{math.Min(aLon, bLon), math.Min(aLat, bLat)},
				[2]float64{math.Max(aLon, bLon), math.Max(aLat, bLat)},
				segment{edge: id, idx: i - 1},
			)
			idx.segments++
		}
	}
	return idx
}

// Len returns the number of indexed segments.
func (x *Index) Len() int { return x.segments }

// Nearest returns the closest indexed segment to (lat, lon). Ties go to the
// lower edge id so results are deterministic.
func (x *Index) Nearest(lat, lon float64) (Match, error) {
	dLat := x.maxDistance / metersPerDegreeLat
	dLon := dLat
	if c := math.Cos(lat * math.Pi / 180); c > 1e-6 {
		dLon = dLat / c
	}

	best := Match{Dist: math.Inf(1)}
	found := false
	x.tree.Search(
		[2]float64{lon - dLon, lat - dLat},
		[2]float64{lon + dLon, lat + dLat},
		func(_, _ [2]float64, s segment) bool {
			e := x.net.Edges[s.edge]
			aLat, aLon := x.net.Coord(e.Vertices[s.idx])
			bLat, bLon := x.net.Coord(e.Vertices[s.idx+1])
			dist, ratio := geo.PointToSegmentDist(lat, lon, aLat, aLon, bLat, bLon)
			if dist < best.Dist || (dist == best.Dist && s.edge < best.Edge) {
				best = Match{
					Edge:    s.edge,
					Island:  e.Island,
					Tier:    e.Tier,
					Segment: s.idx,
					Ratio:   ratio,
					Dist:    dist,
				}
				found = true
			}
			return true
		},
	)

	if !found || best.Dist > x.maxDistance {
		return Match{}, ErrPointTooFar
	}
	return best, nil
}
