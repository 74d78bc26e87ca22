// Package boundary traces the outer contour of an island of edges.
package boundary

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/paulmach/orb"

	"stress_islands/pkg/geo"
	"stress_islands/pkg/graph"
)

// DefaultMaxPoints caps the length of a traced ring.
const DefaultMaxPoints = 100_000

var (
	// ErrTraceNotTerminated means the walk exceeded the point cap without
	// closing, which indicates a malformed island.
	ErrTraceNotTerminated = errors.New("boundary trace did not terminate")
	// ErrEmptyIsland means no edges were given.
	ErrEmptyIsland = errors.New("island has no edges")
)

// Options configures a single trace.
type Options struct {
	MaxPoints int // 0 means DefaultMaxPoints
}

// tracer walks one island. It only reads the network.
type tracer struct {
	net    *graph.Network
	edges  map[graph.EdgeID]struct{}
	coords map[graph.VertexID]orb.Point
}

func newTracer(ids []graph.EdgeID, net *graph.Network) (*tracer, error) {
	t := &tracer{
		net:    net,
		edges:  make(map[graph.EdgeID]struct{}, len(ids)),
		coords: make(map[graph.VertexID]orb.Point),
	}
	for _, id := range ids {
		e, ok := net.Edges[id]
		if !ok {
			return nil, fmt.Errorf("unknown edge %d", id)
		}
		t.edges[id] = struct{}{}
		for _, vid := range e.Vertices {
			if _, ok := t.coords[vid]; ok {
				continue
			}
			v, ok := net.Vertices[vid]
			if !ok {
				return nil, fmt.Errorf("edge %d references unknown vertex %d", id, vid)
			}
			t.coords[vid] = orb.Point{v.Lon, v.Lat}
		}
	}
	return t, nil
}

// start returns the easternmost vertex, preferring the lowest id on ties.
func (t *tracer) start() graph.VertexID {
	ids := make([]graph.VertexID, 0, len(t.coords))
	for id := range t.coords {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	best := ids[0]
	for _, id := range ids[1:] {
		if t.coords[id][0] > t.coords[best][0] {
			best = id
		}
	}
	return best
}

// neighbours lists the distinct vertices one edge step away from v along
// island edges, in incident-set order.
func (t *tracer) neighbours(v graph.VertexID) []graph.VertexID {
	var out []graph.VertexID
	add := func(n graph.VertexID) {
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	for _, eid := range t.net.Vertices[v].Edges {
		if _, ok := t.edges[eid]; !ok {
			continue
		}
		seq := t.net.Edges[eid].Vertices
		for i, id := range seq {
			if id != v {
				continue
			}
			if i > 0 {
				add(seq[i-1])
			}
			if i < len(seq)-1 {
				add(seq[i+1])
			}
		}
	}
	return out
}

func (t *tracer) bearing(from, to graph.VertexID) float64 {
	a, b := t.coords[from], t.coords[to]
	return geo.ClockwiseBearing(a[1], a[0], b[1], b[0])
}

// next picks the most clockwise turn from cur relative to heading ref.
// prev is only returned when it is the sole candidate.
func (t *tracer) next(cur, prev graph.VertexID, hasPrev bool, ref float64) (graph.VertexID, float64, bool) {
	var (
		best     graph.VertexID
		bestB    float64
		minAngle = 360.0
		found    bool
	)
	for _, n := range t.neighbours(cur) {
		b := t.bearing(cur, n)
		if hasPrev && n == prev {
			if !found {
				best, bestB, found = n, b, true
				minAngle = 360
			}
			continue
		}
		eff := math.Mod(360-ref+b+360, 360)
		if eff < minAngle {
			best, bestB, minAngle, found = n, b, eff, true
		}
	}
	return best, bestB, found
}

// Trace walks the outer contour of the island formed by edges and returns
// it as a closed ring of lon/lat points. The walk starts at the easternmost
// vertex and always takes the most clockwise turn, so the ring is wound
// clockwise.
func Trace(edges []graph.EdgeID, net *graph.Network, opts Options) (orb.Ring, error) {
	if len(edges) == 0 {
		return nil, ErrEmptyIsland
	}
	maxPoints := opts.MaxPoints
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}

	t, err := newTracer(edges, net)
	if err != nil {
		return nil, err
	}

	start := t.start()
	cur := start
	var (
		prev    graph.VertexID
		hasPrev bool
		ref     float64
		closing graph.VertexID
	)
	ring := orb.Ring{t.coords[start]}

	for first := true; ; first = false {
		nxt, b, ok := t.next(cur, prev, hasPrev, ref)
		if !ok {
			return nil, fmt.Errorf("vertex %d has no neighbour in the island", cur)
		}
		if first {
			closing = nxt
		} else if cur == start && nxt == closing {
			return ring, nil
		}

		prev, hasPrev = cur, true
		cur = nxt
		ref = geo.Reverse(b)
		ring = append(ring, t.coords[cur])
		if len(ring) > maxPoints {
			return nil, fmt.Errorf("%w: %d points from start vertex %d, last at vertex %d",
				ErrTraceNotTerminated, len(ring), start, cur)
		}
	}
}
