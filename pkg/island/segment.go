// Package island decomposes a classified network into maximal connected
// groups of low-stress edges separated by high-stress crossings.
package island

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"stress_islands/pkg/graph"
)

// DefaultThreshold is the highest tier still crossable at an intersection.
const DefaultThreshold = 2

var (
	// ErrMalformed reports input that violates the network invariants.
	ErrMalformed = errors.New("malformed network")
	// ErrInvariant reports an internal consistency failure during segmentation.
	ErrInvariant = errors.New("segmentation invariant violated")
)

// Options configures a segmentation run.
type Options struct {
	// Threshold is the passability threshold. Edges with a higher tier are
	// excluded and block crossings; tier-0 edges are excluded but never block.
	Threshold int

	// Verify cross-checks the final partition against an independent
	// connected-components pass.
	Verify bool
}

// DefaultOptions returns Options with the default threshold.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold}
}

// Stats counts the structural changes made while cutting.
type Stats struct {
	Excluded         int `json:"excluded" yaml:"excluded"`
	Seeds            int `json:"seeds" yaml:"seeds"`
	Splits           int `json:"splits" yaml:"splits"`
	StartSevers      int `json:"start_severs" yaml:"start_severs"`
	EndSevers        int `json:"end_severs" yaml:"end_severs"`
	VerticesAdded    int `json:"vertices_added" yaml:"vertices_added"`
	EdgesAdded       int `json:"edges_added" yaml:"edges_added"`
	LargestIsland    int `json:"largest_island" yaml:"largest_island"`
	IslandEdgesTotal int `json:"island_edges" yaml:"island_edges"`
}

// Result is the output of Segment.
type Result struct {
	// Network is the segmented working copy. Every edge carries a final tag.
	Network *graph.Network

	IslandCount int

	// Histogram maps an island's edge count to how many islands have it.
	Histogram map[int]int

	// Islands maps each island id to its edges in ascending id order.
	Islands map[graph.Tag][]graph.EdgeID

	Stats Stats
}

// segmenter holds the mutable state of one run.
type segmenter struct {
	net       *graph.Network
	threshold int

	nextVertex graph.VertexID
	nextEdge   graph.EdgeID

	work  []graph.EdgeID
	stats Stats
}

// Segment labels every low-stress edge of a copy of net with an island id.
// net itself is never modified.
func Segment(net *graph.Network, opts Options) (*Result, error) {
	if opts.Threshold <= 0 {
		return nil, fmt.Errorf("%w: passability threshold must be positive, got %d", ErrMalformed, opts.Threshold)
	}
	if err := net.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	s := &segmenter{
		net:       net.Clone(),
		threshold: opts.Threshold,
	}
	for _, e := range s.net.Edges {
		e.Island = graph.Unvisited
	}
	s.nextVertex, s.nextEdge = s.net.MaxIDs()

	s.cutAll()
	slog.Debug("pass 1 complete",
		"seeds", s.stats.Seeds,
		"excluded", s.stats.Excluded,
		"splits", s.stats.Splits,
		"severs", s.stats.StartSevers+s.stats.EndSevers,
	)

	count := s.label()
	slog.Debug("pass 2 complete", "islands", count)

	res, err := s.aggregate(count)
	if err != nil {
		return nil, err
	}

	if opts.Verify {
		if err := verify(res, s.threshold); err != nil {
			return nil, err
		}
	}

	slog.Info("segmentation complete",
		"islands", res.IslandCount,
		"island_edges", res.Stats.IslandEdgesTotal,
		"excluded", res.Stats.Excluded,
		"vertices_added", res.Stats.VerticesAdded,
		"edges_added", res.Stats.EdgesAdded,
	)
	return res, nil
}

// cutAll runs pass 1 over every input edge in ascending id order. Edges
// fabricated by a split are cut before the next input edge.
func (s *segmenter) cutAll() {
	for _, id := range s.net.SortedEdgeIDs() {
		if s.net.Edges[id].Island != graph.Unvisited {
			continue
		}
		s.work = append(s.work[:0], id)
		for len(s.work) > 0 {
			eid := s.work[len(s.work)-1]
			s.work = s.work[:len(s.work)-1]
			s.cut(eid)
		}
	}
}

// cut classifies one edge and severs it at every impassable crossing.
func (s *segmenter) cut(id graph.EdgeID) {
	e := s.net.Edges[id]
	if e.Island != graph.Unvisited {
		return
	}
	if e.Tier == 0 || e.Tier > s.threshold {
		e.Island = graph.Excluded
		s.stats.Excluded++
		return
	}
	e.Island = graph.Seed
	s.stats.Seeds++

	seq := slices.Clone(e.Vertices)
	last := len(seq) - 1
	for k, vid := range seq {
		if !s.impassable(vid, id) {
			continue
		}
		switch k {
		case 0:
			s.severStart(e)
		case last:
			s.severEnd(e)
		default:
			s.work = append(s.work, s.split(e, k))
			return
		}
	}
}

// impassable reports whether vertex v joins edge id to any edge whose tier
// exceeds the threshold.
func (s *segmenter) impassable(v graph.VertexID, id graph.EdgeID) bool {
	vert := s.net.Vertices[v]
	if len(vert.Edges) < 2 {
		return false
	}
	for _, other := range vert.Edges {
		if other != id && s.net.Edges[other].Tier > s.threshold {
			return true
		}
	}
	return false
}

// cloneVertex fabricates a private copy of v owned by edge e alone.
func (s *segmenter) cloneVertex(v graph.VertexID, e graph.EdgeID) graph.VertexID {
	orig := s.net.Vertices[v]
	s.nextVertex++
	c := s.net.AddVertex(s.nextVertex, orig.Lat, orig.Lon)
	c.Origin = orig.ID
	if orig.Origin != 0 {
		c.Origin = orig.Origin
	}
	c.Edges = []graph.EdgeID{e}
	s.stats.VerticesAdded++
	return c.ID
}

// replaceAt swaps the vertex at position i of e for a private clone.
// e stays attached to the original vertex if it still passes through it.
func (s *segmenter) replaceAt(e *graph.Edge, i int) {
	orig := e.Vertices[i]
	e.Vertices[i] = s.cloneVertex(orig, e.ID)
	if !slices.Contains(e.Vertices, orig) {
		s.net.Detach(orig, e.ID)
	}
}

func (s *segmenter) severStart(e *graph.Edge) {
	s.replaceAt(e, 0)
	s.stats.StartSevers++
}

func (s *segmenter) severEnd(e *graph.Edge) {
	s.replaceAt(e, len(e.Vertices)-1)
	s.stats.EndSevers++
}

// split cuts e at interior position k. e keeps [0..k] and the returned new
// edge takes [k..end]; both are severed at the cut vertex.
func (s *segmenter) split(e *graph.Edge, k int) graph.EdgeID {
	s.nextEdge++
	tail := &graph.Edge{
		ID:       s.nextEdge,
		Vertices: slices.Clone(e.Vertices[k:]),
		Tier:     e.Tier,
		Island:   graph.Unvisited,
		Origin:   e.ID,
	}
	if e.Origin != 0 {
		tail.Origin = e.Origin
	}
	s.net.Edges[tail.ID] = tail
	s.stats.EdgesAdded++
	s.stats.Splits++

	moved := e.Vertices[k+1:]
	e.Vertices = e.Vertices[: k+1 : k+1]
	for _, vid := range moved {
		if !slices.Contains(e.Vertices, vid) {
			s.net.Detach(vid, e.ID)
		}
		s.net.Attach(vid, tail.ID)
	}

	s.severEnd(e)

	// The tail was never attached at its first vertex unless it passes
	// through it again further along.
	cut := tail.Vertices[0]
	tail.Vertices[0] = s.cloneVertex(cut, tail.ID)
	if !slices.Contains(tail.Vertices, cut) {
		s.net.Detach(cut, tail.ID)
	}
	s.stats.StartSevers++

	return tail.ID
}

// label runs pass 2: an explicit-stack flood fill over seed edges.
// It returns the number of islands assigned.
func (s *segmenter) label() int {
	next := graph.FirstIsland
	var stack []graph.EdgeID
	for _, id := range s.net.SortedEdgeIDs() {
		if s.net.Edges[id].Island != graph.Seed {
			continue
		}
		labelled := 0
		stack = append(stack[:0], id)
		for len(stack) > 0 {
			eid := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			e := s.net.Edges[eid]
			if e.Island != graph.Seed {
				continue
			}
			e.Island = next
			labelled++
			for _, vid := range e.Vertices {
				for _, other := range s.net.Vertices[vid].Edges {
					if other != eid && s.net.Edges[other].Island == graph.Seed {
						stack = append(stack, other)
					}
				}
			}
		}
		if labelled > 0 {
			next++
		}
	}
	return int(next - graph.FirstIsland)
}

// aggregate runs pass 3, grouping edges by island and building the histogram.
func (s *segmenter) aggregate(count int) (*Result, error) {
	res := &Result{
		Network:     s.net,
		IslandCount: count,
		Histogram:   make(map[int]int),
		Islands:     make(map[graph.Tag][]graph.EdgeID, count),
	}
	for _, id := range s.net.SortedEdgeIDs() {
		tag := s.net.Edges[id].Island
		switch {
		case tag == graph.Excluded:
			continue
		case !tag.IsIsland():
			return nil, fmt.Errorf("%w: pass 3: edge %d still %s after labelling", ErrInvariant, id, tag)
		}
		res.Islands[tag] = append(res.Islands[tag], id)
	}
	if len(res.Islands) != count {
		return nil, fmt.Errorf("%w: pass 3: %d islands labelled but %d found", ErrInvariant, count, len(res.Islands))
	}

	res.Stats = s.stats
	for _, edges := range res.Islands {
		res.Histogram[len(edges)]++
		res.Stats.IslandEdgesTotal += len(edges)
		res.Stats.LargestIsland = max(res.Stats.LargestIsland, len(edges))
	}
	return res, nil
}
