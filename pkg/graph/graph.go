package graph

import (
	"fmt"
	"slices"
)

// VertexID identifies a vertex. Input vertices keep their OSM node id;
// fabricated vertices get ids above the largest input id.
type VertexID int64

// EdgeID identifies an edge. Input edges keep their OSM way id.
type EdgeID int64

// Tag is the island state of an edge.
type Tag int

const (
	Excluded  Tag = -1 // tier 0 or above the passability threshold
	Unvisited Tag = 0
	Seed      Tag = 1 // transient, only valid during segmentation
	// FirstIsland is the smallest concrete island id.
	FirstIsland Tag = 2
)

// IsIsland reports whether t is a concrete island id.
func (t Tag) IsIsland() bool { return t >= FirstIsland }

func (t Tag) String() string {
	switch t {
	case Excluded:
		return "excluded"
	case Unvisited:
		return "unvisited"
	case Seed:
		return "seed"
	}
	return fmt.Sprintf("island(%d)", int(t))
}

// Vertex is a point shared by one or more edges.
type Vertex struct {
	ID  VertexID
	Lat float64
	Lon float64

	// Edges lists every edge whose vertex sequence contains this vertex.
	// Order is insertion order and carries no meaning.
	Edges []EdgeID

	// Origin is the vertex this one was cloned from, 0 for input vertices.
	Origin VertexID
}

// Edge is an ordered polyline of vertices with a stress tier.
type Edge struct {
	ID       EdgeID
	Vertices []VertexID
	Tier     int
	Island   Tag

	// Origin is the input edge this one was split from, 0 for input edges.
	Origin EdgeID
}

// First returns the first vertex id.
func (e *Edge) First() VertexID { return e.Vertices[0] }

// Last returns the last vertex id.
func (e *Edge) Last() VertexID { return e.Vertices[len(e.Vertices)-1] }

// Network is an arena of vertices and edges addressed by id.
type Network struct {
	Vertices map[VertexID]*Vertex
	Edges    map[EdgeID]*Edge
}

// NewNetwork returns an empty network.
func NewNetwork() *Network {
	return &Network{
		Vertices: make(map[VertexID]*Vertex),
		Edges:    make(map[EdgeID]*Edge),
	}
}

// AddVertex inserts a vertex with no incident edges.
func (n *Network) AddVertex(id VertexID, lat, lon float64) *Vertex {
	v := &Vertex{ID: id, Lat: lat, Lon: lon}
	n.Vertices[id] = v
	return v
}

// AddEdge inserts an edge and registers it with each of its vertices.
// Vertices must already exist.
func (n *Network) AddEdge(id EdgeID, tier int, vertices ...VertexID) (*Edge, error) {
	if _, dup := n.Edges[id]; dup {
		return nil, fmt.Errorf("edge %d already exists", id)
	}
	for _, vid := range vertices {
		if _, ok := n.Vertices[vid]; !ok {
			return nil, fmt.Errorf("edge %d references unknown vertex %d", id, vid)
		}
	}
	e := &Edge{ID: id, Vertices: slices.Clone(vertices), Tier: tier}
	n.Edges[id] = e
	for _, vid := range vertices {
		n.Attach(vid, id)
	}
	return e, nil
}

// Attach records edge e as incident to vertex v if it is not already.
func (n *Network) Attach(v VertexID, e EdgeID) {
	vert := n.Vertices[v]
	if !slices.Contains(vert.Edges, e) {
		vert.Edges = append(vert.Edges, e)
	}
}

// Detach removes edge e from vertex v's incident set.
func (n *Network) Detach(v VertexID, e EdgeID) {
	vert := n.Vertices[v]
	if i := slices.Index(vert.Edges, e); i >= 0 {
		vert.Edges = slices.Delete(vert.Edges, i, i+1)
	}
}

// Coord returns the latitude and longitude of a vertex.
func (n *Network) Coord(v VertexID) (lat, lon float64) {
	vert := n.Vertices[v]
	return vert.Lat, vert.Lon
}

// Clone returns a deep copy. Mutating the copy never affects n.
func (n *Network) Clone() *Network {
	c := &Network{
		Vertices: make(map[VertexID]*Vertex, len(n.Vertices)),
		Edges:    make(map[EdgeID]*Edge, len(n.Edges)),
	}
	for id, v := range n.Vertices {
		cv := *v
		cv.Edges = slices.Clone(v.Edges)
		c.Vertices[id] = &cv
	}
	for id, e := range n.Edges {
		ce := *e
		ce.Vertices = slices.Clone(e.Vertices)
		c.Edges[id] = &ce
	}
	return c
}

// SortedEdgeIDs returns all edge ids in ascending order.
func (n *Network) SortedEdgeIDs() []EdgeID {
	ids := make([]EdgeID, 0, len(n.Edges))
	for id := range n.Edges {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SortedVertexIDs returns all vertex ids in ascending order.
func (n *Network) SortedVertexIDs() []VertexID {
	ids := make([]VertexID, 0, len(n.Vertices))
	for id := range n.Vertices {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// MaxIDs returns the largest vertex and edge ids, floored at zero.
func (n *Network) MaxIDs() (VertexID, EdgeID) {
	var mv VertexID
	var me EdgeID
	for id := range n.Vertices {
		mv = max(mv, id)
	}
	for id := range n.Edges {
		me = max(me, id)
	}
	return mv, me
}

// Validate checks the structural invariants: every edge has at least two
// vertices, no consecutive duplicates, references only known vertices, and
// vertex incident sets agree with edge vertex sequences in both directions.
func (n *Network) Validate() error {
	for _, id := range n.SortedEdgeIDs() {
		e := n.Edges[id]
		if e.ID != id {
			return fmt.Errorf("edge key %d holds edge %d", id, e.ID)
		}
		if len(e.Vertices) < 2 {
			return fmt.Errorf("edge %d has %d vertices, need at least 2", id, len(e.Vertices))
		}
		for i, vid := range e.Vertices {
			v, ok := n.Vertices[vid]
			if !ok {
				return fmt.Errorf("edge %d references unknown vertex %d", id, vid)
			}
			if i > 0 && e.Vertices[i-1] == vid {
				return fmt.Errorf("edge %d repeats vertex %d at position %d", id, vid, i)
			}
			if !slices.Contains(v.Edges, id) {
				return fmt.Errorf("vertex %d does not list edge %d", vid, id)
			}
		}
	}
	for _, vid := range n.SortedVertexIDs() {
		v := n.Vertices[vid]
		for _, eid := range v.Edges {
			e, ok := n.Edges[eid]
			if !ok {
				return fmt.Errorf("vertex %d lists unknown edge %d", vid, eid)
			}
			if !slices.Contains(e.Vertices, vid) {
				return fmt.Errorf("vertex %d lists edge %d which does not contain it", vid, eid)
			}
		}
	}
	return nil
}
