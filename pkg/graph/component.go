package graph

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	// Union by rank.
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the number of elements in the set containing x.
func (uf *UnionFind) Size(x uint32) uint32 {
	return uf.size[uf.Find(x)]
}

// EdgeComponents groups the edges accepted by keep into connected
// components. Two kept edges are connected when a vertex lists both in its
// incident set. Components are ordered by their smallest edge id and the
// edges inside each component are ascending.
func EdgeComponents(n *Network, keep func(*Edge) bool) [][]EdgeID {
	ids := n.SortedEdgeIDs()
	index := make(map[EdgeID]uint32, len(ids))
	var kept []EdgeID
	for _, id := range ids {
		if keep(n.Edges[id]) {
			index[id] = uint32(len(kept))
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	uf := NewUnionFind(uint32(len(kept)))
	for _, v := range n.Vertices {
		first, found := uint32(0), false
		for _, eid := range v.Edges {
			i, ok := index[eid]
			if !ok {
				continue
			}
			if !found {
				first, found = i, true
				continue
			}
			uf.Union(first, i)
		}
	}

	// kept is ascending, so the first edge seen for a root is its smallest.
	rootPos := make(map[uint32]int)
	var comps [][]EdgeID
	for i, id := range kept {
		root := uf.Find(uint32(i))
		pos, ok := rootPos[root]
		if !ok {
			pos = len(comps)
			rootPos[root] = pos
			comps = append(comps, make([]EdgeID, 0, uf.Size(root)))
		}
		comps[pos] = append(comps[pos], id)
	}
	return comps
}
