package output

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/paulmach/osm"

	"stress_islands/pkg/graph"
)

// Generator is written into OSM XML headers.
const Generator = "stress_islands"

// LevelOSM returns an OSM document holding the edges of one tier and the
// nodes they reference.
func LevelOSM(net *graph.Network, tier int, bounds *osm.Bounds) *osm.OSM {
	doc := &osm.OSM{
		Version:   "0.6",
		Generator: Generator,
		Bounds:    bounds,
	}
	seen := make(map[graph.VertexID]bool)
	for _, id := range net.SortedEdgeIDs() {
		e := net.Edges[id]
		if e.Tier != tier {
			continue
		}
		w := &osm.Way{
			ID:      osm.WayID(id),
			Version: 1,
			Visible: true,
			Nodes:   make(osm.WayNodes, len(e.Vertices)),
			Tags:    osm.Tags{{Key: "lts", Value: fmt.Sprint(tier)}},
		}
		for i, vid := range e.Vertices {
			w.Nodes[i] = osm.WayNode{ID: osm.NodeID(vid)}
			if seen[vid] {
				continue
			}
			seen[vid] = true
			lat, lon := net.Coord(vid)
			doc.Nodes = append(doc.Nodes, &osm.Node{
				ID:      osm.NodeID(vid),
				Lat:     lat,
				Lon:     lon,
				Version: 1,
				Visible: true,
			})
		}
		doc.Ways = append(doc.Ways, w)
	}
	return doc
}

// xmlDoc is the OSM 0.6 file layout written for level files. osm.OSM
// encodes its bounds under the Go type name and every object with empty
// changeset and user metadata, so level files go through these instead.
type xmlDoc struct {
	XMLName   xml.Name   `xml:"osm"`
	Version   string     `xml:"version,attr"`
	Generator string     `xml:"generator,attr"`
	Bounds    *xmlBounds `xml:"bounds,omitempty"`
	Nodes     []xmlNode  `xml:"node"`
	Ways      []xmlWay   `xml:"way"`
}

type xmlBounds struct {
	MinLat float64 `xml:"minlat,attr"`
	MinLon float64 `xml:"minlon,attr"`
	MaxLat float64 `xml:"maxlat,attr"`
	MaxLon float64 `xml:"maxlon,attr"`
}

type xmlNode struct {
	ID      int64   `xml:"id,attr"`
	Version int     `xml:"version,attr"`
	Lat     float64 `xml:"lat,attr"`
	Lon     float64 `xml:"lon,attr"`
}

type xmlWay struct {
	ID      int64    `xml:"id,attr"`
	Version int      `xml:"version,attr"`
	Nodes   []xmlRef `xml:"nd"`
	Tags    []xmlTag `xml:"tag"`
}

type xmlRef struct {
	Ref int64 `xml:"ref,attr"`
}

type xmlTag struct {
	Key   string `xml:"k,attr"`
	Value string `xml:"v,attr"`
}

func toXMLDoc(doc *osm.OSM) xmlDoc {
	out := xmlDoc{
		Version:   doc.Version,
		Generator: doc.Generator,
		Nodes:     make([]xmlNode, 0, len(doc.Nodes)),
		Ways:      make([]xmlWay, 0, len(doc.Ways)),
	}
	if b := doc.Bounds; b != nil {
		out.Bounds = &xmlBounds{MinLat: b.MinLat, MinLon: b.MinLon, MaxLat: b.MaxLat, MaxLon: b.MaxLon}
	}
	for _, n := range doc.Nodes {
		out.Nodes = append(out.Nodes, xmlNode{ID: int64(n.ID), Version: max(n.Version, 1), Lat: n.Lat, Lon: n.Lon})
	}
	for _, w := range doc.Ways {
		xw := xmlWay{ID: int64(w.ID), Version: max(w.Version, 1)}
		for _, wn := range w.Nodes {
			xw.Nodes = append(xw.Nodes, xmlRef{Ref: int64(wn.ID)})
		}
		for _, t := range w.Tags {
			xw.Tags = append(xw.Tags, xmlTag{Key: t.Key, Value: t.Value})
		}
		out.Ways = append(out.Ways, xw)
	}
	return out
}

// MarshalOSM encodes doc as indented OSM 0.6 XML with a declaration.
// Objects carry id, version and coordinates only.
func MarshalOSM(doc *osm.OSM) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", " ")
	if err := enc.Encode(toXMLDoc(doc)); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
