package osm

import (
	"context"
	"strings"
	"testing"

	"github.com/paulmach/osm"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="45.4200" lon="-75.7000"/>
  <node id="2" lat="45.4210" lon="-75.7000"/>
  <node id="3" lat="45.4210" lon="-75.6990"/>
  <node id="4" lat="45.4300" lon="-75.6000"/>
  <node id="5" lat="45.4400" lon="-75.5000"/>
  <node id="6" lat="45.4500" lon="-75.4000"/>
  <way id="10">
    <nd ref="1"/>
    <nd ref="2"/>
    <nd ref="2"/>
    <nd ref="3"/>
    <tag k="highway" v="residential"/>
    <tag k="name" v="Elgin Street"/>
  </way>
  <way id="11">
    <nd ref="3"/>
    <nd ref="4"/>
    <tag k="building" v="yes"/>
  </way>
  <way id="12">
    <nd ref="4"/>
    <nd ref="99"/>
    <tag k="highway" v="cycleway"/>
  </way>
  <way id="13">
    <nd ref="5"/>
    <nd ref="5"/>
    <tag k="highway" v="footway"/>
  </way>
</osm>`

func TestIsCandidateWay(t *testing.T) {
	tests := []struct {
		name string
		way  osm.Way
		want bool
	}{
		{
			name: "residential road",
			way: osm.Way{
				Nodes: osm.WayNodes{{ID: 1}, {ID: 2}},
				Tags:  osm.Tags{{Key: "highway", Value: "residential"}},
			},
			want: true,
		},
		{
			name: "building outline",
			way: osm.Way{
				Nodes: osm.WayNodes{{ID: 1}, {ID: 2}},
				Tags:  osm.Tags{{Key: "building", Value: "yes"}},
			},
			want: false,
		},
		{
			name: "bicycle tag without highway",
			way: osm.Way{
				Nodes: osm.WayNodes{{ID: 1}, {ID: 2}},
				Tags:  osm.Tags{{Key: "bicycle", Value: "yes"}},
			},
			want: false,
		},
		{
			name: "single node",
			way: osm.Way{
				Nodes: osm.WayNodes{{ID: 1}},
				Tags:  osm.Tags{{Key: "highway", Value: "path"}},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isCandidateWay(&tt.way); got != tt.want {
				t.Errorf("isCandidateWay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDedupeConsecutive(t *testing.T) {
	got := dedupeConsecutive([]osm.NodeID{1, 1, 2, 3, 3, 3, 1})
	want := []osm.NodeID{1, 2, 3, 1}
	if len(got) != len(want) {
		t.Fatalf("dedupeConsecutive = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dedupeConsecutive[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	if FormatFromPath("ottawa.osm.pbf") != FormatPBF {
		t.Error("expected PBF for .osm.pbf")
	}
	if FormatFromPath("OTTAWA.PBF") != FormatPBF {
		t.Error("expected PBF for upper-case .PBF")
	}
	if FormatFromPath("ottawa.osm") != FormatXML {
		t.Error("expected XML for .osm")
	}
}

func TestParseBBox(t *testing.T) {
	b, err := ParseBBox("45.2,-76.0,45.6,-75.4")
	if err != nil {
		t.Fatalf("ParseBBox: %v", err)
	}
	if b.MinLat != 45.2 || b.MinLng != -76.0 || b.MaxLat != 45.6 || b.MaxLng != -75.4 {
		t.Errorf("ParseBBox = %+v", b)
	}
	if !b.Contains(45.42, -75.7) {
		t.Error("expected downtown Ottawa inside bbox")
	}

	if _, err := ParseBBox("45.6,-76.0,45.2,-75.4"); err == nil {
		t.Error("expected error for inverted bbox")
	}
	if _, err := ParseBBox("not a bbox"); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestParseXML(t *testing.T) {
	result, err := Parse(context.Background(), strings.NewReader(sampleXML), ParseOptions{Format: FormatXML})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	// Way 11 has no highway tag, way 12 references a missing node and
	// way 13 collapses to a single node.
	if len(result.Ways) != 1 {
		t.Fatalf("got %d ways, want 1", len(result.Ways))
	}
	w := result.Ways[0]
	if w.ID != 10 {
		t.Errorf("way ID = %d, want 10", w.ID)
	}
	if len(w.NodeIDs) != 3 {
		t.Errorf("way has %d nodes, want 3 after dedupe", len(w.NodeIDs))
	}
	if w.Tags.Find("name") != "Elgin Street" {
		t.Errorf("tags not preserved: %v", w.Tags)
	}

	if len(result.NodeLat) != 3 {
		t.Errorf("kept %d nodes, want 3", len(result.NodeLat))
	}
	if _, ok := result.NodeLat[4]; ok {
		t.Error("node 4 only belongs to dropped ways and should be removed")
	}

	if result.Bounds == nil {
		t.Fatal("expected bounds")
	}
	if result.Bounds.MinLat != 45.42 || result.Bounds.MaxLon != -75.699 {
		t.Errorf("bounds = %+v", result.Bounds)
	}
}

func TestParseXMLBBox(t *testing.T) {
	opts := ParseOptions{
		Format: FormatXML,
		BBox:   BBox{MinLat: 45.0, MaxLat: 45.0001, MinLng: -76, MaxLng: -75},
	}
	result, err := Parse(context.Background(), strings.NewReader(sampleXML), opts)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(result.Ways) != 0 {
		t.Errorf("got %d ways, want 0 outside bbox", len(result.Ways))
	}
	if result.Bounds != nil {
		t.Errorf("expected nil bounds for empty result, got %+v", result.Bounds)
	}
}
