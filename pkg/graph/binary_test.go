package graph_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"stress_islands/pkg/graph"
)

func buildTestNetwork(t *testing.T) *graph.Network {
	t.Helper()
	n := graph.NewNetwork()
	n.AddVertex(10, 45.40, -75.70)
	n.AddVertex(20, 45.41, -75.70)
	n.AddVertex(30, 45.41, -75.69)
	v := n.AddVertex(40, 45.40, -75.69)
	v.Origin = 30
	if _, err := n.AddEdge(3, 1, 30, 20, 10); err != nil {
		t.Fatal(err)
	}
	e, err := n.AddEdge(4, 2, 10, 40)
	if err != nil {
		t.Fatal(err)
	}
	e.Island = graph.FirstIsland
	e.Origin = 3
	return n
}

func TestBinaryRoundTrip(t *testing.T) {
	original := buildTestNetwork(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "test.net.bin")

	if err := graph.WriteBinary(path, original); err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}

	loaded, err := graph.ReadBinary(path)
	if err != nil {
		t.Fatalf("ReadBinary: %v", err)
	}

	if len(loaded.Vertices) != len(original.Vertices) {
		t.Fatalf("vertices: got %d, want %d", len(loaded.Vertices), len(original.Vertices))
	}
	for id, want := range original.Vertices {
		got := loaded.Vertices[id]
		if got == nil {
			t.Fatalf("vertex %d missing", id)
		}
		if got.Lat != want.Lat || got.Lon != want.Lon || got.Origin != want.Origin {
			t.Errorf("vertex %d: got %+v, want %+v", id, got, want)
		}
		if !slices.Equal(got.Edges, want.Edges) {
			t.Errorf("vertex %d edges: got %v, want %v", id, got.Edges, want.Edges)
		}
	}

	if len(loaded.Edges) != len(original.Edges) {
		t.Fatalf("edges: got %d, want %d", len(loaded.Edges), len(original.Edges))
	}
	for id, want := range original.Edges {
		got := loaded.Edges[id]
		if got == nil {
			t.Fatalf("edge %d missing", id)
		}
		if got.Tier != want.Tier || got.Island != want.Island || got.Origin != want.Origin {
			t.Errorf("edge %d: got %+v, want %+v", id, got, want)
		}
		if !slices.Equal(got.Vertices, want.Vertices) {
			t.Errorf("edge %d vertices: got %v, want %v", id, got.Vertices, want.Vertices)
		}
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestBinaryEmptyNetwork(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.net.bin")
	if err := graph.WriteBinary(path, graph.NewNetwork()); err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}
	loaded, err := graph.ReadBinary(path)
	if err != nil {
		t.Fatalf("ReadBinary: %v", err)
	}
	if len(loaded.Vertices) != 0 || len(loaded.Edges) != 0 {
		t.Errorf("expected empty network")
	}
}

func TestBinaryCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.net.bin")
	if err := graph.WriteBinary(path, buildTestNetwork(t)); err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// Flip a byte inside the vertex id block.
	data[40] ^= 0xFF
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := graph.ReadBinary(path); err == nil {
		t.Fatal("expected CRC error for corrupted file")
	}
}

func TestBinaryInvalidMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.net.bin")
	os.WriteFile(path, []byte("NOT_A_NETWORK_HEADER_BLAH_BLAH_BLAH_MORE_DATA"), 0644)

	_, err := graph.ReadBinary(path)
	if err == nil {
		t.Fatal("expected error for invalid magic bytes")
	}
}

func TestBinaryTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "truncated.net.bin")
	os.WriteFile(path, []byte("LTSNET"), 0644)

	_, err := graph.ReadBinary(path)
	if err == nil {
		t.Fatal("expected error for truncated file")
	}
}
