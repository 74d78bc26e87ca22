package graph

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"unsafe"
)

const (
	magicBytes   = "LTSNET\x00\x00"
	version      = uint32(1)
	maxVertices  = 50_000_000
	maxEdges     = 20_000_000
	maxVertexRef = 200_000_000
)

// fileHeader is the binary header.
type fileHeader struct {
	Magic        [8]byte
	Version      uint32
	NumVertices  uint32
	NumEdges     uint32
	NumEdgeRefs  uint32 // total length of all edge vertex sequences
	NumIncidence uint32 // total length of all vertex incident sets
}

// WriteBinary serializes a Network snapshot to a binary file.
// Incident sets are stored as-is so their order survives a round trip.
func WriteBinary(path string, n *Network) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // clean up on error
	}()

	crcWriter := crc32Writer{w: f, hash: crc32.NewIEEE()}
	w := &crcWriter

	vids := n.SortedVertexIDs()
	eids := n.SortedEdgeIDs()

	vertID := make([]int64, len(vids))
	vertLat := make([]float64, len(vids))
	vertLon := make([]float64, len(vids))
	vertOrigin := make([]int64, len(vids))
	incFirst := make([]uint32, len(vids)+1)
	var inc []int64
	for i, id := range vids {
		v := n.Vertices[id]
		vertID[i] = int64(id)
		vertLat[i] = v.Lat
		vertLon[i] = v.Lon
		vertOrigin[i] = int64(v.Origin)
		incFirst[i] = uint32(len(inc))
		for _, e := range v.Edges {
			inc = append(inc, int64(e))
		}
	}
	incFirst[len(vids)] = uint32(len(inc))

	edgeID := make([]int64, len(eids))
	edgeTier := make([]int32, len(eids))
	edgeIsland := make([]int32, len(eids))
	edgeOrigin := make([]int64, len(eids))
	refFirst := make([]uint32, len(eids)+1)
	var refs []int64
	for i, id := range eids {
		e := n.Edges[id]
		edgeID[i] = int64(id)
		edgeTier[i] = int32(e.Tier)
		edgeIsland[i] = int32(e.Island)
		edgeOrigin[i] = int64(e.Origin)
		refFirst[i] = uint32(len(refs))
		for _, v := range e.Vertices {
			refs = append(refs, int64(v))
		}
	}
	refFirst[len(eids)] = uint32(len(refs))

	// Write header.
	hdr := fileHeader{
		Version:      version,
		NumVertices:  uint32(len(vids)),
		NumEdges:     uint32(len(eids)),
		NumEdgeRefs:  uint32(len(refs)),
		NumIncidence: uint32(len(inc)),
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	// Vertex data.
	if err := writeInt64Slice(w, vertID); err != nil {
		return fmt.Errorf("write VertexID: %w", err)
	}
	if err := writeFloat64Slice(w, vertLat); err != nil {
		return fmt.Errorf("write VertexLat: %w", err)
	}
	if err := writeFloat64Slice(w, vertLon); err != nil {
		return fmt.Errorf("write VertexLon: %w", err)
	}
	if err := writeInt64Slice(w, vertOrigin); err != nil {
		return fmt.Errorf("write VertexOrigin: %w", err)
	}
	if err := writeUint32Slice(w, incFirst); err != nil {
		return fmt.Errorf("write IncidenceFirst: %w", err)
	}
	if err := writeInt64Slice(w, inc); err != nil {
		return fmt.Errorf("write Incidence: %w", err)
	}

	// Edge data.
	if err := writeInt64Slice(w, edgeID); err != nil {
		return fmt.Errorf("write EdgeID: %w", err)
	}
	if err := writeInt32Slice(w, edgeTier); err != nil {
		return fmt.Errorf("write EdgeTier: %w", err)
	}
	if err := writeInt32Slice(w, edgeIsland); err != nil {
		return fmt.Errorf("write EdgeIsland: %w", err)
	}
	if err := writeInt64Slice(w, edgeOrigin); err != nil {
		return fmt.Errorf("write EdgeOrigin: %w", err)
	}
	if err := writeUint32Slice(w, refFirst); err != nil {
		return fmt.Errorf("write EdgeRefFirst: %w", err)
	}
	if err := writeInt64Slice(w, refs); err != nil {
		return fmt.Errorf("write EdgeRefs: %w", err)
	}

	// Write CRC32 trailer.
	checksum := crcWriter.hash.Sum32()
	if err := binary.Write(f, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Atomic rename.
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

// ReadBinary deserializes a Network snapshot and validates its structure.
func ReadBinary(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	crcReader := crc32Reader{r: f, hash: crc32.NewIEEE()}
	r := &crcReader

	// Read and validate header.
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if string(hdr.Magic[:]) != magicBytes {
		return nil, fmt.Errorf("invalid magic bytes: %q", hdr.Magic)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("unsupported version: %d", hdr.Version)
	}
	if hdr.NumVertices > maxVertices {
		return nil, fmt.Errorf("NumVertices %d exceeds limit %d", hdr.NumVertices, maxVertices)
	}
	if hdr.NumEdges > maxEdges {
		return nil, fmt.Errorf("NumEdges %d exceeds limit %d", hdr.NumEdges, maxEdges)
	}
	if hdr.NumEdgeRefs > maxVertexRef || hdr.NumIncidence > maxVertexRef {
		return nil, fmt.Errorf("vertex reference count exceeds limit %d", maxVertexRef)
	}

	nv, ne := int(hdr.NumVertices), int(hdr.NumEdges)

	vertID, err := readInt64Slice(r, nv)
	if err != nil {
		return nil, fmt.Errorf("read VertexID: %w", err)
	}
	vertLat, err := readFloat64Slice(r, nv)
	if err != nil {
		return nil, fmt.Errorf("read VertexLat: %w", err)
	}
	vertLon, err := readFloat64Slice(r, nv)
	if err != nil {
		return nil, fmt.Errorf("read VertexLon: %w", err)
	}
	vertOrigin, err := readInt64Slice(r, nv)
	if err != nil {
		return nil, fmt.Errorf("read VertexOrigin: %w", err)
	}
	incFirst, err := readUint32Slice(r, nv+1)
	if err != nil {
		return nil, fmt.Errorf("read IncidenceFirst: %w", err)
	}
	inc, err := readInt64Slice(r, int(hdr.NumIncidence))
	if err != nil {
		return nil, fmt.Errorf("read Incidence: %w", err)
	}

	edgeID, err := readInt64Slice(r, ne)
	if err != nil {
		return nil, fmt.Errorf("read EdgeID: %w", err)
	}
	edgeTier, err := readInt32Slice(r, ne)
	if err != nil {
		return nil, fmt.Errorf("read EdgeTier: %w", err)
	}
	edgeIsland, err := readInt32Slice(r, ne)
	if err != nil {
		return nil, fmt.Errorf("read EdgeIsland: %w", err)
	}
	edgeOrigin, err := readInt64Slice(r, ne)
	if err != nil {
		return nil, fmt.Errorf("read EdgeOrigin: %w", err)
	}
	refFirst, err := readUint32Slice(r, ne+1)
	if err != nil {
		return nil, fmt.Errorf("read EdgeRefFirst: %w", err)
	}
	refs, err := readInt64Slice(r, int(hdr.NumEdgeRefs))
	if err != nil {
		return nil, fmt.Errorf("read EdgeRefs: %w", err)
	}

	// Read and validate CRC32.
	expectedCRC := crcReader.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("read CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("CRC32 mismatch: stored=%08x computed=%08x", storedCRC, expectedCRC)
	}

	if err := validateOffsets(incFirst, hdr.NumVertices, hdr.NumIncidence); err != nil {
		return nil, fmt.Errorf("incidence offsets invalid: %w", err)
	}
	if err := validateOffsets(refFirst, hdr.NumEdges, hdr.NumEdgeRefs); err != nil {
		return nil, fmt.Errorf("edge offsets invalid: %w", err)
	}

	n := &Network{
		Vertices: make(map[VertexID]*Vertex, nv),
		Edges:    make(map[EdgeID]*Edge, ne),
	}
	for i := range nv {
		v := &Vertex{
			ID:     VertexID(vertID[i]),
			Lat:    vertLat[i],
			Lon:    vertLon[i],
			Origin: VertexID(vertOrigin[i]),
		}
		for _, e := range inc[incFirst[i]:incFirst[i+1]] {
			v.Edges = append(v.Edges, EdgeID(e))
		}
		n.Vertices[v.ID] = v
	}
	for i := range ne {
		e := &Edge{
			ID:     EdgeID(edgeID[i]),
			Tier:   int(edgeTier[i]),
			Island: Tag(edgeIsland[i]),
			Origin: EdgeID(edgeOrigin[i]),
		}
		for _, v := range refs[refFirst[i]:refFirst[i+1]] {
			e.Vertices = append(e.Vertices, VertexID(v))
		}
		n.Edges[e.ID] = e
	}

	if len(n.Vertices) != nv || len(n.Edges) != ne {
		return nil, fmt.Errorf("snapshot contains duplicate ids")
	}
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot invalid: %w", err)
	}

	return n, nil
}

// validateOffsets checks that an offset array is monotonic and spans total.
func validateOffsets(first []uint32, count, total uint32) error {
	if uint32(len(first)) != count+1 {
		return fmt.Errorf("offset length %d != count+1 %d", len(first), count+1)
	}
	if first[0] != 0 {
		return fmt.Errorf("first offset is %d, want 0", first[0])
	}
	if first[count] != total {
		return fmt.Errorf("last offset %d != total %d", first[count], total)
	}
	for i := uint32(1); i <= count; i++ {
		if first[i] < first[i-1] {
			return fmt.Errorf("offsets not monotonic at %d: %d < %d", i, first[i], first[i-1])
		}
	}
	return nil
}

// Zero-copy I/O helpers using unsafe.Slice.

func writeUint32Slice(w io.Writer, s []uint32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeInt32Slice(w io.Writer, s []int32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeInt64Slice(w io.Writer, s []int64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func writeFloat64Slice(w io.Writer, s []float64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func readUint32Slice(r io.Reader, n int) ([]uint32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]uint32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readInt32Slice(r io.Reader, n int) ([]int32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]int32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readInt64Slice(r io.Reader, n int) ([]int64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]int64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readFloat64Slice(r io.Reader, n int) ([]float64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]float64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

// CRC32 wrapping writers/readers.

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
