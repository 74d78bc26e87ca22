package output

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/paulmach/osm"

	"stress_islands/pkg/graph"
)

// Format selects the level file encoding.
type Format string

const (
	FormatGeoJSON Format = "geojson"
	FormatOSM     Format = "osm"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatGeoJSON, FormatOSM:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want geojson or osm)", s)
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	if f == FormatOSM {
		return ".osm"
	}
	return ".json"
}

// LevelPath returns the file name for one tier.
func LevelPath(dir, prefix string, tier int, format Format) string {
	return filepath.Join(dir, fmt.Sprintf("%s%d%s", prefix, tier, format.Ext()))
}

// WriteLevels writes one file per tier from 1 to levels and returns the
// paths written.
func WriteLevels(dir, prefix string, format Format, levels int, net *graph.Network, bounds *osm.Bounds) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var paths []string
	for tier := 1; tier <= levels; tier++ {
		path := LevelPath(dir, prefix, tier, format)

		var data []byte
		var err error
		switch format {
		case FormatOSM:
			data, err = MarshalOSM(LevelOSM(net, tier, bounds))
		default:
			data, err = LevelFeatures(net, tier).MarshalJSON()
		}
		if err != nil {
			return paths, fmt.Errorf("encode level %d: %w", tier, err)
		}
		if err := WriteFileAtomic(path, data); err != nil {
			return paths, fmt.Errorf("level %d: %w", tier, err)
		}
		slog.Debug("wrote level file", "tier", tier, "path", path, "bytes", len(data))
		paths = append(paths, path)
	}
	return paths, nil
}
