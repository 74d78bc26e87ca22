// Package report summarises a segmentation run as YAML or JSON, as a
// plain-text histogram table and as Prometheus textfile metrics.
package report

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"stress_islands/pkg/boundary"
	"stress_islands/pkg/graph"
	"stress_islands/pkg/island"
	"stress_islands/pkg/output"
)

// Format selects the report encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat validates a report format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatYAML, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown report format %q (want yaml or json)", s)
}

// Bin is one histogram row: Count islands have exactly Size edges.
type Bin struct {
	Size  int `json:"size" yaml:"size"`
	Count int `json:"count" yaml:"count"`
}

// Boundaries counts trace outcomes. Traced minus Degenerate is the number
// of polygons written.
type Boundaries struct {
	Traced     int   `json:"traced" yaml:"traced"`
	Degenerate int   `json:"degenerate" yaml:"degenerate"`
	Failed     int   `json:"failed" yaml:"failed"`
	Errors     []int `json:"failed_islands,omitempty" yaml:"failed_islands,omitempty"`
}

// Summary is the report for one islands run.
type Summary struct {
	Input     string `json:"input" yaml:"input"`
	Threshold int    `json:"passability_threshold" yaml:"passability_threshold"`

	InputVertices int `json:"input_vertices" yaml:"input_vertices"`
	InputEdges    int `json:"input_edges" yaml:"input_edges"`

	// PerTier counts input edges by stress tier.
	PerTier []int `json:"per_tier" yaml:"per_tier"`

	Segmentation island.Stats `json:"segmentation" yaml:"segmentation"`
	Islands      int          `json:"islands" yaml:"islands"`
	Histogram    []Bin        `json:"histogram" yaml:"histogram"`
	Boundaries   Boundaries   `json:"boundaries" yaml:"boundaries"`

	ElapsedSeconds float64 `json:"elapsed_seconds" yaml:"elapsed_seconds"`
}

// New builds a Summary. input is the unsegmented network; boundaries may
// be nil when tracing was skipped.
func New(source string, threshold, levels int, input *graph.Network, res *island.Result, boundaries []boundary.IslandBoundary) *Summary {
	s := &Summary{
		Input:         source,
		Threshold:     threshold,
		InputVertices: len(input.Vertices),
		InputEdges:    len(input.Edges),
		PerTier:       make([]int, levels+1),
		Segmentation:  res.Stats,
		Islands:       res.IslandCount,
	}
	for _, e := range input.Edges {
		if e.Tier >= 0 && e.Tier <= levels {
			s.PerTier[e.Tier]++
		}
	}

	for size, count := range res.Histogram {
		s.Histogram = append(s.Histogram, Bin{Size: size, Count: count})
	}
	slices.SortFunc(s.Histogram, func(a, b Bin) int { return a.Size - b.Size })

	for _, b := range boundaries {
		if b.Err != nil {
			s.Boundaries.Failed++
			s.Boundaries.Errors = append(s.Boundaries.Errors, int(b.Island))
			continue
		}
		s.Boundaries.Traced++
		if !b.IsPolygon() {
			s.Boundaries.Degenerate++
		}
	}
	return s
}

// Marshal encodes the summary in the given format.
func (s *Summary) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		return yaml.Marshal(s)
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}

// Write encodes the summary to path.
func (s *Summary) Write(path string, format Format) error {
	data, err := s.Marshal(format)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return output.WriteFileAtomic(path, data)
}
