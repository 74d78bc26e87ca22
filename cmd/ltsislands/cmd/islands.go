package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"stress_islands/pkg/boundary"
	"stress_islands/pkg/island"
	"stress_islands/pkg/output"
	"stress_islands/pkg/report"
	"stress_islands/pkg/stress"
)

// errAllTracesFailed is returned when islands exist but none could be traced.
var errAllTracesFailed = errors.New("every boundary trace failed")

func newIslandsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "islands <extract|snapshot.bin>",
		Short: "Segment the network into low-stress islands and trace their outlines",
		Long: `Segment the classified network into islands of edges at or below the
passability threshold, trace a boundary polygon around each island and
write:

  <island-prefix>edges.json        one feature per island edge
  <island-prefix>boundaries.json   one polygon per island
  report.yaml|json                 counts and island size histogram

Individual trace failures are logged and counted in the report. The
command fails only if segmentation fails or no boundary could be traced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runIslands(cmd, args[0])
		},
	}

	f := cmd.Flags()
	f.Bool("verify", false, "check segmentation invariants after labelling")
	f.Int("workers", 0, "parallel boundary tracers (default: number of CPUs)")
	f.Int("max-points", boundary.DefaultMaxPoints, "abort a boundary trace after this many points")
	f.Float64("simplify", 0, "Douglas-Peucker tolerance in degrees applied to boundaries (0 disables)")
	f.String("island-prefix", "island_", "file name prefix of island files")
	f.String("report-format", string(report.FormatYAML), "report format (yaml, json)")
	f.String("metrics-file", "", "also write Prometheus textfile metrics to this path")
	bindFlags(a.v, f, map[string]string{
		"analysis.verify":          "verify",
		"trace.workers":            "workers",
		"trace.max_points":         "max-points",
		"trace.simplify_tolerance": "simplify",
		"output.island_prefix":     "island-prefix",
		"output.report_format":     "report-format",
		"output.metrics_file":      "metrics-file",
	})
	return cmd
}

func (a *app) runIslands(cmd *cobra.Command, input string) error {
	start := time.Now()
	cfg := a.cfg

	reportFormat, err := report.ParseFormat(cfg.Output.ReportFormat)
	if err != nil {
		return err
	}

	net, _, err := a.loadNetwork(cmd.Context(), input)
	if err != nil {
		return err
	}

	res, err := island.Segment(net, cfg.SegmentOptions())
	if err != nil {
		return fmt.Errorf("segment: %w", err)
	}

	boundaries, err := boundary.TraceAll(cmd.Context(), res.Network, res.Islands, cfg.BatchOptions())
	if err != nil {
		return fmt.Errorf("trace boundaries: %w", err)
	}

	dir := cfg.Output.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	edgesPath := filepath.Join(dir, cfg.Output.IslandPrefix+"edges.json")
	if err := output.WriteFeatureCollection(edgesPath, output.IslandEdgeFeatures(res.Network)); err != nil {
		return err
	}
	boundariesPath := filepath.Join(dir, cfg.Output.IslandPrefix+"boundaries.json")
	if err := output.WriteFeatureCollection(boundariesPath, output.BoundaryFeatures(boundaries)); err != nil {
		return err
	}

	sum := report.New(input, cfg.Analysis.PassabilityThreshold, stress.Levels, net, res, boundaries)
	sum.ElapsedSeconds = time.Since(start).Seconds()

	reportPath := filepath.Join(dir, "report."+string(reportFormat))
	if err := sum.Write(reportPath, reportFormat); err != nil {
		return err
	}
	if cfg.Output.MetricsFile != "" {
		if err := sum.WriteMetrics(cfg.Output.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	slog.Info("wrote island outputs",
		"edges", edgesPath,
		"boundaries", boundariesPath,
		"report", reportPath,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if err := sum.WriteTable(cmd.OutOrStdout(), language.English); err != nil {
		return err
	}

	if len(boundaries) > 0 && sum.Boundaries.Traced == 0 {
		return fmt.Errorf("%w (%d islands)", errAllTracesFailed, len(boundaries))
	}
	return nil
}
