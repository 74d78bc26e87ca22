package report

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ltsislands"

// Registry returns a fresh registry holding gauges for every counter in
// the summary.
func (s *Summary) Registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()

	gauge := func(name, help string, v float64) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
		g.Set(v)
		reg.MustRegister(g)
	}

	gauge("input_vertices", "Vertices in the classified network.", float64(s.InputVertices))
	gauge("input_edges", "Edges in the classified network.", float64(s.InputEdges))
	gauge("passability_threshold", "Highest tier treated as passable.", float64(s.Threshold))
	gauge("islands", "Number of islands found.", float64(s.Islands))
	gauge("island_edges", "Edges assigned to an island.", float64(s.Segmentation.IslandEdgesTotal))
	gauge("largest_island_edges", "Edge count of the largest island.", float64(s.Segmentation.LargestIsland))
	gauge("excluded_edges", "Edges excluded from every island.", float64(s.Segmentation.Excluded))
	gauge("splits", "Interior splits performed while cutting.", float64(s.Segmentation.Splits))
	gauge("vertices_added", "Vertices fabricated while cutting.", float64(s.Segmentation.VerticesAdded))
	gauge("edges_added", "Edges fabricated while cutting.", float64(s.Segmentation.EdgesAdded))
	gauge("boundaries_traced", "Islands with a traced boundary.", float64(s.Boundaries.Traced))
	gauge("boundaries_degenerate", "Traced islands whose ring encloses no area.", float64(s.Boundaries.Degenerate))
	gauge("boundaries_failed", "Islands whose boundary trace failed.", float64(s.Boundaries.Failed))
	gauge("elapsed_seconds", "Wall time of the run.", s.ElapsedSeconds)

	tiers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tier_edges",
		Help:      "Input edges per stress tier.",
	}, []string{"tier"})
	for tier, n := range s.PerTier {
		tiers.WithLabelValues(strconv.Itoa(tier)).Set(float64(n))
	}
	reg.MustRegister(tiers)

	return reg
}

// WriteMetrics writes the summary gauges in the node_exporter textfile
// format.
func (s *Summary) WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, s.Registry())
}
