package boundary

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"stress_islands/pkg/graph"
)

// BatchOptions configures TraceAll.
type BatchOptions struct {
	Options

	// Workers is the number of parallel tracers (0 = runtime.NumCPU()).
	Workers int

	// SimplifyTolerance applies Douglas-Peucker simplification in degrees
	// to every ring when positive.
	SimplifyTolerance float64
}

// IslandBoundary is the trace result for one island.
type IslandBoundary struct {
	Island graph.Tag
	Edges  int
	Ring   orb.Ring // nil when Err is set
	Area   float64  // planar area in square degrees
	Err    error
}

// IsPolygon reports whether the trace enclosed an area. A single-edge
// island traces out and back and yields a three-point ring.
func (b IslandBoundary) IsPolygon() bool {
	return b.Err == nil && len(b.Ring) >= 4
}

type traceJob struct {
	index  int
	island graph.Tag
	edges  []graph.EdgeID
}

// TraceAll traces every island on a worker pool. A failing island records
// its error in its own result and never stops the others. Results are
// sorted by island id. The only error returned is context cancellation.
func TraceAll(ctx context.Context, net *graph.Network, islands map[graph.Tag][]graph.EdgeID, opts BatchOptions) ([]IslandBoundary, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ids := make([]graph.Tag, 0, len(islands))
	for id := range islands {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	results := make([]IslandBoundary, len(ids))
	if len(ids) == 0 {
		return results, nil
	}
	workers = min(workers, len(ids))

	var simplifier *simplify.DouglasPeuckerSimplifier
	if opts.SimplifyTolerance > 0 {
		simplifier = simplify.DouglasPeucker(opts.SimplifyTolerance)
	}

	start := time.Now()
	jobs := make(chan traceJob)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				// Each worker writes only its own slot.
				results[job.index] = traceOne(job, net, opts.Options, simplifier)
			}
		}()
	}

	var cancelled error
send:
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case jobs <- traceJob{index: i, island: id, edges: islands[id]}:
		case <-ctx.Done():
			cancelled = ctx.Err()
			break send
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			slog.Warn("boundary trace failed", "island", int(r.Island), "edges", r.Edges, "error", r.Err)
		}
	}
	slog.Info("boundary tracing complete",
		"islands", len(results),
		"failed", failed,
		"workers", workers,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return results, nil
}

func traceOne(job traceJob, net *graph.Network, opts Options, simplifier *simplify.DouglasPeuckerSimplifier) IslandBoundary {
	res := IslandBoundary{Island: job.island, Edges: len(job.edges)}
	ring, err := Trace(job.edges, net, opts)
	if err != nil {
		res.Err = err
		return res
	}
	if simplifier != nil && len(ring) > 4 {
		if s := simplifier.Ring(ring.Clone()); len(s) >= 4 {
			ring = s
		}
	}
	res.Ring = ring
	res.Area = planar.Area(orb.Polygon{ring})
	return res
}
