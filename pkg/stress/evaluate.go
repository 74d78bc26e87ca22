package stress

import (
	"fmt"
	"log/slog"

	"github.com/paulmach/osm"

	osmparser "stress_islands/pkg/osm"
)

// Options controls how unreadable tags are treated.
type Options struct {
	// Strict fails the run on the first way with an unreadable lanes or
	// maxspeed value. Otherwise such ways fall back to tier 0 and a
	// warning is logged.
	Strict bool
}

// Summary counts ways per tier.
type Summary struct {
	PerTier [Levels + 1]int
	Invalid int
}

// Evaluate computes the tier of every parsed way.
func Evaluate(ways []osmparser.RawWay, opts Options) (map[osm.WayID]int, Summary, error) {
	tiers := make(map[osm.WayID]int, len(ways))
	var sum Summary

	for _, w := range ways {
		tier, err := Tier(w.Tags)
		if err != nil {
			if opts.Strict {
				return nil, sum, fmt.Errorf("way %d: %w", w.ID, err)
			}
			slog.Warn("unreadable way tags, treating as tier 0", "way", int64(w.ID), "err", err)
			sum.Invalid++
			tier = 0
		}
		if tier < 0 || tier > Levels {
			return nil, sum, fmt.Errorf("way %d: tier %d out of range", w.ID, tier)
		}
		tiers[w.ID] = tier
		sum.PerTier[tier]++
	}

	slog.Info("stress evaluation complete",
		"ways", len(ways),
		"tier0", sum.PerTier[0],
		"tier1", sum.PerTier[1],
		"tier2", sum.PerTier[2],
		"tier3", sum.PerTier[3],
		"tier4", sum.PerTier[4],
		"invalid", sum.Invalid)

	return tiers, sum, nil
}
