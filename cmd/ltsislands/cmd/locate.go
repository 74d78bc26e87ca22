package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"stress_islands/pkg/island"
	"stress_islands/pkg/locate"
)

func newLocateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate <extract|snapshot.bin> <lat> <lon>",
		Short: "Report the island nearest to a coordinate",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid latitude %q: %w", args[1], err)
			}
			lon, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid longitude %q: %w", args[2], err)
			}

			net, _, err := a.loadNetwork(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			res, err := island.Segment(net, a.cfg.SegmentOptions())
			if err != nil {
				return fmt.Errorf("segment: %w", err)
			}

			idx := locate.NewIndex(res.Network, nil, a.cfg.Locate.MaxDistanceM)
			m, err := idx.Nearest(lat, lon)
			if err != nil {
				return err
			}

			origin := res.Network.Edges[m.Edge].Origin
			if origin == 0 {
				origin = m.Edge
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"island %d: way %d (edge %d) tier %d, %.1f m away, %d edges in island\n",
				int(m.Island), int64(origin), int64(m.Edge), m.Tier, m.Dist, len(res.Islands[m.Island]))
			return err
		},
	}
	// Negative longitudes must not be read as flags.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().Float64("max-distance", locate.DefaultMaxDistance, "search radius in meters")
	bindFlags(a.v, cmd.Flags(), map[string]string{
		"locate.max_distance_m": "max-distance",
	})
	return cmd
}
