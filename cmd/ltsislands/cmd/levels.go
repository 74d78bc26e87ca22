package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"stress_islands/pkg/output"
	"stress_islands/pkg/stress"
)

func newLevelsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "levels <extract|snapshot.bin>",
		Short: "Write one file per stress tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(a.cfg.Output.Format)
			if err != nil {
				return err
			}
			net, bounds, err := a.loadNetwork(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			paths, err := output.WriteLevels(a.cfg.Output.Dir, a.cfg.Output.LevelPrefix, format, stress.Levels, net, bounds)
			if err != nil {
				return err
			}
			for _, p := range paths {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), p); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().String("format", string(output.FormatGeoJSON), "level file format (geojson, osm)")
	cmd.Flags().String("level-prefix", "level_", "file name prefix of level files")
	bindFlags(a.v, cmd.Flags(), map[string]string{
		"output.format":       "format",
		"output.level_prefix": "level-prefix",
	})
	return cmd
}
