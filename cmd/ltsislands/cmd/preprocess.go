package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stress_islands/pkg/graph"
)

func newPreprocessCommand(a *app) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "preprocess <extract.osm|extract.osm.pbf>",
		Short: "Classify an OSM extract and save the network snapshot",
		Long: `Parse an OSM extract, evaluate the stress tier of every highway and write
the classified network to a binary snapshot. The snapshot loads much
faster than the extract in the levels, islands and locate commands.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if isSnapshot(input) {
				return fmt.Errorf("%s is already a snapshot", input)
			}
			path := outPath
			if path == "" {
				if err := os.MkdirAll(a.cfg.Output.Dir, 0o755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
				path = filepath.Join(a.cfg.Output.Dir, snapshotPath(input))
			}

			start := time.Now()
			net, _, err := a.loadNetwork(cmd.Context(), input)
			if err != nil {
				return err
			}

			slog.Info("writing snapshot", "path", path)
			if err := graph.WriteBinary(path, net); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}

			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			slog.Info("done",
				"elapsed", time.Since(start).Round(time.Millisecond),
				"path", path,
				"size_mb", fmt.Sprintf("%.1f", float64(info.Size())/(1024*1024)))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
	cmd.Flags().StringVar(&outPath, "snapshot", "", "snapshot path (default: input name with .bin in the output directory)")
	return cmd
}

// snapshotPath derives "<name>.bin" from an extract path.
func snapshotPath(input string) string {
	name := filepath.Base(input)
	lower := strings.ToLower(name)
	for _, ext := range []string{".osm.pbf", ".pbf", ".osm"} {
		if strings.HasSuffix(lower, ext) {
			name = name[:len(name)-len(ext)]
			break
		}
	}
	return name + ".bin"
}
