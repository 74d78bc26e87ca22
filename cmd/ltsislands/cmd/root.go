// Package cmd holds the ltsislands cobra commands.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"stress_islands/pkg/config"
	"stress_islands/pkg/island"
)

// app is the state shared by every subcommand of one root command.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// NewRootCommand builds the command tree. Each call gets its own viper
// instance so commands can be executed repeatedly in tests.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "ltsislands",
		Short: "Find low-stress cycling islands in OpenStreetMap extracts",
		Long: `ltsislands classifies every highway of an OpenStreetMap extract into a
cycling level of traffic stress, cuts the network wherever a low-stress
way meets a high-stress one, labels the resulting islands and traces an
outline polygon around each of them.

Examples:
  ltsislands preprocess ottawa.osm.pbf -o ottawa.bin
  ltsislands levels ottawa.bin --format osm
  ltsislands islands ottawa.bin --threshold 2 --out-dir out
  ltsislands locate ottawa.bin 45.4215 -75.6972`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is search in ., $HOME, $XDG_CONFIG_HOME/ltsislands)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")
	pf.String("bbox", "", "keep only ways inside minLat,minLng,maxLat,maxLng")
	pf.Bool("strict", false, "fail on unreadable lanes or maxspeed tags instead of excluding the way")
	pf.IntP("threshold", "t", island.DefaultThreshold, "highest stress tier an island may contain")
	pf.StringP("out-dir", "o", ".", "output directory")
	bindFlags(a.v, pf, map[string]string{
		"verbose":                        "verbose",
		"log_level":                      "log-level",
		"log_format":                     "log-format",
		"input.bbox":                     "bbox",
		"analysis.strict":                "strict",
		"analysis.passability_threshold": "threshold",
		"output.dir":                     "out-dir",
	})

	root.AddCommand(
		newPreprocessCommand(a),
		newLevelsCommand(a),
		newIslandsCommand(a),
		newLocateCommand(a),
	)
	return root
}

// bindFlags binds config keys to flags of fs.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewLoader(a.v).Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	} else {
		h = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	}
	slog.SetDefault(slog.New(h))

	if f := a.v.ConfigFileUsed(); f != "" {
		slog.Debug("loaded config", "file", f)
	}
	return nil
}
