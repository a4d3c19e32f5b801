// Package cmd implements the kalah command line.
package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"kalah/config"
	"kalah/meta"
)

// SPIN picks the spinner shown while long jobs run.
const SPIN = 14

func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   meta.APP_NAME,
		Short: "Train and play Kalah agents",
		Args:  cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if cmd.Flag("debug").Changed {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			// --trace wins over --debug.
			if cmd.Flag("trace").Changed {
				zerolog.SetGlobalLevel(zerolog.TraceLevel)
			}
		},
	}

	// global flags
	root.PersistentFlags().BoolP("debug", "d", false, "Show Debug Information")
	root.PersistentFlags().BoolP("trace", "t", false, "Show Trace Information")
	root.PersistentFlags().StringP("config", "c", meta.ConfigFile, "Configuration file")

	// Register the various commands.
	root.AddCommand(Train())
	root.AddCommand(Eval())
	root.AddCommand(Play())
	root.AddCommand(Arena())
	root.AddCommand(Config())

	return root
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// modelPath prefers --model over the configured path.
func modelPath(cmd *cobra.Command, c config.Config) string {
	if path, _ := cmd.Flags().GetString("model"); path != "" {
		return path
	}
	return c.ModelPath
}

func newRand(cmd *cobra.Command, c config.Config) *rand.Rand {
	seed := c.Seed
	if cmd.Flags().Lookup("seed") != nil && cmd.Flag("seed").Changed {
		seed, _ = cmd.Flags().GetUint64("seed")
	}
	return rand.New(rand.NewSource(seed))
}
