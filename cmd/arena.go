package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/briandowns/spinner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"kalah/experiments"
	"kalah/meta"
)

// kalah arena
func Arena() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arena { parallelization cutoff baseline arena.yaml }",
		Short: "Run an experiment between policies",
		Args:  cobra.ExactArgs(1),
		Long: heredoc.Doc(`arena plays every matchup of an experiment, alternating
			who moves first, and reports the results with an Elo
			estimate for the first player of each matchup.

			The experiment is either a preset (parallelization, cutoff
			or baseline) or a YAML file listing the players and,
			optionally, the matchups. Without matchups every pair of
			players meets.

			Setup, game and move records are written to a timestamped
			directory under --out.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var a experiments.Arena
			switch args[0] {
			case "parallelization":
				a = experiments.ParallelizationExperiment()
			case "cutoff":
				a = experiments.CutoffExperiment()
			case "baseline":
				a = experiments.BaselineExperiment(modelPath(cmd, c))
			default:
				if a, err = experiments.LoadArena(args[0]); err != nil {
					return err
				}
			}
			if cmd.Flag("games").Changed {
				a.NumGames, _ = cmd.Flags().GetInt("games")
			}
			if cmd.Flag("seed").Changed {
				a.Seed, _ = cmd.Flags().GetUint64("seed")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			s := spinner.New(spinner.CharSets[SPIN], 100*time.Millisecond)
			s.Suffix = fmt.Sprintf(" running %s", a.Name)
			s.Start()
			result, err := experiments.Run(ctx, a)
			s.Stop()
			if err != nil {
				return err
			}

			root, _ := cmd.Flags().GetString("out")
			dir, err := result.Write(root)
			if err != nil {
				return err
			}
			log.Info().Msgf("results stored in %s", dir)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-8s %-8s %5s %5s %5s %18s\n", "player1", "player2", "win", "draw", "loss", "elo")
			for _, m := range result.Matchups {
				fmt.Fprintf(out, "%-8d %-8d %5d %5d %5d %+6.0f [%+5.0f,%+5.0f]\n",
					m.Player1, m.Player2, m.Wins, m.Draws, m.Losses, m.Elo, m.EloLower, m.EloUpper)
			}
			return nil
		},
	}

	cmd.Flags().IntP("games", "n", experiments.NumGames, "Games per matchup")
	cmd.Flags().String("model", "", "Model file for the baseline preset (defaults to the configured path)")
	cmd.Flags().StringP("out", "o", meta.ExperimentDirectory, "Directory to store results in")
	cmd.Flags().Uint64("seed", 0, "Random seed")

	return cmd
}
