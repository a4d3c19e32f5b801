package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/briandowns/spinner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"kalah/agent"
	"kalah/experiments"
	"kalah/experiments/metrics"
	"kalah/meta"
	"kalah/trainer"
)

// kalah eval
func Eval() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate the trained agent against a baseline",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`eval plays the trained agent greedily against a baseline
			policy, alternating seats every game, and reports the win,
			draw and loss rates from each seat.

			The baseline is one of random, greedy, minimax or mcts.
			With --best the best checkpoint kept by train is evaluated
			instead of the model file.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			games, _ := cmd.Flags().GetInt("games")
			if games <= 0 {
				return fmt.Errorf("games must be positive, got %d", games)
			}

			rng := newRand(cmd, c)
			path := modelPath(cmd, c)
			if best, _ := cmd.Flags().GetBool("best"); best {
				checkpoint, err := trainer.LoadCheckpoint(c.Trainer.CheckpointDir)
				if err != nil {
					return err
				}
				path = filepath.Join(c.Trainer.CheckpointDir, trainer.BestModelFile)
				log.Info().
					Int("episode", checkpoint.Episode).
					Float64("winRate", checkpoint.WinRate).
					Time("savedAt", checkpoint.SavedAt).
					Msgf("evaluating best checkpoint %s", path)
			}
			a, _, err := agent.Load(path, rng)
			if err != nil {
				return err
			}
			if a.Config() != c.Game {
				return fmt.Errorf("model %s was trained for %+v, config plays %+v", path, a.Config(), c.Game)
			}

			kind, _ := cmd.Flags().GetString("baseline")
			depth, _ := cmd.Flags().GetInt("depth")
			baseline, err := experiments.NewPolicy(c.Game, metrics.PlayerConfig{
				Kind:       kind,
				Depth:      depth,
				Goroutines: meta.GO_ROUTINES,
				Episodes:   meta.EPISODES,
				Cutoff:     meta.WITH_CUTOFF,
			}, rng)
			if err != nil {
				return err
			}

			config := c.Trainer
			config.EvalInterval = 0
			t := trainer.New(c.Game, config, a, rng, trainer.WithBaseline(baseline))

			s := spinner.New(spinner.CharSets[SPIN], 100*time.Millisecond)
			s.Suffix = fmt.Sprintf(" playing %d games against %s", games, kind)
			s.Start()
			eval, err := t.Evaluate(cmd.Context(), games, nil)
			s.Stop()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-8s %6s %6s %6s %6s %9s\n", "seat", "games", "win", "draw", "loss", "score")
			for seat, r := range eval.Seats {
				fmt.Fprintf(out, "%-8d %6d %6.3f %6.3f %6.3f %4.1f:%-4.1f\n",
					seat, r.Games, r.WinRate(), r.DrawRate(), r.LossRate(), r.AverageScore(), r.AverageOpponentScore())
			}
			r := eval.Total
			fmt.Fprintf(out, "%-8s %6d %6.3f %6.3f %6.3f %4.1f:%-4.1f\n",
				"total", r.Games, r.WinRate(), r.DrawRate(), r.LossRate(), r.AverageScore(), r.AverageOpponentScore())
			return nil
		},
	}

	cmd.Flags().IntP("games", "n", 100, "Number of games to play")
	cmd.Flags().StringP("baseline", "b", experiments.KindRandom, "Baseline kind: random, greedy, minimax or mcts")
	cmd.Flags().Int("depth", meta.MINIMAX_DEPTH, "Search depth of the minimax baseline")
	cmd.Flags().String("model", "", "Model file (defaults to the configured path)")
	cmd.Flags().Bool("best", false, "Evaluate the best checkpoint instead of the model file")
	cmd.MarkFlagsMutuallyExclusive("model", "best")
	cmd.Flags().Uint64("seed", 0, "Random seed (defaults to the configured seed)")

	return cmd
}
