package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/briandowns/spinner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"kalah/agent"
	"kalah/config"
	"kalah/experiments"
	"kalah/experiments/metrics"
	"kalah/policy"
	"kalah/trainer"
)

// kalah train
func Train() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the agent",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`train improves the agent by playing episodes and learning
			from replayed experience. The agent is loaded from the model
			file when it exists and is written back once training ends,
			including when training is interrupted with Ctrl-C.

			The mode is one of selfplay, opponent or curriculum. In
			opponent mode the agent plays against --opponent. The
			curriculum mode runs the stages listed under
			trainer.curriculum in the config file, and by default warms
			up against --opponent before switching to self-play.

			Evaluations against --baseline run every evalInterval
			episodes, and the best model seen so far is kept in the
			checkpoint directory.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			modeName, _ := cmd.Flags().GetString("mode")
			mode, err := trainer.ParseMode(modeName)
			if err != nil {
				return err
			}
			episodes := c.Trainer.Episodes
			if cmd.Flag("episodes").Changed {
				episodes, _ = cmd.Flags().GetInt("episodes")
			}
			if episodes <= 0 {
				return fmt.Errorf("episodes must be positive, got %d", episodes)
			}

			rng := newRand(cmd, c)
			path := modelPath(cmd, c)
			fresh, _ := cmd.Flags().GetBool("fresh")
			a, prior, err := loadOrCreate(c, path, fresh, rng)
			if err != nil {
				return err
			}

			opponentKind, _ := cmd.Flags().GetString("opponent")
			opponent, err := experiments.NewPolicy(c.Game, metrics.PlayerConfig{Kind: opponentKind}, rng)
			if err != nil {
				return fmt.Errorf("opponent: %w", err)
			}
			baselineKind, _ := cmd.Flags().GetString("baseline")
			baseline, err := experiments.NewPolicy(c.Game, metrics.PlayerConfig{Kind: baselineKind}, rng)
			if err != nil {
				return fmt.Errorf("baseline: %w", err)
			}

			stages, err := trainer.Stages(c.Trainer.Curriculum, func(kind string) (policy.Policy, error) {
				return experiments.NewPolicy(c.Game, metrics.PlayerConfig{Kind: kind}, rng)
			})
			if err != nil {
				return fmt.Errorf("curriculum: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			s := spinner.New(spinner.CharSets[SPIN], 100*time.Millisecond)
			t := trainer.New(c.Game, c.Trainer, a, rng,
				trainer.WithOpponent(opponent),
				trainer.WithBaseline(baseline),
				trainer.WithCurriculum(stages),
				trainer.WithEpisodeHook(func(stats trainer.Stats) {
					s.Lock()
					s.Suffix = fmt.Sprintf(" episode %d of %d, epsilon %.3f", stats.Episodes, episodes, a.Epsilon())
					s.Unlock()
				}),
			)

			log.Info().Msgf("training in %s mode for %d episodes...", mode, episodes)
			s.Start()
			stats, err := t.Run(ctx, mode, episodes)
			s.Stop()

			switch {
			case errors.Is(err, context.Canceled):
				log.Warn().Msgf("training interrupted after %d episodes", stats.Episodes)
			case err != nil:
				return err
			}

			if err := a.Save(path, prior.Merge(stats.Training())); err != nil {
				return err
			}
			log.Info().Msgf("completed %d episodes: +%d =%d -%d, average loss %.4f, saved to %s",
				stats.Episodes, stats.Won, stats.Drawn, stats.Lost, stats.AverageLoss(), path)
			return nil
		},
	}

	cmd.Flags().StringP("mode", "m", string(trainer.SelfPlay), "Training mode: selfplay, opponent or curriculum")
	cmd.Flags().IntP("episodes", "n", 0, "Number of episodes (defaults to the configured count)")
	cmd.Flags().String("model", "", "Model file (defaults to the configured path)")
	cmd.Flags().String("opponent", experiments.KindRandom, "Opponent kind for opponent and curriculum modes")
	cmd.Flags().String("baseline", experiments.KindRandom, "Baseline kind for periodic evaluation")
	cmd.Flags().Bool("fresh", false, "Start from a new network even if the model file exists")
	cmd.Flags().Uint64("seed", 0, "Random seed (defaults to the configured seed)")

	return cmd
}

// loadOrCreate resumes from the model at path, or builds a new agent when
// there is none or fresh is set.
func loadOrCreate(c config.Config, path string, fresh bool, rng *rand.Rand) (*agent.Agent, agent.TrainingStats, error) {
	if !fresh {
		a, stats, err := agent.Load(path, rng)
		switch {
		case err == nil:
			if a.Config() != c.Game {
				return nil, stats, fmt.Errorf("model %s was trained for %+v, config plays %+v", path, a.Config(), c.Game)
			}
			log.Info().Msgf("resuming from %s after %d episodes", path, stats.Episodes)
			return a, stats, nil
		case !errors.Is(err, agent.ErrModelNotFound):
			return nil, stats, err
		}
		log.Info().Msgf("no model at %s, starting fresh", path)
	}

	a, err := agent.NewMLPAgent(c.Game, c.Hyperparameters, c.Network, rng)
	return a, agent.TrainingStats{}, err
}
