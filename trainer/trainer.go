// Package trainer turns games into labelled experiences for an agent and
// drives its learning, evaluation and checkpointing.
package trainer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"kalah/agent"
	"kalah/engine"
	"kalah/experiments/metrics"
	"kalah/game"
	"kalah/policy"
)

const (
	WinReward  = 1.0
	LossReward = -1.0
	DrawReward = 0.0
)

type Option func(t *Trainer)

// WithOpponent sets the policy faced in fixed-opponent episodes. The default
// plays uniformly at random.
func WithOpponent(p policy.Policy) Option {
	return func(t *Trainer) {
		if p != nil {
			t.opponent = p
		}
	}
}

// WithBaseline sets the policy evaluations are played against. The default
// plays uniformly at random.
func WithBaseline(p policy.Policy) Option {
	return func(t *Trainer) {
		if p != nil {
			t.baseline = p
		}
	}
}

// WithCurriculum replaces the stages run in curriculum mode.
func WithCurriculum(stages []Stage) Option {
	return func(t *Trainer) {
		if len(stages) > 0 {
			t.curriculum = stages
		}
	}
}

// WithEpisodeHook is called after every training episode.
func WithEpisodeHook(hook func(Stats)) Option {
	return func(t *Trainer) {
		t.hooks = append(t.hooks, hook)
	}
}

// Trainer owns the statistics of its runs. The agent is borrowed and only
// mutated from the goroutine calling the trainer.
type Trainer struct {
	game     game.Config
	config   Config
	agent    *agent.Agent
	learner  policy.Policy
	opponent policy.Policy
	baseline policy.Policy
	hooks    []func(Stats)

	curriculum []Stage

	stats    Stats
	history  []metrics.EvalRecord
	best     float64
	hasBest  bool
	episodes int // across runs, drives seat alternation
}

func New(c game.Config, config Config, a *agent.Agent, rng *rand.Rand, options ...Option) *Trainer {
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("invalid trainer config: %v", err))
	}

	t := &Trainer{
		game:     c,
		config:   config,
		agent:    a,
		learner:  policy.NewLearned(a, true),
		opponent: policy.NewRandom(rng),
		baseline: policy.NewRandom(rng),

		curriculum: DefaultCurriculum(),
	}
	for _, option := range options {
		option(t)
	}
	if _, err := allocate(0, t.curriculum); err != nil {
		panic(fmt.Sprintf("invalid curriculum: %v", err))
	}
	return t
}

func (t *Trainer) Stats() Stats {
	return t.stats
}

func (t *Trainer) Agent() *agent.Agent {
	return t.agent
}

// History returns the evaluations recorded so far.
func (t *Trainer) History() []metrics.EvalRecord {
	return append([]metrics.EvalRecord(nil), t.history...)
}

// Reset clears statistics and evaluation history ahead of an independent run.
func (t *Trainer) Reset() {
	t.stats.Reset()
	t.history = nil
	t.best = 0
	t.hasBest = false
}

// Run resets the trainer and plays episodes in the given mode. It stops early
// when ctx is done. In curriculum mode statistics carry over between stages
// unless a stage resets them.
func (t *Trainer) Run(ctx context.Context, mode Mode, episodes int) (Stats, error) {
	t.Reset()
	if mode == Curriculum {
		return t.runCurriculum(ctx, t.curriculum, episodes)
	}
	err := t.train(ctx, mode, nil, episodes)
	return t.stats, err
}

// train plays episodes without resetting statistics.
func (t *Trainer) train(ctx context.Context, mode Mode, opponent policy.Policy, episodes int) error {
	if opponent == nil {
		opponent = t.opponent
	}

	for i := 0; i < episodes; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		switch mode {
		case SelfPlay:
			_, err = t.SelfPlayEpisode(ctx)
		case FixedOpponent:
			_, err = t.FixedOpponentEpisode(ctx, opponent)
		default:
			err = fmt.Errorf("mode %q cannot run episodes directly", mode)
		}
		if err != nil {
			return err
		}

		for _, hook := range t.hooks {
			hook(t.stats)
		}
		if t.config.LogInterval > 0 && t.stats.Episodes%t.config.LogInterval == 0 {
			log.Info().
				Int("episode", t.stats.Episodes).
				Int("step", t.agent.Step()).
				Float64("epsilon", t.agent.Epsilon()).
				Float64("learningRate", t.agent.LearningRate()).
				Float64("avgLoss", t.stats.AverageLoss()).
				Float64("avgReward", t.stats.AverageReward()).
				Int("buffer", t.agent.Buffer().Len()).
				Msg("training progress")
		}
		if t.config.EvalInterval > 0 && t.stats.Episodes%t.config.EvalInterval == 0 {
			if _, err := t.Checkpoint(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// SelfPlayEpisode lets the agent play both seats, stores every move as an
// experience of its mover and learns. It returns the winner, or ctx's error
// when the game was interrupted.
func (t *Trainer) SelfPlayEpisode(ctx context.Context) (int, error) {
	var experiences []agent.Experience
	match := engine.NewMatch(t.game, t.learner, t.learner,
		engine.WithMaxMoves(t.config.MaxMoves),
		engine.WithObserver(func(before game.GameState, outcome game.MoveOutcome, after game.GameState) {
			experiences = append(experiences, agent.Experience{State: before, Action: outcome.Pit, NextState: after})
		}),
	)
	winner, gameMetric, _ := match.Run(ctx)
	if err := interrupted(ctx, match); err != nil {
		return game.NoWinner, err
	}
	t.episodes++

	labelSelfPlay(experiences, winner)
	for _, e := range experiences {
		t.agent.Remember(e)
	}
	if err := t.learn(); err != nil {
		return winner, err
	}

	t.stats.Moves += gameMetric.TotalMoves
	t.stats.record(terminalReward(winner, 0))
	return winner, nil
}

// FixedOpponentEpisode seats the agent against opponent. Only the agent's
// moves are stored; the terminal reward is written onto its last move once
// the game is over.
func (t *Trainer) FixedOpponentEpisode(ctx context.Context, opponent policy.Policy) (int, error) {
	seat := t.agentSeat()
	seats := [game.NumPlayers]policy.Policy{opponent, opponent}
	seats[seat] = t.learner

	var experiences []agent.Experience
	match := engine.NewMatch(t.game, seats[0], seats[1],
		engine.WithMaxMoves(t.config.MaxMoves),
		engine.WithObserver(func(before game.GameState, outcome game.MoveOutcome, after game.GameState) {
			if outcome.Player == seat {
				experiences = append(experiences, agent.Experience{State: before, Action: outcome.Pit, NextState: after})
			}
		}),
	)
	winner, gameMetric, _ := match.Run(ctx)
	if err := interrupted(ctx, match); err != nil {
		return game.NoWinner, err
	}
	t.episodes++

	labelFixedOpponent(experiences, winner, seat)
	for _, e := range experiences {
		t.agent.Remember(e)
	}
	if err := t.learn(); err != nil {
		return winner, err
	}

	t.stats.Moves += gameMetric.TotalMoves
	t.stats.record(terminalReward(winner, seat))
	return winner, nil
}

// interrupted reports ctx's error when it cut the match short. The partial
// game is neither stored nor counted.
func interrupted(ctx context.Context, match *engine.Match) error {
	if err := ctx.Err(); err != nil && !match.State().GameOver {
		return err
	}
	return nil
}

func (t *Trainer) agentSeat() int {
	if t.config.AgentSeat == AlternateSeats {
		return t.episodes % game.NumPlayers
	}
	return t.config.AgentSeat
}

func (t *Trainer) learn() error {
	for i := 0; i < t.config.LearnSteps; i++ {
		before := t.agent.Step()
		loss, err := t.agent.LearningStep()
		if err != nil {
			return fmt.Errorf("learning step failed: %w", err)
		}
		if t.agent.Step() > before {
			t.stats.LearningSteps++
			t.stats.LossSum += loss
		}
	}
	return nil
}

// terminalReward is the reward of the game's outcome for player.
func terminalReward(winner, player int) float64 {
	switch winner {
	case player:
		return WinReward
	case game.Draw, game.NoWinner:
		return DrawReward
	default:
		return LossReward
	}
}

// labelSelfPlay marks each player's last move as terminal with the outcome
// seen from that player. Unfinished games are left to bootstrap.
func labelSelfPlay(experiences []agent.Experience, winner int) {
	if winner == game.NoWinner {
		return
	}
	var labelled [game.NumPlayers]bool
	for i := len(experiences) - 1; i >= 0; i-- {
		mover := experiences[i].Mover()
		if labelled[mover] {
			continue
		}
		experiences[i].Reward = terminalReward(winner, mover)
		experiences[i].Done = true
		labelled[mover] = true
	}
}

// labelFixedOpponent writes the outcome onto the agent's last move, which may
// not be the move that ended the game.
func labelFixedOpponent(experiences []agent.Experience, winner, seat int) {
	if winner == game.NoWinner || len(experiences) == 0 {
		return
	}
	last := &experiences[len(experiences)-1]
	last.Reward = terminalReward(winner, seat)
	last.Done = true
}
