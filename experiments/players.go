package experiments

import (
	"fmt"

	"golang.org/x/exp/rand"

	"kalah/agent"
	"kalah/experiments/metrics"
	"kalah/game"
	"kalah/meta"
	"kalah/policy"
	"kalah/searcher"
)

const (
	KindRandom  = "random"
	KindGreedy  = "greedy"
	KindMinimax = "minimax"
	KindMCTS    = "mcts"
	KindAgent   = "agent"
)

// NewPolicy builds the policy a player config describes.
func NewPolicy(c game.Config, config metrics.PlayerConfig, rng *rand.Rand) (policy.Policy, error) {
	switch config.Kind {
	case KindRandom:
		return policy.NewRandom(rng), nil
	case KindGreedy:
		return policy.NewGreedy(c), nil
	case KindMinimax:
		depth := config.Depth
		if depth <= 0 {
			depth = meta.MINIMAX_DEPTH
		}
		return policy.NewMinimax(c, depth, nil), nil
	case KindMCTS:
		return policy.NewMCTS(c, createMCTS(config, rng.Uint64())), nil
	case KindAgent:
		a, _, err := agent.Load(config.Model, rng)
		if err != nil {
			return nil, fmt.Errorf("player %d: %w", config.ID, err)
		}
		if a.Config() != c {
			return nil, fmt.Errorf("player %d: model trained for %+v, arena plays %+v", config.ID, a.Config(), c)
		}
		return policy.NewLearned(a, false), nil
	default:
		return nil, fmt.Errorf("player %d: unknown kind %q", config.ID, config.Kind)
	}
}

func createMCTS(config metrics.PlayerConfig, seed uint64) *searcher.MCTS {
	options := []searcher.Option{searcher.WithSeed(seed)}

	if config.Episodes > 0 {
		options = append(options, searcher.WithEpisodes(config.Episodes))
	}
	if config.Duration > 0 {
		options = append(options, searcher.WithDuration(config.Duration))
	}
	if config.Episodes <= 0 && config.Duration <= 0 {
		options = append(options, searcher.WithEpisodes(meta.EPISODES))
	}
	if config.Cutoff > 0 {
		options = append(options, searcher.WithCutoff(config.Cutoff))
	}

	goroutines := config.Goroutines
	if goroutines <= 0 {
		goroutines = 1
	}

	options = append(options, searcher.WithMetrics())
	return searcher.NewMCTS(goroutines, options...)
}
