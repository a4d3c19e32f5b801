package trainer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"kalah/policy"
)

// Stage is one phase of a curriculum. Weight is its share of the episodes.
type Stage struct {
	Name     string
	Mode     Mode
	Weight   float64
	Opponent policy.Policy // fixed-opponent stages only; nil uses the trainer's opponent
	Reset    bool          // reset statistics when the stage starts
}

// DefaultCurriculum warms up against the trainer's opponent before two
// rounds of self-play.
func DefaultCurriculum() []Stage {
	return []Stage{
		{Name: "warmup", Mode: FixedOpponent, Weight: 0.2},
		{Name: "selfplay", Mode: SelfPlay, Weight: 0.5},
		{Name: "refine", Mode: SelfPlay, Weight: 0.3},
	}
}

// StageConfig is the file form of a Stage. Opponent names a player kind and
// is resolved by the caller.
type StageConfig struct {
	Name     string  `yaml:"name"`
	Mode     Mode    `yaml:"mode"`
	Weight   float64 `yaml:"weight"`
	Opponent string  `yaml:"opponent,omitempty"`
	Reset    bool    `yaml:"reset,omitempty"`
}

// Stages builds the curriculum from its configuration. opponent resolves
// each non-empty Opponent kind.
func Stages(configs []StageConfig, opponent func(kind string) (policy.Policy, error)) ([]Stage, error) {
	stages := make([]Stage, 0, len(configs))
	for _, c := range configs {
		stage := Stage{Name: c.Name, Mode: c.Mode, Weight: c.Weight, Reset: c.Reset}
		if c.Opponent != "" {
			p, err := opponent(c.Opponent)
			if err != nil {
				return nil, fmt.Errorf("stage %s: %w", c.Name, err)
			}
			stage.Opponent = p
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

func (t *Trainer) runCurriculum(ctx context.Context, stages []Stage, episodes int) (Stats, error) {
	counts, err := allocate(episodes, stages)
	if err != nil {
		return t.stats, err
	}

	for i, stage := range stages {
		if stage.Reset {
			t.stats.Reset()
		}
		log.Info().Msgf("starting curriculum stage %d of %d (%s, %s) with %d episodes", i+1, len(stages), stage.Name, stage.Mode, counts[i])
		if err := t.train(ctx, stage.Mode, stage.Opponent, counts[i]); err != nil {
			return t.stats, fmt.Errorf("stage %s: %w", stage.Name, err)
		}
	}
	return t.stats, nil
}

// allocate splits episodes in proportion to the stage weights. Rounding
// leftovers go to the last stage.
func allocate(episodes int, stages []Stage) ([]int, error) {
	total := 0.0
	for _, stage := range stages {
		if stage.Weight <= 0 {
			return nil, fmt.Errorf("stage %s has non-positive weight %g", stage.Name, stage.Weight)
		}
		if stage.Mode != SelfPlay && stage.Mode != FixedOpponent {
			return nil, fmt.Errorf("stage %s has unsupported mode %q", stage.Name, stage.Mode)
		}
		total += stage.Weight
	}

	counts := make([]int, len(stages))
	assigned := 0
	for i, stage := range stages {
		counts[i] = int(float64(episodes) * stage.Weight / total)
		assigned += counts[i]
	}
	if len(counts) > 0 {
		counts[len(counts)-1] += episodes - assigned
	}
	return counts, nil
}
