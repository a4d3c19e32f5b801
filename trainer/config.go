package trainer

import (
	"fmt"

	"kalah/meta"
)

type Mode string

const (
	SelfPlay      Mode = "selfplay"
	FixedOpponent Mode = "opponent"
	Curriculum    Mode = "curriculum"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case SelfPlay, FixedOpponent, Curriculum:
		return m, nil
	}
	return "", fmt.Errorf("unknown training mode %q", s)
}

// AlternateSeats makes the agent switch seats every episode in
// fixed-opponent mode.
const AlternateSeats = -1

type Config struct {
	Episodes int `yaml:"episodes"`
	// LearnSteps is the number of learning steps run after each episode.
	LearnSteps int `yaml:"learnSteps"`
	// EvalInterval is the number of episodes between evaluations; zero
	// disables evaluation and checkpointing.
	EvalInterval  int    `yaml:"evalInterval"`
	EvalGames     int    `yaml:"evalGames"`
	CheckpointDir string `yaml:"checkpointDir"`
	AgentSeat     int    `yaml:"agentSeat"`
	MaxMoves      int    `yaml:"maxMoves"`
	LogInterval   int    `yaml:"logInterval"`
	// Curriculum replaces the default stages of curriculum mode.
	Curriculum []StageConfig `yaml:"curriculum,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Episodes:      10000,
		LearnSteps:    1,
		EvalInterval:  500,
		EvalGames:     100,
		CheckpointDir: meta.CheckpointDirectory,
		AgentSeat:     0,
		MaxMoves:      meta.MAX_TURNS,
		LogInterval:   100,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Episodes < 0:
		return fmt.Errorf("episodes must not be negative, got %d", c.Episodes)
	case c.LearnSteps < 0:
		return fmt.Errorf("learn steps must not be negative, got %d", c.LearnSteps)
	case c.EvalInterval < 0 || c.EvalGames < 0:
		return fmt.Errorf("evaluation every %d episodes over %d games is invalid", c.EvalInterval, c.EvalGames)
	case c.EvalInterval > 0 && c.EvalGames == 0:
		return fmt.Errorf("evaluation needs at least one game")
	case c.AgentSeat < AlternateSeats || c.AgentSeat > 1:
		return fmt.Errorf("agent seat %d must be 0, 1 or %d to alternate", c.AgentSeat, AlternateSeats)
	case c.MaxMoves <= 0:
		return fmt.Errorf("max moves must be positive, got %d", c.MaxMoves)
	}
	for _, stage := range c.Curriculum {
		if stage.Weight <= 0 {
			return fmt.Errorf("stage %s has non-positive weight %g", stage.Name, stage.Weight)
		}
		if stage.Mode != SelfPlay && stage.Mode != FixedOpponent {
			return fmt.Errorf("stage %s has unsupported mode %q", stage.Name, stage.Mode)
		}
	}
	return nil
}
