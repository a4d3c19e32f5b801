package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"kalah/approx"
	"kalah/features"
	"kalah/game"
	"kalah/meta"
)

const ModelVersion = 1

var (
	ErrModelNotFound  = fmt.Errorf("model not found: %w", fs.ErrNotExist)
	ErrMalformedModel = errors.New("malformed model")
)

// TrainingStats are the cumulative counters persisted with a model.
type TrainingStats struct {
	Episodes    int     `json:"episodes" yaml:"episodes"`
	TotalReward float64 `json:"totalReward" yaml:"totalReward"`
	AverageLoss float64 `json:"averageLoss" yaml:"averageLoss"`
}

// Merge adds the counters of a later run. Average losses are weighted by
// episode count.
func (s TrainingStats) Merge(later TrainingStats) TrainingStats {
	episodes := s.Episodes + later.Episodes
	merged := TrainingStats{Episodes: episodes, TotalReward: s.TotalReward + later.TotalReward}
	if episodes > 0 {
		merged.AverageLoss = (s.AverageLoss*float64(s.Episodes) + later.AverageLoss*float64(later.Episodes)) / float64(episodes)
	}
	return merged
}

// Model is the on-disk form of an agent.
type Model struct {
	Version         int             `json:"version"`
	Game            game.Config     `json:"game"`
	Approximator    approx.Snapshot `json:"approximator"`
	Hyperparameters Hyperparameters `json:"hyperparameters"`
	Step            int             `json:"step"`
	Epsilon         float64         `json:"epsilon"`
	LearningRate    float64         `json:"learningRate"`
	Stats           TrainingStats   `json:"stats"`
}

func (a *Agent) Model(stats TrainingStats) Model {
	return Model{
		Version:         ModelVersion,
		Game:            a.config,
		Approximator:    a.online.Snapshot(),
		Hyperparameters: a.hp,
		Step:            a.step,
		Epsilon:         a.epsilon,
		LearningRate:    a.learningRate,
		Stats:           stats,
	}
}

// Save writes the agent as JSON, creating parent directories as needed.
func (a *Agent) Save(path string, stats TrainingStats) error {
	data, err := json.Marshal(a.Model(stats))
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), meta.Permissions); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	log.Debug().Str("path", path).Int("step", a.step).Msg("saved model")
	return nil
}

// Load restores an agent saved with Save. A missing file yields
// ErrModelNotFound; anything unreadable yields ErrMalformedModel.
func Load(path string, rng *rand.Rand) (*Agent, TrainingStats, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, TrainingStats{}, fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	if err != nil {
		return nil, TrainingStats{}, fmt.Errorf("failed to read model: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, TrainingStats{}, fmt.Errorf("%w: %s: %w", ErrMalformedModel, path, err)
	}
	a, err := FromModel(m, rng)
	if err != nil {
		return nil, TrainingStats{}, fmt.Errorf("%s: %w", path, err)
	}
	return a, m.Stats, nil
}

// FromModel rebuilds an agent. The target approximator is synced from the
// restored online weights.
func FromModel(m Model, rng *rand.Rand) (*Agent, error) {
	if m.Version != ModelVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedModel, m.Version)
	}
	if m.Step < 0 {
		return nil, fmt.Errorf("%w: negative step %d", ErrMalformedModel, m.Step)
	}
	if err := m.Game.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedModel, err)
	}
	if want := features.New(m.Game).Len(); m.Approximator.Topology.Inputs != want {
		return nil, fmt.Errorf("%w: approximator takes %d features, want %d", ErrMalformedModel, m.Approximator.Topology.Inputs, want)
	}
	online, err := approx.FromSnapshot(m.Approximator)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedModel, err)
	}
	a, err := New(m.Game, m.Hyperparameters, online, rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedModel, err)
	}
	a.step = m.Step
	a.epsilon = m.Epsilon
	a.learningRate = m.LearningRate
	return a, nil
}
