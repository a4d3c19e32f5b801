package agent

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"kalah/approx"
	"kalah/game"
)

func newMLPAgent(t *testing.T) *Agent {
	t.Helper()
	a, err := NewMLPAgent(game.StandardConfig(), testHyperparameters(), approx.MLPConfig{Hidden: []int{8}}, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	return a
}

func TestSaveLoad(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		a := newMLPAgent(t)
		a.Remember(Experience{State: stateFor(0), Action: 1, Reward: 1, NextState: stateFor(1), Done: true})
		_, err := a.LearningStep()
		require.NoError(t, err)
		stats := TrainingStats{Episodes: 12, TotalReward: 3, AverageLoss: 0.25}
		path := filepath.Join(t.TempDir(), "models", "agent.json")

		require.NoError(t, a.Save(path, stats))
		restored, restoredStats, err := Load(path, rand.New(rand.NewSource(1)))

		require.NoError(t, err)
		require.Equal(t, stats, restoredStats)
		require.Equal(t, a.Step(), restored.Step())
		require.Equal(t, a.Epsilon(), restored.Epsilon())
		require.Equal(t, a.LearningRate(), restored.LearningRate())
		require.Equal(t, a.Hyperparameters(), restored.Hyperparameters())
		gs := stateFor(0)
		require.Equal(t, a.Values(gs), restored.Values(gs))
		require.Equal(t, restored.online.Weights(), restored.target.Weights(), "Target should be synced on load")
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := Load(filepath.Join(t.TempDir(), "absent.json"), rand.New(rand.NewSource(1)))

		require.ErrorIs(t, err, ErrModelNotFound)
		require.ErrorIs(t, err, fs.ErrNotExist)
		require.NotErrorIs(t, err, ErrMalformedModel)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

		_, _, err := Load(path, rand.New(rand.NewSource(1)))

		require.ErrorIs(t, err, ErrMalformedModel)
		require.NotErrorIs(t, err, ErrModelNotFound)
	})

	t.Run("unknown topology", func(t *testing.T) {
		m := newMLPAgent(t).Model(TrainingStats{})
		m.Approximator.Topology.Kind = "transformer"
		data, err := json.Marshal(m)
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "odd.json")
		require.NoError(t, os.WriteFile(path, data, 0644))

		_, _, err = Load(path, rand.New(rand.NewSource(1)))

		require.ErrorIs(t, err, ErrMalformedModel)
		require.ErrorIs(t, err, approx.ErrUnknownTopology)
	})

	t.Run("mismatched board size", func(t *testing.T) {
		m := newMLPAgent(t).Model(TrainingStats{})
		m.Game.PitsPerPlayer = 4

		_, err := FromModel(m, rand.New(rand.NewSource(1)))

		require.ErrorIs(t, err, ErrMalformedModel)
	})

	t.Run("unsupported version", func(t *testing.T) {
		m := newMLPAgent(t).Model(TrainingStats{})
		m.Version = ModelVersion + 1

		_, err := FromModel(m, rand.New(rand.NewSource(1)))

		require.ErrorIs(t, err, ErrMalformedModel)
	})
}

func TestTrainingStatsMerge(t *testing.T) {
	earlier := TrainingStats{Episodes: 10, TotalReward: 2, AverageLoss: 0.5}
	later := TrainingStats{Episodes: 30, TotalReward: -1, AverageLoss: 0.1}

	merged := earlier.Merge(later)

	require.Equal(t, 40, merged.Episodes)
	require.InDelta(t, 1.0, merged.TotalReward, 1e-12)
	require.InDelta(t, 0.2, merged.AverageLoss, 1e-12, "Losses should be weighted by episodes")
	require.Equal(t, TrainingStats{}, TrainingStats{}.Merge(TrainingStats{}))
}
