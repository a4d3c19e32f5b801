package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"kalah/approx"
	"kalah/features"
	"kalah/game"
)

// fakeApprox predicts the same values for every input.
type fakeApprox struct {
	values []float64

	fits        int
	lastTargets [][]float64
	lastOpts    approx.FitOptions
}

func (f *fakeApprox) Predict([]float64) []float64 {
	return append([]float64(nil), f.values...)
}

func (f *fakeApprox) FitBatch(_, targets [][]float64, opts approx.FitOptions) (float64, error) {
	f.fits++
	f.lastTargets = targets
	f.lastOpts = opts
	return 0.5, nil
}

func (f *fakeApprox) Weights() [][]float64 {
	return [][]float64{append([]float64(nil), f.values...)}
}

func (f *fakeApprox) SetWeights(w [][]float64) error {
	f.values = append([]float64(nil), w[0]...)
	return nil
}

func (f *fakeApprox) Snapshot() approx.Snapshot {
	return approx.Snapshot{}
}

func testHyperparameters() Hyperparameters {
	return Hyperparameters{
		LearningRate:      0.01,
		FinalLearningRate: 0.001,
		Gamma:             0.95,
		Epsilon:           1,
		MinEpsilon:        0.1,
		DecaySteps:        10,
		BufferSize:        8,
		BatchSize:         1,
		TargetUpdateFreq:  2,
		ClipValue:         1,
	}
}

func newFakeAgent(hp Hyperparameters, online, target *fakeApprox) *Agent {
	c := game.StandardConfig()
	return &Agent{
		config:       c,
		extractor:    features.New(c),
		hp:           hp,
		online:       online,
		target:       target,
		buffer:       NewReplayBuffer(hp.BufferSize),
		rng:          rand.New(rand.NewSource(1)),
		epsilon:      hp.Epsilon,
		learningRate: hp.LearningRate,
	}
}

func stateFor(player int) game.GameState {
	gs := game.NewGameState(game.StandardConfig())
	gs.CurrentPlayer = player
	return gs
}

func TestTarget(t *testing.T) {
	target := &fakeApprox{values: []float64{0.1, 0.7, 0.3, -0.2, 0, 0.5}}
	a := newFakeAgent(testHyperparameters(), &fakeApprox{values: make([]float64, 6)}, target)

	t.Run("negates when the mover changes", func(t *testing.T) {
		e := Experience{State: stateFor(0), Action: 2, Reward: 0.1, NextState: stateFor(1)}

		require.InDelta(t, 0.1+0.95*-0.7, a.Target(e), 1e-12, "Opponent value should count against the mover")
	})

	t.Run("keeps sign on an extra turn", func(t *testing.T) {
		e := Experience{State: stateFor(1), Action: 8, NextState: stateFor(1)}

		require.InDelta(t, 0.95*0.7, a.Target(e), 1e-12)
	})

	t.Run("terminal reward is used as is", func(t *testing.T) {
		e := Experience{State: stateFor(0), Action: 0, Reward: -1, NextState: stateFor(1), Done: true}

		require.Equal(t, -1.0, a.Target(e))
	})
}

func TestSelectAction(t *testing.T) {
	t.Run("greedy picks the highest valued pit", func(t *testing.T) {
		hp := testHyperparameters()
		hp.Epsilon = 0
		a := newFakeAgent(hp, &fakeApprox{values: []float64{0, 1, 2, 5, 3, 4}}, &fakeApprox{})

		pit, ok := a.SelectAction(stateFor(0), []int{0, 1, 2, 3, 4, 5})
		require.True(t, ok)
		require.Equal(t, 3, pit)

		pit, ok = a.SelectAction(stateFor(1), []int{6, 7, 8, 9, 10, 11})
		require.True(t, ok)
		require.Equal(t, 9, pit, "Values should be indexed relative to the mover's first pit")

		pit, _ = a.SelectAction(stateFor(0), []int{1, 4, 5})
		require.Equal(t, 5, pit, "Only valid moves should be considered")
	})

	t.Run("ties go to the first valid move", func(t *testing.T) {
		hp := testHyperparameters()
		hp.Epsilon = 0
		a := newFakeAgent(hp, &fakeApprox{values: make([]float64, 6)}, &fakeApprox{})

		pit, _ := a.SelectAction(stateFor(0), []int{2, 4, 5})

		require.Equal(t, 2, pit)
	})

	t.Run("no valid moves", func(t *testing.T) {
		a := newFakeAgent(testHyperparameters(), &fakeApprox{values: make([]float64, 6)}, &fakeApprox{})

		_, ok := a.SelectAction(stateFor(0), nil)

		require.False(t, ok)
	})

	t.Run("full exploration stays within valid moves", func(t *testing.T) {
		a := newFakeAgent(testHyperparameters(), &fakeApprox{values: []float64{9, 0, 0, 0, 0, 0}}, &fakeApprox{})
		valid := []int{1, 3, 5}
		seen := map[int]int{}

		for i := 0; i < 300; i++ {
			pit, ok := a.SelectAction(stateFor(0), valid)
			require.True(t, ok)
			seen[pit]++
		}

		require.Len(t, seen, 3, "Every valid move should eventually be explored")
		require.NotContains(t, seen, 0)
	})
}

func TestLearningStep(t *testing.T) {
	t.Run("buffer underflow is a no-op", func(t *testing.T) {
		hp := testHyperparameters()
		hp.BatchSize = 4
		online := &fakeApprox{values: make([]float64, 6)}
		a := newFakeAgent(hp, online, &fakeApprox{})
		a.Remember(Experience{State: stateFor(0), NextState: stateFor(1)})

		loss, err := a.LearningStep()

		require.NoError(t, err)
		require.Zero(t, loss)
		require.Zero(t, a.Step())
		require.Zero(t, online.fits)
		require.Equal(t, 1.0, a.Epsilon(), "Schedules should not advance")
	})

	t.Run("overwrites only the taken action", func(t *testing.T) {
		online := &fakeApprox{values: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}}
		a := newFakeAgent(testHyperparameters(), online, &fakeApprox{values: make([]float64, 6)})
		a.Remember(Experience{State: stateFor(1), Action: 8, Reward: 1, NextState: stateFor(0), Done: true})

		loss, err := a.LearningStep()

		require.NoError(t, err)
		require.Equal(t, 0.5, loss)
		require.Equal(t, [][]float64{{0.1, 0.2, 1, 0.4, 0.5, 0.6}}, online.lastTargets)
	})

	t.Run("decays schedules linearly", func(t *testing.T) {
		online := &fakeApprox{values: make([]float64, 6)}
		a := newFakeAgent(testHyperparameters(), online, &fakeApprox{values: make([]float64, 6)})
		a.Remember(Experience{State: stateFor(0), NextState: stateFor(1), Done: true})

		_, err := a.LearningStep()
		require.NoError(t, err)

		require.Equal(t, 1, a.Step())
		require.InDelta(t, 0.91, a.Epsilon(), 1e-12)
		require.InDelta(t, 0.0091, a.LearningRate(), 1e-12)
		require.InDelta(t, 0.0091, online.lastOpts.LearningRate, 1e-12)
		require.Equal(t, 1.0, online.lastOpts.ClipValue)

		for i := 0; i < 20; i++ {
			_, err = a.LearningStep()
			require.NoError(t, err)
		}
		require.Equal(t, 0.1, a.Epsilon(), "Epsilon should hold at its minimum")
		require.Equal(t, 0.001, a.LearningRate())
	})

	t.Run("syncs the target periodically", func(t *testing.T) {
		online := &fakeApprox{values: []float64{1, 2, 3, 4, 5, 6}}
		target := &fakeApprox{values: make([]float64, 6)}
		a := newFakeAgent(testHyperparameters(), online, target)
		a.Remember(Experience{State: stateFor(0), NextState: stateFor(1), Done: true})

		_, err := a.LearningStep()
		require.NoError(t, err)
		require.Equal(t, make([]float64, 6), target.values, "Target should lag behind online")

		_, err = a.LearningStep()
		require.NoError(t, err)
		require.Equal(t, online.values, target.values)
	})

	t.Run("real approximator reduces loss", func(t *testing.T) {
		hp := testHyperparameters()
		hp.BatchSize = 4
		hp.FinalLearningRate = hp.LearningRate
		a, err := NewMLPAgent(game.StandardConfig(), hp, approx.MLPConfig{Hidden: []int{16}}, rand.New(rand.NewSource(3)))
		require.NoError(t, err)
		for i, r := range []float64{1, -1, 0, 1} {
			a.Remember(Experience{State: stateFor(i % 2), Action: i%2*6 + i, Reward: r, NextState: stateFor(1 - i%2), Done: true})
		}

		first, err := a.LearningStep()
		require.NoError(t, err)
		last := first
		for i := 0; i < 300; i++ {
			last, err = a.LearningStep()
			require.NoError(t, err)
		}

		require.Less(t, last, first)
	})
}

func TestGreedy(t *testing.T) {
	a := newFakeAgent(testHyperparameters(), &fakeApprox{values: make([]float64, 6)}, &fakeApprox{})
	a.SetEpsilon(0.3)

	err := a.Greedy(func() error {
		require.Zero(t, a.Epsilon())
		return errors.New("boom")
	})
	require.Error(t, err)
	require.Equal(t, 0.3, a.Epsilon(), "Epsilon should be restored after an error")

	require.Panics(t, func() {
		_ = a.Greedy(func() error { panic("boom") })
	})
	require.Equal(t, 0.3, a.Epsilon(), "Epsilon should be restored after a panic")
}

func TestNew(t *testing.T) {
	_, err := New(game.StandardConfig(), testHyperparameters(), &fakeApprox{values: make([]float64, 3)}, rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, approx.ErrShapeMismatch)

	hp := testHyperparameters()
	hp.BatchSize = 0
	_, err = NewMLPAgent(game.StandardConfig(), hp, approx.DefaultMLPConfig(), rand.New(rand.NewSource(1)))
	require.Error(t, err)
}

func TestLinear(t *testing.T) {
	require.Equal(t, 1.0, linear(1, 0, 0, 10))
	require.InDelta(t, 0.5, linear(1, 0, 5, 10), 1e-12)
	require.Equal(t, 0.0, linear(1, 0, 15, 10))
	require.Equal(t, 0.0, linear(1, 0, 0, 0), "Zero horizon should jump to the final value")
}
