package approx

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func newTestMLP() *MLP {
	return NewMLP(3, 2, MLPConfig{Hidden: []int{8}}, rand.New(rand.NewSource(1)))
}

func TestMLPPredict(t *testing.T) {
	m := newTestMLP()

	got := m.Predict([]float64{0.1, 0.2, 0.3})

	require.Len(t, got, 2)
	require.Equal(t, got, m.Predict([]float64{0.1, 0.2, 0.3}), "Prediction should be deterministic")
	require.Panics(t, func() { m.Predict([]float64{1}) }, "Should panic on wrong feature count")
}

func TestMLPFitBatch(t *testing.T) {
	t.Run("loss decreases on a fixed batch", func(t *testing.T) {
		m := newTestMLP()
		features := [][]float64{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}, {1, 1, 1}}
		targets := [][]float64{{1, -1}, {0.5, 0}, {-0.5, 0.5}, {0, 1}}
		opts := FitOptions{LearningRate: 0.01, ClipValue: 1}

		first, err := m.FitBatch(features, targets, opts)
		require.NoError(t, err)
		last := first
		for i := 0; i < 500; i++ {
			last, err = m.FitBatch(features, targets, opts)
			require.NoError(t, err)
		}

		require.Less(t, last, first/2, "Training should reduce the loss")
	})

	t.Run("rejects mismatched shapes", func(t *testing.T) {
		m := newTestMLP()
		opts := FitOptions{LearningRate: 0.01}

		_, err := m.FitBatch(nil, nil, opts)
		require.ErrorIs(t, err, ErrShapeMismatch)

		_, err = m.FitBatch([][]float64{{0, 0, 0}}, [][]float64{{0}}, opts)
		require.ErrorIs(t, err, ErrShapeMismatch)

		_, err = m.FitBatch([][]float64{{0, 0, 0}}, [][]float64{{0, 0}, {0, 0}}, opts)
		require.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("zero learning rate leaves weights unchanged", func(t *testing.T) {
		m := newTestMLP()
		before := m.Weights()

		_, err := m.FitBatch([][]float64{{1, 2, 3}}, [][]float64{{5, 5}}, FitOptions{})
		require.NoError(t, err)

		require.Equal(t, before, m.Weights())
	})
}

func TestClip(t *testing.T) {
	require.Equal(t, 1.0, clip(3, 1))
	require.Equal(t, -1.0, clip(-3, 1))
	require.Equal(t, 0.5, clip(0.5, 1))
	require.Equal(t, 3.0, clip(3, 0), "Zero bound should disable clipping")
}

func TestMLPWeights(t *testing.T) {
	t.Run("weights are deep copies", func(t *testing.T) {
		m := newTestMLP()
		weights := m.Weights()
		require.Len(t, weights, 4)

		weights[0][0] = 1000
		require.NotEqual(t, 1000.0, m.Weights()[0][0])
	})

	t.Run("set weights copies another network", func(t *testing.T) {
		a := newTestMLP()
		b := NewMLP(3, 2, MLPConfig{Hidden: []int{8}}, rand.New(rand.NewSource(2)))
		input := []float64{0.3, -0.2, 0.9}
		require.NotEqual(t, a.Predict(input), b.Predict(input))

		require.NoError(t, b.SetWeights(a.Weights()))

		require.Equal(t, a.Predict(input), b.Predict(input))
	})

	t.Run("set weights rejects the wrong shape", func(t *testing.T) {
		m := newTestMLP()
		require.ErrorIs(t, m.SetWeights([][]float64{{1}}), ErrShapeMismatch)

		weights := m.Weights()
		weights[1] = weights[1][:1]
		require.ErrorIs(t, m.SetWeights(weights), ErrShapeMismatch)
	})
}

func TestSnapshot(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		m := newTestMLP()

		restored, err := FromSnapshot(m.Snapshot())

		require.NoError(t, err)
		input := []float64{0.5, 0.5, -1}
		require.Equal(t, m.Predict(input), restored.Predict(input))
		require.Equal(t, m.Snapshot().Topology, restored.Snapshot().Topology)
	})

	t.Run("clone is independent", func(t *testing.T) {
		m := newTestMLP()
		clone, err := Clone(m)
		require.NoError(t, err)

		_, err = m.FitBatch([][]float64{{1, 1, 1}}, [][]float64{{3, 3}}, FitOptions{LearningRate: 0.1})
		require.NoError(t, err)

		require.NotEqual(t, m.Weights(), clone.Weights())
	})

	t.Run("rejects unknown kinds and versions", func(t *testing.T) {
		s := newTestMLP().Snapshot()

		s.Topology.Kind = "lstm"
		_, err := FromSnapshot(s)
		require.ErrorIs(t, err, ErrUnknownTopology)

		s.Topology.Kind = KindMLP
		s.Topology.Version = MLPVersion + 1
		_, err = FromSnapshot(s)
		require.ErrorIs(t, err, ErrUnknownTopology)
	})

	t.Run("rejects weights that do not fit the topology", func(t *testing.T) {
		s := newTestMLP().Snapshot()
		s.Topology.Hidden = []int{4}

		_, err := FromSnapshot(s)
		require.ErrorIs(t, err, ErrShapeMismatch)
	})
}
