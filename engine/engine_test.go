package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"kalah/experiments/metrics"
	"kalah/game"
	"kalah/policy"
)

func randomPolicy(seed uint64) policy.Policy {
	return policy.NewRandom(rand.New(rand.NewSource(seed)))
}

func TestRun(t *testing.T) {
	c := game.StandardConfig()

	t.Run("plays a full game", func(t *testing.T) {
		match := NewMatch(c, randomPolicy(1), randomPolicy(2))

		winner, gameMetric, moveMetrics := match.Run(context.Background())

		state := match.State()
		require.True(t, state.GameOver)
		require.Equal(t, state.Winner(), winner)
		require.Equal(t, c.TotalSeeds(), gameMetric.Scores[0]+gameMetric.Scores[1], "Seeds should be conserved")
		require.Len(t, moveMetrics, gameMetric.TotalMoves)
		require.Zero(t, gameMetric.InvalidMoves)
		require.Equal(t, 0, gameMetric.StartingPlayer)
		require.Equal(t, 1, moveMetrics[0].Step)
	})

	t.Run("invalid choices fall back to the first valid move", func(t *testing.T) {
		invalid := policy.Func(func(game.GameState, []int) int { return -1 })
		var chosen []int
		match := NewMatch(c, invalid, invalid, WithMaxMoves(10), WithObserver(
			func(before game.GameState, outcome game.MoveOutcome, _ game.GameState) {
				require.Equal(t, before.ValidMoves()[0], outcome.Pit)
				chosen = append(chosen, outcome.Pit)
			}))

		_, gameMetric, _ := match.Run(context.Background())

		require.Positive(t, gameMetric.TotalMoves)
		require.Equal(t, gameMetric.TotalMoves, gameMetric.InvalidMoves)
		require.Len(t, chosen, gameMetric.TotalMoves)
	})

	t.Run("observers see every move", func(t *testing.T) {
		calls := 0
		match := NewMatch(c, randomPolicy(3), randomPolicy(4), WithObserver(
			func(before game.GameState, outcome game.MoveOutcome, after game.GameState) {
				calls++
				require.Equal(t, before.CurrentPlayer, outcome.Player)
				require.Equal(t, calls, outcome.MoveNumber)
				require.GreaterOrEqual(t, after.Stores[outcome.Player], before.Stores[outcome.Player])
			}))

		_, gameMetric, _ := match.Run(context.Background())

		require.Equal(t, gameMetric.TotalMoves, calls)
	})

	t.Run("stops at the move limit", func(t *testing.T) {
		match := NewMatch(c, randomPolicy(5), randomPolicy(6), WithMaxMoves(3))

		winner, gameMetric, _ := match.Run(context.Background())

		require.Equal(t, 3, gameMetric.TotalMoves)
		require.Equal(t, game.NoWinner, winner)
		require.False(t, match.State().GameOver)
	})

	t.Run("stops when the context is done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		match := NewMatch(c, randomPolicy(7), randomPolicy(8))

		winner, gameMetric, moveMetrics := match.Run(ctx)

		require.Equal(t, game.NoWinner, winner)
		require.Zero(t, gameMetric.TotalMoves)
		require.Empty(t, moveMetrics)
	})

	t.Run("starts from a given state", func(t *testing.T) {
		state := game.GameState{
			Board:         []int{0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 2},
			Stores:        [2]int{22, 23},
			CurrentPlayer: 0,
		}
		match := NewMatch(c, randomPolicy(9), randomPolicy(10), WithState(state))

		winner, gameMetric, _ := match.Run(context.Background())

		require.Equal(t, 1, gameMetric.TotalMoves, "Emptying the last pit should end the game")
		require.Equal(t, [2]int{23, 25}, gameMetric.Scores)
		require.Equal(t, 1, winner)
	})
}

func TestRunFromFinishedState(t *testing.T) {
	// Player 1 has nothing to sow, so the position is already over.
	state := game.GameState{
		Board:         []int{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		Stores:        [2]int{24, 10},
		CurrentPlayer: 1,
	}
	called := false
	never := policy.Func(func(game.GameState, []int) int {
		called = true
		return -1
	})
	match := NewMatch(game.StandardConfig(), randomPolicy(1), never, WithState(state))

	var winner int
	var gameMetric metrics.GameMetric
	require.NotPanics(t, func() { winner, gameMetric, _ = match.Run(context.Background()) })

	require.Equal(t, 0, winner)
	require.Zero(t, gameMetric.TotalMoves)
	require.Equal(t, [2]int{25, 10}, gameMetric.Scores)
	require.False(t, called, "No policy should be asked for a move")
}

func TestNewMatch(t *testing.T) {
	require.Panics(t, func() { NewMatch(game.StandardConfig(), nil, randomPolicy(1)) })
	require.Panics(t, func() {
		NewMatch(game.StandardConfig(), randomPolicy(1), randomPolicy(2), WithState(game.GameState{Board: []int{1}}))
	}, "Should panic on a state that does not fit the board")
}
