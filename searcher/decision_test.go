package searcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kalah/game"
)

func newStartEngine() *game.Engine {
	return game.NewEngine(game.StandardConfig())
}

func TestDecisionSelectOrExpand(t *testing.T) {
	t.Run("expanding adds children in move order", func(t *testing.T) {
		root := newDecision(nil, game.NoWinner, newStartEngine())

		e := newStartEngine()
		child, selected := root.selectOrExpand(e)

		require.False(t, selected, "Expansion should stop the descent")
		require.Len(t, root.children, 1)
		require.Same(t, root.children[0], child)
		require.Equal(t, 0, child.mover, "Child should record who moved into it")
		require.Equal(t, 1, e.CurrentPlayer(), "Engine should be advanced by the expanded move")
		require.Equal(t, e.State().Hash(), child.hash)
		require.Equal(t, Loss, child.rewards, "Child should apply a temporary loss")
		require.Equal(t, 1.0, child.visits, "Child should apply a temporary loss")

		second, _ := root.selectOrExpand(newStartEngine())
		require.Len(t, root.children, 2)
		require.Same(t, root.children[1], second)
	})

	t.Run("selecting fully expanded node", func(t *testing.T) {
		e := newStartEngine()
		root := newDecision(nil, game.NoWinner, e)
		for i := range root.moves {
			rewards := 0.0
			if i == 3 {
				rewards = 5
			}
			root.children = append(root.children, &decision{parent: root, mover: 0, rewards: rewards, visits: 10})
		}
		root.visits = 60

		child, selected := root.selectOrExpand(e)

		require.True(t, selected, "Node should perform selection")
		require.Same(t, root.children[3], child, "Node should select child with max UCT value")
		require.Zero(t, e.State().Board[3], "Engine should be advanced by the selected move")
		require.Equal(t, 4.0, child.rewards, "Child should apply a temporary loss")
		require.Equal(t, 11.0, child.visits, "Child should apply a temporary loss")
		require.Equal(t, 60.0, root.visits, "Node stats should not change")
	})

	t.Run("terminal node", func(t *testing.T) {
		e := newStartEngine()
		require.NoError(t, e.SetState(game.GameState{
			Board:    make([]int, 12),
			Stores:   [2]int{30, 18},
			GameOver: true,
		}))
		root := newDecision(nil, game.NoWinner, e)

		child, selected := root.selectOrExpand(e)

		require.Same(t, root, child, "Terminal node should return itself")
		require.False(t, selected)
	})
}

func TestDecisionBackup(t *testing.T) {
	root := newDecision(nil, game.NoWinner, newStartEngine())
	child, _ := root.selectOrExpand(newStartEngine())

	parent := child.backup(rewarder(0, Win))

	require.Same(t, root, parent)
	require.Equal(t, Win, child.rewards, "Virtual loss should be reversed before crediting")
	require.Equal(t, 1.0, child.visits)

	require.Nil(t, root.backup(rewarder(0, Win)))
	require.Equal(t, 1.0, root.visits)
}

func TestDecisionBestMove(t *testing.T) {
	root := newDecision(nil, game.NoWinner, newStartEngine())
	for _, visits := range []float64{3, 7, 7, 1, 0, 2} {
		root.children = append(root.children, &decision{parent: root, visits: visits})
	}

	require.Equal(t, 1, root.bestMove(), "Most visited move should win, earliest on ties")

	policy := root.policy()
	require.Len(t, policy, 6)
	require.InDelta(t, 0.35, policy[1], 1e-12)
	require.Zero(t, policy[4])

	require.Panics(t, func() {
		newDecision(nil, game.NoWinner, newStartEngine()).bestMove()
	}, "Should panic without children")
}
