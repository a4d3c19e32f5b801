package policy

import (
	"math"

	"kalah/game"
)

// terminal outranks any heuristic score in [-1, 1].
const terminal = 2.0

// Minimax searches depth plies with negamax and alpha-beta pruning. Extra
// turns keep the same player to move and are searched without negation.
type Minimax struct {
	config   game.Config
	depth    int
	evaluate game.Evaluate
}

func NewMinimax(c game.Config, depth int, evaluate game.Evaluate) *Minimax {
	if depth <= 0 {
		panic("minimax depth must be positive")
	}
	if evaluate == nil {
		evaluate = game.EvaluateMaterial
	}
	return &Minimax{config: c, depth: depth, evaluate: evaluate}
}

func (m *Minimax) ChooseMove(state game.GameState, valid []int) int {
	if len(valid) == 0 {
		return -1
	}
	e := engineFor(m.config, state)

	best, bestValue := valid[0], math.Inf(-1)
	alpha := math.Inf(-1)
	for _, pit := range valid {
		child := e.Clone()
		if _, ok := child.MakeMove(pit); !ok {
			continue
		}
		v := m.value(child, state.CurrentPlayer, m.depth-1, alpha, math.Inf(1))
		if v > bestValue {
			best, bestValue = pit, v
		}
		alpha = math.Max(alpha, v)
	}
	return best
}

// value scores e for player, who moved into it.
func (m *Minimax) value(e *game.Engine, player, depth int, alpha, beta float64) float64 {
	if e.CurrentPlayer() == player {
		return m.negamax(e, depth, alpha, beta)
	}
	return -m.negamax(e, depth, -beta, -alpha)
}

// negamax scores e for the player to move.
func (m *Minimax) negamax(e *game.Engine, depth int, alpha, beta float64) float64 {
	if e.GameOver() {
		switch e.Winner() {
		case game.Draw:
			return 0
		case e.CurrentPlayer():
			return terminal
		default:
			return -terminal
		}
	}
	if depth == 0 {
		return m.evaluate(e.State())
	}

	best := math.Inf(-1)
	for _, pit := range e.ValidMoves() {
		child := e.Clone()
		child.MakeMove(pit)
		v := m.value(child, e.CurrentPlayer(), depth-1, alpha, beta)
		best = math.Max(best, v)
		alpha = math.Max(alpha, v)
		if alpha >= beta {
			break
		}
	}
	return best
}
