// Package policy provides the move choosers that can occupy a seat: random,
// greedy, minimax, MCTS, a learned agent, or a human at the terminal.
package policy

import (
	"golang.org/x/exp/rand"

	"kalah/game"
	"kalah/utils"
)

// Policy picks one of valid for the player to move in state.
type Policy interface {
	ChooseMove(state game.GameState, valid []int) int
}

// Func adapts a plain function to Policy.
type Func func(state game.GameState, valid []int) int

func (f Func) ChooseMove(state game.GameState, valid []int) int {
	return f(state, valid)
}

type Random struct {
	rng *rand.Rand
}

func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

func (r *Random) ChooseMove(_ game.GameState, valid []int) int {
	if len(valid) == 0 {
		return -1
	}
	return valid[r.rng.Intn(len(valid))]
}

// Greedy maximises the mover's store after one move, counting an extra turn
// as half a seed. Ties go to the earliest valid move.
type Greedy struct {
	config game.Config
}

func NewGreedy(c game.Config) *Greedy {
	return &Greedy{config: c}
}

func (g *Greedy) ChooseMove(state game.GameState, valid []int) int {
	if len(valid) == 0 {
		return -1
	}
	e := engineFor(g.config, state)
	mover := state.CurrentPlayer

	return valid[utils.ArgMax(valid, func(pit int) float64 {
		child := e.Clone()
		outcome, ok := child.MakeMove(pit)
		if !ok {
			return -1
		}
		gain := float64(child.Scores()[mover] - state.Stores[mover])
		if outcome.ExtraTurn {
			gain += 0.5
		}
		return gain
	})]
}

// engineFor returns an engine positioned at state. Policies only receive
// snapshots the engine handed out, so a rejected snapshot is a programming
// error.
func engineFor(c game.Config, state game.GameState) *game.Engine {
	e := game.NewEngine(c)
	if err := e.SetState(state); err != nil {
		panic(err)
	}
	return e
}
