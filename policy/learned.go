package policy

import (
	"kalah/agent"
	"kalah/game"
)

// Learned plays a trained agent. Unless explore is set it always takes the
// best valued move.
type Learned struct {
	agent   *agent.Agent
	explore bool
}

func NewLearned(a *agent.Agent, explore bool) *Learned {
	return &Learned{agent: a, explore: explore}
}

func (l *Learned) ChooseMove(state game.GameState, valid []int) int {
	var pit int
	var ok bool
	if l.explore {
		pit, ok = l.agent.SelectAction(state, valid)
	} else {
		pit, ok = l.agent.BestAction(state, valid)
	}
	if !ok {
		return -1
	}
	return pit
}
