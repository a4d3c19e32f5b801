package policy

import (
	"github.com/rs/zerolog/log"

	"kalah/experiments/metrics"
	"kalah/game"
	"kalah/searcher"
	"kalah/utils"
)

// MCTS chooses moves with a Monte Carlo tree search.
type MCTS struct {
	config game.Config
	search *searcher.MCTS
	last   metrics.SearchMetric
}

func NewMCTS(c game.Config, search *searcher.MCTS) *MCTS {
	return &MCTS{config: c, search: search}
}

func (m *MCTS) ChooseMove(state game.GameState, valid []int) int {
	if len(valid) == 0 {
		return -1
	}
	pit, metric := m.search.FindMove(engineFor(m.config, state))
	m.last = metric
	if utils.FindIndex(valid, pit) < 0 {
		log.Warn().Msgf("search returned pit %d outside %v, using %d", pit, valid, valid[0])
		return valid[0]
	}
	return pit
}

// LastMetric describes the most recent search.
func (m *MCTS) LastMetric() metrics.SearchMetric {
	return m.last
}
