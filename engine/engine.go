// Package engine plays complete games between two policies.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"kalah/experiments/metrics"
	"kalah/game"
	"kalah/meta"
	"kalah/policy"
	"kalah/utils"
)

const MaxMoves = meta.MAX_TURNS

// Observer sees every applied move together with the positions around it.
type Observer func(before game.GameState, outcome game.MoveOutcome, after game.GameState)

type Option func(m *Match)

func WithMaxMoves(moves int) Option {
	return func(m *Match) {
		if moves > 0 {
			m.maxMoves = moves
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(m *Match) {
		m.observers = append(m.observers, observer)
	}
}

// WithState starts the match from a position other than the opening.
func WithState(state game.GameState) Option {
	return func(m *Match) {
		m.initial = &state
	}
}

// searchReporter is implemented by policies that expose their last search.
type searchReporter interface {
	LastMetric() metrics.SearchMetric
}

// Match owns the engine for one game. Policies only ever see copies of its
// state.
type Match struct {
	engine    *game.Engine
	policies  [game.NumPlayers]policy.Policy
	maxMoves  int
	observers []Observer
	initial   *game.GameState
}

func NewMatch(c game.Config, first, second policy.Policy, options ...Option) *Match {
	if first == nil || second == nil {
		panic("both seats need a policy")
	}

	m := &Match{
		engine:   game.NewEngine(c),
		policies: [game.NumPlayers]policy.Policy{first, second},
		maxMoves: MaxMoves,
	}
	for _, option := range options {
		option(m)
	}
	if m.initial != nil {
		if err := m.engine.SetState(*m.initial); err != nil {
			panic(err)
		}
	}
	return m
}

// State returns a copy of the current position.
func (m *Match) State() game.GameState {
	return m.engine.State()
}

// Run plays until the game is over, the move limit is reached or ctx is done.
// The winner is game.NoWinner unless the game finished.
func (m *Match) Run(ctx context.Context) (int, metrics.GameMetric, []metrics.MoveMetric) {
	gameMetric := metrics.GameMetric{
		StartingPlayer: m.engine.CurrentPlayer(),
		StartTime:      time.Now(),
	}
	var moveMetrics []metrics.MoveMetric

	log.Debug().Msgf("player %d is starting", gameMetric.StartingPlayer)

	// Loop until the game is over
	for step := 1; !m.engine.GameOver() && step <= m.maxMoves; step++ {
		if ctx.Err() != nil {
			log.Debug().Msgf("match interrupted after %d moves", step-1)
			break
		}

		player := m.engine.CurrentPlayer()
		before := m.engine.State()
		valid := before.ValidMoves()
		if len(valid) == 0 {
			log.Warn().Msgf("player %d has no valid move, stopping the match", player)
			break
		}

		pit := m.policies[player].ChooseMove(before.Copy(), valid)
		if utils.FindIndex(valid, pit) < 0 {
			log.Warn().Msgf("player %d chose invalid pit %d, falling back to pit %d", player, pit, valid[0])
			pit = valid[0]
			gameMetric.InvalidMoves++
		}

		moveMetric := metrics.MoveMetric{Step: step, Player: player, Pit: pit}
		if reporter, ok := m.policies[player].(searchReporter); ok {
			moveMetric.SearchMetric = reporter.LastMetric()
		}
		moveMetrics = append(moveMetrics, moveMetric)

		outcome, _ := m.engine.MakeMove(pit)
		after := m.engine.State()
		for _, observe := range m.observers {
			observe(before, outcome, after)
		}
		gameMetric.TotalMoves++
	}

	gameMetric.Winner = m.engine.Winner()
	gameMetric.Scores = m.engine.Scores()
	gameMetric.EndTime = time.Now()
	gameMetric.Duration = gameMetric.EndTime.Sub(gameMetric.StartTime)

	if m.engine.GameOver() {
		log.Debug().Msgf("game over after %d moves with winner %d and scores %v", gameMetric.TotalMoves, gameMetric.Winner, gameMetric.Scores)
	} else {
		log.Debug().Msgf("stopped after %d moves (no winner yet)", gameMetric.TotalMoves)
	}

	return gameMetric.Winner, gameMetric, moveMetrics
}
