// Package searcher implements tree-parallel Monte Carlo tree search with
// virtual loss over Kalah positions.
package searcher

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"kalah/experiments/metrics"
	"kalah/game"
)

// MaxCutoff is deep enough for any standard game to finish.
const MaxCutoff = 500

// ReuseDepth bounds how far below the previous root a reusable subtree is
// looked for.
const ReuseDepth = 4

type Option func(mcts *MCTS)

type MCTS struct {
	goroutines int
	duration   time.Duration
	episodes   int
	cutoff     int
	evaluate   game.Evaluate
	seed       uint64
	searches   uint64
	reuse      bool
	root       *decision
	metrics    metrics.Collector
}

func WithDuration(duration time.Duration) Option {
	return func(u *MCTS) {
		if duration > 0 {
			u.duration = duration
		}
	}
}

func WithEpisodes(episodes int) Option {
	return func(u *MCTS) {
		if episodes > 0 {
			u.episodes = episodes
		}
	}
}

func WithCutoff(depth int) Option {
	return func(u *MCTS) {
		if depth > 0 {
			u.cutoff = depth
		}
	}
}

func WithEvaluationFn(evaluate game.Evaluate) Option {
	return func(m *MCTS) {
		if evaluate != nil {
			m.evaluate = evaluate
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(m *MCTS) {
		m.seed = seed
	}
}

// WithTreeReuse keeps the previous search tree and continues from the
// matching subtree when the next position is found in it.
func WithTreeReuse() Option {
	return func(m *MCTS) {
		m.reuse = true
	}
}

func WithMetrics() Option {
	return func(m *MCTS) {
		m.metrics = metrics.NewCollector()
	}
}

func NewMCTS(goroutines int, options ...Option) *MCTS {
	if goroutines <= 0 {
		panic("Must use at least one goroutine")
	}
	m := &MCTS{ // Default values
		goroutines: goroutines,
		cutoff:     MaxCutoff,
		evaluate:   game.EvaluateStores,
		seed:       1,
		metrics:    metrics.NewNopCollector(),
	}
	for _, option := range options {
		option(m)
	}
	if m.episodes <= 0 && m.duration <= 0 {
		panic("Must specify search episodes or duration")
	}
	return m
}

// Simulate searches from the engine's position and returns the share of
// visits per pit. The engine is not modified.
func (m *MCTS) Simulate(e *game.Engine) (map[int]float64, metrics.SearchMetric) {
	state := e.Clone()
	m.findRoot(state)

	// Run simulations to collect statistics
	m.metrics.Start(m.goroutines, m.cutoff)
	if m.episodes > 0 {
		m.iterate(state)
	} else {
		m.countdown(state)
	}
	metric := m.metrics.Complete(m.root.size() - 1)

	return m.root.policy(), metric
}

// FindMove returns the most visited pit.
func (m *MCTS) FindMove(e *game.Engine) (int, metrics.SearchMetric) {
	_, metric := m.Simulate(e)
	return m.root.bestMove(), metric
}

func (m *MCTS) rngs() []*rand.Rand {
	rngs := make([]*rand.Rand, m.goroutines)
	for i := range rngs {
		rngs[i] = rand.New(rand.NewSource(m.seed + m.searches*uint64(m.goroutines) + uint64(i)))
	}
	m.searches++
	return rngs
}

func (m *MCTS) iterate(state *game.Engine) {
	task := make(chan any, m.episodes)
	for i := 0; i < m.episodes; i++ {
		task <- nil
	}
	close(task)

	var wg sync.WaitGroup
	for _, rng := range m.rngs() {
		wg.Add(1)
		go func(rng *rand.Rand) {
			defer wg.Done()

			for range task {
				m.simulate(state, rng)
				m.metrics.AddEpisode()
			}
		}(rng)
	}

	wg.Wait()
}

func (m *MCTS) countdown(state *game.Engine) {
	done := make(chan any)

	var wg sync.WaitGroup
	for _, rng := range m.rngs() {
		wg.Add(1)
		go func(rng *rand.Rand) {
			defer wg.Done()

			for {
				select {
				case <-done:
					return
				default:
					m.simulate(state, rng)
					m.metrics.AddEpisode()
				}
			}
		}(rng)
	}

	<-time.After(m.duration)
	close(done)
	wg.Wait()
}

func (m *MCTS) findRoot(state *game.Engine) {
	if m.reuse {
		if root := find(m.root, state.State().Hash(), ReuseDepth); root != nil {
			root.parent = nil
			m.root = root
			m.metrics.SetTreeReset(false)
			return
		}
		log.Trace().Msg("no reusable subtree, starting a new search tree")
	}
	m.root = newDecision(nil, game.NoWinner, state)
	m.metrics.SetTreeReset(true)
}

// find searches breadth first for a node with the given hash.
func find(root *decision, hash game.StateHash, depth int) *decision {
	if root == nil {
		return nil
	}

	level := []*decision{root}
	for d := 0; d <= depth && len(level) > 0; d++ {
		var next []*decision
		for _, node := range level {
			if node.hash == hash {
				return node
			}
			next = append(next, node.children...)
		}
		level = next
	}
	return nil
}

func (m *MCTS) simulate(state *game.Engine, rng *rand.Rand) {
	e := state.Clone()
	newNode := selectThenExpand(m.root, e)
	player, score := rollout(e, m.cutoff, m.evaluate, rng, m.metrics)
	backup(newNode, rewarder(player, score))
}

func selectThenExpand(root *decision, e *game.Engine) *decision {
	node := root
	for {
		child, selected := node.selectOrExpand(e)
		if !selected || child == node {
			return child
		}
		node = child
	}
}

// rollout plays random moves until the game ends or cutoff moves have been
// made, and returns the player the score is credited to.
func rollout(e *game.Engine, cutoff int, evaluate game.Evaluate, rng *rand.Rand, metrics metrics.Collector) (int, float64) {
	depth := 0
	moves := e.ValidMoves()
	// Rollout till game over or for cutoff number of moves
	for len(moves) > 0 && depth < cutoff {
		e.MakeMove(moves[rng.Intn(len(moves))]) // Random rollout policy
		moves = e.ValidMoves()
		depth++
	}
	metrics.AddRollout(depth, e.GameOver())

	if e.GameOver() { // Game over before cutoff
		return e.Winner(), Win
	}

	// At cutoff state, return an evaluation score from current player's perspective
	return e.CurrentPlayer(), evaluate(e.State())
}

func backup(newNode *decision, reward func(int) float64) {
	node := newNode
	for node != nil {
		node = node.backup(reward)
	}
}
