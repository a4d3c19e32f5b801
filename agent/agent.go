// Package agent implements an epsilon-greedy value learner over a pair of
// function approximators with experience replay.
package agent

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"kalah/approx"
	"kalah/features"
	"kalah/game"
	"kalah/utils"
)

type Agent struct {
	config    game.Config
	extractor features.Extractor
	hp        Hyperparameters

	online approx.Approximator
	target approx.Approximator
	buffer *ReplayBuffer
	rng    *rand.Rand

	step         int
	epsilon      float64
	learningRate float64
}

// New wraps online in an agent. The target approximator starts as a copy of
// online.
func New(c game.Config, hp Hyperparameters, online approx.Approximator, rng *rand.Rand) (*Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := hp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid hyperparameters: %w", err)
	}
	x := features.New(c)
	if out := len(online.Predict(make([]float64, x.Len()))); out != c.PitsPerPlayer {
		return nil, fmt.Errorf("%w: approximator has %d outputs, want %d", approx.ErrShapeMismatch, out, c.PitsPerPlayer)
	}
	target, err := approx.Clone(online)
	if err != nil {
		return nil, fmt.Errorf("failed to build target approximator: %w", err)
	}

	return &Agent{
		config:       c,
		extractor:    x,
		hp:           hp,
		online:       online,
		target:       target,
		buffer:       NewReplayBuffer(hp.BufferSize),
		rng:          rng,
		epsilon:      hp.Epsilon,
		learningRate: hp.LearningRate,
	}, nil
}

// NewMLPAgent builds an agent around a freshly initialised MLP.
func NewMLPAgent(c game.Config, hp Hyperparameters, mc approx.MLPConfig, rng *rand.Rand) (*Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	online := approx.NewMLP(features.New(c).Len(), c.PitsPerPlayer, mc, rng)
	return New(c, hp, online, rng)
}

func (a *Agent) Config() game.Config {
	return a.config
}

func (a *Agent) Hyperparameters() Hyperparameters {
	return a.hp
}

func (a *Agent) Step() int {
	return a.step
}

func (a *Agent) Epsilon() float64 {
	return a.epsilon
}

func (a *Agent) SetEpsilon(eps float64) {
	a.epsilon = eps
}

func (a *Agent) LearningRate() float64 {
	return a.learningRate
}

func (a *Agent) Buffer() *ReplayBuffer {
	return a.buffer
}

// Values returns one value per pit of the player to move, relative to that
// player's first pit.
func (a *Agent) Values(gs game.GameState) []float64 {
	return a.online.Predict(a.extractor.Extract(gs))
}

// SelectAction explores with probability epsilon and otherwise plays
// BestAction. It reports false when valid is empty.
func (a *Agent) SelectAction(gs game.GameState, valid []int) (int, bool) {
	if len(valid) == 0 {
		return 0, false
	}
	if a.rng.Float64() < a.epsilon {
		return valid[a.rng.Intn(len(valid))], true
	}
	return a.BestAction(gs, valid)
}

// BestAction returns the valid move with the highest online value. Ties go to
// the earliest entry of valid.
func (a *Agent) BestAction(gs game.GameState, valid []int) (int, bool) {
	if len(valid) == 0 {
		return 0, false
	}
	values := a.Values(gs)
	first := gs.FirstPit(gs.CurrentPlayer)
	return valid[utils.ArgMax(valid, func(pit int) float64 { return values[pit-first] })], true
}

func (a *Agent) Remember(e Experience) {
	a.buffer.Add(e)
}

// Greedy runs fn with exploration disabled and restores epsilon afterwards,
// including when fn fails or panics.
func (a *Agent) Greedy(fn func() error) error {
	saved := a.epsilon
	a.epsilon = 0
	defer func() { a.epsilon = saved }()
	return fn()
}

// LearningStep fits the online approximator on one sampled batch and returns
// its loss. It does nothing until the buffer holds a full batch.
func (a *Agent) LearningStep() (float64, error) {
	if a.buffer.Len() < a.hp.BatchSize {
		return 0, nil
	}

	a.step++
	a.learningRate = linear(a.hp.LearningRate, a.hp.FinalLearningRate, a.step, a.hp.DecaySteps)
	a.epsilon = linear(a.hp.Epsilon, a.hp.MinEpsilon, a.step, a.hp.DecaySteps)

	batch := a.buffer.Sample(a.hp.BatchSize, a.rng)
	xs := make([][]float64, len(batch))
	ys := make([][]float64, len(batch))
	for i, e := range batch {
		xs[i] = a.extractor.Extract(e.State)
		ys[i] = a.online.Predict(xs[i])
		ys[i][e.Action-e.State.FirstPit(e.Mover())] = a.Target(e)
	}

	loss, err := a.online.FitBatch(xs, ys, approx.FitOptions{
		LearningRate: a.learningRate,
		ClipValue:    a.hp.ClipValue,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fit batch at step %d: %w", a.step, err)
	}
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		log.Warn().Int("step", a.step).Float64("loss", loss).Msg("non-finite training loss")
	}

	if a.step%a.hp.TargetUpdateFreq == 0 {
		if err := a.SyncTarget(); err != nil {
			return loss, err
		}
	}
	return loss, nil
}

// Target is the bootstrapped value of the action taken in e, seen from the
// mover of e.State. The next state's best value is negated when the opponent
// moves there.
func (a *Agent) Target(e Experience) float64 {
	if e.Done {
		return e.Reward
	}
	next := a.target.Predict(a.extractor.Extract(e.NextState))
	best := next[0]
	for _, v := range next[1:] {
		best = math.Max(best, v)
	}
	if e.NextState.CurrentPlayer != e.Mover() {
		best = -best
	}
	return e.Reward + a.hp.Gamma*best
}

// SyncTarget copies the online weights into the target approximator.
func (a *Agent) SyncTarget() error {
	if err := a.target.SetWeights(a.online.Weights()); err != nil {
		return fmt.Errorf("failed to sync target approximator: %w", err)
	}
	log.Debug().Int("step", a.step).Msg("synced target approximator")
	return nil
}
