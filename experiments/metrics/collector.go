// Package metrics records what searches, moves and games cost and writes the
// records of an experiment or training run to disk.
package metrics

import (
	"sync/atomic"
	"time"
)

// SearchMetric summarises one MCTS decision.
type SearchMetric struct {
	Goroutines   int
	Duration     time.Duration
	Episodes     int
	Cutoff       int
	FullPlayouts int // rollouts that reached the end of the game
	RolloutMoves int
	TreeSize     int // nodes below the root when the search stopped
	IsTreeReset  bool
}

// AverageRollout is the mean number of random moves per episode.
func (s SearchMetric) AverageRollout() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return float64(s.RolloutMoves) / float64(s.Episodes)
}

type MoveMetric struct {
	Step   int
	Player int
	Pit    int
	SearchMetric
}

type GameMetric struct {
	StartingPlayer int
	Winner         int // game.NoWinner when the move limit was hit
	Scores         [2]int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalMoves     int
	InvalidMoves   int
}

// Collector is shared by the search workers; every method but Start and
// Complete may be called concurrently.
type Collector interface {
	Start(goroutines, cutoff int)
	SetTreeReset(value bool)
	AddEpisode()
	AddRollout(moves int, finished bool)
	Complete(treeSize int) SearchMetric
}

type searchCollector struct {
	goroutines   int
	cutoff       int
	startTime    time.Time
	episodes     atomic.Int64
	fullPlayouts atomic.Int64
	rolloutMoves atomic.Int64
	isTreeReset  atomic.Bool
}

func NewCollector() Collector {
	return &searchCollector{}
}

func (c *searchCollector) Start(goroutines, cutoff int) {
	c.startTime = time.Now()
	c.goroutines = goroutines
	c.cutoff = cutoff
	c.episodes.Store(0)
	c.fullPlayouts.Store(0)
	c.rolloutMoves.Store(0)
}

func (c *searchCollector) SetTreeReset(value bool) {
	c.isTreeReset.Store(value)
}

func (c *searchCollector) AddEpisode() {
	c.episodes.Add(1)
}

func (c *searchCollector) AddRollout(moves int, finished bool) {
	c.rolloutMoves.Add(int64(moves))
	if finished {
		c.fullPlayouts.Add(1)
	}
}

func (c *searchCollector) Complete(treeSize int) SearchMetric {
	return SearchMetric{
		Goroutines:   c.goroutines,
		Duration:     time.Since(c.startTime),
		Episodes:     int(c.episodes.Load()),
		Cutoff:       c.cutoff,
		FullPlayouts: int(c.fullPlayouts.Load()),
		RolloutMoves: int(c.rolloutMoves.Load()),
		TreeSize:     treeSize,
		IsTreeReset:  c.isTreeReset.Load(),
	}
}

// nopCollector is used when a search is not being measured.
type nopCollector struct{}

func NewNopCollector() Collector {
	return nopCollector{}
}

func (nopCollector) Start(int, int)            {}
func (nopCollector) SetTreeReset(bool)         {}
func (nopCollector) AddEpisode()               {}
func (nopCollector) AddRollout(int, bool)      {}
func (nopCollector) Complete(int) SearchMetric { return SearchMetric{} }
