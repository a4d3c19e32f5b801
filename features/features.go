// Package features turns a game state into the fixed-length input vector the
// value approximator consumes. Vectors are always laid out from the point of
// view of the player to move.
package features

import "kalah/game"

// Extractor is stateless once constructed; Extract is deterministic.
type Extractor struct {
	pits       int
	pitCap     float64
	totalSeeds float64
}

// New returns an extractor for the configuration. Pit counts are normalized
// by half the total seed count and clamped to 1.
func New(c game.Config) Extractor {
	return Extractor{
		pits:       c.PitsPerPlayer,
		pitCap:     float64(c.TotalSeeds()) / 2,
		totalSeeds: float64(c.TotalSeeds()),
	}
}

// Len is 2N pit features plus both stores plus the seeds left on the board.
func (x Extractor) Len() int {
	return 2*x.pits + 3
}

func (x Extractor) Extract(gs game.GameState) []float64 {
	vec := make([]float64, x.Len())
	mover := gs.CurrentPlayer
	opponent := game.Opponent(mover)

	own := gs.FirstPit(mover)
	other := gs.FirstPit(opponent)
	for i := 0; i < x.pits; i++ {
		vec[i] = x.pit(gs.Board[own+i])
		vec[x.pits+i] = x.pit(gs.Board[other+i])
	}

	vec[2*x.pits] = float64(gs.Stores[mover]) / x.totalSeeds
	vec[2*x.pits+1] = float64(gs.Stores[opponent]) / x.totalSeeds
	vec[2*x.pits+2] = float64(gs.BoardSeeds()) / x.totalSeeds
	return vec
}

func (x Extractor) pit(seeds int) float64 {
	v := float64(seeds) / x.pitCap
	if v > 1 {
		return 1
	}
	return v
}
