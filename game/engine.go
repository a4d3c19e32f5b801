package game

import (
	"errors"
	"fmt"
)

var ErrInvalidState = errors.New("invalid game state")

// Engine owns the canonical GameState for one game and is the only thing that
// mutates it. Consumers that need to look ahead work on Clone or on the
// snapshots returned by State.
type Engine struct {
	config     Config
	state      GameState
	totalSeeds int
}

// NewEngine returns an engine at the starting position. It panics on an
// invalid configuration.
func NewEngine(c Config) *Engine {
	if err := c.Validate(); err != nil {
		panic(err)
	}
	e := &Engine{config: c}
	e.Reset()
	return e
}

// Reset restores the starting position.
func (e *Engine) Reset() {
	e.state = NewGameState(e.config)
	e.totalSeeds = e.config.TotalSeeds()
}

func (e *Engine) Config() Config {
	return e.config
}

// State returns a deep copy of the current state.
func (e *Engine) State() GameState {
	return e.state.Copy()
}

// SetState replaces the current state with a deep copy of gs. The conserved
// seed total is re-derived from gs. A position the player to move cannot play
// from is swept and ends the game.
func (e *Engine) SetState(gs GameState) error {
	if len(gs.Board) != e.config.TotalPits() {
		return fmt.Errorf("%w: board has %d pits, want %d", ErrInvalidState, len(gs.Board), e.config.TotalPits())
	}
	if gs.CurrentPlayer != 0 && gs.CurrentPlayer != 1 {
		return fmt.Errorf("%w: current player %d", ErrInvalidState, gs.CurrentPlayer)
	}
	for pit, seeds := range gs.Board {
		if seeds < 0 {
			return fmt.Errorf("%w: pit %d holds %d seeds", ErrInvalidState, pit, seeds)
		}
	}
	if gs.Stores[0] < 0 || gs.Stores[1] < 0 {
		return fmt.Errorf("%w: negative store %v", ErrInvalidState, gs.Stores)
	}
	e.state = gs.Copy()
	e.totalSeeds = e.state.TotalSeeds()
	if !e.state.GameOver && e.stuck() {
		e.sweep()
	}
	return nil
}

// Clone returns an independent engine with the same state.
func (e *Engine) Clone() *Engine {
	return &Engine{
		config:     e.config,
		state:      e.state.Copy(),
		totalSeeds: e.totalSeeds,
	}
}

// TotalSeeds returns the conserved quantity fixed at reset or SetState.
func (e *Engine) TotalSeeds() int {
	return e.totalSeeds
}

func (e *Engine) CurrentPlayer() int {
	return e.state.CurrentPlayer
}

func (e *Engine) GameOver() bool {
	return e.state.GameOver
}

func (e *Engine) ValidMoves() []int {
	return e.state.ValidMoves()
}

func (e *Engine) IsValidMove(pit int) bool {
	if e.state.GameOver || pit < 0 || pit >= len(e.state.Board) {
		return false
	}
	return e.state.OwnsPit(e.state.CurrentPlayer, pit) && e.state.Board[pit] > 0
}

func (e *Engine) Winner() int {
	return e.state.Winner()
}

// MakeMove sows the seeds of pit for the current player. It returns false and
// leaves the state untouched when the move is not valid.
func (e *Engine) MakeMove(pit int) (MoveOutcome, bool) {
	if !e.IsValidMove(pit) {
		return MoveOutcome{}, false
	}

	s := &e.state
	mover := s.CurrentPlayer
	total := len(s.Board)
	lastOwn := s.FirstPit(mover) + s.PitsPerPlayer() - 1

	seeds := s.Board[pit]
	s.Board[pit] = 0
	outcome := MoveOutcome{
		Pit:    pit,
		Player: mover,
		Picked: seeds,
		Trace:  make([]int, 0, seeds),
	}

	pos := pit
	lapped := false  // origin already skipped once
	inStore := false // last seed went to the mover's store
	wasEmpty := false
	for seeds > 0 {
		// The mover's store sits between their last pit and the next pit.
		if pos == lastOwn && !inStore {
			s.Stores[mover]++
			seeds--
			inStore = true
			outcome.Trace = append(outcome.Trace, Store)
			continue
		}
		inStore = false
		pos = (pos + 1) % total
		if pos == pit && !lapped {
			lapped = true
			continue
		}
		wasEmpty = s.Board[pos] == 0
		s.Board[pos]++
		seeds--
		outcome.Trace = append(outcome.Trace, pos)
	}

	if !inStore && wasEmpty && s.OwnsPit(mover, pos) {
		opp := total - 1 - pos
		if s.Board[opp] > 0 {
			captured := s.Board[opp] + 1
			s.Stores[mover] += captured
			s.Board[opp] = 0
			s.Board[pos] = 0
			outcome.Captured = captured
		}
	}

	if e.finished() {
		e.sweep()
	}

	outcome.ExtraTurn = inStore
	if !inStore {
		s.CurrentPlayer = Opponent(mover)
	}
	s.MoveNumber++
	outcome.MoveNumber = s.MoveNumber
	outcome.GameOver = s.GameOver
	return outcome, true
}

func (e *Engine) finished() bool {
	threshold := e.config.Threshold()
	s := e.state
	return s.Stores[0] >= threshold || s.Stores[1] >= threshold ||
		s.SideSeeds(0) == 0 || s.SideSeeds(1) == 0
}

// stuck reports a position that can only come from SetState: the player to
// move has no seeds, or a store is already past the threshold. An empty
// opponent side is left for the next move to settle.
func (e *Engine) stuck() bool {
	threshold := e.config.Threshold()
	s := e.state
	return s.Stores[0] >= threshold || s.Stores[1] >= threshold ||
		s.SideSeeds(s.CurrentPlayer) == 0
}

// sweep moves every remaining seed into its owner's store and ends the game.
func (e *Engine) sweep() {
	s := &e.state
	for player := 0; player < NumPlayers; player++ {
		s.Stores[player] += s.SideSeeds(player)
	}
	for pit := range s.Board {
		s.Board[pit] = 0
	}
	s.GameOver = true
}

// Scores returns both stores.
func (e *Engine) Scores() [2]int {
	return e.state.Stores
}

func (e *Engine) String() string {
	return e.state.String()
}
