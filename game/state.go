package game

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"
)

type StateHash uint64

// GameState is a snapshot of the board. Values handed out by the engine are
// deep copies; mutating them never affects the engine.
type GameState struct {
	Board         []int  `json:"board"`
	Stores        [2]int `json:"stores"`
	CurrentPlayer int    `json:"currentPlayer"`
	GameOver      bool   `json:"gameOver"`
	MoveNumber    int    `json:"moveNumber"`
}

// NewGameState returns the starting position for the configuration.
func NewGameState(c Config) GameState {
	board := make([]int, c.TotalPits())
	for i := range board {
		board[i] = c.SeedsPerPit
	}
	return GameState{Board: board}
}

func (gs GameState) Copy() GameState {
	board := make([]int, len(gs.Board))
	copy(board, gs.Board)
	gs.Board = board
	return gs
}

// PitsPerPlayer derives N from the board length.
func (gs GameState) PitsPerPlayer() int {
	return len(gs.Board) / NumPlayers
}

// FirstPit returns the absolute index of the player's first pit.
func (gs GameState) FirstPit(player int) int {
	return player * gs.PitsPerPlayer()
}

// OwnsPit reports whether pit lies in the player's half.
func (gs GameState) OwnsPit(player, pit int) bool {
	first := gs.FirstPit(player)
	return pit >= first && pit < first+gs.PitsPerPlayer()
}

// SideSeeds sums the seeds on the player's half.
func (gs GameState) SideSeeds(player int) int {
	first := gs.FirstPit(player)
	total := 0
	for _, seeds := range gs.Board[first : first+gs.PitsPerPlayer()] {
		total += seeds
	}
	return total
}

// BoardSeeds sums all seeds still in play.
func (gs GameState) BoardSeeds() int {
	total := 0
	for _, seeds := range gs.Board {
		total += seeds
	}
	return total
}

// TotalSeeds is the conserved quantity: board plus both stores.
func (gs GameState) TotalSeeds() int {
	return gs.BoardSeeds() + gs.Stores[0] + gs.Stores[1]
}

// ValidMoves returns the current player's non-empty pits in ascending order.
func (gs GameState) ValidMoves() []int {
	if gs.GameOver {
		return []int{}
	}
	first := gs.FirstPit(gs.CurrentPlayer)
	moves := make([]int, 0, gs.PitsPerPlayer())
	for pit := first; pit < first+gs.PitsPerPlayer(); pit++ {
		if gs.Board[pit] > 0 {
			moves = append(moves, pit)
		}
	}
	return moves
}

// Winner returns NoWinner while in progress, Draw on equal stores, or the
// seat with the strictly higher store.
func (gs GameState) Winner() int {
	switch {
	case !gs.GameOver:
		return NoWinner
	case gs.Stores[0] > gs.Stores[1]:
		return 0
	case gs.Stores[1] > gs.Stores[0]:
		return 1
	default:
		return Draw
	}
}

func (gs GameState) Hash() StateHash {
	hasher := fnv.New64a()

	binary.Write(hasher, binary.LittleEndian, int64(gs.CurrentPlayer))
	binary.Write(hasher, binary.LittleEndian, gs.GameOver)
	for _, seeds := range gs.Board {
		binary.Write(hasher, binary.LittleEndian, int64(seeds))
	}
	for _, store := range gs.Stores {
		binary.Write(hasher, binary.LittleEndian, int64(store))
	}

	return StateHash(hasher.Sum64())
}

// String renders the board with player 1's pits on top (right to left) and
// player 0's pits below, stores at either end.
func (gs GameState) String() string {
	n := gs.PitsPerPlayer()
	var sb strings.Builder

	sb.WriteString("     ")
	for pit := 2*n - 1; pit >= n; pit-- {
		fmt.Fprintf(&sb, "%3d ", gs.Board[pit])
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%3d  %s %3d\n", gs.Stores[1], strings.Repeat(" ", 4*n-1), gs.Stores[0])
	sb.WriteString("     ")
	for pit := 0; pit < n; pit++ {
		fmt.Fprintf(&sb, "%3d ", gs.Board[pit])
	}
	sb.WriteString("\n")

	if gs.GameOver {
		switch w := gs.Winner(); w {
		case Draw:
			sb.WriteString("game over: draw\n")
		default:
			fmt.Fprintf(&sb, "game over: player %d wins\n", w)
		}
	} else {
		fmt.Fprintf(&sb, "move %d, player %d to move\n", gs.MoveNumber, gs.CurrentPlayer)
	}
	return sb.String()
}
