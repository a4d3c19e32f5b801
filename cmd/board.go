package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"kalah/game"
)

// board draws positions from one player's point of view: their pits along
// the bottom numbered from 1, their store on the right.
type board struct {
	out    *termenv.Output
	player int
}

func newBoard(w io.Writer, player int) *board {
	return &board{out: termenv.NewOutput(w), player: player}
}

func (b *board) color(player int) termenv.Color {
	if player == b.player {
		return b.out.Color("2")
	}
	return b.out.Color("1")
}

func (b *board) row(gs game.GameState, player int, reverse bool) string {
	n := gs.PitsPerPlayer()
	first := gs.FirstPit(player)
	cells := make([]string, n)
	for i := 0; i < n; i++ {
		cell := fmt.Sprintf("%3d", gs.Board[first+i])
		if reverse {
			cells[n-1-i] = cell
		} else {
			cells[i] = cell
		}
	}
	style := b.out.String(strings.Join(cells, " ")).Foreground(b.color(player))
	if player == gs.CurrentPlayer {
		style = style.Bold()
	}
	return style.String()
}

func (b *board) Render(gs game.GameState) string {
	n := gs.PitsPerPlayer()
	opponent := game.Opponent(b.player)
	width := 4*n - 1

	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("%3d", i+1)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "     %s\n", b.row(gs, opponent, true))
	fmt.Fprintf(&sb, "%s  %s  %s\n",
		b.out.String(fmt.Sprintf("%3d", gs.Stores[opponent])).Foreground(b.color(opponent)).Bold(),
		strings.Repeat(" ", width),
		b.out.String(fmt.Sprintf("%-3d", gs.Stores[b.player])).Foreground(b.color(b.player)).Bold(),
	)
	fmt.Fprintf(&sb, "     %s\n", b.row(gs, b.player, false))
	fmt.Fprintf(&sb, "     %s\n", b.out.String(strings.Join(labels, " ")).Faint())
	return sb.String()
}

// Describe summarises a move with pits numbered from the mover's side.
func (b *board) Describe(before game.GameState, outcome game.MoveOutcome) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "player %d sows pit %d (%d seeds)", outcome.Player, outcome.Pit-before.FirstPit(outcome.Player)+1, outcome.Picked)
	if outcome.Captured > 0 {
		fmt.Fprintf(&sb, ", captures %d", outcome.Captured)
	}
	if outcome.ExtraTurn {
		sb.WriteString(", extra turn")
	}
	return sb.String()
}

// Result announces the outcome from the board owner's point of view.
func (b *board) Result(winner int, scores [2]int) string {
	score := fmt.Sprintf("%d:%d", scores[b.player], scores[game.Opponent(b.player)])
	switch winner {
	case b.player:
		return b.out.String("you win " + score).Foreground(b.color(b.player)).Bold().String()
	case game.Draw:
		return b.out.String("draw " + score).Bold().String()
	case game.NoWinner:
		return "game unfinished " + score
	default:
		return b.out.String("you lose " + score).Foreground(b.color(winner)).Bold().String()
	}
}
