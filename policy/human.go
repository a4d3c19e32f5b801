package policy

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"kalah/game"
	"kalah/utils"
)

// Human reads a move per turn. Pits are numbered 1..N from the reader's own
// side. When input ends or the player types q, onQuit is called and the first
// valid move is returned.
type Human struct {
	in     *bufio.Scanner
	out    io.Writer
	onQuit func()
}

func NewHuman(in io.Reader, out io.Writer, onQuit func()) *Human {
	if onQuit == nil {
		onQuit = func() {}
	}
	return &Human{in: bufio.NewScanner(in), out: out, onQuit: onQuit}
}

func (h *Human) ChooseMove(state game.GameState, valid []int) int {
	if len(valid) == 0 {
		return -1
	}
	first := state.FirstPit(state.CurrentPlayer)
	for {
		fmt.Fprintf(h.out, "player %d, choose a pit (1-%d, q to quit): ", state.CurrentPlayer, state.PitsPerPlayer())
		if !h.in.Scan() {
			h.onQuit()
			return valid[0]
		}

		text := strings.TrimSpace(h.in.Text())
		if text == "q" || text == "quit" {
			h.onQuit()
			return valid[0]
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			fmt.Fprintf(h.out, "%q is not a pit number\n", text)
			continue
		}
		pit := first + n - 1
		if n < 1 || n > state.PitsPerPlayer() || utils.FindIndex(valid, pit) < 0 {
			fmt.Fprintf(h.out, "pit %d cannot be played\n", n)
			continue
		}
		return pit
	}
}
