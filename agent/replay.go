package agent

import (
	"golang.org/x/exp/rand"

	"kalah/game"
)

// Experience is one transition seen from the mover of State. NextState may
// have either player to move.
type Experience struct {
	State     game.GameState `json:"state"`
	Action    int            `json:"action"`
	Reward    float64        `json:"reward"`
	NextState game.GameState `json:"nextState"`
	Done      bool           `json:"done"`
}

// Mover is the player who took Action.
func (e Experience) Mover() int {
	return e.State.CurrentPlayer
}

// ReplayBuffer is a bounded FIFO of experiences.
type ReplayBuffer struct {
	items []Experience
	head  int // index of the oldest item once full
	size  int
}

func NewReplayBuffer(capacity int) *ReplayBuffer {
	if capacity <= 0 {
		panic("replay buffer capacity must be positive")
	}
	return &ReplayBuffer{items: make([]Experience, capacity)}
}

func (rb *ReplayBuffer) Len() int {
	return rb.size
}

func (rb *ReplayBuffer) Cap() int {
	return len(rb.items)
}

// Add appends e, evicting the oldest experience when full.
func (rb *ReplayBuffer) Add(e Experience) {
	if rb.size < len(rb.items) {
		rb.items[(rb.head+rb.size)%len(rb.items)] = e
		rb.size++
		return
	}
	rb.items[rb.head] = e
	rb.head = (rb.head + 1) % len(rb.items)
}

// At returns the i-th oldest experience.
func (rb *ReplayBuffer) At(i int) Experience {
	if i < 0 || i >= rb.size {
		panic("replay buffer index out of range")
	}
	return rb.items[(rb.head+i)%len(rb.items)]
}

// Sample draws n distinct experiences uniformly at random, or nil when the
// buffer holds fewer than n.
func (rb *ReplayBuffer) Sample(n int, rng *rand.Rand) []Experience {
	if n <= 0 || n > rb.size {
		return nil
	}
	batch := make([]Experience, 0, n)
	for _, i := range rng.Perm(rb.size)[:n] {
		batch = append(batch, rb.At(i))
	}
	return batch
}
