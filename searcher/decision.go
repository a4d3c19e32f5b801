package searcher

import (
	"math"
	"sync"

	"kalah/game"
)

// decision is a tree node for one game state. Its statistics are kept from
// the point of view of mover, the player whose move led here.
type decision struct {
	sync.RWMutex
	parent   *decision
	mover    int
	hash     game.StateHash
	moves    []int
	children []*decision
	rewards  float64
	visits   float64
}

func newDecision(parent *decision, mover int, e *game.Engine) *decision {
	moves := e.ValidMoves()
	return &decision{
		parent:   parent,
		mover:    mover,
		hash:     e.State().Hash(),
		moves:    moves,
		children: make([]*decision, 0, len(moves)),
	}
}

// selectOrExpand advances e by one move and returns the child reached. It
// reports true when the child was selected from a fully expanded node and the
// descent should continue.
func (d *decision) selectOrExpand(e *game.Engine) (*decision, bool) {
	d.Lock()
	defer d.Unlock()

	if len(d.moves) == 0 { // Terminal node
		return d, false
	}

	if len(d.moves) > len(d.children) { // Expandable node
		move := d.moves[len(d.children)]
		mover := e.CurrentPlayer()
		e.MakeMove(move)
		child := newDecision(d, mover, e)
		d.children = append(d.children, child)
		child.applyLoss()
		return child, false
	}

	// Fully expanded node
	ith := d.pickChild()
	child := d.children[ith]
	e.MakeMove(d.moves[ith])
	child.applyLoss()
	return child, true
}

func (d *decision) pickChild() int {
	// Siblings may still be waiting on their first backup.
	policy := newUCT(CSquared, math.Max(d.visits, 1))

	maxIndex := 0
	maxScore := math.Inf(-1)
	for i, child := range d.children {
		if score := child.score(policy); score > maxScore {
			maxScore = score
			maxIndex = i
		}
	}
	return maxIndex
}

// applyLoss records a virtual loss so concurrent descents spread out.
func (d *decision) applyLoss() {
	d.Lock()
	defer d.Unlock()

	d.rewards += Loss
	d.visits++
}

func (d *decision) score(policy *uct) float64 {
	d.RLock()
	defer d.RUnlock()

	if d.visits == 0 {
		return math.Inf(1)
	}
	return policy.evaluate(d.rewards, d.visits)
}

func (d *decision) backup(reward func(int) float64) *decision {
	d.Lock()
	defer d.Unlock()

	if d.parent != nil { // Non-root node
		d.rewards -= Loss
		d.visits--
	}

	d.rewards += reward(d.mover)
	d.visits++

	return d.parent
}

func (d *decision) visitCount() float64 {
	d.RLock()
	defer d.RUnlock()

	return d.visits
}

// size counts the nodes of the subtree rooted at d, d included.
func (d *decision) size() int {
	d.RLock()
	children := append([]*decision(nil), d.children...)
	d.RUnlock()

	n := 1
	for _, child := range children {
		n += child.size()
	}
	return n
}

// policy returns the share of visits each explored move received.
func (d *decision) policy() map[int]float64 {
	d.RLock()
	defer d.RUnlock()

	total := 0.0
	counts := make([]float64, len(d.children))
	for i, child := range d.children {
		counts[i] = child.visitCount()
		total += counts[i]
	}

	policy := make(map[int]float64, len(d.children))
	for i, count := range counts {
		if total > 0 {
			policy[d.moves[i]] = count / total
		}
	}
	return policy
}

// bestMove returns the most visited move, preferring earlier moves on ties.
func (d *decision) bestMove() int {
	d.RLock()
	defer d.RUnlock()

	if len(d.children) == 0 {
		panic("node has no children")
	}

	bestIndex := 0
	maxVisits := d.children[0].visitCount()
	for i, child := range d.children[1:] {
		if v := child.visitCount(); v > maxVisits {
			maxVisits = v
			bestIndex = i + 1
		}
	}
	return d.moves[bestIndex]
}
