package game

// Evaluates the game state to a score between -1 and 1 indicating how
// favorable the position is for the current player.
type Evaluate func(GameState) float64

// EvaluateStores compares banked seeds only.
func EvaluateStores(gs GameState) float64 {
	current := gs.CurrentPlayer
	opponent := Opponent(current)
	return normalize(float64(gs.Stores[current]), float64(gs.Stores[opponent]))
}

// EvaluateMaterial also credits seeds left on each side at half weight.
func EvaluateMaterial(gs GameState) float64 {
	current := gs.CurrentPlayer
	opponent := Opponent(current)
	mine := float64(gs.Stores[current]) + 0.5*float64(gs.SideSeeds(current))
	theirs := float64(gs.Stores[opponent]) + 0.5*float64(gs.SideSeeds(opponent))
	return normalize(mine, theirs)
}

// normalize normalizes value relative to otherValue to a score between -1 and 1
func normalize(value float64, otherValue float64) float64 {
	total := value + otherValue
	if total == 0 {
		return 0
	}
	return (value - otherValue) / total
}
