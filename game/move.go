package game

// MoveOutcome records what a single MakeMove did. Trace lists each sowing
// destination in order; deposits into the mover's store appear as Store.
type MoveOutcome struct {
	Pit        int   `json:"pit"`
	Player     int   `json:"player"`
	MoveNumber int   `json:"moveNumber"`
	Picked     int   `json:"picked"`
	Captured   int   `json:"captured"`
	ExtraTurn  bool  `json:"extraTurn"`
	GameOver   bool  `json:"gameOver"`
	Trace      []int `json:"trace"`
}
