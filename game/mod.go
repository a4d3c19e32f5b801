package game

import "fmt"

const (
	NumPlayers = 2

	// NoWinner is reported by Winner while the game is still in progress.
	NoWinner = -1
	// Draw is reported by Winner when a finished game has equal stores.
	Draw = 2

	// Store marks a sowing step that deposited into the mover's store.
	Store = -1
)

// Config describes the board layout. The zero WinThreshold means the
// standard threshold of floor(totalSeeds/2)+1.
type Config struct {
	PitsPerPlayer int `yaml:"pitsPerPlayer" json:"pitsPerPlayer"`
	SeedsPerPit   int `yaml:"seedsPerPit" json:"seedsPerPit"`
	WinThreshold  int `yaml:"winThreshold,omitempty" json:"winThreshold,omitempty"`
}

// StandardConfig is the 6 pits, 4 seeds configuration.
func StandardConfig() Config {
	return Config{PitsPerPlayer: 6, SeedsPerPit: 4}
}

func (c Config) TotalPits() int {
	return NumPlayers * c.PitsPerPlayer
}

func (c Config) TotalSeeds() int {
	return c.TotalPits() * c.SeedsPerPit
}

// Threshold returns the store total that ends the game immediately.
func (c Config) Threshold() int {
	if c.WinThreshold > 0 {
		return c.WinThreshold
	}
	return c.TotalSeeds()/2 + 1
}

func (c Config) Validate() error {
	if c.PitsPerPlayer <= 0 {
		return fmt.Errorf("pits per player must be positive, got %d", c.PitsPerPlayer)
	}
	if c.SeedsPerPit <= 0 {
		return fmt.Errorf("seeds per pit must be positive, got %d", c.SeedsPerPit)
	}
	if c.WinThreshold < 0 || c.WinThreshold > c.TotalSeeds() {
		return fmt.Errorf("win threshold %d out of range [0, %d]", c.WinThreshold, c.TotalSeeds())
	}
	return nil
}

// Opponent returns the other seat.
func Opponent(player int) int {
	return 1 - player
}
