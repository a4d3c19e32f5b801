// meta/meta.go
package meta

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// APP_NAME names the data and config directories.
const APP_NAME = "kalah"

// GO_ROUTINES defines the number of goroutines to use.
const GO_ROUTINES = 8

// EPISODES defines the number of episodes for MCTS.
const EPISODES = 1000

// WITH_CUTOFF defines the cutoff value for MCTS.
const WITH_CUTOFF = 100

// MAX_TURNS bounds the length of a single game.
const MAX_TURNS = 500

// MINIMAX_DEPTH defines the default search depth for minimax.
const MINIMAX_DEPTH = 5

const Permissions = 0755

var (
	DataDirectory string = filepath.Join(xdg.DataHome, APP_NAME)

	ModelDirectory      string = filepath.Join(DataDirectory, "models")
	CheckpointDirectory string = filepath.Join(DataDirectory, "checkpoints")
	ExperimentDirectory string = filepath.Join(DataDirectory, "experiments")

	ModelFile  string = filepath.Join(ModelDirectory, "agent.json")
	ConfigFile string = filepath.Join(xdg.ConfigHome, APP_NAME, "config.yaml")
)
