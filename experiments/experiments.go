// Package experiments runs arenas: round robins between policies with
// alternating seats whose games and moves are recorded for analysis.
package experiments

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"

	"kalah/engine"
	"kalah/experiments/metrics"
	"kalah/game"
	"kalah/meta"
)

const (
	NumGames   = 30 // Per match up
	TimeBudget = 10 * time.Millisecond
)

// Arena describes an experiment. Matchups pair PlayerConfig IDs; when empty
// every pair of players meets once.
type Arena struct {
	Name     string                 `yaml:"name"`
	Game     game.Config            `yaml:"game"`
	Players  []metrics.PlayerConfig `yaml:"players"`
	Matchups [][2]int               `yaml:"matchups"`
	NumGames int                    `yaml:"numGames"`
	MaxMoves int                    `yaml:"maxMoves"`
	Seed     uint64                 `yaml:"seed"`
}

// LoadArena reads an arena from YAML. The standard board and NumGames fill in
// whatever the file leaves out.
func LoadArena(path string) (Arena, error) {
	a := Arena{Game: game.StandardConfig(), NumGames: NumGames}

	data, err := os.ReadFile(path)
	if err != nil {
		return a, fmt.Errorf("failed to read arena: %w", err)
	}
	if err := yaml.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("failed to parse arena %s: %w", path, err)
	}
	if a.Name == "" {
		a.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if len(a.Players) < 2 {
		return a, fmt.Errorf("arena %s needs at least two players, got %d", a.Name, len(a.Players))
	}
	return a, nil
}

// MatchupResult counts results from the first player's point of view.
type MatchupResult struct {
	Player1  int
	Player2  int
	Wins     int
	Draws    int
	Losses   int
	Elo      float64
	EloLower float64
	EloUpper float64
}

type Result struct {
	Setup    metrics.Setup
	Matchups []MatchupResult
	Games    []metrics.GameRecord
	Moves    []metrics.MoveRecord
}

// ParallelizationExperiment pairs MCTS players with more goroutines against a
// sequential baseline under the same time budget.
func ParallelizationExperiment() Arena {
	baseline := metrics.PlayerConfig{ID: 0, Kind: KindMCTS, Goroutines: 1, Duration: TimeBudget}
	players := []metrics.PlayerConfig{baseline}
	matchups := [][2]int{}
	for i, goroutines := range []int{2, 4, 8, 16} {
		players = append(players, metrics.PlayerConfig{ID: i + 1, Kind: KindMCTS, Goroutines: goroutines, Duration: TimeBudget})
		matchups = append(matchups, [2]int{baseline.ID, i + 1})
	}
	return Arena{Name: "parallelization", Game: game.StandardConfig(), Players: players, Matchups: matchups, NumGames: NumGames}
}

// CutoffExperiment pairs MCTS players with truncated rollouts against full
// playouts.
func CutoffExperiment() Arena {
	baseline := metrics.PlayerConfig{ID: 0, Kind: KindMCTS, Goroutines: meta.GO_ROUTINES, Duration: TimeBudget}
	players := []metrics.PlayerConfig{baseline}
	matchups := [][2]int{}
	for i, cutoff := range []int{5, 10, 20, 40} {
		players = append(players, metrics.PlayerConfig{ID: i + 1, Kind: KindMCTS, Goroutines: baseline.Goroutines, Duration: TimeBudget, Cutoff: cutoff})
		matchups = append(matchups, [2]int{baseline.ID, i + 1})
	}
	return Arena{Name: "cutoff", Game: game.StandardConfig(), Players: players, Matchups: matchups, NumGames: NumGames}
}

// BaselineExperiment plays a trained model against every built-in policy.
func BaselineExperiment(model string) Arena {
	players := []metrics.PlayerConfig{
		{ID: 0, Kind: KindAgent, Model: model},
		{ID: 1, Kind: KindRandom},
		{ID: 2, Kind: KindGreedy},
		{ID: 3, Kind: KindMinimax, Depth: meta.MINIMAX_DEPTH},
		{ID: 4, Kind: KindMCTS, Goroutines: meta.GO_ROUTINES, Episodes: meta.EPISODES, Cutoff: meta.WITH_CUTOFF},
	}
	matchups := [][2]int{{0, 1}, {0, 2}, {0, 3}, {0, 4}}
	return Arena{Name: "baseline", Game: game.StandardConfig(), Players: players, Matchups: matchups, NumGames: NumGames}
}

// RoundRobin pairs every two IDs once.
func RoundRobin(ids []int) [][2]int {
	matchups := [][2]int{}
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			matchups = append(matchups, [2]int{ids[i], ids[j]})
		}
	}
	return matchups
}

// Run plays every matchup, alternating which player moves first. It stops
// between games when ctx is done.
func Run(ctx context.Context, a Arena) (Result, error) {
	if err := a.Game.Validate(); err != nil {
		return Result{}, err
	}
	if a.NumGames <= 0 {
		return Result{}, fmt.Errorf("arena %s needs at least one game per matchup", a.Name)
	}

	players := make(map[int]metrics.PlayerConfig, len(a.Players))
	ids := make([]int, 0, len(a.Players))
	for _, p := range a.Players {
		if _, ok := players[p.ID]; ok {
			return Result{}, fmt.Errorf("duplicate player id %d", p.ID)
		}
		players[p.ID] = p
		ids = append(ids, p.ID)
	}
	matchups := a.Matchups
	if len(matchups) == 0 {
		matchups = RoundRobin(ids)
	}
	for _, m := range matchups {
		for _, id := range m {
			if _, ok := players[id]; !ok {
				return Result{}, fmt.Errorf("matchup %v names unknown player %d", m, id)
			}
		}
	}

	rng := rand.New(rand.NewSource(a.Seed))
	result := Result{Setup: metrics.Setup{
		Name:      a.Name,
		Game:      a.Game,
		Players:   a.Players,
		Matchups:  matchups,
		NumGames:  a.NumGames,
		StartTime: time.Now(),
	}}

	log.Info().Msgf("starting %s experiment...", a.Name)

	for mi, m := range matchups {
		config1, config2 := players[m[0]], players[m[1]]
		policy1, err := NewPolicy(a.Game, config1, rng)
		if err != nil {
			return result, err
		}
		policy2, err := NewPolicy(a.Game, config2, rng)
		if err != nil {
			return result, err
		}

		log.Info().Msgf("starting matchup %d of %d between player1=%+v and player2=%+v...", mi+1, len(matchups), config1, config2)

		mr := MatchupResult{Player1: config1.ID, Player2: config2.ID}
		for i := 0; i < a.NumGames; i++ {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			// Alternate the starting seat
			first, second, ids := policy1, policy2, [2]int{config1.ID, config2.ID}
			if i%2 == 1 {
				first, second, ids = policy2, policy1, [2]int{config2.ID, config1.ID}
			}
			options := []engine.Option{}
			if a.MaxMoves > 0 {
				options = append(options, engine.WithMaxMoves(a.MaxMoves))
			}
			winner, gameMetric, moveMetrics := engine.NewMatch(a.Game, first, second, options...).Run(ctx)

			id := len(result.Games) + 1
			result.Games = append(result.Games, metrics.GameRecord{
				ID:         id,
				Player1:    ids[0],
				Player2:    ids[1],
				GameMetric: gameMetric,
			})
			for _, mm := range moveMetrics {
				result.Moves = append(result.Moves, metrics.MoveRecord{Game: id, MoveMetric: mm})
			}

			switch {
			case winner == game.Draw || winner == game.NoWinner:
				mr.Draws++
			case ids[winner] == config1.ID:
				mr.Wins++
			default:
				mr.Losses++
			}

			log.Debug().Msgf("completed matchup %d of %d game %d with winner: %d", mi+1, len(matchups), i+1, winner)
		}

		mr.EloLower, mr.Elo, mr.EloUpper = Elo(mr.Wins, mr.Draws, mr.Losses)
		result.Matchups = append(result.Matchups, mr)
		log.Info().Msgf("completed matchup %d of %d: +%d =%d -%d, elo %+.0f [%+.0f, %+.0f]",
			mi+1, len(matchups), mr.Wins, mr.Draws, mr.Losses, mr.Elo, mr.EloLower, mr.EloUpper)
	}

	result.Setup.EndTime = time.Now()
	result.Setup.Duration = result.Setup.EndTime.Sub(result.Setup.StartTime)
	log.Info().Msgf("completed %s experiment", a.Name)
	return result, nil
}

// Write stores the setup and records under root/<name>/<timestamp> and
// returns that directory.
func (r Result) Write(root string) (string, error) {
	writer, err := metrics.NewWriter(root, r.Setup.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}

	if err := writer.WriteSetup(r.Setup); err != nil {
		return "", fmt.Errorf("failed to store setup: %w", err)
	}
	log.Info().Msg("stored setup")

	if err := writer.WriteGameRecords(r.Games); err != nil {
		return "", fmt.Errorf("failed to write game records: %w", err)
	}
	log.Info().Msg("stored game records")

	if err := writer.WriteMoveRecords(r.Moves); err != nil {
		return "", fmt.Errorf("failed to write move records: %w", err)
	}
	log.Info().Msg("stored move records")

	return writer.Dir(), nil
}
