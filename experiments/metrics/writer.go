package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"kalah/game"
	"kalah/meta"
)

// PlayerConfig describes one arena participant.
type PlayerConfig struct {
	ID         int           `json:"id" yaml:"id"`
	Kind       string        `json:"kind" yaml:"kind"`
	Goroutines int           `json:"goroutines,omitempty" yaml:"goroutines,omitempty"`
	Duration   time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
	Episodes   int           `json:"episodes,omitempty" yaml:"episodes,omitempty"`
	Cutoff     int           `json:"cutoff,omitempty" yaml:"cutoff,omitempty"`
	Depth      int           `json:"depth,omitempty" yaml:"depth,omitempty"`
	Model      string        `json:"model,omitempty" yaml:"model,omitempty"`
}

type Setup struct {
	Name      string         `json:"name"`
	Game      game.Config    `json:"game"`
	Players   []PlayerConfig `json:"players"`
	Matchups  [][2]int       `json:"matchups"` // pairs of PlayerConfig.ID
	NumGames  int            `json:"numGames"` // per matchup
	StartTime time.Time      `json:"startTime"`
	EndTime   time.Time      `json:"endTime"`
	Duration  time.Duration  `json:"duration"`
}

type GameRecord struct {
	ID      int
	Player1 int // PlayerConfig.ID seated as player 0
	Player2 int // PlayerConfig.ID seated as player 1
	GameMetric
}

type MoveRecord struct {
	Game int // GameRecord.ID
	MoveMetric
}

// EvalRecord is one periodic evaluation during training.
type EvalRecord struct {
	Step         int
	Episode      int
	WinRate      float64
	DrawRate     float64
	LossRate     float64
	AverageScore float64
	Epsilon      float64
}

type Writer struct {
	baseDir string
}

// NewWriter creates root/name/<timestamp> and writes into it.
func NewWriter(root, name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	return WriterAt(filepath.Join(root, name, timestamp))
}

// WriterAt writes into dir, creating it if needed.
func WriterAt(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, meta.Permissions); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &Writer{baseDir: dir}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteSetup(setup Setup) error {
	data, err := json.MarshalIndent(setup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode setup: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.baseDir, "setup.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write setup: %w", err)
	}
	return nil
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	header := []string{"id", "player1", "player2", "starting_player", "winner", "score1", "score2", "moves", "invalid_moves", "start_time", "end_time", "duration"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			strconv.Itoa(record.Player1),
			strconv.Itoa(record.Player2),
			strconv.Itoa(record.StartingPlayer),
			winnerLabel(record.Winner),
			strconv.Itoa(record.Scores[0]),
			strconv.Itoa(record.Scores[1]),
			strconv.Itoa(record.TotalMoves),
			strconv.Itoa(record.InvalidMoves),
			record.StartTime.Format(time.RFC3339),
			record.EndTime.Format(time.RFC3339),
			record.Duration.String(),
		})
	}
	return w.writeCSV("game_records.csv", header, rows)
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	header := []string{"game", "step", "player", "pit", "duration", "episodes", "full_playouts", "average_rollout", "tree_size", "is_tree_reset"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Game),
			strconv.Itoa(record.Step),
			strconv.Itoa(record.Player),
			strconv.Itoa(record.Pit),
			record.Duration.String(),
			strconv.Itoa(record.Episodes),
			strconv.Itoa(record.FullPlayouts),
			formatFloat(record.AverageRollout()),
			strconv.Itoa(record.TreeSize),
			strconv.FormatBool(record.IsTreeReset),
		})
	}
	return w.writeCSV("move_records.csv", header, rows)
}

func (w *Writer) WriteEvalRecords(records []EvalRecord) error {
	header := []string{"step", "episode", "win_rate", "draw_rate", "loss_rate", "average_score", "epsilon"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Step),
			strconv.Itoa(record.Episode),
			formatFloat(record.WinRate),
			formatFloat(record.DrawRate),
			formatFloat(record.LossRate),
			formatFloat(record.AverageScore),
			formatFloat(record.Epsilon),
		})
	}
	return w.writeCSV("eval_history.csv", header, rows)
}

func (w *Writer) writeCSV(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", name, err)
	}
	return nil
}

func winnerLabel(winner int) string {
	switch winner {
	case game.Draw:
		return "draw"
	case game.NoWinner:
		return "none"
	default:
		return strconv.Itoa(winner)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
