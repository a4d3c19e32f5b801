package trainer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"kalah/experiments/metrics"
)

const (
	BestModelFile    = "best.json"
	BestMetadataFile = "best.yaml"
)

// Checkpoint describes the saved best model.
type Checkpoint struct {
	Episode      int       `yaml:"episode"`
	Step         int       `yaml:"step"`
	WinRate      float64   `yaml:"winRate"`
	DrawRate     float64   `yaml:"drawRate"`
	LossRate     float64   `yaml:"lossRate"`
	AverageScore float64   `yaml:"averageScore"`
	Epsilon      float64   `yaml:"epsilon"`
	Games        int       `yaml:"games"`
	SavedAt      time.Time `yaml:"savedAt"`
}

// Checkpoint evaluates the agent, appends to the evaluation history and saves
// the agent as the new best when its win rate improves. It reports whether a
// new best was saved.
func (t *Trainer) Checkpoint(ctx context.Context) (bool, error) {
	eval, err := t.Evaluate(ctx, t.config.EvalGames, nil)
	if err != nil {
		return false, err
	}

	record := metrics.EvalRecord{
		Step:         t.agent.Step(),
		Episode:      t.stats.Episodes,
		WinRate:      eval.Total.WinRate(),
		DrawRate:     eval.Total.DrawRate(),
		LossRate:     eval.Total.LossRate(),
		AverageScore: eval.Total.AverageScore(),
		Epsilon:      t.agent.Epsilon(),
	}
	t.history = append(t.history, record)

	improved := !t.hasBest || record.WinRate > t.best
	if improved {
		t.best = record.WinRate
		t.hasBest = true
	}

	if t.config.CheckpointDir == "" {
		return improved, nil
	}

	writer, err := metrics.WriterAt(t.config.CheckpointDir)
	if err != nil {
		return false, err
	}
	if err := writer.WriteEvalRecords(t.history); err != nil {
		return false, err
	}
	if !improved {
		return false, nil
	}

	if err := t.agent.Save(filepath.Join(writer.Dir(), BestModelFile), t.stats.Training()); err != nil {
		return false, err
	}
	meta := Checkpoint{
		Episode:      record.Episode,
		Step:         record.Step,
		WinRate:      record.WinRate,
		DrawRate:     record.DrawRate,
		LossRate:     record.LossRate,
		AverageScore: record.AverageScore,
		Epsilon:      record.Epsilon,
		Games:        eval.Total.Games,
		SavedAt:      time.Now().UTC(),
	}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return false, fmt.Errorf("failed to encode checkpoint metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(writer.Dir(), BestMetadataFile), data, 0644); err != nil {
		return false, fmt.Errorf("failed to write checkpoint metadata: %w", err)
	}

	log.Info().Int("episode", record.Episode).Float64("winRate", record.WinRate).Msg("saved new best checkpoint")
	return true, nil
}

// LoadCheckpoint reads the metadata of the best model in dir.
func LoadCheckpoint(dir string) (Checkpoint, error) {
	var c Checkpoint
	data, err := os.ReadFile(filepath.Join(dir, BestMetadataFile))
	if err != nil {
		return c, fmt.Errorf("failed to read checkpoint metadata: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to parse checkpoint metadata: %w", err)
	}
	return c, nil
}
