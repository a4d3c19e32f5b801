package metrics

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kalah/game"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.Start(4, 20)
	c.AddEpisode()
	c.AddEpisode()
	c.AddRollout(20, false)
	c.AddRollout(7, true)
	c.SetTreeReset(true)

	metric := c.Complete(12)

	require.Equal(t, 4, metric.Goroutines)
	require.Equal(t, 20, metric.Cutoff)
	require.Equal(t, 2, metric.Episodes)
	require.Equal(t, 1, metric.FullPlayouts, "Only finished rollouts count as full playouts")
	require.Equal(t, 27, metric.RolloutMoves)
	require.InDelta(t, 13.5, metric.AverageRollout(), 1e-12)
	require.Equal(t, 12, metric.TreeSize)
	require.True(t, metric.IsTreeReset)

	c.Start(4, 20)
	require.Zero(t, c.Complete(0).Episodes, "Start should clear counters")

	require.Equal(t, SearchMetric{}, NewNopCollector().Complete(5))
	require.Zero(t, SearchMetric{}.AverageRollout())
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriter(t *testing.T) {
	root := t.TempDir()
	w, err := NewWriter(root, "arena")
	require.NoError(t, err)
	require.DirExists(t, w.Dir())
	require.Equal(t, filepath.Join(root, "arena"), filepath.Dir(w.Dir()))

	t.Run("game records", func(t *testing.T) {
		records := []GameRecord{
			{ID: 1, Player1: 3, Player2: 4, GameMetric: GameMetric{Winner: 0, Scores: [2]int{30, 18}, TotalMoves: 40}},
			{ID: 2, Player1: 4, Player2: 3, GameMetric: GameMetric{Winner: game.Draw, Scores: [2]int{24, 24}}},
			{ID: 3, Player1: 3, Player2: 4, GameMetric: GameMetric{Winner: game.NoWinner}},
		}

		require.NoError(t, w.WriteGameRecords(records))

		rows := readCSV(t, filepath.Join(w.Dir(), "game_records.csv"))
		require.Len(t, rows, 4)
		require.Equal(t, "winner", rows[0][4])
		require.Equal(t, []string{"0", "draw", "none"}, []string{rows[1][4], rows[2][4], rows[3][4]})
		require.Equal(t, "30", rows[1][5])
	})

	t.Run("move records", func(t *testing.T) {
		records := []MoveRecord{{Game: 1, MoveMetric: MoveMetric{Step: 1, Player: 0, Pit: 2, SearchMetric: SearchMetric{Episodes: 100, Duration: time.Millisecond}}}}

		require.NoError(t, w.WriteMoveRecords(records))

		rows := readCSV(t, filepath.Join(w.Dir(), "move_records.csv"))
		require.Equal(t, []string{"1", "1", "0", "2", "1ms", "100", "0", "0.0000", "0", "false"}, rows[1])
	})

	t.Run("eval records", func(t *testing.T) {
		require.NoError(t, w.WriteEvalRecords([]EvalRecord{{Step: 10, Episode: 5, WinRate: 0.5, Epsilon: 0.25}}))

		rows := readCSV(t, filepath.Join(w.Dir(), "eval_history.csv"))
		require.Equal(t, []string{"10", "5", "0.5000", "0.0000", "0.0000", "0.0000", "0.2500"}, rows[1])
	})

	t.Run("setup", func(t *testing.T) {
		setup := Setup{Name: "arena", Game: game.StandardConfig(), NumGames: 2, Matchups: [][2]int{{1, 2}}}

		require.NoError(t, w.WriteSetup(setup))

		data, err := os.ReadFile(filepath.Join(w.Dir(), "setup.json"))
		require.NoError(t, err)
		var got Setup
		require.NoError(t, json.Unmarshal(data, &got))
		require.Equal(t, setup.Matchups, got.Matchups)
		require.Equal(t, setup.Game, got.Game)
	})
}
