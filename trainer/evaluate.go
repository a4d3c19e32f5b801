package trainer

import (
	"context"

	"github.com/rs/zerolog/log"

	"kalah/engine"
	"kalah/game"
	"kalah/policy"
)

// Record counts results from the agent's point of view.
type Record struct {
	Games         int
	Wins          int
	Losses        int
	Draws         int
	Score         int // agent's final stores, summed
	OpponentScore int
}

func (r Record) rate(n int) float64 {
	if r.Games == 0 {
		return 0
	}
	return float64(n) / float64(r.Games)
}

func (r Record) WinRate() float64  { return r.rate(r.Wins) }
func (r Record) LossRate() float64 { return r.rate(r.Losses) }
func (r Record) DrawRate() float64 { return r.rate(r.Draws) }

func (r Record) AverageScore() float64 {
	if r.Games == 0 {
		return 0
	}
	return float64(r.Score) / float64(r.Games)
}

func (r Record) AverageOpponentScore() float64 {
	if r.Games == 0 {
		return 0
	}
	return float64(r.OpponentScore) / float64(r.Games)
}

func (r *Record) add(o Record) {
	r.Games += o.Games
	r.Wins += o.Wins
	r.Losses += o.Losses
	r.Draws += o.Draws
	r.Score += o.Score
	r.OpponentScore += o.OpponentScore
}

// Evaluation holds the results per agent seat and combined.
type Evaluation struct {
	Seats [game.NumPlayers]Record
	Total Record
}

// Evaluate plays games against baseline with exploration disabled,
// alternating the agent's seat. Epsilon is restored afterwards even when ctx
// ends the evaluation early.
func (t *Trainer) Evaluate(ctx context.Context, games int, baseline policy.Policy) (Evaluation, error) {
	if baseline == nil {
		baseline = t.baseline
	}

	var eval Evaluation
	err := t.agent.Greedy(func() error {
		for i := 0; i < games; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			seat := i % game.NumPlayers
			seats := [game.NumPlayers]policy.Policy{baseline, baseline}
			seats[seat] = t.learner

			match := engine.NewMatch(t.game, seats[0], seats[1], engine.WithMaxMoves(t.config.MaxMoves))
			winner, gameMetric, _ := match.Run(ctx)

			result := Record{
				Games:         1,
				Score:         gameMetric.Scores[seat],
				OpponentScore: gameMetric.Scores[game.Opponent(seat)],
			}
			switch terminalReward(winner, seat) {
			case WinReward:
				result.Wins = 1
			case LossReward:
				result.Losses = 1
			default:
				result.Draws = 1
			}
			eval.Seats[seat].add(result)
			eval.Total.add(result)
		}
		return nil
	})
	if err != nil {
		return eval, err
	}

	log.Info().
		Int("games", eval.Total.Games).
		Float64("winRate", eval.Total.WinRate()).
		Float64("drawRate", eval.Total.DrawRate()).
		Float64("lossRate", eval.Total.LossRate()).
		Float64("firstSeatWinRate", eval.Seats[0].WinRate()).
		Float64("secondSeatWinRate", eval.Seats[1].WinRate()).
		Float64("avgScore", eval.Total.AverageScore()).
		Float64("avgOpponentScore", eval.Total.AverageOpponentScore()).
		Msg("evaluation complete")
	return eval, nil
}
