package trainer

import "kalah/agent"

// Stats accumulate over a run. Rewards and results are counted from the
// learning seat: the agent's seat against a fixed opponent, player 0 in
// self-play.
type Stats struct {
	Episodes      int
	Moves         int
	TotalReward   float64
	Won           int
	Lost          int
	Drawn         int
	LearningSteps int
	LossSum       float64
}

func (s *Stats) Reset() {
	*s = Stats{}
}

func (s Stats) AverageLoss() float64 {
	if s.LearningSteps == 0 {
		return 0
	}
	return s.LossSum / float64(s.LearningSteps)
}

func (s Stats) AverageReward() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return s.TotalReward / float64(s.Episodes)
}

// Training is the persisted subset of the statistics.
func (s Stats) Training() agent.TrainingStats {
	return agent.TrainingStats{
		Episodes:    s.Episodes,
		TotalReward: s.TotalReward,
		AverageLoss: s.AverageLoss(),
	}
}

func (s *Stats) record(reward float64) {
	s.Episodes++
	s.TotalReward += reward
	switch {
	case reward > 0:
		s.Won++
	case reward < 0:
		s.Lost++
	default:
		s.Drawn++
	}
}
