package experiments

import "math"

// Elo estimates the rating difference implied by a score along with the
// bounds of its 95% confidence interval.
func Elo(wins, draws, losses int) (lower float64, elo float64, upper float64) {
	n := float64(wins + draws + losses) // total number of games

	if n == 0 {
		return 0, 0, 0
	}

	w := float64(wins) / n   // measured win probability
	d := float64(draws) / n  // measured draw probability
	l := float64(losses) / n // measured loss probability

	// empirical mean of random variable
	mu := w + d/2

	// standard deviation of the random variable
	sigma := math.Sqrt(w*math.Pow(1-mu, 2)+d*math.Pow(0.5-mu, 2)+l*math.Pow(0-mu, 2)) / math.Sqrt(n)

	return scoreToElo(mu + phiInv(0.025)*sigma), scoreToElo(mu), scoreToElo(mu + phiInv(0.975)*sigma)
}

// scoreToElo maps an expected score to a rating difference, saturating at
// +-1000 for certain results.
func scoreToElo(score float64) float64 {
	switch {
	case score <= 0:
		return -1000
	case score >= 1:
		return 1000
	default:
		return math.Max(-1000, math.Min(1000, -400*math.Log10(1/score-1)))
	}
}

func phiInv(p float64) float64 {
	return math.Sqrt2 * math.Erfinv(2*p-1)
}
