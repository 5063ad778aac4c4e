package evaluation

import "math"

type ScoredGoal struct {
	Weight int
	Rating *PerformanceRating
}

// AverageScore computes the weighted mean of self-evaluation
// performance ratings. Goals without a rating are excluded from both
// numerator and denominator: partial completion narrows the sample
// instead of penalizing the average. Returns nil when no goal is rated.
func AverageScore(goals []ScoredGoal) *float64 {
	var weightedSum, totalWeight int
	for _, goal := range goals {
		if goal.Rating == nil {
			continue
		}
		weightedSum += goal.Rating.Value() * goal.Weight
		totalWeight += goal.Weight
	}
	if totalWeight == 0 {
		return nil
	}
	average := roundHalfUp(float64(weightedSum)/float64(totalWeight), 2)
	return &average
}

func roundHalfUp(value float64, decimals int) float64 {
	shift := math.Pow(10, float64(decimals))
	return math.Floor(value*shift+0.5) / shift
}
