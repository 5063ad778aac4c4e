package evaluation

import "fmt"

const (
	MinGoalWeight    = 1
	MaxGoalWeight    = 40
	TargetWeightSum  = 100
	MaxGoalsPerSheet = 6
)

type WeightValidation struct {
	IsValid     bool     `json:"isValid"`
	TotalWeight int      `json:"totalWeight"`
	Errors      []string `json:"errors"`
}

// ValidateWeights checks a complete sheet's goal weights: every weight
// must lie in [1,40] and the total must equal exactly 100. All
// violations are collected; this drives form state and is separate from
// the hard sum<=100 guard applied on each goal write.
func ValidateWeights(weights []int) WeightValidation {
	validation := WeightValidation{Errors: []string{}}
	for i, weight := range weights {
		validation.TotalWeight += weight
		if weight < MinGoalWeight || weight > MaxGoalWeight {
			validation.Errors = append(validation.Errors,
				fmt.Sprintf("goal %d: weight must be between %d and %d", i+1, MinGoalWeight, MaxGoalWeight))
		}
	}
	if validation.TotalWeight != TargetWeightSum {
		validation.Errors = append(validation.Errors,
			fmt.Sprintf("total weight must equal %d (currently %d)", TargetWeightSum, validation.TotalWeight))
	}
	validation.IsValid = len(validation.Errors) == 0
	return validation
}
