package evaluation

import "context"

// UpsertSelfEvaluation writes the owner's reflection for one goal
// during the self_evaluation phase, then refreshes the derived average
// so it is never served stale after a rating change.
func (s *Service) UpsertSelfEvaluation(ctx context.Context, actor Actor, goalID string, input SelfEvaluationInput) (*SelfEvaluation, error) {
	sheet, _, rel, err := s.loadSheetByGoal(ctx, actor, goalID)
	if err != nil {
		return nil, err
	}
	caps := ResolveCapabilities(sheet.Period.CurrentPhase, actor, rel)
	if !caps.CanEditSelfEvaluation {
		return nil, ErrForbidden
	}

	evaluation, err := s.store.UpsertSelfEvaluation(ctx, goalID, input)
	if err != nil {
		return nil, err
	}

	fresh, err := s.store.GetSheet(ctx, sheet.ID)
	if err != nil {
		return nil, err
	}
	if err := s.refreshAverageScore(ctx, fresh); err != nil {
		return nil, err
	}
	return evaluation, nil
}

// UpsertManagerEvaluation writes the manager's judgment for one goal
// during the manager_evaluation phase.
func (s *Service) UpsertManagerEvaluation(ctx context.Context, actor Actor, goalID string, input ManagerEvaluationInput) (*ManagerEvaluation, error) {
	sheet, _, rel, err := s.loadSheetByGoal(ctx, actor, goalID)
	if err != nil {
		return nil, err
	}
	caps := ResolveCapabilities(sheet.Period.CurrentPhase, actor, rel)
	if !caps.CanEditManagerEvaluation {
		return nil, ErrForbidden
	}
	return s.store.UpsertManagerEvaluation(ctx, goalID, input)
}

// UpsertTotalEvaluation writes the total evaluation. The record holds
// two authorship zones; each submitted zone is kept only when the
// actor's capabilities cover it, and the call is forbidden when nothing
// writable remains. The average is recomputed as part of the same
// operation.
func (s *Service) UpsertTotalEvaluation(ctx context.Context, actor Actor, sheetID string, mgr *ManagerJudgment, hr *HRJudgment) (*TotalEvaluation, error) {
	sheet, rel, err := s.loadSheet(ctx, actor, sheetID)
	if err != nil {
		return nil, err
	}
	caps := ResolveCapabilities(sheet.Period.CurrentPhase, actor, rel)

	if !caps.CanEditManagerEvaluation {
		mgr = nil
	}
	if !caps.CanEditHREvaluation {
		hr = nil
	}
	if mgr == nil && hr == nil {
		return nil, ErrForbidden
	}

	average := AverageScore(scoredGoals(sheet.Goals))
	return s.store.UpsertTotalEvaluation(ctx, sheetID, average, mgr, hr)
}
