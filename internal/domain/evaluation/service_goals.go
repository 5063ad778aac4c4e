package evaluation

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// CreateGoal appends a goal to the sheet during the goal_setting phase.
// The count and weight-sum guards are re-checked inside the store's
// insert transaction; the checks here give the caller a precise reason
// without opening a transaction for obviously bad input.
func (s *Service) CreateGoal(ctx context.Context, actor Actor, sheetID string, input GoalInput) (*Goal, error) {
	sheet, rel, err := s.loadSheet(ctx, actor, sheetID)
	if err != nil {
		return nil, err
	}
	caps := ResolveCapabilities(sheet.Period.CurrentPhase, actor, rel)
	if !caps.CanEditGoals {
		return nil, ErrForbidden
	}

	if strings.TrimSpace(input.Title) == "" {
		return nil, invalidf("title is required")
	}
	if input.Weight < MinGoalWeight || input.Weight > MaxGoalWeight {
		return nil, invalidf("weight must be between %d and %d", MinGoalWeight, MaxGoalWeight)
	}
	if len(sheet.Goals) >= MaxGoalsPerSheet {
		return nil, invalidf("a sheet can hold at most %d goals", MaxGoalsPerSheet)
	}
	currentTotal := 0
	for _, goal := range sheet.Goals {
		currentTotal += goal.Weight
	}
	if currentTotal+input.Weight > TargetWeightSum {
		return nil, invalidf("total weight would exceed %d (currently %d)", TargetWeightSum, currentTotal)
	}

	goal := &Goal{
		ID:                  uuid.NewString(),
		SheetID:             sheetID,
		SortOrder:           len(sheet.Goals) + 1,
		Title:               input.Title,
		Description:         input.Description,
		AchievementCriteria: input.AchievementCriteria,
		Weight:              input.Weight,
	}
	if err := s.store.InsertGoal(ctx, sheetID, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// UpdateGoal applies a partial goal update. The weight-sum guard
// excludes the goal being edited and runs against row-locked siblings
// inside the store transaction.
func (s *Service) UpdateGoal(ctx context.Context, actor Actor, goalID string, patch GoalPatch) (*Goal, error) {
	sheet, _, rel, err := s.loadSheetByGoal(ctx, actor, goalID)
	if err != nil {
		return nil, err
	}
	caps := ResolveCapabilities(sheet.Period.CurrentPhase, actor, rel)
	if !caps.CanEditGoals {
		return nil, ErrForbidden
	}

	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, invalidf("title is required")
	}
	if patch.Weight != nil && (*patch.Weight < MinGoalWeight || *patch.Weight > MaxGoalWeight) {
		return nil, invalidf("weight must be between %d and %d", MinGoalWeight, MaxGoalWeight)
	}

	updated, err := s.store.UpdateGoal(ctx, goalID, patch)
	if err != nil {
		return nil, err
	}

	if patch.Weight != nil {
		fresh, err := s.store.GetSheet(ctx, sheet.ID)
		if err != nil {
			return nil, err
		}
		if err := s.refreshAverageScore(ctx, fresh); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// DeleteGoal removes the goal with its evaluations and renumbers the
// remaining goals densely from 1, all in one transaction, then
// refreshes the derived average.
func (s *Service) DeleteGoal(ctx context.Context, actor Actor, goalID string) error {
	sheet, _, rel, err := s.loadSheetByGoal(ctx, actor, goalID)
	if err != nil {
		return err
	}
	caps := ResolveCapabilities(sheet.Period.CurrentPhase, actor, rel)
	if !caps.CanEditGoals {
		return ErrForbidden
	}

	if err := s.store.DeleteGoal(ctx, goalID, sheet.ID); err != nil {
		return err
	}

	fresh, err := s.store.GetSheet(ctx, sheet.ID)
	if err != nil {
		return err
	}
	return s.refreshAverageScore(ctx, fresh)
}
