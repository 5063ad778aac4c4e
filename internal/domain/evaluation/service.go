package evaluation

import "context"

// Service is the workflow engine. It is stateless between invocations:
// every operation re-resolves the actor's relationship and the period's
// current phase from the store before deciding anything.
type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) resolveRelationship(ctx context.Context, actor Actor, sheet *Sheet) (Relationship, error) {
	rel := Relationship{IsOwner: sheet.UserID == actor.UserID}

	isManager, err := s.store.IsManagerOf(ctx, sheet.PeriodID, sheet.UserID, actor.UserID)
	if err != nil {
		return Relationship{}, err
	}
	rel.IsManager = isManager

	if !rel.IsOwner && !rel.IsManager && !actor.HasRole(RoleHR) {
		isViewer, err := s.store.IsAdditionalViewer(ctx, sheet.ID, actor.UserID)
		if err != nil {
			return Relationship{}, err
		}
		rel.IsViewer = isViewer
	}
	return rel, nil
}

// loadSheet fetches the sheet aggregate and authorizes read access.
// A sheet that exists but is inaccessible is forbidden, never absent.
func (s *Service) loadSheet(ctx context.Context, actor Actor, sheetID string) (*Sheet, Relationship, error) {
	sheet, err := s.store.GetSheet(ctx, sheetID)
	if err != nil {
		return nil, Relationship{}, err
	}
	rel, err := s.resolveRelationship(ctx, actor, sheet)
	if err != nil {
		return nil, Relationship{}, err
	}
	if !CanReadSheet(actor, rel) {
		return nil, Relationship{}, ErrForbidden
	}
	return sheet, rel, nil
}

func (s *Service) loadSheetByGoal(ctx context.Context, actor Actor, goalID string) (*Sheet, *Goal, Relationship, error) {
	sheetID, err := s.store.SheetIDByGoal(ctx, goalID)
	if err != nil {
		return nil, nil, Relationship{}, err
	}
	sheet, rel, err := s.loadSheet(ctx, actor, sheetID)
	if err != nil {
		return nil, nil, Relationship{}, err
	}
	for i := range sheet.Goals {
		if sheet.Goals[i].ID == goalID {
			return sheet, &sheet.Goals[i], rel, nil
		}
	}
	return nil, nil, Relationship{}, ErrGoalNotFound
}

// GetSheet returns the redacted, capability-annotated view of a sheet.
func (s *Service) GetSheet(ctx context.Context, actor Actor, sheetID string) (*SheetView, error) {
	sheet, rel, err := s.loadSheet(ctx, actor, sheetID)
	if err != nil {
		return nil, err
	}
	Redact(sheet, actor, rel)

	weights := make([]int, len(sheet.Goals))
	for i, goal := range sheet.Goals {
		weights[i] = goal.Weight
	}

	return &SheetView{
		Sheet:            *sheet,
		EditPermissions:  ResolveCapabilities(sheet.Period.CurrentPhase, actor, rel),
		IsOwner:          rel.IsOwner,
		IsManager:        rel.IsManager,
		WeightValidation: ValidateWeights(weights),
	}, nil
}

// ListSheets returns sheet summaries scoped by role: HR sees every
// sheet, managers see their own plus their reports', employees see
// their own.
func (s *Service) ListSheets(ctx context.Context, actor Actor, periodID string) ([]SheetSummary, error) {
	if actor.HasRole(RoleHR) {
		return s.store.ListSheetSummaries(ctx, periodID, nil)
	}
	if actor.HasRole(RoleManager) {
		managed, err := s.store.ManagedUserIDs(ctx, actor.UserID, periodID)
		if err != nil {
			return nil, err
		}
		return s.store.ListSheetSummaries(ctx, periodID, append([]string{actor.UserID}, managed...))
	}
	return s.store.ListSheetSummaries(ctx, periodID, []string{actor.UserID})
}

// ListTeamSheets returns only the sheets of the actor's reports.
func (s *Service) ListTeamSheets(ctx context.Context, actor Actor, periodID string) ([]SheetSummary, error) {
	if !actor.HasRole(RoleManager) && !actor.HasRole(RoleHR) {
		return nil, ErrForbidden
	}
	managed, err := s.store.ManagedUserIDs(ctx, actor.UserID, periodID)
	if err != nil {
		return nil, err
	}
	if len(managed) == 0 {
		return []SheetSummary{}, nil
	}
	return s.store.ListSheetSummaries(ctx, periodID, managed)
}

// UpdateSheetStatus moves the sheet's own status marker. Confirming the
// self evaluation is reserved to the owner, confirming the manager
// evaluation to the sheet's manager; every other transition needs HR.
func (s *Service) UpdateSheetStatus(ctx context.Context, actor Actor, sheetID string, status Phase) (*Sheet, error) {
	sheet, rel, err := s.loadSheet(ctx, actor, sheetID)
	if err != nil {
		return nil, err
	}

	if !actor.HasRole(RoleHR) {
		switch status {
		case PhaseSelfConfirmed:
			if !rel.IsOwner {
				return nil, ErrForbidden
			}
		case PhaseManagerConfirmed:
			if !rel.IsManager {
				return nil, ErrForbidden
			}
		default:
			return nil, ErrForbidden
		}
	}

	if err := s.store.UpdateSheetStatus(ctx, sheetID, status); err != nil {
		return nil, err
	}
	sheet.Status = status
	return sheet, nil
}

// refreshAverageScore recomputes the derived average from the sheet's
// current goals and persists it if a total evaluation record exists.
// Callers must pass a freshly loaded sheet.
func (s *Service) refreshAverageScore(ctx context.Context, sheet *Sheet) error {
	if sheet.TotalEvaluation == nil {
		return nil
	}
	average := AverageScore(scoredGoals(sheet.Goals))
	sheet.TotalEvaluation.AverageScore = average
	return s.store.SetAverageScore(ctx, sheet.ID, average)
}

func scoredGoals(goals []Goal) []ScoredGoal {
	scored := make([]ScoredGoal, 0, len(goals))
	for _, goal := range goals {
		var rating *PerformanceRating
		if goal.SelfEvaluation != nil {
			rating = goal.SelfEvaluation.PerformanceRating
		}
		scored = append(scored, ScoredGoal{Weight: goal.Weight, Rating: rating})
	}
	return scored
}
