package evaluation

import (
	"context"
	"errors"
	"testing"
)

// fakeStore keeps a single sheet aggregate in memory and records the
// write calls the service makes against it.
type fakeStore struct {
	sheets      map[string]*Sheet
	goalToSheet map[string]string
	managerOf   map[string]bool // periodID/ownerID/actorID
	viewersOf   map[string]bool // sheetID/userID
	managed     map[string][]string
	summaries   []SheetSummary

	listFilters    [][]string
	averageWrites  []*float64
	statusWrites   []Phase
	insertedGoals  []*Goal
	addedViewers   []*AdditionalViewer
	removedViewers []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sheets:      map[string]*Sheet{},
		goalToSheet: map[string]string{},
		managerOf:   map[string]bool{},
		viewersOf:   map[string]bool{},
		managed:     map[string][]string{},
	}
}

func (f *fakeStore) addSheet(sheet *Sheet) {
	f.sheets[sheet.ID] = sheet
	for _, goal := range sheet.Goals {
		f.goalToSheet[goal.ID] = sheet.ID
	}
}

func (f *fakeStore) GetSheet(ctx context.Context, sheetID string) (*Sheet, error) {
	sheet, ok := f.sheets[sheetID]
	if !ok {
		return nil, ErrSheetNotFound
	}
	return sheet, nil
}

func (f *fakeStore) SheetIDByGoal(ctx context.Context, goalID string) (string, error) {
	sheetID, ok := f.goalToSheet[goalID]
	if !ok {
		return "", ErrGoalNotFound
	}
	return sheetID, nil
}

func (f *fakeStore) IsManagerOf(ctx context.Context, periodID, ownerID, actorID string) (bool, error) {
	return f.managerOf[periodID+"/"+ownerID+"/"+actorID], nil
}

func (f *fakeStore) IsAdditionalViewer(ctx context.Context, sheetID, userID string) (bool, error) {
	return f.viewersOf[sheetID+"/"+userID], nil
}

func (f *fakeStore) ListSheetSummaries(ctx context.Context, periodID string, userIDs []string) ([]SheetSummary, error) {
	f.listFilters = append(f.listFilters, userIDs)
	return f.summaries, nil
}

func (f *fakeStore) ManagedUserIDs(ctx context.Context, managerID, periodID string) ([]string, error) {
	return f.managed[managerID], nil
}

func (f *fakeStore) InsertGoal(ctx context.Context, sheetID string, goal *Goal) error {
	sheet := f.sheets[sheetID]
	sheet.Goals = append(sheet.Goals, *goal)
	f.goalToSheet[goal.ID] = sheetID
	f.insertedGoals = append(f.insertedGoals, goal)
	return nil
}

func (f *fakeStore) UpdateGoal(ctx context.Context, goalID string, patch GoalPatch) (*Goal, error) {
	sheet := f.sheets[f.goalToSheet[goalID]]
	for i := range sheet.Goals {
		if sheet.Goals[i].ID != goalID {
			continue
		}
		if patch.Title != nil {
			sheet.Goals[i].Title = *patch.Title
		}
		if patch.Weight != nil {
			sheet.Goals[i].Weight = *patch.Weight
		}
		if patch.Description != nil {
			sheet.Goals[i].Description = patch.Description
		}
		return &sheet.Goals[i], nil
	}
	return nil, ErrGoalNotFound
}

func (f *fakeStore) DeleteGoal(ctx context.Context, goalID, sheetID string) error {
	sheet := f.sheets[sheetID]
	kept := sheet.Goals[:0]
	for _, goal := range sheet.Goals {
		if goal.ID != goalID {
			kept = append(kept, goal)
		}
	}
	sheet.Goals = kept
	for i := range sheet.Goals {
		sheet.Goals[i].SortOrder = i + 1
	}
	delete(f.goalToSheet, goalID)
	return nil
}

func (f *fakeStore) UpsertSelfEvaluation(ctx context.Context, goalID string, input SelfEvaluationInput) (*SelfEvaluation, error) {
	sheet := f.sheets[f.goalToSheet[goalID]]
	for i := range sheet.Goals {
		if sheet.Goals[i].ID == goalID {
			sheet.Goals[i].SelfEvaluation = &SelfEvaluation{
				ID:                "se-" + goalID,
				GoalID:            goalID,
				PerformanceRating: input.PerformanceRating,
			}
			return sheet.Goals[i].SelfEvaluation, nil
		}
	}
	return nil, ErrGoalNotFound
}

func (f *fakeStore) UpsertManagerEvaluation(ctx context.Context, goalID string, input ManagerEvaluationInput) (*ManagerEvaluation, error) {
	sheet := f.sheets[f.goalToSheet[goalID]]
	for i := range sheet.Goals {
		if sheet.Goals[i].ID == goalID {
			sheet.Goals[i].ManagerEvaluation = &ManagerEvaluation{
				ID:                "me-" + goalID,
				GoalID:            goalID,
				PerformanceRating: input.PerformanceRating,
			}
			return sheet.Goals[i].ManagerEvaluation, nil
		}
	}
	return nil, ErrGoalNotFound
}

func (f *fakeStore) UpsertTotalEvaluation(ctx context.Context, sheetID string, average *float64, mgr *ManagerJudgment, hr *HRJudgment) (*TotalEvaluation, error) {
	sheet := f.sheets[sheetID]
	if sheet.TotalEvaluation == nil {
		sheet.TotalEvaluation = &TotalEvaluation{ID: "te-" + sheetID, SheetID: sheetID}
	}
	total := sheet.TotalEvaluation
	total.AverageScore = average
	if mgr != nil {
		total.CompetencyLevel = mgr.CompetencyLevel
		total.MgrTreatment = mgr.Treatment
		total.MgrGrade = mgr.Grade
	}
	if hr != nil {
		total.HRTreatment = hr.Treatment
		total.HRGrade = hr.Grade
	}
	return total, nil
}

func (f *fakeStore) SetAverageScore(ctx context.Context, sheetID string, average *float64) error {
	f.averageWrites = append(f.averageWrites, average)
	return nil
}

func (f *fakeStore) UpdateSheetStatus(ctx context.Context, sheetID string, status Phase) error {
	f.statusWrites = append(f.statusWrites, status)
	return nil
}

func (f *fakeStore) ListViewers(ctx context.Context, sheetID, periodID string) ([]AdditionalViewer, error) {
	return []AdditionalViewer{}, nil
}

func (f *fakeStore) InsertViewer(ctx context.Context, viewer *AdditionalViewer) error {
	f.addedViewers = append(f.addedViewers, viewer)
	return nil
}

func (f *fakeStore) DeleteViewer(ctx context.Context, viewerID string) error {
	f.removedViewers = append(f.removedViewers, viewerID)
	return nil
}

func sheetFixture(phase Phase) *Sheet {
	comment := "pushed hard on the migration"
	reflection := "migration landed mid-period"
	rating := RatingA
	return &Sheet{
		ID:       "sheet-1",
		UserID:   "u1",
		PeriodID: "p1",
		Status:   phase,
		User:     SheetOwner{ID: "u1", Name: "Aiko Tanaka", Email: "aiko@example.com", EmployeeNumber: "E-0001"},
		Period:   Period{ID: "p1", Name: "FY2026 first half", Year: 2026, Half: HalfFirst, CurrentPhase: phase, IsActive: true},
		Goals: []Goal{
			{
				ID: "g1", SheetID: "sheet-1", SortOrder: 1, Title: "Ship the migration", Weight: 40,
				SelfEvaluation:    &SelfEvaluation{ID: "se1", GoalID: "g1", PerformanceReflection: &reflection, PerformanceRating: &rating},
				ManagerEvaluation: &ManagerEvaluation{ID: "me1", GoalID: "g1", PerformanceComment: &comment, PerformanceRating: &rating},
			},
			{ID: "g2", SheetID: "sheet-1", SortOrder: 2, Title: "Mentor two juniors", Weight: 30},
			{ID: "g3", SheetID: "sheet-1", SortOrder: 3, Title: "Document the runbooks", Weight: 30},
		},
	}
}

var (
	ownerActor    = Actor{UserID: "u1", Roles: []Role{RoleEmployee}}
	managerActor  = Actor{UserID: "m1", Roles: []Role{RoleManager}}
	hrActor       = Actor{UserID: "h1", Roles: []Role{RoleHR}}
	strangerActor = Actor{UserID: "x1", Roles: []Role{RoleEmployee}}
)

func newServiceWithSheet(phase Phase) (*Service, *fakeStore, *Sheet) {
	store := newFakeStore()
	sheet := sheetFixture(phase)
	store.addSheet(sheet)
	store.managerOf["p1/u1/m1"] = true
	return NewService(store), store, sheet
}

func TestGetSheetRedactsForOwner(t *testing.T) {
	svc, _, _ := newServiceWithSheet(PhaseManagerEvaluation)

	view, err := svc.GetSheet(context.Background(), ownerActor, "sheet-1")
	if err != nil {
		t.Fatalf("GetSheet: %v", err)
	}
	if !view.IsOwner || view.IsManager {
		t.Errorf("relationship flags wrong: owner=%v manager=%v", view.IsOwner, view.IsManager)
	}
	if view.Goals[0].ManagerEvaluation != nil {
		t.Error("manager evaluation should be redacted for the owner")
	}
	if view.EditPermissions != (Capabilities{}) {
		t.Errorf("owner has no edit rights in manager_evaluation, got %+v", view.EditPermissions)
	}
	if !view.WeightValidation.IsValid || view.WeightValidation.TotalWeight != 100 {
		t.Errorf("weight validation not computed: %+v", view.WeightValidation)
	}
}

func TestGetSheetForbiddenIsNotNotFound(t *testing.T) {
	svc, _, _ := newServiceWithSheet(PhaseGoalSetting)

	if _, err := svc.GetSheet(context.Background(), strangerActor, "sheet-1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("unrelated employee should get ErrForbidden, got %v", err)
	}
	if _, err := svc.GetSheet(context.Background(), ownerActor, "no-such"); !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("missing sheet should get ErrSheetNotFound, got %v", err)
	}
}

func TestGetSheetAllowsAdditionalViewer(t *testing.T) {
	svc, store, _ := newServiceWithSheet(PhaseFinalized)
	store.viewersOf["sheet-1/x1"] = true

	view, err := svc.GetSheet(context.Background(), strangerActor, "sheet-1")
	if err != nil {
		t.Fatalf("GetSheet as viewer: %v", err)
	}
	if view.EditPermissions != (Capabilities{}) {
		t.Errorf("viewers never edit, got %+v", view.EditPermissions)
	}
}

func TestCreateGoalHappyPath(t *testing.T) {
	svc, store, sheet := newServiceWithSheet(PhaseGoalSetting)
	sheet.Goals = sheet.Goals[:1] // leave 60 weight headroom

	goal, err := svc.CreateGoal(context.Background(), ownerActor, "sheet-1", GoalInput{Title: "Cut build times", Weight: 40})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	if goal.SortOrder != 2 {
		t.Errorf("SortOrder = %d, want 2", goal.SortOrder)
	}
	if len(store.insertedGoals) != 1 {
		t.Errorf("expected one insert, got %d", len(store.insertedGoals))
	}
}

func TestCreateGoalRejectsSeventhGoal(t *testing.T) {
	svc, _, sheet := newServiceWithSheet(PhaseGoalSetting)
	sheet.Goals = nil
	for i := 0; i < 6; i++ {
		sheet.Goals = append(sheet.Goals, Goal{ID: "g", SortOrder: i + 1, Title: "g", Weight: 10})
	}

	_, err := svc.CreateGoal(context.Background(), ownerActor, "sheet-1", GoalInput{Title: "one too many", Weight: 10})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateGoalRejectsWeightOverflow(t *testing.T) {
	svc, _, _ := newServiceWithSheet(PhaseGoalSetting) // fixture already sums to 100

	_, err := svc.CreateGoal(context.Background(), ownerActor, "sheet-1", GoalInput{Title: "overflow", Weight: 10})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateGoalRejectsBlankTitle(t *testing.T) {
	svc, _, sheet := newServiceWithSheet(PhaseGoalSetting)
	sheet.Goals = sheet.Goals[:1]

	_, err := svc.CreateGoal(context.Background(), ownerActor, "sheet-1", GoalInput{Title: "   ", Weight: 10})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateGoalForbiddenOutsideGoalSetting(t *testing.T) {
	svc, _, _ := newServiceWithSheet(PhaseSelfEvaluation)

	if _, err := svc.CreateGoal(context.Background(), ownerActor, "sheet-1", GoalInput{Title: "late goal", Weight: 10}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateGoalForbiddenForManager(t *testing.T) {
	svc, _, _ := newServiceWithSheet(PhaseGoalSetting)

	if _, err := svc.CreateGoal(context.Background(), managerActor, "sheet-1", GoalInput{Title: "not yours", Weight: 10}); !errors.Is(err, ErrForbidden) {
		t.Errorf("goals belong to the owner, got %v", err)
	}
}

func TestDeleteGoalRenumbersAndRefreshesAverage(t *testing.T) {
	svc, store, sheet := newServiceWithSheet(PhaseGoalSetting)
	sheet.TotalEvaluation = &TotalEvaluation{ID: "te1", SheetID: "sheet-1"}

	if err := svc.DeleteGoal(context.Background(), ownerActor, "g1"); err != nil {
		t.Fatalf("DeleteGoal: %v", err)
	}
	if len(sheet.Goals) != 2 || sheet.Goals[0].ID != "g2" || sheet.Goals[0].SortOrder != 1 || sheet.Goals[1].SortOrder != 2 {
		t.Errorf("remaining goals not renumbered: %+v", sheet.Goals)
	}
	if len(store.averageWrites) != 1 {
		t.Fatalf("expected one average refresh, got %d", len(store.averageWrites))
	}
	if store.averageWrites[0] != nil {
		t.Errorf("no rated goals remain, average should be nil, got %v", *store.averageWrites[0])
	}
}

func TestUpsertSelfEvaluationRefreshesAverage(t *testing.T) {
	svc, store, sheet := newServiceWithSheet(PhaseSelfEvaluation)
	sheet.TotalEvaluation = &TotalEvaluation{ID: "te1", SheetID: "sheet-1"}
	rating := RatingS

	_, err := svc.UpsertSelfEvaluation(context.Background(), ownerActor, "g1", SelfEvaluationInput{PerformanceRating: &rating})
	if err != nil {
		t.Fatalf("UpsertSelfEvaluation: %v", err)
	}
	if len(store.averageWrites) != 1 {
		t.Fatalf("expected one average refresh, got %d", len(store.averageWrites))
	}
	// Only g1 is rated: S over weight 40 averages to exactly 4.
	if got := store.averageWrites[0]; got == nil || *got != 4 {
		t.Errorf("average = %v, want 4", got)
	}
}

func TestUpsertSelfEvaluationForbiddenForManager(t *testing.T) {
	svc, _, _ := newServiceWithSheet(PhaseSelfEvaluation)
	rating := RatingS

	_, err := svc.UpsertSelfEvaluation(context.Background(), managerActor, "g1", SelfEvaluationInput{PerformanceRating: &rating})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestUpsertManagerEvaluationPhaseGate(t *testing.T) {
	svc, _, _ := newServiceWithSheet(PhaseManagerEvaluation)
	rating := RatingA

	if _, err := svc.UpsertManagerEvaluation(context.Background(), managerActor, "g2", ManagerEvaluationInput{PerformanceRating: &rating}); err != nil {
		t.Errorf("manager should write in manager_evaluation: %v", err)
	}
	if _, err := svc.UpsertManagerEvaluation(context.Background(), ownerActor, "g2", ManagerEvaluationInput{PerformanceRating: &rating}); !errors.Is(err, ErrForbidden) {
		t.Errorf("owner must not write manager evaluations, got %v", err)
	}
}

func TestUpdateSheetStatusGuards(t *testing.T) {
	cases := []struct {
		name    string
		actor   Actor
		status  Phase
		wantErr bool
	}{
		{"owner confirms self evaluation", ownerActor, PhaseSelfConfirmed, false},
		{"manager cannot confirm self", managerActor, PhaseSelfConfirmed, true},
		{"manager confirms manager evaluation", managerActor, PhaseManagerConfirmed, false},
		{"owner cannot confirm manager", ownerActor, PhaseManagerConfirmed, true},
		{"owner cannot finalize", ownerActor, PhaseFinalized, true},
		{"hr moves anything", hrActor, PhaseFinalized, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, _ := newServiceWithSheet(PhaseManagerEvaluation)
			sheet, err := svc.UpdateSheetStatus(context.Background(), tc.actor, "sheet-1", tc.status)
			if tc.wantErr {
				if !errors.Is(err, ErrForbidden) {
					t.Fatalf("expected ErrForbidden, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateSheetStatus: %v", err)
			}
			if sheet.Status != tc.status {
				t.Errorf("Status = %s, want %s", sheet.Status, tc.status)
			}
			if len(store.statusWrites) != 1 || store.statusWrites[0] != tc.status {
				t.Errorf("status writes = %v", store.statusWrites)
			}
		})
	}
}

func TestUpsertTotalEvaluationDropsUnauthorizedZone(t *testing.T) {
	svc, _, _ := newServiceWithSheet(PhaseManagerEvaluation)
	treatment := TreatmentRaise
	grade := GradeG3
	level := CompetencyLevel35

	total, err := svc.UpsertTotalEvaluation(context.Background(), managerActor, "sheet-1",
		&ManagerJudgment{CompetencyLevel: &level, Treatment: &treatment, Grade: &grade},
		&HRJudgment{Treatment: &treatment, Grade: &grade})
	if err != nil {
		t.Fatalf("UpsertTotalEvaluation: %v", err)
	}
	if total.MgrTreatment == nil || total.CompetencyLevel == nil {
		t.Error("manager zone should be written")
	}
	if total.HRTreatment != nil || total.HRGrade != nil {
		t.Error("hr zone must be dropped for a manager")
	}
	// g1 carries an A rating over weight 40, so the derived average is 3.
	if total.AverageScore == nil || *total.AverageScore != 3 {
		t.Errorf("AverageScore = %v, want 3", total.AverageScore)
	}
}

func TestUpsertTotalEvaluationForbiddenWhenNothingWritable(t *testing.T) {
	svc, _, _ := newServiceWithSheet(PhaseManagerEvaluation)
	treatment := TreatmentMaintain

	_, err := svc.UpsertTotalEvaluation(context.Background(), ownerActor, "sheet-1",
		&ManagerJudgment{Treatment: &treatment}, &HRJudgment{Treatment: &treatment})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestUpsertTotalEvaluationHRZoneInHRPhase(t *testing.T) {
	svc, _, _ := newServiceWithSheet(PhaseHREvaluation)
	treatment := TreatmentRaise
	grade := GradeG5

	total, err := svc.UpsertTotalEvaluation(context.Background(), hrActor, "sheet-1",
		nil, &HRJudgment{Treatment: &treatment, Grade: &grade})
	if err != nil {
		t.Fatalf("UpsertTotalEvaluation: %v", err)
	}
	if total.HRTreatment == nil || *total.HRTreatment != TreatmentRaise {
		t.Error("hr zone should be written in hr_evaluation")
	}
}

func TestListSheetsScoping(t *testing.T) {
	svc, store, _ := newServiceWithSheet(PhaseGoalSetting)
	store.managed["m1"] = []string{"u1", "u2"}

	if _, err := svc.ListSheets(context.Background(), hrActor, "p1"); err != nil {
		t.Fatalf("ListSheets hr: %v", err)
	}
	if _, err := svc.ListSheets(context.Background(), managerActor, "p1"); err != nil {
		t.Fatalf("ListSheets manager: %v", err)
	}
	if _, err := svc.ListSheets(context.Background(), strangerActor, "p1"); err != nil {
		t.Fatalf("ListSheets employee: %v", err)
	}

	if len(store.listFilters) != 3 {
		t.Fatalf("expected 3 list calls, got %d", len(store.listFilters))
	}
	if store.listFilters[0] != nil {
		t.Errorf("hr filter should be nil (everything), got %v", store.listFilters[0])
	}
	wantManager := []string{"m1", "u1", "u2"}
	if got := store.listFilters[1]; len(got) != 3 || got[0] != wantManager[0] || got[1] != wantManager[1] || got[2] != wantManager[2] {
		t.Errorf("manager filter = %v, want %v", got, wantManager)
	}
	if got := store.listFilters[2]; len(got) != 1 || got[0] != "x1" {
		t.Errorf("employee filter = %v, want [x1]", got)
	}
}

func TestListTeamSheets(t *testing.T) {
	svc, store, _ := newServiceWithSheet(PhaseGoalSetting)

	if _, err := svc.ListTeamSheets(context.Background(), strangerActor, "p1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("employees have no team view, got %v", err)
	}

	sheets, err := svc.ListTeamSheets(context.Background(), managerActor, "p1")
	if err != nil {
		t.Fatalf("ListTeamSheets: %v", err)
	}
	if sheets == nil || len(sheets) != 0 {
		t.Errorf("no reports should yield an empty slice, got %v", sheets)
	}
	if len(store.listFilters) != 0 {
		t.Error("store should not be queried when the manager has no reports")
	}

	store.managed["m1"] = []string{"u1"}
	if _, err := svc.ListTeamSheets(context.Background(), managerActor, "p1"); err != nil {
		t.Fatalf("ListTeamSheets with reports: %v", err)
	}
	if len(store.listFilters) != 1 || len(store.listFilters[0]) != 1 || store.listFilters[0][0] != "u1" {
		t.Errorf("team filter = %v, want [u1]", store.listFilters)
	}
}

func TestViewerOperationsRequireHR(t *testing.T) {
	svc, store, _ := newServiceWithSheet(PhaseFinalized)

	if _, err := svc.AddViewer(context.Background(), managerActor, "sheet-1", "x1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("AddViewer should be HR-only, got %v", err)
	}
	if _, err := svc.ListViewers(context.Background(), ownerActor, "sheet-1", "p1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("ListViewers should be HR-only, got %v", err)
	}
	if err := svc.RemoveViewer(context.Background(), ownerActor, "av1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("RemoveViewer should be HR-only, got %v", err)
	}

	viewer, err := svc.AddViewer(context.Background(), hrActor, "sheet-1", "x1")
	if err != nil {
		t.Fatalf("AddViewer: %v", err)
	}
	if viewer.ID == "" || viewer.SheetID != "sheet-1" || viewer.ViewerID != "x1" {
		t.Errorf("viewer not populated: %+v", viewer)
	}
	if len(store.addedViewers) != 1 {
		t.Errorf("expected one insert, got %d", len(store.addedViewers))
	}

	if err := svc.RemoveViewer(context.Background(), hrActor, viewer.ID); err != nil {
		t.Fatalf("RemoveViewer: %v", err)
	}
	if len(store.removedViewers) != 1 || store.removedViewers[0] != viewer.ID {
		t.Errorf("delete calls = %v", store.removedViewers)
	}

	if _, err := svc.AddViewer(context.Background(), hrActor, "no-such", "x1"); !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("AddViewer on missing sheet should fail, got %v", err)
	}
}
