package period

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"evalsheet/internal/domain/evaluation"
)

type fakeStore struct {
	periods     map[string]*evaluation.Period
	sheetCounts map[string]int
	assignments map[string][]evaluation.Assignment
	owners      map[string][]evaluation.SheetOwner

	phaseWrites []evaluation.Phase
	deleted     []string
	provisioned int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		periods:     map[string]*evaluation.Period{},
		sheetCounts: map[string]int{},
		assignments: map[string][]evaluation.Assignment{},
		owners:      map[string][]evaluation.SheetOwner{},
	}
}

func (f *fakeStore) Insert(ctx context.Context, p *evaluation.Period) error {
	for _, existing := range f.periods {
		if existing.Year == p.Year && existing.Half == p.Half {
			return ErrDuplicatePeriod
		}
	}
	copied := *p
	f.periods[p.ID] = &copied
	return nil
}

func (f *fakeStore) Get(ctx context.Context, periodID string) (*evaluation.Period, error) {
	p, ok := f.periods[periodID]
	if !ok {
		return nil, ErrPeriodNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeStore) List(ctx context.Context) ([]Summary, error) {
	return []Summary{}, nil
}

func (f *fakeStore) SheetsCount(ctx context.Context, periodID string) (int, error) {
	return f.sheetCounts[periodID], nil
}

func (f *fakeStore) PhaseStats(ctx context.Context, periodID string) (map[evaluation.Phase]int, error) {
	return map[evaluation.Phase]int{}, nil
}

func (f *fakeStore) UpdatePhase(ctx context.Context, periodID string, phase evaluation.Phase) error {
	f.periods[periodID].CurrentPhase = phase
	f.phaseWrites = append(f.phaseWrites, phase)
	return nil
}

func (f *fakeStore) SetActive(ctx context.Context, periodID string, active bool) error {
	if active {
		for id, p := range f.periods {
			if id != periodID {
				p.IsActive = false
			}
		}
	}
	f.periods[periodID].IsActive = active
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, periodID string) error {
	if _, ok := f.periods[periodID]; !ok {
		return ErrPeriodNotFound
	}
	delete(f.periods, periodID)
	f.deleted = append(f.deleted, periodID)
	return nil
}

func (f *fakeStore) UpsertAssignment(ctx context.Context, assignment *evaluation.Assignment) error {
	f.assignments[assignment.PeriodID] = append(f.assignments[assignment.PeriodID], *assignment)
	return nil
}

func (f *fakeStore) ListAssignments(ctx context.Context, periodID string) ([]evaluation.Assignment, error) {
	return f.assignments[periodID], nil
}

func (f *fakeStore) ProvisionSheets(ctx context.Context, periodID string) (int, error) {
	created := len(f.assignments[periodID]) - f.sheetCounts[periodID]
	if created < 0 {
		created = 0
	}
	f.sheetCounts[periodID] = len(f.assignments[periodID])
	f.provisioned += created
	return created, nil
}

func (f *fakeStore) SheetOwners(ctx context.Context, periodID string) ([]evaluation.SheetOwner, error) {
	return f.owners[periodID], nil
}

func (f *fakeStore) DeactivateExpired(ctx context.Context) (int, error) {
	count := 0
	for _, p := range f.periods {
		if p.IsActive && p.EndDate.Before(time.Now()) {
			p.IsActive = false
			count++
		}
	}
	return count, nil
}

type recordedEvent struct {
	actorID string
	action  string
	entity  string
	details any
}

type fakeRecorder struct {
	events []recordedEvent
}

func (f *fakeRecorder) Record(ctx context.Context, actorID, action, entityType, entityID, requestID string, details any) error {
	f.events = append(f.events, recordedEvent{actorID: actorID, action: action, entity: entityID, details: details})
	return nil
}

type fakeMailer struct {
	sent []string
}

func (f *fakeMailer) Send(ctx context.Context, from, to, subject, body string) error {
	f.sent = append(f.sent, to)
	return nil
}

func newTestService(phase evaluation.Phase) (*Service, *fakeStore, *fakeRecorder, *fakeMailer) {
	store := newFakeStore()
	store.periods["p1"] = &evaluation.Period{
		ID: "p1", Name: "FY2026 first half", Year: 2026, Half: evaluation.HalfFirst,
		StartDate:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		CurrentPhase: phase, IsActive: true,
	}
	store.owners["p1"] = []evaluation.SheetOwner{{ID: "u1", Email: "aiko@example.com"}}
	recorder := &fakeRecorder{}
	mailer := &fakeMailer{}
	return NewService(store, recorder, mailer, "noreply@example.com"), store, recorder, mailer
}

func TestCreateStartsInactiveAtGoalSetting(t *testing.T) {
	svc, _, _, _ := newTestService(evaluation.PhaseGoalSetting)

	created, err := svc.Create(context.Background(), CreateInput{
		Name: "FY2026 second half", Year: 2026, Half: evaluation.HalfSecond,
		StartDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2027, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.CurrentPhase != evaluation.PhaseGoalSetting || created.IsActive {
		t.Errorf("new period must start inactive at goal_setting: %+v", created)
	}

	_, err = svc.Create(context.Background(), CreateInput{
		Name: "duplicate", Year: 2026, Half: evaluation.HalfSecond,
	})
	if !errors.Is(err, ErrDuplicatePeriod) {
		t.Errorf("same year+half must be rejected, got %v", err)
	}
}

func TestAdvancePhaseStepsForwardAndNotifies(t *testing.T) {
	svc, store, recorder, mailer := newTestService(evaluation.PhaseGoalSetting)

	updated, err := svc.AdvancePhase(context.Background(), "h1", "req-1", "p1")
	if err != nil {
		t.Fatalf("AdvancePhase: %v", err)
	}
	if updated.CurrentPhase != evaluation.PhaseGoalReview {
		t.Errorf("CurrentPhase = %s, want goal_review", updated.CurrentPhase)
	}
	if len(store.phaseWrites) != 1 || store.phaseWrites[0] != evaluation.PhaseGoalReview {
		t.Errorf("phase writes = %v", store.phaseWrites)
	}
	if len(recorder.events) != 1 || recorder.events[0].action != "period.phase.advance" {
		t.Fatalf("audit events = %+v", recorder.events)
	}
	details, ok := recorder.events[0].details.(map[string]string)
	if !ok || details["from"] != "goal_setting" || details["to"] != "goal_review" {
		t.Errorf("audit details = %v", recorder.events[0].details)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "aiko@example.com" {
		t.Errorf("phase change notice = %v", mailer.sent)
	}
}

func TestAdvancePhaseTerminal(t *testing.T) {
	svc, store, _, _ := newTestService(evaluation.PhaseFinalized)

	if _, err := svc.AdvancePhase(context.Background(), "h1", "req-1", "p1"); !errors.Is(err, ErrPhaseTerminal) {
		t.Errorf("expected ErrPhaseTerminal, got %v", err)
	}
	if len(store.phaseWrites) != 0 {
		t.Errorf("no phase write expected, got %v", store.phaseWrites)
	}
}

func TestForcePhaseRegressionWarnsAndAudits(t *testing.T) {
	var logBuf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logBuf, nil)))
	defer slog.SetDefault(previous)

	svc, _, recorder, _ := newTestService(evaluation.PhaseHREvaluation)

	updated, err := svc.ForcePhase(context.Background(), "h1", "req-1", "p1", evaluation.PhaseGoalSetting)
	if err != nil {
		t.Fatalf("ForcePhase: %v", err)
	}
	if updated.CurrentPhase != evaluation.PhaseGoalSetting {
		t.Errorf("CurrentPhase = %s, want goal_setting", updated.CurrentPhase)
	}
	if !strings.Contains(logBuf.String(), "phase reversal") {
		t.Error("a backward move must log a warning")
	}
	if len(recorder.events) != 1 || recorder.events[0].action != "period.phase.force" {
		t.Fatalf("audit events = %+v", recorder.events)
	}
	details, _ := recorder.events[0].details.(map[string]string)
	if details["from"] != "hr_evaluation" || details["to"] != "goal_setting" {
		t.Errorf("audit details = %v", details)
	}

	// The reverted phase is live immediately: owners can edit goals again.
	owner := evaluation.Actor{UserID: "u1", Roles: []evaluation.Role{evaluation.RoleEmployee}}
	caps := evaluation.ResolveCapabilities(updated.CurrentPhase, owner, evaluation.Relationship{IsOwner: true})
	if !caps.CanEditGoals {
		t.Error("goal editing must reopen after reverting to goal_setting")
	}
}

func TestForcePhaseForwardDoesNotWarn(t *testing.T) {
	var logBuf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logBuf, nil)))
	defer slog.SetDefault(previous)

	svc, _, _, _ := newTestService(evaluation.PhaseGoalSetting)

	if _, err := svc.ForcePhase(context.Background(), "h1", "req-1", "p1", evaluation.PhaseHREvaluation); err != nil {
		t.Fatalf("ForcePhase: %v", err)
	}
	if strings.Contains(logBuf.String(), "phase reversal") {
		t.Error("a forward force is not a reversal")
	}
}

func TestDeleteBlockedWhileSheetsExist(t *testing.T) {
	svc, store, _, _ := newTestService(evaluation.PhaseGoalSetting)
	store.sheetCounts["p1"] = 3

	if err := svc.Delete(context.Background(), "p1"); !errors.Is(err, ErrPeriodHasSheets) {
		t.Errorf("expected ErrPeriodHasSheets, got %v", err)
	}

	store.sheetCounts["p1"] = 0
	if err := svc.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "p1" {
		t.Errorf("deleted = %v", store.deleted)
	}
}

func TestSetActiveKeepsAtMostOneActive(t *testing.T) {
	svc, store, _, _ := newTestService(evaluation.PhaseGoalSetting)
	store.periods["p2"] = &evaluation.Period{
		ID: "p2", Name: "FY2026 second half", Year: 2026, Half: evaluation.HalfSecond,
		CurrentPhase: evaluation.PhaseGoalSetting,
	}

	updated, err := svc.SetActive(context.Background(), "p2", true)
	if err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if !updated.IsActive {
		t.Error("p2 should be active")
	}
	if store.periods["p1"].IsActive {
		t.Error("activating p2 must deactivate p1")
	}

	if _, err := svc.SetActive(context.Background(), "no-such", true); !errors.Is(err, ErrPeriodNotFound) {
		t.Errorf("expected ErrPeriodNotFound, got %v", err)
	}
}

func TestProvisionSheetsCreatesOnlyMissing(t *testing.T) {
	svc, store, _, _ := newTestService(evaluation.PhaseGoalSetting)
	store.assignments["p1"] = []evaluation.Assignment{
		{ID: "a1", PeriodID: "p1", UserID: "u1"},
		{ID: "a2", PeriodID: "p1", UserID: "u2"},
	}
	store.sheetCounts["p1"] = 1

	created, err := svc.ProvisionSheets(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ProvisionSheets: %v", err)
	}
	if created != 1 {
		t.Errorf("created = %d, want 1", created)
	}

	created, err = svc.ProvisionSheets(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ProvisionSheets again: %v", err)
	}
	if created != 0 {
		t.Errorf("second run must create nothing, got %d", created)
	}

	if _, err := svc.ProvisionSheets(context.Background(), "no-such"); !errors.Is(err, ErrPeriodNotFound) {
		t.Errorf("expected ErrPeriodNotFound, got %v", err)
	}
}
