package period

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"evalsheet/internal/domain/evaluation"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// Service manages evaluation periods and their assignments. All
// operations here are HR-directed; the transport layer enforces the
// role before calling in.
type Service struct {
	store     StoreAPI
	audit     Recorder
	mailer    Mailer
	emailFrom string
}

func NewService(store StoreAPI, auditSvc Recorder, mailer Mailer, emailFrom string) *Service {
	return &Service{store: store, audit: auditSvc, mailer: mailer, emailFrom: emailFrom}
}

// Create sets up a new half-year cycle; field validation happens at
// the transport boundary.
func (s *Service) Create(ctx context.Context, input CreateInput) (*evaluation.Period, error) {
	p := &evaluation.Period{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Year:         input.Year,
		Half:         input.Half,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		CurrentPhase: evaluation.PhaseGoalSetting,
		IsActive:     false,
	}
	if err := s.store.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, periodID string) (*Detail, error) {
	p, err := s.store.Get(ctx, periodID)
	if err != nil {
		return nil, err
	}
	count, err := s.store.SheetsCount(ctx, periodID)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.PhaseStats(ctx, periodID)
	if err != nil {
		return nil, err
	}
	return &Detail{Period: *p, SheetsCount: count, PhaseStats: stats}, nil
}

func (s *Service) Delete(ctx context.Context, periodID string) error {
	count, err := s.store.SheetsCount(ctx, periodID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrPeriodHasSheets
	}
	return s.store.Delete(ctx, periodID)
}

func (s *Service) SetActive(ctx context.Context, periodID string, active bool) (*evaluation.Period, error) {
	if _, err := s.store.Get(ctx, periodID); err != nil {
		return nil, err
	}
	if err := s.store.SetActive(ctx, periodID, active); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, periodID)
}

// AdvancePhase moves the period one step forward along the workflow
// order. It is the normal transition path and never moves backward.
func (s *Service) AdvancePhase(ctx context.Context, actorID, requestID, periodID string) (*evaluation.Period, error) {
	p, err := s.store.Get(ctx, periodID)
	if err != nil {
		return nil, err
	}
	next, ok := evaluation.NextPhase(p.CurrentPhase)
	if !ok {
		return nil, ErrPhaseTerminal
	}
	return s.setPhase(ctx, actorID, requestID, p, next, "period.phase.advance")
}

// ForcePhase sets the period to an arbitrary phase. HR keeps override
// authority for correcting mistakes; a regression is allowed but
// logged and audited rather than blocked.
func (s *Service) ForcePhase(ctx context.Context, actorID, requestID, periodID string, phase evaluation.Phase) (*evaluation.Period, error) {
	p, err := s.store.Get(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if phase.Index() < p.CurrentPhase.Index() {
		slog.Warn("phase reversal",
			"periodId", periodID,
			"from", string(p.CurrentPhase),
			"to", string(phase),
		)
	}
	return s.setPhase(ctx, actorID, requestID, p, phase, "period.phase.force")
}

func (s *Service) setPhase(ctx context.Context, actorID, requestID string, p *evaluation.Period, phase evaluation.Phase, action string) (*evaluation.Period, error) {
	previous := p.CurrentPhase
	if err := s.store.UpdatePhase(ctx, p.ID, phase); err != nil {
		return nil, err
	}
	p.CurrentPhase = phase

	if s.audit != nil {
		details := map[string]string{"from": string(previous), "to": string(phase)}
		if err := s.audit.Record(ctx, actorID, action, "evaluation_period", p.ID, requestID, details); err != nil {
			slog.Warn("audit record failed", "action", action, "err", err)
		}
	}
	s.notifyPhaseChange(ctx, p)
	return p, nil
}

// notifyPhaseChange emails sheet owners about the new phase. Delivery
// is best effort; failures are logged and never fail the transition.
func (s *Service) notifyPhaseChange(ctx context.Context, p *evaluation.Period) {
	if s.mailer == nil {
		return
	}
	owners, err := s.store.SheetOwners(ctx, p.ID)
	if err != nil {
		slog.Warn("phase change owner lookup failed", "periodId", p.ID, "err", err)
		return
	}
	subject := fmt.Sprintf("%s: evaluation phase is now %s", p.Name, p.CurrentPhase)
	body := fmt.Sprintf("The evaluation period %q has moved to the %s phase.", p.Name, p.CurrentPhase)
	for _, owner := range owners {
		if err := s.mailer.Send(ctx, s.emailFrom, owner.Email, subject, body); err != nil {
			slog.Warn("phase change notice failed", "to", owner.Email, "err", err)
		}
	}
}

func (s *Service) UpsertAssignment(ctx context.Context, periodID string, input AssignmentInput) (*evaluation.Assignment, error) {
	if _, err := s.store.Get(ctx, periodID); err != nil {
		return nil, err
	}
	assignment := &evaluation.Assignment{
		ID:         uuid.NewString(),
		PeriodID:   periodID,
		UserID:     input.UserID,
		Department: input.Department,
		ManagerID:  input.ManagerID,
		Grade:      input.Grade,
	}
	if err := s.store.UpsertAssignment(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *Service) ListAssignments(ctx context.Context, periodID string) ([]evaluation.Assignment, error) {
	if _, err := s.store.Get(ctx, periodID); err != nil {
		return nil, err
	}
	return s.store.ListAssignments(ctx, periodID)
}

// ProvisionSheets creates missing sheets for every assigned user.
func (s *Service) ProvisionSheets(ctx context.Context, periodID string) (int, error) {
	if _, err := s.store.Get(ctx, periodID); err != nil {
		return 0, err
	}
	return s.store.ProvisionSheets(ctx, periodID)
}

func (s *Service) DeactivateExpired(ctx context.Context) (int, error) {
	return s.store.DeactivateExpired(ctx)
}
