package period

import (
	"context"

	"evalsheet/internal/domain/evaluation"
)

type StoreAPI interface {
	Insert(ctx context.Context, p *evaluation.Period) error
	Get(ctx context.Context, periodID string) (*evaluation.Period, error)
	List(ctx context.Context) ([]Summary, error)
	SheetsCount(ctx context.Context, periodID string) (int, error)
	PhaseStats(ctx context.Context, periodID string) (map[evaluation.Phase]int, error)
	UpdatePhase(ctx context.Context, periodID string, phase evaluation.Phase) error
	SetActive(ctx context.Context, periodID string, active bool) error
	Delete(ctx context.Context, periodID string) error
	UpsertAssignment(ctx context.Context, assignment *evaluation.Assignment) error
	ListAssignments(ctx context.Context, periodID string) ([]evaluation.Assignment, error)
	ProvisionSheets(ctx context.Context, periodID string) (int, error)
	SheetOwners(ctx context.Context, periodID string) ([]evaluation.SheetOwner, error)
	DeactivateExpired(ctx context.Context) (int, error)
}

// Recorder is the audit sink; satisfied by audit.Service.
type Recorder interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, requestID string, details any) error
}
