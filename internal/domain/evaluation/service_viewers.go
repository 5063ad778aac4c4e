package evaluation

import (
	"context"

	"github.com/google/uuid"
)

// Additional viewers are HR-managed read grants outside the normal
// hierarchy.

func (s *Service) ListViewers(ctx context.Context, actor Actor, sheetID, periodID string) ([]AdditionalViewer, error) {
	if !actor.HasRole(RoleHR) {
		return nil, ErrForbidden
	}
	return s.store.ListViewers(ctx, sheetID, periodID)
}

func (s *Service) AddViewer(ctx context.Context, actor Actor, sheetID, viewerUserID string) (*AdditionalViewer, error) {
	if !actor.HasRole(RoleHR) {
		return nil, ErrForbidden
	}
	if _, err := s.store.GetSheet(ctx, sheetID); err != nil {
		return nil, err
	}
	viewer := &AdditionalViewer{
		ID:       uuid.NewString(),
		SheetID:  sheetID,
		ViewerID: viewerUserID,
	}
	if err := s.store.InsertViewer(ctx, viewer); err != nil {
		return nil, err
	}
	return viewer, nil
}

func (s *Service) RemoveViewer(ctx context.Context, actor Actor, viewerID string) error {
	if !actor.HasRole(RoleHR) {
		return ErrForbidden
	}
	return s.store.DeleteViewer(ctx, viewerID)
}
