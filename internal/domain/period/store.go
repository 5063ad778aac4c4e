package period

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"evalsheet/internal/domain/evaluation"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Insert(ctx context.Context, p *evaluation.Period) error {
	var count int
	if err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM evaluation_periods WHERE year = $1 AND half = $2",
		p.Year, p.Half,
	).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicatePeriod
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO evaluation_periods (id, name, year, half, start_date, end_date, current_phase, is_active)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, p.ID, p.Name, p.Year, p.Half, p.StartDate, p.EndDate, p.CurrentPhase, p.IsActive)
	return err
}

func (s *Store) Get(ctx context.Context, periodID string) (*evaluation.Period, error) {
	var p evaluation.Period
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, year, half, start_date, end_date, current_phase, is_active
    FROM evaluation_periods
    WHERE id = $1
  `, periodID).Scan(&p.ID, &p.Name, &p.Year, &p.Half, &p.StartDate, &p.EndDate, &p.CurrentPhase, &p.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPeriodNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.id, p.name, p.year, p.half, p.start_date, p.end_date, p.current_phase, p.is_active,
           COUNT(sh.id)
    FROM evaluation_periods p
    LEFT JOIN evaluation_sheets sh ON sh.period_id = p.id
    GROUP BY p.id
    ORDER BY p.year DESC, p.half DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var summary Summary
		if err := rows.Scan(
			&summary.ID, &summary.Name, &summary.Year, &summary.Half,
			&summary.StartDate, &summary.EndDate, &summary.CurrentPhase, &summary.IsActive,
			&summary.SheetsCount,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (s *Store) SheetsCount(ctx context.Context, periodID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM evaluation_sheets WHERE period_id = $1", periodID).Scan(&count)
	return count, err
}

// PhaseStats counts sheets per status marker within the period.
func (s *Store) PhaseStats(ctx context.Context, periodID string) (map[evaluation.Phase]int, error) {
	rows, err := s.DB.Query(ctx,
		"SELECT status, COUNT(1) FROM evaluation_sheets WHERE period_id = $1 GROUP BY status",
		periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[evaluation.Phase]int{}
	for rows.Next() {
		var status evaluation.Phase
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func (s *Store) UpdatePhase(ctx context.Context, periodID string, phase evaluation.Phase) error {
	_, err := s.DB.Exec(ctx, "UPDATE evaluation_periods SET current_phase = $2 WHERE id = $1", periodID, phase)
	return err
}

// SetActive flips the period's active flag; activating one period
// deactivates every other so at most one stays active.
func (s *Store) SetActive(ctx context.Context, periodID string, active bool) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if active {
		if _, err := tx.Exec(ctx, "UPDATE evaluation_periods SET is_active = FALSE WHERE is_active = TRUE AND id <> $1", periodID); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, "UPDATE evaluation_periods SET is_active = $2 WHERE id = $1", periodID, active); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Delete(ctx context.Context, periodID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM evaluation_periods WHERE id = $1", periodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (s *Store) UpsertAssignment(ctx context.Context, assignment *evaluation.Assignment) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO period_assignments (id, period_id, user_id, department, manager_id, grade)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (period_id, user_id) DO UPDATE SET
      department = EXCLUDED.department,
      manager_id = EXCLUDED.manager_id,
      grade = EXCLUDED.grade
  `, assignment.ID, assignment.PeriodID, assignment.UserID, assignment.Department, assignment.ManagerID, assignment.Grade)
	return err
}

func (s *Store) ListAssignments(ctx context.Context, periodID string) ([]evaluation.Assignment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, period_id, user_id, department, manager_id, grade
    FROM period_assignments
    WHERE period_id = $1
    ORDER BY user_id
  `, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := []evaluation.Assignment{}
	for rows.Next() {
		var assignment evaluation.Assignment
		if err := rows.Scan(&assignment.ID, &assignment.PeriodID, &assignment.UserID, &assignment.Department, &assignment.ManagerID, &assignment.Grade); err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}
	return assignments, rows.Err()
}

// ProvisionSheets creates one goal_setting sheet per assigned user who
// does not have one yet, and reports how many were created.
func (s *Store) ProvisionSheets(ctx context.Context, periodID string) (int, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO evaluation_sheets (id, user_id, period_id, status)
    SELECT gen_random_uuid()::text, pa.user_id, pa.period_id, $2
    FROM period_assignments pa
    WHERE pa.period_id = $1
      AND NOT EXISTS (
        SELECT 1 FROM evaluation_sheets sh
        WHERE sh.period_id = pa.period_id AND sh.user_id = pa.user_id
      )
  `, periodID, evaluation.PhaseGoalSetting)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// SheetOwners returns owner contact details for phase-change notices.
func (s *Store) SheetOwners(ctx context.Context, periodID string) ([]evaluation.SheetOwner, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id, u.name, u.email, u.employee_number
    FROM evaluation_sheets sh
    JOIN users u ON sh.user_id = u.id
    WHERE sh.period_id = $1
  `, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := []evaluation.SheetOwner{}
	for rows.Next() {
		var owner evaluation.SheetOwner
		if err := rows.Scan(&owner.ID, &owner.Name, &owner.Email, &owner.EmployeeNumber); err != nil {
			return nil, err
		}
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}

// DeactivateExpired flips off active periods whose end date has passed.
func (s *Store) DeactivateExpired(ctx context.Context) (int, error) {
	tag, err := s.DB.Exec(ctx, "UPDATE evaluation_periods SET is_active = FALSE WHERE is_active = TRUE AND end_date < now()")
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
