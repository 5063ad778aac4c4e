package evaluation

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// GetSheet loads the full sheet aggregate: owner, period, goals with
// both evaluations, and the total evaluation.
func (s *Store) GetSheet(ctx context.Context, sheetID string) (*Sheet, error) {
	sheet := &Sheet{}
	err := s.DB.QueryRow(ctx, `
    SELECT sh.id, sh.user_id, sh.period_id, sh.status,
           u.id, u.name, u.email, u.employee_number,
           p.id, p.name, p.year, p.half, p.start_date, p.end_date, p.current_phase, p.is_active
    FROM evaluation_sheets sh
    JOIN users u ON sh.user_id = u.id
    JOIN evaluation_periods p ON sh.period_id = p.id
    WHERE sh.id = $1
  `, sheetID).Scan(
		&sheet.ID, &sheet.UserID, &sheet.PeriodID, &sheet.Status,
		&sheet.User.ID, &sheet.User.Name, &sheet.User.Email, &sheet.User.EmployeeNumber,
		&sheet.Period.ID, &sheet.Period.Name, &sheet.Period.Year, &sheet.Period.Half,
		&sheet.Period.StartDate, &sheet.Period.EndDate, &sheet.Period.CurrentPhase, &sheet.Period.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSheetNotFound
	}
	if err != nil {
		return nil, err
	}

	goals, err := s.sheetGoals(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	sheet.Goals = goals

	total, err := s.totalEvaluation(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	sheet.TotalEvaluation = total
	return sheet, nil
}

func (s *Store) sheetGoals(ctx context.Context, sheetID string) ([]Goal, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT g.id, g.sheet_id, g.sort_order, g.title, g.description, g.achievement_criteria, g.weight,
           se.id, se.performance_reflection, se.performance_rating,
           se.competency_reflection1, se.competency_reflection2, se.competency_reflection3, se.competency_rating,
           me.id, me.performance_comment, me.performance_rating, me.competency_comment, me.competency_rating
    FROM goals g
    LEFT JOIN goal_self_evaluations se ON se.goal_id = g.id
    LEFT JOIN goal_manager_evaluations me ON me.goal_id = g.id
    WHERE g.sheet_id = $1
    ORDER BY g.sort_order ASC
  `, sheetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := []Goal{}
	for rows.Next() {
		var goal Goal
		var selfID, mgrID *string
		var self SelfEvaluation
		var mgr ManagerEvaluation
		if err := rows.Scan(
			&goal.ID, &goal.SheetID, &goal.SortOrder, &goal.Title, &goal.Description, &goal.AchievementCriteria, &goal.Weight,
			&selfID, &self.PerformanceReflection, &self.PerformanceRating,
			&self.CompetencyReflection1, &self.CompetencyReflection2, &self.CompetencyReflection3, &self.CompetencyRating,
			&mgrID, &mgr.PerformanceComment, &mgr.PerformanceRating, &mgr.CompetencyComment, &mgr.CompetencyRating,
		); err != nil {
			return nil, err
		}
		if selfID != nil {
			self.ID = *selfID
			self.GoalID = goal.ID
			goal.SelfEvaluation = &self
		}
		if mgrID != nil {
			mgr.ID = *mgrID
			mgr.GoalID = goal.ID
			goal.ManagerEvaluation = &mgr
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

func (s *Store) totalEvaluation(ctx context.Context, sheetID string) (*TotalEvaluation, error) {
	var total TotalEvaluation
	err := s.DB.QueryRow(ctx, `
    SELECT id, sheet_id, average_score, competency_level, competency_level_reason,
           mgr_treatment, mgr_salary_change, mgr_treatment_comment, mgr_grade, mgr_grade_comment,
           hr_treatment, hr_salary_change, hr_grade
    FROM total_evaluations
    WHERE sheet_id = $1
  `, sheetID).Scan(
		&total.ID, &total.SheetID, &total.AverageScore, &total.CompetencyLevel, &total.CompetencyLevelReason,
		&total.MgrTreatment, &total.MgrSalaryChange, &total.MgrTreatmentComment, &total.MgrGrade, &total.MgrGradeComment,
		&total.HRTreatment, &total.HRSalaryChange, &total.HRGrade,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &total, nil
}

func (s *Store) SheetIDByGoal(ctx context.Context, goalID string) (string, error) {
	var sheetID string
	err := s.DB.QueryRow(ctx, "SELECT sheet_id FROM goals WHERE id = $1", goalID).Scan(&sheetID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrGoalNotFound
	}
	if err != nil {
		return "", err
	}
	return sheetID, nil
}

// IsManagerOf answers whether actorID manages ownerID within the
// period, straight from the assignment table.
func (s *Store) IsManagerOf(ctx context.Context, periodID, ownerID, actorID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM period_assignments
    WHERE period_id = $1 AND user_id = $2 AND manager_id = $3
  `, periodID, ownerID, actorID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) IsAdditionalViewer(ctx context.Context, sheetID, userID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM additional_viewers
    WHERE sheet_id = $1 AND viewer_user_id = $2
  `, sheetID, userID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ManagedUserIDs(ctx context.Context, managerID, periodID string) ([]string, error) {
	query := "SELECT user_id FROM period_assignments WHERE manager_id = $1"
	args := []any{managerID}
	if periodID != "" {
		query += " AND period_id = $2"
		args = append(args, periodID)
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, userID)
	}
	return userIDs, rows.Err()
}

func (s *Store) ListSheetSummaries(ctx context.Context, periodID string, userIDs []string) ([]SheetSummary, error) {
	query := `
    SELECT sh.id, sh.user_id, sh.period_id, sh.status,
           u.id, u.name, u.email, u.employee_number,
           p.name, p.current_phase,
           COUNT(g.id), COALESCE(SUM(g.weight), 0)
    FROM evaluation_sheets sh
    JOIN users u ON sh.user_id = u.id
    JOIN evaluation_periods p ON sh.period_id = p.id
    LEFT JOIN goals g ON g.sheet_id = sh.id
  `
	where := []string{}
	args := []any{}
	if periodID != "" {
		args = append(args, periodID)
		where = append(where, "sh.period_id = $1")
	}
	if userIDs != nil {
		args = append(args, userIDs)
		if len(where) == 0 {
			where = append(where, "sh.user_id = ANY($1)")
		} else {
			where = append(where, "sh.user_id = ANY($2)")
		}
	}
	if len(where) > 0 {
		query += " WHERE " + where[0]
		for _, clause := range where[1:] {
			query += " AND " + clause
		}
	}
	query += `
    GROUP BY sh.id, sh.user_id, sh.period_id, sh.status, u.id, u.name, u.email, u.employee_number, p.name, p.current_phase
    ORDER BY sh.created_at DESC
  `

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []SheetSummary{}
	for rows.Next() {
		var summary SheetSummary
		if err := rows.Scan(
			&summary.ID, &summary.UserID, &summary.PeriodID, &summary.Status,
			&summary.User.ID, &summary.User.Name, &summary.User.Email, &summary.User.EmployeeNumber,
			&summary.PeriodName, &summary.PeriodPhase,
			&summary.GoalsCount, &summary.TotalWeight,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (s *Store) UpdateSheetStatus(ctx context.Context, sheetID string, status Phase) error {
	_, err := s.DB.Exec(ctx, "UPDATE evaluation_sheets SET status = $2 WHERE id = $1", sheetID, string(status))
	return err
}
