package evaluation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// UpsertSelfEvaluation replaces the goal's self evaluation; nil fields
// are stored as NULL, matching the submit-the-whole-form semantics.
func (s *Store) UpsertSelfEvaluation(ctx context.Context, goalID string, input SelfEvaluationInput) (*SelfEvaluation, error) {
	var evaluation SelfEvaluation
	err := s.DB.QueryRow(ctx, `
    INSERT INTO goal_self_evaluations
      (id, goal_id, performance_reflection, performance_rating,
       competency_reflection1, competency_reflection2, competency_reflection3, competency_rating)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    ON CONFLICT (goal_id) DO UPDATE SET
      performance_reflection = EXCLUDED.performance_reflection,
      performance_rating = EXCLUDED.performance_rating,
      competency_reflection1 = EXCLUDED.competency_reflection1,
      competency_reflection2 = EXCLUDED.competency_reflection2,
      competency_reflection3 = EXCLUDED.competency_reflection3,
      competency_rating = EXCLUDED.competency_rating
    RETURNING id, goal_id, performance_reflection, performance_rating,
              competency_reflection1, competency_reflection2, competency_reflection3, competency_rating
  `, uuid.NewString(), goalID,
		input.PerformanceReflection, input.PerformanceRating,
		input.CompetencyReflection1, input.CompetencyReflection2, input.CompetencyReflection3, input.CompetencyRating,
	).Scan(
		&evaluation.ID, &evaluation.GoalID, &evaluation.PerformanceReflection, &evaluation.PerformanceRating,
		&evaluation.CompetencyReflection1, &evaluation.CompetencyReflection2, &evaluation.CompetencyReflection3, &evaluation.CompetencyRating,
	)
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// UpsertManagerEvaluation replaces the goal's manager evaluation.
func (s *Store) UpsertManagerEvaluation(ctx context.Context, goalID string, input ManagerEvaluationInput) (*ManagerEvaluation, error) {
	var evaluation ManagerEvaluation
	err := s.DB.QueryRow(ctx, `
    INSERT INTO goal_manager_evaluations
      (id, goal_id, performance_comment, performance_rating, competency_comment, competency_rating)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (goal_id) DO UPDATE SET
      performance_comment = EXCLUDED.performance_comment,
      performance_rating = EXCLUDED.performance_rating,
      competency_comment = EXCLUDED.competency_comment,
      competency_rating = EXCLUDED.competency_rating
    RETURNING id, goal_id, performance_comment, performance_rating, competency_comment, competency_rating
  `, uuid.NewString(), goalID,
		input.PerformanceComment, input.PerformanceRating, input.CompetencyComment, input.CompetencyRating,
	).Scan(
		&evaluation.ID, &evaluation.GoalID, &evaluation.PerformanceComment, &evaluation.PerformanceRating,
		&evaluation.CompetencyComment, &evaluation.CompetencyRating,
	)
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// UpsertTotalEvaluation writes the derived average plus whatever
// judgment-zone fields were provided; untouched columns keep their
// values so the two authorship zones never clobber each other.
func (s *Store) UpsertTotalEvaluation(ctx context.Context, sheetID string, average *float64, mgr *ManagerJudgment, hr *HRJudgment) (*TotalEvaluation, error) {
	columns := []string{"id", "sheet_id", "average_score"}
	args := []any{uuid.NewString(), sheetID, average}
	add := func(column string, value any) {
		columns = append(columns, column)
		args = append(args, value)
	}

	if mgr != nil {
		if mgr.CompetencyLevel != nil {
			add("competency_level", *mgr.CompetencyLevel)
		}
		if mgr.CompetencyLevelReason != nil {
			add("competency_level_reason", *mgr.CompetencyLevelReason)
		}
		if mgr.Treatment != nil {
			add("mgr_treatment", *mgr.Treatment)
		}
		if mgr.SalaryChange != nil {
			add("mgr_salary_change", *mgr.SalaryChange)
		}
		if mgr.TreatmentComment != nil {
			add("mgr_treatment_comment", *mgr.TreatmentComment)
		}
		if mgr.Grade != nil {
			add("mgr_grade", *mgr.Grade)
		}
		if mgr.GradeComment != nil {
			add("mgr_grade_comment", *mgr.GradeComment)
		}
	}
	if hr != nil {
		if hr.Treatment != nil {
			add("hr_treatment", *hr.Treatment)
		}
		if hr.SalaryChange != nil {
			add("hr_salary_change", *hr.SalaryChange)
		}
		if hr.Grade != nil {
			add("hr_grade", *hr.Grade)
		}
	}

	query := "INSERT INTO total_evaluations ("
	placeholders := ""
	for i, column := range columns {
		if i > 0 {
			query += ", "
			placeholders += ", "
		}
		query += column
		placeholders += fmt.Sprintf("$%d", i+1)
	}
	query += ") VALUES (" + placeholders + ") ON CONFLICT (sheet_id) DO UPDATE SET average_score = EXCLUDED.average_score"
	for _, column := range columns[3:] {
		query += fmt.Sprintf(", %s = EXCLUDED.%s", column, column)
	}
	query += `
    RETURNING id, sheet_id, average_score, competency_level, competency_level_reason,
              mgr_treatment, mgr_salary_change, mgr_treatment_comment, mgr_grade, mgr_grade_comment,
              hr_treatment, hr_salary_change, hr_grade
  `

	var total TotalEvaluation
	if err := s.DB.QueryRow(ctx, query, args...).Scan(
		&total.ID, &total.SheetID, &total.AverageScore, &total.CompetencyLevel, &total.CompetencyLevelReason,
		&total.MgrTreatment, &total.MgrSalaryChange, &total.MgrTreatmentComment, &total.MgrGrade, &total.MgrGradeComment,
		&total.HRTreatment, &total.HRSalaryChange, &total.HRGrade,
	); err != nil {
		return nil, err
	}
	return &total, nil
}

func (s *Store) SetAverageScore(ctx context.Context, sheetID string, average *float64) error {
	_, err := s.DB.Exec(ctx, "UPDATE total_evaluations SET average_score = $2 WHERE sheet_id = $1", sheetID, average)
	return err
}

func (s *Store) ListViewers(ctx context.Context, sheetID, periodID string) ([]AdditionalViewer, error) {
	query := `
    SELECT av.id, av.sheet_id, av.viewer_user_id, av.created_at,
           v.id, v.name, v.email, v.employee_number,
           o.id, o.name, o.email, o.employee_number
    FROM additional_viewers av
    JOIN users v ON av.viewer_user_id = v.id
    JOIN evaluation_sheets sh ON av.sheet_id = sh.id
    JOIN users o ON sh.user_id = o.id
  `
	args := []any{}
	if sheetID != "" {
		args = append(args, sheetID)
		query += " WHERE av.sheet_id = $1"
	} else if periodID != "" {
		args = append(args, periodID)
		query += " WHERE sh.period_id = $1"
	}
	query += " ORDER BY av.created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	viewers := []AdditionalViewer{}
	for rows.Next() {
		var viewer AdditionalViewer
		if err := rows.Scan(
			&viewer.ID, &viewer.SheetID, &viewer.ViewerID, &viewer.CreatedAt,
			&viewer.Viewer.ID, &viewer.Viewer.Name, &viewer.Viewer.Email, &viewer.Viewer.EmployeeNumber,
			&viewer.SheetOwner.ID, &viewer.SheetOwner.Name, &viewer.SheetOwner.Email, &viewer.SheetOwner.EmployeeNumber,
		); err != nil {
			return nil, err
		}
		viewers = append(viewers, viewer)
	}
	return viewers, rows.Err()
}

func (s *Store) InsertViewer(ctx context.Context, viewer *AdditionalViewer) error {
	return s.DB.QueryRow(ctx, `
    INSERT INTO additional_viewers (id, sheet_id, viewer_user_id)
    VALUES ($1,$2,$3)
    ON CONFLICT (sheet_id, viewer_user_id) DO UPDATE SET viewer_user_id = EXCLUDED.viewer_user_id
    RETURNING created_at
  `, viewer.ID, viewer.SheetID, viewer.ViewerID).Scan(&viewer.CreatedAt)
}

func (s *Store) DeleteViewer(ctx context.Context, viewerID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM additional_viewers WHERE id = $1", viewerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrViewerNotFound
	}
	return nil
}
