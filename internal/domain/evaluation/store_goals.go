package evaluation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// InsertGoal appends a goal inside one transaction. The sheet's
// existing goal rows are locked first so two concurrent writes cannot
// both pass the count and weight-sum guards against a stale total.
func (s *Store) InsertGoal(ctx context.Context, sheetID string, goal *Goal) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	count, total, _, err := lockSheetGoals(ctx, tx, sheetID, "")
	if err != nil {
		return err
	}
	if count >= MaxGoalsPerSheet {
		return invalidf("a sheet can hold at most %d goals", MaxGoalsPerSheet)
	}
	if total+goal.Weight > TargetWeightSum {
		return invalidf("total weight would exceed %d (currently %d)", TargetWeightSum, total)
	}
	goal.SortOrder = count + 1

	if _, err := tx.Exec(ctx, `
    INSERT INTO goals (id, sheet_id, sort_order, title, description, achievement_criteria, weight)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, goal.ID, sheetID, goal.SortOrder, goal.Title, goal.Description, goal.AchievementCriteria, goal.Weight); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateGoal applies a partial update inside one transaction, checking
// the weight sum against the row-locked sibling goals (the edited goal
// excluded).
func (s *Store) UpdateGoal(ctx context.Context, goalID string, patch GoalPatch) (*Goal, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var sheetID string
	err = tx.QueryRow(ctx, "SELECT sheet_id FROM goals WHERE id = $1", goalID).Scan(&sheetID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	if patch.Weight != nil {
		_, _, otherTotal, err := lockSheetGoals(ctx, tx, sheetID, goalID)
		if err != nil {
			return nil, err
		}
		if otherTotal+*patch.Weight > TargetWeightSum {
			return nil, invalidf("total weight would exceed %d (other goals: %d)", TargetWeightSum, otherTotal)
		}
	}

	sets := []string{}
	args := []any{goalID}
	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title != nil {
		addSet("title", *patch.Title)
	}
	if patch.Description != nil {
		addSet("description", *patch.Description)
	}
	if patch.AchievementCriteria != nil {
		addSet("achievement_criteria", *patch.AchievementCriteria)
	}
	if patch.Weight != nil {
		addSet("weight", *patch.Weight)
	}
	if patch.SortOrder != nil {
		addSet("sort_order", *patch.SortOrder)
	}

	if len(sets) > 0 {
		query := "UPDATE goals SET " + sets[0]
		for _, set := range sets[1:] {
			query += ", " + set
		}
		query += " WHERE id = $1"
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return nil, err
		}
	}

	var goal Goal
	if err := tx.QueryRow(ctx, `
    SELECT id, sheet_id, sort_order, title, description, achievement_criteria, weight
    FROM goals
    WHERE id = $1
  `, goalID).Scan(&goal.ID, &goal.SheetID, &goal.SortOrder, &goal.Title, &goal.Description, &goal.AchievementCriteria, &goal.Weight); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &goal, nil
}

// DeleteGoal removes the goal and its evaluations and renumbers the
// remaining goals densely from 1, all in one transaction.
func (s *Store) DeleteGoal(ctx context.Context, goalID, sheetID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM goal_self_evaluations WHERE goal_id = $1", goalID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM goal_manager_evaluations WHERE goal_id = $1", goalID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, "DELETE FROM goals WHERE id = $1", goalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGoalNotFound
	}

	if _, err := tx.Exec(ctx, `
    WITH ordered AS (
      SELECT id, ROW_NUMBER() OVER (ORDER BY sort_order ASC) AS position
      FROM goals
      WHERE sheet_id = $1
    )
    UPDATE goals SET sort_order = ordered.position
    FROM ordered
    WHERE goals.id = ordered.id
  `, sheetID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// lockSheetGoals locks every goal row of the sheet and returns the
// count, the total weight, and the total excluding excludeID.
func lockSheetGoals(ctx context.Context, tx pgx.Tx, sheetID, excludeID string) (count, total, otherTotal int, err error) {
	rows, err := tx.Query(ctx, "SELECT id, weight FROM goals WHERE sheet_id = $1 FOR UPDATE", sheetID)
	if err != nil {
		return 0, 0, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var weight int
		if err := rows.Scan(&id, &weight); err != nil {
			return 0, 0, 0, err
		}
		count++
		total += weight
		if id != excludeID {
			otherTotal += weight
		}
	}
	return count, total, otherTotal, rows.Err()
}
