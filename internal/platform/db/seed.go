package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"evalsheet/internal/domain/auth"
	"evalsheet/internal/domain/evaluation"
	"evalsheet/internal/platform/config"
)

// Seed makes sure a bootstrap HR account exists and, in development,
// a demo evaluation period. Safe to run on every start.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedAdminEmail != "" && cfg.SeedAdminPassword != "" {
		if err := ensureHRUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return err
		}
	}
	if cfg.Environment == "development" {
		if err := ensureDemoPeriod(ctx, pool); err != nil {
			return err
		}
	}
	return nil
}

func ensureHRUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return ensureRole(ctx, pool, id, evaluation.RoleHR)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	id = uuid.NewString()
	if _, err := pool.Exec(ctx, `
    INSERT INTO users (id, employee_number, name, email, password_hash, is_active)
    VALUES ($1, 'HR-0001', 'HR Administrator', $2, $3, TRUE)
  `, id, email, hash); err != nil {
		return err
	}
	return ensureRole(ctx, pool, id, evaluation.RoleHR)
}

func ensureRole(ctx context.Context, pool *pgxpool.Pool, userID string, role evaluation.Role) error {
	_, err := pool.Exec(ctx, `
    INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
    ON CONFLICT (user_id, role) DO NOTHING
  `, userID, role)
	return err
}

func ensureDemoPeriod(ctx context.Context, pool *pgxpool.Pool) error {
	now := time.Now()
	year := now.Year()
	half := evaluation.HalfFirst
	start := time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.September, 30, 0, 0, 0, 0, time.UTC)
	if now.Month() >= time.October || now.Month() <= time.March {
		half = evaluation.HalfSecond
		start = time.Date(year, time.October, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(year+1, time.March, 31, 0, 0, 0, 0, time.UTC)
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM evaluation_periods WHERE year = $1 AND half = $2", year, half).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := pool.Exec(ctx, `
    INSERT INTO evaluation_periods (id, name, year, half, start_date, end_date, current_phase, is_active)
    VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
  `, uuid.NewString(), "Demo Period", year, half, start, end, evaluation.PhaseGoalSetting)
	return err
}
