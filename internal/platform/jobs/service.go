package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"evalsheet/internal/domain/period"
	"evalsheet/internal/platform/config"
)

const JobPeriodSweep = "period_sweep"

// Service runs background maintenance. The only scheduled job today is
// the period sweep that deactivates periods past their end date; the
// queue keeps room for ad-hoc runs triggered from the admin surface.
type Service struct {
	DB      *pgxpool.Pool
	Cfg     config.Config
	Periods *period.Service
	queue   chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config, periods *period.Service) *Service {
	return &Service{
		DB:      db,
		Cfg:     cfg,
		Periods: periods,
		queue:   make(chan job, 32),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.PeriodSweepInterval > 0 {
		go s.schedulePeriodSweep(ctx, s.Cfg.PeriodSweepInterval)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

// RunNow executes a job inline and records the run like the worker
// would.
func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// RunPeriodSweepNow triggers the period sweep outside its schedule.
func (s *Service) RunPeriodSweepNow(ctx context.Context) (any, error) {
	return s.RunNow(ctx, JobPeriodSweep, s.sweepPeriods)
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, j.Type, "running").Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) schedulePeriodSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobPeriodSweep, s.sweepPeriods)
		}
	}
}

func (s *Service) sweepPeriods(ctx context.Context) (any, error) {
	deactivated, err := s.Periods.DeactivateExpired(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]int{"deactivated": deactivated}, nil
}
