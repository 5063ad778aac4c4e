package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"evalsheet/internal/domain/audit"
	"evalsheet/internal/domain/auth"
	"evalsheet/internal/domain/evaluation"
	"evalsheet/internal/domain/period"
	"evalsheet/internal/platform/config"
	"evalsheet/internal/platform/db"
	"evalsheet/internal/platform/email"
	"evalsheet/internal/platform/jobs"
	"evalsheet/internal/platform/metrics"
	adminhandler "evalsheet/internal/transport/http/handlers/admin"
	authhandler "evalsheet/internal/transport/http/handlers/auth"
	goalshandler "evalsheet/internal/transport/http/handlers/goals"
	periodshandler "evalsheet/internal/transport/http/handlers/periods"
	sheetshandler "evalsheet/internal/transport/http/handlers/sheets"
	"evalsheet/internal/transport/http/middleware"
)

func Run() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	auditSvc := audit.New(pool)
	mailer := email.New(cfg)

	authSvc := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.AppName)
	evalSvc := evaluation.NewService(evaluation.NewStore(pool))
	periodSvc := period.NewService(period.NewStore(pool), auditSvc, mailer, cfg.EmailFrom)

	jobsSvc := jobs.New(pool, cfg, periodSvc)
	jobsSvc.Start(ctx)

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authSvc).RegisterRoutes(r)
		periodshandler.NewHandler(periodSvc, auditSvc).RegisterRoutes(r)
		sheetshandler.NewHandler(evalSvc, auditSvc).RegisterRoutes(r)
		goalshandler.NewHandler(evalSvc, auditSvc).RegisterRoutes(r)
		adminhandler.NewHandler(collector, auditSvc, jobsSvc).RegisterRoutes(r)
	})

	log.Printf("evalsheet server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
