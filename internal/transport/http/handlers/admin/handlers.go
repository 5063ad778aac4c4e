package adminhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"evalsheet/internal/domain/audit"
	"evalsheet/internal/domain/evaluation"
	"evalsheet/internal/platform/jobs"
	"evalsheet/internal/platform/metrics"
	"evalsheet/internal/transport/http/api"
	"evalsheet/internal/transport/http/middleware"
	"evalsheet/internal/transport/http/shared"
)

type Handler struct {
	Metrics *metrics.Collector
	Audit   *audit.Service
	Jobs    *jobs.Service
}

func NewHandler(collector *metrics.Collector, auditSvc *audit.Service, jobsSvc *jobs.Service) *Handler {
	return &Handler{Metrics: collector, Audit: auditSvc, Jobs: jobsSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole(evaluation.RoleHR))
		r.Get("/metrics", h.handleMetrics)
		r.Get("/audit", h.handleAudit)
		r.Post("/jobs/period-sweep", h.handleRunPeriodSweep)
	})
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if h.Metrics == nil {
		api.Fail(w, http.StatusNotFound, "metrics_disabled", "metrics are disabled", requestID)
		return
	}
	api.Success(w, h.Metrics.Snapshot(), requestID)
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	events, err := h.Audit.List(r.Context(), r.URL.Query().Get("action"), page.Limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", requestID)
		return
	}
	api.Success(w, events, requestID)
}

func (h *Handler) handleRunPeriodSweep(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	details, err := h.Jobs.RunPeriodSweepNow(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "job_run_failed", "period sweep failed", requestID)
		return
	}
	api.Success(w, details, requestID)
}
