package goalshandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"evalsheet/internal/domain/audit"
	"evalsheet/internal/domain/evaluation"
	"evalsheet/internal/transport/http/api"
	"evalsheet/internal/transport/http/middleware"
	sheetshandler "evalsheet/internal/transport/http/handlers/sheets"
)

type Handler struct {
	Service *evaluation.Service
	Audit   *audit.Service
}

func NewHandler(service *evaluation.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/goals/{goalID}", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Put("/", h.handleUpdate)
		r.Delete("/", h.handleDelete)
		r.Put("/self-evaluation", h.handleUpsertSelfEvaluation)
		r.Put("/manager-evaluation", h.handleUpsertManagerEvaluation)
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var patch evaluation.GoalPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	user, _ := middleware.GetUser(r.Context())
	goalID := chi.URLParam(r, "goalID")
	goal, err := h.Service.UpdateGoal(r.Context(), user.Actor(), goalID, patch)
	if err != nil {
		sheetshandler.WriteDomainError(w, err, "goal_update_failed", "failed to update goal", requestID)
		return
	}
	h.record(r, "goal.update", goalID, nil)
	api.Success(w, goal, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	goalID := chi.URLParam(r, "goalID")
	if err := h.Service.DeleteGoal(r.Context(), user.Actor(), goalID); err != nil {
		sheetshandler.WriteDomainError(w, err, "goal_delete_failed", "failed to delete goal", requestID)
		return
	}
	h.record(r, "goal.delete", goalID, nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleUpsertSelfEvaluation(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var input evaluation.SelfEvaluationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	user, _ := middleware.GetUser(r.Context())
	goalID := chi.URLParam(r, "goalID")
	saved, err := h.Service.UpsertSelfEvaluation(r.Context(), user.Actor(), goalID, input)
	if err != nil {
		sheetshandler.WriteDomainError(w, err, "self_evaluation_failed", "failed to save self evaluation", requestID)
		return
	}
	h.record(r, "goal.self_evaluation.upsert", goalID, nil)
	api.Success(w, saved, requestID)
}

func (h *Handler) handleUpsertManagerEvaluation(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var input evaluation.ManagerEvaluationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	user, _ := middleware.GetUser(r.Context())
	goalID := chi.URLParam(r, "goalID")
	saved, err := h.Service.UpsertManagerEvaluation(r.Context(), user.Actor(), goalID, input)
	if err != nil {
		sheetshandler.WriteDomainError(w, err, "manager_evaluation_failed", "failed to save manager evaluation", requestID)
		return
	}
	h.record(r, "goal.manager_evaluation.upsert", goalID, nil)
	api.Success(w, saved, requestID)
}

func (h *Handler) record(r *http.Request, action, entityID string, details any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Audit.Record(r.Context(), user.UserID, action, "goal", entityID, requestID, details); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
