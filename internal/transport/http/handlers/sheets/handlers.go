package sheetshandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"evalsheet/internal/domain/audit"
	"evalsheet/internal/domain/evaluation"
	"evalsheet/internal/domain/reports"
	"evalsheet/internal/transport/http/api"
	"evalsheet/internal/transport/http/middleware"
)

type Handler struct {
	Service *evaluation.Service
	Audit   *audit.Service
}

func NewHandler(service *evaluation.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sheets", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Get("/{sheetID}", h.handleGet)
		r.Patch("/{sheetID}/status", h.handleUpdateStatus)
		r.Put("/{sheetID}/total-evaluation", h.handleUpsertTotalEvaluation)
		r.Post("/{sheetID}/goals", h.handleCreateGoal)

		hr := middleware.RequireRole(evaluation.RoleHR)
		r.With(hr).Get("/{sheetID}/pdf", h.handleExportPDF)
		r.With(hr).Get("/{sheetID}/viewers", h.handleListViewers)
		r.With(hr).Post("/{sheetID}/viewers", h.handleAddViewer)
		r.With(hr).Delete("/{sheetID}/viewers/{viewerID}", h.handleRemoveViewer)
	})
	r.With(middleware.RequireRole(evaluation.RoleManager, evaluation.RoleHR)).Get("/team", h.handleTeam)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	summaries, err := h.Service.ListSheets(r.Context(), user.Actor(), r.URL.Query().Get("periodId"))
	if err != nil {
		h.fail(w, err, "sheet_list_failed", "failed to list sheets", requestID)
		return
	}
	api.Success(w, summaries, requestID)
}

func (h *Handler) handleTeam(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	summaries, err := h.Service.ListTeamSheets(r.Context(), user.Actor(), r.URL.Query().Get("periodId"))
	if err != nil {
		h.fail(w, err, "team_list_failed", "failed to list team sheets", requestID)
		return
	}
	api.Success(w, summaries, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	view, err := h.Service.GetSheet(r.Context(), user.Actor(), chi.URLParam(r, "sheetID"))
	if err != nil {
		h.fail(w, err, "sheet_get_failed", "failed to load sheet", requestID)
		return
	}
	api.Success(w, view, requestID)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	status, err := evaluation.ParsePhase(payload.Status)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_status", "unknown status", requestID)
		return
	}

	user, _ := middleware.GetUser(r.Context())
	sheetID := chi.URLParam(r, "sheetID")
	sheet, err := h.Service.UpdateSheetStatus(r.Context(), user.Actor(), sheetID, status)
	if err != nil {
		h.fail(w, err, "status_update_failed", "failed to update status", requestID)
		return
	}
	h.record(r, "sheet.status.update", sheetID, map[string]string{"status": string(status)})
	api.Success(w, sheet, requestID)
}

func (h *Handler) handleUpsertTotalEvaluation(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload struct {
		Manager *evaluation.ManagerJudgment `json:"manager"`
		HR      *evaluation.HRJudgment      `json:"hr"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	user, _ := middleware.GetUser(r.Context())
	sheetID := chi.URLParam(r, "sheetID")
	total, err := h.Service.UpsertTotalEvaluation(r.Context(), user.Actor(), sheetID, payload.Manager, payload.HR)
	if err != nil {
		h.fail(w, err, "total_evaluation_failed", "failed to save total evaluation", requestID)
		return
	}
	h.record(r, "sheet.total_evaluation.upsert", sheetID, nil)
	api.Success(w, total, requestID)
}

func (h *Handler) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var input evaluation.GoalInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	user, _ := middleware.GetUser(r.Context())
	sheetID := chi.URLParam(r, "sheetID")
	goal, err := h.Service.CreateGoal(r.Context(), user.Actor(), sheetID, input)
	if err != nil {
		h.fail(w, err, "goal_create_failed", "failed to create goal", requestID)
		return
	}
	h.record(r, "goal.create", goal.ID, map[string]string{"sheetId": sheetID})
	api.Created(w, goal, requestID)
}

// handleExportPDF renders the full, unredacted sheet. The route is
// HR-only, and the view is loaded as the requesting HR actor so every
// field is present.
func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	sheetID := chi.URLParam(r, "sheetID")
	view, err := h.Service.GetSheet(r.Context(), user.Actor(), sheetID)
	if err != nil {
		h.fail(w, err, "sheet_get_failed", "failed to load sheet", requestID)
		return
	}

	pdfBytes, err := reports.RenderSheetPDF(view)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "pdf_render_failed", "failed to render sheet", requestID)
		return
	}

	h.record(r, "sheet.export.pdf", sheetID, nil)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "evaluation-sheet-"+sheetID+".pdf"))
	if _, err := w.Write(pdfBytes); err != nil {
		slog.Warn("pdf write failed", "sheetId", sheetID, "err", err)
	}
}

func (h *Handler) handleListViewers(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	viewers, err := h.Service.ListViewers(r.Context(), user.Actor(), chi.URLParam(r, "sheetID"), r.URL.Query().Get("periodId"))
	if err != nil {
		h.fail(w, err, "viewer_list_failed", "failed to list viewers", requestID)
		return
	}
	api.Success(w, viewers, requestID)
}

func (h *Handler) handleAddViewer(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload struct {
		ViewerID string `json:"viewerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ViewerID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "viewerId is required", requestID)
		return
	}

	user, _ := middleware.GetUser(r.Context())
	sheetID := chi.URLParam(r, "sheetID")
	viewer, err := h.Service.AddViewer(r.Context(), user.Actor(), sheetID, payload.ViewerID)
	if err != nil {
		h.fail(w, err, "viewer_add_failed", "failed to add viewer", requestID)
		return
	}
	h.record(r, "sheet.viewer.add", sheetID, map[string]string{"viewerId": payload.ViewerID})
	api.Created(w, viewer, requestID)
}

func (h *Handler) handleRemoveViewer(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	viewerID := chi.URLParam(r, "viewerID")
	if err := h.Service.RemoveViewer(r.Context(), user.Actor(), viewerID); err != nil {
		h.fail(w, err, "viewer_remove_failed", "failed to remove viewer", requestID)
		return
	}
	h.record(r, "sheet.viewer.remove", viewerID, nil)
	api.Success(w, map[string]string{"status": "removed"}, requestID)
}

func (h *Handler) fail(w http.ResponseWriter, err error, code, message, requestID string) {
	WriteDomainError(w, err, code, message, requestID)
}

func (h *Handler) record(r *http.Request, action, entityID string, details any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Audit.Record(r.Context(), user.UserID, action, "evaluation_sheet", entityID, requestID, details); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

// WriteDomainError maps evaluation domain errors onto the envelope.
func WriteDomainError(w http.ResponseWriter, err error, code, message, requestID string) {
	var validationErr *evaluation.ValidationError
	switch {
	case errors.As(err, &validationErr):
		api.Fail(w, http.StatusBadRequest, "validation_error", validationErr.Error(), requestID)
	case errors.Is(err, evaluation.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", requestID)
	case errors.Is(err, evaluation.ErrSheetNotFound):
		api.Fail(w, http.StatusNotFound, "sheet_not_found", "sheet not found", requestID)
	case errors.Is(err, evaluation.ErrGoalNotFound):
		api.Fail(w, http.StatusNotFound, "goal_not_found", "goal not found", requestID)
	case errors.Is(err, evaluation.ErrViewerNotFound):
		api.Fail(w, http.StatusNotFound, "viewer_not_found", "viewer not found", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
