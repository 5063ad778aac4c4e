package periodshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"evalsheet/internal/domain/audit"
	"evalsheet/internal/domain/evaluation"
	"evalsheet/internal/domain/period"
	"evalsheet/internal/transport/http/api"
	"evalsheet/internal/transport/http/middleware"
	"evalsheet/internal/transport/http/shared"
)

type Handler struct {
	Service *period.Service
	Audit   *audit.Service
}

func NewHandler(service *period.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/periods", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/", h.handleList)
		r.With(middleware.RequireAuth).Get("/{periodID}", h.handleGet)

		hr := middleware.RequireRole(evaluation.RoleHR)
		r.With(hr).Post("/", h.handleCreate)
		r.With(hr).Delete("/{periodID}", h.handleDelete)
		r.With(hr).Post("/{periodID}/activate", h.handleActivate)
		r.With(hr).Post("/{periodID}/deactivate", h.handleDeactivate)
		r.With(hr).Post("/{periodID}/advance-phase", h.handleAdvancePhase)
		r.With(hr).Post("/{periodID}/force-phase", h.handleForcePhase)
		r.With(hr).Get("/{periodID}/assignments", h.handleListAssignments)
		r.With(hr).Put("/{periodID}/assignments", h.handleUpsertAssignment)
		r.With(hr).Post("/{periodID}/provision-sheets", h.handleProvisionSheets)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	periods, err := h.Service.List(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "period_list_failed", "failed to list periods", requestID)
		return
	}
	api.Success(w, periods, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	detail, err := h.Service.Get(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		h.fail(w, err, "period_get_failed", "failed to load period", requestID)
		return
	}
	api.Success(w, detail, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload struct {
		Name      string `json:"name"`
		Year      int    `json:"year"`
		Half      string `json:"half"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.IntRange("year", payload.Year, 2000, 2100, "must be a plausible year")
	half, err := evaluation.ParseHalf(payload.Half)
	if err != nil {
		v.Add("half", "must be first or second")
	}
	start, startOK := v.Date("startDate", payload.StartDate)
	end, endOK := v.Date("endDate", payload.EndDate)
	if startOK && endOK {
		v.DateOrder("startDate", start, "endDate", end)
	}
	if v.Reject(w, requestID) {
		return
	}

	created, err := h.Service.Create(r.Context(), period.CreateInput{
		Name:      payload.Name,
		Year:      payload.Year,
		Half:      half,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		if errors.Is(err, period.ErrDuplicatePeriod) {
			api.Fail(w, http.StatusConflict, "period_exists", "a period for this year and half already exists", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "period_create_failed", "failed to create period", requestID)
		return
	}

	h.record(r, "period.create", created.ID, nil)
	api.Created(w, created, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	periodID := chi.URLParam(r, "periodID")
	if err := h.Service.Delete(r.Context(), periodID); err != nil {
		if errors.Is(err, period.ErrPeriodHasSheets) {
			api.Fail(w, http.StatusConflict, "period_has_sheets", "a period with sheets cannot be deleted", requestID)
			return
		}
		h.fail(w, err, "period_delete_failed", "failed to delete period", requestID)
		return
	}
	h.record(r, "period.delete", periodID, nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	requestID := middleware.GetRequestID(r.Context())
	periodID := chi.URLParam(r, "periodID")
	updated, err := h.Service.SetActive(r.Context(), periodID, active)
	if err != nil {
		h.fail(w, err, "period_update_failed", "failed to update period", requestID)
		return
	}
	action := "period.deactivate"
	if active {
		action = "period.activate"
	}
	h.record(r, action, periodID, nil)
	api.Success(w, updated, requestID)
}

func (h *Handler) handleAdvancePhase(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	updated, err := h.Service.AdvancePhase(r.Context(), user.UserID, requestID, chi.URLParam(r, "periodID"))
	if err != nil {
		if errors.Is(err, period.ErrPhaseTerminal) {
			api.Fail(w, http.StatusConflict, "phase_terminal", "period is already in the terminal phase", requestID)
			return
		}
		h.fail(w, err, "phase_advance_failed", "failed to advance phase", requestID)
		return
	}
	api.Success(w, updated, requestID)
}

func (h *Handler) handleForcePhase(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload struct {
		Phase string `json:"phase"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	phase, err := evaluation.ParsePhase(payload.Phase)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_phase", "unknown phase", requestID)
		return
	}

	user, _ := middleware.GetUser(r.Context())
	updated, err := h.Service.ForcePhase(r.Context(), user.UserID, requestID, chi.URLParam(r, "periodID"), phase)
	if err != nil {
		h.fail(w, err, "phase_force_failed", "failed to set phase", requestID)
		return
	}
	api.Success(w, updated, requestID)
}

func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	assignments, err := h.Service.ListAssignments(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		h.fail(w, err, "assignment_list_failed", "failed to list assignments", requestID)
		return
	}
	api.Success(w, assignments, requestID)
}

func (h *Handler) handleUpsertAssignment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload struct {
		UserID     string  `json:"userId"`
		Department *string `json:"department"`
		ManagerID  *string `json:"managerId"`
		Grade      *string `json:"grade"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("userId", payload.UserID, "userId is required")
	var grade *evaluation.Grade
	if payload.Grade != nil && *payload.Grade != "" {
		parsed, err := evaluation.ParseGrade(*payload.Grade)
		if err != nil {
			v.Add("grade", "unknown grade")
		} else {
			grade = &parsed
		}
	}
	if v.Reject(w, requestID) {
		return
	}

	assignment, err := h.Service.UpsertAssignment(r.Context(), chi.URLParam(r, "periodID"), period.AssignmentInput{
		UserID:     payload.UserID,
		Department: payload.Department,
		ManagerID:  payload.ManagerID,
		Grade:      grade,
	})
	if err != nil {
		h.fail(w, err, "assignment_upsert_failed", "failed to save assignment", requestID)
		return
	}
	h.record(r, "period.assignment.upsert", assignment.ID, map[string]string{"userId": payload.UserID})
	api.Success(w, assignment, requestID)
}

func (h *Handler) handleProvisionSheets(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	periodID := chi.URLParam(r, "periodID")
	created, err := h.Service.ProvisionSheets(r.Context(), periodID)
	if err != nil {
		h.fail(w, err, "sheet_provision_failed", "failed to provision sheets", requestID)
		return
	}
	h.record(r, "period.sheets.provision", periodID, map[string]int{"created": created})
	api.Success(w, map[string]int{"created": created}, requestID)
}

func (h *Handler) fail(w http.ResponseWriter, err error, code, message, requestID string) {
	if errors.Is(err, period.ErrPeriodNotFound) {
		api.Fail(w, http.StatusNotFound, "period_not_found", "period not found", requestID)
		return
	}
	api.Fail(w, http.StatusInternalServerError, code, message, requestID)
}

func (h *Handler) record(r *http.Request, action, entityID string, details any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Audit.Record(r.Context(), user.UserID, action, "evaluation_period", entityID, requestID, details); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
