package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sqrly/planner/internal/goals"
	"github.com/sqrly/planner/internal/models"
)

type GoalHandler struct {
	svc *goals.Service
}

func NewGoalHandler(svc *goals.Service) *GoalHandler {
	return &GoalHandler{svc: svc}
}

// List handles GET /goals
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("perPage"))

	var filters models.GoalFilters
	for _, s := range splitParam(q.Get("status")) {
		filters.Statuses = append(filters.Statuses, models.GoalStatus(s))
	}
	for _, s := range splitParam(q.Get("quadrant")) {
		if n, err := strconv.Atoi(s); err == nil {
			filters.Quadrants = append(filters.Quadrants, n)
		}
	}
	if v := q.Get("minPriority"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filters.MinPriority = &n
		}
	}
	if v := q.Get("maxPriority"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filters.MaxPriority = &n
		}
	}
	if v := q.Get("targetBefore"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.TargetBefore = &n
		}
	}
	if v := q.Get("targetAfter"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.TargetAfter = &n
		}
	}

	resp, err := h.svc.List(UserID(r.Context()), &models.ListGoalsRequest{
		Page:    page,
		PerPage: perPage,
		Filters: filters,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /goals
func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	g, err := h.svc.Create(UserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// Get handles GET /goals/{id}
func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Get(UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Update handles PATCH /goals/{id}
func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	g, err := h.svc.Update(UserID(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Delete handles DELETE /goals/{id}
func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateProgress handles POST /goals/{id}/progress
func (h *GoalHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProgressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	g, err := h.svc.UpdateProgress(UserID(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Archive handles POST /goals/{id}/archive
func (h *GoalHandler) Archive(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Archive(UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// ListMilestones handles GET /goals/{id}/milestones
func (h *GoalHandler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	ms, err := h.svc.ListMilestones(UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"milestones": ms})
}

// CreateMilestone handles POST /goals/{id}/milestones
func (h *GoalHandler) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMilestoneRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	m, err := h.svc.CreateMilestone(UserID(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// UpdateMilestone handles PATCH /milestones/{id}
func (h *GoalHandler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateMilestoneRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	m, err := h.svc.UpdateMilestone(UserID(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// DeleteMilestone handles DELETE /milestones/{id}
func (h *GoalHandler) DeleteMilestone(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteMilestone(UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
