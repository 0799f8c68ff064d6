package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sqrly/planner/internal/models"
	"github.com/sqrly/planner/internal/tasks"
)

type TaskHandler struct {
	svc *tasks.Service
}

func NewTaskHandler(svc *tasks.Service) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// List handles GET /tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("perPage"))

	filters := models.TaskFilters{
		GoalID: q.Get("goalId"),
	}
	for _, s := range splitParam(q.Get("status")) {
		filters.Statuses = append(filters.Statuses, models.TaskStatus(s))
	}
	for _, s := range splitParam(q.Get("taskType")) {
		filters.TaskTypes = append(filters.TaskTypes, models.TaskType(s))
	}
	for _, s := range splitParam(q.Get("complexity")) {
		filters.Complexities = append(filters.Complexities, models.TaskComplexity(s))
	}
	for _, s := range splitParam(q.Get("quadrant")) {
		if n, err := strconv.Atoi(s); err == nil {
			filters.Quadrants = append(filters.Quadrants, n)
		}
	}
	if v := q.Get("dueBefore"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.DueBefore = &n
		}
	}
	if v := q.Get("dueAfter"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.DueAfter = &n
		}
	}

	resp, err := h.svc.List(UserID(r.Context()), &models.ListTasksRequest{
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

// Create handles POST /tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	t, err := h.svc.Create(r.Context(), UserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Get handles GET /tasks/{id}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Get(UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Update handles PATCH /tasks/{id}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	t, err := h.svc.Update(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Start handles POST /tasks/{id}/start
func (h *TaskHandler) Start(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Start(UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Complete handles POST /tasks/{id}/complete
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req models.CompleteTaskRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	t, err := h.svc.Complete(UserID(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Cancel handles POST /tasks/{id}/cancel
func (h *TaskHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Cancel(UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Breakdown handles POST /tasks/{id}/breakdown
func (h *TaskHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	var req models.BreakdownRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	resp, err := h.svc.Breakdown(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
