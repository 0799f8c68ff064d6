package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sqrly/planner/internal/models"
	"github.com/sqrly/planner/internal/subtasks"
)

type SubtaskHandler struct {
	svc *subtasks.Service
}

func NewSubtaskHandler(svc *subtasks.Service) *SubtaskHandler {
	return &SubtaskHandler{svc: svc}
}

// ListByTask handles GET /tasks/{id}/subtasks
func (h *SubtaskHandler) ListByTask(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListByTask(UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subtasks": views})
}

// Create handles POST /tasks/{id}/subtasks
func (h *SubtaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSubtaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	st, err := h.svc.Create(UserID(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// Get handles GET /subtasks/{id}
func (h *SubtaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Get(UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Update handles PATCH /subtasks/{id}
func (h *SubtaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSubtaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	st, err := h.svc.Update(UserID(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Act handles POST /subtasks/{id}/action
func (h *SubtaskHandler) Act(w http.ResponseWriter, r *http.Request) {
	var req models.SubtaskActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	st, err := h.svc.Act(UserID(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Delete handles DELETE /subtasks/{id}
func (h *SubtaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
