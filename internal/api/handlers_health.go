package api

import (
	"net/http"

	"github.com/sqrly/planner/internal/store"
)

type ServiceCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status    string       `json:"status"`
	DB        ServiceCheck `json:"db"`
	AI        ServiceCheck `json:"ai"`
	TaskCount int          `json:"taskCount"`
}

type HealthHandler struct {
	db        *store.DB
	aiEnabled bool
}

func NewHealthHandler(db *store.DB, aiEnabled bool) *HealthHandler {
	return &HealthHandler{db: db, aiEnabled: aiEnabled}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
	}

	// AI assistance is optional; report whether it is wired.
	if h.aiEnabled {
		resp.AI = ServiceCheck{Status: "ok"}
	} else {
		resp.AI = ServiceCheck{Status: "fallback", Message: "no provider configured, heuristics only"}
	}

	count, err := h.db.TaskCount()
	if err != nil {
		resp.DB = ServiceCheck{Status: "error", Message: err.Error()}
		resp.Status = "degraded"
	} else {
		resp.DB = ServiceCheck{Status: "ok"}
		resp.TaskCount = count
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
