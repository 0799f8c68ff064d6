package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sqrly/planner/internal/planner"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeServiceError maps domain errors onto HTTP statuses. Overwhelm is a 422
// carrying the counts and the force escape hatch; conflicts with current
// state (transitions, blocking, cycles, energy) are 409s.
func writeServiceError(w http.ResponseWriter, err error) {
	var notFound *planner.NotFoundError
	var validation *planner.ValidationError
	var transition *planner.InvalidTransitionError
	var blocked *planner.BlockedError
	var cyclic *planner.CyclicDependencyError
	var energy *planner.EnergyMismatchError
	var overwhelm *planner.OverwhelmError

	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &transition):
		writeError(w, http.StatusConflict, transition.Error())
	case errors.As(err, &blocked):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     blocked.Error(),
			"blockedBy": blocked.Titles,
		})
	case errors.As(err, &cyclic):
		writeError(w, http.StatusConflict, cyclic.Error())
	case errors.As(err, &energy):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":          energy.Error(),
			"requiredEnergy": energy.Required,
			"currentEnergy":  energy.Available,
		})
	case errors.As(err, &overwhelm):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":       overwhelm.Error(),
			"activeCount": overwhelm.ActiveCount,
			"threshold":   overwhelm.Threshold,
			"ratio":       overwhelm.Ratio(),
			"hint":        "retry with force=true to override",
		})
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
