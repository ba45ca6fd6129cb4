package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"taskman/internal/common"
)

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	respondJSON(w, status, map[string]any{"error": err.Error()})
}

// respondServiceError maps service errors to HTTP statuses. Authentication
// failures stay deliberately vague and internal errors never leak details.
func (a *API) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		respondError(w, http.StatusUnauthorized, errors.New("unauthorized"))
	case errors.Is(err, common.ErrorNotFound):
		respondError(w, http.StatusNotFound, errors.New("not found"))
	case errors.Is(err, common.ErrorValidation):
		respondError(w, http.StatusBadRequest, errors.New("invalid request"))
	case errors.Is(err, common.ErrorAlreadyExists):
		respondError(w, http.StatusConflict, errors.New("already exists"))
	default:
		a.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}
