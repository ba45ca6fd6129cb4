package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func idFromURL(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	user, err := a.users.Get(r.Context(), id)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	actor := claimsFromContext(r.Context())

	user, err := a.users.Get(r.Context(), id)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.UserName = req.UserName
	user.PhoneNumber = req.PhoneNumber

	if err := a.users.Update(r.Context(), actor, user); err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(user)})
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.users.Delete(r.Context(), claimsFromContext(r.Context()), id); err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
