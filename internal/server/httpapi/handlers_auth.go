package httpapi

import (
	"errors"
	"net/http"
)

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	created, err := a.users.Register(r.Context(), req.toModel(), req.Password)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"user": toUserResponse(created)})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, errors.New("email and password are required"))
		return
	}

	pair, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.AccessToken == "" || req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, errors.New("access_token and refresh_token are required"))
		return
	}

	pair, err := a.auth.Refresh(r.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}
