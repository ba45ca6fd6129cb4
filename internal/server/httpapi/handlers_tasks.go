package httpapi

import (
	"net/http"
)

func (a *API) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	task, err := req.toModel()
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	created, err := a.tasks.Create(r.Context(), claimsFromContext(r.Context()), task)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"task": toTaskResponse(created)})
}

func (a *API) handleListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := a.tasks.List(r.Context(), claimsFromContext(r.Context()))
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	out := make([]taskResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTaskResponse(t))
	}
	respondJSON(w, http.StatusOK, map[string]any{"tasks": out})
}

func (a *API) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	task, err := a.tasks.Get(r.Context(), claimsFromContext(r.Context()), id)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"task": toTaskResponse(task)})
}

func (a *API) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	task, err := req.toModel()
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	task.ID = id

	if err := a.tasks.Update(r.Context(), claimsFromContext(r.Context()), task); err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"task": toTaskResponse(task)})
}

func (a *API) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.tasks.Delete(r.Context(), claimsFromContext(r.Context()), id); err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
