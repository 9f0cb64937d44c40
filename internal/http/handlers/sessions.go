package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"adsnap-server/internal/session"
)

func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	st := a.Sessions.Create()
	a.json(w, http.StatusCreated, st.Snapshot())
}

func (a *App) GetSession(w http.ResponseWriter, r *http.Request) {
	st, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, st.Snapshot())
}

func (a *App) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.Sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// CheckResults runs one verification sweep over the session's pending URLs.
func (a *App) CheckResults(w http.ResponseWriter, r *http.Request) {
	st, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	resolved := a.Poller.CheckOnce(r.Context(), st)
	a.json(w, http.StatusOK, map[string]any{
		"resolved": resolved,
		"session":  st.Snapshot(),
	})
}

// loadSession resolves the {id} URL parameter, answering 404 itself when the
// session is unknown or expired.
func (a *App) loadSession(w http.ResponseWriter, r *http.Request) (*session.State, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "session id required")
		return nil, false
	}
	st, ok := a.Sessions.Get(id)
	if !ok {
		a.error(w, http.StatusNotFound, "session_not_found", "unknown or expired session")
		return nil, false
	}
	return st, true
}
