package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"adsnap-server/internal/infra"
	"adsnap-server/internal/middleware"
	"adsnap-server/internal/poller"
	"adsnap-server/internal/providers/bria"
	"adsnap-server/internal/providers/prompt"
	"adsnap-server/internal/session"
	"adsnap-server/internal/storage"
)

// App carries the wired dependencies shared by all handlers.
type App struct {
	Config     *infra.Config
	Logger     *infra.Logger
	Bria       *bria.Client
	Enhancer   prompt.Enhancer
	Sessions   *session.Manager
	Poller     *poller.Poller
	Store      *storage.FileStore
	HTTPClient *http.Client
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error":   code,
		"message": message,
	})
}

// providerError translates the engine client's error taxonomy into API
// responses. Moderation rejections carry a localized hint for the user.
func (a *App) providerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, bria.ErrMissingAPIKey):
		a.error(w, http.StatusUnauthorized, "missing_credential", "no api key configured; set BRIA_API_KEY or send X-Api-Key")
	case errors.Is(err, bria.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "invalid_input", err.Error())
	case bria.IsContentModeration(err):
		a.error(w, http.StatusUnprocessableEntity, "content_moderation", moderationHint(middleware.LocaleFromContext(r.Context())))
	case errors.Is(err, bria.ErrTimeout):
		a.error(w, http.StatusGatewayTimeout, "upstream_timeout", "the generation service did not answer in time")
	default:
		a.Logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("upstream call failed")
		a.error(w, http.StatusBadGateway, "upstream_error", "the generation service rejected the request")
	}
}

func moderationHint(locale string) string {
	if locale == "es" {
		return "la imagen o el texto fue rechazado por la moderacion de contenido; prueba con otra entrada"
	}
	return "the image or prompt was flagged by content moderation; try different input"
}

// requestAPIKey returns the per-request credential override, if any.
func requestAPIKey(r *http.Request) string {
	return r.Header.Get("X-Api-Key")
}
