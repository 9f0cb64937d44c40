package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

type enhancePromptRequest struct {
	Prompt string `json:"prompt"`
	// SessionID optionally records the prompt pair in a session.
	SessionID string `json:"session_id"`
}

// EnhancePrompt rewrites a prompt through the configured enhancer. The call
// never fails on provider trouble; the worst case is getting the original
// prompt back.
func (a *App) EnhancePrompt(w http.ResponseWriter, r *http.Request) {
	var req enhancePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	original := strings.TrimSpace(req.Prompt)
	if original == "" {
		a.error(w, http.StatusBadRequest, "invalid_input", "prompt is required")
		return
	}

	enhanced := a.Enhancer.Enhance(r.Context(), original)
	if req.SessionID != "" {
		if st, ok := a.Sessions.Get(req.SessionID); ok {
			st.RecordPrompt(original)
			if enhanced != original {
				st.RecordEnhancedPrompt(enhanced)
			}
		}
	}
	a.json(w, http.StatusOK, map[string]any{
		"original": original,
		"enhanced": enhanced,
		"changed":  enhanced != original,
	})
}
