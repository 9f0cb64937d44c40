package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"adsnap-server/internal/providers/bria"
	"adsnap-server/internal/result"
	"adsnap-server/internal/session"
)

type packshotRequest struct {
	Image             string `json:"image"`
	BackgroundColor   string `json:"background_color"`
	SKU               string `json:"sku"`
	ForceRmbg         bool   `json:"force_rmbg"`
	ContentModeration bool   `json:"content_moderation"`
}

type shadowRequest struct {
	Image             string `json:"image"`
	ImageURL          string `json:"image_url"`
	Type              string `json:"type"`
	BackgroundColor   string `json:"background_color"`
	Color             string `json:"color"`
	Offset            []int  `json:"offset"`
	Intensity         *int   `json:"intensity"`
	Blur              *int   `json:"blur"`
	Width             *int   `json:"width"`
	Height            *int   `json:"height"`
	SKU               string `json:"sku"`
	ForceRmbg         bool   `json:"force_rmbg"`
	ContentModeration bool   `json:"content_moderation"`
}

type lifestyleTextRequest struct {
	Image                    string   `json:"image"`
	SceneDescription         string   `json:"scene_description"`
	EnhancePrompt            bool     `json:"enhance_prompt"`
	PlacementType            string   `json:"placement_type"`
	NumResults               int      `json:"num_results"`
	Sync                     bool     `json:"sync"`
	Fast                     *bool    `json:"fast"`
	OptimizeDescription      *bool    `json:"optimize_description"`
	OriginalQuality          bool     `json:"original_quality"`
	ExcludeElements          string   `json:"exclude_elements"`
	ShotSize                 []int    `json:"shot_size"`
	ManualPlacementSelection []string `json:"manual_placement_selection"`
	PaddingValues            []int    `json:"padding_values"`
	ForegroundImageSize      []int    `json:"foreground_image_size"`
	ForegroundImageLocation  []int    `json:"foreground_image_location"`
	SKU                      string   `json:"sku"`
	ForceRmbg                bool     `json:"force_rmbg"`
	ContentModeration        bool     `json:"content_moderation"`
}

type lifestyleImageRequest struct {
	Image                    string   `json:"image"`
	RefImage                 string   `json:"ref_image"`
	PlacementType            string   `json:"placement_type"`
	NumResults               int      `json:"num_results"`
	Sync                     bool     `json:"sync"`
	OriginalQuality          bool     `json:"original_quality"`
	ShotSize                 []int    `json:"shot_size"`
	ManualPlacementSelection []string `json:"manual_placement_selection"`
	PaddingValues            []int    `json:"padding_values"`
	ForegroundImageSize      []int    `json:"foreground_image_size"`
	ForegroundImageLocation  []int    `json:"foreground_image_location"`
	SKU                      string   `json:"sku"`
	ForceRmbg                bool     `json:"force_rmbg"`
	ContentModeration        bool     `json:"content_moderation"`
	EnhanceRefImage          *bool    `json:"enhance_ref_image"`
	RefImageInfluence        *float64 `json:"ref_image_influence"`
}

type fillRequest struct {
	Image             string `json:"image"`
	Mask              string `json:"mask"`
	Prompt            string `json:"prompt"`
	EnhancePrompt     bool   `json:"enhance_prompt"`
	NegativePrompt    string `json:"negative_prompt"`
	NumResults        int    `json:"num_results"`
	Sync              bool   `json:"sync"`
	Seed              *int   `json:"seed"`
	ContentModeration bool   `json:"content_moderation"`
}

type eraseRequest struct {
	Image             string `json:"image"`
	ImageURL          string `json:"image_url"`
	ContentModeration bool   `json:"content_moderation"`
}

type generateRequest struct {
	Prompt            string `json:"prompt"`
	EnhancePrompt     bool   `json:"enhance_prompt"`
	NumResults        int    `json:"num_results"`
	AspectRatio       string `json:"aspect_ratio"`
	Sync              bool   `json:"sync"`
	EnhanceImage      bool   `json:"enhance_image"`
	Medium            string `json:"medium"`
	PromptEnhancement bool   `json:"prompt_enhancement"`
	Seed              *int   `json:"seed"`
	ContentModeration bool   `json:"content_moderation"`
}

func (a *App) Packshot(w http.ResponseWriter, r *http.Request) {
	st, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	var req packshotRequest
	if !a.decode(w, r, &req) {
		return
	}
	image, ok := a.decodeImage(w, req.Image, "image")
	if !ok {
		return
	}
	raw, err := a.Bria.CreatePackshot(r.Context(), bria.PackshotRequest{
		APIKey:            requestAPIKey(r),
		Image:             image,
		BackgroundColor:   req.BackgroundColor,
		SKU:               req.SKU,
		ForceRmbg:         req.ForceRmbg,
		ContentModeration: req.ContentModeration,
	})
	if err != nil {
		a.providerError(w, r, err)
		return
	}
	// Packshot always answers synchronously with a single image.
	a.finishGeneration(w, st, raw, true, 1)
}

func (a *App) Shadow(w http.ResponseWriter, r *http.Request) {
	st, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	var req shadowRequest
	if !a.decode(w, r, &req) {
		return
	}
	image, ok := a.decodeOptionalImage(w, req.Image, "image")
	if !ok {
		return
	}
	raw, err := a.Bria.AddShadow(r.Context(), bria.ShadowRequest{
		APIKey:            requestAPIKey(r),
		Image:             image,
		ImageURL:          req.ImageURL,
		Type:              req.Type,
		BackgroundColor:   req.BackgroundColor,
		Color:             req.Color,
		Offset:            req.Offset,
		Intensity:         req.Intensity,
		Blur:              req.Blur,
		Width:             req.Width,
		Height:            req.Height,
		SKU:               req.SKU,
		ForceRmbg:         req.ForceRmbg,
		ContentModeration: req.ContentModeration,
	})
	if err != nil {
		a.providerError(w, r, err)
		return
	}
	a.finishGeneration(w, st, raw, true, 1)
}

func (a *App) LifestyleByText(w http.ResponseWriter, r *http.Request) {
	st, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	var req lifestyleTextRequest
	if !a.decode(w, r, &req) {
		return
	}
	image, ok := a.decodeImage(w, req.Image, "image")
	if !ok {
		return
	}
	scene := a.maybeEnhance(r.Context(), st, req.SceneDescription, req.EnhancePrompt)
	numResults := defaultNumResults(req.NumResults)
	raw, err := a.Bria.LifestyleShotByText(r.Context(), bria.LifestyleTextRequest{
		APIKey:                   requestAPIKey(r),
		Image:                    image,
		SceneDescription:         scene,
		PlacementType:            req.PlacementType,
		NumResults:               numResults,
		Sync:                     req.Sync,
		Fast:                     req.Fast,
		OptimizeDescription:      req.OptimizeDescription,
		OriginalQuality:          req.OriginalQuality,
		ExcludeElements:          req.ExcludeElements,
		ShotSize:                 req.ShotSize,
		ManualPlacementSelection: req.ManualPlacementSelection,
		PaddingValues:            req.PaddingValues,
		ForegroundImageSize:      req.ForegroundImageSize,
		ForegroundImageLocation:  req.ForegroundImageLocation,
		ForceRmbg:                req.ForceRmbg,
		ContentModeration:        req.ContentModeration,
		SKU:                      req.SKU,
	})
	if err != nil {
		a.providerError(w, r, err)
		return
	}
	a.finishGeneration(w, st, raw, req.Sync, numResults)
}

func (a *App) LifestyleByImage(w http.ResponseWriter, r *http.Request) {
	st, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	var req lifestyleImageRequest
	if !a.decode(w, r, &req) {
		return
	}
	image, ok := a.decodeImage(w, req.Image, "image")
	if !ok {
		return
	}
	refImage, ok := a.decodeImage(w, req.RefImage, "ref_image")
	if !ok {
		return
	}
	numResults := defaultNumResults(req.NumResults)
	raw, err := a.Bria.LifestyleShotByImage(r.Context(), bria.LifestyleImageRequest{
		APIKey:                   requestAPIKey(r),
		Image:                    image,
		RefImage:                 refImage,
		PlacementType:            req.PlacementType,
		NumResults:               numResults,
		Sync:                     req.Sync,
		OriginalQuality:          req.OriginalQuality,
		ShotSize:                 req.ShotSize,
		ManualPlacementSelection: req.ManualPlacementSelection,
		PaddingValues:            req.PaddingValues,
		ForegroundImageSize:      req.ForegroundImageSize,
		ForegroundImageLocation:  req.ForegroundImageLocation,
		ForceRmbg:                req.ForceRmbg,
		ContentModeration:        req.ContentModeration,
		SKU:                      req.SKU,
		EnhanceRefImage:          req.EnhanceRefImage,
		RefImageInfluence:        req.RefImageInfluence,
	})
	if err != nil {
		a.providerError(w, r, err)
		return
	}
	a.finishGeneration(w, st, raw, req.Sync, numResults)
}

func (a *App) Fill(w http.ResponseWriter, r *http.Request) {
	st, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	var req fillRequest
	if !a.decode(w, r, &req) {
		return
	}
	image, ok := a.decodeImage(w, req.Image, "image")
	if !ok {
		return
	}
	mask, ok := a.decodeImage(w, req.Mask, "mask")
	if !ok {
		return
	}
	promptText := a.maybeEnhance(r.Context(), st, req.Prompt, req.EnhancePrompt)
	numResults := clampNumResults(req.NumResults)
	raw, err := a.Bria.GenerativeFill(r.Context(), bria.GenerativeFillRequest{
		APIKey:            requestAPIKey(r),
		Image:             image,
		Mask:              mask,
		Prompt:            promptText,
		NegativePrompt:    req.NegativePrompt,
		NumResults:        numResults,
		Sync:              req.Sync,
		Seed:              req.Seed,
		ContentModeration: req.ContentModeration,
	})
	if err != nil {
		a.providerError(w, r, err)
		return
	}
	a.finishGeneration(w, st, raw, req.Sync, numResults)
}

func (a *App) Erase(w http.ResponseWriter, r *http.Request) {
	st, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	var req eraseRequest
	if !a.decode(w, r, &req) {
		return
	}
	image, ok := a.decodeOptionalImage(w, req.Image, "image")
	if !ok {
		return
	}
	raw, err := a.Bria.EraseForeground(r.Context(), bria.EraseForegroundRequest{
		APIKey:            requestAPIKey(r),
		Image:             image,
		ImageURL:          req.ImageURL,
		ContentModeration: req.ContentModeration,
	})
	if err != nil {
		a.providerError(w, r, err)
		return
	}
	a.finishGeneration(w, st, raw, true, 1)
}

func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	st, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	var req generateRequest
	if !a.decode(w, r, &req) {
		return
	}
	promptText := a.maybeEnhance(r.Context(), st, req.Prompt, req.EnhancePrompt)
	numResults := clampNumResults(req.NumResults)
	raw, err := a.Bria.GenerateHDImage(r.Context(), bria.HDImageRequest{
		APIKey:            requestAPIKey(r),
		Prompt:            promptText,
		NumResults:        numResults,
		AspectRatio:       req.AspectRatio,
		Sync:              req.Sync,
		EnhanceImage:      req.EnhanceImage,
		Medium:            req.Medium,
		PromptEnhancement: req.PromptEnhancement,
		Seed:              req.Seed,
		ContentModeration: req.ContentModeration,
	})
	if err != nil {
		a.providerError(w, r, err)
		return
	}
	a.finishGeneration(w, st, raw, req.Sync, numResults)
}

// finishGeneration normalizes the engine reply and updates the session.
// Ready results answer 200 with the display URL; unverified async results
// answer 202 and kick off the background poller.
func (a *App) finishGeneration(w http.ResponseWriter, st *session.State, raw map[string]any, sync bool, numResults int) {
	outcome := result.Normalize(raw, sync, numResults)
	switch outcome.Status {
	case result.StatusReady:
		st.SetEditedImage(outcome.URL)
		if len(outcome.URLs) > 1 {
			st.SetGallery(outcome.URLs)
		}
		a.json(w, http.StatusOK, map[string]any{
			"status":  "ready",
			"url":     outcome.URL,
			"urls":    outcome.URLs,
			"session": st.Snapshot(),
		})
	case result.StatusPending:
		st.SetPending(outcome.URLs)
		// Detached from the request context; verification outlives the call.
		pollCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		go func() {
			defer cancel()
			a.Poller.AutoCheck(pollCtx, st)
		}()
		a.json(w, http.StatusAccepted, map[string]any{
			"status":       "pending",
			"pending_urls": outcome.URLs,
			"session":      st.Snapshot(),
		})
	default:
		a.error(w, http.StatusBadGateway, "empty_result", "the generation service answered without any image")
	}
}

// maybeEnhance optionally rewrites the prompt and records both variants in
// the session.
func (a *App) maybeEnhance(ctx context.Context, st *session.State, promptText string, enhance bool) string {
	promptText = strings.TrimSpace(promptText)
	if promptText == "" {
		return promptText
	}
	st.RecordPrompt(promptText)
	if !enhance {
		return promptText
	}
	enhanced := a.Enhancer.Enhance(ctx, promptText)
	if enhanced != promptText {
		st.RecordEnhancedPrompt(enhanced)
	}
	return enhanced
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

// decodeImage requires a non-empty base64 field.
func (a *App) decodeImage(w http.ResponseWriter, encoded, field string) ([]byte, bool) {
	if strings.TrimSpace(encoded) == "" {
		a.error(w, http.StatusBadRequest, "invalid_input", field+" is required")
		return nil, false
	}
	return a.decodeOptionalImage(w, encoded, field)
}

// decodeOptionalImage tolerates an empty field but rejects malformed base64.
func (a *App) decodeOptionalImage(w http.ResponseWriter, encoded, field string) ([]byte, bool) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, true
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_input", field+" is not valid base64")
		return nil, false
	}
	return data, true
}

// defaultNumResults fills in the default batch size without capping it; the
// lifestyle operations accept larger batches than fill and generate do.
func defaultNumResults(n int) int {
	if n <= 0 {
		return 4
	}
	return n
}

func clampNumResults(n int) int {
	if n <= 0 {
		return 4
	}
	if n > 4 {
		return 4
	}
	return n
}
