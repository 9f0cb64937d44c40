package bria

import (
	"context"
	"fmt"
	"strings"
)

// GenerativeFillRequest replaces the masked region of the image with
// AI-generated content matching the prompt.
type GenerativeFillRequest struct {
	APIKey            string
	Image             []byte
	Mask              []byte
	Prompt            string
	NegativePrompt    string
	NumResults        int // clamped to 1-4
	Sync              bool
	Seed              *int
	ContentModeration bool
	MaskType          string // "manual" or "automatic"
}

// GenerativeFill posts to /v1/gen_fill.
func (c *Client) GenerativeFill(ctx context.Context, req GenerativeFillRequest) (map[string]any, error) {
	key, err := c.resolveKey(req.APIKey)
	if err != nil {
		return nil, err
	}
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("%w: image data is required", ErrInvalidInput)
	}
	if len(req.Mask) == 0 {
		return nil, fmt.Errorf("%w: mask data is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}

	maskType := req.MaskType
	if maskType == "" {
		maskType = "manual"
	}
	numResults := req.NumResults
	if numResults <= 0 {
		numResults = 4
	}
	if numResults > 4 {
		numResults = 4
	}

	payload := map[string]any{
		"file":               encodeFile(req.Image),
		"mask_file":          encodeFile(req.Mask),
		"mask_type":          maskType,
		"prompt":             req.Prompt,
		"num_results":        numResults,
		"sync":               req.Sync,
		"content_moderation": req.ContentModeration,
	}
	if req.NegativePrompt != "" {
		payload["negative_prompt"] = req.NegativePrompt
	}
	if req.Seed != nil {
		payload["seed"] = *req.Seed
	}

	return c.postJSON(ctx, "/v1/gen_fill", key, payload)
}
