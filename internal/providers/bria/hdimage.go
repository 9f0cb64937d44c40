package bria

import (
	"context"
	"fmt"
	"strings"
)

// HDImageRequest generates product imagery from a text prompt alone, without
// an uploaded photo.
type HDImageRequest struct {
	APIKey            string
	Prompt            string
	NumResults        int
	AspectRatio       string // "1:1", "16:9", "9:16", "4:3", "3:4"
	Sync              bool
	EnhanceImage      bool
	Medium            string // "photography" or "art"
	PromptEnhancement bool
	Seed              *int
	ContentModeration bool
}

// GenerateHDImage posts to the HD text-to-image endpoint.
func (c *Client) GenerateHDImage(ctx context.Context, req HDImageRequest) (map[string]any, error) {
	key, err := c.resolveKey(req.APIKey)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}

	numResults := req.NumResults
	if numResults <= 0 {
		numResults = 4
	}
	aspectRatio := req.AspectRatio
	if aspectRatio == "" {
		aspectRatio = "1:1"
	}

	payload := map[string]any{
		"prompt":             req.Prompt,
		"num_results":        numResults,
		"aspect_ratio":       aspectRatio,
		"sync":               req.Sync,
		"enhance_image":      req.EnhanceImage,
		"prompt_enhancement": req.PromptEnhancement,
		"content_moderation": req.ContentModeration,
	}
	if req.Medium != "" {
		payload["medium"] = req.Medium
	}
	if req.Seed != nil {
		payload["seed"] = *req.Seed
	}

	return c.postJSON(ctx, "/v1/text-to-image/hd/2.2", key, payload)
}
