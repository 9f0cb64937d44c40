package bria

import (
	"context"
	"fmt"
)

// PackshotRequest describes a packshot creation call: a clean product photo
// on a uniform background.
type PackshotRequest struct {
	APIKey            string
	Image             []byte
	BackgroundColor   string
	SKU               string
	ForceRmbg         bool
	ContentModeration bool
}

// CreatePackshot posts the product image to /v1/product/packshot.
func (c *Client) CreatePackshot(ctx context.Context, req PackshotRequest) (map[string]any, error) {
	key, err := c.resolveKey(req.APIKey)
	if err != nil {
		return nil, err
	}
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("%w: image data is required", ErrInvalidInput)
	}
	background := req.BackgroundColor
	if background == "" {
		background = "#FFFFFF"
	}

	payload := map[string]any{
		"file":               encodeFile(req.Image),
		"background_color":   background,
		"force_rmbg":         req.ForceRmbg,
		"content_moderation": req.ContentModeration,
	}
	if req.SKU != "" {
		payload["sku"] = req.SKU
	}

	return c.postJSON(ctx, "/v1/product/packshot", key, payload)
}
