package bria

import (
	"context"
	"strings"
)

// EraseForegroundRequest removes the main foreground object and fills the
// erased area with a generated background. Exactly one of Image or ImageURL
// must be supplied.
type EraseForegroundRequest struct {
	APIKey            string
	Image             []byte
	ImageURL          string
	ContentModeration bool
}

// EraseForeground posts to /v1/erase_foreground.
func (c *Client) EraseForeground(ctx context.Context, req EraseForegroundRequest) (map[string]any, error) {
	key, err := c.resolveKey(req.APIKey)
	if err != nil {
		return nil, err
	}
	imageURL := strings.TrimSpace(req.ImageURL)
	if len(req.Image) == 0 && imageURL == "" {
		return nil, ErrInvalidInput
	}

	payload := map[string]any{
		"content_moderation": req.ContentModeration,
	}
	if imageURL != "" {
		payload["image_url"] = imageURL
	} else {
		payload["file"] = encodeFile(req.Image)
	}

	return c.postJSON(ctx, "/v1/erase_foreground", key, payload)
}
