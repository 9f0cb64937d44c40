package bria

import (
	"context"
	"strings"
)

// ShadowRequest describes a shadow synthesis call. Exactly one of Image or
// ImageURL must be supplied. Width and Height are pointers so that "not set"
// is distinguishable from an explicit zero: regular shadows omit both unless
// set, while float shadows default the height to 70.
type ShadowRequest struct {
	APIKey            string
	Image             []byte
	ImageURL          string
	Type              string // "regular" or "float"
	BackgroundColor   string
	Color             string
	Offset            []int // [x, y]
	Intensity         *int  // 0-100
	Blur              *int
	Width             *int
	Height            *int
	SKU               string
	ForceRmbg         bool
	ContentModeration bool
}

// AddShadow posts the product image to /v1/product/shadow.
func (c *Client) AddShadow(ctx context.Context, req ShadowRequest) (map[string]any, error) {
	key, err := c.resolveKey(req.APIKey)
	if err != nil {
		return nil, err
	}
	imageURL := strings.TrimSpace(req.ImageURL)
	if len(req.Image) == 0 && imageURL == "" {
		return nil, ErrInvalidInput
	}

	shadowType := req.Type
	if shadowType == "" {
		shadowType = "regular"
	}
	color := req.Color
	if color == "" {
		color = "#000000"
	}
	offset := req.Offset
	if len(offset) != 2 {
		offset = []int{0, 15}
	}
	intensity := 60
	if req.Intensity != nil {
		intensity = *req.Intensity
	}

	payload := map[string]any{
		"shadow_type":        shadowType,
		"shadow_color":       color,
		"shadow_intensity":   intensity,
		"shadow_offset":      offset,
		"force_rmbg":         req.ForceRmbg,
		"content_moderation": req.ContentModeration,
	}
	if imageURL != "" {
		payload["image_url"] = imageURL
	} else {
		payload["file"] = encodeFile(req.Image)
	}
	if req.BackgroundColor != "" {
		payload["background_color"] = req.BackgroundColor
	}
	if req.Blur != nil {
		payload["shadow_blur"] = *req.Blur
	}
	if req.Width != nil {
		payload["shadow_width"] = *req.Width
	}
	height := req.Height
	if height == nil && shadowType == "float" {
		floatDefault := 70
		height = &floatDefault
	}
	if height != nil {
		payload["shadow_height"] = *height
	}
	if req.SKU != "" {
		payload["sku"] = req.SKU
	}

	return c.postJSON(ctx, "/v1/product/shadow", key, payload)
}
