package bria

import (
	"context"
	"fmt"
)

// Placement types accepted by the lifestyle endpoints.
const (
	PlacementOriginal          = "original"
	PlacementAutomatic         = "automatic"
	PlacementManualPlacement   = "manual_placement"
	PlacementManualPadding     = "manual_padding"
	PlacementCustomCoordinates = "custom_coordinates"
)

// LifestyleTextRequest composites the product into a scene described by
// text. Fast and OptimizeDescription default to true when nil.
type LifestyleTextRequest struct {
	APIKey                   string
	Image                    []byte
	SceneDescription         string
	PlacementType            string
	NumResults               int
	Sync                     bool
	Fast                     *bool
	OptimizeDescription      *bool
	OriginalQuality          bool
	ExcludeElements          string
	ShotSize                 []int // [width, height]
	ManualPlacementSelection []string
	PaddingValues            []int // [left, right, top, bottom]
	ForegroundImageSize      []int
	ForegroundImageLocation  []int
	ForceRmbg                bool
	ContentModeration        bool
	SKU                      string
}

// LifestyleImageRequest composites the product into a scene taken from a
// reference image. EnhanceRefImage defaults to true and RefImageInfluence to
// 1.0 when nil.
type LifestyleImageRequest struct {
	APIKey                   string
	Image                    []byte
	RefImage                 []byte
	PlacementType            string
	NumResults               int
	Sync                     bool
	OriginalQuality          bool
	ShotSize                 []int
	ManualPlacementSelection []string
	PaddingValues            []int
	ForegroundImageSize      []int
	ForegroundImageLocation  []int
	ForceRmbg                bool
	ContentModeration        bool
	SKU                      string
	EnhanceRefImage          *bool
	RefImageInfluence        *float64
}

// LifestyleShotByText posts to /v1/product/lifestyle_shot_by_text.
func (c *Client) LifestyleShotByText(ctx context.Context, req LifestyleTextRequest) (map[string]any, error) {
	key, err := c.resolveKey(req.APIKey)
	if err != nil {
		return nil, err
	}
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("%w: image data is required", ErrInvalidInput)
	}

	placement := req.PlacementType
	if placement == "" {
		placement = PlacementOriginal
	}
	numResults := req.NumResults
	if numResults <= 0 {
		numResults = 4
	}
	fast := boolOr(req.Fast, true)

	payload := map[string]any{
		"file":                 encodeFile(req.Image),
		"scene_description":    req.SceneDescription,
		"placement_type":       placement,
		"num_results":          numResults,
		"sync":                 req.Sync,
		"fast":                 fast,
		"optimize_description": boolOr(req.OptimizeDescription, true),
		"original_quality":     req.OriginalQuality,
		"force_rmbg":           req.ForceRmbg,
		"content_moderation":   req.ContentModeration,
	}
	// The fast pipeline ignores exclusions, so only the slow path sends them.
	if req.ExcludeElements != "" && !fast {
		payload["exclude_elements"] = req.ExcludeElements
	}
	applyPlacement(payload, placement, req.ShotSize, req.ManualPlacementSelection, req.PaddingValues, req.ForegroundImageSize, req.ForegroundImageLocation)
	if req.SKU != "" {
		payload["sku"] = req.SKU
	}

	return c.postJSON(ctx, "/v1/product/lifestyle_shot_by_text", key, payload)
}

// LifestyleShotByImage posts to /v1/product/lifestyle_shot_by_image.
func (c *Client) LifestyleShotByImage(ctx context.Context, req LifestyleImageRequest) (map[string]any, error) {
	key, err := c.resolveKey(req.APIKey)
	if err != nil {
		return nil, err
	}
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("%w: image data is required", ErrInvalidInput)
	}
	if len(req.RefImage) == 0 {
		return nil, fmt.Errorf("%w: reference image is required", ErrInvalidInput)
	}

	placement := req.PlacementType
	if placement == "" {
		placement = PlacementOriginal
	}
	numResults := req.NumResults
	if numResults <= 0 {
		numResults = 4
	}
	influence := 1.0
	if req.RefImageInfluence != nil {
		influence = *req.RefImageInfluence
	}

	payload := map[string]any{
		"file":                encodeFile(req.Image),
		"ref_image_file":      encodeFile(req.RefImage),
		"placement_type":      placement,
		"num_results":         numResults,
		"sync":                req.Sync,
		"original_quality":    req.OriginalQuality,
		"force_rmbg":          req.ForceRmbg,
		"content_moderation":  req.ContentModeration,
		"enhance_ref_image":   boolOr(req.EnhanceRefImage, true),
		"ref_image_influence": influence,
	}
	applyPlacement(payload, placement, req.ShotSize, req.ManualPlacementSelection, req.PaddingValues, req.ForegroundImageSize, req.ForegroundImageLocation)
	if req.SKU != "" {
		payload["sku"] = req.SKU
	}

	return c.postJSON(ctx, "/v1/product/lifestyle_shot_by_image", key, payload)
}

// applyPlacement adds the placement-mode dependent fields shared by both
// lifestyle endpoints.
func applyPlacement(payload map[string]any, placement string, shotSize []int, manual []string, padding []int, fgSize, fgLocation []int) {
	switch placement {
	case PlacementAutomatic, PlacementManualPlacement, PlacementCustomCoordinates:
		if len(shotSize) != 2 {
			shotSize = []int{1000, 1000}
		}
		payload["shot_size"] = shotSize
	}
	if placement == PlacementManualPlacement {
		if len(manual) == 0 {
			manual = []string{"upper_left"}
		}
		payload["manual_placement_selection"] = manual
	}
	if placement == PlacementManualPadding {
		if len(padding) != 4 {
			padding = []int{0, 0, 0, 0}
		}
		payload["padding_values"] = padding
	}
	if placement == PlacementCustomCoordinates {
		if len(fgSize) == 2 {
			payload["foreground_image_size"] = fgSize
		}
		if len(fgLocation) == 2 {
			payload["foreground_image_location"] = fgLocation
		}
	}
}
