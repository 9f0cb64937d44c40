package bria

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestResolveKeyPrefersOverride(t *testing.T) {
	client := NewClient(Options{APIKey: "client-key"})

	key, err := client.resolveKey("  request-key  ")
	if err != nil {
		t.Fatalf("resolve key: %v", err)
	}
	if key != "request-key" {
		t.Fatalf("key = %q, want request-key", key)
	}

	key, err = client.resolveKey("")
	if err != nil {
		t.Fatalf("resolve key fallback: %v", err)
	}
	if key != "client-key" {
		t.Fatalf("key = %q, want client-key", key)
	}
}

func TestOperationsRejectMissingCredentialBeforeNetwork(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	client := NewClient(Options{HTTPClient: &http.Client{Transport: transport}})

	if client.HasCredentials() {
		t.Fatalf("client should report no credentials")
	}
	_, err := client.CreatePackshot(context.Background(), PackshotRequest{Image: []byte{0x01}})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
	if transport.calls != 0 {
		t.Fatalf("expected no network calls, got %d", transport.calls)
	}
}

func TestOperationsRejectMissingInputBeforeNetwork(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	client := NewClient(Options{APIKey: "key", HTTPClient: &http.Client{Transport: transport}})

	cases := []struct {
		name string
		call func() error
	}{
		{"packshot without image", func() error {
			_, err := client.CreatePackshot(context.Background(), PackshotRequest{})
			return err
		}},
		{"shadow without source", func() error {
			_, err := client.AddShadow(context.Background(), ShadowRequest{})
			return err
		}},
		{"lifestyle text without image", func() error {
			_, err := client.LifestyleShotByText(context.Background(), LifestyleTextRequest{SceneDescription: "beach"})
			return err
		}},
		{"lifestyle image without reference", func() error {
			_, err := client.LifestyleShotByImage(context.Background(), LifestyleImageRequest{Image: []byte{0x01}})
			return err
		}},
		{"fill without mask", func() error {
			_, err := client.GenerativeFill(context.Background(), GenerativeFillRequest{Image: []byte{0x01}, Prompt: "sky"})
			return err
		}},
		{"fill without prompt", func() error {
			_, err := client.GenerativeFill(context.Background(), GenerativeFillRequest{Image: []byte{0x01}, Mask: []byte{0x02}, Prompt: "  "})
			return err
		}},
		{"erase without source", func() error {
			_, err := client.EraseForeground(context.Background(), EraseForegroundRequest{})
			return err
		}},
		{"hd image without prompt", func() error {
			_, err := client.GenerateHDImage(context.Background(), HDImageRequest{})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
	if transport.calls != 0 {
		t.Fatalf("expected no network calls, got %d", transport.calls)
	}
}

func TestCreatePackshotPayload(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/v1/product/packshot", map[string]any{"result_url": "https://cdn.example.com/out.png"})
	client := NewClient(Options{APIKey: "key", HTTPClient: &http.Client{Transport: transport}})

	image := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	resp, err := client.CreatePackshot(context.Background(), PackshotRequest{Image: image, SKU: "SKU-1", ForceRmbg: true})
	if err != nil {
		t.Fatalf("create packshot: %v", err)
	}
	if resp["result_url"] != "https://cdn.example.com/out.png" {
		t.Fatalf("unexpected response: %v", resp)
	}
	if got := transport.lastHeader.Get("api_token"); got != "key" {
		t.Fatalf("api_token header = %q, want key", got)
	}
	if got := transport.lastHeader.Get("Content-Type"); got != "application/json" {
		t.Fatalf("content type = %q", got)
	}

	payload := decodePayload(t, transport.lastBody)
	decoded, err := base64.StdEncoding.DecodeString(payload["file"].(string))
	if err != nil {
		t.Fatalf("file not base64 encoded: %v", err)
	}
	if !bytes.Equal(decoded, image) {
		t.Fatalf("decoded bytes mismatch")
	}
	if payload["background_color"] != "#FFFFFF" {
		t.Fatalf("background_color = %v, want #FFFFFF", payload["background_color"])
	}
	if payload["sku"] != "SKU-1" {
		t.Fatalf("sku = %v", payload["sku"])
	}
	if payload["force_rmbg"] != true {
		t.Fatalf("force_rmbg = %v, want true", payload["force_rmbg"])
	}
}

func TestAddShadowDefaults(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/v1/product/shadow", map[string]any{"result_url": "https://cdn.example.com/shadow.png"})
	client := NewClient(Options{APIKey: "key", HTTPClient: &http.Client{Transport: transport}})

	_, err := client.AddShadow(context.Background(), ShadowRequest{Image: []byte{0x01}})
	if err != nil {
		t.Fatalf("add shadow: %v", err)
	}
	payload := decodePayload(t, transport.lastBody)
	if payload["shadow_type"] != "regular" {
		t.Fatalf("shadow_type = %v, want regular", payload["shadow_type"])
	}
	if payload["shadow_color"] != "#000000" {
		t.Fatalf("shadow_color = %v", payload["shadow_color"])
	}
	if payload["shadow_intensity"] != float64(60) {
		t.Fatalf("shadow_intensity = %v, want 60", payload["shadow_intensity"])
	}
	offset := payload["shadow_offset"].([]any)
	if len(offset) != 2 || offset[0] != float64(0) || offset[1] != float64(15) {
		t.Fatalf("shadow_offset = %v, want [0 15]", offset)
	}
	if _, ok := payload["shadow_width"]; ok {
		t.Fatalf("regular shadow should omit shadow_width")
	}
	if _, ok := payload["shadow_height"]; ok {
		t.Fatalf("regular shadow should omit shadow_height")
	}
}

func TestAddShadowFloatDefaultsHeight(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/v1/product/shadow", map[string]any{"result_url": "https://cdn.example.com/shadow.png"})
	client := NewClient(Options{APIKey: "key", HTTPClient: &http.Client{Transport: transport}})

	_, err := client.AddShadow(context.Background(), ShadowRequest{ImageURL: "https://cdn.example.com/in.png", Type: "float"})
	if err != nil {
		t.Fatalf("add shadow: %v", err)
	}
	payload := decodePayload(t, transport.lastBody)
	if payload["shadow_height"] != float64(70) {
		t.Fatalf("shadow_height = %v, want 70", payload["shadow_height"])
	}
	if _, ok := payload["shadow_width"]; ok {
		t.Fatalf("shadow_width should be omitted unless set")
	}
	if payload["image_url"] != "https://cdn.example.com/in.png" {
		t.Fatalf("image_url = %v", payload["image_url"])
	}
	if _, ok := payload["file"]; ok {
		t.Fatalf("file should be omitted when image_url is set")
	}
}

func TestLifestyleTextPayload(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/v1/product/lifestyle_shot_by_text", map[string]any{"urls": []any{"https://cdn.example.com/1.png"}})
	client := NewClient(Options{APIKey: "key", HTTPClient: &http.Client{Transport: transport}})

	slow := false
	_, err := client.LifestyleShotByText(context.Background(), LifestyleTextRequest{
		Image:            []byte{0x01},
		SceneDescription: "wooden table near a window",
		PlacementType:    PlacementManualPlacement,
		Fast:             &slow,
		ExcludeElements:  "people",
	})
	if err != nil {
		t.Fatalf("lifestyle text: %v", err)
	}
	payload := decodePayload(t, transport.lastBody)
	if payload["fast"] != false {
		t.Fatalf("fast = %v, want false", payload["fast"])
	}
	if payload["optimize_description"] != true {
		t.Fatalf("optimize_description = %v, want true", payload["optimize_description"])
	}
	if payload["num_results"] != float64(4) {
		t.Fatalf("num_results = %v, want 4", payload["num_results"])
	}
	if payload["exclude_elements"] != "people" {
		t.Fatalf("exclude_elements = %v, want people", payload["exclude_elements"])
	}
	if _, ok := payload["shot_size"]; !ok {
		t.Fatalf("manual placement should send shot_size")
	}
	selection := payload["manual_placement_selection"].([]any)
	if len(selection) != 1 || selection[0] != "upper_left" {
		t.Fatalf("manual_placement_selection = %v", selection)
	}
}

func TestLifestyleTextFastDropsExclusions(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/v1/product/lifestyle_shot_by_text", map[string]any{"urls": []any{}})
	client := NewClient(Options{APIKey: "key", HTTPClient: &http.Client{Transport: transport}})

	_, err := client.LifestyleShotByText(context.Background(), LifestyleTextRequest{
		Image:            []byte{0x01},
		SceneDescription: "beach",
		ExcludeElements:  "people",
	})
	if err != nil {
		t.Fatalf("lifestyle text: %v", err)
	}
	payload := decodePayload(t, transport.lastBody)
	if payload["fast"] != true {
		t.Fatalf("fast = %v, want default true", payload["fast"])
	}
	if _, ok := payload["exclude_elements"]; ok {
		t.Fatalf("fast mode should drop exclude_elements")
	}
	if _, ok := payload["shot_size"]; ok {
		t.Fatalf("original placement should not send shot_size")
	}
}

func TestLifestyleImagePayload(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/v1/product/lifestyle_shot_by_image", map[string]any{"urls": []any{}})
	client := NewClient(Options{APIKey: "key", HTTPClient: &http.Client{Transport: transport}})

	ref := []byte{0x0a, 0x0b}
	influence := 0.4
	_, err := client.LifestyleShotByImage(context.Background(), LifestyleImageRequest{
		Image:             []byte{0x01},
		RefImage:          ref,
		PlacementType:     PlacementManualPadding,
		RefImageInfluence: &influence,
	})
	if err != nil {
		t.Fatalf("lifestyle image: %v", err)
	}
	payload := decodePayload(t, transport.lastBody)
	decoded, err := base64.StdEncoding.DecodeString(payload["ref_image_file"].(string))
	if err != nil || !bytes.Equal(decoded, ref) {
		t.Fatalf("ref_image_file not round-trippable: %v", err)
	}
	if payload["enhance_ref_image"] != true {
		t.Fatalf("enhance_ref_image = %v, want default true", payload["enhance_ref_image"])
	}
	if payload["ref_image_influence"] != 0.4 {
		t.Fatalf("ref_image_influence = %v, want 0.4", payload["ref_image_influence"])
	}
	padding := payload["padding_values"].([]any)
	if len(padding) != 4 {
		t.Fatalf("padding_values = %v", padding)
	}
	if _, ok := payload["shot_size"]; ok {
		t.Fatalf("manual padding should not send shot_size")
	}
}

func TestGenerativeFillClampsNumResults(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/v1/gen_fill", map[string]any{"urls": []any{}})
	client := NewClient(Options{APIKey: "key", HTTPClient: &http.Client{Transport: transport}})

	mask := []byte{0xff, 0x00}
	seed := 42
	_, err := client.GenerativeFill(context.Background(), GenerativeFillRequest{
		Image:          []byte{0x01},
		Mask:           mask,
		Prompt:         "blue sky",
		NegativePrompt: "clouds",
		NumResults:     9,
		Seed:           &seed,
	})
	if err != nil {
		t.Fatalf("generative fill: %v", err)
	}
	payload := decodePayload(t, transport.lastBody)
	if payload["num_results"] != float64(4) {
		t.Fatalf("num_results = %v, want clamp to 4", payload["num_results"])
	}
	if payload["mask_type"] != "manual" {
		t.Fatalf("mask_type = %v, want manual", payload["mask_type"])
	}
	decoded, err := base64.StdEncoding.DecodeString(payload["mask_file"].(string))
	if err != nil || !bytes.Equal(decoded, mask) {
		t.Fatalf("mask_file not round-trippable: %v", err)
	}
	if payload["negative_prompt"] != "clouds" {
		t.Fatalf("negative_prompt = %v", payload["negative_prompt"])
	}
	if payload["seed"] != float64(42) {
		t.Fatalf("seed = %v, want 42", payload["seed"])
	}
}

func TestGenerateHDImagePayload(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/v1/text-to-image/hd/2.2", map[string]any{"result": []any{}})
	client := NewClient(Options{APIKey: "key", HTTPClient: &http.Client{Transport: transport}})

	_, err := client.GenerateHDImage(context.Background(), HDImageRequest{Prompt: "red sneakers", Medium: "photography"})
	if err != nil {
		t.Fatalf("generate hd image: %v", err)
	}
	payload := decodePayload(t, transport.lastBody)
	if payload["aspect_ratio"] != "1:1" {
		t.Fatalf("aspect_ratio = %v, want 1:1", payload["aspect_ratio"])
	}
	if payload["num_results"] != float64(4) {
		t.Fatalf("num_results = %v, want 4", payload["num_results"])
	}
	if payload["medium"] != "photography" {
		t.Fatalf("medium = %v", payload["medium"])
	}
}

func TestPostJSONErrorTaxonomy(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	client := NewClient(Options{APIKey: "key", HTTPClient: &http.Client{Transport: transport}})

	transport.setStatusResponse("/v1/erase_foreground", http.StatusUnprocessableEntity, `{"message":"content moderation"}`)
	_, err := client.EraseForeground(context.Background(), EraseForegroundRequest{Image: []byte{0x01}})
	if !IsContentModeration(err) {
		t.Fatalf("err = %v, want content moderation", err)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("err = %v, want HTTPError 422", err)
	}

	transport.setStatusResponse("/v1/erase_foreground", http.StatusBadGateway, "upstream broke")
	_, err = client.EraseForeground(context.Background(), EraseForegroundRequest{Image: []byte{0x01}})
	if IsContentModeration(err) {
		t.Fatalf("502 must not look like moderation")
	}
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusBadGateway {
		t.Fatalf("err = %v, want HTTPError 502", err)
	}

	transport.setStatusResponse("/v1/erase_foreground", http.StatusOK, "not json at all")
	_, err = client.EraseForeground(context.Background(), EraseForegroundRequest{Image: []byte{0x01}})
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}

	transport.failWith = errors.New("connection reset")
	_, err = client.EraseForeground(context.Background(), EraseForegroundRequest{Image: []byte{0x01}})
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("err = %v, want RequestError", err)
	}
	transport.failWith = nil

	transport.failWith = timeoutError{}
	_, err = client.EraseForeground(context.Background(), EraseForegroundRequest{Image: []byte{0x01}})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func decodePayload(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return payload
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "deadline exceeded" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

type captureTransport struct {
	responses  map[string]responseStub
	lastBody   []byte
	lastHeader http.Header
	calls      int
	failWith   error
}

type responseStub struct {
	status int
	body   []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.calls++
	c.lastHeader = req.Header.Clone()
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
	}
	if c.failWith != nil {
		return nil, c.failWith
	}
	if stub, ok := c.responses[req.URL.Path]; ok {
		return stub.toResponse(), nil
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

func (c *captureTransport) setJSONResponse(path string, payload any) {
	body, _ := json.Marshal(payload)
	c.responses[path] = responseStub{status: http.StatusOK, body: body}
}

func (c *captureTransport) setStatusResponse(path string, status int, body string) {
	c.responses[path] = responseStub{status: status, body: []byte(body)}
}

func (s responseStub) toResponse() *http.Response {
	return &http.Response{
		StatusCode: s.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(s.body)),
	}
}
