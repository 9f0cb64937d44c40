// Package bria wraps the Bria engine API used by the studio: packshot
// creation, shadow synthesis, lifestyle compositing, generative fill,
// foreground erasure and HD text-to-image. Every operation performs exactly
// one POST with a JSON body and returns the decoded response verbatim;
// extracting display URLs from the response is the caller's job (see the
// result package).
package bria

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"adsnap-server/internal/infra"
)

const (
	defaultBaseURL = "https://engine.prod.bria-api.com"

	// The engine contract is a fixed 15 second budget per call; retrying is
	// the caller's responsibility.
	defaultTimeout = 15 * time.Second
)

// Options configures the Bria engine client.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls against the Bria engine API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// HasCredentials reports whether the client can perform remote calls without
// a per-request key override.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// resolveKey picks the per-request override when present and falls back to
// the client credential.
func (c *Client) resolveKey(override string) (string, error) {
	if key := strings.TrimSpace(override); key != "" {
		return key, nil
	}
	if c.apiKey != "" {
		return c.apiKey, nil
	}
	return "", ErrMissingAPIKey
}

// postJSON performs the single outbound call shared by every operation and
// translates failures into the package error taxonomy.
func (c *Client) postJSON(ctx context.Context, path, apiKey string, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("bria: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("bria: build request: %w", err)
	}
	httpReq.Header.Set("api_token", apiKey)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, &RequestError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, &RequestError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(raw)}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrDecode)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	c.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("bria: request completed")
	return decoded, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// encodeFile base64-encodes a binary payload for the engine's inline file
// fields.
func encodeFile(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func boolOr(v *bool, fallback bool) bool {
	if v != nil {
		return *v
	}
	return fallback
}
