// Package poller verifies asynchronous engine results. The engine hands out
// result URLs before the files exist; a URL is displayable once a HEAD
// request against it answers 200.
package poller

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"adsnap-server/internal/infra"
	"adsnap-server/internal/session"
)

const (
	defaultInterval = 2 * time.Second
	defaultAttempts = 3
)

// Options configures a Poller.
type Options struct {
	HTTPClient *http.Client
	Logger     *infra.Logger
	// Interval is the pause before each sweep.
	Interval time.Duration
	// Attempts is how many sweeps AutoCheck runs before giving up.
	Attempts int
}

// Poller sweeps a session's pending URLs and promotes the ones that have
// become ready.
type Poller struct {
	httpClient *http.Client
	logger     *infra.Logger
	interval   time.Duration
	attempts   int
}

// New constructs a poller with sane defaults.
func New(opts Options) *Poller {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	logger := opts.Logger
	if logger == nil {
		discard := infra.Logger(zerolog.New(io.Discard))
		logger = &discard
	}
	return &Poller{
		httpClient: httpClient,
		logger:     logger,
		interval:   interval,
		attempts:   attempts,
	}
}

// CheckOnce performs a single sweep over the session's pending URLs and
// reports whether anything became ready. An empty queue is a no-op; no
// network calls are made. The sweep is versioned: when the session state
// changed while the probes were in flight, the outcome is dropped.
func (p *Poller) CheckOnce(ctx context.Context, st *session.State) bool {
	pending, version := st.PendingSnapshot()
	if len(pending) == 0 {
		return false
	}

	var ready, still []string
	for _, url := range pending {
		if p.isReady(ctx, url) {
			ready = append(ready, url)
		} else {
			still = append(still, url)
		}
	}
	if !st.ResolvePending(version, ready, still) {
		p.logger.Debug().
			Str("session_id", st.ID()).
			Msg("poller: discarding sweep raced by a newer result")
		return false
	}
	return len(ready) > 0
}

// AutoCheck runs up to the configured number of sweeps, pausing before each
// one, and stops early as soon as a sweep resolves something or the queue
// drains. It is meant to run in its own goroutine right after an
// asynchronous generation is accepted.
func (p *Poller) AutoCheck(ctx context.Context, st *session.State) {
	for attempt := 0; attempt < p.attempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.interval):
		}
		if !st.HasPending() {
			return
		}
		if p.CheckOnce(ctx, st) {
			return
		}
	}
	p.logger.Debug().
		Str("session_id", st.ID()).
		Int("attempts", p.attempts).
		Msg("poller: results still pending after final sweep")
}

// isReady probes one URL. Anything but a clean 200 counts as not ready;
// transport errors are swallowed because the next sweep will retry.
func (p *Poller) isReady(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		p.logger.Debug().Err(err).Str("url", url).Msg("poller: build probe")
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Debug().Err(err).Str("url", url).Msg("poller: probe failed")
		return false
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
