// Package probe issues lightweight HTTP requests used as URL features.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mikey/fraud-detector/internal/core"
	"go.uber.org/zap"
)

// DefaultUserAgent is sent with every probe
const DefaultUserAgent = "fraud-detector/1.0 (+url-screening)"

// HTTPProber sends HEAD requests and reports the first response status.
// Redirects are never followed.
type HTTPProber struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

var _ core.Prober = (*HTTPProber)(nil)

// NewHTTPProber creates a prober. A nil client gets one with the given timeout.
func NewHTTPProber(client *http.Client, timeout time.Duration, logger *zap.Logger) *HTTPProber {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	// Copy so the caller's client keeps its own redirect policy
	c := *client
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &HTTPProber{
		client:    &c,
		userAgent: DefaultUserAgent,
		logger:    logger,
	}
}

// Head returns the status code of a HEAD request to target
func (p *HTTPProber) Head(ctx context.Context, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	if err := resp.Body.Close(); err != nil {
		p.logger.Debug("Failed to close probe response", zap.String("target", target), zap.Error(err))
	}

	return resp.StatusCode, nil
}

// Offline is a Prober that never reaches the network
type Offline struct{}

// Head always fails so callers fall back to their defaults
func (Offline) Head(context.Context, string) (int, error) {
	return 0, fmt.Errorf("network probes disabled")
}
