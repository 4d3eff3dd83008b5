// Package nettrust classifies client network addresses as anonymizing
// or hosting infrastructure.
//
// The probe is strictly best-effort: a failed or slow lookup must never
// block a legitimate attendance event, so every malfunction (timeout,
// transport error, malformed response) degrades to "trusted". A false
// negative is acceptable; a false positive that blocks a real user is
// not.
package nettrust

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"
)

// Probe answers whether a client address looks like VPN/proxy/hosting
// infrastructure.
type Probe interface {
	// IsUntrusted returns true only on positive evidence of proxy or
	// hosting origin. Probe faults report false (fail-open).
	IsUntrusted(ctx context.Context, address string) bool
}

// reputation is the wire shape of an ip-api.com style response with
// fields=proxy,hosting.
type reputation struct {
	Proxy   bool `json:"proxy"`
	Hosting bool `json:"hosting"`
}

// HTTPProbe queries an ip-api.com compatible reputation endpoint.
type HTTPProbe struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	group   singleflight.Group
}

// NewHTTPProbe builds a probe against baseURL with the given lookup
// timeout. Concurrent lookups for the same address collapse into a
// single upstream call.
func NewHTTPProbe(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPProbe {
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &HTTPProbe{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// IsUntrusted implements Probe.
func (p *HTTPProbe) IsUntrusted(ctx context.Context, address string) bool {
	if address == "" {
		return false
	}

	v, err, _ := p.group.Do(address, func() (any, error) {
		return p.lookup(ctx, address)
	})
	if err != nil {
		// Fail-open: no evidence of a problem.
		p.logger.WarnContext(ctx, "network trust probe degraded",
			"address", address,
			"error", err.Error(),
		)
		return false
	}

	rep := v.(reputation)
	return rep.Proxy || rep.Hosting
}

func (p *HTTPProbe) lookup(ctx context.Context, address string) (reputation, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=proxy,hosting", p.baseURL, url.PathEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return reputation{}, fmt.Errorf("build lookup request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return reputation{}, fmt.Errorf("reputation lookup: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return reputation{}, fmt.Errorf("reputation lookup: unexpected status %d", resp.StatusCode)
	}

	var rep reputation
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		return reputation{}, fmt.Errorf("decode reputation response: %w", err)
	}
	return rep, nil
}
