package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kbr/toolsite/internal/apperr"
)

const upstreamTimeout = 10 * time.Second

// SearchProxy forwards search requests to an external search endpoint and
// relays its response verbatim (status, content type and body).
type SearchProxy struct {
	base   *url.URL
	client *http.Client
}

// NewSearchProxy creates a proxy for the given upstream URL.
func NewSearchProxy(rawURL string) (*SearchProxy, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("api: upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api: upstream url %q: scheme must be http or https", rawURL)
	}
	return &SearchProxy{base: u, client: &http.Client{Timeout: upstreamTimeout}}, nil
}

// ServeHTTP handles GET /search when an upstream is configured.
func (p *SearchProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp, err := p.fetch(r.Context(), r.URL.Query())
	if err != nil {
		writeError(w, "search proxy", err)
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func (p *SearchProxy) fetch(ctx context.Context, query url.Values) (*http.Response, error) {
	target := *p.base
	q := target.Query()
	for k, vs := range query {
		q[k] = vs
	}
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("api: build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: upstream search: %v: %w", err, apperr.ErrUpstream)
	}
	return resp, nil
}
