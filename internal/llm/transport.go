package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/kaikei/internal/common"
)

// endpoint is a JSON-over-HTTP API shared by the hosted providers.
type endpoint struct {
	http    *http.Client
	headers http.Header
	base    string
	name    string
}

func newEndpoint(name string, cfg Config, fallbackBase string) endpoint {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = fallbackBase
	}
	return endpoint{
		name:    name,
		base:    base,
		headers: http.Header{"Content-Type": []string{"application/json"}},
		http: &http.Client{
			Timeout: cfg.timeout(),
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     time.Minute,
			},
		},
	}
}

// post sends payload to base+path and decodes a 200 reply into out.
// A 429 is reported as common.ErrRateLimit; the classifier never retries it.
func (e endpoint) post(ctx context.Context, path string, payload, out any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", e.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.base+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", e.name, err)
	}
	for k, v := range e.headers {
		req.Header[k] = v
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", e.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read reply: %w", e.name, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", e.name, common.ErrRateLimit)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s: status %d: %s", e.name, resp.StatusCode, bytes.TrimSpace(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode reply: %w", e.name, err)
	}
	return nil
}
