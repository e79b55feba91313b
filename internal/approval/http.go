package approval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

const defaultApproverTimeout = 10 * time.Second

// HTTPApprover consults an external approval service. Calls go through a
// circuit breaker; while the breaker is open requests fail immediately
// instead of piling onto a struggling service. A failed or short-circuited
// call is a denial, not a pass.
type HTTPApprover struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPApprover creates an approver that POSTs requests to url. timeout is
// a duration string; empty means 10s.
func NewHTTPApprover(url string, timeout string) (*HTTPApprover, error) {
	if url == "" {
		return nil, fmt.Errorf("approver URL required")
	}
	t := defaultApproverTimeout
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("parsing approver timeout: %w", err)
		}
		t = d
	}
	return &HTTPApprover{
		url:    url,
		client: &http.Client{Timeout: t},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "approver",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}, nil
}

// Approve posts the request to the approval service and decodes its verdict.
func (a *HTTPApprover) Approve(ctx context.Context, req Request) (Decision, error) {
	result, err := a.breaker.Execute(func() (interface{}, error) {
		return a.post(ctx, req)
	})
	if err != nil {
		return Decision{}, fmt.Errorf("consulting approver: %w", err)
	}
	return result.(Decision), nil
}

func (a *HTTPApprover) post(ctx context.Context, req Request) (Decision, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return Decision{}, err
	}

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(data))
	if err != nil {
		return Decision{}, err
	}
	hr.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(hr)
	if err != nil {
		return Decision{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return Decision{}, fmt.Errorf("approver returned status %d", resp.StatusCode)
	}

	var d Decision
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return Decision{}, fmt.Errorf("decoding approver response: %w", err)
	}
	return d, nil
}
