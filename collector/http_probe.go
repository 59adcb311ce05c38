package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ProbeTransport returns an http.RoundTripper that records every request as a ProbeEvent.
func ProbeTransport(next http.RoundTripper, aggregator *EventAggregator) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &probeTransport{next: next, aggregator: aggregator}
}

type probeTransport struct {
	next       http.RoundTripper
	aggregator *EventAggregator
}

func (t *probeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	evt := ProbeEvent{
		Method:  req.Method,
		URL:     req.URL.String(),
		Elapsed: time.Since(start),
	}
	if resp != nil {
		evt.StatusCode = resp.StatusCode
	}
	if err != nil {
		evt.Error = err.Error()
	}
	t.aggregator.CollectEvent(req.Context(), evt)

	return resp, err
}

// preflightExcerptSize bounds the response body quoted in a preflight error.
const preflightExcerptSize = 512

// Preflight checks that the application under test answers at baseURL.
// Any response below 500 counts as reachable.
func Preflight(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return fmt.Errorf("building preflight request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("reaching %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	excerpt := NewLimitedBuffer(preflightExcerptSize)
	_, _ = io.Copy(excerpt, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		if body := strings.TrimSpace(excerpt.String()); body != "" {
			return fmt.Errorf("reaching %s: status %d: %s", baseURL, resp.StatusCode, body)
		}
		return fmt.Errorf("reaching %s: status %d", baseURL, resp.StatusCode)
	}
	return nil
}
