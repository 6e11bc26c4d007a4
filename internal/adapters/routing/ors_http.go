package routing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// maxErrorBody caps how much of a failed reply is kept for the error message.
const maxErrorBody = 4 << 10

// upstreamError is a non-2xx reply from the routing service.
type upstreamError struct {
	Status int
	Detail string
}

func (e *upstreamError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("routing service replied %d", e.Status)
	}
	return fmt.Sprintf("routing service replied %d: %s", e.Status, e.Detail)
}

// temporary reports whether the same request may succeed later.
func (e *upstreamError) temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// postJSON sends payload to endpoint and returns the reply body on success.
// Throttling, 5xx replies and network failures are retried up to maxAttempts
// times with doubling backoff. The caller closes the body.
func (o *ORSRouter) postJSON(ctx context.Context, endpoint string, payload []byte) (io.ReadCloser, error) {
	wait := o.backoff

	for attempt := 1; ; attempt++ {
		body, err := o.send(ctx, endpoint, payload)
		if err == nil {
			return body, nil
		}
		if attempt >= o.maxAttempts || !retryable(err) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func (o *ORSRouter) send(ctx context.Context, endpoint string, payload []byte) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json, application/geo+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusBadRequest {
		return resp.Body, nil
	}

	defer resp.Body.Close()
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, &upstreamError{Status: resp.StatusCode, Detail: strings.TrimSpace(string(detail))}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ue *upstreamError
	if errors.As(err, &ue) {
		return ue.temporary()
	}
	var ne net.Error
	return errors.As(err, &ne)
}
