package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"landmark-tour-service/internal/domain"
	"landmark-tour-service/internal/platform/metrics"
	"landmark-tour-service/internal/platform/obs"
)

const defaultBaseURL = "https://api.openrouteservice.org"

// ORSRouter implements SegmentRouter and DistanceMatrixProvider using OpenRouteService.
//
// It coordinates:
//   - Travel mode fallback in preference order
//   - Per-mode request timeouts
//   - External API calls with retry/backoff
//   - Normalization of directions replies into domain steps
//
// The router is safe for concurrent use.
type ORSRouter struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	modeTimeout time.Duration
	maxAttempts int
	backoff     time.Duration
}

type Options struct {
	APIKey  string
	BaseURL string
	// Upper bound for a single mode's request, retries included.
	Timeout     time.Duration
	MaxAttempts int
	HTTPClient  *http.Client
}

func NewORSRouter(opts Options) (*ORSRouter, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	r := &ORSRouter{
		session:     opts.HTTPClient,
		apiKey:      opts.APIKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		modeTimeout: opts.Timeout,
		maxAttempts: opts.MaxAttempts,
		backoff:     200 * time.Millisecond,
	}
	if r.session == nil {
		r.session = &http.Client{}
	}
	if r.baseURL == "" {
		r.baseURL = defaultBaseURL
	}
	if r.modeTimeout <= 0 {
		r.modeTimeout = 10 * time.Second
	}
	if r.maxAttempts < 1 {
		r.maxAttempts = 1
	}

	return r, nil
}

// FetchSegment tries each mode in order, one routing request per mode, and returns the first
// mode that yields a well-formed route. A mode that errors, times out, or returns no candidate
// path falls through to the next one.
func (o *ORSRouter) FetchSegment(
	ctx context.Context,
	from, to domain.Coordinate,
	modes []domain.TravelMode,
) (_ domain.NavigationSegment, err error) {
	defer obs.Time(ctx, "ors.FetchSegment")(&err)

	start := time.Now()
	defer func() { metrics.SegmentFetchDuration.Observe(time.Since(start).Seconds()) }()

	if len(modes) == 0 {
		modes = domain.DefaultModePreference
	}

	var errs []error
	for _, mode := range modes {
		if err := ctx.Err(); err != nil {
			return domain.NavigationSegment{}, fmt.Errorf("fetch segment: %w", err)
		}

		seg, err := o.fetchMode(ctx, from, to, mode)
		if err == nil {
			metrics.RoutingRequests.WithLabelValues(string(mode), "ok").Inc()
			return seg, nil
		}

		outcome := "error"
		if errors.Is(err, errNoRoute) {
			outcome = "no_route"
		}
		metrics.RoutingRequests.WithLabelValues(string(mode), outcome).Inc()
		slog.DebugContext(ctx, "routing mode failed, trying next", "mode", mode, "error", err)

		errs = append(errs, fmt.Errorf("%s: %w", mode, err))
	}

	return domain.NavigationSegment{}, fmt.Errorf("fetch segment: %w: %w", domain.ErrSegmentUnavailable, errors.Join(errs...))
}

// fetchMode issues the directions request for a single mode under its own timeout.
func (o *ORSRouter) fetchMode(
	ctx context.Context,
	from, to domain.Coordinate,
	mode domain.TravelMode,
) (domain.NavigationSegment, error) {
	profile, err := Profile(mode)
	if err != nil {
		return domain.NavigationSegment{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.modeTimeout)
	defer cancel()

	reply, err := o.fetchDirections(ctx, profile, from, to)
	if err != nil {
		return domain.NavigationSegment{}, err
	}

	seg, err := normalizeDirections(reply)
	if err != nil {
		return domain.NavigationSegment{}, err
	}
	seg.From = from
	seg.To = to
	seg.Mode = mode

	return seg, nil
}

// Profile maps a travel mode to its OpenRouteService profile name.
func Profile(mode domain.TravelMode) (string, error) {
	switch mode {
	case domain.ModeWalking:
		return "foot-walking", nil
	case domain.ModeHiking:
		return "foot-hiking", nil
	case domain.ModeCycling:
		return "cycling-regular", nil
	case domain.ModeDriving:
		return "driving-car", nil
	default:
		return "", fmt.Errorf("unsupported travel mode %q", mode)
	}
}
