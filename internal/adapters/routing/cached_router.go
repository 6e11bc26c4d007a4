package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"landmark-tour-service/internal/domain"
	"landmark-tour-service/internal/platform/metrics"
	"landmark-tour-service/internal/ports"
)

// CachedRouter decorates a SegmentRouter with a persistent (from, to, mode) cache.
// Modes are still tried in preference order; a cached mode short-circuits the inner call.
type CachedRouter struct {
	inner ports.SegmentRouter
	cache ports.SegmentCache
	group singleflight.Group
}

func NewCachedRouter(inner ports.SegmentRouter, cache ports.SegmentCache) *CachedRouter {
	return &CachedRouter{inner: inner, cache: cache}
}

func (c *CachedRouter) FetchSegment(
	ctx context.Context,
	from, to domain.Coordinate,
	modes []domain.TravelMode,
) (domain.NavigationSegment, error) {
	if len(modes) == 0 {
		modes = domain.DefaultModePreference
	}

	var errs []error
	for _, mode := range modes {
		seg, err := c.fetchMode(ctx, from, to, mode)
		if err == nil {
			return seg, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.NavigationSegment{}, fmt.Errorf("cached fetch segment: %w", ctxErr)
		}
		errs = append(errs, err)
	}

	return domain.NavigationSegment{}, fmt.Errorf("cached fetch segment: %w: %w", domain.ErrSegmentUnavailable, errors.Join(errs...))
}

func segmentKey(from, to domain.Coordinate, mode domain.TravelMode) string {
	return fmt.Sprintf("%.6f,%.6f|%.6f,%.6f|%s", from.Latitude, from.Longitude, to.Latitude, to.Longitude, mode)
}

func (c *CachedRouter) fetchMode(
	ctx context.Context,
	from, to domain.Coordinate,
	mode domain.TravelMode,
) (domain.NavigationSegment, error) {
	if c.cache != nil {
		seg, ok, err := c.cache.Get(ctx, from, to, mode)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "segment cache read failed", "mode", mode, "error", err)
		case ok:
			metrics.CacheHits.WithLabelValues("segment").Inc()
			return seg, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("segment").Inc()

	key := segmentKey(from, to, mode)
	v, err, _ := c.group.Do(key, func() (any, error) {
		seg, err := c.inner.FetchSegment(ctx, from, to, []domain.TravelMode{mode})
		if err != nil {
			return domain.NavigationSegment{}, err
		}
		if c.cache != nil {
			if err := c.cache.Put(ctx, seg); err != nil {
				slog.WarnContext(ctx, "segment cache write failed", "mode", mode, "error", err)
			}
		}
		return seg, nil
	})
	if err != nil {
		return domain.NavigationSegment{}, err
	}

	return v.(domain.NavigationSegment), nil
}
