package obs

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

const tracerName = "landmark-tour-service"

// Time logs the duration of an operation and records it as a span.
//
//	defer obs.Time(ctx, "ors.directions")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID, _ := ctx.Value(RequestIDKey).(string)
	_, span := otel.Tracer(tracerName).Start(ctx, name)

	return func(errp *error) {
		defer span.End()
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			span.RecordError(*errp)
			span.SetStatus(codes.Error, (*errp).Error())
			slog.Warn("op failed", "req_id", reqID, "op", name, "dur_ms", dur.Milliseconds(), "error", *errp)
			return
		}
		slog.Debug("op done", "req_id", reqID, "op", name, "dur_ms", dur.Milliseconds())
	}
}

// WithRequestID stores a request id for later Time calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
