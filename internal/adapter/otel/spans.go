package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "servicepulse"

// StartResolveSpan starts a span for a host to tenant resolution.
func StartResolveSpan(ctx context.Context, host string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "tenant.resolve",
		trace.WithAttributes(attribute.String("tenant.host", host)),
	)
}

// StartUploadSpan starts a span for storing one uploaded object.
func StartUploadSpan(ctx context.Context, tenantID, folder, contentType string, size int64) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "upload.put",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("upload.folder", folder),
			attribute.String("upload.content_type", contentType),
			attribute.Int64("upload.size", size),
		),
	)
}

// StartBackfillSpan starts a span for a seed backfill run.
func StartBackfillSpan(ctx context.Context, tenantID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "seed.backfill",
		trace.WithAttributes(attribute.String("tenant.id", tenantID)),
	)
}
