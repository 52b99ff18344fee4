package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name for csprojsync operations
const TracerName = "github.com/willibrandon/csprojsync"

// Common attribute keys
const (
	AttrManifestPath = attribute.Key("manifest.path")
	AttrOperation    = attribute.Key("manifest.operation")
	AttrBuildAction  = attribute.Key("manifest.build_action")
	AttrItemCount    = attribute.Key("manifest.item_count")
	AttrItemPath     = attribute.Key("item.path")
	AttrBatchID      = attribute.Key("watch.batch_id")
)

// StartManifestSpan starts a span for one editor operation on a manifest.
func StartManifestSpan(ctx context.Context, operation, manifestPath string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{
		AttrOperation.String(operation),
		AttrManifestPath.String(manifestPath),
	}, attrs...)
	return StartSpan(ctx, TracerName, "manifest."+operation, trace.WithAttributes(attrs...))
}

// StartLocateSpan starts a span for a manifest lookup.
func StartLocateSpan(ctx context.Context, itemPath string) (context.Context, trace.Span) {
	return StartSpan(ctx, TracerName, "manifest.locate",
		trace.WithAttributes(AttrItemPath.String(itemPath)),
	)
}

// StartWatchBatchSpan starts a span for one flushed batch of filesystem events.
func StartWatchBatchSpan(ctx context.Context, batchID string, events int) (context.Context, trace.Span) {
	return StartSpan(ctx, TracerName, "watch.flush",
		trace.WithAttributes(
			AttrBatchID.String(batchID),
			attribute.Int("watch.events", events),
		),
	)
}

// EndSpanWithError ends a span with an error status
func EndSpanWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
