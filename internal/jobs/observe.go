// SPDX-License-Identifier: MIT

package jobs

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/asfstats/internal/log"
	"github.com/ManuGH/asfstats/internal/telemetry"
)

const scopeName = "asfstats.refresh"

// allowedAttributes is the fixed set of span attribute keys a refresh
// may emit. EmitRefreshObs refuses to set anything outside it so
// dashboards can rely on the shape.
var allowedAttributes = map[string]bool{
	telemetry.ListingSourceKey:  true,
	telemetry.ListingIssuesKey:  true,
	telemetry.ListingSkippedKey: true,
	telemetry.CatalogStoriesKey: true,
	telemetry.CatalogAuthorsKey: true,
	telemetry.ErrorKey:          true,
	telemetry.ErrorTypeKey:      true,
}

// StartRefreshSpan opens the span covering one refresh run. Providers
// are looked up per call, never cached, so tests and late telemetry
// setup both see the current global.
func StartRefreshSpan(ctx context.Context) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(scopeName)
	return tracer.Start(ctx, "asfstats.refresh")
}

// EmitRefreshObs records the outcome of a refresh run on the current
// span and on the run counter. Busy rejections never reach this point;
// the scope counts actual runs only.
func EmitRefreshObs(ctx context.Context, status *Status, runErr error) {
	span := trace.SpanFromContext(ctx)
	meter := otel.GetMeterProvider().Meter(scopeName)

	outcome := "success"
	if runErr != nil {
		outcome = "failure"
	}

	counterAttrs := []attribute.KeyValue{attribute.String("outcome", outcome)}
	if status != nil && status.Source != "" {
		counterAttrs = append(counterAttrs, attribute.String("source", status.Source))
	}
	runsTotal, _ := meter.Int64Counter("asfstats_refresh_runs_total",
		metric.WithDescription("Refresh runs by outcome"))
	runsTotal.Add(ctx, 1, metric.WithAttributes(counterAttrs...))

	var attrs []attribute.KeyValue
	if runErr != nil {
		span.SetStatus(codes.Error, "refresh failed")
		attrs = telemetry.ErrorAttributes(runErr, "refresh")
	} else if status != nil {
		span.SetStatus(codes.Ok, "")
		attrs = telemetry.RefreshAttributes(status.Source, status.Stories, status.Issues, status.Authors)
		attrs = append(attrs, attribute.Int(telemetry.ListingSkippedKey, status.Skipped))
	}

	for _, kv := range attrs {
		if !allowedAttributes[string(kv.Key)] {
			logger := log.WithComponent("jobs")
			logger.Error().
				Str("key", string(kv.Key)).
				Msg("refresh span attribute outside the fixed set")
			return
		}
	}
	span.SetAttributes(attrs...)
}
