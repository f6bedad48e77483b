package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/psantana5/calltiming/pkg/timing"
)

// Span attribute keys
const (
	AttrSite       = attribute.Key("calltiming.site")
	AttrCategory   = attribute.Key("calltiming.category")
	AttrMode       = attribute.Key("calltiming.mode")
	AttrElapsed    = attribute.Key("calltiming.elapsed_seconds")
	AttrReported   = attribute.Key("calltiming.reported")
	AttrDepth      = attribute.Key("calltiming.depth")
	AttrCount      = attribute.Key("calltiming.count")
	AttrCumulative = attribute.Key("calltiming.cumulative_seconds")
)

// Run times fn on site inside a span named after the site. The site's
// decision is recorded on the span; a returned error or a panic marks the
// span as failed.
func (p *Provider) Run(ctx context.Context, site *timing.Site, fn func(context.Context) error) (err error) {
	cfg := site.Config()
	ctx, span := p.tracer.Start(ctx, cfg.DisplayName,
		trace.WithAttributes(
			AttrSite.String(cfg.DisplayName),
			AttrCategory.String(cfg.Category),
			AttrMode.String(cfg.Mode.String()),
		),
	)
	defer span.End()

	inv := site.Begin()
	defer func() {
		if r := recover(); r != nil {
			record(span, inv.End())
			span.SetStatus(codes.Error, fmt.Sprint(r))
			panic(r)
		}
		record(span, inv.End())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	return fn(ctx)
}

func record(span trace.Span, d timing.Decision) {
	span.SetAttributes(
		AttrElapsed.Float64(d.Elapsed.Seconds()),
		AttrReported.Bool(d.Reported()),
	)
	if d.Reported() {
		span.SetAttributes(AttrDepth.Int(d.Depth))
		span.AddEvent("calltiming.report", trace.WithAttributes(attribute.String("line", d.Line)))
	}
	if d.Mode == timing.ModeCumulative {
		span.SetAttributes(
			AttrCount.Int64(d.Count),
			AttrCumulative.Float64(d.Cumulative.Seconds()),
		)
	}
}
