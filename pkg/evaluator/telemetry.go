package evaluator

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/sandrolain/gospel/pkg/types"
)

const instrumentationName = "github.com/sandrolain/gospel/pkg/evaluator"

// Span and metric names.
const (
	SpanEval          = "gospel.eval"
	MetricEvaluations = "gospel.evaluations"
	MetricErrors      = "gospel.evaluation.errors"
	MetricDuration    = "gospel.evaluation.duration"
)

// Span attribute keys.
var (
	AttrExpression = attribute.Key("gospel.expression")
	AttrResultType = attribute.Key("gospel.result.type")
	AttrErrorCode  = attribute.Key("gospel.error.code")
)

type telemetry struct {
	tracer      trace.Tracer
	evaluations metric.Int64Counter
	errors      metric.Int64Counter
	duration    metric.Float64Histogram
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider, logger *slog.Logger) *telemetry {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	t := &telemetry{tracer: tp.Tracer(instrumentationName)}
	if err := t.initMetrics(mp.Meter(instrumentationName)); err != nil {
		logger.Warn("gospel metrics disabled", "error", err)
		_ = t.initMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	}
	return t
}

func (t *telemetry) initMetrics(meter metric.Meter) error {
	var err error
	t.evaluations, err = meter.Int64Counter(MetricEvaluations,
		metric.WithDescription("Number of expression evaluations"),
	)
	if err != nil {
		return err
	}
	t.errors, err = meter.Int64Counter(MetricErrors,
		metric.WithDescription("Number of failed expression evaluations"),
	)
	if err != nil {
		return err
	}
	t.duration, err = meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Expression evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	return err
}

func (t *telemetry) start(ctx context.Context, source string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanEval,
		trace.WithAttributes(AttrExpression.String(source)),
	)
}

func (t *telemetry) end(ctx context.Context, span trace.Span, start time.Time, result any, err error) {
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	t.evaluations.Add(ctx, 1)
	t.duration.Record(ctx, elapsed)

	if err != nil {
		attrs := []attribute.KeyValue{}
		if code, ok := types.Code(err); ok {
			attrs = append(attrs, AttrErrorCode.String(string(code)))
		}
		t.errors.Add(ctx, 1, metric.WithAttributes(attrs...))
		span.SetAttributes(attrs...)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(AttrResultType.String(types.TypeName(result)))
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
