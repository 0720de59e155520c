package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/annel0/raycast/internal/logging"
)

const defaultEndpoint = "localhost:4318"

// TelemetryOptions задаёт параметры экспорта трасс
type TelemetryOptions struct {
	ServiceName string
	NodeID      string  // попадает в service.instance.id
	Endpoint    string  // host:port OTLP HTTP, по умолчанию localhost:4318
	Insecure    bool    // без TLS
	SampleRatio float64 // доля корневых трасс; дочерние следуют решению родителя
}

// NewTracerProvider собирает провайдер трасс поверх произвольного экспортера
func NewTracerProvider(ctx context.Context, exp sdktrace.SpanExporter, opts TelemetryOptions) (*sdktrace.TracerProvider, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(opts.ServiceName)}
	if opts.NodeID != "" {
		attrs = append(attrs, semconv.ServiceInstanceID(opts.NodeID))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("ресурс телеметрии: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))),
	), nil
}

// InitTelemetry настраивает OTLP экспортер, глобальный TracerProvider и
// W3C propagator. Возвращает shutdown, который сбрасывает накопленные спаны.
func InitTelemetry(ctx context.Context, opts TelemetryOptions) (func(context.Context) error, error) {
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint
	}

	exporterOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("OTLP экспортер: %w", err)
	}

	tp, err := NewTracerProvider(ctx, exp, opts)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logging.Info("📡 OpenTelemetry: OTLP %s, service=%s, sample=%.2f", opts.Endpoint, opts.ServiceName, opts.SampleRatio)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}
