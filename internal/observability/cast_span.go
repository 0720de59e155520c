package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/raycast/internal/raycast"
)

const tracerName = "github.com/annel0/raycast/internal/raycast"

// StartCastSpan открывает span "raycast.cast" с параметрами броска
func StartCastSpan(ctx context.Context, mode raycast.Mode, req raycast.Request) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "raycast.cast",
		trace.WithAttributes(
			attribute.String("raycast.mode", mode.String()),
			attribute.String("raycast.policy", req.Policy.Name),
			attribute.Float64("raycast.advance", req.Policy.Advance),
			attribute.Float64("raycast.max_distance", req.MaxDistance),
			attribute.Bool("raycast.ignore_liquids", req.IgnoreLiquids),
		),
	)
}

// EndCastSpan записывает результат и закрывает span
func EndCastSpan(span trace.Span, res raycast.HitResult, err error) {
	defer span.End()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	span.SetAttributes(
		attribute.String("raycast.result", res.Kind.String()),
		attribute.Int("raycast.steps", res.Steps),
		attribute.Float64("raycast.traveled", res.Traveled),
	)
	switch res.Kind {
	case raycast.HitEntity:
		span.SetAttributes(attribute.Int64("raycast.entity_id", int64(res.EntityID)))
	case raycast.HitBlock:
		span.SetAttributes(
			attribute.String("raycast.voxel", res.Voxel.Pos.String()),
			attribute.String("raycast.face", res.Face.String()),
		)
	}
}
