package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "corkboard"

// StartMoveSpan starts a span for a task move or reorder.
func StartMoveSpan(ctx context.Context, taskID, targetColumnID string, targetOrder int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "ordering.move_task",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("column.id", targetColumnID),
			attribute.Int("task.order", targetOrder),
		),
	)
}

// StartBroadcastSpan starts a span for a room fan-out.
func StartBroadcastSpan(ctx context.Context, eventType, projectID string, recipients int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "broadcast",
		trace.WithAttributes(
			attribute.String("event.type", eventType),
			attribute.String("project.id", projectID),
			attribute.Int("broadcast.recipients", recipients),
		),
	)
}
