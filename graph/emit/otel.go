package emit

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter implements Emitter by creating OpenTelemetry spans.
//
// Each event becomes a span with:
//   - Span name: event.Msg (e.g., "round_start", "search_end")
//   - Attributes: paladinus.run_id, paladinus.round, paladinus.node_id and
//     the event.Meta fields
//   - Status: Error if event.Meta["error"] is set
//
// Well-known meta keys are mapped into the paladinus.search namespace
// ("bound" becomes paladinus.search.bound and so on). Infinite bounds are
// recorded as the string "+Inf".
//
// Usage:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
//	emitter := emit.NewOTelEmitter(otel.Tracer("paladinus"))
//	engine, _ := graph.New(problem, h, graph.WithEmitter(emitter))
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates a new OTelEmitter from a tracer obtained with
// otel.Tracer("service-name").
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit creates and immediately ends one span for the event.
func (o *OTelEmitter) Emit(event Event) {
	o.emit(context.Background(), event)
}

// EmitBatch creates one span per event under ctx, so a caller holding a
// parent span can group a run's events.
func (o *OTelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.emit(ctx, event)
	}
	return nil
}

func (o *OTelEmitter) emit(ctx context.Context, event Event) {
	_, span := o.tracer.Start(ctx, event.Msg)
	defer span.End()

	span.SetAttributes(
		attribute.String("paladinus.run_id", event.RunID),
		attribute.Int("paladinus.round", event.Round),
		attribute.String("paladinus.node_id", event.NodeID),
	)
	o.addMetadataAttributes(span, event.Meta)

	if err, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, err)
		span.RecordError(fmt.Errorf("%s", err))
	}
}

// Flush forces export of pending spans when the global tracer provider
// supports it (the SDK provider does, the noop provider does not).
func (o *OTelEmitter) Flush(ctx context.Context) error {
	type flusher interface {
		ForceFlush(context.Context) error
	}
	if f, ok := otel.GetTracerProvider().(flusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}

var searchAttributeKeys = map[string]string{
	"bound":       "paladinus.search.bound",
	"next_bound":  "paladinus.search.next_bound",
	"expansions":  "paladinus.search.expansions",
	"result":      "paladinus.search.result",
	"duration_ms": "paladinus.search.duration_ms",
	"nodes":       "paladinus.graph.nodes",
	"policy_size": "paladinus.policy.size",
	"valid":       "paladinus.policy.valid",
}

func (o *OTelEmitter) addMetadataAttributes(span trace.Span, meta map[string]interface{}) {
	for key, value := range meta {
		attrKey := key
		if mapped, ok := searchAttributeKeys[key]; ok {
			attrKey = mapped
		}

		switch v := value.(type) {
		case string:
			span.SetAttributes(attribute.String(attrKey, v))
		case int:
			span.SetAttributes(attribute.Int(attrKey, v))
		case int64:
			span.SetAttributes(attribute.Int64(attrKey, v))
		case float64:
			if math.IsInf(v, 0) || math.IsNaN(v) {
				span.SetAttributes(attribute.String(attrKey, fmt.Sprint(v)))
			} else {
				span.SetAttributes(attribute.Float64(attrKey, v))
			}
		case bool:
			span.SetAttributes(attribute.Bool(attrKey, v))
		case time.Duration:
			span.SetAttributes(attribute.Int64(attrKey, int64(v/time.Millisecond)))
		default:
			span.SetAttributes(attribute.String(attrKey, fmt.Sprintf("%v", v)))
		}
	}
}
