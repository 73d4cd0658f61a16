// internal/common/observability/exporter.go
package observability

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"equimarket/internal/common/logger"
)

// LogSpanExporter writes finished spans as debug log lines.
type LogSpanExporter struct {
	logger logger.Logger
}

func NewLogSpanExporter(log logger.Logger) *LogSpanExporter {
	return &LogSpanExporter{logger: log}
}

func (e *LogSpanExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := map[string]interface{}{
			"span":       s.Name(),
			"traceId":    s.SpanContext().TraceID().String(),
			"durationMs": s.EndTime().Sub(s.StartTime()).Milliseconds(),
			"status":     s.Status().Code.String(),
		}
		for _, kv := range s.Attributes() {
			fields[string(kv.Key)] = kv.Value.Emit()
		}
		e.logger.Debug("span finished", fields)
	}
	return nil
}

func (e *LogSpanExporter) Shutdown(context.Context) error { return nil }
