package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"equimarket/internal/common/logger"
)

func TestLogSpanExporter_WritesFinishedSpans(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewZapAdapter(zap.New(core))

	tp := newTracerProvider("equimarket-test", NewLogSpanExporter(log))
	defer tp.Shutdown(context.Background())
	o := &Observability{tracerProvider: tp, tracer: tp.Tracer("test")}

	_, span := o.StartSpan(context.Background(), "submission.upload", attribute.String("entity", "book"))
	span.End()

	entries := logs.FilterMessage("span finished").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "submission.upload", entries[0].ContextMap()["span"])
	assert.Equal(t, "book", entries[0].ContextMap()["entity"])
}

func TestNoop_RecordsWithoutPanicking(t *testing.T) {
	o := NewNoop()
	ctx, span := o.StartSpan(context.Background(), "noop")
	defer span.End()

	o.RecordSubmission(ctx, "horse", "success")
	o.RecordStageDuration(ctx, "persist", 5*time.Millisecond)
	o.Shutdown(ctx)
}
