package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	return exporter
}

func TestTraceCommand_Success(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceCommand(context.Background(), "LoadSnapshot", "storefront:cart:7")
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "redis.LoadSnapshot", spans[0].Name)

	attrs := map[string]string{}
	for _, a := range spans[0].Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	assert.Equal(t, "redis", attrs["db.system"])
	assert.Equal(t, "storefront:cart:7", attrs["db.redis.key"])
	assert.NotEqual(t, codes.Error, spans[0].Status.Code)
}

func TestTraceCommand_Error(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceCommand(context.Background(), "SaveSnapshot", "storefront:cart:7")
	end(errors.New("connection refused"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "connection refused", spans[0].Status.Description)
}

func TestTraceCommand_SlowCommandLogged(t *testing.T) {
	setupTestTracer(t)

	var buf bytes.Buffer
	SetSlowCommandLogging(time.Nanosecond, slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { SetSlowCommandLogging(0, nil) })

	_, end := TraceCommand(context.Background(), "LoadSnapshot", "storefront:cart:1")
	time.Sleep(time.Millisecond)
	end(nil)

	assert.Contains(t, buf.String(), "slow redis command")
	assert.Contains(t, buf.String(), "LoadSnapshot")
}

func TestTraceCommand_SlowLoggingDisabled(t *testing.T) {
	setupTestTracer(t)

	var buf bytes.Buffer
	SetSlowCommandLogging(0, slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { SetSlowCommandLogging(0, nil) })

	_, end := TraceCommand(context.Background(), "LoadSnapshot", "k")
	end(nil)

	assert.Empty(t, buf.String())
}
