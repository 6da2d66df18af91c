package inventory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func findSpan(spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	for _, s := range spans {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

func TestTracing_PostTransactionYRechazo(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))

	h := newHarness(t)
	paper := h.item(t, "A4-PAPER", 0)

	_, err := h.post(t, "PO-1", time.Time{}, receive(paper, 5))
	require.NoError(t, err)

	ok := findSpan(rec.Ended(), "ledger.PostTransaction")
	require.NotNil(t, ok)
	assert.Contains(t, ok.Attributes(), attribute.String("ledger.reference", "PO-1"))
	assert.Equal(t, codes.Unset, ok.Status().Code)

	_, err = h.post(t, "RIS-1", time.Time{}, issue(paper, 9))
	require.Error(t, err)

	spans := rec.Ended()
	last := spans[len(spans)-1]
	assert.Equal(t, "ledger.PostTransaction", last.Name())
	assert.Equal(t, codes.Error, last.Status().Code)
}
