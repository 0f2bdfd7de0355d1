package observe

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"

	serrors "github.com/strand-ui/strand/internal/errors"
	"github.com/strand-ui/strand/pkg/client"
	"github.com/strand-ui/strand/pkg/widget"
)

// The global provider defaults to a no-op tracer, so these tests exercise
// the hook's control flow rather than exported span contents.

func TestTracingHandlesSuccessAndError(t *testing.T) {
	tr := NewTracing(
		WithTracerName("strand-test"),
		WithAttributeExtractor(func(info client.BatchInfo) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	)

	tr.BatchApplied(context.Background(), client.BatchInfo{
		Seq:        1,
		DeltaCount: 2,
		Stats:      widget.PassStats{Created: 2, Deltas: 2},
		Duration:   time.Millisecond,
	})
	tr.BatchApplied(context.Background(), client.BatchInfo{
		Seq: 2,
		Err: serrors.New("E103").WithComponent("root"),
	})
}

func TestTracingFilterSkips(t *testing.T) {
	called := false
	tr := NewTracing(
		WithBatchFilter(func(info client.BatchInfo) bool {
			called = true
			return info.DeltaCount > 0
		}),
	)

	tr.BatchApplied(context.Background(), client.BatchInfo{Seq: 1, DeltaCount: 0})
	if !called {
		t.Fatal("filter never consulted")
	}
}
