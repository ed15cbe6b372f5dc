package ctxutil

import (
	"context"
	"testing"
)

func TestRequestIDsRoundTrip(t *testing.T) {
	if _, ok := RequestIDsFrom(context.Background()); ok {
		t.Fatalf("expected no ids on a bare context")
	}
	ctx := WithRequestIDs(nil, RequestIDs{RequestID: "r1", TraceID: "t1"})
	ids, ok := RequestIDsFrom(ctx)
	if !ok || ids.RequestID != "r1" || ids.TraceID != "t1" {
		t.Fatalf("unexpected ids: %+v ok=%v", ids, ok)
	}
	if got := len(ids.LogFields()); got != 4 {
		t.Fatalf("expected 4 log fields, got %d", got)
	}
	same := RequestIDs{RequestID: "r1", TraceID: "r1"}
	if got := len(same.LogFields()); got != 2 {
		t.Fatalf("trace id equal to request id should be dropped, got %d fields", got)
	}
}
