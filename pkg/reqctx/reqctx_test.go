package reqctx

import (
	"context"
	"testing"
)

func TestRequestMeta(t *testing.T) {
	ctx := context.Background()
	if _, ok := RequestMetaFromContext(ctx); ok {
		t.Fatal("empty context reported metadata")
	}
	if id := RequestIDFromContext(ctx); id != "" {
		t.Errorf("RequestIDFromContext() = %q", id)
	}

	ctx = WithRequestMeta(ctx, &RequestMeta{RequestID: "rid-1", ClientIP: "10.0.0.1"})
	meta, ok := RequestMetaFromContext(ctx)
	if !ok || meta.ClientIP != "10.0.0.1" {
		t.Errorf("RequestMetaFromContext() = %+v, %v", meta, ok)
	}
	if id := RequestIDFromContext(ctx); id != "rid-1" {
		t.Errorf("RequestIDFromContext() = %q", id)
	}

	if _, ok := RequestMetaFromContext(WithRequestMeta(context.Background(), nil)); ok {
		t.Error("nil metadata reported as present")
	}
}
