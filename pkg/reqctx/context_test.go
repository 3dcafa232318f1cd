package reqctx

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestMetaRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext on empty ctx = %q, want empty", got)
	}

	ctx = WithRequestMeta(ctx, &RequestMeta{RequestID: "req-1"})
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext = %q, want req-1", got)
	}
}

func TestUserIDFromContext(t *testing.T) {
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Error("expected no user on empty context")
	}
	if _, ok := UserIDFromContext(WithUserID(context.Background(), uuid.Nil)); ok {
		t.Error("nil uuid must not count as a verified user")
	}

	id := uuid.New()
	got, ok := UserIDFromContext(WithUserID(context.Background(), id))
	if !ok || got != id {
		t.Errorf("UserIDFromContext = %v, %v; want %v, true", got, ok, id)
	}
}

func TestLoggerCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := WithRequestMeta(context.Background(), &RequestMeta{RequestID: "req-42"})
	Logger(ctx).Info("checkout")

	if !strings.Contains(buf.String(), "request_id=req-42") {
		t.Errorf("log line missing request id: %q", buf.String())
	}
}
