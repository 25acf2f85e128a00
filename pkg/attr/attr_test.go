package attr

import (
	"context"
	"errors"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestError(t *testing.T) {
	if got := Error(errors.New("disk full")).Value.String(); got != "disk full" {
		t.Errorf("Error() = %q", got)
	}
	if got := Error(nil).Value.String(); got != "" {
		t.Errorf("Error(nil) = %q", got)
	}
}

func TestExtractCorrelationID(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-123")
	a := ExtractCorrelationID(ctx)
	if a.Key != "correlation_id" || a.Value.String() != "req-123" {
		t.Errorf("ExtractCorrelationID() = %v", a)
	}
	if got := ExtractCorrelationID(context.Background()).Value.String(); got != "" {
		t.Errorf("missing request id = %q", got)
	}
}
