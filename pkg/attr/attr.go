// Package attr holds the slog attribute helpers shared by every module so that
// log keys stay consistent.
package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Time(key string, value time.Time) slog.Attr { return slog.Time(key, value) }

func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

// Error logs err under the "error" key. A nil error is logged as an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

func CompetitionID(id string) slog.Attr { return slog.String("competition_id", id) }

func RoundID(id string) slog.Attr { return slog.String("round_id", id) }

// ExtractCorrelationID returns the request id set by the HTTP middleware, if any.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	return slog.String("correlation_id", middleware.GetReqID(ctx))
}
