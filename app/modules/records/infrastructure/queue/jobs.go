package recordsqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/live-results/pkg/attr"
	"github.com/riverqueue/river"
)

// QueueName is the River queue refresh jobs run on.
const QueueName = "records"

// RefreshRecordsArgs asks for the official records to be fetched again.
type RefreshRecordsArgs struct{}

// Kind returns the job type identifier for River
func (RefreshRecordsArgs) Kind() string { return "refresh_records" }

// InsertOpts keeps refreshes on their own queue and drops duplicates
// scheduled within the same minute.
func (RefreshRecordsArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueName,
		MaxAttempts: 3,
		UniqueOpts:  river.UniqueOpts{ByPeriod: time.Minute},
	}
}

// Refresher is implemented by the records provider.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshRecordsWorker runs RefreshRecordsArgs jobs.
type RefreshRecordsWorker struct {
	river.WorkerDefaults[RefreshRecordsArgs]
	refresher Refresher
	logger    *slog.Logger
}

// NewRefreshRecordsWorker creates the worker.
func NewRefreshRecordsWorker(refresher Refresher, logger *slog.Logger) *RefreshRecordsWorker {
	return &RefreshRecordsWorker{refresher: refresher, logger: logger}
}

// Work refreshes the records. A failed attempt is retried by River; the
// provider keeps serving the previous records meanwhile.
func (w *RefreshRecordsWorker) Work(ctx context.Context, job *river.Job[RefreshRecordsArgs]) error {
	start := time.Now()
	if err := w.refresher.Refresh(ctx); err != nil {
		w.logger.WarnContext(ctx, "Records refresh failed",
			attr.Int64("job_id", job.ID),
			attr.Int("attempt", job.Attempt),
			attr.Error(err),
		)
		return fmt.Errorf("refresh records: %w", err)
	}
	w.logger.InfoContext(ctx, "Records refresh completed",
		attr.Int64("job_id", job.ID),
		attr.Duration("duration", time.Since(start)),
	)
	return nil
}

// Timeout bounds a single refresh.
func (w *RefreshRecordsWorker) Timeout(*river.Job[RefreshRecordsArgs]) time.Duration {
	return 2 * time.Minute
}
