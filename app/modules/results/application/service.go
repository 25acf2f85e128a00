package resultsservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	resultsmetrics "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/metrics"
	resultsqueue "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/queue"
	resultsdb "github.com/Black-And-White-Club/live-results/app/modules/results/infrastructure/repositories"
	"github.com/Black-And-White-Club/live-results/pkg/attr"
	"github.com/Black-And-White-Club/live-results/pkg/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "ResultsService"

// ResultsService implements the Service interface.
type ResultsService struct {
	repo       resultsdb.Repository
	serializer *resultsqueue.Serializer
	cache      CompetitionCache
	records    RecordsProvider
	notifier   RoundNotifier
	logger     *slog.Logger
	metrics    resultsmetrics.ResultsMetrics
	tracer     trace.Tracer
	db         *bun.DB
	clock      func() time.Time
}

// Ensure ResultsService implements Service
var _ Service = (*ResultsService)(nil)

// NewResultsService creates a new ResultsService. notifier may be nil.
func NewResultsService(
	repo resultsdb.Repository,
	serializer *resultsqueue.Serializer,
	cache CompetitionCache,
	records RecordsProvider,
	notifier RoundNotifier,
	logger *slog.Logger,
	metrics resultsmetrics.ResultsMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *ResultsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsService{
		repo:       repo,
		serializer: serializer,
		cache:      cache,
		records:    records,
		notifier:   notifier,
		logger:     logger,
		metrics:    metrics,
		tracer:     tracer,
		db:         db,
		clock:      time.Now,
	}
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *ResultsService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {

	// Start span
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.InfoContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	// Infrastructure and data-integrity errors
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *ResultsService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {

	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}
