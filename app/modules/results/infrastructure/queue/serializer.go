package resultsqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Black-And-White-Club/live-results/pkg/attr"
)

// Metrics is the subset of results metrics the serializer and cache report to.
type Metrics interface {
	RecordQueueDepth(competitionID string, depth int)
	RecordCacheHit()
	RecordCacheMiss()
	RecordCacheEviction()
}

// Task is a read-modify-write of one competition document.
type Task func(ctx context.Context) error

type pending struct {
	ctx  context.Context
	task Task
	done chan error
}

type keyQueue struct {
	tasks []*pending
}

// Serializer runs at most one task per competition id at a time, in
// submission order. Tasks for different ids run concurrently. A task that
// has been queued always runs to completion; there is no timeout.
type Serializer struct {
	mu      sync.Mutex
	queues  map[string]*keyQueue
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics Metrics
}

// NewSerializer creates an empty serializer.
func NewSerializer(logger *slog.Logger, metrics Metrics) *Serializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Serializer{
		queues:  make(map[string]*keyQueue),
		logger:  logger,
		metrics: metrics,
	}
}

// Submit queues task for competitionID and waits for its outcome. If ctx is
// already done the task is never queued and ctx.Err() is returned. Once
// queued, Submit waits for the task even if ctx is cancelled, and the task
// sees a context that is never cancelled.
func (s *Serializer) Submit(ctx context.Context, competitionID string, task Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p := &pending{ctx: context.WithoutCancel(ctx), task: task, done: make(chan error, 1)}

	s.mu.Lock()
	q, running := s.queues[competitionID]
	if !running {
		q = &keyQueue{}
		s.queues[competitionID] = q
	}
	q.tasks = append(q.tasks, p)
	depth := len(q.tasks)
	s.wg.Add(1)
	s.mu.Unlock()

	s.recordDepth(competitionID, depth)
	if !running {
		go s.drain(competitionID, q)
	}
	return <-p.done
}

// drain runs the queue of one competition until it is empty. The head task
// stays in the queue while it runs so depth counts it.
func (s *Serializer) drain(competitionID string, q *keyQueue) {
	for {
		s.mu.Lock()
		if len(q.tasks) == 0 {
			delete(s.queues, competitionID)
			s.mu.Unlock()
			s.recordDepth(competitionID, 0)
			return
		}
		p := q.tasks[0]
		s.mu.Unlock()

		p.done <- s.run(competitionID, p)

		s.mu.Lock()
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		depth := len(q.tasks)
		s.mu.Unlock()
		s.recordDepth(competitionID, depth)
		s.wg.Done()
	}
}

func (s *Serializer) run(competitionID string, p *pending) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in queued task for %s: %v", competitionID, r)
			s.logger.ErrorContext(p.ctx, "Queued task panicked",
				attr.CompetitionID(competitionID),
				attr.Error(err),
			)
		}
	}()
	return p.task(p.ctx)
}

// Depth returns the number of queued and running tasks for competitionID.
func (s *Serializer) Depth(competitionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.queues[competitionID]; ok {
		return len(q.tasks)
	}
	return 0
}

// Wait blocks until every queued task has finished or ctx is done.
func (s *Serializer) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Serializer) recordDepth(competitionID string, depth int) {
	if s.metrics != nil {
		s.metrics.RecordQueueDepth(competitionID, depth)
	}
}

// Run submits fn and returns its value.
func Run[T any](ctx context.Context, s *Serializer, competitionID string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := s.Submit(ctx, competitionID, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}
