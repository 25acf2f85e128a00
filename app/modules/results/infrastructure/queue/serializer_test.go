package resultsqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMetrics struct {
	mu        sync.Mutex
	depths    map[string][]int
	hits      int
	misses    int
	evictions int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{depths: make(map[string][]int)}
}

func (f *fakeMetrics) RecordQueueDepth(id string, depth int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.depths[id] = append(f.depths[id], depth)
}

func (f *fakeMetrics) RecordCacheHit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits++
}

func (f *fakeMetrics) RecordCacheMiss() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.misses++
}

func (f *fakeMetrics) RecordCacheEviction() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evictions++
}

func TestSerializer_NoLostUpdates(t *testing.T) {
	s := NewSerializer(nil, newFakeMetrics())
	document := 0
	var running atomic.Int32

	const submissions = 50
	var wg sync.WaitGroup
	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Submit(context.Background(), "WC2025", func(context.Context) error {
				if running.Add(1) != 1 {
					t.Error("two tasks for the same competition ran at once")
				}
				defer running.Add(-1)
				read := document
				time.Sleep(time.Millisecond)
				document = read + 1
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, submissions, document)
	assert.Equal(t, 0, s.Depth("WC2025"))
}

func TestSerializer_RunsInSubmissionOrder(t *testing.T) {
	s := NewSerializer(nil, nil)
	release := make(chan struct{})
	started := make(chan struct{})

	var order []int
	var mu sync.Mutex
	record := func(n int) Task {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			return nil
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Submit(context.Background(), "WC2025", func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = s.Submit(context.Background(), "WC2025", record(n))
		}(i)
		require.Eventually(t, func() bool { return s.Depth("WC2025") == i+1 }, time.Second, time.Millisecond)
	}
	close(release)
	wg.Wait()

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestSerializer_DifferentCompetitionsRunConcurrently(t *testing.T) {
	s := NewSerializer(nil, nil)
	aStarted := make(chan struct{})
	bStarted := make(chan struct{})

	errs := make(chan error, 2)
	go func() {
		errs <- s.Submit(context.Background(), "A2025", func(context.Context) error {
			close(aStarted)
			select {
			case <-bStarted:
				return nil
			case <-time.After(2 * time.Second):
				return errors.New("B never started")
			}
		})
	}()
	go func() {
		<-aStarted
		errs <- s.Submit(context.Background(), "B2025", func(context.Context) error {
			close(bStarted)
			return nil
		})
	}()

	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
}

func TestSerializer_CancelledBeforeSubmitNeverRuns(t *testing.T) {
	s := NewSerializer(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := s.Submit(ctx, "WC2025", func(context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestSerializer_QueuedTaskSurvivesCancellation(t *testing.T) {
	s := NewSerializer(nil, nil)
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_ = s.Submit(context.Background(), "WC2025", func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	var taskCtxErr error
	go func() {
		result <- s.Submit(ctx, "WC2025", func(taskCtx context.Context) error {
			taskCtxErr = taskCtx.Err()
			return nil
		})
	}()
	require.Eventually(t, func() bool { return s.Depth("WC2025") == 2 }, time.Second, time.Millisecond)

	cancel()
	close(release)

	require.NoError(t, <-result)
	assert.NoError(t, taskCtxErr)
}

func TestSerializer_ErrorsAndPanicsReachTheCaller(t *testing.T) {
	s := NewSerializer(nil, nil)
	errBoom := errors.New("boom")

	err := s.Submit(context.Background(), "WC2025", func(context.Context) error { return errBoom })
	assert.ErrorIs(t, err, errBoom)

	err = s.Submit(context.Background(), "WC2025", func(context.Context) error { panic("bad document") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad document")

	// The queue keeps working afterwards.
	assert.NoError(t, s.Submit(context.Background(), "WC2025", func(context.Context) error { return nil }))
}

func TestRun_ReturnsValue(t *testing.T) {
	s := NewSerializer(nil, nil)
	got, err := Run(context.Background(), s, "WC2025", func(context.Context) (string, error) {
		return "333-r1", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "333-r1", got)
}

func TestSerializer_WaitAndDepthMetrics(t *testing.T) {
	metrics := newFakeMetrics()
	s := NewSerializer(nil, metrics)

	require.NoError(t, s.Submit(context.Background(), "WC2025", func(context.Context) error { return nil }))
	require.NoError(t, s.Wait(context.Background()))

	require.Eventually(t, func() bool {
		metrics.mu.Lock()
		defer metrics.mu.Unlock()
		d := metrics.depths["WC2025"]
		return len(d) > 0 && d[len(d)-1] == 0
	}, time.Second, time.Millisecond)
}
