package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/Jeffail/tunny"
	"github.com/rs/zerolog"
)

// Job computes the result for one input index.
type Job func(index int) (interface{}, error)

// Queue runs jobs on a bounded worker pool and hands results back in input
// order, so callers see the same output whatever the worker count.
type Queue struct {
	workers  int
	pool     *tunny.Pool
	log      zerolog.Logger
	stopOnce sync.Once
}

type task struct {
	index int
	job   Job
}

type result struct {
	value interface{}
	err   error
}

// NewQueue creates a queue with the given number of workers.
func NewQueue(workers int, log zerolog.Logger) (*Queue, error) {
	if workers < 1 {
		return nil, fmt.Errorf("worker count must be positive, got %d", workers)
	}

	q := &Queue{
		workers: workers,
		log:     log.With().Str("component", "queue").Int("workers", workers).Logger(),
	}
	if workers > 1 {
		q.pool = tunny.NewFunc(workers, func(payload interface{}) interface{} {
			t := payload.(task)
			v, err := t.job(t.index)
			return result{value: v, err: err}
		})
	}
	q.log.Debug().Msg("Queue created")
	return q, nil
}

// Workers returns the configured worker count.
func (q *Queue) Workers() int {
	return q.workers
}

// Run executes job for every index in [0, n). done, when set, is called once
// per finished job and may be called concurrently. Results are returned in
// index order. If any job fails, the error of the lowest failing index is
// returned.
func (q *Queue) Run(ctx context.Context, n int, job Job, done func()) ([]interface{}, error) {
	results := make([]result, n)

	if q.pool == nil {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			v, err := job(i)
			results[i] = result{value: v, err: err}
			if done != nil {
				done()
			}
			if err != nil {
				// Sequential runs stop at the first failure.
				return nil, err
			}
		}
		return collect(results)
	}

	// One goroutine per job; the pool bounds how many run at once.
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := q.pool.ProcessCtx(ctx, task{index: i, job: job})
			if err != nil {
				results[i] = result{err: err}
			} else {
				results[i] = out.(result)
			}
			if done != nil {
				done()
			}
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return collect(results)
}

func collect(results []result) ([]interface{}, error) {
	values := make([]interface{}, len(results))
	for i, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		values[i] = r.value
	}
	return values, nil
}

// Stop releases the worker pool.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		q.log.Debug().Msg("Stopping queue")
		if q.pool != nil {
			q.pool.Close()
		}
	})
}
