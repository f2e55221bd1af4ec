package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxAttempts bounds retries for a single job. Processing already degrades
// internally, so failures here are persistence-level.
const maxAttempts = 3

// retryDelay is a variable so tests can shorten it.
var retryDelay = 2 * time.Second

// ErrQueueFull is returned by Enqueue when the buffer is at capacity.
var ErrQueueFull = errors.New("queue is full")

// ErrQueueClosed is returned by Enqueue after Shutdown has started.
var ErrQueueClosed = errors.New("queue is closed")

// Job is one receipt submission awaiting background processing.
type Job struct {
	ID          uuid.UUID
	FileURL     string
	Filename    string
	UserID      string
	SubmittedAt time.Time
}

// ProcessFunc handles a single job. A returned error triggers a retry up
// to the attempt budget.
type ProcessFunc func(ctx context.Context, job Job) error

// Queue runs a fixed pool of workers over a bounded job channel.
type Queue struct {
	jobs    chan Job
	process ProcessFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New starts a queue with the given worker count and buffer size.
func New(workers, buffer int, process ProcessFunc) *Queue {
	if workers < 1 {
		workers = 1
	}
	q := &Queue{
		jobs:    make(chan Job, buffer),
		process: process,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	return q
}

// Enqueue submits a job without blocking. It assigns the job ID and
// submission time.
func (q *Queue) Enqueue(job Job) (Job, error) {
	job.ID = uuid.New()
	job.SubmittedAt = time.Now()

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return Job{}, ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		return job, nil
	default:
		return Job{}, ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for in-flight work to drain, up
// to the context deadline.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	for job := range q.jobs {
		q.run(id, job)
	}
}

func (q *Queue) run(workerID int, job Job) {
	log := slog.With("worker", workerID, "job_id", job.ID, "user_id", job.UserID, "filename", job.Filename)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := q.process(context.Background(), job)
		if err == nil {
			log.Info("job processed", "attempt", attempt)
			return
		}
		log.Warn("job attempt failed", "attempt", attempt, "error", err)
		if attempt < maxAttempts {
			time.Sleep(retryDelay)
		}
	}
	log.Error("job abandoned after retries", "attempts", maxAttempts)
}
