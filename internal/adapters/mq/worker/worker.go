// Package worker defines worker contracts for asynchronous analysis runs.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/campwatch/internal/domain/model"
	"github.com/okian/campwatch/pkg/logger"
	"github.com/okian/campwatch/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Job abstracts what workers read off the queue.
// Using the model.Job type for consistency.
type Job = model.Job

// Fetcher acquires the raw records for a job's query.
type Fetcher interface {
	Fetch(ctx context.Context, q model.Query) ([]model.RawRecord, error)
}

// Analyzer runs the analysis pipeline over a batch of records.
type Analyzer interface {
	Analyze(ctx context.Context, records []model.RawRecord, q model.Query) (*model.Report, error)
}

// Saver persists a finished report.
type Saver interface {
	Save(ctx context.Context, report *model.Report) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs and stores reports using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining jobs before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing analysis jobs.
type InMemoryWorker struct {
	queue    Queue
	fetcher  Fetcher
	analyzer Analyzer
	saver    Saver
	name     string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, fetcher Fetcher, analyzer Analyzer, saver Saver, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		fetcher:  fetcher,
		analyzer: analyzer,
		saver:    saver,
		name:     "worker", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"), // will be updated by options
	}

	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob fetches, analyzes, and stores the report for a single job.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) error {
	records, err := w.fetcher.Fetch(ctx, job.Query)
	if err != nil {
		metrics.RecordFetchError()
		w.logger.Error(ctx, "fetch failed for job",
			logger.String("jobID", job.ID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to fetch records for job %s: %w", job.ID, err)
	}

	report, err := w.analyzer.Analyze(ctx, records, job.Query)
	if err != nil {
		w.logger.Error(ctx, "analysis failed for job",
			logger.String("jobID", job.ID),
			logger.Error(err),
		)
		return fmt.Errorf("analysis failed for job %s: %w", job.ID, err)
	}
	report.RunID = job.ID

	if err := w.saver.Save(ctx, report); err != nil {
		w.logger.Error(ctx, "storing report failed for job",
			logger.String("jobID", job.ID),
			logger.Error(err),
		)
		return fmt.Errorf("storing report failed: %w", err)
	}

	w.logger.Info(ctx, "job completed",
		logger.String("jobID", job.ID),
		logger.Int("posts", report.Summary.TotalTweets),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	fetcher  Fetcher
	analyzer Analyzer
	saver    Saver

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, fetcher Fetcher, analyzer Analyzer, saver Saver) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		fetcher:  fetcher,
		analyzer: analyzer,
		saver:    saver,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			fetcher,
			analyzer,
			saver,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new jobs
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	// Wait for all workers to finish or context to timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
