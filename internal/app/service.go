// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/campwatch/internal/adapters/mq/queue"
	workerpool "github.com/okian/campwatch/internal/adapters/mq/worker"
	repository "github.com/okian/campwatch/internal/adapters/repository"
	"github.com/okian/campwatch/internal/adapters/source"
	"github.com/okian/campwatch/internal/domain/dedupe"
	"github.com/okian/campwatch/internal/domain/flatten"
	"github.com/okian/campwatch/internal/domain/graph"
	"github.com/okian/campwatch/internal/domain/model"
	"github.com/okian/campwatch/internal/domain/similarity"
	"github.com/okian/campwatch/internal/domain/summary"
	"github.com/okian/campwatch/internal/domain/temporal"
	"github.com/okian/campwatch/pkg/logger"
	"github.com/okian/campwatch/pkg/metrics"
)

// Sentinel kinds for service errors.
var (
	ErrNoSource   = errors.New("no data source configured")
	ErrNotStarted = errors.New("service not started")
)

// Service implements the API dependencies for the campaign analysis system.
type Service struct {
	mu sync.RWMutex

	// Core components
	reports    repository.Store
	deduper    dedupe.Deduper
	jobQueue   jobqueue.Queue
	workerPool *workerpool.Pool
	source     source.Source
	flattener  *flatten.Flattener

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	reportStoreSize int
	threshold       float64

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the submission deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithReportStoreSize bounds the in-memory report store.
func WithReportStoreSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.reportStoreSize = size
		}
	}
}

// WithSimilarityThreshold sets the default near-duplicate cosine cutoff.
func WithSimilarityThreshold(t float64) Option {
	return func(s *Service) {
		if t > 0 && t <= 1 {
			s.threshold = t
		}
	}
}

// WithSource sets the data source used by asynchronous jobs and RunOnce.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       1024,
		dedupeSize:      10_000,
		reportStoreSize: 100,
		threshold:       similarity.DefaultThreshold,
		stopCh:          make(chan struct{}),
		logger:          nil, // resolved lazily so New() works before logger.Init
	}

	for _, opt := range opts {
		opt(s)
	}

	s.flattener = flatten.New()

	return s
}

func (s *Service) ensureLogger() {
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.source == nil {
		return ErrNoSource
	}

	s.ensureLogger()
	s.logger.Info(ctx, "starting analysis service...")

	s.reports = repository.NewMemStore(
		repository.WithMaxReports(s.reportStoreSize),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s.source, s, s.reports)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "analysis service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping analysis service...")

	// Close queue first so workers drain and exit
	if q, ok := s.jobQueue.(*jobqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "analysis service stopped")
}

// Analyze runs the synchronous pipeline over a raw record batch: flatten,
// then temporal aggregation, similarity clustering, and graph construction
// concurrently, then the summary reduction. Degenerate inputs produce
// zero-valued outputs, never an error.
func (s *Service) Analyze(ctx context.Context, records []model.RawRecord, q model.Query) (*model.Report, error) {
	s.ensureLogger()
	start := time.Now().UTC()

	res := s.flattener.Flatten(ctx, records)
	posts := res.Posts
	metrics.RecordPostsFlattened(len(posts))
	metrics.RecordDuplicatePosts(res.DuplicatesDropped)

	threshold := q.Threshold
	if threshold <= 0 {
		threshold = s.threshold
	}
	engine := similarity.NewEngine(similarity.WithThreshold(threshold))

	var (
		buckets  []model.TimeBucket
		clusters []model.Cluster
		g        *graph.Graph
	)
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		buckets = temporal.Aggregate(posts)
	}()
	go func() {
		defer wg.Done()
		clusters, _ = engine.Cluster(posts)
	}()
	go func() {
		defer wg.Done()
		g = graph.Build(posts)
	}()
	wg.Wait()

	sum := summary.Build(posts, buckets, clusters, g)

	report := &model.Report{
		RunID:             uuid.NewString(),
		Query:             q,
		StartedAt:         start,
		FinishedAt:        time.Now().UTC(),
		DuplicatesDropped: res.DuplicatesDropped,
		Posts:             posts,
		Buckets:           buckets,
		Clusters:          clusters,
		Network:           g.Network(),
		Summary:           sum,
	}

	metrics.RecordAnalysisRun()
	metrics.RecordAnalysisLatency(float64(time.Since(start).Milliseconds()))
	metrics.UpdateAnomalousMinutes(sum.AnomalousMinutes)
	metrics.UpdateClustersFound(len(clusters))
	metrics.UpdateGraphSize(sum.NetworkNodes, sum.NetworkEdges)

	s.logger.Info(ctx, "analysis complete",
		logger.String("runID", report.RunID),
		logger.Int("posts", sum.TotalTweets),
		logger.Int("anomalousMinutes", sum.AnomalousMinutes),
		logger.Int("clusters", len(clusters)),
	)
	return report, nil
}

// RunOnce fetches a batch from the configured source and analyzes it.
// Used by the one-shot mode; the report is not stored.
func (s *Service) RunOnce(ctx context.Context, q model.Query) (*model.Report, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}

	records, err := s.source.Fetch(ctx, q)
	if err != nil {
		metrics.RecordAnalysisError()
		return nil, err
	}
	return s.Analyze(ctx, records, q)
}

// SeenAndRecord atomically checks if a submission id was seen and records
// it if not. Returns true if the id was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes a submission id from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Enqueue submits a job for asynchronous processing. Returns false when
// the queue is full or closed.
func (s *Service) Enqueue(ctx context.Context, job model.Job) bool {
	ok := s.jobQueue.Enqueue(ctx, job)
	if ok {
		metrics.UpdateQueueSize(s.jobQueue.Len(ctx))
	}
	return ok
}

// NewJob builds a queued submission for a query with a fresh id.
func (s *Service) NewJob(q model.Query) model.Job {
	if q.Threshold <= 0 {
		q.Threshold = s.threshold
	}
	return model.Job{
		ID:          uuid.NewString(),
		Query:       q,
		SubmittedAt: time.Now().UTC(),
	}
}

// GetReport returns a stored report by run id.
func (s *Service) GetReport(ctx context.Context, runID string) (*model.Report, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.reports.Get(ctx, runID)
}

// ListReports returns up to limit stored report summaries, newest first.
func (s *Service) ListReports(ctx context.Context, limit int) ([]model.ReportMeta, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.reports.List(ctx, limit)
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		storedReports := s.reports.Count(ctx)

		stats["queueLength"] = queueLen
		stats["storedReports"] = storedReports

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateReportsStored(storedReports)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
