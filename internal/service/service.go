// Package service ties acquisition, solving and caching together. It is the
// only place that decides when the puzzle is scraped again.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"lottawords/internal/freshness"
	"lottawords/internal/logging"
	"lottawords/internal/puzzle"
	"lottawords/internal/scraper"
	"lottawords/internal/solver"
	"lottawords/internal/store"
	"lottawords/internal/telemetry"
)

// Error payload messages.
const (
	MsgInvalidSides = "Failed to retrieve puzzle data from NYT: Invalid sides data"
	MsgNoDictionary = "Failed to retrieve dictionary from NYT website. The page structure may have changed or the site may be temporarily unavailable."
	MsgLoading      = "Data is being prepared, please try again in a moment"
)

// ErrClosed is reported by refreshes started after Close.
var ErrClosed = errors.New("service is shutting down")

// Options configures a Service.
type Options struct {
	Fetcher  scraper.Fetcher
	Store    store.Store
	Solver   solver.Options
	Rollover freshness.Rollover
	// Workers caps concurrent scrapes. Values below 1 mean 1.
	Workers int
	// Timeout bounds one refresh. Zero means no limit beyond the caller's.
	Timeout time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service serves the cached puzzle and refreshes it when stale.
type Service struct {
	fetcher  scraper.Fetcher
	store    store.Store
	solver   solver.Options
	rollover freshness.Rollover
	timeout  time.Duration
	now      func() time.Time

	group      singleflight.Group
	sem        *semaphore.Weighted
	inProgress atomic.Bool

	// base is cancelled by Close; running refreshes derive from it.
	base   context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a service.
func New(opts Options) *Service {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rollover.Location == nil {
		opts.Rollover = freshness.Default()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Service{
		base:     base,
		cancel:   cancel,
		fetcher:  opts.Fetcher,
		store:    opts.Store,
		solver:   opts.Solver,
		rollover: opts.Rollover,
		timeout:  opts.Timeout,
		now:      opts.Now,
		sem:      semaphore.NewWeighted(int64(opts.Workers)),
	}
}

// Close cancels any running refresh and waits for it to return. Refreshes
// requested afterwards fail with ErrClosed. Call it before closing the store
// or the browser the service uses.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

// InProgress reports whether a refresh is running.
func (s *Service) InProgress() bool {
	return s.inProgress.Load()
}

// Refresh scrapes and solves the puzzle and stores the result. Failures come
// back as error payloads rather than Go errors. Concurrent calls share one
// refresh.
func (s *Service) Refresh(ctx context.Context) puzzle.Data {
	ch := s.group.DoChan("refresh", func() (any, error) {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return puzzle.Failed(ErrClosed.Error()), nil
		}
		s.wg.Add(1)
		s.mu.Unlock()
		defer s.wg.Done()

		s.inProgress.Store(true)
		defer s.inProgress.Store(false)

		// The refresh outlives any single caller so late joiners still get
		// data, but not the service itself.
		rctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		stop := context.AfterFunc(s.base, cancel)
		defer stop()
		if s.timeout > 0 {
			var cancelTimeout context.CancelFunc
			rctx, cancelTimeout = context.WithTimeout(rctx, s.timeout)
			defer cancelTimeout()
		}
		return s.refresh(rctx), nil
	})

	select {
	case res := <-ch:
		return res.Val.(puzzle.Data)
	case <-ctx.Done():
		return puzzle.Failed(ctx.Err().Error())
	}
}

func (s *Service) refresh(ctx context.Context) puzzle.Data {
	log := logging.Get(logging.CategoryService)
	ctx, span := telemetry.Tracer("service").Start(ctx, "service.refresh")
	defer span.End()

	log.Info("Fetching new puzzle data...")
	data := s.build(ctx)
	if !data.OK() {
		span.SetStatus(codes.Error, data.Err())
		log.Error("refresh failed", zap.String("error", data.Err()))
		return data
	}

	entry := &puzzle.Entry{Data: data, LastUpdated: s.now().UTC()}
	if err := s.store.Set(ctx, entry); err != nil {
		// The fresh data is still served; only persistence failed.
		span.RecordError(err)
		log.Error("Error saving cache", zap.Error(err))
	} else {
		log.Info("Cache saved")
	}
	span.SetAttributes(attribute.Int("lotta.words", len(data.LottaSolution)))
	log.Info("Puzzle data updated successfully", zap.Strings("lotta_solution", data.LottaSolution))
	return data
}

func (s *Service) build(ctx context.Context) puzzle.Data {
	log := logging.Get(logging.CategoryService)

	raw, err := s.fetch(ctx)
	if err != nil && !errors.Is(err, scraper.ErrGameDataMissing) {
		return puzzle.Failed(err.Error())
	}
	if len(raw.Sides) != puzzle.SideCount {
		log.Error("Invalid or missing sides data", zap.Strings("sides", raw.Sides))
		return puzzle.Failed(MsgInvalidSides)
	}
	if len(raw.Dictionary) == 0 {
		log.Error("No dictionary received")
		return puzzle.Failed(MsgNoDictionary)
	}

	sq, err := puzzle.SquareFromSides(raw.Sides)
	if err != nil {
		return puzzle.Failed(MsgInvalidSides)
	}

	res := s.solver.Solve(sq, raw.Dictionary)
	log.Debug("solved",
		zap.Strings("words", res.Words),
		zap.Bool("complete", res.Complete),
		zap.Int("iterations", res.Iterations),
		zap.Int("playable", res.Playable))

	nyt := raw.Solution
	if nyt == nil {
		nyt = []string{}
	}
	return puzzle.Data{Square: sq, NYTSolution: nyt, LottaSolution: res.Words}
}

// fetch runs the fetcher under the worker limit.
func (s *Service) fetch(ctx context.Context) (puzzle.Raw, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return puzzle.Raw{}, err
	}
	defer s.sem.Release(1)

	ctx, span := telemetry.Tracer("service").Start(ctx, "scraper.fetch")
	defer span.End()
	raw, err := s.fetcher.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return raw, fmt.Errorf("fetch puzzle: %w", err)
	}
	span.SetAttributes(attribute.Int("dictionary.size", len(raw.Dictionary)))
	return raw, nil
}

// cached returns the stored entry when it is still current.
func (s *Service) cached(ctx context.Context) (*puzzle.Entry, bool) {
	e, err := s.store.Get(ctx)
	if err != nil {
		logging.Get(logging.CategoryService).Error("Error checking cache validity", zap.Error(err))
		return nil, false
	}
	if !s.rollover.Valid(e, s.now()) {
		return e, false
	}
	return e, true
}

// CacheValid reports whether the cache holds today's puzzle.
func (s *Service) CacheValid(ctx context.Context) bool {
	_, ok := s.cached(ctx)
	return ok
}

// Result is the answer to a puzzle request: data, or a notice that a refresh
// is underway.
type Result struct {
	Data    puzzle.Data
	Loading bool
}

// Loading is the payload sent while a refresh is running.
type Loading struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Payload returns the value to encode as the response body.
func (r Result) Payload() any {
	if r.Loading {
		return Loading{Status: "loading", Message: MsgLoading}
	}
	return r.Data
}

// Puzzle returns today's puzzle from cache, a loading notice if a refresh is
// already running, or the result of an inline refresh.
func (s *Service) Puzzle(ctx context.Context) Result {
	log := logging.Get(logging.CategoryService)
	if e, ok := s.cached(ctx); ok {
		log.Debug("Using valid cache data")
		return Result{Data: e.Data}
	}
	if s.InProgress() {
		log.Info("Scraping already in progress, returning status")
		return Result{Loading: true}
	}
	log.Info("Starting fresh data fetch")
	return Result{Data: s.Refresh(ctx)}
}

// Status is the cache and refresh state.
type Status struct {
	CacheValid         bool `json:"cache_valid"`
	ScrapingInProgress bool `json:"scraping_in_progress"`
}

// Status reports cache validity and whether a refresh is running.
func (s *Service) Status(ctx context.Context) Status {
	return Status{
		CacheValid:         s.CacheValid(ctx),
		ScrapingInProgress: s.InProgress(),
	}
}

// Warm refreshes the cache at startup unless it already holds today's puzzle.
func (s *Service) Warm(ctx context.Context) {
	if s.CacheValid(ctx) {
		logging.Get(logging.CategoryService).Info("cache already current, skipping warm-up")
		return
	}
	s.Refresh(ctx)
}
