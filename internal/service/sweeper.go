package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"auctionhouse-api/internal/metrics"
	"auctionhouse-api/internal/model"
	"auctionhouse-api/internal/repository"
	"auctionhouse-api/pkg/logging"
)

// SweeperConfig holds configuration for the auction sweeper.
type SweeperConfig struct {
	// Interval is how often expired auctions are looked for.
	// Default: 15 seconds
	Interval time.Duration

	// BatchSize bounds how many auctions one query returns.
	// Default: 100
	BatchSize int
}

// DefaultSweeperConfig returns default sweeper configuration.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Interval:  15 * time.Second,
		BatchSize: 100,
	}
}

// Sweeper ends live auctions whose end time has passed and records their
// winners. Finalization is conditional in the store, so any number of
// sweepers can run against the same database.
type Sweeper struct {
	repo    repository.AuctionRepository
	config  SweeperConfig
	events  emitter
	metrics *metrics.Metrics
	now     func() time.Time
	log     *slog.Logger

	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewSweeper creates a sweeper.
func NewSweeper(repo repository.AuctionRepository, config SweeperConfig, opts Options) *Sweeper {
	opts = opts.withDefaults()
	def := DefaultSweeperConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	return &Sweeper{
		repo:    repo,
		config:  config,
		events:  newEmitter(opts, "sweeper"),
		metrics: opts.Metrics,
		now:     opts.Clock,
		log:     logging.Component("sweeper"),
		stopCh:  make(chan struct{}),
	}
}

// Start begins sweeping in the background. The first sweep runs immediately
// so auctions that expired while the service was down end promptly.
func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	s.log.Info("started", "interval", s.config.Interval, "batch", s.config.BatchSize)
	go s.run()
}

func (s *Sweeper) run() {
	s.sweep()
	for {
		select {
		case <-s.ticker.C:
			s.sweep()
		case <-s.stopCh:
			s.log.Info("stopped")
			return
		}
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Interval*4)
	defer cancel()

	n, err := s.RunOnce(ctx)
	if err != nil {
		s.log.Error("sweep failed", "error", err, "finalized", n)
		return
	}
	if n > 0 {
		s.log.Info("finalized expired auctions", "count", n)
	}
}

// RunOnce finalizes every auction that has expired as of now and returns how
// many this call ended. Auctions another worker ended first are skipped.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	now := s.now()
	finalized := 0
	var errs []error

	// Each pass removes what it finalized from the expired set, so the loop
	// ends once a batch comes back short or makes no progress.
	for {
		ids, err := s.repo.ListExpired(ctx, now, s.config.BatchSize)
		if err != nil {
			return finalized, err
		}

		progress := 0
		for _, id := range ids {
			a, done, err := s.repo.Finalize(ctx, id, now)
			if err != nil {
				s.metrics.Finalized.WithLabelValues(metrics.ResultError).Inc()
				s.log.Warn("failed to finalize auction", "auction", id, "error", err)
				errs = append(errs, err)
				continue
			}
			if !done {
				s.metrics.Finalized.WithLabelValues(metrics.ResultNoop).Inc()
				continue
			}
			progress++
			finalized++
			s.metrics.Finalized.WithLabelValues(outcomeOf(a)).Inc()
			s.events.emit(ctx, model.EventAuctionEnded, a, nil, now)
		}

		if len(ids) < s.config.BatchSize || progress == 0 {
			return finalized, errors.Join(errs...)
		}
	}
}

func outcomeOf(a *model.Auction) string {
	if a.WinnerID != "" {
		return "sold"
	}
	return "unsold"
}

// Stop stops the sweeper.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}
