package snapshot

import (
	"context"
	"sync"
	"time"
)

const minInterval = time.Second

// Source renders the registry to wire text.
type Source func() (string, error)

// Logger defines the logging interface used by the scheduler.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Scheduler saves a snapshot of one node every interval and prunes those
// older than the retention.
type Scheduler struct {
	repo      *Repository
	node      string
	source    Source
	interval  time.Duration
	retention time.Duration
	logger    Logger

	done chan struct{}
	wg   sync.WaitGroup
	stop sync.Once
}

// NewScheduler creates a scheduler. A retention of zero keeps everything.
// Intervals below one second are raised to one second.
func NewScheduler(repo *Repository, node string, source Source, interval, retention time.Duration) *Scheduler {
	if interval < minInterval {
		interval = minInterval
	}
	return &Scheduler{
		repo:      repo,
		node:      node,
		source:    source,
		interval:  interval,
		retention: retention,
		logger:    noopLogger{},
		done:      make(chan struct{}),
	}
}

// SetLogger sets the logger for the scheduler.
func (s *Scheduler) SetLogger(logger Logger) {
	s.logger = logger
}

// Start begins the save loop. It stops when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop ends the loop, waits for it and takes a final snapshot.
func (s *Scheduler) Stop(ctx context.Context) {
	s.stop.Do(func() {
		close(s.done)
		s.wg.Wait()
		if err := s.SaveNow(ctx); err != nil {
			s.logger.Warn("final snapshot failed", "error", err)
		}
	})
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.SaveNow(ctx); err != nil {
				s.logger.Error("snapshot failed", "error", err)
			}
		}
	}
}

// SaveNow takes one snapshot and applies the retention.
func (s *Scheduler) SaveNow(ctx context.Context) error {
	text, err := s.source()
	if err != nil {
		return err
	}
	snap, saved, err := s.repo.Save(ctx, s.node, text)
	if err != nil {
		return err
	}
	if saved {
		s.logger.Info("snapshot saved", "id", snap.ID, "entries", snap.Entries, "bytes", snap.RawSize)
	}

	if s.retention > 0 {
		n, err := s.repo.Prune(ctx, time.Now().Add(-s.retention))
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Info("snapshots pruned", "count", n)
		}
	}
	return nil
}
