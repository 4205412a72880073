// Package worker runs background jobs next to the HTTP server.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

// Releaser expires overdue pending bookings and reports how many it moved.
type Releaser interface {
	ReleaseExpired(ctx context.Context) (int, error)
}

// Sweeper calls a Releaser on a fixed interval until stopped or until its
// context is cancelled.
type Sweeper struct {
	rel      Releaser
	interval time.Duration
	log      logrus.FieldLogger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	totalExpired int64
	lastRun      time.Time
}

func NewSweeper(rel Releaser, interval time.Duration, log logrus.FieldLogger) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{rel: rel, interval: interval, log: log}
}

// Start launches the sweep loop.  The first pass runs immediately.  A
// stopped sweeper can be started again.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("sweeper already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.log.WithField("interval", s.interval.String()).Info("sweeper started")

	s.wg.Add(1)
	go s.loop(ctx, s.stopCh)
	return nil
}

// Stop ends the loop and waits for an in-flight pass to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("sweeper stopped")
}

// Run starts the sweeper and blocks until ctx is done.  It fits an
// errgroup next to the HTTP server.
func (s *Sweeper) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Sweeper) loop(ctx context.Context, stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.rel.ReleaseExpired(ctx)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.totalExpired += int64(n)
	s.mu.Unlock()

	switch {
	case err != nil && ctx.Err() != nil:
		// shutting down
	case err != nil:
		s.log.WithError(err).WithField("expired", n).Error("sweep failed")
	case n > 0:
		s.log.WithField("expired", n).Info("expired bookings released")
	}
}

// Stats reports the number of bookings expired so far and the time of the
// last pass.
func (s *Sweeper) Stats() (total int64, lastRun time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalExpired, s.lastRun
}
