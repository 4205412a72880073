package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReleaser struct {
	calls atomic.Int32
	err   error
}

func (r *countingReleaser) ReleaseExpired(context.Context) (int, error) {
	r.calls.Add(1)
	return 2, r.err
}

func TestSweeperRunsImmediatelyAndOnTick(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	rel := &countingReleaser{}
	s := NewSweeper(rel, 10*time.Millisecond, log)

	require.NoError(t, s.Start(context.Background()))
	require.Error(t, s.Start(context.Background()), "second start is rejected")

	require.Eventually(t, func() bool { return rel.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	after := rel.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, rel.calls.Load(), "no passes after Stop")

	total, last := s.Stats()
	assert.Equal(t, int64(after)*2, total)
	assert.False(t, last.IsZero())
}

func TestSweeperStopsOnContextCancel(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	rel := &countingReleaser{err: errors.New("db down")}
	s := NewSweeper(rel, time.Hour, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "sweep failed" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, int32(1), rel.calls.Load())
}

func TestSweeperRestartsAfterStop(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	rel := &countingReleaser{}
	s := NewSweeper(rel, 10*time.Millisecond, log)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return rel.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	s.Stop()

	stopped := rel.calls.Load()
	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return rel.calls.Load() >= stopped+3 }, time.Second, 5*time.Millisecond,
		"ticks keep coming after a restart")

	assert.NotPanics(t, func() {
		s.Stop()
		s.Stop()
	})
	after := rel.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, rel.calls.Load())
}
