package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSyncer struct {
	SyncAllFunc func(ctx context.Context) error
}

func (m *mockSyncer) SyncAll(ctx context.Context) error {
	return m.SyncAllFunc(ctx)
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New("every now and then", &mockSyncer{}, time.Second, testLogger())

	assert.ErrorContains(t, err, "invalid resync schedule")
}

func TestScheduler_RunsSyncAll(t *testing.T) {
	var calls atomic.Int32
	syncer := &mockSyncer{SyncAllFunc: func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		calls.Add(1)
		return nil
	}}

	s, err := New("@every 1s", syncer, time.Second, testLogger())
	require.NoError(t, err)
	s.Start()
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestScheduler_RunKeepsGoingOnError(t *testing.T) {
	var calls int
	syncer := &mockSyncer{SyncAllFunc: func(ctx context.Context) error {
		calls++
		return errors.New("db down")
	}}

	s, err := New("@every 1h", syncer, time.Second, testLogger())
	require.NoError(t, err)

	s.run()
	s.run()

	assert.Equal(t, 2, calls)
}
