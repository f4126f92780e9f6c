package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-saas/lattice/internal/domain/access"
	sharedconfig "github.com/lattice-saas/lattice/internal/shared/config"
	"github.com/lattice-saas/lattice/internal/shared/logger"
)

type fakeSink struct {
	mu      sync.Mutex
	batches [][]AccessLog
	err     error
}

func (s *fakeSink) Write(ctx context.Context, logs []AccessLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	batch := make([]AccessLog, len(logs))
	copy(batch, logs)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *fakeSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func (s *fakeSink) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func testEntry(userID string) access.Entry {
	return access.Entry{
		UserID:       userID,
		TenantID:     "t1",
		ResourceType: "documents",
		Action:       access.ActionView,
		Allowed:      true,
		Source:       access.SourceOracle,
		CheckedAt:    time.Now().UTC(),
	}
}

func TestRecorderFlushesOnBatchSize(t *testing.T) {
	sink := &fakeSink{}
	r := newRecorder(sink, &sharedconfig.AuditConfig{
		BufferSize:      64,
		BatchSize:       3,
		FlushIntervalMS: 60_000,
	}, logger.NewNop())
	r.Start()

	for i := 0; i < 3; i++ {
		r.Record(testEntry("u1"))
	}

	assert.Eventually(t, func() bool { return sink.total() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, sink.batchCount(), "a full batch is written in one insert")

	require.NoError(t, r.Stop(context.Background()))
}

func TestRecorderFlushesOnInterval(t *testing.T) {
	sink := &fakeSink{}
	r := newRecorder(sink, &sharedconfig.AuditConfig{
		BufferSize:      64,
		BatchSize:       100,
		FlushIntervalMS: 20,
	}, logger.NewNop())
	r.Start()

	r.Record(testEntry("u1"))

	assert.Eventually(t, func() bool { return sink.total() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, r.Stop(context.Background()))
}

func TestRecorderStopDrainsQueue(t *testing.T) {
	sink := &fakeSink{}
	r := newRecorder(sink, &sharedconfig.AuditConfig{
		BufferSize:      64,
		BatchSize:       100,
		FlushIntervalMS: 60_000,
	}, logger.NewNop())
	r.Start()

	for i := 0; i < 10; i++ {
		r.Record(testEntry("u1"))
	}

	require.NoError(t, r.Stop(context.Background()))
	assert.Equal(t, 10, sink.total(), "entries queued before Stop must be persisted")
}

func TestRecorderDropsWhenQueueFull(t *testing.T) {
	sink := &fakeSink{}
	// No Start: nothing consumes the queue, so it fills up.
	r := newRecorder(sink, &sharedconfig.AuditConfig{
		BufferSize:      2,
		BatchSize:       100,
		FlushIntervalMS: 60_000,
	}, logger.NewNop())

	for i := 0; i < 5; i++ {
		r.Record(testEntry("u1"))
	}

	assert.Equal(t, uint64(3), r.Dropped())
	assert.Zero(t, sink.total())
}

func TestRecorderSurvivesSinkFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("connection refused")}
	r := newRecorder(sink, &sharedconfig.AuditConfig{
		BufferSize:      64,
		BatchSize:       2,
		FlushIntervalMS: 20,
	}, logger.NewNop())
	r.Start()

	r.Record(testEntry("u1"))
	r.Record(testEntry("u1"))
	time.Sleep(50 * time.Millisecond)

	// The worker keeps running and later writes succeed.
	sink.mu.Lock()
	sink.err = nil
	sink.mu.Unlock()

	r.Record(testEntry("u2"))
	r.Record(testEntry("u2"))
	assert.Eventually(t, func() bool { return sink.total() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, r.Stop(context.Background()))
}

func TestToModel(t *testing.T) {
	e := access.Entry{
		UserID:       "u1",
		TenantID:     "t1",
		ResourceType: "documents",
		Action:       access.ActionDelete,
		ResourceID:   "d1",
		Allowed:      false,
		Source:       access.SourceCache,
		CheckedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Metadata:     map[string]string{"error": "timeout"},
	}

	m := toModel(e)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "u1", m.UserID)
	assert.Equal(t, "t1", m.TenantID)
	assert.Equal(t, "documents", m.ResourceType)
	assert.Equal(t, "delete", m.Action)
	assert.Equal(t, "d1", m.ResourceID)
	assert.False(t, m.Allowed)
	assert.Equal(t, "cache", m.Source)
	assert.Equal(t, e.CheckedAt, m.CheckedAt)
	assert.Equal(t, "timeout", m.Metadata["error"])

	// Two entries never share an id.
	assert.NotEqual(t, m.ID, toModel(e).ID)
}
