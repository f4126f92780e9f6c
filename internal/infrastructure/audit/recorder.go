package audit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/lattice-saas/lattice/internal/domain/access"
	sharedconfig "github.com/lattice-saas/lattice/internal/shared/config"
	"github.com/lattice-saas/lattice/internal/shared/goroutine"
	"github.com/lattice-saas/lattice/internal/shared/logger"
)

const (
	defaultBufferSize    = 1024
	defaultBatchSize     = 100
	defaultFlushInterval = time.Second
	flushTimeout         = 5 * time.Second
)

// sink abstracts the persistence behind the recorder so the worker can be
// tested without a database.
type sink interface {
	Write(ctx context.Context, logs []AccessLog) error
}

type gormSink struct {
	db *gorm.DB
}

func (s *gormSink) Write(ctx context.Context, logs []AccessLog) error {
	if err := s.db.WithContext(ctx).Create(&logs).Error; err != nil {
		return fmt.Errorf("failed to insert access logs: %w", err)
	}
	return nil
}

// Recorder persists permission-check outcomes asynchronously. Record never
// blocks: entries are queued on a bounded channel and dropped (counted)
// when the queue is full. Write failures are logged locally and never
// reach the caller of a permission check.
type Recorder struct {
	sink          sink
	logger        logger.Interface
	entries       chan access.Entry
	quit          chan struct{}
	done          chan struct{}
	dropped       atomic.Uint64
	batchSize     int
	flushInterval time.Duration
}

var _ access.Recorder = (*Recorder)(nil)

func NewRecorder(db *gorm.DB, cfg *sharedconfig.AuditConfig, log logger.Interface) *Recorder {
	return newRecorder(&gormSink{db: db}, cfg, log)
}

func newRecorder(s sink, cfg *sharedconfig.AuditConfig, log logger.Interface) *Recorder {
	bufferSize := defaultBufferSize
	batchSize := defaultBatchSize
	flushInterval := defaultFlushInterval
	if cfg != nil {
		if cfg.BufferSize > 0 {
			bufferSize = cfg.BufferSize
		}
		if cfg.BatchSize > 0 {
			batchSize = cfg.BatchSize
		}
		if cfg.FlushIntervalMS > 0 {
			flushInterval = time.Duration(cfg.FlushIntervalMS) * time.Millisecond
		}
	}
	return &Recorder{
		sink:          s,
		logger:        log.Named("audit"),
		entries:       make(chan access.Entry, bufferSize),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

// Start launches the background writer.
func (r *Recorder) Start() {
	goroutine.SafeGo(r.logger, "audit-recorder", r.run)
}

// Record queues one entry. Non-blocking: a full queue drops the entry.
func (r *Recorder) Record(entry access.Entry) {
	select {
	case r.entries <- entry:
	default:
		if n := r.dropped.Add(1); n%100 == 1 {
			r.logger.Warnw("audit queue full, dropping entries", "dropped_total", n)
		}
	}
}

// Dropped reports how many entries were discarded because the queue was
// full.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Stop flushes queued entries and stops the writer. Entries recorded after
// Stop are dropped.
func (r *Recorder) Stop(ctx context.Context) error {
	close(r.quit)
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	batch := make([]AccessLog, 0, r.batchSize)
	for {
		select {
		case entry := <-r.entries:
			batch = append(batch, toModel(entry))
			if len(batch) >= r.batchSize {
				batch = r.flush(batch)
			}
		case <-ticker.C:
			batch = r.flush(batch)
		case <-r.quit:
			batch = r.drain(batch)
			r.flush(batch)
			return
		}
	}
}

// drain empties whatever is still queued at shutdown.
func (r *Recorder) drain(batch []AccessLog) []AccessLog {
	for {
		select {
		case entry := <-r.entries:
			batch = append(batch, toModel(entry))
			if len(batch) >= r.batchSize {
				batch = r.flush(batch)
			}
		default:
			return batch
		}
	}
}

func (r *Recorder) flush(batch []AccessLog) []AccessLog {
	if len(batch) == 0 {
		return batch
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := r.sink.Write(ctx, batch); err != nil {
		r.logger.Errorw("failed to persist audit batch", "error", err, "entries", len(batch))
	}
	return batch[:0]
}
