// Package telemetry batches per-burst statistics into ClickHouse so long
// training sessions can be analyzed offline. The sink buffers rows in
// memory and flushes them on a ticker; it must never block or fail the
// burst loop.
package telemetry

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	// ClickHouse driver for database/sql.
	_ "github.com/ClickHouse/clickhouse-go"
)

const insertBurstSQL = `INSERT INTO controller_bursts (recorded_at, burst, direction, device_count, latency_ms) VALUES (?, ?, ?, ?, ?)`

// Row is one burst observation.
type Row struct {
	RecordedAt  time.Time
	Burst       uint64
	Direction   string
	DeviceCount int
	Latency     time.Duration
}

func (r Row) args() []any {
	return []any{
		r.RecordedAt,
		r.Burst,
		r.Direction,
		r.DeviceCount,
		float64(r.Latency) / float64(time.Millisecond),
	}
}

// Sink buffers rows and publishes them in transactions.
type Sink struct {
	logger *slog.Logger
	db     *sql.DB

	mu   sync.Mutex
	rows []Row

	stopSig  chan bool
	shutdown int32
}

// Open connects the sink to ClickHouse.
func Open(dsn string, logger *slog.Logger) (*Sink, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry connection: %w", err)
	}
	return NewSink(db, logger), nil
}

// NewSink wraps an existing connection; used by tests.
func NewSink(db *sql.DB, logger *slog.Logger) *Sink {
	return &Sink{
		logger:  logger.With("component", "telemetry"),
		db:      db,
		stopSig: make(chan bool),
	}
}

// Record buffers one row. Rows arriving after shutdown are dropped.
func (s *Sink) Record(row Row) {
	if atomic.LoadInt32(&s.shutdown) != 0 {
		return
	}
	s.mu.Lock()
	s.rows = append(s.rows, row)
	s.mu.Unlock()
}

// RunPusher starts the flush loop. Each tick ejects up to limit buffered
// rows and publishes them in one transaction; failed batches go back to
// the front of the buffer.
func (s *Sink) RunPusher(period time.Duration, limit int) {
	if period < time.Millisecond {
		period = time.Second
	}
	if limit < 1 {
		limit = 100
	}

	t := time.NewTicker(period)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-t.C:
				batch := s.eject(limit)
				if len(batch) == 0 {
					continue
				}
				if err := s.publish(batch); err != nil {
					s.logger.Warn("Telemetry publication failed, re-buffering batch.",
						"error", err, "rows", len(batch))
					s.requeue(batch)
				}
			case sendTail := <-s.stopSig:
				if sendTail {
					tail := s.eject(-1)
					if len(tail) > 0 {
						if err := s.publish(tail); err != nil {
							s.logger.Error("Telemetry tail lost.",
								"error", err, "lost", len(tail))
						}
					}
				}
				close(s.stopSig)
				return
			}
		}
	}()
}

// Stop shuts the sink down. With sendTail set, buffered rows are flushed
// first; otherwise they are discarded.
func (s *Sink) Stop(sendTail bool) {
	if !atomic.CompareAndSwapInt32(&s.shutdown, 0, 1) {
		return
	}
	s.stopSig <- sendTail
	<-s.stopSig
	if err := s.db.Close(); err != nil {
		s.logger.Warn("Failed to close telemetry connection.", "error", err)
	}
}

func (s *Sink) eject(limit int) []Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit < 0 || limit > len(s.rows) {
		limit = len(s.rows)
	}
	if limit == 0 {
		return nil
	}
	batch := s.rows[:limit]
	s.rows = append([]Row(nil), s.rows[limit:]...)
	return batch
}

func (s *Sink) requeue(batch []Row) {
	s.mu.Lock()
	s.rows = append(batch, s.rows...)
	s.mu.Unlock()
}

func (s *Sink) publish(batch []Row) error {
	panicked := true
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		// Make sure to rollback when panic, Block error or Commit error
		if panicked || err != nil {
			if err := tx.Rollback(); err != nil {
				s.logger.Warn("Telemetry rollback failed.", "error", err)
			}
		}
	}()

	err = func() error {
		stmt, err := tx.Prepare(insertBurstSQL)
		if err != nil {
			return err
		}

		for _, row := range batch {
			if _, err := stmt.Exec(row.args()...); err != nil {
				return err
			}
		}

		return stmt.Close()
	}()

	if err == nil {
		err = tx.Commit()
	}

	panicked = false
	return err
}
