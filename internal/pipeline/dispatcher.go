package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"vehicleids/internal/logger"
	"vehicleids/pkg/models"
)

// Config controls dispatcher buffering.
type Config struct {
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
}

// Dispatcher fans snapshots out to writers off the tick path.
// Delivery is best effort: a full queue drops the snapshot and a failed
// write discards the batch for that writer. Nothing is retried.
type Dispatcher struct {
	cfg     Config
	writers []NamedWriter
	hooks   Hooks
	queue   chan *models.Snapshot

	mu     sync.RWMutex
	closed bool

	dropped atomic.Uint64
	failed  atomic.Uint64
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher and starts its write loop. hooks may be nil.
func NewDispatcher(cfg Config, writers []NamedWriter, hooks Hooks) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}

	d := &Dispatcher{
		cfg:     cfg,
		writers: writers,
		hooks:   hooks,
		queue:   make(chan *models.Snapshot, cfg.QueueSize),
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.writeLoop()
	}()
	logger.Infof("Snapshot dispatcher started: writers=%d queue=%d batch=%d flush=%s",
		len(writers), cfg.QueueSize, cfg.BatchSize, cfg.FlushInterval)
	return d
}

// Publish enqueues snap without blocking. It is dropped when the queue is full or closed.
func (d *Dispatcher) Publish(snap *models.Snapshot) {
	if snap == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop()
		return
	}
	select {
	case d.queue <- snap:
	default:
		d.drop()
	}
}

// Dropped returns the number of snapshots dropped at enqueue.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Failed returns the number of failed writer deliveries.
func (d *Dispatcher) Failed() uint64 {
	return d.failed.Load()
}

// Close drains the queue, flushes once and closes every writer.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()

	var errs []error
	for _, w := range d.writers {
		if err := w.Writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s writer: %w", w.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) drop() {
	d.dropped.Add(1)
	if d.hooks != nil {
		d.hooks.SnapshotDropped()
	}
}

func (d *Dispatcher) writeLoop() {
	ticker := time.NewTicker(d.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]*models.Snapshot, 0, d.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		for _, w := range d.writers {
			if err := w.Writer.WriteSnapshots(batch); err != nil {
				d.failed.Add(1)
				logger.Warnf("Snapshot writer %s failed, dropping %d snapshots: %v", w.Name, len(batch), err)
				if d.hooks != nil {
					d.hooks.SinkWriteFailed(w.Name)
				}
			}
		}
		batch = make([]*models.Snapshot, 0, d.cfg.BatchSize)
	}

	for {
		select {
		case <-ticker.C:
			flush()
		case snap, ok := <-d.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, snap)
			if len(batch) >= d.cfg.BatchSize {
				flush()
			}
		}
	}
}
