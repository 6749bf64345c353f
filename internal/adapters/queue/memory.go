// Package queue provides the at-least-once dispatch channel: an in-process
// partitioned queue and an Amazon SQS FIFO queue.
package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"eventnotifier/internal/domain"
)

// MemoryConfig tunes the in-process queue. Zero values use defaults.
type MemoryConfig struct {
	Partitions  int
	Buffer      int
	DedupWindow time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

func (c MemoryConfig) withDefaults() MemoryConfig {
	if c.Partitions < 1 {
		c.Partitions = 8
	}
	if c.Buffer < 1 {
		c.Buffer = 256
	}
	if c.DedupWindow <= 0 {
		c.DedupWindow = 5 * time.Minute
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 5
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	return c
}

// MemoryQueue is a single-process stand-in for a FIFO queue. Messages with the
// same partition key always land on the same worker, so they are handled in
// publish order and never concurrently. Publishing the same deduplication id
// again inside the window is accepted and dropped. A failed message is retried
// on its worker up to MaxAttempts times and then dropped with an error log.
type MemoryQueue struct {
	cfg        MemoryConfig
	partitions []chan domain.DispatchMessage
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	seen     map[string]time.Time
	prunedAt time.Time

	consuming sync.Once
	inflight  atomic.Int64
}

// NewMemoryQueue returns a MemoryQueue.
func NewMemoryQueue(cfg MemoryConfig, logger *slog.Logger) *MemoryQueue {
	cfg = cfg.withDefaults()
	q := &MemoryQueue{
		cfg:        cfg,
		partitions: make([]chan domain.DispatchMessage, cfg.Partitions),
		logger:     logger,
		now:        time.Now,
		seen:       make(map[string]time.Time),
	}
	for i := range q.partitions {
		q.partitions[i] = make(chan domain.DispatchMessage, cfg.Buffer)
	}
	return q
}

// Publish enqueues msg unless its deduplication id was accepted within the
// window. A publish that fails does not count toward deduplication.
func (q *MemoryQueue) Publish(ctx context.Context, msg domain.DispatchMessage) error {
	id := msg.DeduplicationID()
	if !q.reserve(id) {
		q.logger.DebugContext(ctx, "queue dropped duplicate", "dedup_id", id)
		return nil
	}
	q.inflight.Add(1)
	select {
	case q.partitions[q.partition(msg.PartitionKey())] <- msg:
		return nil
	case <-ctx.Done():
		q.inflight.Add(-1)
		q.release(id)
		return ctx.Err()
	}
}

// WaitIdle blocks until every published message has been handled or dropped.
func (q *MemoryQueue) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for q.inflight.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// reserve records id and reports whether the caller may enqueue it.
// Expired ids are swept at most once per window.
func (q *MemoryQueue) reserve(id string) bool {
	now := q.now()
	q.mu.Lock()
	defer q.mu.Unlock()
	if now.Sub(q.prunedAt) >= q.cfg.DedupWindow {
		for k, at := range q.seen {
			if now.Sub(at) >= q.cfg.DedupWindow {
				delete(q.seen, k)
			}
		}
		q.prunedAt = now
	}
	if at, ok := q.seen[id]; ok && now.Sub(at) < q.cfg.DedupWindow {
		return false
	}
	q.seen[id] = now
	return true
}

func (q *MemoryQueue) release(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.seen, id)
}

func (q *MemoryQueue) partition(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(q.partitions)))
}

// Consume runs one worker per partition until ctx is done. It may be called once.
func (q *MemoryQueue) Consume(ctx context.Context, handle domain.MessageHandler) error {
	started := false
	q.consuming.Do(func() { started = true })
	if !started {
		return errors.New("memory queue is already being consumed")
	}
	var wg sync.WaitGroup
	for _, ch := range q.partitions {
		wg.Add(1)
		go func(ch <-chan domain.DispatchMessage) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-ch:
					q.deliver(ctx, msg, handle)
				}
			}
		}(ch)
	}
	wg.Wait()
	return nil
}

func (q *MemoryQueue) deliver(ctx context.Context, msg domain.DispatchMessage, handle domain.MessageHandler) {
	defer q.inflight.Add(-1)
	for attempt := 1; ; attempt++ {
		err := handle(ctx, msg)
		if err == nil {
			return
		}
		if attempt >= q.cfg.MaxAttempts || ctx.Err() != nil {
			q.logger.ErrorContext(ctx, "dropping message after failed attempts",
				"user_id", msg.UserID,
				"message_key", msg.MessageKey(),
				"attempts", attempt,
				"err", err,
			)
			return
		}
		q.logger.WarnContext(ctx, "message handling failed, retrying",
			"user_id", msg.UserID,
			"message_key", msg.MessageKey(),
			"attempt", attempt,
			"err", err,
		)
		select {
		case <-ctx.Done():
		case <-time.After(q.cfg.RetryDelay):
		}
	}
}
