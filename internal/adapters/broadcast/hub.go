// Package broadcast fans frames out to every connected subscriber.
package broadcast

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/codrutul/roster/internal/adapters/mq/queue"
	"github.com/codrutul/roster/internal/domain/model"
	"github.com/codrutul/roster/pkg/logger"
	"github.com/codrutul/roster/pkg/metrics"
)

const defaultQueueCapacity = 64

// PublishResult reports how many subscribers accepted or dropped a frame.
type PublishResult struct {
	Delivered int
	Dropped   int
}

// Subscriber is one registered sink. Frames arrive on its queue.
type Subscriber struct {
	id    uint64
	queue *queue.InMemoryQueue
}

// ID returns the hub-local subscriber identifier.
func (s *Subscriber) ID() uint64 { return s.id }

// Queue returns the subscriber's frame queue.
func (s *Subscriber) Queue() *queue.InMemoryQueue { return s.queue }

// Hub keeps the list of registered subscribers. It is safe for concurrent use.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint64]*Subscriber
	nextID      atomic.Uint64

	queueCapacity int
	logger        logger.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithQueueCapacity bounds each subscriber's queue.
func WithQueueCapacity(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.queueCapacity = n
		}
	}
}

// WithLogger sets the hub logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subscribers:   make(map[uint64]*Subscriber),
		queueCapacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("broadcast")
	}
	return h
}

// Subscribe registers a new sink.
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{
		id:    h.nextID.Add(1),
		queue: queue.NewInMemoryQueue(queue.WithCapacity(h.queueCapacity)),
	}
	h.mu.Lock()
	h.subscribers[s.id] = s
	n := len(h.subscribers)
	h.mu.Unlock()

	metrics.UpdateSubscribers(n)
	return s
}

// Unsubscribe removes s and closes its queue. Unknown subscribers are ignored.
func (h *Hub) Unsubscribe(s *Subscriber) {
	if s == nil {
		return
	}
	h.mu.Lock()
	_, ok := h.subscribers[s.id]
	delete(h.subscribers, s.id)
	n := len(h.subscribers)
	h.mu.Unlock()

	if ok {
		_ = s.queue.Close()
		metrics.UpdateSubscribers(n)
	}
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Publish offers f to every subscriber without blocking.
// A subscriber whose queue is full misses the frame.
func (h *Hub) Publish(ctx context.Context, f model.Frame) PublishResult {
	h.mu.RLock()
	targets := make([]*Subscriber, 0, len(h.subscribers))
	for _, s := range h.subscribers {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	var res PublishResult
	for _, s := range targets {
		if s.queue.Enqueue(ctx, f) {
			res.Delivered++
			continue
		}
		res.Dropped++
		h.logger.Debug(ctx, "frame dropped", logger.String("event", f.Event), logger.Any("subscriber", s.id))
	}

	metrics.RecordBroadcast(f.Event)
	metrics.RecordFrames(res.Delivered, res.Dropped)
	return res
}

// Send offers f to a single subscriber.
func (h *Hub) Send(ctx context.Context, s *Subscriber, f model.Frame) bool {
	ok := s.queue.Enqueue(ctx, f)
	if ok {
		metrics.RecordFrames(1, 0)
	} else {
		metrics.RecordFrames(0, 1)
	}
	return ok
}

// Close unsubscribes everyone.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[uint64]*Subscriber)
	h.mu.Unlock()

	for _, s := range subs {
		_ = s.queue.Close()
	}
	metrics.UpdateSubscribers(0)
}
