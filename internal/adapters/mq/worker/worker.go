// Package worker drains a subscriber's frame queue onto its socket.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/codrutul/roster/internal/adapters/mq/queue"
	"github.com/codrutul/roster/pkg/logger"
)

const defaultWriteTimeout = 5 * time.Second

// Frame abstracts what workers read off the queue.
type Frame = queue.Frame

// Queue defines how workers receive frames.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Frame
}

// Sink writes one frame to a client.
type Sink interface {
	WriteFrame(ctx context.Context, f Frame) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, f Frame) error

// WriteFrame calls fn.
func (fn SinkFunc) WriteFrame(ctx context.Context, f Frame) error { return fn(ctx, f) }

// Worker delivers queued frames until its queue closes, its context ends or a write fails.
type Worker interface {
	// Run starts the delivery loop. It returns nil when the queue closes or ctx ends.
	Run(ctx context.Context) error

	// Shutdown stops the worker and waits for the loop to exit.
	Shutdown(ctx context.Context) error
}

// FrameWriter implements Worker for one subscriber.
type FrameWriter struct {
	queue        Queue
	sink         Sink
	name         string
	writeTimeout time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewFrameWriter creates a worker that moves frames from q to sink.
func NewFrameWriter(q Queue, sink Sink, opts ...Option) *FrameWriter {
	w := &FrameWriter{
		queue:        q,
		sink:         sink,
		name:         "frame-writer",
		writeTimeout: defaultWriteTimeout,
		shutdown:     make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the delivery loop.
func (w *FrameWriter) Run(ctx context.Context) error {
	defer close(w.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.shutdown:
			return nil
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			if err := w.write(ctx, f); err != nil {
				w.logger.Debug(ctx, "frame write failed", logger.String("event", f.Event), logger.Error(err))
				return fmt.Errorf("write %s frame: %w", f.Event, err)
			}
		}
	}
}

func (w *FrameWriter) write(ctx context.Context, f Frame) error {
	wctx, cancel := context.WithTimeout(ctx, w.writeTimeout)
	defer cancel()
	return w.sink.WriteFrame(wctx, f)
}

// Shutdown signals the loop to stop and waits for it or for ctx.
func (w *FrameWriter) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *FrameWriter) Done() <-chan struct{} { return w.done }

