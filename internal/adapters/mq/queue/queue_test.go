package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/codrutul/roster/internal/domain/model"
)

func frame(i int) model.Frame {
	return model.Frame{Event: model.EventStatsUpdate, Data: []byte(fmt.Sprintf("[%d]", i))}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := NewInMemoryQueue(WithCapacity(2))

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Enqueue(ctx, frame(1)) {
		t.Fatal("expected enqueue to succeed")
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	f := <-q.Dequeue(ctx)
	if string(f.Data) != "[1]" {
		t.Errorf("expected [1], got %s", f.Data)
	}
}

func TestInMemoryQueue_FullDrops(t *testing.T) {
	ctx := context.Background()
	q := NewInMemoryQueue(WithCapacity(2))

	if !q.Enqueue(ctx, frame(1)) || !q.Enqueue(ctx, frame(2)) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, frame(3)) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
	if c := q.Capacity(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := NewInMemoryQueue()

	if q.Enqueue(ctx, frame(1)) {
		t.Error("expected enqueue to fail with a cancelled context")
	}
}

func TestInMemoryQueue_Order(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := NewInMemoryQueue(WithCapacity(10))

	for i := range 5 {
		q.Enqueue(ctx, frame(i))
	}
	out := q.Dequeue(ctx)
	for i := range 5 {
		got := <-out
		if want := fmt.Sprintf("[%d]", i); string(got.Data) != want {
			t.Errorf("expected %s, got %s", want, got.Data)
		}
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	ctx := context.Background()
	q := NewInMemoryQueue(WithCapacity(10))

	q.Enqueue(ctx, frame(1))
	q.Enqueue(ctx, frame(2))

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, frame(3)) {
		t.Error("expected enqueue to fail after closing")
	}

	// queued frames are still drained before the channel closes
	out := q.Dequeue(ctx)
	drained := 0
	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				if drained != 2 {
					t.Errorf("expected 2 drained frames, got %d", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained++
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}
