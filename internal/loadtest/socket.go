package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/codrutul/roster/internal/domain/model"
)

// ErrStale is returned when the socket never delivered the expected stats.
var ErrStale = errors.New("socket stats did not converge")

// Watcher keeps the most recent statsUpdate received on a socket.
type Watcher struct {
	conn *websocket.Conn

	mu      sync.Mutex
	latest  []model.ClassSummary
	frames  int
	changed chan struct{}
	err     error
	done    chan struct{}
}

// Watch dials the service socket and starts reading frames.
func Watch(baseURL, origin string) (*Watcher, error) {
	wsURL, err := socketURL(baseURL)
	if err != nil {
		return nil, err
	}
	if origin == "" {
		origin = baseURL
	}
	conn, err := websocket.Dial(wsURL, "", origin)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	w := &Watcher{conn: conn, changed: make(chan struct{}), done: make(chan struct{})}
	go w.read()
	return w, nil
}

func socketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

func (w *Watcher) read() {
	defer close(w.done)
	for {
		var f model.Frame
		if err := websocket.JSON.Receive(w.conn, &f); err != nil {
			w.mu.Lock()
			w.err = err
			w.mu.Unlock()
			return
		}
		if f.Event != model.EventStatsUpdate {
			continue
		}
		var summaries []model.ClassSummary
		if err := json.Unmarshal(f.Data, &summaries); err != nil {
			continue
		}
		w.mu.Lock()
		w.latest = summaries
		w.frames++
		close(w.changed)
		w.changed = make(chan struct{})
		w.mu.Unlock()
	}
}

// Latest returns the last snapshot and the number of snapshots received.
func (w *Watcher) Latest() ([]model.ClassSummary, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.latest), w.frames
}

// WaitFor blocks until the latest snapshot equals want or settle elapses.
func (w *Watcher) WaitFor(ctx context.Context, want []model.ClassSummary, settle time.Duration) error {
	timer := time.NewTimer(settle)
	defer timer.Stop()
	for {
		w.mu.Lock()
		latest, changed, readErr := w.latest, w.changed, w.err
		w.mu.Unlock()

		if slices.Equal(latest, want) {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("%w: socket closed: %w", ErrStale, readErr)
		}
		select {
		case <-changed:
		case <-timer.C:
			return fmt.Errorf("%w: have %v, want %v", ErrStale, latest, want)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close closes the socket and waits for the reader.
func (w *Watcher) Close() error {
	err := w.conn.Close()
	<-w.done
	return err
}
