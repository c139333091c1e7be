// Package autogen runs the per-connection auto-generation timer.
//
// A Generator is either Idle or Running. Enable moves it to Running; Disable
// or the end of the context given to Enable moves it back to Idle. Repeating
// the current state is a no-op. While
// Running, the create callback fires once per interval.
package autogen

import (
	"context"
	"sync"
	"time"

	"github.com/codrutul/roster/pkg/logger"
	"github.com/codrutul/roster/pkg/metrics"
)

// DefaultInterval is the cadence between synthesized characters.
const DefaultInterval = 5 * time.Second

// State is the generator state.
type State int

// Generator states.
const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// CreateFunc synthesizes and stores one character.
type CreateFunc func(ctx context.Context) error

// Generator owns at most one running timer.
type Generator struct {
	create   CreateFunc
	interval time.Duration
	logger   logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Generator.
type Option func(*Generator)

// WithInterval sets the tick period.
func WithInterval(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithLogger sets the generator logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New returns an Idle generator that calls create on every tick.
func New(create CreateFunc, opts ...Option) *Generator {
	g := &Generator{create: create, interval: DefaultInterval}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logger.Get().Named("autogen")
	}
	return g
}

// State returns the current state.
func (g *Generator) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		return Running
	}
	return Idle
}

// Set enables or disables the generator. It reports whether the state changed.
func (g *Generator) Set(ctx context.Context, on bool) bool {
	if on {
		return g.Enable(ctx)
	}
	return g.Disable()
}

// Enable starts the timer. The timer also stops when ctx ends.
func (g *Generator) Enable(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		return false
	}
	runCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.done = make(chan struct{})
	go g.run(runCtx, g.done)

	metrics.IncGenerators()
	g.logger.Debug(ctx, "auto-generation enabled", logger.Duration("interval", g.interval))
	return true
}

// Disable cancels the pending tick. A create already in progress still completes.
func (g *Generator) Disable() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel == nil {
		return false
	}
	g.cancel()
	g.cancel = nil

	metrics.DecGenerators()
	g.logger.Debug(context.Background(), "auto-generation disabled")
	return true
}

// Stop disables the generator and waits for its loop to exit.
func (g *Generator) Stop() {
	g.mu.Lock()
	done := g.done
	g.mu.Unlock()

	g.Disable()
	if done != nil {
		<-done
	}
}

func (g *Generator) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer g.release(done)

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// both cases can be ready at once; a cancelled run never synthesizes
			if ctx.Err() != nil {
				return
			}
			if err := g.create(context.WithoutCancel(ctx)); err != nil {
				g.logger.Error(ctx, "auto-generated create failed", logger.Error(err))
			}
		}
	}
}

// release returns the generator to Idle when the run owning done ended on
// its own context rather than through Disable.
func (g *Generator) release(done chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel == nil || g.done != done {
		return
	}
	g.cancel()
	g.cancel = nil

	metrics.DecGenerators()
	g.logger.Debug(context.Background(), "auto-generation stopped with its context")
}
