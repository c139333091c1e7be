package loadtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codrutul/roster/internal/domain/generator"
	"github.com/codrutul/roster/internal/domain/model"
	"github.com/codrutul/roster/internal/domain/stats"
	"github.com/codrutul/roster/pkg/logger"
)

const defaultSettle = 5 * time.Second

// ErrMismatch reports a roster or statistics inconsistency.
var ErrMismatch = errors.New("roster mismatch")

// Run executes the complete load run.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	log := logger.Get().Named("loadtest")
	st := &Stats{StartTime: time.Now()}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.Settle <= 0 {
		config.Settle = defaultSettle
	}

	log.Info(ctx, "starting roster load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("characters", config.Characters),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("cleanup", config.Cleanup))

	client := NewClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := client.Healthy(ctx); err != nil {
		return st, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Attach a socket before mutating so every snapshot is observed
	watcher, err := Watch(config.BaseURL, config.Origin)
	if err != nil {
		return st, fmt.Errorf("socket connect failed: %w", err)
	}
	defer watcher.Close()

	baseline, err := client.List(ctx)
	if err != nil {
		return st, fmt.Errorf("baseline list failed: %w", err)
	}
	st.Baseline = len(baseline)

	// Step 3: Create characters concurrently
	synth := newSynthesizer(config.Seed)
	created, err := createAll(ctx, log, client, synth, config, st)
	if err != nil {
		return st, err
	}

	// Step 4: Verify the roster and the pushed statistics
	if err := verify(ctx, client, watcher, st.Baseline+len(created), config.Settle, st); err != nil {
		return st, err
	}
	log.Info(ctx, "roster and socket statistics agree",
		logger.Int("characters", st.FinalRoster),
		logger.Int("classes", st.FinalClasses))

	// Step 5: Remove what this run created
	if config.Cleanup {
		deleteAll(ctx, log, client, created, config, st)
		if err := verify(ctx, client, watcher, st.Baseline+len(created)-st.Deleted, config.Settle, st); err != nil {
			return st, fmt.Errorf("after cleanup: %w", err)
		}
	}

	_, st.FramesSeen = watcher.Latest()
	st.EndTime = time.Now()
	st.Duration = st.EndTime.Sub(st.StartTime)
	displayFinalStats(ctx, log, st)
	return st, nil
}

func newSynthesizer(seed uint64) *generator.Synthesizer {
	if seed == 0 {
		return generator.New()
	}
	return generator.New(generator.WithSeed(seed))
}

func createAll(ctx context.Context, log logger.Logger, client *Client, synth *generator.Synthesizer, config *Config, st *Stats) ([]model.Character, error) {
	var (
		mu      sync.Mutex
		created = make([]model.Character, 0, config.Characters)
		failed  atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for range config.Characters {
		in := synth.Character()
		g.Go(func() error {
			c, err := client.Create(gctx, in)
			if err != nil {
				failed.Add(1)
				if config.Verbose {
					log.Warn(gctx, "create failed", logger.Error(err))
				}
				return nil
			}
			mu.Lock()
			created = append(created, c)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return created, err
	}
	if err := ctx.Err(); err != nil {
		return created, err
	}

	st.Created = len(created)
	st.CreateFailed = int(failed.Load())
	log.Info(ctx, "characters created",
		logger.Int("created", st.Created),
		logger.Int("failed", st.CreateFailed))
	return created, nil
}

func deleteAll(ctx context.Context, log logger.Logger, client *Client, created []model.Character, config *Config, st *Stats) {
	var deleted, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for _, c := range created {
		g.Go(func() error {
			if err := client.Delete(gctx, c.ID); err != nil {
				failed.Add(1)
				if config.Verbose {
					log.Warn(gctx, "delete failed", logger.String("id", c.ID), logger.Error(err))
				}
				return nil
			}
			deleted.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	st.Deleted = int(deleted.Load())
	st.DeleteFailed = int(failed.Load())
	log.Info(ctx, "characters deleted",
		logger.Int("deleted", st.Deleted),
		logger.Int("failed", st.DeleteFailed))
}

// verify checks the roster size, then waits for the socket to deliver the
// summaries computed locally from the listed roster.
func verify(ctx context.Context, client *Client, watcher *Watcher, wantSize int, settle time.Duration, st *Stats) error {
	chars, err := client.List(ctx)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}
	st.FinalRoster = len(chars)
	if len(chars) != wantSize {
		return fmt.Errorf("%w: roster has %d characters, want %d", ErrMismatch, len(chars), wantSize)
	}

	want := stats.Compute(chars)
	st.FinalClasses = len(want)

	served, err := client.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}
	if len(served) != len(want) {
		return fmt.Errorf("%w: /api/stats has %d classes, want %d", ErrMismatch, len(served), len(want))
	}
	for i := range want {
		if served[i] != want[i] {
			return fmt.Errorf("%w: /api/stats[%d] = %+v, want %+v", ErrMismatch, i, served[i], want[i])
		}
	}

	if err := watcher.WaitFor(ctx, want, settle); err != nil {
		st.SocketMatched = false
		return err
	}
	st.SocketMatched = true
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, st *Stats) {
	var perSecond float64
	if st.Duration > 0 {
		perSecond = float64(st.Created+st.Deleted) / st.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("baseline", st.Baseline),
		logger.Int("created", st.Created),
		logger.Int("createFailed", st.CreateFailed),
		logger.Int("deleted", st.Deleted),
		logger.Int("deleteFailed", st.DeleteFailed),
		logger.Int("statsFrames", st.FramesSeen),
		logger.Int("finalRoster", st.FinalRoster),
		logger.Duration("duration", st.Duration),
		logger.Float64("mutationsPerSecond", perSecond))
}
