package autogen

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codrutul/roster/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type counter struct{ n atomic.Int32 }

func (c *counter) create(context.Context) error {
	c.n.Add(1)
	return nil
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return false
}

func TestGeneratorStateMachine(t *testing.T) {
	Convey("Given an idle generator", t, func() {
		c := &counter{}
		g := New(c.create, WithInterval(10*time.Millisecond), WithLogger(logger.Nop()))
		defer g.Stop()
		ctx := context.Background()

		So(g.State(), ShouldEqual, Idle)

		Convey("When disabled while idle", func() {
			changed := g.Disable()

			Convey("Then nothing happens", func() {
				So(changed, ShouldBeFalse)
				So(g.State(), ShouldEqual, Idle)
			})
		})

		Convey("When enabled", func() {
			So(g.Enable(ctx), ShouldBeTrue)

			Convey("Then it runs and creates on every tick", func() {
				So(g.State(), ShouldEqual, Running)
				So(g.State().String(), ShouldEqual, "running")
				So(waitFor(func() bool { return c.n.Load() >= 3 }), ShouldBeTrue)
			})

			Convey("And enabling again does not start a second timer", func() {
				So(g.Enable(ctx), ShouldBeFalse)
				So(g.Set(ctx, true), ShouldBeFalse)
			})

			Convey("And disabling stops further creates", func() {
				So(waitFor(func() bool { return c.n.Load() >= 1 }), ShouldBeTrue)
				g.Stop()
				settled := c.n.Load()
				time.Sleep(50 * time.Millisecond)

				So(c.n.Load(), ShouldEqual, settled)
				So(g.State(), ShouldEqual, Idle)
			})
		})

		Convey("When the owning context ends", func() {
			cctx, cancel := context.WithCancel(ctx)
			g.Enable(cctx)
			cancel()
			time.Sleep(30 * time.Millisecond)
			settled := c.n.Load()
			time.Sleep(50 * time.Millisecond)

			Convey("Then the timer no longer fires", func() {
				So(c.n.Load(), ShouldEqual, settled)
			})

			Convey("And the generator is idle again and can be re-enabled", func() {
				So(g.State(), ShouldEqual, Idle)
				So(g.Disable(), ShouldBeFalse)
				So(g.Enable(ctx), ShouldBeTrue)
				So(g.State(), ShouldEqual, Running)
			})
		})
	})
}

func TestGeneratorDisableWithinPeriod(t *testing.T) {
	Convey("Given a generator with a long period", t, func() {
		c := &counter{}
		g := New(c.create, WithInterval(100*time.Millisecond), WithLogger(logger.Nop()))

		Convey("When it is enabled then disabled before the first tick", func() {
			So(g.Set(context.Background(), true), ShouldBeTrue)
			time.Sleep(10 * time.Millisecond)
			So(g.Set(context.Background(), false), ShouldBeTrue)
			time.Sleep(200 * time.Millisecond)
			g.Stop()

			Convey("Then zero characters are synthesized", func() {
				So(c.n.Load(), ShouldEqual, 0)
			})
		})
	})
}

func TestGeneratorInFlightCreate(t *testing.T) {
	Convey("Given a create that is already running", t, func() {
		started := make(chan struct{})
		release := make(chan struct{})
		var finished atomic.Bool
		var ctxLive atomic.Bool

		g := New(func(ctx context.Context) error {
			select {
			case started <- struct{}{}:
			default:
				return nil
			}
			<-release
			ctxLive.Store(ctx.Err() == nil)
			finished.Store(true)
			return nil
		}, WithInterval(5*time.Millisecond), WithLogger(logger.Nop()))

		g.Enable(context.Background())
		<-started

		Convey("When the generator is disabled mid-create", func() {
			g.Disable()
			close(release)
			g.Stop()

			Convey("Then the create completes with a live context", func() {
				So(finished.Load(), ShouldBeTrue)
				So(ctxLive.Load(), ShouldBeTrue)
			})
		})
	})
}

func TestGeneratorCreateErrors(t *testing.T) {
	Convey("Given a create that always fails", t, func() {
		var calls atomic.Int32
		g := New(func(context.Context) error {
			calls.Add(1)
			return errors.New("store down")
		}, WithInterval(5*time.Millisecond), WithLogger(logger.Nop()))
		defer g.Stop()

		g.Enable(context.Background())

		Convey("Then the generator keeps running", func() {
			So(waitFor(func() bool { return calls.Load() >= 2 }), ShouldBeTrue)
			So(g.State(), ShouldEqual, Running)
		})
	})
}
