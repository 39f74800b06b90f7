package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"ledctl.dev/driver"
	"ledctl.dev/effect"
	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
	"ledctl.dev/transport"
)

// Light is the subset of *registry.Light the scheduler needs. Depending on
// an interface instead of the concrete type keeps the engine unit-
// testable without a real Registry or real device handles; registry.Light
// satisfies it unmodified.
type Light interface {
	ID() string
	Driver() driver.Driver
	Write(frames []driver.Frame) error
	RecordState(effectName string, c ledcolor.Color)
	LastColor() ledcolor.Color
}

// task tracks one running goroutine (an effect run or a keep-alive loop)
// that the actor owns. skipFinalizer is set by the actor, before calling
// cancel, when the cancellation reason is device removal: the finalizer
// must not attempt a write to a device that is gone (spec.md §4.4's
// device_removed transition: "do not attempt dark write").
type task struct {
	cancel        context.CancelFunc
	done          chan struct{}
	skipFinalizer atomic.Bool
}

func (t *task) cancelAndWait(skipFinalizer bool) {
	if skipFinalizer {
		t.skipFinalizer.Store(true)
	}
	t.cancel()
	<-t.done
}

type applyRequest struct {
	effect effect.Effect
	reply  chan error
}

type stopRequest struct {
	reply chan struct{}
}

// actor is the per-Light cooperative scheduler: one goroutine owns all
// state-machine transitions for a single Light, so no lock is needed
// around priority/effectTask/kaTask (spec.md §5 "the engine's per-Light
// state machine is accessed only from the single scheduler; no lock is
// needed there" — generalised here from one process-wide scheduler
// goroutine to one goroutine per Light, since Go makes many cheap
// goroutines more idiomatic than one hand-rolled event loop; the
// semaphore below still caps total concurrent writes process-wide).
type actor struct {
	light        Light
	driver       driver.Driver
	sem          *semaphore.Weighted
	writeTimeout time.Duration
	logger       *slog.Logger
	reopen       func() error
	onFatal      func(error)

	priority   effect.Priority
	effectTask *task
	kaTask     *task
	lastLED    light.Index

	applyCh      chan applyRequest
	stopCh       chan stopRequest
	effectDoneCh chan struct{}
	fatalCh      chan error
	removeCh     chan struct{}
	closed       chan struct{}
}

func newActor(l Light, sem *semaphore.Weighted, writeTimeout time.Duration, logger *slog.Logger, reopen func() error, onFatal func(error)) *actor {
	return &actor{
		light:        l,
		driver:       l.Driver(),
		sem:          sem,
		writeTimeout: writeTimeout,
		logger:       logger,
		reopen:       reopen,
		onFatal:      onFatal,
		applyCh:      make(chan applyRequest),
		stopCh:       make(chan stopRequest),
		effectDoneCh: make(chan struct{}, 1),
		fatalCh:      make(chan error, 1),
		removeCh:     make(chan struct{}, 1),
		closed:       make(chan struct{}),
	}
}

// run is the actor's scheduler loop (spec.md §4.4's per-Light state
// machine). It exits only on device_removed or a persistent io_error;
// stop() and apply() leave it running, parked at Idle.
func (a *actor) run() {
	defer close(a.closed)
	for {
		select {
		case req := <-a.applyCh:
			req.reply <- a.handleApply(req.effect)
		case req := <-a.stopCh:
			a.cancelCurrent(true)
			close(req.reply)
		case <-a.effectDoneCh:
			if a.kaTask != nil {
				a.kaTask.cancelAndWait(false)
				a.kaTask = nil
			}
			a.effectTask = nil
		case err := <-a.fatalCh:
			a.cancelRemaining()
			a.logger.Warn("light failed, dropping", "light", a.light.ID(), "error", err)
			a.onFatal(err)
			return
		case <-a.removeCh:
			a.cancelRemaining()
			return
		}
	}
}

// handleApply implements the Idle/Running apply(e) transitions and the
// priority/replacement rule (spec.md §4.4).
func (a *actor) handleApply(e effect.Effect) error {
	if _, ok := driver.ClampLED(e.LED, a.driver.Identity().LEDCount); !ok {
		a.logger.Warn("led index out of range, ignoring effect",
			"light", a.light.ID(), "led", e.LED, "led_count", a.driver.Identity().LEDCount)
		return ErrLEDOutOfRange
	}
	if a.effectTask != nil && e.Priority < a.priority {
		return ErrPriorityTooLow
	}
	a.cancelCurrent(false) // "cancel current task (see below), then start e'"
	a.startEffect(e)
	return nil
}

// cancelCurrent cancels whatever is running and, when driveDark is true,
// guarantees the Light ends up dark (spec.md §4.4 "Cancellation"). When an
// effect task was running its own finalizer already drives dark as part
// of unwinding, so cancelCurrent only issues an extra write when no effect
// task was running (a synchronous steady write, a native blink, or Idle).
func (a *actor) cancelCurrent(driveDark bool) {
	hadEffectTask := a.effectTask != nil
	if a.kaTask != nil {
		a.kaTask.cancelAndWait(false)
		a.kaTask = nil
	}
	if a.effectTask != nil {
		a.effectTask.cancelAndWait(false)
		a.effectTask = nil
	}
	if driveDark && !hadEffectTask {
		_ = a.writeFrames(a.driver.EncodeOff(a.lastLED))
		a.light.RecordState("", ledcolor.Black)
	}
}

// cancelRemaining cancels any still-running tasks without attempting a
// finalizer write, for device_removed and persistent-failure cleanup.
func (a *actor) cancelRemaining() {
	if a.kaTask != nil {
		a.kaTask.cancelAndWait(true)
		a.kaTask = nil
	}
	if a.effectTask != nil {
		a.effectTask.cancelAndWait(true)
		a.effectTask = nil
	}
}

func (a *actor) startEffect(e effect.Effect) {
	a.priority = e.Priority
	a.lastLED = e.LED

	if e.IsSteady() {
		color := firstFrameColor(e)
		if err := a.writeFrames(a.driver.EncodeSolid(color, e.LED)); err != nil {
			a.reportFatal(err)
			return
		}
		a.light.RecordState(e.Name, color)
		if a.driver.Identity().Keepalive.Stateful {
			a.startKeepAlive(e.LED)
		}
		return
	}

	if e.Name == "blink" && e.Native != nil {
		if nb, ok := a.driver.(driver.NativeBlinker); ok {
			frames, ok := nb.EncodeBlinkNative(e.Native.On, e.Native.Off, toDriverSpeed(e.Native.Speed))
			if ok {
				if err := a.writeFrames(frames); err != nil {
					a.reportFatal(err)
					return
				}
				a.light.RecordState(e.Name, e.Native.On)
				if a.driver.Identity().Keepalive.Stateful {
					a.startKeepAlive(e.LED)
				}
				return
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel, done: make(chan struct{})}
	a.effectTask = t
	go a.runEffect(ctx, t, e)
	if a.driver.Identity().Keepalive.Stateful {
		a.startKeepAlive(e.LED)
	}
}

func firstFrameColor(e effect.Effect) ledcolor.Color {
	var c ledcolor.Color
	e.Frames(func(f effect.Frame) bool {
		c = f.Color
		return false
	})
	return c
}

func toDriverSpeed(s effect.Speed) driver.Speed {
	switch s {
	case effect.SpeedSlow:
		return driver.SpeedSlow
	case effect.SpeedFast:
		return driver.SpeedFast
	default:
		return driver.SpeedMedium
	}
}

// runEffect steps e's Sequence, writing each frame and sleeping its dwell,
// until the sequence exhausts itself or ctx is cancelled. Either way it
// runs the finalizer (encode_off) unless the cancellation was for
// device_removed, which asks explicitly for no further writes.
func (a *actor) runEffect(ctx context.Context, t *task, e effect.Effect) {
	defer close(t.done)
	var (
		cancelled bool
		fatalErr  error
	)
	e.Frames(func(f effect.Frame) bool {
		if ctx.Err() != nil {
			cancelled = true
			return false
		}
		if err := a.writeFrames(a.driver.EncodeSolid(f.Color, e.LED)); err != nil {
			fatalErr = err
			return false
		}
		a.light.RecordState(e.Name, f.Color)
		select {
		case <-ctx.Done():
			cancelled = true
			return false
		case <-time.After(effect.DwellOrDefault(f.Dwell)):
		}
		return true
	})

	if fatalErr != nil {
		select {
		case a.fatalCh <- fatalErr:
		default:
		}
		return
	}
	if t.skipFinalizer.Load() {
		return
	}
	_ = a.writeFrames(a.driver.EncodeOff(e.LED))
	a.light.RecordState("", ledcolor.Black)
	if !cancelled {
		select {
		case a.effectDoneCh <- struct{}{}:
		case <-ctx.Done():
		}
	}
}

func (a *actor) startKeepAlive(led light.Index) {
	interval := time.Duration(a.driver.Identity().Keepalive.IntervalS) * time.Second / 2
	if interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel, done: make(chan struct{})}
	a.kaTask = t
	go a.runKeepAlive(ctx, t, led, interval)
}

// runKeepAlive renews the Light's last-commanded colour every interval
// (spec.md §4.4's half-period rule: interval is already interval_s/2 by
// the time startKeepAlive computes it).
func (a *actor) runKeepAlive(ctx context.Context, t *task, led light.Index, interval time.Duration) {
	defer close(t.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if t.skipFinalizer.Load() {
				return
			}
			frame, ok := a.driver.EncodeKeepAlive(a.light.LastColor(), led)
			if !ok {
				return
			}
			if err := a.writeFrames([]driver.Frame{frame}); err != nil {
				select {
				case a.fatalCh <- err:
				default:
				}
				return
			}
		}
	}
}

func (a *actor) reportFatal(err error) {
	select {
	case a.fatalCh <- err:
	default:
	}
}

// writeFrames sends frames through the Light's mutex, bounded by the
// engine-wide write semaphore, applying the close-reopen-retry-once rule
// on a transient failure (spec.md §4.4 "Keep-alive" / §7 "Io (transient)").
func (a *actor) writeFrames(frames []driver.Frame) error {
	if err := a.sem.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer a.sem.Release(1)

	err := a.writeWithTimeout(frames)
	if err == nil {
		return nil
	}
	if !isTransient(err) {
		return err
	}
	if reopenErr := a.reopen(); reopenErr != nil {
		return fmt.Errorf("engine: reopen after transient error: %w", reopenErr)
	}
	if err2 := a.writeWithTimeout(frames); err2 != nil {
		return fmt.Errorf("engine: retry after reopen failed: %w", err2)
	}
	return nil
}

// writeWithTimeout bounds a single Light.Write call to writeTimeout. The
// underlying transport call cannot be interrupted mid-syscall, so a timed-
// out write's goroutine is left to finish (or fail) on its own; the result
// is discarded. This matches spec.md §5's "bounded timeout (default
// 100ms); a timeout is classified as transient" without requiring the
// transport layer to support cancellation.
func (a *actor) writeWithTimeout(frames []driver.Frame) error {
	if a.writeTimeout <= 0 {
		return a.light.Write(frames)
	}
	result := make(chan error, 1)
	go func() { result <- a.light.Write(frames) }()
	select {
	case err := <-result:
		return err
	case <-time.After(a.writeTimeout):
		return transport.ErrTimeout
	}
}

func isTransient(err error) bool {
	return errors.Is(err, transport.ErrTimeout) || errors.Is(err, transport.ErrIO)
}
