// Package engine is the cooperative scheduler: it turns an applied Effect
// into a running per-Light Task, enforces the priority/replacement rule,
// keeps stateful drivers alive with periodic keep-alive frames, and
// guarantees every Light ends up dark when a Task is cancelled or the
// engine shuts down (spec.md §4.4).
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"ledctl.dev/effect"
	"ledctl.dev/registry"
)

// DefaultWriteTimeout matches spec.md §5's "bounded timeout (default
// 100ms)".
const DefaultWriteTimeout = 100 * time.Millisecond

// DefaultWriteConcurrency bounds how many transport writes may be
// in-flight across every Light at once.
const DefaultWriteConcurrency = 8

// Config configures an Engine. The zero value is valid: every field falls
// back to its Default.
type Config struct {
	WriteTimeout     time.Duration
	WriteConcurrency int64
	Logger           *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.WriteConcurrency == 0 {
		c.WriteConcurrency = DefaultWriteConcurrency
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Engine owns one actor per Light that has ever had an effect applied to
// it. Actors are created lazily on first Apply and removed when their
// Light is unplugged or fails persistently.
type Engine struct {
	reg *registry.Registry
	cfg Config
	sem *semaphore.Weighted

	mu     sync.Mutex
	actors map[string]*actor

	failMu  sync.Mutex
	failCbs []func(lightID string, err error)
}

// New constructs an Engine bound to reg. It subscribes to reg's Unplugged
// event to drop actors for Lights that disappear (spec.md §4.4's
// device_removed transition).
func New(reg *registry.Registry, cfg Config) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		reg:    reg,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(cfg.WriteConcurrency),
		actors: make(map[string]*actor),
	}
	reg.OnUnplugged(e.handleUnplugged)
	return e
}

// OnFailure registers cb to be called whenever a Light's Task reports a
// persistent io_error (spec.md §7's Io(persistent), handled identically to
// Disconnected).
func (e *Engine) OnFailure(cb func(lightID string, err error)) {
	e.failMu.Lock()
	e.failCbs = append(e.failCbs, cb)
	e.failMu.Unlock()
}

func (e *Engine) fireFailure(lightID string, err error) {
	e.failMu.Lock()
	cbs := append([]func(string, error){}, e.failCbs...)
	e.failMu.Unlock()
	for _, cb := range cbs {
		cb(lightID, err)
	}
}

func (e *Engine) handleUnplugged(info registry.Info) {
	e.mu.Lock()
	a, ok := e.actors[info.ID]
	if ok {
		delete(e.actors, info.ID)
	}
	e.mu.Unlock()
	if ok {
		select {
		case a.removeCh <- struct{}{}:
		default:
		}
	}
}

// actorFor returns the actor for lightID, creating and starting one if
// this is the first operation against that Light.
func (e *Engine) actorFor(lightID string) (*actor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a, ok := e.actors[lightID]; ok {
		return a, nil
	}
	l := e.reg.Snapshot().ByID(lightID)
	if l == nil {
		return nil, fmt.Errorf("engine: %w: %s", ErrLightGone, lightID)
	}
	reopen := func() error { return e.reg.ReopenTransport(l) }
	a := newActor(l, e.sem, e.cfg.WriteTimeout, e.cfg.Logger, reopen, func(err error) {
		e.reportFatal(lightID, err)
	})
	e.actors[lightID] = a
	go a.run()
	return a, nil
}

func (e *Engine) reportFatal(lightID string, err error) {
	e.mu.Lock()
	delete(e.actors, lightID)
	e.mu.Unlock()
	e.fireFailure(lightID, err)
}

// Apply starts eff on the Light identified by lightID, replacing any
// running task per the priority/replacement rule (spec.md §4.4). It
// returns ErrPriorityTooLow without error state change when eff's priority
// is strictly lower than the currently running task's.
func (e *Engine) Apply(lightID string, eff effect.Effect) error {
	a, err := e.actorFor(lightID)
	if err != nil {
		return err
	}
	reply := make(chan error, 1)
	select {
	case a.applyCh <- applyRequest{effect: eff, reply: reply}:
	case <-a.closed:
		return fmt.Errorf("engine: %w: %s", ErrLightGone, lightID)
	}
	select {
	case err := <-reply:
		return err
	case <-a.closed:
		return fmt.Errorf("engine: %w: %s", ErrLightGone, lightID)
	}
}

// Stop cancels every running task on the Light and drives it dark. A
// Light with no actor (nothing was ever applied to it) is a no-op.
func (e *Engine) Stop(lightID string) error {
	e.mu.Lock()
	a, ok := e.actors[lightID]
	e.mu.Unlock()
	if !ok {
		return nil
	}
	reply := make(chan struct{})
	select {
	case a.stopCh <- stopRequest{reply: reply}:
	case <-a.closed:
		return nil
	}
	select {
	case <-reply:
	case <-a.closed:
	}
	return nil
}

// Shutdown stops every active actor, waiting (bounded by ctx) for each
// finaliser to run, matching spec.md §6's "shutdown() — deterministic;
// returns only after every Task has run its finaliser."
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	actors := make([]*actor, 0, len(e.actors))
	for _, a := range e.actors {
		actors = append(actors, a)
	}
	e.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, a := range actors {
		a := a
		g.Go(func() error {
			reply := make(chan struct{})
			select {
			case a.stopCh <- stopRequest{reply: reply}:
			case <-a.closed:
				return nil
			}
			select {
			case <-reply:
				return nil
			case <-a.closed:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	return g.Wait()
}
