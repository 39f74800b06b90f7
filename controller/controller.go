// Package controller is the thin, deterministic façade spec.md §4.5
// describes: it owns a Registry and an Engine and exposes chainable
// Selection operations over them.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"regexp"

	"ledctl.dev/config"
	"ledctl.dev/engine"
	"ledctl.dev/registry"
)

// ErrInvalidArgument is the one error class spec.md §7 says surfaces
// directly to the library caller rather than being handled internally —
// a colour or LED index the caller supplied could not be interpreted.
// Every Go-native colour/index value is well-formed by construction, so
// in practice this is reserved for a future string-parsing façade (CLI or
// HTTP) layered on top of this package; the core library itself never
// returns it today.
var ErrInvalidArgument = errors.New("controller: invalid argument")

// Controller is the library entry point. It owns the Registry's poll loop
// and the Engine's actors for as long as the process runs.
type Controller struct {
	reg    *registry.Registry
	eng    *engine.Engine
	logger *slog.Logger
	cancel context.CancelFunc
}

// New constructs a Controller and starts the Registry's poll loop in the
// background (spec.md §6: "controller.New(cfg Config) (*Controller,
// error)").
func New(cfg config.Config) (*Controller, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	reg := registry.New(
		registry.WithPollInterval(cfg.PollInterval),
		registry.WithLogger(logger),
	)
	eng := engine.New(reg, engine.Config{
		WriteTimeout: cfg.WriteTimeout,
		Logger:       logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go reg.Run(ctx)

	return &Controller{reg: reg, eng: eng, logger: logger, cancel: cancel}, nil
}

// OnLightPlugged subscribes cb to PLUGGED events (spec.md §6).
func (c *Controller) OnLightPlugged(cb func(registry.Info)) {
	c.reg.OnPlugged(cb)
}

// OnLightUnplugged subscribes cb to UNPLUGGED events (spec.md §6).
func (c *Controller) OnLightUnplugged(cb func(registry.Info)) {
	c.reg.OnUnplugged(cb)
}

// OnLightFailed subscribes cb to a Light's persistent io_error, the
// engine-level complement to OnLightUnplugged (spec.md §7's Io(persistent)
// getting "same cleanup as Disconnected").
func (c *Controller) OnLightFailed(cb func(lightID string, err error)) {
	c.eng.OnFailure(cb)
}

// List returns every currently-known Light's public Info (spec.md §6).
func (c *Controller) List() []registry.Info {
	return c.reg.List()
}

// All selects every Light in the current snapshot.
func (c *Controller) All() *Selection {
	return c.newSelection(c.reg.Snapshot().All())
}

// First selects at most one Light: the first in the current snapshot.
func (c *Controller) First() *Selection {
	all := c.reg.Snapshot().All()
	if len(all) == 0 {
		return c.newSelection(nil)
	}
	return c.newSelection(all[:1])
}

// ByIndex selects the Lights at the given 0-based indices. Indices outside
// the current snapshot's range are silently omitted (spec.md §4.3: lookup
// misses never error).
func (c *Controller) ByIndex(indices ...int) *Selection {
	snap := c.reg.Snapshot()
	var lights []*registry.Light
	for _, i := range indices {
		if l := snap.ByIndex(i); l != nil {
			lights = append(lights, l)
		}
	}
	return c.newSelection(lights)
}

// ByName selects the count-th Light (1-based; count<=0 means "first")
// whose logical name equals name exactly.
func (c *Controller) ByName(name string, count int) *Selection {
	l := c.reg.Snapshot().ByName(name, count)
	if l == nil {
		return c.newSelection(nil)
	}
	return c.newSelection([]*registry.Light{l})
}

// ByPattern selects every Light whose logical name matches re.
func (c *Controller) ByPattern(re *regexp.Regexp) *Selection {
	return c.newSelection(c.reg.Snapshot().ByPattern(re))
}

func (c *Controller) newSelection(lights []*registry.Light) *Selection {
	ids := make([]identified, len(lights))
	for i, l := range lights {
		ids[i] = l
	}
	return &Selection{eng: c.eng, logger: c.logger, lights: ids}
}

// Shutdown stops the poller, cancels every running Task on every Light,
// and closes every handle; deterministic — returns only after every
// Task's finaliser has run or ctx is done (spec.md §6).
func (c *Controller) Shutdown(ctx context.Context) error {
	defer c.cancel()
	err := c.eng.Shutdown(ctx)
	c.reg.Shutdown()
	return err
}
