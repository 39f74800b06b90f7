package controller

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"ledctl.dev/effect"
	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

// Speed names the dwell tier a Selection.Blink caller picks from, mirrored
// from package effect so callers of this façade never need to import it
// just to name a speed.
type Speed = effect.Speed

const (
	SpeedSlow   = effect.SpeedSlow
	SpeedMedium = effect.SpeedMedium
	SpeedFast   = effect.SpeedFast
)

// identified is the subset of *registry.Light a Selection needs: just a
// stable key to hand the engine. Depending on this instead of the
// concrete type lets selection_test.go exercise fan-out/no-op/timeout
// behaviour with fake Lights, the same rationale as engine.Light.
type identified interface {
	ID() string
}

// Selection is an immutable set of Lights resolved against one Registry
// snapshot (spec.md §4.5). Every operation fans out over c.lights and
// returns the same Selection, so calls chain: sel.TurnOn(...).Blink(...).
// An empty Selection is never an error: every operation becomes a no-op,
// logged at debug level.
type Selection struct {
	eng    engineFacade
	logger *slog.Logger
	lights []identified
}

// engineFacade is the subset of *engine.Engine a Selection drives. Kept as
// an interface so selection_test.go can exercise the fan-out/no-op/
// timeout logic without a real Registry or Engine.
type engineFacade interface {
	Apply(lightID string, eff effect.Effect) error
	Stop(lightID string) error
}

// Len reports how many Lights are in the Selection.
func (s *Selection) Len() int { return len(s.lights) }

func (s *Selection) forEach(op func(lightID string) error) error {
	if len(s.lights) == 0 {
		s.logger.Debug("selection empty, operation is a no-op")
		return nil
	}
	g := new(errgroup.Group)
	for _, l := range s.lights {
		l := l
		g.Go(func() error {
			return op(l.ID())
		})
	}
	return g.Wait()
}

// TurnOn applies a steady effect of scale(color, dim) to led on every
// Light in the Selection (spec.md §4.5).
func (s *Selection) TurnOn(color ledcolor.Color, led light.Index, dim float64) *Selection {
	scaled := ledcolor.Scale(color, dim)
	_ = s.forEach(func(lightID string) error {
		return s.eng.Apply(lightID, effect.Steady(scaled, led))
	})
	return s
}

// TurnOnFor is TurnOn with the optional `timeout` parameter spec.md §4.5
// describes: after timeout elapses, TurnOff runs automatically. If ctx is
// cancelled before timeout elapses (e.g. the caller's own ^C), TurnOff
// still runs — in the finaliser sense: cancellation of the caller
// propagates a stop() rather than leaving the Selection lit.
func (s *Selection) TurnOnFor(ctx context.Context, color ledcolor.Color, led light.Index, dim float64, timeout time.Duration) *Selection {
	s.TurnOn(color, led, dim)
	go func() {
		select {
		case <-time.After(timeout):
		case <-ctx.Done():
		}
		s.TurnOff()
	}()
	return s
}

// TurnOff stops every Light in the Selection; the engine drives it dark
// (spec.md §4.5).
func (s *Selection) TurnOff() *Selection {
	_ = s.forEach(func(lightID string) error {
		return s.eng.Stop(lightID)
	})
	return s
}

// Blink applies a blink effect alternating color/black to led (spec.md
// §4.5). count == 0 blinks forever until replaced or stopped.
func (s *Selection) Blink(color ledcolor.Color, count uint, speed Speed, led light.Index, dim float64) *Selection {
	scaled := ledcolor.Scale(color, dim)
	eff := effect.Blink(scaled, ledcolor.Black, count, speed)
	_ = s.forEach(func(lightID string) error {
		return s.eng.Apply(lightID, eff)
	})
	return s
}

// ApplyEffect applies eff, scaled by dim and targeted at led, to every
// Light in the Selection (spec.md §4.5). Scaling an effect re-wraps its
// Frames so every colour it emits is dimmed identically; the underlying
// Effect value is never mutated, so the same Effect may be reused across
// calls with different dim values.
func (s *Selection) ApplyEffect(eff effect.Effect, led light.Index, dim float64) *Selection {
	scaled := scaleEffect(eff, led, dim)
	_ = s.forEach(func(lightID string) error {
		return s.eng.Apply(lightID, scaled)
	})
	return s
}

func scaleEffect(e effect.Effect, led light.Index, dim float64) effect.Effect {
	e.LED = led
	if dim == 1 {
		return e
	}
	inner := e.Frames
	e.Frames = func(yield func(effect.Frame) bool) {
		inner(func(f effect.Frame) bool {
			f.Color = ledcolor.Scale(f.Color, dim)
			return yield(f)
		})
	}
	if e.Native != nil {
		scaledNative := *e.Native
		scaledNative.On = ledcolor.Scale(e.Native.On, dim)
		scaledNative.Off = ledcolor.Scale(e.Native.Off, dim)
		e.Native = &scaledNative
	}
	return e
}
