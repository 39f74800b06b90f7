// Package effect defines the declarative frame-sequence descriptors
// applied to a Light (spec.md §3 "Effect") and the small library of
// effects shipped with the engine (spec.md §4.4). Effects are pure,
// cloneable descriptors: they hold no device handle and no mutable
// runtime state. package engine turns an Effect into a running Task.
package effect

import (
	"time"

	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

// Priority orders effect replacement: apply(e') replaces a running task
// only when priority(e') >= priority(current) (spec.md §4.4).
type Priority int

const (
	Low Priority = iota
	Normal
	High
)

// Speed names the three dwell tiers blink and fli share (spec.md §4.4).
type Speed int

const (
	SpeedSlow Speed = iota
	SpeedMedium
	SpeedFast
)

// Dwell returns the frame-hold duration for s.
func (s Speed) Dwell() time.Duration {
	switch s {
	case SpeedSlow:
		return 500 * time.Millisecond
	case SpeedFast:
		return 100 * time.Millisecond
	default:
		return 250 * time.Millisecond
	}
}

// Frame is one (colour, dwell) step of an effect's sequence.
type Frame struct {
	Color ledcolor.Color
	Dwell time.Duration
}

// DefaultDwell is used by any Frame whose Dwell is left at its zero value.
const DefaultDwell = 250 * time.Millisecond

// DwellOrDefault fills in DefaultDwell for a zero dwell, matching
// spec.md's "dwell defaults to default_interval".
func DwellOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultDwell
	}
	return d
}

// Sequence is a lazy, possibly-infinite iterator over Frames, modelled as
// a Go 1.23 range-over-func iterator: calling it pushes one Frame at a time
// to yield, stopping when the sequence ends or yield returns false. A Sequence must be
// safe to restart from scratch by calling the Effect's Frames constructor
// again; it holds no engine-visible state of its own.
type Sequence func(yield func(Frame) bool)

// Effect is an ordered, finite or infinite frame sequence plus the
// metadata the engine needs to schedule it (spec.md §3). Effects are
// immutable value-shaped descriptors and may be freely copied: applying
// the same Effect to three Lights starts three independent Tasks sharing
// no mutable state (spec.md §9).
type Effect struct {
	// Name is a driver-independent identifier such as "steady", "blink",
	// "spectrum", "gradient", "fli".
	Name string
	// Frames produces the sequence of (colour, dwell) steps. Must be
	// non-nil.
	Frames Sequence
	// RepeatCount is 0 for "forever", N>=1 to play the sequence N times
	// then quiesce. A RepeatCount > 0 effect's Frames sequence already
	// accounts for the repeat — the engine does not loop Frames itself.
	RepeatCount uint
	// Priority governs replacement (spec.md §4.4).
	Priority Priority
	// LED selects which LED on a multi-LED device the effect targets.
	LED light.Index
	// Native carries the parameters the engine needs to dispatch to a
	// driver.NativeBlinker instead of synthesising blink frames in
	// software (spec.md §4.4). Only Blink/Fli populate it; nil for every
	// other effect, in which case the engine always software-synthesises.
	Native *NativeBlinkParams
}

// NativeBlinkParams is the on/off/speed triple a hardware-blinking driver
// needs. The engine type-asserts the target driver for NativeBlinker and,
// when it implements it, calls EncodeBlinkNative with these fields instead
// of stepping through Frames itself.
type NativeBlinkParams struct {
	On, Off ledcolor.Color
	Speed   Speed
}

// WithPriority returns a copy of e with Priority set to p.
func (e Effect) WithPriority(p Priority) Effect {
	e.Priority = p
	return e
}

// WithLED returns a copy of e with LED set to led.
func (e Effect) WithLED(led light.Index) Effect {
	e.LED = led
	return e
}

// IsSteady reports whether e is the degenerate one-frame "steady" effect,
// which the engine treats specially: it never runs as a long task, it is
// a single solid write plus (if the driver is stateful) a keep-alive
// (spec.md §4.4).
func (e Effect) IsSteady() bool {
	return e.Name == steadyName
}
