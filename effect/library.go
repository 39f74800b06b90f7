package effect

import (
	"math"
	"time"

	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

const steadyName = "steady"

// repeatForever replays pattern indefinitely, stopping as soon as yield
// returns false (the cooperative-cancellation contract every Sequence
// observes: package engine's scheduler supplies a yield that returns
// false once the Task's cancellation token fires).
func repeatForever(pattern []Frame) Sequence {
	return func(yield func(Frame) bool) {
		for {
			for _, f := range pattern {
				if !yield(f) {
					return
				}
			}
		}
	}
}

// repeatN replays pattern exactly count times (count >= 1) and returns.
func repeatN(pattern []Frame, count uint) Sequence {
	return func(yield func(Frame) bool) {
		for i := uint(0); i < count; i++ {
			for _, f := range pattern {
				if !yield(f) {
					return
				}
			}
		}
	}
}

// repeating returns repeatForever when count == 0, else repeatN.
func repeating(pattern []Frame, count uint) Sequence {
	if count == 0 {
		return repeatForever(pattern)
	}
	return repeatN(pattern, count)
}

// Steady is the degenerate one-frame effect: a single solid colour held
// until replaced or stopped. The engine never schedules it as a long-
// running task (spec.md §4.4): it issues the write (plus keep-alive, if
// the driver is stateful) synchronously and reports the task finished.
func Steady(c ledcolor.Color, led light.Index) Effect {
	return Effect{
		Name:        steadyName,
		Frames:      repeatN([]Frame{{Color: c}}, 1),
		RepeatCount: 1,
		Priority:    Normal,
		LED:         led,
	}
}

// Blink alternates onColor and offColor. count == 0 blinks forever;
// count == N >= 1 emits exactly 2*N transport writes (P12) and then
// quiesces. speed selects the dwell from the shared Speed table.
func Blink(onColor, offColor ledcolor.Color, count uint, speed Speed) Effect {
	dwell := speed.Dwell()
	pattern := []Frame{
		{Color: onColor, Dwell: dwell},
		{Color: offColor, Dwell: dwell},
	}
	return Effect{
		Name:        "blink",
		Frames:      repeating(pattern, count),
		RepeatCount: count,
		Priority:    Normal,
		LED:         light.All,
		Native:      &NativeBlinkParams{On: onColor, Off: offColor, Speed: speed},
	}
}

// Fli alternates colorA and colorB, identically to Blink but without an
// implicit black off-phase: both phases are caller-chosen colours. Uses
// the same dwell table as Blink.
func Fli(colorA, colorB ledcolor.Color, count uint, speed Speed) Effect {
	e := Blink(colorA, colorB, count, speed)
	e.Name = "fli"
	return e
}

// Spectrum samples three phase-offset sine waves (one per channel,
// 120 degrees apart) to produce a cycling rainbow. steps is the number of
// discrete frames per full cycle; frequency is the number of sine cycles
// per pass through steps; phase offsets the starting angle; scale is a
// [0,1] amplitude multiplier. count == 0 cycles forever.
func Spectrum(steps int, frequency, phase, scale float64, count uint) Effect {
	if steps <= 0 {
		steps = 64
	}
	const center = 127.5
	const width = 127.5
	pattern := make([]Frame, steps)
	for i := 0; i < steps; i++ {
		t := 2*math.Pi*frequency*(float64(i)/float64(steps)) + phase
		pattern[i] = Frame{Color: ledcolor.RGB(
			sampleChannel(t, center, width, scale),
			sampleChannel(t+2*math.Pi/3, center, width, scale),
			sampleChannel(t+4*math.Pi/3, center, width, scale),
		)}
	}
	return Effect{
		Name:        "spectrum",
		Frames:      repeating(pattern, count),
		RepeatCount: count,
		Priority:    Normal,
		LED:         light.All,
	}
}

func sampleChannel(theta, center, width, scale float64) byte {
	v := center + width*scale*math.Sin(theta)
	return clampFloat(v)
}

func clampFloat(v float64) byte {
	r := math.Round(v)
	if r < 0 {
		r = 0
	}
	if r > 255 {
		r = 255
	}
	return byte(r)
}

// gradientDwell is the default dwell between gradient frames (spec.md
// §4.4: "dwell 0.05 s by default").
const gradientDwell = 50 * time.Millisecond

// Gradient ramps black -> target -> black in stepMax/step frames (clamped
// to at least 2), using gradientDwell between frames. count == 0 repeats
// the ramp forever.
func Gradient(target ledcolor.Color, step int, count uint) Effect {
	const stepMax = 255
	if step <= 0 {
		step = 1
	}
	frames := stepMax / step
	if frames < 2 {
		frames = 2
	}
	pattern := make([]Frame, frames)
	half := frames / 2
	for i := 0; i < frames; i++ {
		var frac float64
		if i <= half {
			frac = float64(i) / float64(half)
		} else {
			frac = float64(frames-1-i) / float64(frames-1-half)
		}
		pattern[i] = Frame{Color: ledcolor.Scale(target, frac), Dwell: gradientDwell}
	}
	return Effect{
		Name:        "gradient",
		Frames:      repeating(pattern, count),
		RepeatCount: count,
		Priority:    Normal,
		LED:         light.All,
	}
}
