// Package light defines the LED-addressing type shared by drivers, the
// effect engine, and the controller.
package light

// Index addresses an LED on a (possibly multi-LED) device. Zero means "all
// LEDs on this device"; values 1..N address an individual LED, where N is
// the device's LEDCount. An Index is never negative in well-formed use; the
// zero value is the useful default (all LEDs).
type Index int

// All addresses every LED on a device.
const All Index = 0

// InRange reports whether idx is a legal index for a device exposing
// ledCount LEDs (ledCount >= 1). Index 0 (All) is always in range.
// An out-of-range index is not an error: callers must clamp it away,
// per the no-op-plus-warning rule of the core's LedIndex contract.
func (idx Index) InRange(ledCount int) bool {
	return idx >= All && int(idx) <= ledCount
}
