// Package driver defines the uniform command surface every vendor family
// implements (spec.md §4.2) and the static registration table that replaces
// the source material's run-time subclass dispatch (spec.md §9).
package driver

import (
	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

// TransportKind says which physical adapter a driver needs.
type TransportKind int

const (
	HID TransportKind = iota
	Serial
)

func (k TransportKind) String() string {
	switch k {
	case HID:
		return "hid"
	case Serial:
		return "serial"
	default:
		return "unknown"
	}
}

// Keepalive describes whether a device family auto-quiesces without a
// periodic refresh frame.
type Keepalive struct {
	// Stateful is true if the firmware reverts to dark unless refreshed.
	Stateful bool
	// IntervalS is the required refresh period in seconds. Meaningless
	// when Stateful is false.
	IntervalS int
}

// Stateless is the Keepalive value for a stateless device.
var Stateless = Keepalive{}

// Identity is the static, read-only description of a device family.
type Identity struct {
	VendorID      uint16
	ProductID     uint16
	LogicalName   string
	LEDCount      int
	TransportKind TransportKind
	Keepalive     Keepalive
}

// Frame is one complete, opaque write that the transport must send as a
// single logical write. A Frame for a multi-report command is still one
// logical write; drivers that need several reports return several Frames.
type Frame []byte

// Speed names the three dwell tiers shared by blink, fli, and any
// native-blink encoding (spec.md §4.4's speed table).
type Speed int

const (
	SpeedSlow Speed = iota
	SpeedMedium
	SpeedFast
)

// Driver is the command surface every vendor family implements. All
// methods are pure and infallible by contract (spec.md §4.2): getting the
// resulting Frames onto the wire is the caller's (package engine's)
// responsibility.
type Driver interface {
	Identity() Identity
	EncodeSolid(c ledcolor.Color, led light.Index) []Frame
	EncodeOff(led light.Index) []Frame
	// EncodeKeepAlive returns the "renew current colour" frame for a
	// Stateful driver given the last commanded colour and LED, and false
	// when the driver is Stateless (no keep-alive frame exists).
	EncodeKeepAlive(last ledcolor.Color, led light.Index) (Frame, bool)
}

// NativeBlinker is implemented by the minority of drivers whose firmware
// blinks natively. The engine type-asserts for this interface and falls
// back to software-synthesised blink when a driver doesn't implement it.
type NativeBlinker interface {
	EncodeBlinkNative(on, off ledcolor.Color, speed Speed) ([]Frame, bool)
}

// Constructor builds a Driver instance. Every family stores the identity
// argument and returns it from Identity(); it is passed so a single
// constructor can serve a family with more than one VID/PID registration
// (e.g. multiple product SKUs sharing firmware).
type Constructor func(id Identity) Driver

type registration struct {
	id   Identity
	ctor Constructor
}

var registrations []registration

// Register adds a (vendor, product) → constructor mapping to the static
// table consulted by package registry. Called from each driver
// subpackage's init(), per spec.md §9's static-table replacement for
// dynamic subclass dispatch. Registration order is preserved and is the
// tie-breaker the Registry uses when more than one entry matches
// (spec.md §4.3).
func Register(id Identity, ctor Constructor) {
	registrations = append(registrations, registration{id: id, ctor: ctor})
}

// Lookup returns the first registered driver whose Identity matches
// (vendorID, productID), in registration order, constructing a fresh
// Driver instance. ok is false when nothing matches.
func Lookup(vendorID, productID uint16) (drv Driver, ok bool) {
	for _, r := range registrations {
		if r.id.VendorID == vendorID && r.id.ProductID == productID {
			return r.ctor(r.id), true
		}
	}
	return nil, false
}

// All returns the Identity of every registered driver, in registration
// order. Used by the registry's serial discovery to find the registered
// Serial-kind family; HID enumeration matches every VID/PID instead.
func All() []Identity {
	ids := make([]Identity, len(registrations))
	for i, r := range registrations {
		ids[i] = r.id
	}
	return ids
}

// ClampLED checks idx against a device exposing ledCount LEDs and returns
// it unchanged. It never fails: an out-of-range index is reported to the caller
// via ok=false so the caller can log a warning and skip the write
// (spec.md's LedIndex "clamped away, no-op, warn" rule), rather than by
// returning an error.
func ClampLED(idx light.Index, ledCount int) (light.Index, bool) {
	if !idx.InRange(ledCount) {
		return idx, false
	}
	return idx, true
}
