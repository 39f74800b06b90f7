// Package muteme implements the 2-byte HID light family (modelled on the
// MuteMe button): only a single bit per channel (3-bit colour), plus
// dedicated dim and blink bits, per spec.md §4.2. The engine passes 8-bit
// colours through unquantised; EncodeSolid and EncodeBlinkNative quantise
// them internally.
package muteme

import (
	"ledctl.dev/driver"
	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

const (
	VendorID  uint16 = 0x20a0
	ProductID uint16 = 0x42da
)

const reportLen = 2

// Bit positions within byte 0.
const (
	bitRed = 1 << iota
	bitGreen
	bitBlue
	bitDim
	bitBlink
)

// quantizeThreshold is the channel value at and above which a channel is
// considered "on" for this 1-bit-per-channel family.
const quantizeThreshold = 128

// dimThreshold: a non-black colour whose brightest channel is still below
// this value is reported at reduced brightness via bitDim, since the wire
// format has no continuous brightness control.
const dimThreshold = 128

// Quantize reduces an 8-bit channel to a single bit: on when v is at or
// above quantizeThreshold.
func Quantize(v byte) bool {
	return v >= quantizeThreshold
}

func init() {
	driver.Register(driver.Identity{
		VendorID:      VendorID,
		ProductID:     ProductID,
		LogicalName:   "MuteMe",
		LEDCount:      1,
		TransportKind: driver.HID,
		Keepalive:     driver.Stateless,
	}, func(id driver.Identity) driver.Driver {
		return Driver{id: id}
	})
}

// Driver implements driver.Driver and driver.NativeBlinker for the 2-byte
// mute family.
type Driver struct {
	id driver.Identity
}

func (d Driver) Identity() driver.Identity { return d.id }

func maxChannel(c ledcolor.Color) byte {
	m := c.R
	if c.G > m {
		m = c.G
	}
	if c.B > m {
		m = c.B
	}
	return m
}

func report(c ledcolor.Color, blink bool) driver.Frame {
	var b0 byte
	if Quantize(c.R) {
		b0 |= bitRed
	}
	if Quantize(c.G) {
		b0 |= bitGreen
	}
	if Quantize(c.B) {
		b0 |= bitBlue
	}
	if !c.IsBlack() && maxChannel(c) < dimThreshold {
		b0 |= bitDim
	}
	if blink {
		b0 |= bitBlink
	}
	return driver.Frame{b0, 0x00}
}

// EncodeSolid ignores led: the family exposes a single LED.
func (d Driver) EncodeSolid(c ledcolor.Color, led light.Index) []driver.Frame {
	return []driver.Frame{report(c, false)}
}

func (d Driver) EncodeOff(led light.Index) []driver.Frame {
	return []driver.Frame{report(ledcolor.Black, false)}
}

// EncodeKeepAlive never fires: the family is Stateless.
func (d Driver) EncodeKeepAlive(last ledcolor.Color, led light.Index) (driver.Frame, bool) {
	return nil, false
}

// EncodeBlinkNative sets the hardware blink bit alongside the quantised
// on-colour when offColor is black; any other off colour is unsupported
// and the engine falls back to software-synthesised blink.
func (d Driver) EncodeBlinkNative(onColor, offColor ledcolor.Color, speed driver.Speed) ([]driver.Frame, bool) {
	if !offColor.IsBlack() {
		return nil, false
	}
	return []driver.Frame{report(onColor, true)}, true
}
