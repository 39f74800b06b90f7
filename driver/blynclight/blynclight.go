// Package blynclight implements the 9-byte HID light family (modelled on
// the Embrava Blynclight): a single fixed-size output report, wire colour
// order R,B,G (not R,G,B), dedicated flash/speed bits, and a constant
// 0xFF22 tail. Byte layout and legal flash speeds are bit-for-bit per
// spec.md §4.2 and verified by P7 and scenarios S1/S2.
package blynclight

import (
	"ledctl.dev/driver"
	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

// VendorID and ProductID identify the family on the USB bus.
const (
	VendorID  uint16 = 0x2c0d
	ProductID uint16 = 0x0010
)

const reportLen = 9

// Byte offsets within the 9-byte report.
const (
	offReportID = 0
	offRed      = 1
	offBlue     = 2
	offGreen    = 3
	offOff      = 4 // 1 = LED off regardless of colour fields
	offFlash    = 5 // 1 = hardware flash enabled
	offSpeed    = 6 // legal values: 1, 2, 4
	offTailHi   = 7
	offTailLo   = 8
)

const (
	tailHi byte = 0xFF
	tailLo byte = 0x22
)

// Legal flash speed values; anything else induces strobe and must never be
// sent (spec.md §4.2).
const (
	SpeedSlow   byte = 1
	SpeedMedium byte = 2
	SpeedFast   byte = 4
)

func init() {
	driver.Register(driver.Identity{
		VendorID:      VendorID,
		ProductID:     ProductID,
		LogicalName:   "Blynclight",
		LEDCount:      1,
		TransportKind: driver.HID,
		Keepalive:     driver.Stateless,
	}, func(id driver.Identity) driver.Driver {
		return Driver{id: id}
	})
}

// Driver implements driver.Driver and driver.NativeBlinker for the 9-byte
// family.
type Driver struct {
	id driver.Identity
}

func (d Driver) Identity() driver.Identity { return d.id }

func report(c ledcolor.Color, off, flash bool, speed byte) driver.Frame {
	f := make(driver.Frame, reportLen)
	f[offReportID] = 0x00
	f[offRed] = c.R
	f[offBlue] = c.B
	f[offGreen] = c.G
	if off {
		f[offOff] = 1
	}
	if flash {
		f[offFlash] = 1
		f[offSpeed] = speed
	}
	f[offTailHi] = tailHi
	f[offTailLo] = tailLo
	return f
}

// EncodeSolid ignores led: the family exposes a single LED, so led=0 and
// led=1 are indistinguishable in output bytes (P10).
func (d Driver) EncodeSolid(c ledcolor.Color, led light.Index) []driver.Frame {
	return []driver.Frame{report(c, false, false, 0)}
}

func (d Driver) EncodeOff(led light.Index) []driver.Frame {
	return []driver.Frame{report(ledcolor.Black, true, false, 0)}
}

// EncodeKeepAlive never fires: the family is Stateless.
func (d Driver) EncodeKeepAlive(last ledcolor.Color, led light.Index) (driver.Frame, bool) {
	return nil, false
}

// EncodeBlinkNative programs the hardware flash bit when offColor is black
// (the only pattern the firmware's single-colour flash circuit can
// express) and speed maps to one of the three legal values; any other
// off colour is unsupported and the engine falls back to software-
// synthesised blink.
func (d Driver) EncodeBlinkNative(onColor, offColor ledcolor.Color, speed driver.Speed) ([]driver.Frame, bool) {
	if !offColor.IsBlack() {
		return nil, false
	}
	var hwSpeed byte
	switch speed {
	case driver.SpeedSlow:
		hwSpeed = SpeedSlow
	case driver.SpeedMedium:
		hwSpeed = SpeedMedium
	case driver.SpeedFast:
		hwSpeed = SpeedFast
	default:
		return nil, false
	}
	return []driver.Frame{report(onColor, false, true, hwSpeed)}, true
}
