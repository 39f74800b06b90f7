// Package luxafor implements the 8-byte command-selector light family
// (modelled on the Luxafor Flag): byte 0 selects a command (steady, fade,
// strobe, wave, pattern), byte 1 is an LED mask, bytes 2..4 are R,G,B, and
// the remaining bytes are command-specific parameters, per spec.md §4.2.
package luxafor

import (
	"ledctl.dev/driver"
	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

const (
	VendorID  uint16 = 0x04d8
	ProductID uint16 = 0xf372
)

const reportLen = 8
const ledCount = 6

// Command selectors.
const (
	cmdSteady byte = 1
	cmdFade   byte = 2
	cmdStrobe byte = 3
	cmdWave   byte = 4
	cmdStatic byte = 5
)

// ledAll is the mask value addressing every LED at once.
const ledAll byte = 0xFF

const (
	offCmd    = 0
	offLED    = 1
	offRed    = 2
	offGreen  = 3
	offBlue   = 4
	offParam1 = 5
	offParam2 = 6
	offParam3 = 7
)

func init() {
	driver.Register(driver.Identity{
		VendorID:      VendorID,
		ProductID:     ProductID,
		LogicalName:   "Luxafor Flag",
		LEDCount:      ledCount,
		TransportKind: driver.HID,
		Keepalive:     driver.Stateless,
	}, func(id driver.Identity) driver.Driver {
		return Driver{id: id}
	})
}

// Driver implements driver.Driver and driver.NativeBlinker for the 8-byte
// command-selector family.
type Driver struct {
	id driver.Identity
}

func (d Driver) Identity() driver.Identity { return d.id }

func ledMask(idx light.Index) byte {
	if idx == light.All {
		return ledAll
	}
	return byte(idx)
}

func report(cmd byte, led light.Index, c ledcolor.Color, p1, p2, p3 byte) driver.Frame {
	f := make(driver.Frame, reportLen)
	f[offCmd] = cmd
	f[offLED] = ledMask(led)
	f[offRed] = c.R
	f[offGreen] = c.G
	f[offBlue] = c.B
	f[offParam1] = p1
	f[offParam2] = p2
	f[offParam3] = p3
	return f
}

func (d Driver) EncodeSolid(c ledcolor.Color, led light.Index) []driver.Frame {
	return []driver.Frame{report(cmdSteady, led, c, 0, 0, 0)}
}

func (d Driver) EncodeOff(led light.Index) []driver.Frame {
	return []driver.Frame{report(cmdSteady, led, ledcolor.Black, 0, 0, 0)}
}

func (d Driver) EncodeKeepAlive(last ledcolor.Color, led light.Index) (driver.Frame, bool) {
	return nil, false
}

// speedParam maps the engine's three dwell tiers to the strobe command's
// repeat-rate parameter (larger value, slower flash).
func speedParam(speed driver.Speed) (byte, bool) {
	switch speed {
	case driver.SpeedSlow:
		return 40, true
	case driver.SpeedMedium:
		return 20, true
	case driver.SpeedFast:
		return 8, true
	default:
		return 0, false
	}
}

// EncodeBlinkNative programs the hardware strobe command when offColor is
// black, the only pattern the firmware's strobe circuit (flash a single
// colour against dark) can express; any other off colour falls back to
// engine-synthesised blink.
func (d Driver) EncodeBlinkNative(onColor, offColor ledcolor.Color, speed driver.Speed) ([]driver.Frame, bool) {
	if !offColor.IsBlack() {
		return nil, false
	}
	p, ok := speedParam(speed)
	if !ok {
		return nil, false
	}
	return []driver.Frame{report(cmdStrobe, light.All, onColor, p, 0, 0)}, true
}
