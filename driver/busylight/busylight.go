// Package busylight implements the 64-byte programmable light family
// (modelled on the Kuando Busylight): a fixed-size command word with a
// checksummed tail, PWM colour channels clamped to [0,100], tenths-of-a-
// second on/off durations, and a required keep-alive (the family is
// stateful, interval_s <= 15, per spec.md §4.2). Checksum construction is
// bit-for-bit per spec.md §4.2 and P6: the last two bytes equal the
// unsigned 16-bit sum of the preceding 62 bytes, big-endian.
package busylight

import (
	"ledctl.dev/driver"
	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

const (
	VendorID  uint16 = 0x27bb
	ProductID uint16 = 0x3bcd
)

const reportLen = 64

// Offsets within the 64-byte report. Bytes 11..61 are reserved/zero-filled
// in every report this driver emits; only the first command word carries
// colour and timing.
const (
	offReportID  = 0
	offCmd       = 1
	offRed       = 2
	offGreen     = 3
	offBlue      = 4
	offOnTenths  = 5
	offOffTenths = 6
	offPad0      = 7
	offPad1      = 8
	offPad2      = 9
	offRepeat    = 10
	checksumLen  = reportLen - 2 // first 62 bytes feed the checksum
)

const (
	cmdSetColor byte = 0x10
	cmdOff      byte = 0x00
	padByte     byte = 0xFF

	// MaxInterval is the largest legal keep-alive interval for this
	// family (spec.md §4.2: "interval_s <= 15").
	MaxInterval = 15
	// KeepaliveInterval is the interval this driver's Identity declares.
	KeepaliveInterval = 10
)

func init() {
	driver.Register(driver.Identity{
		VendorID:      VendorID,
		ProductID:     ProductID,
		LogicalName:   "Busylight",
		LEDCount:      1,
		TransportKind: driver.HID,
		Keepalive:     driver.Keepalive{Stateful: true, IntervalS: KeepaliveInterval},
	}, func(id driver.Identity) driver.Driver {
		return Driver{id: id}
	})
}

// Driver implements driver.Driver for the 64-byte family.
type Driver struct {
	id driver.Identity
}

func (d Driver) Identity() driver.Identity { return d.id }

// clampPWM clamps an 8-bit channel value into the [0,100] PWM range the
// firmware accepts. This is a clamp, not a rescale: a channel value of 10
// is sent as 10, matching S4; only values above 100 are truncated. The
// documented [0,100] clamp is used rather than the wider [0,255] some
// firmware revisions reportedly accept (spec.md §9 Open Questions).
func clampPWM(v byte) byte {
	if v > 100 {
		return 100
	}
	return v
}

func report(cmd byte, c ledcolor.Color, onTenths, offTenths, repeat byte) driver.Frame {
	f := make(driver.Frame, reportLen)
	f[offReportID] = 0x00
	f[offCmd] = cmd
	f[offRed] = clampPWM(c.R)
	f[offGreen] = clampPWM(c.G)
	f[offBlue] = clampPWM(c.B)
	f[offOnTenths] = onTenths
	f[offOffTenths] = offTenths
	f[offPad0], f[offPad1], f[offPad2] = padByte, padByte, padByte
	f[offRepeat] = repeat
	checksum(f)
	return f
}

// checksum fills the last two bytes of f with the big-endian unsigned
// 16-bit sum of f[:62] (P6).
func checksum(f driver.Frame) {
	var sum uint16
	for _, b := range f[:checksumLen] {
		sum += uint16(b)
	}
	f[checksumLen] = byte(sum >> 8)
	f[checksumLen+1] = byte(sum)
}

// EncodeSolid emits a steady program: on forever (duration 0 means "hold"),
// no off phase. led is ignored; the family has a single LED.
func (d Driver) EncodeSolid(c ledcolor.Color, led light.Index) []driver.Frame {
	return []driver.Frame{report(cmdSetColor, c, 0, 0, 0)}
}

func (d Driver) EncodeOff(led light.Index) []driver.Frame {
	return []driver.Frame{report(cmdOff, ledcolor.Black, 0, 0, 0)}
}

// EncodeKeepAlive re-sends the steady program for the last commanded
// colour: the family's firmware does not distinguish a keep-alive from a
// regular command, it simply needs to see the same program again before
// its watchdog (interval_s) elapses.
func (d Driver) EncodeKeepAlive(last ledcolor.Color, led light.Index) (driver.Frame, bool) {
	return report(cmdSetColor, last, 0, 0, 0), true
}
