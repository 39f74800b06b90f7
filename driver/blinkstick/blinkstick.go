// Package blinkstick implements the variable-length, report-ID-selected
// light family (modelled on the Agile Innovative BlinkStick): 24-bit
// colour is written G,R,B (not R,G,B), per-LED addressing uses an indexed
// report, and whole-strip addressing uses an 8-LED dataframe report whose
// length is 2 + 8*3 bytes (P8). The firmware implements no hardware
// blink, so this driver never implements driver.NativeBlinker — the
// engine always synthesises blink for this family.
package blinkstick

import (
	"ledctl.dev/driver"
	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

const (
	VendorID  uint16 = 0x20a0
	ProductID uint16 = 0x41e5
)

// LEDCount is the strip length this driver addresses; real BlinkStick
// devices report their own length, but the 8-LED Pro dataframe is the
// shape P8 specifies bit-for-bit.
const LEDCount = 8

// Report IDs, matching the family's leading-byte report selector.
const (
	reportIndexed   byte = 5 // [id, index, G, R, B]
	reportDataFrame byte = 6 // [id, channel, (G,R,B)*LEDCount]
)

const dataFrameChannel byte = 0

func init() {
	driver.Register(driver.Identity{
		VendorID:      VendorID,
		ProductID:     ProductID,
		LogicalName:   "BlinkStick",
		LEDCount:      LEDCount,
		TransportKind: driver.HID,
		Keepalive:     driver.Stateless,
	}, func(id driver.Identity) driver.Driver {
		return Driver{id: id}
	})
}

// Driver implements driver.Driver for the BlinkStick family.
type Driver struct {
	id driver.Identity
}

func (d Driver) Identity() driver.Identity { return d.id }

// dataFrame builds the whole-strip report: 2 header bytes plus 3 bytes
// (G,R,B) per LED, length 2+3*LEDCount (P8 for LEDCount==8).
func dataFrame(c ledcolor.Color) driver.Frame {
	f := make(driver.Frame, 2+3*LEDCount)
	f[0] = reportDataFrame
	f[1] = dataFrameChannel
	for i := 0; i < LEDCount; i++ {
		base := 2 + i*3
		f[base+0] = c.G
		f[base+1] = c.R
		f[base+2] = c.B
	}
	return f
}

func indexedFrame(idx byte, c ledcolor.Color) driver.Frame {
	return driver.Frame{reportIndexed, idx, c.G, c.R, c.B}
}

func (d Driver) EncodeSolid(c ledcolor.Color, led light.Index) []driver.Frame {
	if led == light.All {
		return []driver.Frame{dataFrame(c)}
	}
	return []driver.Frame{indexedFrame(byte(led-1), c)}
}

func (d Driver) EncodeOff(led light.Index) []driver.Frame {
	return d.EncodeSolid(ledcolor.Black, led)
}

// EncodeKeepAlive never fires: the family is Stateless.
func (d Driver) EncodeKeepAlive(last ledcolor.Color, led light.Index) (driver.Frame, bool) {
	return nil, false
}
