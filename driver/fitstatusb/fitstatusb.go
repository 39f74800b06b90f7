// Package fitstatusb implements the text-over-serial light family
// (modelled on the CompuLab fit-statUSB): the driver writes a short ASCII
// command terminated by a line separator; the firmware is stateless and
// keeps no connection state between commands (spec.md §4.2). The family
// exposes two addressable zones (front and rear) plus "both".
package fitstatusb

import (
	"fmt"

	"ledctl.dev/driver"
	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

// VendorID and ProductID identify the family on the USB-serial bridge.
// Serial devices of this family enumerate as a CDC-ACM port rather than a
// raw HID device; the registry matches them by the same VID/PID table
// nonetheless (the CDC descriptor still carries vendor/product IDs).
const (
	VendorID  uint16 = 0x10c4
	ProductID uint16 = 0xea60
)

const ledCount = 2 // 1 = front, 2 = rear

// lineTerminator ends every command, matching the firmware's line-oriented
// parser.
const lineTerminator = "\r\n"

func init() {
	driver.Register(driver.Identity{
		VendorID:      VendorID,
		ProductID:     ProductID,
		LogicalName:   "fit-statUSB",
		LEDCount:      ledCount,
		TransportKind: driver.Serial,
		Keepalive:     driver.Stateless,
	}, func(id driver.Identity) driver.Driver {
		return Driver{id: id}
	})
}

// Driver implements driver.Driver for the text-over-serial family. It
// never implements driver.NativeBlinker: the firmware has no flash command,
// so the engine always synthesises blink for this family.
type Driver struct {
	id driver.Identity
}

func (d Driver) Identity() driver.Identity { return d.id }

func zoneLetter(led light.Index) byte {
	switch led {
	case light.Index(1):
		return 'F'
	case light.Index(2):
		return 'R'
	default:
		return 'B'
	}
}

func command(led light.Index, c ledcolor.Color) driver.Frame {
	s := fmt.Sprintf("%c#%02X%02X%02X%s", zoneLetter(led), c.R, c.G, c.B, lineTerminator)
	return driver.Frame(s)
}

func (d Driver) EncodeSolid(c ledcolor.Color, led light.Index) []driver.Frame {
	return []driver.Frame{command(led, c)}
}

func (d Driver) EncodeOff(led light.Index) []driver.Frame {
	return []driver.Frame{command(led, ledcolor.Black)}
}

// EncodeKeepAlive never fires: the family is Stateless.
func (d Driver) EncodeKeepAlive(last ledcolor.Color, led light.Index) (driver.Frame, bool) {
	return nil, false
}
