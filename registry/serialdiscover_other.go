//go:build !linux && !darwin

package registry

import (
	"log/slog"

	"ledctl.dev/transport"
)

// discoverSerial has no known device-node convention to glob on this
// platform; serial-attached lights simply never appear in Snapshots here.
// HID lights are unaffected.
func discoverSerial(logger *slog.Logger) []transport.Locator {
	return nil
}
