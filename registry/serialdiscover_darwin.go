//go:build darwin

package registry

import (
	"log/slog"
	"path/filepath"

	"ledctl.dev/driver"
	"ledctl.dev/transport"
)

// discoverSerial globs the macOS USB-serial callout device nodes. macOS
// exposes no simple sysfs-equivalent for an arbitrary tty's vendor/product
// ids, so every candidate is matched against the single registered
// Serial-kind driver family when there is exactly one, mirroring the
// Linux path's fallback.
func discoverSerial(logger *slog.Logger) []transport.Locator {
	matches, err := filepath.Glob("/dev/cu.usbserial-*")
	if err != nil {
		logger.Warn("serial glob failed", "error", err)
		return nil
	}
	more, err := filepath.Glob("/dev/cu.usbmodem*")
	if err != nil {
		logger.Warn("serial glob failed", "error", err)
	} else {
		matches = append(matches, more...)
	}

	id, ok := soleSerialIdentity()
	var out []transport.Locator
	for _, p := range matches {
		loc := transport.Locator{Path: p}
		if ok {
			loc.VendorID, loc.ProductID = id.VendorID, id.ProductID
		}
		out = append(out, loc)
	}
	return out
}

func soleSerialIdentity() (driver.Identity, bool) {
	var found driver.Identity
	count := 0
	for _, id := range driver.All() {
		if id.TransportKind == driver.Serial {
			found = id
			count++
		}
	}
	if count == 1 {
		return found, true
	}
	return driver.Identity{}, false
}
