//go:build linux

package registry

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ledctl.dev/driver"
	"ledctl.dev/transport"
)

// discoverSerial globs the usual Linux USB-serial device nodes and, where
// sysfs exposes the backing USB device's idVendor/idProduct, attaches them
// to the Locator so driver.Lookup can match by (VendorID, ProductID) the
// same way HID enumeration does. When sysfs doesn't expose the ids (the
// tty isn't USB-backed, or the kernel was built without it) the locator is
// given the ids of the single registered Serial-kind driver, if there is
// exactly one, since a bare tty path carries no other signal; otherwise it
// is returned with VendorID/ProductID left at 0.
func discoverSerial(logger *slog.Logger) []transport.Locator {
	var paths []string
	for _, pattern := range []string{"/dev/ttyUSB*", "/dev/ttyACM*"} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			logger.Warn("serial glob failed", "pattern", pattern, "error", err)
			continue
		}
		paths = append(paths, matches...)
	}

	var out []transport.Locator
	for _, p := range paths {
		vid, pid, ok := readUSBIDs(p)
		if !ok {
			if fallback, ok := soleSerialIdentity(); ok {
				vid, pid = fallback.VendorID, fallback.ProductID
			}
		}
		out = append(out, transport.Locator{Path: p, VendorID: vid, ProductID: pid})
	}
	return out
}

// readUSBIDs resolves ttyPath (e.g. "/dev/ttyUSB0") to its backing USB
// device's vendor/product ids via sysfs:
// /sys/class/tty/<name>/device/../idVendor and .../idProduct.
func readUSBIDs(ttyPath string) (vendorID, productID uint16, ok bool) {
	name := filepath.Base(ttyPath)
	base := filepath.Join("/sys/class/tty", name, "device", "..")
	vid, err := readHexFile(filepath.Join(base, "idVendor"))
	if err != nil {
		return 0, 0, false
	}
	pid, err := readHexFile(filepath.Join(base, "idProduct"))
	if err != nil {
		return 0, 0, false
	}
	return vid, pid, true
}

func readHexFile(path string) (uint16, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(b)), 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// soleSerialIdentity returns the one registered Serial-kind driver identity
// when exactly one exists, so an unidentifiable serial port still has a
// chance of being matched (spec.md's driver set ships a single
// ASCII-over-serial family).
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
