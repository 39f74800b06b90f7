// Package hid adapts github.com/sstallion/go-hid (a cgo binding over
// hidapi) to the transport.Transport contract. It owns the platform detail
// of the HID report-ID prefix so that drivers (package driver/...) only
// ever see the logical report bytes they themselves assembled.
package hid

import (
	"fmt"
	"sync"
	"time"

	gohid "github.com/sstallion/go-hid"

	"ledctl.dev/transport"
)

var (
	initOnce sync.Once
	initErr  error
)

func ensureInit() error {
	initOnce.Do(func() {
		initErr = gohid.Init()
	})
	return initErr
}

// Transport is a single opened HID device handle.
type Transport struct {
	mu     sync.Mutex
	dev    *gohid.Device
	closed bool
}

// Open opens the device at loc.Path when known (stable across a
// close/reopen cycle, since paths survive device re-enumeration on most
// platforms as long as the physical port doesn't change), falling back to
// the first device matching VendorID/ProductID.
func Open(loc transport.Locator) (*Transport, error) {
	if err := ensureInit(); err != nil {
		return nil, fmt.Errorf("hid: init hidapi: %w", err)
	}
	var (
		dev *gohid.Device
		err error
	)
	if loc.Path != "" {
		dev, err = gohid.OpenPath(loc.Path)
	} else {
		dev, err = gohid.OpenFirst(loc.VendorID, loc.ProductID)
	}
	if err != nil {
		return nil, fmt.Errorf("hid: open %+v: %w", loc, classifyOpenErr(err))
	}
	return &Transport{dev: dev}, nil
}

// Enumerate lists every currently attached HID device matching vendorID and
// productID. Pass 0 for either to match any value.
func Enumerate(vendorID, productID uint16) ([]transport.Locator, error) {
	if err := ensureInit(); err != nil {
		return nil, fmt.Errorf("hid: init hidapi: %w", err)
	}
	var locs []transport.Locator
	err := gohid.Enumerate(vendorID, productID, func(info *gohid.DeviceInfo) error {
		locs = append(locs, transport.Locator{
			Path:      info.Path,
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
			Serial:    info.SerialNbr,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hid: enumerate: %w", err)
	}
	return locs, nil
}

// Write sends one HID output report. frame must already begin with the
// logical report-ID byte (0x00 for devices using the single unnumbered
// report, as every ledctl driver assembles); hidapi takes care of the
// Windows-only requirement that the OS-level buffer be one byte longer
// than the report, so drivers and callers never special-case it.
func (t *Transport) Write(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return transport.ErrClosed
	}
	if _, err := t.dev.Write(frame); err != nil {
		return fmt.Errorf("hid: write: %w", classifyIOErr(err))
	}
	return nil
}

// Read reads up to len(buf) bytes of an input report (button-press
// feedback on the few devices that expose it), blocking for at most
// timeout.
func (t *Transport) Read(buf []byte, timeout time.Duration) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, transport.ErrClosed
	}
	n, err := t.dev.ReadWithTimeout(buf, timeout)
	if err != nil {
		return n, fmt.Errorf("hid: read: %w", classifyIOErr(err))
	}
	if n == 0 {
		return 0, transport.ErrTimeout
	}
	return n, nil
}

// Close releases the OS handle. Idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.dev.Close()
}

// classifyOpenErr folds every hidapi open failure into ErrPermissionDenied.
// hidapi does not reliably distinguish not-found from permission-denied
// from busy across platforms, and the registry (the only caller) handles
// all three identically: log and skip this device for the current
// enumeration cycle.
func classifyOpenErr(err error) error {
	return fmt.Errorf("%w: %v", transport.ErrPermissionDenied, err)
}

func classifyIOErr(err error) error {
	return fmt.Errorf("%w: %v", transport.ErrIO, err)
}
