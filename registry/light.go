// Package registry owns device enumeration, opening, and the live set of
// Lights (spec.md §4.3). It knows nothing about effects or scheduling —
// that is package engine's job, layered on top.
package registry

import (
	"sync"

	"github.com/google/uuid"

	"ledctl.dev/driver"
	"ledctl.dev/ledcolor"
	"ledctl.dev/transport"
)

// Light is a successfully opened physical device (spec.md §3). Exactly one
// Registry owns a Light's driver and OS handle; callers obtain Lights only
// through a Selection resolved against a Snapshot, never by constructing
// one directly.
type Light struct {
	// id is a stable synthetic identity used to track a Light across
	// snapshots even when the OS path changes between opens. It is not
	// derived from anything hardware-stable when the device has no
	// serial number; google/uuid generates it once at open time.
	id        string
	identity  driver.Identity
	locator   transport.Locator
	driver    driver.Driver
	transport transport.Transport

	mu           sync.Mutex
	lastColor    ledcolor.Color
	lastEffect   string // "" means off/dark
	acquiredOnce bool
}

func newLight(id driver.Identity, loc transport.Locator, drv driver.Driver, tr transport.Transport) *Light {
	stableID := loc.Serial
	if stableID == "" {
		stableID = uuid.NewString()
	}
	return &Light{
		id:           stableID,
		identity:     id,
		locator:      loc,
		driver:       drv,
		transport:    tr,
		acquiredOnce: true,
	}
}

// ID returns the stable identity used to diff snapshots and to key running
// Tasks (spec.md §9 "Per-Light ownership graph": the engine holds tasks by
// ID, never by a strong reference into the Registry).
func (l *Light) ID() string { return l.id }

// Identity returns the static family description the driver declared.
func (l *Light) Identity() driver.Identity { return l.identity }

// Driver returns the protocol driver instance bound to this Light.
func (l *Light) Driver() driver.Driver { return l.driver }

// Write serializes frames onto the Light's transport, one at a time, in
// the order given, under the Light's mutex (invariant P1: at most one
// writer at a time). It stops at the first error.
func (l *Light) Write(frames []driver.Frame) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range frames {
		if err := l.transport.Write(f); err != nil {
			return err
		}
	}
	return nil
}

// Reopen closes and reopens the underlying transport at the same locator,
// used by the close-reopen-retry rule (spec.md §7, Io-transient).
func (l *Light) Reopen(open func(transport.Locator) (transport.Transport, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.transport.Close()
	tr, err := open(l.locator)
	if err != nil {
		return err
	}
	l.transport = tr
	return nil
}

// Close releases the Light's OS handle. Idempotent.
func (l *Light) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transport.Close()
}

// RecordState updates the last-commanded state memo used by keep-alive
// frames and by Info(). effectName == "" records "off".
func (l *Light) RecordState(effectName string, c ledcolor.Color) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastEffect = effectName
	l.lastColor = c
}

// LastColor returns the most recently commanded colour, used by the
// keep-alive encoder to "renew current colour" (spec.md §4.4).
func (l *Light) LastColor() ledcolor.Color {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastColor
}

// Info is the read-only snapshot shape spec.md §6's list() returns. ID is
// ledctl's own addition: the engine and other internal subscribers need a
// stable key to associate a Plugged/Unplugged event with the Task state
// they're tracking, which a positional Index cannot provide across a
// re-enumeration.
type Info struct {
	ID          string
	Index       int
	LogicalName string
	VendorID    uint16
	ProductID   uint16
	Serial      string
	IsAcquired  bool
	LastColor   ledcolor.Color
}

// Info returns a point-in-time snapshot of l's public state. index is
// supplied by the caller (the Snapshot knows insertion order; the Light
// itself doesn't).
func (l *Light) Info(index int) Info {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Info{
		ID:          l.id,
		Index:       index,
		LogicalName: l.identity.LogicalName,
		VendorID:    l.identity.VendorID,
		ProductID:   l.identity.ProductID,
		Serial:      l.locator.Serial,
		IsAcquired:  l.acquiredOnce,
		LastColor:   l.lastColor,
	}
}
