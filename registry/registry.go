package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"ledctl.dev/driver"
	hidtransport "ledctl.dev/transport/hid"
	serialtransport "ledctl.dev/transport/serial"

	"ledctl.dev/transport"
)

// DefaultPollInterval matches spec.md §4.3's default.
const DefaultPollInterval = 1 * time.Second

// Registry discovers devices, owns their handles, and publishes a
// Snapshot. It never knows about effects or tasks: package engine
// subscribes to its Plugged/Unplugged events and reads its Snapshot.
type Registry struct {
	pollInterval time.Duration
	logger       *slog.Logger

	snapshot atomic.Pointer[Snapshot]

	mu          sync.Mutex
	subsPlugged []func(Info)
	subsUnplug  []func(Info)
	watchers    int

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(r *Registry) { r.pollInterval = d }
}

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New constructs a Registry and performs one synchronous enumeration so a
// Snapshot is available immediately, then returns without starting the
// background poller — call Run to start polling.
func New(opts ...Option) *Registry {
	r := &Registry{
		pollInterval: DefaultPollInterval,
		logger:       slog.Default(),
		wake:         make(chan struct{}, 1),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	r.snapshot.Store(&Snapshot{})
	r.enumerateOnce()
	return r
}

// Snapshot returns the most recently published Snapshot. Never nil.
func (r *Registry) Snapshot() *Snapshot {
	return r.snapshot.Load()
}

// OnPlugged registers cb to be called (from the poll goroutine) whenever a
// new device is discovered. Registering a subscriber marks the Registry as
// watched, waking the poll loop out of its dormant state (spec.md §4.3:
// "poll_interval default 1s when anything is watching; otherwise
// dormant").
func (r *Registry) OnPlugged(cb func(Info)) {
	r.mu.Lock()
	r.subsPlugged = append(r.subsPlugged, cb)
	r.watchers++
	r.mu.Unlock()
	r.nudge()
}

// OnUnplugged registers cb to be called whenever a device disappears.
func (r *Registry) OnUnplugged(cb func(Info)) {
	r.mu.Lock()
	r.subsUnplug = append(r.subsUnplug, cb)
	r.watchers++
	r.mu.Unlock()
	r.nudge()
}

func (r *Registry) nudge() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Registry) isWatched() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watchers > 0
}

// Run drives the poll loop until ctx is cancelled or Shutdown is called.
// It blocks: callers run it in its own goroutine.
func (r *Registry) Run(ctx context.Context) {
	defer close(r.done)
	for {
		var wait <-chan time.Time
		if r.isWatched() {
			wait = time.After(r.pollInterval)
		}
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-r.wake:
			if r.isWatched() {
				r.enumerateOnce()
			}
		case <-wait:
			r.enumerateOnce()
		}
	}
}

// Shutdown stops the poller and closes every Light's transport (the engine
// is expected to have already cancelled its Tasks; Shutdown cancels
// nothing itself), and is idempotent.
func (r *Registry) Shutdown() {
	select {
	case <-r.stop:
		// already stopped
	default:
		close(r.stop)
	}
	for _, l := range r.snapshot.Load().All() {
		_ = l.Close()
	}
}

// enumerateOnce performs one discovery pass across HID and serial, opens
// newly-seen devices, diffs against the current Snapshot, publishes the
// new Snapshot atomically, and fires Plugged/Unplugged callbacks.
func (r *Registry) enumerateOnce() {
	locs := r.discover()

	prev := r.snapshot.Load()
	prevByKey := make(map[string]*Light, prev.Len())
	for _, l := range prev.All() {
		prevByKey[lightKey(l.identity, l.locator)] = l
	}

	next := &Snapshot{}
	seen := make(map[string]bool, len(locs))
	for _, loc := range locs {
		drv, ok := driver.Lookup(loc.VendorID, loc.ProductID)
		if !ok {
			continue
		}
		key := lightKey(drv.Identity(), loc)
		seen[key] = true
		if existing, ok := prevByKey[key]; ok {
			next.lights = append(next.lights, existing)
			continue
		}
		light, err := r.open(drv, loc)
		if err != nil {
			r.logger.Warn("skipping device this enumeration cycle", "locator", loc, "error", err)
			continue
		}
		next.lights = append(next.lights, light)
	}

	var removed []*Light
	for key, l := range prevByKey {
		if !seen[key] {
			removed = append(removed, l)
		}
	}

	r.snapshot.Store(next)

	for i, l := range next.lights {
		if _, existed := prevByKey[lightKey(l.identity, l.locator)]; !existed {
			r.fireEvent(r.subsPlugged, l.Info(i))
		}
	}
	for _, l := range removed {
		r.fireEvent(r.subsUnplug, l.Info(-1))
		_ = l.Close()
	}
}

func (r *Registry) fireEvent(subs []func(Info), info Info) {
	r.mu.Lock()
	cbs := append([]func(Info){}, subs...)
	r.mu.Unlock()
	for _, cb := range cbs {
		cb(info)
	}
}

func lightKey(id driver.Identity, loc transport.Locator) string {
	if loc.Serial != "" {
		return fmt.Sprintf("%04x:%04x:%s", id.VendorID, id.ProductID, loc.Serial)
	}
	return fmt.Sprintf("%04x:%04x:%s", id.VendorID, id.ProductID, loc.Path)
}

// open dials the transport matching id's TransportKind and wraps it into a
// new Light.
func (r *Registry) open(drv driver.Driver, loc transport.Locator) (*Light, error) {
	switch drv.Identity().TransportKind {
	case driver.HID:
		tr, err := hidtransport.Open(loc)
		if err != nil {
			return nil, err
		}
		return newLight(drv.Identity(), loc, drv, tr), nil
	case driver.Serial:
		tr, err := serialtransport.Open(loc, serialtransport.Config{})
		if err != nil {
			return nil, err
		}
		return newLight(drv.Identity(), loc, drv, tr), nil
	default:
		return nil, fmt.Errorf("registry: unknown transport kind %v", drv.Identity().TransportKind)
	}
}

// discover merges HID and serial candidate locators across every
// registered driver family.
func (r *Registry) discover() []transport.Locator {
	var out []transport.Locator
	if locs, err := hidtransport.Enumerate(0, 0); err != nil {
		r.logger.Warn("hid enumeration failed", "error", err)
	} else {
		out = append(out, locs...)
	}
	out = append(out, discoverSerial(r.logger)...)
	return out
}

// List returns the public Info for every Light in the current Snapshot,
// in insertion order, matching spec.md §6's list().
func (r *Registry) List() []Info {
	snap := r.Snapshot()
	infos := make([]Info, snap.Len())
	for i, l := range snap.All() {
		infos[i] = l.Info(i)
	}
	return infos
}

// ReopenTransport closes and reopens l's transport at its existing
// locator, using the same driver-kind dispatch as initial open.
func (r *Registry) ReopenTransport(l *Light) error {
	switch l.driver.Identity().TransportKind {
	case driver.HID:
		return l.Reopen(func(loc transport.Locator) (transport.Transport, error) {
			return hidtransport.Open(loc)
		})
	case driver.Serial:
		return l.Reopen(func(loc transport.Locator) (transport.Transport, error) {
			return serialtransport.Open(loc, serialtransport.Config{})
		})
	default:
		return fmt.Errorf("registry: unknown transport kind %v", l.driver.Identity().TransportKind)
	}
}
