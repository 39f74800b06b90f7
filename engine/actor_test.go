package engine

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/semaphore"

	"ledctl.dev/driver"
	"ledctl.dev/effect"
	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
	"ledctl.dev/transport"
)

// fakeDriver is a minimal, configurable driver.Driver for scheduler tests.
// Real drivers are exercised by the driver/* packages' own tests; these
// tests exercise state-machine behaviour, which is driver-agnostic.
type fakeDriver struct {
	id       driver.Identity
	native   bool
	offCount int
	mu       sync.Mutex
}

func (d *fakeDriver) Identity() driver.Identity { return d.id }

func (d *fakeDriver) EncodeSolid(c ledcolor.Color, led light.Index) []driver.Frame {
	return []driver.Frame{{byte(led), c.R, c.G, c.B}}
}

func (d *fakeDriver) EncodeOff(led light.Index) []driver.Frame {
	d.mu.Lock()
	d.offCount++
	d.mu.Unlock()
	return []driver.Frame{{byte(led), 0, 0, 0}}
}

func (d *fakeDriver) EncodeKeepAlive(last ledcolor.Color, led light.Index) (driver.Frame, bool) {
	if !d.id.Keepalive.Stateful {
		return nil, false
	}
	return driver.Frame{byte(led), last.R, last.G, last.B, 'K'}, true
}

func (d *fakeDriver) EncodeBlinkNative(on, off ledcolor.Color, speed driver.Speed) ([]driver.Frame, bool) {
	if !d.native {
		return nil, false
	}
	return []driver.Frame{{'N', on.R, on.G, on.B, off.R, off.G, off.B}}, true
}

// fakeLight is an engine.Light that records every frame it is asked to
// write, optionally failing writes on command.
type fakeLight struct {
	id  string
	drv driver.Driver

	mu        sync.Mutex
	writes    [][]driver.Frame
	lastColor ledcolor.Color
	failNext  int // writes to fail before succeeding again
	failErr   error
}

func (l *fakeLight) ID() string          { return l.id }
func (l *fakeLight) Driver() driver.Driver { return l.drv }

func (l *fakeLight) Write(frames []driver.Frame) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failNext > 0 {
		l.failNext--
		return l.failErr
	}
	cp := append([]driver.Frame(nil), frames...)
	l.writes = append(l.writes, cp)
	return nil
}

func (l *fakeLight) RecordState(_ string, c ledcolor.Color) {
	l.mu.Lock()
	l.lastColor = c
	l.mu.Unlock()
}

func (l *fakeLight) LastColor() ledcolor.Color {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastColor
}

func (l *fakeLight) writeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.writes)
}

func statelessIdentity() driver.Identity {
	return driver.Identity{VendorID: 1, ProductID: 1, LogicalName: "fake", LEDCount: 1}
}

func statefulIdentity(intervalS int) driver.Identity {
	return driver.Identity{
		VendorID: 2, ProductID: 2, LogicalName: "fake-stateful", LEDCount: 1,
		Keepalive: driver.Keepalive{Stateful: true, IntervalS: intervalS},
	}
}

func newTestActor(l *fakeLight, reopenErr error) *actor {
	sem := semaphore.NewWeighted(4)
	reopenCalls := 0
	return newActor(l, sem, 50*time.Millisecond, testLogger(), func() error {
		reopenCalls++
		return reopenErr
	}, func(error) {})
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSteadyWritesSynchronouslyNoTask(t *testing.T) {
	drv := &fakeDriver{id: statelessIdentity()}
	l := &fakeLight{id: "a", drv: drv}
	a := newTestActor(l, nil)
	go a.run()

	if err := apply(a, effect.Steady(ledcolor.RGB(1, 2, 3), light.All)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if a.effectTask != nil {
		t.Error("steady effect must not leave a running task")
	}
	if got := l.writeCount(); got != 1 {
		t.Fatalf("writeCount = %d, want 1", got)
	}
}

func TestStopDrivesDark(t *testing.T) {
	drv := &fakeDriver{id: statelessIdentity()}
	l := &fakeLight{id: "a", drv: drv}
	a := newTestActor(l, nil)
	go a.run()

	if err := apply(a, effect.Steady(ledcolor.RGB(9, 9, 9), light.All)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	stop(a)
	if got := l.writeCount(); got != 2 {
		t.Fatalf("writeCount after stop = %d, want 2 (solid + off)", got)
	}
	if !l.LastColor().IsBlack() {
		t.Errorf("LastColor after stop = %v, want black", l.LastColor())
	}
}

func TestPriorityRejectsLowerReplacement(t *testing.T) {
	drv := &fakeDriver{id: statelessIdentity()}
	l := &fakeLight{id: "a", drv: drv}
	a := newTestActor(l, nil)
	go a.run()

	high := effect.Blink(ledcolor.RGB(1, 0, 0), ledcolor.Black, 0, effect.SpeedFast).WithPriority(effect.High)
	if err := apply(a, high); err != nil {
		t.Fatalf("apply high: %v", err)
	}
	low := effect.Steady(ledcolor.RGB(0, 1, 0), light.All).WithPriority(effect.Low)
	if err := apply(a, low); err != ErrPriorityTooLow {
		t.Fatalf("apply low over high = %v, want ErrPriorityTooLow", err)
	}
	stop(a)
}

func TestEqualPriorityReplaces(t *testing.T) {
	drv := &fakeDriver{id: statelessIdentity()}
	l := &fakeLight{id: "a", drv: drv}
	a := newTestActor(l, nil)
	go a.run()

	first := effect.Blink(ledcolor.RGB(1, 0, 0), ledcolor.Black, 0, effect.SpeedFast)
	if err := apply(a, first); err != nil {
		t.Fatalf("apply first: %v", err)
	}
	second := effect.Steady(ledcolor.RGB(0, 0, 9), light.All)
	if err := apply(a, second); err != nil {
		t.Fatalf("apply second (equal priority): %v", err)
	}
	stop(a)
}

func TestNativeBlinkSkipsSynthesis(t *testing.T) {
	drv := &fakeDriver{id: statelessIdentity(), native: true}
	l := &fakeLight{id: "a", drv: drv}
	a := newTestActor(l, nil)
	go a.run()

	if err := apply(a, effect.Blink(ledcolor.RGB(1, 1, 1), ledcolor.Black, 0, effect.SpeedFast)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if a.effectTask != nil {
		t.Error("native blink must not start a synthesised frame task")
	}
	if got := l.writeCount(); got != 1 {
		t.Fatalf("writeCount = %d, want 1 (single native command)", got)
	}
	stop(a)
}

func TestDeviceRemovedSkipsFinalDarkWrite(t *testing.T) {
	drv := &fakeDriver{id: statelessIdentity()}
	l := &fakeLight{id: "a", drv: drv}
	a := newTestActor(l, nil)
	go a.run()

	blink := effect.Blink(ledcolor.RGB(1, 1, 1), ledcolor.Black, 0, effect.SpeedFast)
	blink.Native = nil // force software synthesis regardless of driver
	if err := apply(a, blink); err != nil {
		t.Fatalf("apply: %v", err)
	}
	waitFor(t, func() bool { return l.writeCount() >= 1 }, "blink never wrote a frame")

	before := l.writeCount()
	a.removeCh <- struct{}{}
	<-a.closed

	time.Sleep(20 * time.Millisecond)
	if got := l.writeCount(); got != before {
		t.Errorf("writeCount grew after device_removed: %d -> %d, want no further writes", before, got)
	}
}

func TestKeepAliveRenewsStatefulDriver(t *testing.T) {
	drv := &fakeDriver{id: statefulIdentity(1)} // interval_s=1 -> KA period 500ms
	l := &fakeLight{id: "a", drv: drv}
	a := newTestActor(l, nil)
	go a.run()

	if err := apply(a, effect.Steady(ledcolor.RGB(5, 5, 5), light.All)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if a.kaTask == nil {
		t.Fatal("stateful driver must start a keep-alive task")
	}
	waitFor(t, func() bool { return l.writeCount() >= 2 }, "keep-alive never fired")
	stop(a)
}

func TestTransientWriteRetriesOnce(t *testing.T) {
	drv := &fakeDriver{id: statelessIdentity()}
	l := &fakeLight{id: "a", drv: drv, failNext: 1, failErr: fmt.Errorf("wrap: %w", transport.ErrTimeout)}
	a := newTestActor(l, nil)
	go a.run()

	if err := apply(a, effect.Steady(ledcolor.RGB(1, 2, 3), light.All)); err != nil {
		t.Fatalf("apply after transient retry: %v", err)
	}
	if got := l.writeCount(); got != 1 {
		t.Fatalf("writeCount = %d, want 1 (retry succeeded, only the successful write recorded)", got)
	}
	stop(a)
}

func TestOutOfRangeLEDIsNoOp(t *testing.T) {
	drv := &fakeDriver{id: statelessIdentity()} // LEDCount: 1
	l := &fakeLight{id: "a", drv: drv}
	a := newTestActor(l, nil)
	go a.run()

	bad := effect.Steady(ledcolor.RGB(1, 2, 3), light.Index(100))
	if err := apply(a, bad); err != ErrLEDOutOfRange {
		t.Fatalf("apply with out-of-range LED = %v, want ErrLEDOutOfRange", err)
	}
	if got := l.writeCount(); got != 0 {
		t.Fatalf("writeCount = %d, want 0 (transport must stay untouched)", got)
	}

	good := effect.Steady(ledcolor.RGB(1, 2, 3), light.All)
	if err := apply(a, good); err != nil {
		t.Fatalf("apply in-range after rejected effect: %v", err)
	}
	stop(a)
}

func apply(a *actor, e effect.Effect) error {
	reply := make(chan error, 1)
	a.applyCh <- applyRequest{effect: e, reply: reply}
	select {
	case err := <-reply:
		return err
	case <-time.After(2 * time.Second):
		panic("apply timed out")
	}
}

func stop(a *actor) {
	reply := make(chan struct{})
	a.stopCh <- stopRequest{reply: reply}
	select {
	case <-reply:
	case <-time.After(2 * time.Second):
		panic("stop timed out")
	}
}
