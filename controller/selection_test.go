package controller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"ledctl.dev/effect"
	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

type fakeLightRef struct{ id string }

func (f fakeLightRef) ID() string { return f.id }

type fakeEngine struct {
	mu      sync.Mutex
	applied map[string]effect.Effect
	stopped map[string]bool
	applyErr error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{applied: map[string]effect.Effect{}, stopped: map[string]bool{}}
}

func (f *fakeEngine) Apply(lightID string, eff effect.Effect) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.mu.Lock()
	f.applied[lightID] = eff
	f.mu.Unlock()
	return nil
}

func (f *fakeEngine) Stop(lightID string) error {
	f.mu.Lock()
	f.stopped[lightID] = true
	f.mu.Unlock()
	return nil
}

func testSelection(eng engineFacade, ids ...string) *Selection {
	lights := make([]identified, len(ids))
	for i, id := range ids {
		lights[i] = fakeLightRef{id: id}
	}
	return &Selection{
		eng:    eng,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		lights: lights,
	}
}

func TestTurnOnAppliesSteadyToEveryLight(t *testing.T) {
	eng := newFakeEngine()
	sel := testSelection(eng, "a", "b")
	sel.TurnOn(ledcolor.RGB(10, 20, 30), light.All, 0.5)

	if len(eng.applied) != 2 {
		t.Fatalf("applied to %d lights, want 2", len(eng.applied))
	}
	for id, eff := range eng.applied {
		if !eff.IsSteady() {
			t.Errorf("light %s: effect %q, want steady", id, eff.Name)
		}
	}
}

func TestTurnOffStopsEveryLight(t *testing.T) {
	eng := newFakeEngine()
	sel := testSelection(eng, "a", "b", "c")
	sel.TurnOff()
	if len(eng.stopped) != 3 {
		t.Fatalf("stopped %d lights, want 3", len(eng.stopped))
	}
}

func TestEmptySelectionIsNoOp(t *testing.T) {
	eng := newFakeEngine()
	sel := testSelection(eng)
	sel.TurnOn(ledcolor.RGB(1, 1, 1), light.All, 1.0).TurnOff()
	if len(eng.applied) != 0 || len(eng.stopped) != 0 {
		t.Error("empty selection must not touch the engine")
	}
}

func TestApplyEffectScalesColor(t *testing.T) {
	eng := newFakeEngine()
	sel := testSelection(eng, "a")
	base := effect.Steady(ledcolor.RGB(200, 100, 50), light.All)
	sel.ApplyEffect(base, light.All, 0.5)

	got := eng.applied["a"]
	var color ledcolor.Color
	got.Frames(func(f effect.Frame) bool { color = f.Color; return false })
	if color == (ledcolor.RGB(200, 100, 50)) {
		t.Error("ApplyEffect did not scale the colour")
	}
}

func TestTurnOnForStopsAfterTimeout(t *testing.T) {
	eng := newFakeEngine()
	sel := testSelection(eng, "a")
	sel.TurnOnFor(context.Background(), ledcolor.RGB(1, 2, 3), light.All, 1.0, 20*time.Millisecond)

	if eng.stopped["a"] {
		t.Fatal("TurnOnFor stopped before timeout elapsed")
	}
	time.Sleep(60 * time.Millisecond)
	if !eng.stopped["a"] {
		t.Error("TurnOnFor did not stop after timeout")
	}
}

func TestTurnOnForStopsOnContextCancel(t *testing.T) {
	eng := newFakeEngine()
	sel := testSelection(eng, "a")
	ctx, cancel := context.WithCancel(context.Background())
	sel.TurnOnFor(ctx, ledcolor.RGB(1, 2, 3), light.All, 1.0, time.Hour)
	cancel()
	time.Sleep(20 * time.Millisecond)
	if !eng.stopped["a"] {
		t.Error("TurnOnFor did not stop on context cancellation")
	}
}

func TestApplyErrorDoesNotPanic(t *testing.T) {
	eng := newFakeEngine()
	eng.applyErr = errors.New("boom")
	sel := testSelection(eng, "a")
	sel.TurnOn(ledcolor.RGB(1, 1, 1), light.All, 1.0)
}
