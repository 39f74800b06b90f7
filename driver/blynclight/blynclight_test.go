package blynclight

import (
	"bytes"
	"testing"

	"ledctl.dev/driver"
	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

// S1: turn_on((255,0,0)) dim=1.0 led=0 emits one 9-byte report.
func TestEncodeSolidScenarioS1(t *testing.T) {
	d := Driver{}
	frames := d.EncodeSolid(ledcolor.RGB(255, 0, 0), light.All)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	want := []byte{0x00, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF, 0x22}
	if !bytes.Equal(frames[0], want) {
		t.Errorf("got % X, want % X", frames[0], want)
	}
}

// S2: dim=0.5 pre-scaled color (128,0,0) emits 0x80 in the red slot.
func TestEncodeSolidScenarioS2(t *testing.T) {
	d := Driver{}
	frames := d.EncodeSolid(ledcolor.Scale(ledcolor.RGB(255, 0, 0), 0.5), light.All)
	want := []byte{0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF, 0x22}
	if !bytes.Equal(frames[0], want) {
		t.Errorf("got % X, want % X", frames[0], want)
	}
}

// P7: decoding the produced bytes recovers (R,G,B) from offsets 1,3,2.
func TestP7RoundTrip(t *testing.T) {
	d := Driver{}
	in := ledcolor.RGB(10, 20, 30)
	frames := d.EncodeSolid(in, light.All)
	f := frames[0]
	if f[0] != 0x00 {
		t.Errorf("byte 0 = %#x, want 0x00", f[0])
	}
	if f[7] != 0xFF || f[8] != 0x22 {
		t.Errorf("tail = %#x %#x, want 0xFF 0x22", f[7], f[8])
	}
	got := ledcolor.RGB(f[1], f[3], f[2])
	if got != in {
		t.Errorf("round-trip = %v, want %v", got, in)
	}
}

// P10: led=0 and led=1 are indistinguishable on a single-LED device.
func TestP10LEDIndistinguishable(t *testing.T) {
	d := Driver{}
	c := ledcolor.RGB(1, 2, 3)
	f0 := d.EncodeSolid(c, light.All)[0]
	f1 := d.EncodeSolid(c, light.Index(1))[0]
	if !bytes.Equal(f0, f1) {
		t.Errorf("led=0 report % X != led=1 report % X", f0, f1)
	}
}

func TestEncodeOff(t *testing.T) {
	d := Driver{}
	f := d.EncodeOff(light.All)[0]
	if f[offOff] != 1 {
		t.Errorf("off byte = %d, want 1", f[offOff])
	}
}

func TestEncodeBlinkNativeRejectsNonBlackOff(t *testing.T) {
	d := Driver{}
	_, ok := d.EncodeBlinkNative(ledcolor.RGB(0, 0, 255), ledcolor.RGB(1, 0, 0), driver.SpeedSlow)
	if ok {
		t.Errorf("expected unsupported for non-black off colour")
	}
}

func TestEncodeBlinkNativeRejectsIllegalSpeed(t *testing.T) {
	d := Driver{}
	_, ok := d.EncodeBlinkNative(ledcolor.RGB(0, 0, 255), ledcolor.Black, 99)
	if ok {
		t.Errorf("expected unsupported for illegal speed value")
	}
}
