package blinkstick

import (
	"testing"

	"ledctl.dev/driver"
	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

// P8: the 8-LED dataframe report has length 2 + 8*3 bytes; each slot
// encodes (G,R,B), not (R,G,B).
func TestP8DataFrameShapeAndOrder(t *testing.T) {
	d := Driver{}
	c := ledcolor.RGB(10, 20, 30)
	f := d.EncodeSolid(c, light.All)[0]
	wantLen := 2 + 8*3
	if len(f) != wantLen {
		t.Fatalf("len = %d, want %d", len(f), wantLen)
	}
	for i := 0; i < LEDCount; i++ {
		base := 2 + i*3
		g, r, b := f[base], f[base+1], f[base+2]
		if g != c.G || r != c.R || b != c.B {
			t.Errorf("slot %d = (%d,%d,%d), want (G,R,B)=(%d,%d,%d)", i, g, r, b, c.G, c.R, c.B)
		}
	}
}

func TestIndexedFrame(t *testing.T) {
	d := Driver{}
	c := ledcolor.RGB(1, 2, 3)
	f := d.EncodeSolid(c, light.Index(2))[0]
	want := driver.Frame{reportIndexed, 1, c.G, c.R, c.B}
	if string(f) != string(want) {
		t.Errorf("got % X, want % X", f, want)
	}
}

func TestNoNativeBlink(t *testing.T) {
	var d driver.Driver = Driver{}
	if _, ok := d.(driver.NativeBlinker); ok {
		t.Errorf("blinkstick must not implement NativeBlinker")
	}
}
