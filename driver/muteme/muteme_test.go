package muteme

import (
	"testing"

	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

func TestQuantizeColors(t *testing.T) {
	d := Driver{}
	f := d.EncodeSolid(ledcolor.RGB(255, 0, 255), light.All)[0]
	if len(f) != reportLen {
		t.Fatalf("len = %d, want %d", len(f), reportLen)
	}
	if f[0]&bitRed == 0 || f[0]&bitGreen != 0 || f[0]&bitBlue == 0 {
		t.Errorf("bits = %08b, want R and B set, G clear", f[0])
	}
}

func TestDimBitForLowBrightness(t *testing.T) {
	d := Driver{}
	f := d.EncodeSolid(ledcolor.RGB(40, 0, 0), light.All)[0]
	if f[0]&bitDim == 0 {
		t.Errorf("bits = %08b, want dim bit set for low-brightness non-black colour", f[0])
	}
}

func TestEncodeOffClearsAllBits(t *testing.T) {
	d := Driver{}
	f := d.EncodeOff(light.All)[0]
	if f[0] != 0 {
		t.Errorf("off report byte0 = %08b, want 0", f[0])
	}
}

func TestEncodeBlinkNativeSetsBlinkBit(t *testing.T) {
	d := Driver{}
	frames, ok := d.EncodeBlinkNative(ledcolor.RGB(255, 255, 255), ledcolor.Black, 0)
	if !ok {
		t.Fatal("expected native blink support")
	}
	if frames[0][0]&bitBlink == 0 {
		t.Errorf("blink bit not set")
	}
}
