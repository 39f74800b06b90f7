package luxafor

import (
	"testing"

	"ledctl.dev/driver"
	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

func TestEncodeSolidAllLEDs(t *testing.T) {
	d := Driver{}
	f := d.EncodeSolid(ledcolor.RGB(1, 2, 3), light.All)[0]
	if len(f) != reportLen {
		t.Fatalf("len = %d, want %d", len(f), reportLen)
	}
	if f[offCmd] != cmdSteady || f[offLED] != ledAll {
		t.Errorf("cmd/led = %d/%d, want %d/%d", f[offCmd], f[offLED], cmdSteady, ledAll)
	}
	if f[offRed] != 1 || f[offGreen] != 2 || f[offBlue] != 3 {
		t.Errorf("rgb = %d,%d,%d, want 1,2,3", f[offRed], f[offGreen], f[offBlue])
	}
}

func TestEncodeSolidIndividualLED(t *testing.T) {
	d := Driver{}
	f := d.EncodeSolid(ledcolor.RGB(1, 2, 3), light.Index(3))[0]
	if f[offLED] != 3 {
		t.Errorf("led mask = %d, want 3", f[offLED])
	}
}

func TestEncodeBlinkNativeRejectsNonBlackOff(t *testing.T) {
	d := Driver{}
	if _, ok := d.EncodeBlinkNative(ledcolor.RGB(0, 255, 0), ledcolor.RGB(5, 0, 0), driver.SpeedSlow); ok {
		t.Errorf("expected unsupported for non-black off colour")
	}
}
