package fitstatusb

import (
	"testing"

	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

func TestEncodeSolidFormat(t *testing.T) {
	d := Driver{}
	f := d.EncodeSolid(ledcolor.RGB(0xAB, 0x0C, 0xFF), light.All)[0]
	want := "B#AB0CFF\r\n"
	if string(f) != want {
		t.Errorf("got %q, want %q", string(f), want)
	}
}

func TestZoneLetters(t *testing.T) {
	d := Driver{}
	tests := []struct {
		led  light.Index
		want byte
	}{
		{light.All, 'B'},
		{light.Index(1), 'F'},
		{light.Index(2), 'R'},
	}
	for _, tt := range tests {
		f := d.EncodeSolid(ledcolor.Black, tt.led)[0]
		if f[0] != tt.want {
			t.Errorf("led %d: zone letter = %c, want %c", tt.led, f[0], tt.want)
		}
	}
}

func TestEncodeOffIsBlack(t *testing.T) {
	d := Driver{}
	f := d.EncodeOff(light.All)[0]
	want := "B#000000\r\n"
	if string(f) != want {
		t.Errorf("got %q, want %q", string(f), want)
	}
}
