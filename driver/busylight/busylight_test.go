package busylight

import (
	"testing"

	"ledctl.dev/driver"
	"ledctl.dev/ledcolor"
	"ledctl.dev/light"
)

func checksumOf(f []byte) uint16 {
	var sum uint16
	for _, b := range f[:checksumLen] {
		sum += uint16(b)
	}
	return sum
}

// P6: the checksum field always equals the unsigned 16-bit sum of the
// preceding 62 bytes, for every input.
func TestP6Checksum(t *testing.T) {
	d := Driver{}
	cases := []ledcolor.Color{
		ledcolor.RGB(0, 0, 0),
		ledcolor.RGB(255, 255, 255),
		ledcolor.RGB(10, 20, 30),
		ledcolor.RGB(99, 1, 200),
	}
	for _, c := range cases {
		for _, frames := range [][]driver.Frame{d.EncodeSolid(c, light.All), d.EncodeOff(light.All)} {
			f := frames[0]
			if len(f) != reportLen {
				t.Fatalf("report length = %d, want %d", len(f), reportLen)
			}
			want := checksumOf(f)
			got := uint16(f[checksumLen])<<8 | uint16(f[checksumLen+1])
			if got != want {
				t.Errorf("color %v: checksum = %#04x, want %#04x", c, got, want)
			}
		}
	}
}

// S4: steady((10,20,30)) clamps to PWM fields unchanged (all already <=100)
// and the checksum is correct; repeated EncodeKeepAlive calls for the same
// last colour are byte-identical, matching the keep-alive window
// requirement that identical payloads reappear.
func TestS4KeepAlivePayload(t *testing.T) {
	d := Driver{}
	last := ledcolor.RGB(10, 20, 30)
	f1, ok := d.EncodeKeepAlive(last, light.All)
	if !ok {
		t.Fatal("expected stateful keep-alive frame")
	}
	if f1[offRed] != 10 || f1[offGreen] != 20 || f1[offBlue] != 30 {
		t.Errorf("PWM fields = %d,%d,%d, want 10,20,30", f1[offRed], f1[offGreen], f1[offBlue])
	}
	f2, _ := d.EncodeKeepAlive(last, light.All)
	if string(f1) != string(f2) {
		t.Errorf("two keep-alive encodings for the same colour differ")
	}
}

func TestClampPWM(t *testing.T) {
	d := Driver{}
	f := d.EncodeSolid(ledcolor.RGB(255, 200, 0), light.All)[0]
	if f[offRed] != 100 || f[offGreen] != 100 || f[offBlue] != 0 {
		t.Errorf("clamp = %d,%d,%d, want 100,100,0", f[offRed], f[offGreen], f[offBlue])
	}
}

func TestIdentityStateful(t *testing.T) {
	drv, ok := driver.Lookup(VendorID, ProductID)
	if !ok {
		t.Fatal("busylight family is not registered")
	}
	id := drv.Identity()
	if !id.Keepalive.Stateful || id.Keepalive.IntervalS > MaxInterval {
		t.Errorf("identity = %+v, want stateful with interval <= %d", id, MaxInterval)
	}
}
