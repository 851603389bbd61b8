//go:build unproven

package digitaltest

import (
	"testing"

	"github.com/hubertat/pinkit/digital"
)

// CheckStatefulOutputPin writes both levels and checks that IsSetHigh and
// IsSetLow report the commanded level after each successful write.
func CheckStatefulOutputPin(t testing.TB, pin digital.StatefulOutputPin) {
	t.Helper()

	for _, tt := range []struct {
		name string
		set  func() error
		high bool
	}{
		{"SetHigh", pin.SetHigh, true},
		{"SetLow", pin.SetLow, false},
		{"SetHigh", pin.SetHigh, true},
	} {
		if err := tt.set(); err != nil {
			if digital.IsInfallible(pin) {
				t.Errorf("%s on infallible pin returned %v", tt.name, err)
			} else {
				t.Logf("%s returned %v, skipping readback", tt.name, err)
			}
			continue
		}
		assertCommanded(t, pin, tt.high)
	}
}

// CheckToggle toggles pin twice. After the first toggle the commanded
// state must be the complement of the initial one, after the second it
// must be back where it started.
func CheckToggle(t testing.TB, pin digital.StatefulOutputPin, toggler digital.ToggleableOutputPin) {
	t.Helper()

	initial, err := pin.IsSetHigh()
	if err != nil {
		t.Fatalf("IsSetHigh() returned %v", err)
	}

	if err := toggler.Toggle(); err != nil {
		t.Fatalf("first Toggle() returned %v", err)
	}
	assertCommanded(t, pin, !initial)

	if err := toggler.Toggle(); err != nil {
		t.Fatalf("second Toggle() returned %v", err)
	}
	assertCommanded(t, pin, initial)
}

func assertCommanded(t testing.TB, pin digital.StatefulOutputPin, high bool) {
	t.Helper()

	gotHigh, err := pin.IsSetHigh()
	if err != nil {
		t.Errorf("IsSetHigh() returned %v", err)
		return
	}
	gotLow, err := pin.IsSetLow()
	if err != nil {
		t.Errorf("IsSetLow() returned %v", err)
		return
	}

	if gotHigh != high {
		t.Errorf("IsSetHigh() = %v, want %v", gotHigh, high)
	}
	if gotLow != !high {
		t.Errorf("IsSetLow() = %v, want %v", gotLow, !high)
	}
}
