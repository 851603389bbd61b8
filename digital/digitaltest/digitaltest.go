// Package digitaltest provides conformance checks for pin drivers and a
// software pin with injectable faults.
package digitaltest

import (
	"testing"

	"github.com/hubertat/pinkit/digital"
)

// FaultyPin is a software pin whose operations fail with the configured
// errors. A nil error means the operation succeeds. The commanded state
// only changes on a successful write.
type FaultyPin struct {
	High bool

	SetLowErr  error
	SetHighErr error
	IsSetErr   error

	// Input side, used by IsHigh and IsLow.
	Level    bool
	InputErr error

	// Writes counts attempted writes, successful or not.
	Writes int
}

func (fp *FaultyPin) SetLow() error {
	fp.Writes++
	if fp.SetLowErr != nil {
		return fp.SetLowErr
	}
	fp.High = false
	return nil
}

func (fp *FaultyPin) SetHigh() error {
	fp.Writes++
	if fp.SetHighErr != nil {
		return fp.SetHighErr
	}
	fp.High = true
	return nil
}

func (fp *FaultyPin) IsSetHigh() (bool, error) {
	if fp.IsSetErr != nil {
		return false, fp.IsSetErr
	}
	return fp.High, nil
}

func (fp *FaultyPin) IsSetLow() (bool, error) {
	if fp.IsSetErr != nil {
		return false, fp.IsSetErr
	}
	return !fp.High, nil
}

// DefaultToggle opts FaultyPin into the software toggle.
func (fp *FaultyPin) DefaultToggle() {}

func (fp *FaultyPin) IsHigh() (bool, error) {
	if fp.InputErr != nil {
		return false, fp.InputErr
	}
	return fp.Level, nil
}

func (fp *FaultyPin) IsLow() (bool, error) {
	if fp.InputErr != nil {
		return false, fp.InputErr
	}
	return !fp.Level, nil
}

// CheckOutputPin drives pin high and low. For infallible pins every call
// must succeed; other pins only get their errors logged.
func CheckOutputPin(t testing.TB, pin digital.OutputPin) {
	t.Helper()

	infallible := digital.IsInfallible(pin)
	for _, op := range []struct {
		name string
		call func() error
	}{
		{"SetHigh", pin.SetHigh},
		{"SetLow", pin.SetLow},
	} {
		err := op.call()
		if err == nil {
			continue
		}
		if infallible {
			t.Errorf("%s on infallible pin returned %v", op.name, err)
		} else {
			t.Logf("%s returned %v", op.name, err)
		}
	}
}

// CheckInputComplement reads pin twice without writing to it in between.
// When both reads succeed IsLow must be the negation of IsHigh. This is an
// expectation on drivers, the InputPin contract does not enforce it.
func CheckInputComplement(t testing.TB, pin digital.InputPin) {
	t.Helper()

	high, errHigh := pin.IsHigh()
	low, errLow := pin.IsLow()

	if digital.IsInfallible(pin) && (errHigh != nil || errLow != nil) {
		t.Errorf("infallible input returned errors: IsHigh %v, IsLow %v", errHigh, errLow)
		return
	}

	if errHigh != nil || errLow != nil {
		t.Logf("input read failed: IsHigh %v, IsLow %v", errHigh, errLow)
		return
	}

	if high == low {
		t.Errorf("IsHigh() = %v and IsLow() = %v, want complements", high, low)
	}
}
