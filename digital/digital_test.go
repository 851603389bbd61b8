package digital_test

import (
	"testing"

	"github.com/hubertat/pinkit/digital"
	"github.com/hubertat/pinkit/digital/digitaltest"
)

type fixedInput bool

func (fi fixedInput) IsHigh() (bool, error) { return bool(fi), nil }
func (fi fixedInput) IsLow() (bool, error)  { return !bool(fi), nil }
func (fi fixedInput) Infallible()           {}

func TestIsInfallible(t *testing.T) {
	if !digital.IsInfallible(fixedInput(true)) {
		t.Error("fixedInput not reported infallible")
	}
	if digital.IsInfallible(&digitaltest.FaultyPin{}) {
		t.Error("FaultyPin reported infallible")
	}
}

func TestInputComplement(t *testing.T) {
	in := fixedInput(true)

	high, err := in.IsHigh()
	if err != nil || !high {
		t.Fatalf("IsHigh() = %v, %v", high, err)
	}
	digitaltest.CheckInputComplement(t, in)
}
