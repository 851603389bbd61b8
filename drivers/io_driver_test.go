package drivers

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/hubertat/pinkit/digital"
	"github.com/hubertat/pinkit/digital/digitaltest"
)

func TestIoDriverNames(t *testing.T) {
	for _, tt := range []struct {
		driver IoDriver
		want   string
	}{
		{&SoftIO{}, "soft"},
		{&GpIO{}, "gpio"},
		{&McpIO{}, "mcpio"},
		{&PeriphIO{}, "periph"},
		{&ShellyIO{}, "shelly"},
		{&GrentonIO{}, "grenton"},
		{&RemoteIO{}, "remoteio"},
	} {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.driver.String()
			if got != tt.want {
				t.Errorf("got %s want %s", got, tt.want)
			}
		})
	}
}

func TestMapAllIoDrivers(t *testing.T) {
	mapped := MapAllIoDrivers()
	for _, name := range []string{"soft", "gpio", "mcpio", "periph", "shelly", "grenton", "remoteio"} {
		if _, ok := mapped[name]; !ok {
			t.Errorf("driver %s missing from MapAllIoDrivers", name)
		}
	}
}

func TestPinError(t *testing.T) {
	cause := errors.New("i2c nack")
	err := pinError("mcpio", 4, "write", cause)

	want := "mcpio pin 4: write: i2c nack"
	if err.Error() != want {
		t.Errorf("got %q want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Error("PinError does not unwrap to its cause")
	}

	if pinError("mcpio", 4, "write", nil) != nil {
		t.Error("pinError with nil cause is not nil")
	}
}

func TestInfallibleDrivers(t *testing.T) {
	for _, tt := range []struct {
		name string
		pin  any
		want bool
	}{
		{"GpOutput", &GpOutput{}, true},
		{"GpInput", &GpInput{}, true},
		{"PeriphInput", &PeriphInput{}, true},
		{"PeriphOutput", &PeriphOutput{}, false},
		{"McpOutput", &McpOutput{}, false},
		{"McpInput", &McpInput{}, false},
		{"ShellyOutput", &ShellyOutput{}, false},
		{"GrentonOutput", &GrentonOutput{}, false},
		{"RemoteOutput", &RemoteOutput{}, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assertBools(t, digital.IsInfallible(tt.pin), tt.want)
		})
	}
}

func TestPeriphOutput(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO7", Num: 7, L: gpio.High}
	out := &PeriphOutput{no: 7, pin: pin}

	if err := out.SetHigh(); err != nil {
		t.Fatalf("SetHigh returned err: %v", err)
	}
	assertBools(t, bool(pin.L), true)
	high, _ := out.IsSetHigh()
	assertBools(t, high, true)

	if err := out.SetLow(); err != nil {
		t.Fatalf("SetLow returned err: %v", err)
	}
	assertBools(t, bool(pin.L), false)
	low, _ := out.IsSetLow()
	assertBools(t, low, true)

	inverted := &PeriphOutput{no: 7, invert: true, pin: pin}
	inverted.SetHigh()
	assertBools(t, bool(pin.L), false)
}

func TestPeriphInput(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO8", Num: 8, L: gpio.High}

	in := &PeriphInput{no: 8, pin: pin}
	high, _ := in.IsHigh()
	assertBools(t, high, true)
	digitaltest.CheckInputComplement(t, in)

	inverted := &PeriphInput{no: 8, invert: true, pin: pin}
	high, _ = inverted.IsHigh()
	assertBools(t, high, false)
}

func TestPeriphPinName(t *testing.T) {
	pio := &PeriphIO{}
	if got := pio.pinName(17); got != "GPIO17" {
		t.Errorf("got %s want GPIO17", got)
	}

	pio.PinPrefix = "P1_"
	if got := pio.pinName(11); got != "P1_11" {
		t.Errorf("got %s want P1_11", got)
	}
}
