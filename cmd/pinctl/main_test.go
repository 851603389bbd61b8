package main

import (
	"context"
	"strings"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/hubertat/pinkit"
	"github.com/hubertat/pinkit/drivers"
)

func TestRun(t *testing.T) {
	for _, tt := range []struct {
		cmd  string
		want string
	}{
		{"high", "high"},
		{"low", "low"},
		{"read", "low"},
	} {
		t.Run(tt.cmd, func(t *testing.T) {
			kit := &pinkit.Kit{Soft: &drivers.SoftIO{}}
			got, err := run(context.Background(), kit, "soft", 3, tt.cmd)
			if err != nil {
				t.Fatalf("run returned err: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s want %s", got, tt.want)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	kit := &pinkit.Kit{Soft: &drivers.SoftIO{}}
	if _, err := run(context.Background(), kit, "soft", 3, "blink"); err == nil {
		t.Error("unknown command should fail")
	}

	kit = &pinkit.Kit{Soft: &drivers.SoftIO{}}
	if _, err := run(context.Background(), kit, "gpio", 3, "high"); err == nil {
		t.Error("unconfigured driver should fail")
	}
}

func TestRunLeavesOutputSet(t *testing.T) {
	pin := &gpiotest.Pin{N: "PINCTL7", L: gpio.Low}
	if err := gpioreg.Register(pin); err != nil {
		t.Fatal(err)
	}

	kit := &pinkit.Kit{Periph: &drivers.PeriphIO{PinPrefix: "PINCTL"}}
	got, err := run(context.Background(), kit, "periph", 7, "high")
	if err != nil {
		t.Fatalf("run returned err: %v", err)
	}
	if got != "high" {
		t.Errorf("got %s want high", got)
	}
	if pin.Read() != gpio.High {
		t.Error("pin was reset when pinctl exited")
	}
}

// a grenton block without outputs can't be set up, it must not matter
// for a pin on another driver
const multiDriverConfig = `{
	"Soft": {},
	"Grenton": {"GateAddress": "http://127.0.0.1:1", "CluId": "CLU1"},
	"RemoteSlave": {"HttpAddr": "127.0.0.1:0"}
}`

func TestRunOtherDriversIgnored(t *testing.T) {
	kit, err := pinkit.ParseConfig(strings.NewReader(multiDriverConfig))
	if err != nil {
		t.Fatalf("ParseConfig returned err: %v", err)
	}

	got, err := run(context.Background(), kit, "soft", 2, "high")
	if err != nil {
		t.Fatalf("run returned err: %v", err)
	}
	if got != "high" {
		t.Errorf("got %s want high", got)
	}
	if kit.Grenton != nil || kit.RemoteSlave != nil {
		t.Error("blocks of other drivers were kept")
	}
}
