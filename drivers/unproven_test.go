//go:build unproven

package drivers

import (
	"context"
	"errors"
	"testing"

	"github.com/racerxdl/go-mcp23017"

	"github.com/hubertat/pinkit/digital"
	"github.com/hubertat/pinkit/digital/digitaltest"
)

func TestSoftOutputToggle(t *testing.T) {
	sd := SoftIO{}
	sd.Setup(context.Background(), nil, []uint16{1})
	out, _ := sd.GetOutput(1)

	if err := ToggleOutput(out); err != nil {
		t.Fatalf("ToggleOutput returned err: %v", err)
	}
	high, _ := OutputState(out)
	assertBools(t, high, true)
	low, _ := out.(*SoftOutput).IsSetLow()
	assertBools(t, low, false)

	if err := ToggleOutput(out); err != nil {
		t.Fatalf("ToggleOutput returned err: %v", err)
	}
	high, _ = OutputState(out)
	assertBools(t, high, false)
	low, _ = out.(*SoftOutput).IsSetLow()
	assertBools(t, low, true)
}

func TestSoftOutputConformance(t *testing.T) {
	out := &SoftOutput{}
	digitaltest.CheckStatefulOutputPin(t, out)

	toggler, ok := digital.Toggler(out)
	if !ok {
		t.Fatal("SoftOutput has no toggler")
	}
	digitaltest.CheckToggle(t, out, toggler)
}

type writeOnly struct{}

func (writeOnly) SetLow() error  { return nil }
func (writeOnly) SetHigh() error { return nil }

func TestToggleOutputUnsupported(t *testing.T) {
	if err := ToggleOutput(writeOnly{}); !errors.Is(err, ErrToggleUnsupported) {
		t.Errorf("got err %v, want %v", err, ErrToggleUnsupported)
	}
	if _, err := OutputState(writeOnly{}); !errors.Is(err, ErrStateUnsupported) {
		t.Errorf("got err %v, want %v", err, ErrStateUnsupported)
	}
}

func TestToggleOutputPassesErrorThrough(t *testing.T) {
	errBus := &PinError{Driver: "mcpio", Pin: 3, Op: "write", Err: errors.New("i2c nack")}
	fp := &digitaltest.FaultyPin{SetHighErr: errBus}

	err := ToggleOutput(fp)
	if err != errBus {
		t.Errorf("got err %v, want %v", err, errBus)
	}
	assertBools(t, fp.High, false)
}

func TestMcpOutputSoftwareToggle(t *testing.T) {
	fe := &fakeExpander{levels: map[uint8]mcp23017.PinLevel{}}
	out := &McpOutput{pin: 5, device: fe}
	digitaltest.CheckStatefulOutputPin(t, out)

	toggler, ok := digital.Toggler(out)
	if !ok {
		t.Fatal("mcp output should opt into the software toggle")
	}
	if _, soft := toggler.(*digital.SoftwareToggle); !soft {
		t.Errorf("got toggler %T want *digital.SoftwareToggle", toggler)
	}
	digitaltest.CheckToggle(t, out, toggler)

	fe.err = errors.New("i2c nack")
	if err := toggler.Toggle(); !errors.Is(err, fe.err) {
		t.Errorf("got err %v want %v", err, fe.err)
	}
}

func TestGpOutputNativeToggle(t *testing.T) {
	out := &GpOutput{pin: 17, line: &fakeLine{}}

	toggler, ok := digital.Toggler(out)
	if !ok {
		t.Fatal("gpio output has a toggle")
	}
	if toggler != digital.ToggleableOutputPin(out) {
		t.Error("Toggler should return the native toggle")
	}
	digitaltest.CheckToggle(t, out, toggler)
}
