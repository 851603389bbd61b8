package drivers

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/hubertat/pinkit/digital"
)

const periphDriverName = "periph"

// PeriphIO drives pins through periph.io, which covers boards go-rpio does
// not. Pins are looked up by name, PinPrefix followed by the pin number.
// KeepOutputs works as in GpIO.
type PeriphIO struct {
	PinPrefix     string
	InvertInputs  bool
	InvertOutputs bool
	KeepOutputs   bool

	inputs  []*PeriphInput
	outputs []*PeriphOutput
	isReady bool
}

type PeriphInput struct {
	no     uint16
	invert bool
	pin    gpio.PinIO
}

type PeriphOutput struct {
	no     uint16
	invert bool
	high   bool
	pin    gpio.PinIO
}

func (pi *PeriphInput) IsHigh() (bool, error) {
	return bool(pi.pin.Read()) != pi.invert, nil
}

func (pi *PeriphInput) IsLow() (bool, error) {
	high, _ := pi.IsHigh()
	return !high, nil
}

func (pi *PeriphInput) Infallible() {}

func (po *PeriphOutput) write(high bool) error {
	err := po.pin.Out(gpio.Level(high != po.invert))
	if err != nil {
		return pinError(periphDriverName, po.no, "write", err)
	}
	po.high = high
	return nil
}

func (po *PeriphOutput) SetLow() error {
	return po.write(false)
}

func (po *PeriphOutput) SetHigh() error {
	return po.write(true)
}

func (po *PeriphOutput) IsSetHigh() (bool, error) {
	return po.high, nil
}

func (po *PeriphOutput) IsSetLow() (bool, error) {
	return !po.high, nil
}

func (po *PeriphOutput) DefaultToggle() {}

func (pio *PeriphIO) pinName(no uint16) string {
	prefix := pio.PinPrefix
	if len(prefix) == 0 {
		prefix = "GPIO"
	}
	return fmt.Sprintf("%s%d", prefix, no)
}

func (pio *PeriphIO) lookup(no uint16) (gpio.PinIO, error) {
	pin := gpioreg.ByName(pio.pinName(no))
	if pin == nil {
		return nil, errors.Errorf("periph pin %s not found", pio.pinName(no))
	}
	return pin, nil
}

func (pio *PeriphIO) Setup(ctx context.Context, inputs []uint16, outputs []uint16) error {
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "failed to init periph host")
	}

	for _, no := range inputs {
		pin, err := pio.lookup(no)
		if err != nil {
			return err
		}
		if err = pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return errors.Wrapf(err, "failed to set %s as input", pin)
		}
		pio.inputs = append(pio.inputs, &PeriphInput{no: no, invert: pio.InvertInputs, pin: pin})
	}

	for _, no := range outputs {
		pin, err := pio.lookup(no)
		if err != nil {
			return err
		}
		out := &PeriphOutput{no: no, invert: pio.InvertOutputs, pin: pin}
		initial := false
		if pio.KeepOutputs {
			initial = bool(pin.Read()) != out.invert
		}
		if err = out.write(initial); err != nil {
			return errors.Wrapf(err, "failed to set %s as output", pin)
		}
		pio.outputs = append(pio.outputs, out)
	}

	pio.isReady = true
	return nil
}

func (pio *PeriphIO) Close() error {
	pio.isReady = false
	if !pio.KeepOutputs {
		for _, out := range pio.outputs {
			out.SetLow()
		}
	}
	return nil
}

func (pio *PeriphIO) String() string {
	return periphDriverName
}

func (pio *PeriphIO) IsReady() bool {
	return pio.isReady
}

func (pio *PeriphIO) GetInput(no uint16) (digital.InputPin, error) {
	for _, in := range pio.inputs {
		if in.no == no {
			return in, nil
		}
	}
	return nil, fmt.Errorf("periph input %d not found", no)
}

func (pio *PeriphIO) GetOutput(no uint16) (digital.OutputPin, error) {
	for _, out := range pio.outputs {
		if out.no == no {
			return out, nil
		}
	}
	return nil, fmt.Errorf("periph output %d not found", no)
}

func (pio *PeriphIO) GetAllIo() (inputs []uint16, outputs []uint16) {
	for _, in := range pio.inputs {
		inputs = append(inputs, in.no)
	}
	for _, out := range pio.outputs {
		outputs = append(outputs, out.no)
	}
	return
}
