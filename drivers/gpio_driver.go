package drivers

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"

	"github.com/hubertat/pinkit/digital"
)

const gpioDriverName = "gpio"

// GpIO drives Raspberry Pi GPIO through /dev/gpiomem. Register access
// cannot fail once Setup succeeded, so its pins are infallible.
//
// Outputs are driven low on Setup and Close unless KeepOutputs is set,
// then Setup adopts the current levels and Close leaves them.
type GpIO struct {
	inputs  []*GpInput
	outputs []*GpOutput

	InvertInputs  bool
	InvertOutputs bool
	KeepOutputs   bool

	isReady bool
}

// gpioLine is the part of rpio.Pin the pins use.
type gpioLine interface {
	High()
	Low()
	Read() rpio.State
}

type GpInput struct {
	pin    uint8
	invert bool
	line   gpioLine
}

// GpOutput tracks its commanded level; reading the level register would
// report the electrical state instead.
type GpOutput struct {
	pin    uint8
	invert bool
	high   bool
	line   gpioLine
}

func (gpi *GpInput) IsHigh() (bool, error) {
	return (gpi.line.Read() == rpio.High) != gpi.invert, nil
}

func (gpi *GpInput) IsLow() (bool, error) {
	high, _ := gpi.IsHigh()
	return !high, nil
}

func (gpi *GpInput) Infallible() {}

func (gpo *GpOutput) write(high bool) {
	if high != gpo.invert {
		gpo.line.High()
	} else {
		gpo.line.Low()
	}
	gpo.high = high
}

func (gpo *GpOutput) SetLow() error {
	gpo.write(false)
	return nil
}

func (gpo *GpOutput) SetHigh() error {
	gpo.write(true)
	return nil
}

func (gpo *GpOutput) IsSetHigh() (bool, error) {
	return gpo.high, nil
}

func (gpo *GpOutput) IsSetLow() (bool, error) {
	return !gpo.high, nil
}

// Toggle writes the inverse of the commanded level. rpio's own Toggle
// decides from the level register, which follows the wire.
func (gpo *GpOutput) Toggle() error {
	gpo.write(!gpo.high)
	return nil
}

func (gpo *GpOutput) Infallible() {}

func (gp *GpIO) Setup(ctx context.Context, inputs []uint16, outputs []uint16) error {
	err := rpio.Open()
	if err != nil {
		return errors.Wrapf(err, "failed to Setup gpio driver for pins: %v, %v; ", inputs, outputs)
	}
	for _, inPin := range inputs {
		if inPin > 255 {
			return errors.Errorf("inpin out of range (gpio takes uint8 pin)")
		}
		pin := rpio.Pin(inPin)
		pin.Input()
		pin.PullUp()
		gp.inputs = append(gp.inputs, &GpInput{pin: uint8(inPin), invert: gp.InvertInputs, line: pin})
	}

	for _, outPin := range outputs {
		if outPin > 255 {
			return errors.Errorf("outpin out of range (gpio takes uint8 pin)")
		}
		pin := rpio.Pin(outPin)
		out := &GpOutput{pin: uint8(outPin), invert: gp.InvertOutputs, line: pin}
		initial := false
		if gp.KeepOutputs {
			initial = (pin.Read() == rpio.High) != out.invert
		}
		pin.Output()
		out.write(initial)
		gp.outputs = append(gp.outputs, out)
	}

	gp.isReady = true
	return nil
}

func (gp *GpIO) String() string {
	return gpioDriverName
}

func (gp *GpIO) IsReady() bool {
	return gp.isReady
}

func (gp *GpIO) Close() error {
	if !gp.isReady {
		return nil
	}
	gp.isReady = false
	if !gp.KeepOutputs {
		for _, output := range gp.outputs {
			output.SetLow()
		}
	}
	return rpio.Close()
}

func (gp *GpIO) GetInput(id uint16) (input digital.InputPin, err error) {
	if id > 255 {
		err = errors.Errorf("pin id out of range (gpio takes uint8 pin)")
		return
	}
	for _, in := range gp.inputs {
		if in.pin == uint8(id) {
			input = in
			return
		}
	}

	err = fmt.Errorf("GpIO Input (id: %d) not found", id)
	return
}

func (gp *GpIO) GetOutput(id uint16) (output digital.OutputPin, err error) {
	if id > 255 {
		err = errors.Errorf("pin id out of range (gpio takes uint8 pin)")
		return
	}
	for _, out := range gp.outputs {
		if out.pin == uint8(id) {
			output = out
			return
		}
	}

	err = fmt.Errorf("GpIO Output (id: %d) not found", id)
	return
}

func (gp *GpIO) GetAllIo() (inputs []uint16, outputs []uint16) {
	for _, input := range gp.inputs {
		inputs = append(inputs, uint16(input.pin))
	}

	for _, output := range gp.outputs {
		outputs = append(outputs, uint16(output.pin))
	}

	return
}
