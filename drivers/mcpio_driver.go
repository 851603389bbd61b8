package drivers

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/racerxdl/go-mcp23017"

	"github.com/hubertat/pinkit/digital"
)

const mcpioDriverName = "mcpio"

// McpIO drives the pins of an MCP23017 I2C expander. Every pin operation
// is a bus transaction and can fail with a *PinError.
//
// KeepOutputs works as in GpIO.
type McpIO struct {
	device *mcp23017.Device

	inputs  []*McpInput
	outputs []*McpOutput
	isReady bool

	BusNo         uint8
	DevNo         uint8
	InvertInputs  bool
	InvertOutputs bool
	KeepOutputs   bool
}

// mcpPins is the part of mcp23017.Device the pins use.
type mcpPins interface {
	DigitalWrite(pin uint8, level mcp23017.PinLevel) error
	DigitalRead(pin uint8) (mcp23017.PinLevel, error)
}

type McpInput struct {
	pin    uint8
	invert bool

	device mcpPins
}

// McpOutput has no hardware toggle; it opts into the software one.
type McpOutput struct {
	pin    uint8
	invert bool
	high   bool

	device mcpPins
}

func (min *McpInput) IsHigh() (bool, error) {
	rawState, err := min.device.DigitalRead(min.pin)
	if err != nil {
		return false, pinError(mcpioDriverName, uint16(min.pin), "read", err)
	}

	return bool(rawState) != min.invert, nil
}

func (min *McpInput) IsLow() (bool, error) {
	high, err := min.IsHigh()
	return !high, err
}

func (mout *McpOutput) write(high bool) error {
	err := mout.device.DigitalWrite(mout.pin, mcp23017.PinLevel(high != mout.invert))
	if err != nil {
		return pinError(mcpioDriverName, uint16(mout.pin), "write", err)
	}

	mout.high = high
	return nil
}

func (mout *McpOutput) SetLow() error {
	return mout.write(false)
}

func (mout *McpOutput) SetHigh() error {
	return mout.write(true)
}

func (mout *McpOutput) IsSetHigh() (bool, error) {
	return mout.high, nil
}

func (mout *McpOutput) IsSetLow() (bool, error) {
	return !mout.high, nil
}

func (mout *McpOutput) DefaultToggle() {}

func (mcp *McpIO) String() string {
	return mcpioDriverName
}

func (mcp *McpIO) IsReady() bool {
	return mcp.isReady
}

func (mcp *McpIO) Setup(ctx context.Context, inputs []uint16, outputs []uint16) (err error) {
	mcp.device, err = mcp23017.Open(mcp.BusNo, mcp.DevNo)
	if err != nil {
		return errors.Wrapf(err, "failed to open mcp23017 (bus %d, dev %d)", mcp.BusNo, mcp.DevNo)
	}

	for _, inputPin := range inputs {
		if inputPin > 15 {
			return errors.Errorf("input pin %d out of range (mcpio has 16 pins)", inputPin)
		}
		err = mcp.device.PinMode(uint8(inputPin), mcp23017.INPUT)
		if err != nil {
			return errors.Wrapf(err, "failed to set input mode on pin %d", inputPin)
		}
		err = mcp.device.SetPullUp(uint8(inputPin), true)
		if err != nil {
			return errors.Wrapf(err, "failed to set pull up on pin %d", inputPin)
		}
		mcp.inputs = append(mcp.inputs, &McpInput{pin: uint8(inputPin), invert: mcp.InvertInputs, device: mcp.device})
	}

	for _, outputPin := range outputs {
		if outputPin > 15 {
			return errors.Errorf("output pin %d out of range (mcpio has 16 pins)", outputPin)
		}
		err = mcp.device.PinMode(uint8(outputPin), mcp23017.OUTPUT)
		if err != nil {
			return errors.Wrapf(err, "failed to set output mode on pin %d", outputPin)
		}
		out := &McpOutput{pin: uint8(outputPin), invert: mcp.InvertOutputs, device: mcp.device}
		initial := false
		if mcp.KeepOutputs {
			level, readErr := mcp.device.DigitalRead(uint8(outputPin))
			if readErr != nil {
				return errors.Wrapf(readErr, "failed to read output pin %d", outputPin)
			}
			initial = bool(level) != out.invert
		}
		err = out.write(initial)
		if err != nil {
			return err
		}
		mcp.outputs = append(mcp.outputs, out)
	}

	mcp.isReady = true

	return
}

func (mcp *McpIO) GetInput(id uint16) (input digital.InputPin, err error) {
	for _, in := range mcp.inputs {
		if uint16(in.pin) == id {
			input = in
			return
		}
	}

	err = fmt.Errorf("input (id: %d) not found", id)
	return
}

func (mcp *McpIO) GetOutput(id uint16) (output digital.OutputPin, err error) {
	for _, out := range mcp.outputs {
		if uint16(out.pin) == id {
			output = out
			return
		}
	}

	err = fmt.Errorf("output (id: %d) not found", id)
	return
}

func (mcp *McpIO) Close() error {
	if mcp.device == nil {
		return nil
	}
	mcp.isReady = false
	if !mcp.KeepOutputs {
		for _, output := range mcp.outputs {
			output.SetLow()
		}
	}
	return mcp.device.Close()
}

func (mcp *McpIO) GetAllIo() (inputs []uint16, outputs []uint16) {
	for _, input := range mcp.inputs {
		inputs = append(inputs, uint16(input.pin))
	}

	for _, output := range mcp.outputs {
		outputs = append(outputs, uint16(output.pin))
	}

	return
}
