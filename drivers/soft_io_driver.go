package drivers

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/hubertat/pinkit/digital"
)

const softDriverName = "soft"

// SoftOutput is an output pin that exists purely in software. It never
// fails and opts into the software toggle.
type SoftOutput struct {
	high bool
	pin  uint16

	monitor *stateMonitor
}

func (so *SoftOutput) SetLow() error {
	so.set(false)
	return nil
}

func (so *SoftOutput) SetHigh() error {
	so.set(true)
	return nil
}

func (so *SoftOutput) set(high bool) {
	if so.monitor != nil && high != so.high {
		so.monitor.report(so.pin, high)
	}
	so.high = high
}

func (so *SoftOutput) IsSetHigh() (bool, error) {
	return so.high, nil
}

func (so *SoftOutput) IsSetLow() (bool, error) {
	return !so.high, nil
}

func (so *SoftOutput) DefaultToggle() {}

func (so *SoftOutput) Infallible() {}

// SoftInput is an input pin whose level is set by whoever holds it.
type SoftInput struct {
	lock sync.Mutex
	high bool
	pin  uint16
}

// Set drives the level the input reads.
func (si *SoftInput) Set(high bool) {
	si.lock.Lock()
	defer si.lock.Unlock()
	si.high = high
}

func (si *SoftInput) IsHigh() (bool, error) {
	si.lock.Lock()
	defer si.lock.Unlock()
	return si.high, nil
}

func (si *SoftInput) IsLow() (bool, error) {
	high, _ := si.IsHigh()
	return !high, nil
}

func (si *SoftInput) Infallible() {}

type stateMonitor struct {
	lock   sync.Mutex
	writer io.Writer
}

func (sm *stateMonitor) report(pin uint16, high bool) {
	sm.lock.Lock()
	defer sm.lock.Unlock()

	level := "low"
	if high {
		level = "high"
	}
	fmt.Fprintf(sm.writer, "[pin %d] set %s\n", pin, level)
}

// SoftIO is a driver for software pins, used for development and tests.
type SoftIO struct {
	inputs  []*SoftInput
	outputs []*SoftOutput
	ready   bool
}

func (sd *SoftIO) Setup(ctx context.Context, inputs []uint16, outputs []uint16) error {
	for _, inPin := range inputs {
		sd.inputs = append(sd.inputs, &SoftInput{pin: inPin})
	}
	for _, outPin := range outputs {
		sd.outputs = append(sd.outputs, &SoftOutput{pin: outPin})
	}
	sd.ready = true
	return nil
}

func (sd *SoftIO) Close() error {
	sd.ready = false
	return nil
}

func (sd *SoftIO) String() string {
	return softDriverName
}

func (sd *SoftIO) IsReady() bool {
	return sd.ready
}

func (sd *SoftIO) GetInput(pin uint16) (digital.InputPin, error) {
	in, err := sd.Input(pin)
	if err != nil {
		return nil, err
	}
	return in, nil
}

func (sd *SoftIO) GetOutput(pin uint16) (digital.OutputPin, error) {
	for _, output := range sd.outputs {
		if pin == output.pin {
			return output, nil
		}
	}
	return nil, fmt.Errorf("soft output %d not found", pin)
}

// Input returns the input with the given pin number, so callers can
// drive its level.
func (sd *SoftIO) Input(pin uint16) (*SoftInput, error) {
	for _, input := range sd.inputs {
		if pin == input.pin {
			return input, nil
		}
	}
	return nil, fmt.Errorf("soft input %d not found", pin)
}

func (sd *SoftIO) GetAllIo() (inputs []uint16, outputs []uint16) {
	for _, input := range sd.inputs {
		inputs = append(inputs, input.pin)
	}
	for _, output := range sd.outputs {
		outputs = append(outputs, output.pin)
	}
	return
}

// MonitorStateChanges writes a line to writer whenever an output changes level.
func (sd *SoftIO) MonitorStateChanges(writer io.Writer) {
	monitor := &stateMonitor{writer: writer}
	for _, out := range sd.outputs {
		out.monitor = monitor
	}
}
