package drivers

import (
	"context"
	"fmt"

	"github.com/hubertat/pinkit/digital"
)

// IoDriver owns the pin handles of one piece of hardware. Pins handed out
// by GetInput and GetOutput stay owned by the driver and are valid until
// Close.
type IoDriver interface {
	Setup(ctx context.Context, inputs []uint16, outputs []uint16) error
	Close() error
	String() string
	IsReady() bool
	GetInput(pin uint16) (digital.InputPin, error)
	GetOutput(pin uint16) (digital.OutputPin, error)
	GetAllIo() (inputs []uint16, outputs []uint16)
}

func MapAllIoDrivers() map[string]IoDriver {
	drivers := []IoDriver{
		&SoftIO{},
		&GpIO{},
		&McpIO{},
		&PeriphIO{},
		&ShellyIO{},
		&GrentonIO{},
		&RemoteIO{},
	}

	mapped := make(map[string]IoDriver)
	for _, driver := range drivers {
		mapped[driver.String()] = driver
	}
	return mapped
}

// PinError is the error pins of this package return when a pin operation
// fails. Err is the transport error underneath.
type PinError struct {
	Driver string
	Pin    uint16
	Op     string
	Err    error
}

func (pe *PinError) Error() string {
	return fmt.Sprintf("%s pin %d: %s: %v", pe.Driver, pe.Pin, pe.Op, pe.Err)
}

func (pe *PinError) Unwrap() error {
	return pe.Err
}

func pinError(driver string, pin uint16, op string, err error) error {
	if err == nil {
		return nil
	}
	return &PinError{Driver: driver, Pin: pin, Op: op, Err: err}
}
