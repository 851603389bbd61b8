//go:build tinygo

// Package pico drives the relay boards built on a Raspberry Pi Pico:
// push buttons on pulled-up inputs toggling relay outputs.
package pico

import "machine"

// Input is a machine pin configured with a pull-up. A pressed button
// reads low.
type Input struct {
	pin machine.Pin
}

func NewInput(pin machine.Pin) *Input {
	return &Input{pin: pin}
}

func (i *Input) Configure() {
	i.pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
}

func (i *Input) IsHigh() (bool, error) {
	return i.pin.Get(), nil
}

func (i *Input) IsLow() (bool, error) {
	return !i.pin.Get(), nil
}

func (i *Input) Infallible() {}

// Output is a machine pin driving a relay. Inverted outputs drive the
// line low for a logical high.
type Output struct {
	pin      machine.Pin
	inverted bool
	high     bool
}

func NewOutput(pin machine.Pin, inverted bool) *Output {
	return &Output{pin: pin, inverted: inverted}
}

func (o *Output) Configure() {
	o.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	o.write(false)
}

func (o *Output) write(high bool) {
	o.high = high
	o.pin.Set(high != o.inverted)
}

func (o *Output) SetLow() error {
	o.write(false)
	return nil
}

func (o *Output) SetHigh() error {
	o.write(true)
	return nil
}

func (o *Output) IsSetHigh() (bool, error) {
	return o.high, nil
}

func (o *Output) IsSetLow() (bool, error) {
	return !o.high, nil
}

func (o *Output) Toggle() error {
	o.write(!o.high)
	return nil
}

func (o *Output) Infallible() {}
