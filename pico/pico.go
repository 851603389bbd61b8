//go:build rp2040

package pico

import "machine"

const picoType1 = "PicoType1"

// PicoType1 is the 9 button, 12 relay board.
func PicoType1() *Board {
	b := &Board{Name: picoType1}

	for _, pin := range []machine.Pin{
		machine.GP16, machine.GP17, machine.GP18, machine.GP19, machine.GP20,
		machine.GP21, machine.GP22, machine.GP9, machine.GP8,
	} {
		b.inputs = append(b.inputs, NewInput(pin))
	}
	for _, pin := range []machine.Pin{
		machine.GP2, machine.GP3, machine.GP4, machine.GP5, machine.GP6, machine.GP7,
		machine.GP10, machine.GP11, machine.GP12, machine.GP13, machine.GP14, machine.GP15,
	} {
		b.outputs = append(b.outputs, NewOutput(pin, false))
	}

	b.Bind(0, 0, 3, 4)
	b.Bind(1, 1)
	b.Bind(2, 2)

	return b
}
