//go:build tinygo

package pico

import (
	"time"

	"github.com/hubertat/pinkit/digital"
)

const debounceTime = 50 * time.Millisecond

// Toggler is an output the board can toggle on a button press.
type Toggler interface {
	digital.OutputPin
	Toggle() error
}

type binding struct {
	input   *Input
	outputs []Toggler

	pressed   bool
	changedAt time.Time
}

// Board polls its buttons and toggles the outputs bound to them.
type Board struct {
	Name string

	inputs   []*Input
	outputs  []*Output
	bindings []*binding
}

func (b *Board) Inputs() []*Input {
	return b.inputs
}

func (b *Board) Outputs() []*Output {
	return b.outputs
}

// Bind makes a press of input in toggle every listed output.
func (b *Board) Bind(in int, outs ...int) {
	bi := &binding{input: b.inputs[in]}
	for _, out := range outs {
		bi.outputs = append(bi.outputs, b.outputs[out])
	}
	b.bindings = append(b.bindings, bi)
}

func (b *Board) Setup() error {
	for _, in := range b.inputs {
		in.Configure()
	}
	for _, out := range b.outputs {
		out.Configure()
	}
	return nil
}

// Poll reads every bound button once. A press is accepted when the level
// differs from the last accepted one for at least debounceTime.
func (b *Board) Poll(now time.Time) (err error) {
	for _, bi := range b.bindings {
		pressed, _ := bi.input.IsLow()
		if pressed == bi.pressed {
			bi.changedAt = time.Time{}
			continue
		}
		if bi.changedAt.IsZero() {
			bi.changedAt = now
			continue
		}
		if now.Sub(bi.changedAt) < debounceTime {
			continue
		}

		bi.pressed = pressed
		bi.changedAt = time.Time{}
		if !pressed {
			continue
		}
		for _, out := range bi.outputs {
			if toggleErr := out.Toggle(); toggleErr != nil {
				err = toggleErr
			}
		}
	}
	return
}
