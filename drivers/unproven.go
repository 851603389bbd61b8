//go:build unproven

package drivers

import "github.com/hubertat/pinkit/digital"

// ToggleOutput toggles out with its native toggle or, for pins that opted
// in, the software one.
func ToggleOutput(out digital.OutputPin) error {
	toggler, ok := digital.Toggler(out)
	if !ok {
		return ErrToggleUnsupported
	}
	return toggler.Toggle()
}

// OutputState reads the commanded state of out.
func OutputState(out digital.OutputPin) (high bool, err error) {
	stateful, ok := out.(digital.StatefulOutputPin)
	if !ok {
		return false, ErrStateUnsupported
	}
	return stateful.IsSetHigh()
}
