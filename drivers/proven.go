//go:build !unproven

package drivers

import "github.com/hubertat/pinkit/digital"

// ToggleOutput always fails without the unproven build tag.
func ToggleOutput(out digital.OutputPin) error {
	return ErrToggleUnsupported
}

// OutputState always fails without the unproven build tag.
func OutputState(out digital.OutputPin) (bool, error) {
	return false, ErrStateUnsupported
}
