package drivers

import "errors"

var (
	// ErrToggleUnsupported is returned by ToggleOutput for outputs without a toggle.
	ErrToggleUnsupported = errors.New("output has no toggle")

	// ErrStateUnsupported is returned by OutputState for outputs that cannot report their commanded state.
	ErrStateUnsupported = errors.New("output cannot report its state")
)
