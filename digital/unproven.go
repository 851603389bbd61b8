//go:build unproven

package digital

// Unproven reports whether the stateful and toggleable capabilities were
// compiled in.
const Unproven = true

// StatefulOutputPin is a push-pull output pin that can read its output state.
//
// This interface is only available with the unproven build tag.
type StatefulOutputPin interface {
	OutputPin

	// IsSetHigh reports whether the pin is in drive high mode.
	//
	// It does not read the electrical state of the pin.
	IsSetHigh() (bool, error)

	// IsSetLow reports whether the pin is in drive low mode.
	//
	// It does not read the electrical state of the pin.
	IsSetLow() (bool, error)
}

// ToggleableOutputPin is an output pin that can be toggled.
//
// Implement it with a hardware mechanism where one exists. Pins that are
// both OutputPin and StatefulOutputPin may use the software toggle instead,
// see DefaultToggleable.
//
// This interface is only available with the unproven build tag.
type ToggleableOutputPin interface {
	// Toggle flips the pin output.
	Toggle() error
}

// DefaultToggleable is a stateful output that opted into the software
// toggle by implementing the DefaultToggle marker method.
type DefaultToggleable interface {
	StatefulOutputPin

	// DefaultToggle is a marker; it is never called.
	DefaultToggle()
}
