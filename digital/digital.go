package digital

// OutputPin is a single digital push-pull output pin.
type OutputPin interface {
	// SetLow drives the pin low.
	//
	// The electrical state of the pin may not actually be low, e.g. due to
	// external electrical sources.
	SetLow() error

	// SetHigh drives the pin high.
	//
	// The electrical state of the pin may not actually be high, e.g. due to
	// external electrical sources.
	SetHigh() error
}

// InputPin is a single digital input pin.
type InputPin interface {
	// IsHigh reports whether the input is high.
	IsHigh() (bool, error)

	// IsLow reports whether the input is low.
	IsLow() (bool, error)
}

// Infallible is implemented by pins whose operations never return a
// non-nil error. Callers holding an Infallible pin may ignore errors.
type Infallible interface {
	Infallible()
}

// IsInfallible reports whether pin declared itself infallible.
func IsInfallible(pin any) bool {
	_, ok := pin.(Infallible)
	return ok
}
