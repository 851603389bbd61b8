//go:build unproven

package digital

// SoftwareToggle toggles an opted-in pin by reading its commanded state
// and writing the opposite level. It embeds the pin, so it is still a
// StatefulOutputPin.
type SoftwareToggle struct {
	DefaultToggleable
}

// NewSoftwareToggle wraps pin with the software toggle.
func NewSoftwareToggle(pin DefaultToggleable) *SoftwareToggle {
	return &SoftwareToggle{DefaultToggleable: pin}
}

// Toggle drives the pin high if it is set low, low otherwise. An error
// reading the commanded state is returned before any write is attempted;
// an error from the write is returned as is.
func (st *SoftwareToggle) Toggle() error {
	low, err := st.IsSetLow()
	if err != nil {
		return err
	}

	if low {
		return st.SetHigh()
	}
	return st.SetLow()
}

// Toggler returns the toggle for pin. A pin implementing
// ToggleableOutputPin is returned as is; a pin that opted into the
// software toggle is wrapped in SoftwareToggle. Any other pin has no
// toggle and ok is false.
func Toggler(pin OutputPin) (toggler ToggleableOutputPin, ok bool) {
	if native, isNative := pin.(ToggleableOutputPin); isNative {
		return native, true
	}

	if soft, optedIn := pin.(DefaultToggleable); optedIn {
		return NewSoftwareToggle(soft), true
	}

	return nil, false
}
