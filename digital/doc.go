// Package digital defines capability contracts for digital I/O pins.
//
// Drivers implement the contracts, applications consume them. The package
// itself never talks to hardware and never interprets, wraps or retries a
// driver's error: whatever a driver returns reaches the caller unchanged.
//
// # Capabilities
//
//   - [OutputPin]: drive a push-pull output high or low
//   - [InputPin]: read the logical level of an input
//   - StatefulOutputPin: an output that can report its commanded level
//   - ToggleableOutputPin: an output that can flip its level
//
// The last two, together with the software toggle, are only compiled with
// the unproven build tag:
//
//	go build -tags unproven ./...
//
// [Unproven] reports which set was compiled.
//
// # Logical, not electrical
//
// Every level in this package is a logical one. A pin commanded high may
// still read low on the wire when something else drives the line.
//
// # Software toggle
//
// A driver that can report its commanded state may opt into a software
// toggle by implementing the DefaultToggle marker method:
//
//	type Pin struct{ high bool }
//
//	func (p *Pin) SetLow() error            { p.high = false; return nil }
//	func (p *Pin) SetHigh() error           { p.high = true; return nil }
//	func (p *Pin) IsSetHigh() (bool, error) { return p.high, nil }
//	func (p *Pin) IsSetLow() (bool, error)  { return !p.high, nil }
//	func (p *Pin) DefaultToggle()           {}
//
//	t, _ := digital.Toggler(&Pin{})
//	err := t.Toggle()
//
// Drivers with a hardware toggle implement Toggle themselves and Toggler
// picks that instead.
package digital
