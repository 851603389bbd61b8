package pinkit

import (
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/hubertat/pinkit/digital"
	"github.com/hubertat/pinkit/drivers"
)

// Output is a named output pin of one driver. It is shown in HomeKit as an
// outlet and can be driven by inputs, MQTT and HomeKit at once.
type Output struct {
	Name           string
	State          bool
	DriverName     string
	OutPin         uint16
	DisableHomekit bool
	IsFaulty       bool

	ControlBy []ControllingDevice

	output digital.OutputPin
	driver drivers.IoDriver

	hk    *accessory.Outlet
	fault *characteristic.StatusFault

	onChange func(ou *Output)

	lock sync.Mutex
}

func (ou *Output) GetDriverName() string {
	return ou.DriverName
}

func (ou *Output) GetUniqueId() uint64 {
	hash := fnv.New64()
	hash.Write([]byte("Output_" + ou.Name))
	return hash.Sum64()
}

func (ou *Output) Init(driver drivers.IoDriver) error {
	if !strings.EqualFold(driver.String(), ou.DriverName) {
		return errors.Errorf("Init failed, mismatched or incorrect driver (%s)", driver)
	}

	if !driver.IsReady() {
		return errors.New("Init failed, driver not ready")
	}

	var err error

	ou.driver = driver
	ou.output, err = driver.GetOutput(ou.OutPin)
	if err != nil {
		return errors.Wrap(err, "Init failed")
	}

	// drivers that remember their state (remote, shelly) may already be on
	high, err := drivers.OutputState(ou.output)
	if err == nil {
		ou.State = high
	}

	if ou.DisableHomekit {
		return nil
	}
	info := accessory.Info{
		Name:         ou.Name,
		SerialNumber: fmt.Sprintf("output:%s:%02d", ou.DriverName, ou.OutPin),
	}
	ou.hk = accessory.NewOutlet(info)
	ou.hk.Outlet.On.SetValue(ou.State)

	ou.fault = characteristic.NewStatusFault()
	ou.fault.SetValue(characteristic.StatusFaultNoFault)
	ou.hk.Outlet.AddC(ou.fault.C)

	ou.hk.Outlet.On.OnValueRemoteUpdate(func(on bool) {
		err := ou.SetValue(on)
		if err != nil {
			log.Error("HomeKit update failed", "output", ou.Name, "err", err)
		}
	})
	return nil
}

func (ou *Output) setFaulty(err error) {
	ou.IsFaulty = err != nil
	if ou.fault == nil {
		return
	}
	if ou.IsFaulty {
		ou.fault.SetValue(characteristic.StatusFaultGeneralFault)
	} else {
		ou.fault.SetValue(characteristic.StatusFaultNoFault)
	}
}

// changed runs with the lock held, after State was updated. It reports
// whether onChange is due; the hook runs once the lock is released.
func (ou *Output) changed(oldState bool) bool {
	if oldState == ou.State {
		return false
	}
	if ou.hk != nil {
		ou.hk.Outlet.On.SetValue(ou.State)
	}
	return ou.onChange != nil
}

func (ou *Output) notify(due bool) {
	if due {
		ou.onChange(ou)
	}
}

// Sync reads back the commanded state from outputs able to report it.
// Others keep the last state set through this Output.
func (ou *Output) Sync() error {
	ou.lock.Lock()
	high, err := drivers.OutputState(ou.output)
	if errors.Is(err, drivers.ErrStateUnsupported) {
		ou.lock.Unlock()
		return nil
	}
	ou.setFaulty(err)
	if err != nil {
		ou.lock.Unlock()
		return errors.Wrapf(err, "Sync of %s failed", ou.Name)
	}

	oldState := ou.State
	ou.State = high
	due := ou.changed(oldState)
	ou.lock.Unlock()

	ou.notify(due)
	return nil
}

func (ou *Output) GetControllers() []ControllingDevice {
	return ou.ControlBy
}

func (ou *Output) GetHk() *accessory.A {
	if ou.hk == nil {
		return nil
	}
	return ou.hk.A
}

func (ou *Output) GetState() bool {
	ou.lock.Lock()
	defer ou.lock.Unlock()

	return ou.State
}

func (ou *Output) write(state bool) error {
	if state {
		return ou.output.SetHigh()
	}
	return ou.output.SetLow()
}

// SetValue drives the output. State is only updated when the driver
// accepted the write.
func (ou *Output) SetValue(state bool) error {
	ou.lock.Lock()
	err := ou.write(state)
	ou.setFaulty(err)
	if err != nil {
		ou.lock.Unlock()
		return errors.Wrapf(err, "setting %s failed", ou.Name)
	}

	oldState := ou.State
	ou.State = state
	due := ou.changed(oldState)
	ou.lock.Unlock()

	ou.notify(due)
	return nil
}

// Toggle uses the pin's own toggle when it has one and otherwise writes
// the opposite of the last known State.
func (ou *Output) Toggle() error {
	ou.lock.Lock()
	oldState := ou.State
	err := drivers.ToggleOutput(ou.output)
	if errors.Is(err, drivers.ErrToggleUnsupported) {
		err = ou.write(!oldState)
	}
	ou.setFaulty(err)
	if err != nil {
		ou.lock.Unlock()
		return errors.Wrapf(err, "toggling %s failed", ou.Name)
	}

	high, err := drivers.OutputState(ou.output)
	if err != nil {
		high = !oldState
	}
	ou.State = high
	due := ou.changed(oldState)
	ou.lock.Unlock()

	ou.notify(due)
	return nil
}
