package pinkit

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/hubertat/pinkit/digital"
	"github.com/hubertat/pinkit/drivers"
)

const (
	ModeSwitch = "switch"
	ModeButton = "button"
	ModeMotion = "motion"
)

// Input is a named input pin. In switch and motion mode its level is
// mirrored onto the outputs it controls; in button mode a rising edge
// toggles them. The mode also picks the HomeKit accessory: contact sensor,
// programmable switch or motion sensor.
type Input struct {
	Name       string
	State      bool
	DriverName string
	InPin      uint16
	Mode       string

	DisableHomekit bool

	controls []Controllable
	input    digital.InputPin
	driver   drivers.IoDriver

	onChange func(in *Input)

	hk      *accessory.A
	button  *service.StatelessProgrammableSwitch
	contact *service.ContactSensor
	motion  *service.MotionSensor
}

func (in *Input) GetDriverName() string {
	return in.DriverName
}

func (in *Input) GetUniqueId() uint64 {
	hash := fnv.New64()
	hash.Write([]byte("Input_" + in.Name))
	return hash.Sum64()
}

func (in *Input) isButton() bool {
	return in.Mode == ModeButton
}

func (in *Input) Init(driver drivers.IoDriver) error {
	if !strings.EqualFold(driver.String(), in.DriverName) {
		return errors.Errorf("Init failed, mismatched or incorrect driver (%s)", driver)
	}

	if !driver.IsReady() {
		return errors.New("Init failed, driver not ready")
	}

	switch strings.ToLower(in.Mode) {
	case "":
		in.Mode = ModeSwitch
	case ModeSwitch, ModeButton, ModeMotion:
		in.Mode = strings.ToLower(in.Mode)
	default:
		return errors.Errorf("Init failed, unknown input mode %s", in.Mode)
	}

	var err error

	in.driver = driver
	in.input, err = driver.GetInput(in.InPin)
	if err != nil {
		return errors.Wrap(err, "Init failed on getting input")
	}

	in.State, err = in.input.IsHigh()
	if err != nil {
		return errors.Wrap(err, "Init failed, on reading state")
	}

	if in.DisableHomekit {
		return nil
	}

	info := accessory.Info{
		Name:         in.Name,
		SerialNumber: fmt.Sprintf("input:%s:%02d", in.DriverName, in.InPin),
	}
	switch in.Mode {
	case ModeButton:
		in.hk = accessory.New(info, accessory.TypeProgrammableSwitch)
		in.button = service.NewStatelessProgrammableSwitch()
		in.hk.AddS(in.button.S)
	case ModeMotion:
		in.hk = accessory.New(info, accessory.TypeSensor)
		in.motion = service.NewMotionSensor()
		in.hk.AddS(in.motion.S)
	default:
		in.hk = accessory.New(info, accessory.TypeSensor)
		in.contact = service.NewContactSensor()
		in.hk.AddS(in.contact.S)
	}
	in.showLevel()

	return nil
}

func (in *Input) showLevel() {
	if in.motion != nil {
		in.motion.MotionDetected.SetValue(in.State)
	}
	if in.contact == nil {
		return
	}
	if in.State {
		in.contact.ContactSensorState.SetValue(characteristic.ContactSensorStateContactDetected)
	} else {
		in.contact.ContactSensorState.SetValue(characteristic.ContactSensorStateContactNotDetected)
	}
}

// Sync reads the input and acts on a level change.
func (in *Input) Sync() error {
	high, err := in.input.IsHigh()
	if err != nil {
		return errors.Wrapf(err, "reading %s failed", in.Name)
	}
	if high == in.State {
		return nil
	}

	in.State = high
	if in.onChange != nil {
		in.onChange(in)
	}

	if in.isButton() {
		if high {
			in.push()
		}
		return nil
	}

	in.showLevel()
	var errs []error
	for _, c := range in.controls {
		err = c.SetValue(high)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return joinErrors(errs)
}

func (in *Input) push() {
	if in.button != nil {
		in.button.ProgrammableSwitchEvent.SetValue(characteristic.ProgrammableSwitchEventSinglePress)
	}
	for _, c := range in.controls {
		err := c.Toggle()
		if err != nil {
			log.Error("button toggle failed", "input", in.Name, "err", err)
		}
	}
}

func (in *Input) GetHk() *accessory.A {
	return in.hk
}

func (in *Input) GetValue() bool {
	return in.State
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return errors.New(strings.Join(msgs, "; "))
}
