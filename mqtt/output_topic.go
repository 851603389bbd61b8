package mqtt

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/eclipse/paho.golang/paho"
	"github.com/pkg/errors"
)

const DefaultPrefix = "pinkit"

const (
	stateOn  = "on"
	stateOff = "off"
)

type Command int

const (
	CommandOff Command = iota
	CommandOn
	CommandToggle
)

func (c Command) String() string {
	switch c {
	case CommandOn:
		return "on"
	case CommandOff:
		return "off"
	case CommandToggle:
		return "toggle"
	}
	return "unknown"
}

// ParseCommand reads a set topic payload. Case and surrounding whitespace
// are ignored.
func ParseCommand(payload []byte) (Command, error) {
	switch strings.ToLower(strings.TrimSpace(string(payload))) {
	case "on", "high", "1", "true":
		return CommandOn, nil
	case "off", "low", "0", "false":
		return CommandOff, nil
	case "toggle":
		return CommandToggle, nil
	}
	return CommandOff, errors.Errorf("unknown command payload: %q", payload)
}

// Commandable is what an OutputTopic drives.
type Commandable interface {
	SetValue(state bool) error
	Toggle() error
	GetState() bool
}

// OutputTopic binds one output to <prefix>/<name>/set and
// <prefix>/<name>/state.
type OutputTopic struct {
	Prefix string
	Name   string

	output    Commandable
	publisher Publisher
}

func NewOutputTopic(prefix string, name string, output Commandable, publisher Publisher) *OutputTopic {
	if len(prefix) == 0 {
		prefix = DefaultPrefix
	}
	return &OutputTopic{
		Prefix:    strings.TrimSuffix(prefix, "/"),
		Name:      name,
		output:    output,
		publisher: publisher,
	}
}

func (ot *OutputTopic) topic(suffix string) string {
	return ot.Prefix + "/" + ot.Name + "/" + suffix
}

func (ot *OutputTopic) MqttSubscribeTopic() string {
	return ot.topic("set")
}

func (ot *OutputTopic) StateTopic() string {
	return ot.topic("state")
}

// MqttHandle applies a command. A state change is published by the
// output's owner; an unchanged state (failed or no-op command) is echoed
// here so the sender still gets an answer.
func (ot *OutputTopic) MqttHandle(pub *paho.Publish) {
	cmd, err := ParseCommand(pub.Payload)
	if err != nil {
		log.Warn("ignoring mqtt command", "output", ot.Name, "err", err)
		return
	}

	before := ot.output.GetState()
	switch cmd {
	case CommandToggle:
		err = ot.output.Toggle()
	default:
		err = ot.output.SetValue(cmd == CommandOn)
	}
	if err != nil {
		log.Error("mqtt command failed", "output", ot.Name, "cmd", cmd, "err", err)
	}

	state := ot.output.GetState()
	if state != before {
		return
	}
	err = ot.PublishState(state)
	if err != nil {
		log.Error("publishing state failed", "output", ot.Name, "err", err)
	}
}

// PublishState publishes a retained on/off message on the state topic.
func (ot *OutputTopic) PublishState(state bool) error {
	if ot.publisher == nil {
		return nil
	}

	payload := stateOff
	if state {
		payload = stateOn
	}
	return ot.publisher.Publish(ot.StateTopic(), []byte(payload), true)
}
