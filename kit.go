package pinkit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	dnslog "github.com/brutella/dnssd/log"
	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	hklog "github.com/brutella/hap/log"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/hubertat/pinkit/drivers"
	"github.com/hubertat/pinkit/mqtt"
)

const defaultHomeKitDirectory = "./homekit"
const homeKitBridgeName = "pinkit"
const homeKitBridgeAuthor = "github.com/hubertat"

// Kit is the pin service: configured drivers, the outputs and inputs on
// them and the integrations (HomeKit, MQTT, InfluxDB) that expose them.
type Kit struct {
	Name     string
	LogLevel string

	Outputs []*Output
	Inputs  []*Input

	HkPin       string
	HkDirectory string
	HkAddress   string
	HkDebug     bool

	MqttBroker string
	MqttPrefix string

	Influx *Recorder

	Soft        *drivers.SoftIO
	Gpio        *drivers.GpIO
	Mcp23017    *drivers.McpIO
	Periph      *drivers.PeriphIO
	Shelly      *drivers.ShellyIO
	Grenton     *drivers.GrentonIO
	Remote      *drivers.RemoteIO
	RemoteSlave *drivers.RemoteIoSlave

	ioDrivers   map[string]drivers.IoDriver
	mqttClient  *mqtt.MqttClient
	mqttOutputs map[string]*mqtt.OutputTopic
}

type IO interface {
	Init(driver drivers.IoDriver) error
	GetDriverName() string
	Sync() error
}

type HkThing interface {
	GetHk() *accessory.A
	GetUniqueId() uint64
}

type ControllingDevice struct {
	Pin        uint16
	DriverName string
}

type Controllable interface {
	GetControllers() []ControllingDevice
	GetDriverName() string
	SetValue(value bool) error
	Toggle() error
}

// ParseConfig decodes a JSON config into a new Kit.
func ParseConfig(reader io.Reader) (*Kit, error) {
	kit := &Kit{}
	err := json.NewDecoder(reader).Decode(kit)
	if err != nil {
		return nil, errors.Wrap(err, "failed unmarshalling json config")
	}
	return kit, nil
}

func LoadConfig(path string) (*Kit, error) {
	configFile, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't find/open config file (%s)", path)
	}
	defer configFile.Close()

	return ParseConfig(configFile)
}

// ApplyLogLevel sets the global log level from LogLevel, if set.
func (k *Kit) ApplyLogLevel() error {
	if len(k.LogLevel) == 0 {
		return nil
	}
	level, err := log.ParseLevel(k.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid LogLevel %s", k.LogLevel)
	}
	log.SetLevel(level)
	return nil
}

func (k *Kit) getInPins(driverName string) (pins []uint16) {
	for _, in := range k.Inputs {
		if strings.EqualFold(in.DriverName, driverName) {
			pins = append(pins, in.InPin)
		}
	}
	return
}

func (k *Kit) getOutPins(driverName string) (pins []uint16) {
	for _, ou := range k.Outputs {
		if strings.EqualFold(ou.DriverName, driverName) {
			pins = append(pins, ou.OutPin)
		}
	}
	return
}

func (k *Kit) getIos() []IO {
	ios := []IO{}
	for _, ou := range k.Outputs {
		ios = append(ios, ou)
	}
	for _, in := range k.Inputs {
		ios = append(ios, in)
	}
	return ios
}

func (k *Kit) getHkThings() (things []HkThing) {
	for _, ou := range k.Outputs {
		things = append(things, ou)
	}
	for _, in := range k.Inputs {
		things = append(things, in)
	}
	return
}

func (k *Kit) configuredDrivers() (configured []drivers.IoDriver) {
	if k.Soft != nil {
		configured = append(configured, k.Soft)
	}
	if k.Gpio != nil {
		configured = append(configured, k.Gpio)
	}
	if k.Mcp23017 != nil {
		configured = append(configured, k.Mcp23017)
	}
	if k.Periph != nil {
		configured = append(configured, k.Periph)
	}
	if k.Shelly != nil {
		configured = append(configured, k.Shelly)
	}
	if k.Grenton != nil {
		configured = append(configured, k.Grenton)
	}
	if k.Remote != nil {
		configured = append(configured, k.Remote)
	}
	return
}

// OnlyDriver drops every driver block except the one named, so the other
// drivers are neither set up nor closed.
func (k *Kit) OnlyDriver(name string) {
	keep := func(driver drivers.IoDriver) bool {
		return strings.EqualFold(driver.String(), name)
	}
	if k.Soft != nil && !keep(k.Soft) {
		k.Soft = nil
	}
	if k.Gpio != nil && !keep(k.Gpio) {
		k.Gpio = nil
	}
	if k.Mcp23017 != nil && !keep(k.Mcp23017) {
		k.Mcp23017 = nil
	}
	if k.Periph != nil && !keep(k.Periph) {
		k.Periph = nil
	}
	if k.Shelly != nil && !keep(k.Shelly) {
		k.Shelly = nil
	}
	if k.Grenton != nil && !keep(k.Grenton) {
		k.Grenton = nil
	}
	if k.Remote != nil && !keep(k.Remote) {
		k.Remote = nil
	}
	k.RemoteSlave = nil
}

// KeepOutputs makes the hardware drivers adopt the current output levels
// on setup and leave them as they are on close.
func (k *Kit) KeepOutputs() {
	if k.Gpio != nil {
		k.Gpio.KeepOutputs = true
	}
	if k.Mcp23017 != nil {
		k.Mcp23017.KeepOutputs = true
	}
	if k.Periph != nil {
		k.Periph.KeepOutputs = true
	}
}

// Driver returns the set up driver with the given name.
func (k *Kit) Driver(name string) (drivers.IoDriver, bool) {
	for driverName, driver := range k.ioDrivers {
		if strings.EqualFold(driverName, name) {
			return driver, true
		}
	}
	return nil, false
}

func (k *Kit) InitDrivers(ctx context.Context) error {
	k.ioDrivers = make(map[string]drivers.IoDriver)

	for _, driver := range k.configuredDrivers() {
		err := driver.Setup(ctx, k.getInPins(driver.String()), k.getOutPins(driver.String()))
		if err != nil {
			return errors.Wrapf(err, "failed to setup %s driver", driver)
		}
		k.ioDrivers[driver.String()] = driver
	}

	for _, io := range k.getIos() {
		if _, driverFound := k.Driver(io.GetDriverName()); !driverFound {
			return errors.Errorf("driver %s not set up", io.GetDriverName())
		}
	}

	return nil
}

func (k *Kit) InitIos() error {
	for _, ou := range k.Outputs {
		ou.onChange = k.outputChanged
	}
	for _, in := range k.Inputs {
		in.onChange = k.inputChanged
	}

	for _, io := range k.getIos() {
		driver, _ := k.Driver(io.GetDriverName())
		err := io.Init(driver)
		if err != nil {
			return errors.Wrapf(err, "failed to init io on %s", io.GetDriverName())
		}
	}

	return nil
}

func (k *Kit) findInput(pinNo uint16, driverName string) *Input {
	for _, in := range k.Inputs {
		if in.InPin == pinNo && strings.EqualFold(in.DriverName, driverName) {
			return in
		}
	}
	return nil
}

// FindOutput returns the output with the given name.
func (k *Kit) FindOutput(name string) *Output {
	for _, ou := range k.Outputs {
		if strings.EqualFold(ou.Name, name) {
			return ou
		}
	}
	return nil
}

// MatchControllers binds every output to the inputs listed in its
// ControlBy. A controller without DriverName is on the output's driver.
func (k *Kit) MatchControllers() error {
	for _, ou := range k.Outputs {
		for _, controller := range ou.GetControllers() {
			driverName := ou.GetDriverName()
			if len(controller.DriverName) > 0 {
				driverName = controller.DriverName
			}
			if _, driverReady := k.Driver(driverName); !driverReady {
				return errors.Errorf("matching controlled failed, driver (%s) not present or not ready", driverName)
			}

			in := k.findInput(controller.Pin, driverName)
			if in == nil {
				return errors.Errorf("matching controlled failed, no input found with pin = %d and driver %s", controller.Pin, driverName)
			}
			in.controls = append(in.controls, ou)
		}
	}

	return nil
}

// outputChanged runs without the output lock held.
func (k *Kit) outputChanged(ou *Output) {
	state := ou.GetState()
	log.Debug("output changed", "name", ou.Name, "state", state)

	if topic, ok := k.mqttOutputs[ou.Name]; ok {
		err := topic.PublishState(state)
		if err != nil {
			log.Error("mqtt publish failed", "output", ou.Name, "err", err)
		}
	}
	k.record(ou.Name, ou.DriverName, ou.OutPin, state)
}

func (k *Kit) inputChanged(in *Input) {
	log.Debug("input changed", "name", in.Name, "state", in.State)
	k.record(in.Name, in.DriverName, in.InPin, in.State)
}

// InitRecorder opens the InfluxDB recorder when one is configured.
func (k *Kit) InitRecorder() error {
	if k.Influx == nil {
		return nil
	}
	return errors.Wrap(k.Influx.Open(), "failed to open influx recorder")
}

func (k *Kit) record(name string, driver string, pin uint16, state bool) {
	if k.Influx == nil {
		return
	}
	err := k.Influx.Record(name, driver, pin, state)
	if err != nil {
		log.Error("influx record failed", "name", name, "err", err)
	}
}

// SyncAll syncs inputs first, so outputs they drive are read back in the
// same round.
func (k *Kit) SyncAll() {
	for _, in := range k.Inputs {
		err := in.Sync()
		if err != nil {
			log.Error("Received error from syncing input", "input", in.Name, "err", err)
		}
	}
	for _, ou := range k.Outputs {
		err := ou.Sync()
		if err != nil {
			log.Error("Received error from syncing output", "output", ou.Name, "err", err)
		}
	}
}

// StartTicker syncs all ios every interval until ctx is done.
func (k *Kit) StartTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.SyncAll()
		}
	}
}

// StartRemoteSlave serves the driver named in RemoteSlave.Driver over HTTP.
func (k *Kit) StartRemoteSlave() error {
	if k.RemoteSlave == nil {
		return nil
	}
	driver, found := k.Driver(k.RemoteSlave.Driver)
	if !found {
		return errors.Errorf("remote slave driver (%s) not set up", k.RemoteSlave.Driver)
	}
	return k.RemoteSlave.Start(driver)
}

func (k *Kit) Close() error {
	var errs []error
	if k.RemoteSlave != nil {
		if closeErr := k.RemoteSlave.Close(); closeErr != nil {
			errs = append(errs, errors.Wrap(closeErr, "closing remote slave"))
		}
	}
	if k.mqttClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		k.mqttClient.Disconnect(ctx)
		cancel()
	}
	if k.Influx != nil {
		k.Influx.Close()
	}

	for _, driver := range k.ioDrivers {
		closeErr := driver.Close()
		if closeErr != nil {
			errs = append(errs, errors.Wrapf(closeErr, "closing %s", driver))
		}
	}

	return joinErrors(errs)
}

func (k *Kit) PrintIoStatus(writer io.Writer) {
	fmt.Fprintln(writer)
	fmt.Fprintln(writer, "=== active io drivers ===")
	for driverName, driver := range k.ioDrivers {
		fmt.Fprintln(writer, "________")
		fmt.Fprintf(writer, "| driver: %s\n", driverName)
		inputs, outputs := driver.GetAllIo()
		fmt.Fprintf(writer, "| in pins: ")
		for _, inpin := range inputs {
			fmt.Fprintf(writer, "%d, ", inpin)
		}
		fmt.Fprintf(writer, "\n| out pins: ")
		for _, outpin := range outputs {
			fmt.Fprintf(writer, "%d, ", outpin)
		}
		fmt.Fprintln(writer)
		fmt.Fprintln(writer, "--------")
	}
	fmt.Fprintln(writer, "-----------------------------")
	fmt.Fprintln(writer)
}

func (k *Kit) GetHkAccessories(firmwareVersion string) (acc []*accessory.A) {
	acc = []*accessory.A{}

	for _, th := range k.getHkThings() {
		accessory := th.GetHk()
		if accessory != nil {
			if accessory.Info != nil && accessory.Info.FirmwareRevision != nil {
				accessory.Info.FirmwareRevision.SetValue(firmwareVersion)
			}
			accessory.Id = th.GetUniqueId()
			acc = append(acc, accessory)
		}
	}

	return
}

func (k *Kit) StartHomeKit(ctx context.Context, firmwareVersion string) error {
	hkName := k.Name
	if len(hkName) < 1 {
		hkName = homeKitBridgeName
	}
	bridge := accessory.NewBridge(accessory.Info{
		Name:         hkName,
		Manufacturer: homeKitBridgeAuthor,
		Firmware:     firmwareVersion,
	})

	var store hap.Store
	if len(k.HkDirectory) > 1 {
		store = hap.NewFsStore(k.HkDirectory)
	} else {
		store = hap.NewFsStore(defaultHomeKitDirectory)
	}
	hkServer, err := hap.NewServer(store, bridge.A, k.GetHkAccessories(firmwareVersion)...)
	if err != nil {
		return errors.Wrap(err, "failed to create HomeKit server")
	}
	hkServer.Pin = k.HkPin
	if len(k.HkAddress) > 0 {
		hkServer.Addr = k.HkAddress
	}

	if k.HkDebug {
		hklog.Debug.Enable()
		dnslog.Debug.Enable()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-c
		signal.Stop(c)
		cancel()
	}()

	return hkServer.ListenAndServe(ctx)
}

// InitMqtt connects to MqttBroker and binds every output to its set and
// state topics.
func (k *Kit) InitMqtt() (err error) {
	if len(k.MqttBroker) == 0 {
		err = errors.New("mqtt broker not set")
		return
	}

	clientId := k.Name
	if len(clientId) == 0 {
		clientId = homeKitBridgeName
	}
	mc, err := mqtt.NewMqttClient(k.MqttBroker, clientId)
	if err != nil {
		err = errors.Wrap(err, "failed to create mqtt client")
		return
	}

	k.mqttClient = mc
	handlers := k.bindMqtt(mc)

	err = mc.Connect(handlers)
	if err != nil {
		err = errors.Wrap(err, "failed to connect to mqtt broker")
		return
	}

	for _, ou := range k.Outputs {
		pubErr := k.mqttOutputs[ou.Name].PublishState(ou.GetState())
		if pubErr != nil {
			log.Warn("initial state publish failed", "output", ou.Name, "err", pubErr)
		}
	}
	return
}

func (k *Kit) bindMqtt(publisher mqtt.Publisher) (handlers []mqtt.MqttHandler) {
	k.mqttOutputs = make(map[string]*mqtt.OutputTopic)
	for _, ou := range k.Outputs {
		topic := mqtt.NewOutputTopic(k.MqttPrefix, ou.Name, ou, publisher)
		k.mqttOutputs[ou.Name] = topic
		handlers = append(handlers, topic)
	}
	return
}
