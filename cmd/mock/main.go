package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hubertat/pinkit"
	"github.com/hubertat/pinkit/drivers"
)

var (
	Version string
	Build   string

	mqttBroker = flag.String("mqtt", "", "mqtt broker url, mqtt disabled if empty")
)

func main() {
	flag.Parse()
	log.SetLevel(log.DebugLevel)

	log.Info("pinkit mock started, runs on soft pins only", "version", Version)

	syncDuration := 250 * time.Millisecond
	log.Info("syncing", "interval", syncDuration)

	kit := &pinkit.Kit{
		Name:        "pinkit mock",
		HkPin:       "88008800",
		HkDirectory: "./mock_homekit",
		MqttBroker:  *mqttBroker,
		Soft:        &drivers.SoftIO{},
	}
	kit.Outputs = append(kit.Outputs,
		&pinkit.Output{Name: "fake light", DriverName: "soft", OutPin: 1, ControlBy: []pinkit.ControllingDevice{{Pin: 10}}},
		&pinkit.Output{Name: "fake outlet", DriverName: "soft", OutPin: 2, ControlBy: []pinkit.ControllingDevice{{Pin: 11}}},
	)
	kit.Inputs = append(kit.Inputs,
		&pinkit.Input{Name: "fake switch", DriverName: "soft", InPin: 10, Mode: pinkit.ModeSwitch},
		&pinkit.Input{Name: "fake button", DriverName: "soft", InPin: 11, Mode: pinkit.ModeButton},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := kit.InitDrivers(ctx)
	defer kit.Close()
	if err != nil {
		log.Fatal(err)
	}
	err = kit.InitIos()
	if err != nil {
		log.Fatal(err)
	}
	err = kit.MatchControllers()
	if err != nil {
		log.Fatal(err)
	}

	if len(kit.MqttBroker) > 0 {
		err = kit.InitMqtt()
		if err != nil {
			log.Error("mqtt not available", "err", err)
		}
	}

	kit.Soft.MonitorStateChanges(os.Stdout)
	kit.PrintIoStatus(os.Stdout)

	go kit.StartTicker(ctx, syncDuration)
	go pressButton(ctx, kit.Soft, 11)

	log.Info("starting mock with HomeKit service")
	log.Fatal(kit.StartHomeKit(ctx, "mock: "+Version))
}

// pressButton clicks a soft button every few seconds, so the outlet
// keeps toggling.
func pressButton(ctx context.Context, soft *drivers.SoftIO, pin uint16) {
	button, err := soft.Input(pin)
	if err != nil {
		log.Error("no button to press", "err", err)
		return
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			button.Set(true)
			time.Sleep(time.Second)
			button.Set(false)
		}
	}
}
