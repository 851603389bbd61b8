package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hubertat/servicemaker"

	"github.com/hubertat/pinkit"
)

const defaultSyncInterval = "330ms"

var (
	Version string
	Build   string

	config       = flag.String("config", "config.json", "path of the configuration file")
	flagInstall  = flag.Bool("install", false, "Install service in os")
	syncInterval = flag.String("sync", defaultSyncInterval, "sync interval (time.Duration)")
	logLevel     = flag.String("log", "", "log level (debug, info, warn, error), overrides LogLevel from config")

	pinkitService = servicemaker.ServiceMaker{
		User:               "pinkit",
		UserGroups:         []string{"gpio", "i2c"},
		ServicePath:        "/etc/systemd/system/pinkit.service",
		ServiceDescription: "pinkit service: HomeKit and MQTT enabled digital io controller. github.com/hubertat/pinkit",
		ExecDir:            "/srv/pinkit",
		ExecName:           "pinkit",
	}
)

func main() {
	flag.Parse()
	log.Info("pinkit started", "version", Version, "build", Build)

	if *flagInstall {
		err := pinkitService.InstallService()
		if err != nil {
			log.Fatal("service install failed", "err", err)
		}
		log.Info("service installed!")
		return
	}

	syncDuration, err := time.ParseDuration(*syncInterval)
	if err != nil {
		log.Fatal("invalid sync interval", "err", err)
	}

	kit, err := pinkit.LoadConfig(*config)
	if err != nil {
		log.Fatal("can't load config, will terminate", "err", err)
	}
	if len(*logLevel) > 0 {
		kit.LogLevel = *logLevel
	}
	err = kit.ApplyLogLevel()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("will init pinkit drivers...")
	err = kit.InitDrivers(ctx)
	defer kit.Close()
	if err != nil {
		log.Fatal("drivers init failed", "err", err)
	}
	log.Info("will init pinkit IOs...")
	err = kit.InitIos()
	if err != nil {
		log.Fatal("ios init failed", "err", err)
	}

	err = kit.MatchControllers()
	if err != nil {
		log.Warn("Matching Controllers returned error, we will proceed...", "err", err)
	} else {
		log.Info("MatchControllers OK!")
	}

	err = kit.InitRecorder()
	if err != nil {
		log.Error("influx recorder disabled", "err", err)
		kit.Influx = nil
	}

	err = kit.StartRemoteSlave()
	if err != nil {
		log.Fatal("remote slave failed", "err", err)
	}

	if len(kit.MqttBroker) > 0 {
		err = kit.InitMqtt()
		if err != nil {
			log.Error("mqtt not available", "err", err)
		}
	}

	kit.PrintIoStatus(os.Stdout)

	if len(kit.HkPin) == 8 {
		log.Info("Starting with HomeKit server")

		go kit.StartTicker(ctx, syncDuration)
		err = kit.StartHomeKit(ctx, Version)
		if err != nil {
			log.Error("HomeKit server stopped", "err", err)
		}
	} else {
		log.Info("HomeKit not configured, disabled")
		kit.StartTicker(ctx, syncDuration)
	}
}
