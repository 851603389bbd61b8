package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/hubertat/pinkit"
	"github.com/hubertat/pinkit/drivers"
)

var (
	Version string

	config     = flag.String("config", "config.json", "path of the configuration file with driver blocks")
	driverName = flag.String("driver", "", "name of the driver holding the pin")
	pinNo      = flag.Uint("pin", 0, "pin number")
	logLevel   = flag.String("log", "warn", "log level")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "pinctl %s\n\nusage: pinctl [flags] high|low|read|state|toggle\n\n", Version)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal("invalid log level", "err", err)
	}
	log.SetLevel(level)

	if flag.NArg() != 1 || len(*driverName) == 0 || *pinNo > 0xffff {
		flag.Usage()
		os.Exit(2)
	}

	kit, err := pinkit.LoadConfig(*config)
	if err != nil {
		log.Fatal(err)
	}

	out, err := run(context.Background(), kit, *driverName, uint16(*pinNo), flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out)
}

// run sets up a single pin on the named driver and applies cmd to it.
// Other drivers in the config are left alone, and outputs keep the level
// they were left at.
func run(ctx context.Context, kit *pinkit.Kit, driverName string, pin uint16, cmd string) (string, error) {
	kit.OnlyDriver(driverName)
	kit.KeepOutputs()

	input := cmd == "read"
	if input {
		kit.Inputs = []*pinkit.Input{{Name: "pinctl", DriverName: driverName, InPin: pin}}
	} else {
		kit.Outputs = []*pinkit.Output{{Name: "pinctl", DriverName: driverName, OutPin: pin}}
	}

	err := kit.InitDrivers(ctx)
	defer kit.Close()
	if err != nil {
		return "", err
	}
	driver, _ := kit.Driver(driverName)

	if input {
		in, err := driver.GetInput(pin)
		if err != nil {
			return "", err
		}
		high, err := in.IsHigh()
		return level(high), err
	}

	out, err := driver.GetOutput(pin)
	if err != nil {
		return "", err
	}

	switch cmd {
	case "high":
		return level(true), out.SetHigh()
	case "low":
		return level(false), out.SetLow()
	case "state":
		high, err := drivers.OutputState(out)
		return level(high), err
	case "toggle":
		err = drivers.ToggleOutput(out)
		if err != nil {
			return "", err
		}
		high, err := drivers.OutputState(out)
		if errors.Is(err, drivers.ErrStateUnsupported) {
			return "toggled", nil
		}
		return level(high), err
	}
	return "", errors.Errorf("unknown command %s", cmd)
}

func level(high bool) string {
	if high {
		return "high"
	}
	return "low"
}
