//go:build rp2040

package main

import (
	"machine"
	"time"

	"github.com/hubertat/pinkit/pico"
)

const pollInterval = 5 * time.Millisecond

func main() {
	board := pico.PicoType1()
	err := board.Setup()
	if err != nil {
		println("setup failed:", err.Error())
		panic(err)
	}
	println("setup OK!")

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	heartbeat := time.Now()
	for {
		now := time.Now()
		err = board.Poll(now)
		if err != nil {
			println("poll failed:", err.Error())
		}

		led.Set(now.Sub(heartbeat) < 100*time.Millisecond)
		if now.Sub(heartbeat) > time.Second {
			heartbeat = now
		}
		time.Sleep(pollInterval)
	}
}
