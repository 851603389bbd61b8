package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eclipse/paho.golang/paho"

	"github.com/hubertat/pinkit/mqtt"
)

const clientID = "pinkit-mqttset"

var (
	broker  = flag.String("broker", "mqtt://localhost:1883", "mqtt broker url")
	prefix  = flag.String("prefix", mqtt.DefaultPrefix, "topic prefix of the pinkit service")
	name    = flag.String("name", "", "output name")
	timeout = flag.Duration("timeout", 5*time.Second, "how long to wait for the state")
)

// stateWatcher waits for the state an output publishes after a command.
type stateWatcher struct {
	topic string
	state chan string
}

func (sw *stateWatcher) MqttSubscribeTopic() string {
	return sw.topic
}

func (sw *stateWatcher) MqttHandle(pub *paho.Publish) {
	log.Debug("received mqtt message", "topic", pub.Topic, "retain", pub.Retain)
	if pub.Retain {
		// old state from before the command
		return
	}
	select {
	case sw.state <- string(pub.Payload):
	default:
	}
}

func main() {
	flag.Parse()

	if flag.NArg() != 1 || len(*name) == 0 {
		fmt.Fprintln(os.Stderr, "usage: mqttset -name OUTPUT [flags] on|off|toggle")
		os.Exit(2)
	}
	cmd, err := mqtt.ParseCommand([]byte(flag.Arg(0)))
	if err != nil {
		log.Fatal(err)
	}

	mc, err := mqtt.NewMqttClient(*broker, clientID)
	if err != nil {
		log.Fatal("failed to create mqtt client", "err", err)
	}

	topic := mqtt.NewOutputTopic(*prefix, *name, nil, mc)
	watcher := &stateWatcher{topic: topic.StateTopic(), state: make(chan string, 1)}

	err = mc.Connect([]mqtt.MqttHandler{watcher})
	if err != nil {
		log.Fatal("failed to connect to mqtt broker", "err", err)
	}
	defer mc.Disconnect(context.Background())

	err = mc.Publish(topic.MqttSubscribeTopic(), []byte(cmd.String()), false)
	if err != nil {
		log.Fatal("publish failed", "err", err)
	}

	select {
	case state := <-watcher.state:
		fmt.Println(state)
	case <-time.After(*timeout):
		log.Fatal("no state received", "topic", watcher.topic)
	}
}
