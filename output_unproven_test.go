//go:build unproven

package pinkit

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/hubertat/pinkit/digital"
	"github.com/hubertat/pinkit/drivers"
)

// relayOutput can only be driven, like a relay board without readback.
type relayOutput struct {
	lock sync.Mutex
	high bool
}

func (ro *relayOutput) SetLow() error  { ro.set(false); return nil }
func (ro *relayOutput) SetHigh() error { ro.set(true); return nil }

func (ro *relayOutput) set(high bool) {
	ro.lock.Lock()
	defer ro.lock.Unlock()
	ro.high = high
}

func (ro *relayOutput) isHigh() bool {
	ro.lock.Lock()
	defer ro.lock.Unlock()
	return ro.high
}

type relayDriver struct {
	relays map[uint16]*relayOutput
}

func (rd *relayDriver) Setup(ctx context.Context, inputs []uint16, outputs []uint16) error {
	return nil
}
func (rd *relayDriver) Close() error   { return nil }
func (rd *relayDriver) String() string { return "relay" }
func (rd *relayDriver) IsReady() bool  { return true }

func (rd *relayDriver) GetInput(pin uint16) (digital.InputPin, error) {
	return nil, fmt.Errorf("relay input %d not found", pin)
}

func (rd *relayDriver) GetOutput(pin uint16) (digital.OutputPin, error) {
	if ro, ok := rd.relays[pin]; ok {
		return ro, nil
	}
	return nil, fmt.Errorf("relay %d not found", pin)
}

func (rd *relayDriver) GetAllIo() (inputs []uint16, outputs []uint16) {
	for pin := range rd.relays {
		outputs = append(outputs, pin)
	}
	return
}

func TestOutputToggleRemoteWithoutToggle(t *testing.T) {
	relays := &relayDriver{relays: map[uint16]*relayOutput{4: {}}}
	slave := &drivers.RemoteIoSlave{}
	server := httptest.NewServer(slave.Handler(relays))
	defer server.Close()

	rio := &drivers.RemoteIO{Host: server.URL}
	if err := rio.Setup(context.Background(), nil, []uint16{4}); err != nil {
		t.Fatalf("Setup returned err: %v", err)
	}

	gate := &Output{Name: "gate", DriverName: "remoteio", OutPin: 4, DisableHomekit: true}
	if err := gate.Init(rio); err != nil {
		t.Fatalf("Init returned err: %v", err)
	}

	if err := gate.Toggle(); err != nil {
		t.Fatalf("Toggle returned err: %v", err)
	}
	assertBools(t, gate.GetState(), true)
	assertBools(t, relays.relays[4].isHigh(), true)

	if err := gate.Toggle(); err != nil {
		t.Fatalf("Toggle returned err: %v", err)
	}
	assertBools(t, gate.GetState(), false)
	assertBools(t, relays.relays[4].isHigh(), false)

	// Sync can't read the state back, it keeps the last one
	if err := gate.Sync(); err != nil {
		t.Errorf("Sync returned err: %v", err)
	}
}
