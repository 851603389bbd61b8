package drivers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/hubertat/go-ethereum/rpc"
	"github.com/pkg/errors"

	"github.com/hubertat/pinkit/digital"
)

const shellyDriverName = "shelly"

// ShellyIO drives the relays (outputs) and inputs of a gen2 Shelly device
// through its JSON-RPC endpoint. Pin numbers are the component ids.
type ShellyIO struct {
	Addr  string
	Watch bool

	client  *rpc.Client
	watcher *shellyWatcher
	inputs  []*ShellyInput
	outputs []*ShellyOutput
	isReady bool
}

type shellyDeviceInfo struct {
	ID    string `json:"id"`
	Model string `json:"model"`
	Gen   int    `json:"gen"`
}

type shellyInputStatus struct {
	ID    int   `json:"id"`
	State *bool `json:"state"`
}

type shellyToggleResult struct {
	WasOn bool `json:"was_on"`
}

type ShellyInput struct {
	id     uint16
	client *rpc.Client
}

// ShellyOutput is a relay. The device toggles relays itself, so Toggle is
// a single call.
type ShellyOutput struct {
	id     uint16
	client *rpc.Client

	lock sync.Mutex
	high bool
}

func (si *ShellyInput) IsHigh() (bool, error) {
	status := shellyInputStatus{}
	err := si.client.Call(&status, "Input.GetStatus", map[string]interface{}{"id": si.id})
	if err != nil {
		return false, pinError(shellyDriverName, si.id, "Input.GetStatus", err)
	}
	if status.State == nil {
		return false, pinError(shellyDriverName, si.id, "Input.GetStatus", errors.New("input is not in switch or button mode"))
	}
	return *status.State, nil
}

func (si *ShellyInput) IsLow() (bool, error) {
	high, err := si.IsHigh()
	return !high, err
}

func (so *ShellyOutput) set(on bool) error {
	err := so.client.Call(nil, "Switch.Set", map[string]interface{}{"id": so.id, "on": on})
	if err != nil {
		return pinError(shellyDriverName, so.id, "Switch.Set", err)
	}
	so.setHigh(on)
	return nil
}

func (so *ShellyOutput) setHigh(high bool) {
	so.lock.Lock()
	defer so.lock.Unlock()
	so.high = high
}

func (so *ShellyOutput) SetLow() error {
	return so.set(false)
}

func (so *ShellyOutput) SetHigh() error {
	return so.set(true)
}

func (so *ShellyOutput) IsSetHigh() (bool, error) {
	so.lock.Lock()
	defer so.lock.Unlock()
	return so.high, nil
}

func (so *ShellyOutput) IsSetLow() (bool, error) {
	high, _ := so.IsSetHigh()
	return !high, nil
}

func (so *ShellyOutput) Toggle() error {
	result := shellyToggleResult{}
	err := so.client.Call(&result, "Switch.Toggle", map[string]interface{}{"id": so.id})
	if err != nil {
		return pinError(shellyDriverName, so.id, "Switch.Toggle", err)
	}
	so.setHigh(!result.WasOn)
	return nil
}

func (she *ShellyIO) rpcUrl() (string, error) {
	addr, err := url.Parse(she.Addr)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse shelly Addr")
	}
	if len(addr.Scheme) == 0 {
		addr.Scheme = "http"
	}
	if !strings.HasSuffix(addr.Path, "/rpc") {
		addr.Path = strings.TrimSuffix(addr.Path, "/") + "/rpc"
	}
	return addr.String(), nil
}

func (she *ShellyIO) Setup(ctx context.Context, inputs []uint16, outputs []uint16) error {
	rpcUrl, err := she.rpcUrl()
	if err != nil {
		return err
	}

	she.client, err = rpc.DialContext(ctx, rpcUrl)
	if err != nil {
		return errors.Wrapf(err, "failed to rpc dial %s", rpcUrl)
	}

	info := shellyDeviceInfo{}
	err = she.client.CallContext(ctx, &info, "Shelly.GetDeviceInfo")
	if err != nil {
		return errors.Wrapf(err, "shelly at %s did not answer GetDeviceInfo", rpcUrl)
	}
	if info.Gen < 2 {
		return errors.Errorf("shelly %s (%s) is gen %d, gen2+ required", info.ID, info.Model, info.Gen)
	}

	for _, id := range inputs {
		she.inputs = append(she.inputs, &ShellyInput{id: id, client: she.client})
	}
	for _, id := range outputs {
		she.outputs = append(she.outputs, &ShellyOutput{id: id, client: she.client})
	}

	if she.Watch {
		she.watcher, err = watchShelly(ctx, rpcUrl, she.outputs)
		if err != nil {
			return errors.Wrap(err, "failed to watch shelly status")
		}
	}

	she.isReady = true
	return nil
}

func (she *ShellyIO) Close() error {
	she.isReady = false
	if she.watcher != nil {
		she.watcher.close()
	}
	if she.client != nil {
		she.client.Close()
	}
	return nil
}

func (she *ShellyIO) String() string {
	return shellyDriverName
}

func (she *ShellyIO) IsReady() bool {
	return she.isReady
}

func (she *ShellyIO) GetInput(id uint16) (digital.InputPin, error) {
	for _, in := range she.inputs {
		if in.id == id {
			return in, nil
		}
	}
	return nil, fmt.Errorf("shelly input %d not found", id)
}

func (she *ShellyIO) GetOutput(id uint16) (digital.OutputPin, error) {
	for _, out := range she.outputs {
		if out.id == id {
			return out, nil
		}
	}
	return nil, fmt.Errorf("shelly output %d not found", id)
}

func (she *ShellyIO) GetAllIo() (inputs []uint16, outputs []uint16) {
	for _, in := range she.inputs {
		inputs = append(inputs, in.id)
	}
	for _, out := range she.outputs {
		outputs = append(outputs, out.id)
	}
	return
}
