package drivers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hubertat/pinkit/digital"
)

const grentonioDriverName = "grenton"
const grentonNetClientTimeout = 4500 * time.Millisecond
const grentonObjectFreshness = 20 * time.Second

// GrentonOutput is a DOU (digital output) object of a Grenton CLU, set
// through the gate's HTTP API. Its state is cached and refreshed from the
// gate when older than the driver's freshness.
type GrentonOutput struct {
	id      uint16
	grenton *GrentonIO

	state       bool
	refreshedAt time.Time
}

func (gro *GrentonOutput) write(high bool) error {
	err := gro.grenton.setState(high, gro)
	return pinError(gro.grenton.String(), gro.id, "set", err)
}

func (gro *GrentonOutput) SetLow() error {
	return gro.write(false)
}

func (gro *GrentonOutput) SetHigh() error {
	return gro.write(true)
}

func (gro *GrentonOutput) IsSetHigh() (bool, error) {
	state, err := gro.grenton.cachedState(gro)
	return state, pinError(gro.grenton.String(), gro.id, "refresh", err)
}

func (gro *GrentonOutput) IsSetLow() (bool, error) {
	high, err := gro.IsSetHigh()
	return !high, err
}

func (gro *GrentonOutput) DefaultToggle() {}

// GrentonIO drives Grenton lights through a gate (http bridge). Pin
// numbers are DOU object numbers on the CLU with id CluId.
type GrentonIO struct {
	GateAddress string
	CluId       uint32

	ObjectFreshnessDuration string

	setUrl          *url.URL
	getUrl          *url.URL
	client          *http.Client
	ready           bool
	outputs         []*GrentonOutput
	gateLock        sync.Mutex
	objectFreshness time.Duration
}

type grentonObject struct {
	Kind  string
	Clu   string
	Id    string
	Cmd   string `json:",omitempty"`
	Light *grentonLight `json:",omitempty"`
}

type grentonLight struct {
	State bool
}

func (gio *GrentonIO) getCluString() string {
	return fmt.Sprintf("CLU_%08x", gio.CluId)
}

func (gio *GrentonIO) objectId(id uint16) string {
	return fmt.Sprintf("DOU%04d", id)
}

func (gio *GrentonIO) getQueryBody() []byte {
	query := []grentonObject{}
	for _, out := range gio.outputs {
		query = append(query, grentonObject{Kind: "Light", Clu: gio.getCluString(), Id: gio.objectId(out.id)})
	}

	b, _ := json.Marshal(query)
	return b
}

func (gio *GrentonIO) getSetBody(state bool, id uint16) []byte {
	b, _ := json.Marshal(grentonObject{
		Kind:  "Light",
		Clu:   gio.getCluString(),
		Id:    gio.objectId(id),
		Cmd:   "SET",
		Light: &grentonLight{State: state},
	})
	return b
}

func (gio *GrentonIO) post(ctx context.Context, target *url.URL, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "preparing request failed")
	}
	req.Header.Set("Content-Type", "application/json")

	response, err := gio.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "sending request failed")
	}

	if response.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		response.Body.Close()
		return nil, errors.Errorf("grenton gate returned non success status code (%d): %s", response.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return response, nil
}

// updateState refreshes every output in one query. Must be called with
// gateLock held.
func (gio *GrentonIO) updateState(ctx context.Context) error {
	response, err := gio.post(ctx, gio.getUrl, gio.getQueryBody())
	if err != nil {
		return err
	}
	defer response.Body.Close()

	statusResponse := []grentonObject{}
	err = json.NewDecoder(response.Body).Decode(&statusResponse)
	if err != nil {
		return errors.Wrap(err, "failed to decode json response")
	}

	now := time.Now()
	for _, obj := range statusResponse {
		idInt, convertErr := strconv.ParseUint(strings.TrimPrefix(obj.Id, "DOU"), 10, 16)
		if convertErr != nil {
			return errors.Wrapf(convertErr, "failed to convert grenton object id (%s) to int", obj.Id)
		}
		if obj.Light == nil {
			continue
		}
		for _, out := range gio.outputs {
			if out.id == uint16(idInt) {
				out.state = obj.Light.State
				out.refreshedAt = now
			}
		}
	}

	for _, out := range gio.outputs {
		if out.refreshedAt.IsZero() {
			return errors.Errorf("output %d missing in gate response", out.id)
		}
	}
	return nil
}

func (gio *GrentonIO) cachedState(out *GrentonOutput) (bool, error) {
	gio.gateLock.Lock()
	defer gio.gateLock.Unlock()

	if time.Since(out.refreshedAt) > gio.objectFreshness {
		err := gio.updateState(context.Background())
		if err != nil {
			return false, errors.Wrap(err, "failed to refresh state")
		}
	}
	return out.state, nil
}

func (gio *GrentonIO) setState(state bool, out *GrentonOutput) error {
	gio.gateLock.Lock()
	defer gio.gateLock.Unlock()

	response, err := gio.post(context.Background(), gio.setUrl, gio.getSetBody(state, out.id))
	if err != nil {
		return err
	}
	response.Body.Close()

	out.state = state
	out.refreshedAt = time.Now()
	return nil
}

func (gio *GrentonIO) Setup(ctx context.Context, inputs []uint16, outputs []uint16) (err error) {
	gio.ready = false
	gio.client = &http.Client{
		Timeout: grentonNetClientTimeout,
	}

	gio.objectFreshness = grentonObjectFreshness
	if len(gio.ObjectFreshnessDuration) > 0 {
		gio.objectFreshness, err = time.ParseDuration(gio.ObjectFreshnessDuration)
		if err != nil {
			return errors.Wrap(err, "invalid ObjectFreshnessDuration")
		}
	}

	gateUrl, err := url.Parse(gio.GateAddress)
	if err != nil {
		return errors.Wrapf(err, "parsing url error")
	}
	gio.setUrl, err = gateUrl.Parse("/homebridge")
	if err != nil {
		return errors.Wrapf(err, "parsing url error")
	}
	gio.getUrl, err = gateUrl.Parse("/multi/read/")
	if err != nil {
		return errors.Wrapf(err, "parsing url error")
	}

	if len(inputs) > 0 {
		return errors.Errorf("received inputs slice, grenton io not supports inputs")
	}
	if len(outputs) == 0 {
		return errors.Errorf("received 0 length output slice, nothing to setup")
	}

	gio.outputs = []*GrentonOutput{}
	for _, outId := range outputs {
		gio.outputs = append(gio.outputs, &GrentonOutput{id: outId, grenton: gio})
	}

	gio.gateLock.Lock()
	err = gio.updateState(ctx)
	gio.gateLock.Unlock()
	if err != nil {
		return errors.Wrap(err, "error when updating grenton states")
	}

	gio.ready = true
	return nil
}

func (gio *GrentonIO) Close() error {
	gio.ready = false
	return nil
}

func (gio *GrentonIO) String() string {
	return grentonioDriverName
}

func (gio *GrentonIO) IsReady() bool {
	return gio.ready
}

func (gio *GrentonIO) GetInput(pin uint16) (digital.InputPin, error) {
	return nil, errors.Errorf("grenton io not supports inputs")
}

func (gio *GrentonIO) GetOutput(pin uint16) (digital.OutputPin, error) {
	for _, out := range gio.outputs {
		if out.id == pin {
			return out, nil
		}
	}
	return nil, errors.Errorf("output id %d not found", pin)
}

func (gio *GrentonIO) GetAllIo() (inputs []uint16, outputs []uint16) {
	for _, out := range gio.outputs {
		outputs = append(outputs, out.id)
	}
	return
}
