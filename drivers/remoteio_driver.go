package drivers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hubertat/pinkit/digital"
)

const remoteioDriverName = "remoteio"
const remoteIoNetClientTimeout = 2 * time.Second

// RemoteIO uses the pins a RemoteIoSlave serves on another host. Every
// pin operation is an HTTP request and can fail with a *PinError.
type RemoteIO struct {
	Host       string
	Token      string
	DriverName string

	client  *http.Client
	inputs  []*RemoteInput
	outputs []*RemoteOutput
	isReady bool
}

type RemoteInput struct {
	pinNo  uint16
	driver *RemoteIO
}

func (ri *RemoteInput) IsHigh() (bool, error) {
	high, err := ri.driver.requestPin(http.MethodGet, fmt.Sprintf("input/%d", ri.pinNo))
	if err != nil {
		return false, pinError(ri.driver.String(), ri.pinNo, "read", err)
	}
	return high, nil
}

func (ri *RemoteInput) IsLow() (bool, error) {
	high, err := ri.IsHigh()
	return !high, err
}

// RemoteOutput reads its commanded state back from the slave, so
// IsSetHigh and IsSetLow can fail too.
type RemoteOutput struct {
	pinNo  uint16
	driver *RemoteIO
}

func (ro *RemoteOutput) set(level string) error {
	_, err := ro.driver.requestPin(http.MethodPut, fmt.Sprintf("output/%d/%s", ro.pinNo, level))
	return pinError(ro.driver.String(), ro.pinNo, "set "+level, err)
}

func (ro *RemoteOutput) SetLow() error {
	return ro.set("low")
}

func (ro *RemoteOutput) SetHigh() error {
	return ro.set("high")
}

func (ro *RemoteOutput) IsSetHigh() (bool, error) {
	high, err := ro.driver.requestPin(http.MethodGet, fmt.Sprintf("output/%d", ro.pinNo))
	if err != nil {
		return false, pinError(ro.driver.String(), ro.pinNo, "state", unsupported(err, ErrStateUnsupported))
	}
	return high, nil
}

func (ro *RemoteOutput) IsSetLow() (bool, error) {
	high, err := ro.IsSetHigh()
	return !high, err
}

// Toggle asks the slave to toggle, which uses whatever toggle the pin has
// over there. A slave without one answers 501, reported as
// ErrToggleUnsupported.
func (ro *RemoteOutput) Toggle() error {
	_, err := ro.driver.requestPin(http.MethodPost, fmt.Sprintf("output/%d/toggle", ro.pinNo))
	return pinError(ro.driver.String(), ro.pinNo, "toggle", unsupported(err, ErrToggleUnsupported))
}

// remoteStatusError is a non 2xx answer of the slave.
type remoteStatusError struct {
	Code int
	Body string
}

func (rse *remoteStatusError) Error() string {
	return fmt.Sprintf("remote responded %d: %s", rse.Code, rse.Body)
}

// unsupported turns a 501 answer into sentinel, keeping the status text.
func unsupported(err error, sentinel error) error {
	var statusErr *remoteStatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotImplemented {
		return errors.Wrap(sentinel, statusErr.Error())
	}
	return err
}

func (rio *RemoteIO) request(ctx context.Context, method string, path string) (response *http.Response, err error) {
	if rio.client == nil {
		rio.client = &http.Client{
			Timeout: remoteIoNetClientTimeout,
		}
	}

	reqUrl, err := url.Parse(rio.Host)
	if err != nil {
		err = errors.Wrap(err, "RemoteIO failed to parse Host url")
		return
	}
	reqUrl, err = reqUrl.Parse(path)
	if err != nil {
		err = errors.Wrapf(err, "RemoteIO error parsing url (%s)", path)
		return
	}
	req, err := http.NewRequestWithContext(ctx, method, reqUrl.String(), nil)
	if err != nil {
		err = errors.Wrap(err, "RemoteIO error preparing request")
		return
	}
	req.Header.Add(remoteIoTokenHeader, rio.Token)
	response, err = rio.client.Do(req)
	if err != nil {
		return
	}

	if response.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		response.Body.Close()
		err = &remoteStatusError{Code: response.StatusCode, Body: strings.TrimSpace(string(body))}
		response = nil
	}
	return
}

// requestPin runs a pin request and decodes the level in the answer. A
// 204 answer carries no level and reports false.
func (rio *RemoteIO) requestPin(method string, path string) (high bool, err error) {
	response, err := rio.request(context.Background(), method, path)
	if err != nil {
		return
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNoContent {
		return
	}

	pin := pinResponse{}
	err = json.NewDecoder(response.Body).Decode(&pin)
	if err != nil {
		err = errors.Wrap(err, "decoding pin response failed")
		return
	}
	return pin.High, nil
}

func (rio *RemoteIO) Setup(ctx context.Context, inputs []uint16, outputs []uint16) error {
	response, err := rio.request(ctx, http.MethodGet, "config")
	if err != nil {
		return errors.Wrap(err, "RemoteIO Setup: config request failed")
	}
	defer response.Body.Close()

	config := remoteConfig{}
	err = json.NewDecoder(response.Body).Decode(&config)
	if err != nil {
		return errors.Wrap(err, "RemoteIO Setup: decoding response failed")
	}

	if len(config.Inputs) == 0 && len(config.Outputs) == 0 {
		return errors.Errorf("RemoteIO Setup: received response with 0 inputs and 0 outputs - not ready")
	}

	for _, input := range inputs {
		if !containsPin(config.Inputs, input) {
			return errors.Errorf("RemoteIO Setup: input %d not found on remote!", input)
		}
		rio.inputs = append(rio.inputs, &RemoteInput{pinNo: input, driver: rio})
	}
	for _, output := range outputs {
		if !containsPin(config.Outputs, output) {
			return errors.Errorf("RemoteIO Setup: output %d not found on remote!", output)
		}
		rio.outputs = append(rio.outputs, &RemoteOutput{pinNo: output, driver: rio})
	}

	rio.isReady = true
	return nil
}

func containsPin(pins []uint16, pin uint16) bool {
	for _, p := range pins {
		if p == pin {
			return true
		}
	}
	return false
}

func (rio *RemoteIO) Close() (err error) {
	rio.isReady = false
	return
}

func (rio *RemoteIO) String() string {
	if len(rio.DriverName) > 0 {
		return rio.DriverName
	}
	return remoteioDriverName
}

func (rio *RemoteIO) IsReady() bool {
	return rio.isReady
}

func (rio *RemoteIO) GetInput(pin uint16) (digital.InputPin, error) {
	for _, input := range rio.inputs {
		if input.pinNo == pin {
			return input, nil
		}
	}
	return nil, errors.Errorf("RemoteIO GetInput input %d not found", pin)
}

func (rio *RemoteIO) GetOutput(pin uint16) (digital.OutputPin, error) {
	for _, output := range rio.outputs {
		if output.pinNo == pin {
			return output, nil
		}
	}
	return nil, errors.Errorf("RemoteIO GetOutput output %d not found", pin)
}

func (rio *RemoteIO) GetAllIo() (inputs []uint16, outputs []uint16) {
	for _, input := range rio.inputs {
		inputs = append(inputs, input.pinNo)
	}
	for _, output := range rio.outputs {
		outputs = append(outputs, output.pinNo)
	}

	return
}
