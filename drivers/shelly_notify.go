package drivers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const shellyWatchSource = "pinkit"
const shellyDialTimeout = 5 * time.Second

// shellyFrame is a websocket frame from the device: either the answer to
// our Shelly.GetStatus request or a NotifyStatus notification.
type shellyFrame struct {
	ID     *int                       `json:"id"`
	Method string                     `json:"method"`
	Params map[string]json.RawMessage `json:"params"`
	Result map[string]json.RawMessage `json:"result"`
}

type shellySwitchStatus struct {
	Output *bool `json:"output"`
}

// shellyWatcher keeps relay states in sync with changes made on the
// device itself (its own button, app or schedules).
type shellyWatcher struct {
	conn    *websocket.Conn
	outputs map[uint16]*ShellyOutput
	logger  *log.Logger
	done    chan struct{}
}

func shellyWsUrl(rpcUrl string) (string, error) {
	addr, err := url.Parse(rpcUrl)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse shelly rpc url")
	}
	switch addr.Scheme {
	case "https":
		addr.Scheme = "wss"
	default:
		addr.Scheme = "ws"
	}
	return addr.String(), nil
}

func watchShelly(ctx context.Context, rpcUrl string, outputs []*ShellyOutput) (*shellyWatcher, error) {
	wsUrl, err := shellyWsUrl(rpcUrl)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: shellyDialTimeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
	headers := http.Header{}
	headers.Add("Origin", strings.Replace(wsUrl, "/rpc", "", 1))

	ctx, cancel := context.WithTimeout(ctx, shellyDialTimeout)
	defer cancel()

	conn, _, err := dialer.DialContext(ctx, wsUrl, headers)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to websocket dial %s", wsUrl)
	}

	// the device only sends notifications to a source that made a request
	err = conn.WriteJSON(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"src":     shellyWatchSource,
		"method":  "Shelly.GetStatus",
	})
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to request shelly status")
	}

	sw := &shellyWatcher{
		conn:    conn,
		outputs: map[uint16]*ShellyOutput{},
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "shelly watch",
			Level:  log.GetLevel(),
		}),
		done: make(chan struct{}),
	}
	for _, out := range outputs {
		sw.outputs[out.id] = out
	}

	go sw.run()
	return sw, nil
}

func (sw *shellyWatcher) run() {
	defer close(sw.done)

	for {
		frame := shellyFrame{}
		err := sw.conn.ReadJSON(&frame)
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				sw.logger.Debug("watch stopped", "err", err)
			}
			return
		}

		switch {
		case frame.Method == "NotifyStatus":
			sw.apply(frame.Params)
		case frame.ID != nil && frame.Result != nil:
			sw.apply(frame.Result)
		}
	}
}

// apply updates outputs from "switch:<id>" components of a status.
func (sw *shellyWatcher) apply(status map[string]json.RawMessage) {
	for key, raw := range status {
		idStr, found := strings.CutPrefix(key, "switch:")
		if !found {
			continue
		}
		id, err := strconv.ParseUint(idStr, 10, 16)
		if err != nil {
			continue
		}
		out, watched := sw.outputs[uint16(id)]
		if !watched {
			continue
		}

		swStatus := shellySwitchStatus{}
		err = json.Unmarshal(raw, &swStatus)
		if err != nil {
			sw.logger.Warn("failed to unmarshal switch status", "key", key, "err", err)
			continue
		}
		if swStatus.Output != nil {
			out.setHigh(*swStatus.Output)
		}
	}
}

func (sw *shellyWatcher) close() {
	sw.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	sw.conn.Close()
	<-sw.done
}
