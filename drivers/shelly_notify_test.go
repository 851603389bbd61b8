package drivers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// watchedShelly serves JSON-RPC over HTTP like fakeShelly, plus the
// websocket status channel. Frames written to notify are sent to the
// connected watcher.
func watchedShelly(t *testing.T, notify chan map[string]interface{}) *httptest.Server {
	t.Helper()

	fs := &fakeShelly{gen: 2, on: map[int]bool{0: true}, inputs: map[int]bool{}, fail: map[string]bool{}}
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !websocket.IsWebSocketUpgrade(r) {
			fs.ServeHTTP(w, r)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		req := map[string]interface{}{}
		if conn.ReadJSON(&req) != nil || req["method"] != "Shelly.GetStatus" {
			return
		}
		conn.WriteJSON(map[string]interface{}{
			"id":     req["id"],
			"src":    "shellyplus1-a8032ab1",
			"result": map[string]interface{}{"switch:0": map[string]interface{}{"id": 0, "output": fs.isOn(0)}},
		})

		go func() {
			// notice the client closing
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					close(notify)
					return
				}
			}
		}()
		for params := range notify {
			conn.WriteJSON(map[string]interface{}{
				"src":    "shellyplus1-a8032ab1",
				"dst":    shellyWatchSource,
				"method": "NotifyStatus",
				"params": params,
			})
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestShellyWatch(t *testing.T) {
	notify := make(chan map[string]interface{})
	server := watchedShelly(t, notify)

	she := &ShellyIO{Addr: server.URL, Watch: true}
	require.NoError(t, she.Setup(context.Background(), nil, []uint16{0}))

	out, _ := she.GetOutput(0)
	relay := out.(*ShellyOutput)

	require.Eventually(t, func() bool {
		high, _ := relay.IsSetHigh()
		return high
	}, 2*time.Second, 10*time.Millisecond, "initial status not applied")

	notify <- map[string]interface{}{"ts": 1700000000.5, "switch:0": map[string]interface{}{"id": 0, "output": false}}
	require.Eventually(t, func() bool {
		low, _ := relay.IsSetLow()
		return low
	}, 2*time.Second, 10*time.Millisecond, "notification not applied")

	assert.NoError(t, she.Close())
}

func TestShellyWatcherApply(t *testing.T) {
	relay := &ShellyOutput{id: 1}
	sw := &shellyWatcher{outputs: map[uint16]*ShellyOutput{1: relay}}

	sw.apply(map[string]json.RawMessage{
		"switch:1": json.RawMessage(`{"id":1,"output":true,"apower":0}`),
		"switch:2": json.RawMessage(`{"id":2,"output":false}`),
		"input:0":  json.RawMessage(`{"id":0,"state":false}`),
		"sys":      json.RawMessage(`{"uptime":42}`),
	})
	high, _ := relay.IsSetHigh()
	assert.True(t, high)

	// power-only notifications leave the output alone
	sw.apply(map[string]json.RawMessage{"switch:1": json.RawMessage(`{"id":1,"apower":12.5}`)})
	high, _ = relay.IsSetHigh()
	assert.True(t, high)
}

func TestShellyWsUrl(t *testing.T) {
	for _, tt := range []struct {
		rpc  string
		want string
	}{
		{"http://10.0.0.5/rpc", "ws://10.0.0.5/rpc"},
		{"https://relay.local/rpc", "wss://relay.local/rpc"},
	} {
		got, err := shellyWsUrl(tt.rpc)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
