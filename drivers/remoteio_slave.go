package drivers

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
)

const remoteIoTokenHeader = "remoteio-token"
const httpTimeoutsMs = 3000

type remoteConfig struct {
	Inputs  []uint16
	Outputs []uint16
}

type pinResponse struct {
	High bool `json:"high"`
}

// RemoteIoSlave serves the pins of one local driver over HTTP, for a
// RemoteIO driver on another host to use.
type RemoteIoSlave struct {
	Token    string
	HttpAddr string
	Driver   string

	driver IoDriver
	server *http.Server
	logger *log.Logger
}

// Handler returns the HTTP routes serving driver's pins.
func (ris *RemoteIoSlave) Handler(driver IoDriver) http.Handler {
	ris.driver = driver
	if ris.logger == nil {
		ris.logger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "remoteio slave",
			Level:  log.GetLevel(),
		})
	}

	router := httprouter.New()
	router.GET("/config", ris.authorized(ris.handleConfig))
	router.GET("/input/:pin", ris.authorized(ris.handleInput))
	router.GET("/output/:pin", ris.authorized(ris.handleOutputState))
	router.PUT("/output/:pin/:level", ris.authorized(ris.handleOutputSet))
	router.POST("/output/:pin/toggle", ris.authorized(ris.handleOutputToggle))

	return router
}

// Start serves driver on HttpAddr in the background.
func (ris *RemoteIoSlave) Start(driver IoDriver) error {
	if len(ris.HttpAddr) == 0 {
		return errors.New("remoteio slave HttpAddr not set")
	}

	httpTimeout := httpTimeoutsMs * time.Millisecond

	ris.server = &http.Server{
		Addr:              ris.HttpAddr,
		Handler:           ris.Handler(driver),
		ReadTimeout:       httpTimeout,
		ReadHeaderTimeout: httpTimeout,
		WriteTimeout:      httpTimeout,
		IdleTimeout:       2 * httpTimeout,
	}

	go func() {
		err := ris.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			ris.logger.Error("server stopped", "err", err)
		}
	}()

	ris.logger.Info("serving pins", "addr", ris.HttpAddr, "driver", driver)
	return nil
}

func (ris *RemoteIoSlave) Close() error {
	if ris.server == nil {
		return nil
	}
	return ris.server.Close()
}

func (ris *RemoteIoSlave) authorized(handle httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if len(ris.Token) > 0 && !strings.EqualFold(r.Header.Get(remoteIoTokenHeader), ris.Token) {
			http.Error(w, "token mismatch", http.StatusUnauthorized)
			return
		}
		handle(w, r, p)
	}
}

func pinParam(p httprouter.Params) (uint16, error) {
	no, err := strconv.ParseUint(p.ByName("pin"), 10, 16)
	return uint16(no), err
}

func writePin(w http.ResponseWriter, high bool) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pinResponse{High: high})
}

func (ris *RemoteIoSlave) pinFailed(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrToggleUnsupported), errors.Is(err, ErrStateUnsupported):
		http.Error(w, err.Error(), http.StatusNotImplemented)
	default:
		ris.logger.Warn("pin operation failed", "err", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func (ris *RemoteIoSlave) handleConfig(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	inputs, outputs := ris.driver.GetAllIo()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(remoteConfig{Inputs: inputs, Outputs: outputs})
}

func (ris *RemoteIoSlave) handleInput(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	no, err := pinParam(p)
	if err != nil {
		http.Error(w, "bad pin number", http.StatusBadRequest)
		return
	}
	input, err := ris.driver.GetInput(no)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	high, err := input.IsHigh()
	if err != nil {
		ris.pinFailed(w, err)
		return
	}
	writePin(w, high)
}

func (ris *RemoteIoSlave) handleOutputState(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	no, err := pinParam(p)
	if err != nil {
		http.Error(w, "bad pin number", http.StatusBadRequest)
		return
	}
	output, err := ris.driver.GetOutput(no)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	high, err := OutputState(output)
	if err != nil {
		ris.pinFailed(w, err)
		return
	}
	writePin(w, high)
}

func (ris *RemoteIoSlave) handleOutputSet(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	no, err := pinParam(p)
	if err != nil {
		http.Error(w, "bad pin number", http.StatusBadRequest)
		return
	}
	output, err := ris.driver.GetOutput(no)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	var high bool
	switch p.ByName("level") {
	case "high":
		high = true
		err = output.SetHigh()
	case "low":
		err = output.SetLow()
	default:
		http.Error(w, "level must be high or low", http.StatusBadRequest)
		return
	}

	if err != nil {
		ris.pinFailed(w, err)
		return
	}
	writePin(w, high)
}

func (ris *RemoteIoSlave) handleOutputToggle(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	no, err := pinParam(p)
	if err != nil {
		http.Error(w, "bad pin number", http.StatusBadRequest)
		return
	}
	output, err := ris.driver.GetOutput(no)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if err = ToggleOutput(output); err != nil {
		ris.pinFailed(w, err)
		return
	}

	high, err := OutputState(output)
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writePin(w, high)
}
