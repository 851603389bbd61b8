//go:build unproven

package drivers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubertat/pinkit/digital"
	"github.com/hubertat/pinkit/digital/digitaltest"
)

func TestRemoteOutputStatefulAndToggle(t *testing.T) {
	sd := softDriver(t, nil, []uint16{5})
	server := startSlave(t, "", sd)

	rio := &RemoteIO{Host: server.URL}
	require.NoError(t, rio.Setup(context.Background(), nil, []uint16{5}))
	out, _ := rio.GetOutput(5)

	stateful, ok := out.(digital.StatefulOutputPin)
	require.True(t, ok)
	digitaltest.CheckStatefulOutputPin(t, stateful)

	toggler, ok := digital.Toggler(out)
	require.True(t, ok)
	_, native := toggler.(*RemoteOutput)
	assert.True(t, native, "remote output should toggle natively")
	digitaltest.CheckToggle(t, stateful, toggler)
}

func TestRemoteToggleUnknownPin(t *testing.T) {
	server := startSlave(t, "", &faultyDriver{pins: map[uint16]*digitaltest.FaultyPin{}})

	rio := &RemoteIO{Host: server.URL}
	rio.outputs = append(rio.outputs, &RemoteOutput{pinNo: 1, driver: rio})
	out, _ := rio.GetOutput(1)

	err := out.(*RemoteOutput).Toggle()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
