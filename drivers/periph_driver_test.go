package drivers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func registerTestPin(t *testing.T, name string, level gpio.Level) *gpiotest.Pin {
	t.Helper()

	pin := &gpiotest.Pin{N: name, L: level}
	require.NoError(t, gpioreg.Register(pin))
	return pin
}

func TestPeriphResetsOutputs(t *testing.T) {
	pin := registerTestPin(t, "RESET3", gpio.High)

	pio := &PeriphIO{PinPrefix: "RESET"}
	require.NoError(t, pio.Setup(context.Background(), nil, []uint16{3}))
	assert.Equal(t, gpio.Low, pin.Read())

	out, err := pio.GetOutput(3)
	require.NoError(t, err)
	require.NoError(t, out.SetHigh())
	assert.Equal(t, gpio.High, pin.Read())

	require.NoError(t, pio.Close())
	assert.Equal(t, gpio.Low, pin.Read())
}

func TestPeriphKeepOutputs(t *testing.T) {
	kept := registerTestPin(t, "KEEP3", gpio.High)
	set := registerTestPin(t, "KEEP4", gpio.Low)

	pio := &PeriphIO{PinPrefix: "KEEP", KeepOutputs: true}
	require.NoError(t, pio.Setup(context.Background(), nil, []uint16{3, 4}))
	assert.Equal(t, gpio.High, kept.Read())

	out, _ := pio.GetOutput(3)
	high, _ := out.(*PeriphOutput).IsSetHigh()
	assert.True(t, high, "current level not adopted")

	other, _ := pio.GetOutput(4)
	require.NoError(t, other.SetHigh())

	require.NoError(t, pio.Close())
	assert.Equal(t, gpio.High, kept.Read())
	assert.Equal(t, gpio.High, set.Read())
}
