package drivers

import (
	"errors"
	"testing"

	"github.com/racerxdl/go-mcp23017"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubertat/pinkit/digital/digitaltest"
)

// fakeExpander keeps pin levels in memory; err fails every bus access.
type fakeExpander struct {
	levels map[uint8]mcp23017.PinLevel
	err    error
}

func (fe *fakeExpander) DigitalWrite(pin uint8, level mcp23017.PinLevel) error {
	if fe.err != nil {
		return fe.err
	}
	fe.levels[pin] = level
	return nil
}

func (fe *fakeExpander) DigitalRead(pin uint8) (mcp23017.PinLevel, error) {
	if fe.err != nil {
		return false, fe.err
	}
	return fe.levels[pin], nil
}

func TestMcpOutputCommandedState(t *testing.T) {
	fe := &fakeExpander{levels: map[uint8]mcp23017.PinLevel{}}
	out := &McpOutput{pin: 3, device: fe}
	digitaltest.CheckOutputPin(t, out)

	require.NoError(t, out.SetHigh())
	high, _ := out.IsSetHigh()
	assert.True(t, high)
	assert.Equal(t, mcp23017.PinLevel(true), fe.levels[3])

	fe.err = errors.New("i2c nack")
	err := out.SetLow()
	var pinErr *PinError
	require.True(t, errors.As(err, &pinErr))
	assert.Equal(t, "mcpio", pinErr.Driver)
	assert.Equal(t, "write", pinErr.Op)
	assert.ErrorIs(t, err, fe.err)

	high, _ = out.IsSetHigh()
	assert.True(t, high, "failed write changed the commanded state")
}

func TestMcpInput(t *testing.T) {
	fe := &fakeExpander{levels: map[uint8]mcp23017.PinLevel{9: true}}
	in := &McpInput{pin: 9, invert: true, device: fe}

	high, err := in.IsHigh()
	require.NoError(t, err)
	assert.False(t, high)
	digitaltest.CheckInputComplement(t, in)

	fe.err = errors.New("i2c nack")
	_, err = in.IsLow()
	assert.ErrorIs(t, err, fe.err)
}
