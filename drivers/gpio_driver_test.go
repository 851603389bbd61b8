package drivers

import (
	"testing"

	"github.com/stianeikeland/go-rpio/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubertat/pinkit/digital/digitaltest"
)

// fakeLine stands in for a GPIO register. With held set the wire stays
// at level whatever is written.
type fakeLine struct {
	level  rpio.State
	held   bool
	writes []rpio.State
}

func (fl *fakeLine) write(level rpio.State) {
	fl.writes = append(fl.writes, level)
	if !fl.held {
		fl.level = level
	}
}

func (fl *fakeLine) High()            { fl.write(rpio.High) }
func (fl *fakeLine) Low()             { fl.write(rpio.Low) }
func (fl *fakeLine) Read() rpio.State { return fl.level }

func (fl *fakeLine) lastWrite() rpio.State {
	return fl.writes[len(fl.writes)-1]
}

func TestGpOutputCommandedState(t *testing.T) {
	line := &fakeLine{}
	out := &GpOutput{pin: 17, line: line}
	digitaltest.CheckOutputPin(t, out)

	require.NoError(t, out.SetHigh())
	high, _ := out.IsSetHigh()
	assert.True(t, high)
	assert.Equal(t, rpio.High, line.Read())

	require.NoError(t, out.SetLow())
	low, _ := out.IsSetLow()
	assert.True(t, low)
	assert.Equal(t, rpio.Low, line.Read())
}

func TestGpOutputToggleFollowsCommand(t *testing.T) {
	line := &fakeLine{}
	out := &GpOutput{pin: 17, line: line}
	require.NoError(t, out.SetHigh())

	// something on the wire pulls the line low
	line.held = true
	line.level = rpio.Low

	require.NoError(t, out.Toggle())
	high, _ := out.IsSetHigh()
	assert.False(t, high)
	assert.Equal(t, rpio.Low, line.lastWrite())

	require.NoError(t, out.Toggle())
	high, _ = out.IsSetHigh()
	assert.True(t, high)
	assert.Equal(t, rpio.High, line.lastWrite())
}

func TestGpInvertedPins(t *testing.T) {
	line := &fakeLine{}
	out := &GpOutput{pin: 22, invert: true, line: line}
	require.NoError(t, out.SetHigh())
	assert.Equal(t, rpio.Low, line.lastWrite())
	high, _ := out.IsSetHigh()
	assert.True(t, high)

	in := &GpInput{pin: 23, invert: true, line: &fakeLine{level: rpio.High}}
	high, err := in.IsHigh()
	require.NoError(t, err)
	assert.False(t, high)
	digitaltest.CheckInputComplement(t, in)
}

func TestGpIOLookup(t *testing.T) {
	gp := &GpIO{
		inputs:  []*GpInput{{pin: 4, line: &fakeLine{}}},
		outputs: []*GpOutput{{pin: 17, line: &fakeLine{}}},
	}

	_, err := gp.GetOutput(17)
	assert.NoError(t, err)
	_, err = gp.GetOutput(4)
	assert.Error(t, err)
	_, err = gp.GetInput(300)
	assert.Error(t, err)

	inputs, outputs := gp.GetAllIo()
	assert.Equal(t, []uint16{4}, inputs)
	assert.Equal(t, []uint16{17}, outputs)
}
