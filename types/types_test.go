package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypes(t *testing.T) {
	{ // Marker <-> sentinel round trip
		for marker := 0; marker < 10; marker++ {
			s := MarkerToSentinel(marker)
			assert.True(t, IsBoundary(s))
			assert.Equal(t, marker, SentinelToMarker(s))
		}
		assert.Equal(t, -1, MarkerToSentinel(0))
		assert.False(t, IsBoundary(0))
		assert.Panics(t, func() { SentinelToMarker(3) })
		assert.Panics(t, func() { MarkerToSentinel(-2) })
	}
	{ // BC names
		bf, err := NewBCFLAG(" Wall ")
		assert.NoError(t, err)
		assert.Equal(t, BC_Wall, bf)
		assert.Equal(t, "Wall", bf.String())
		_, err = NewBCFLAG("vortex")
		assert.Error(t, err)
	}
	{ // Variable tags
		assert.Equal(t, "Pressure", Pressure.String())
		assert.True(t, Pressure.IsPrimitive())
		assert.False(t, Energy.IsPrimitive())
		assert.Equal(t, int(ZVelocity), VelocityIndex(2))
		assert.Equal(t, 7, NumMaxVars)
		fv, err := NewFlowVariable("density")
		assert.NoError(t, err)
		assert.Equal(t, Density, fv)
		fv, err = NewFlowVariable("Temperature")
		assert.NoError(t, err)
		assert.Equal(t, Temperature, fv)
		_, err = NewFlowVariable("vorticity")
		assert.Error(t, err)
	}
}
