package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/fvoperator/field"
	"github.com/notargets/fvoperator/types"
	"github.com/notargets/fvoperator/utils"
)

func TestProbePrimitive(t *testing.T) {
	p, err := New(4, types.NumPrimitive, nil, field.DefaultGamma)
	require.NoError(t, err)
	for k := 0; k < 4; k++ {
		for v := 0; v < 5; v++ {
			assert.Zero(t, p.At(k, v))
		}
	}
	p.Set(2, 3)
	c, v := p.Active()
	assert.Equal(t, 2, c)
	assert.Equal(t, 3, v)
	for k := 0; k < 4; k++ {
		for v := 0; v < 5; v++ {
			if k == 2 && v == 3 {
				assert.Equal(t, 1., p.At(k, v))
			} else {
				assert.Zero(t, p.At(k, v))
			}
		}
	}
	p.Reset()
	assert.Zero(t, p.At(2, 3))

	assert.PanicsWithError(t, "index out of range: (cell 4, variable 0) in a 4 x 5 probe",
		func() { p.Set(4, 0) })
	assert.Panics(t, func() { p.At(0, 5) })
	assert.Panics(t, func() { p.Set(-1, 0) })
}

func TestProbeErrors(t *testing.T) {
	_, err := New(3, types.NumMaxVars, nil, field.DefaultGamma)
	assert.ErrorIs(t, err, ErrMissingReference)
	_, err = New(0, types.NumPrimitive, nil, field.DefaultGamma)
	assert.Error(t, err)
	_, err = New(3, 4, nil, field.DefaultGamma)
	assert.Error(t, err)
	_, err = New(3, types.NumMaxVars, field.Uniform(2, []float64{1, 0, 0, 0, 1}), field.DefaultGamma)
	assert.ErrorIs(t, err, utils.ErrDimensionMismatch)
	_, err = New(2, types.NumMaxVars, field.Uniform(2, []float64{1, 0, 0, 0, 1}), 1.)
	assert.Error(t, err)
}

func TestKinds(t *testing.T) {
	assert.Equal(t, Primitive, KindOf(int(types.Pressure)))
	assert.Equal(t, Energy, KindOf(int(types.Energy)))
	assert.Equal(t, Temperature, KindOf(int(types.Temperature)))
	assert.Equal(t, "Temperature", Temperature.String())
}

// The derived entries must match a finite difference of the nonlinear
// relations about the reference state
func TestProbeDerivedLinearization(t *testing.T) {
	const (
		gamma = field.DefaultGamma
		eps   = 1.e-7
	)
	prim := field.FromFunc(3, types.NumPrimitive, func(cell int) []float64 {
		c := float64(cell)
		return []float64{1.2 + 0.1*c, 0.3 - c, 0.5*c + 0.1, -0.2, 2.5 + c}
	})
	ref, err := field.WithDerived(prim, gamma, true)
	require.NoError(t, err)
	p, err := New(3, types.NumMaxVars, ref, gamma)
	require.NoError(t, err)
	assert.Equal(t, 7, p.NumVars())

	for cell := 0; cell < 3; cell++ {
		for v := 0; v < types.NumPrimitive; v++ {
			perturbed := field.NewDense(3, types.NumPrimitive, append([]float64(nil), prim.Vector()...))
			perturbed.Set(cell, v, perturbed.At(cell, v)+eps)
			pd, err := field.WithDerived(perturbed, gamma, true)
			require.NoError(t, err)

			p.Set(cell, v)
			for _, dv := range []types.FlowVariable{types.Energy, types.Temperature} {
				fd := (pd.At(cell, int(dv)) - ref.At(cell, int(dv))) / eps
				assert.InDelta(t, fd, p.At(cell, int(dv)), 1.e-5, "cell %d var %d %s", cell, v, dv)
				other := (cell + 1) % 3
				assert.Zero(t, p.At(other, int(dv)))
			}
		}
	}
}

func TestProbeDerivedValues(t *testing.T) {
	ref, err := field.WithDerived(field.Uniform(1, []float64{2, 1, 2, 3, 4}), field.DefaultGamma, true)
	require.NoError(t, err)
	p, err := New(1, types.NumPrimitive+1, ref, field.DefaultGamma)
	require.NoError(t, err)
	assert.Equal(t, 6, p.NumVars())

	p.Set(0, int(types.Pressure))
	assert.InDelta(t, 2.5, p.At(0, int(types.Energy)), 1.e-12)
	p.Set(0, int(types.Density))
	assert.InDelta(t, 7., p.At(0, int(types.Energy)), 1.e-12)
	p.Set(0, int(types.YVelocity))
	assert.InDelta(t, 4., p.At(0, int(types.Energy)), 1.e-12)
	// An impulse in a derived slot leaves the primitives and derived values zero
	p.Set(0, int(types.Energy))
	assert.Zero(t, p.At(0, int(types.Energy)))
	assert.Zero(t, p.At(0, int(types.Density)))
}
