package bc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/fvoperator/types"
	"github.com/notargets/fvoperator/utils"
)

type normals map[int]utils.Vec3

func (n normals) FaceNormal(face int) utils.Vec3 { return n[face] }

func TestConditions(t *testing.T) {
	state := []float64{1, 2, 3, 4, 5}
	orig := append([]float64(nil), state...)

	assert.Equal(t, state, ZeroGradient{}.BoundaryValue(state, 0, 0))
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, Dirichlet{}.BoundaryValue(state, 0, 0))
	assert.Equal(t, []float64{1, -2, -3, -4, 5}, NoSlipWall{}.BoundaryValue(state, 0, 0))

	sw := SlipWall{Normals: normals{3: {1, 0, 0}, 4: {0, 0, -1}}}
	assert.Equal(t, []float64{1, -2, 3, 4, 5}, sw.BoundaryValue(state, 3, 0))
	assert.Equal(t, []float64{1, 2, 3, -4, 5}, sw.BoundaryValue(state, 4, 0))
	// Derived variables pass through
	assert.Equal(t, []float64{1, -2, 3, 4, 5, 6, 7}, sw.BoundaryValue([]float64{1, 2, 3, 4, 5, 6, 7}, 3, 0))

	assert.Equal(t, orig, state)
}

func TestSlipWallLinear(t *testing.T) {
	sw := SlipWall{Normals: normals{0: utils.Vec3{1, 2, 2}.Unit()}}
	a := []float64{0.3, 1, -2, 0.5, 4}
	b := []float64{-1, 0.2, 0.7, 3, -2}
	sum := make([]float64, len(a))
	for i := range a {
		sum[i] = 2*a[i] + b[i]
	}
	ga, gb, gs := sw.BoundaryValue(a, 0, 0), sw.BoundaryValue(b, 0, 0), sw.BoundaryValue(sum, 0, 0)
	for i := range gs {
		assert.InDelta(t, 2*ga[i]+gb[i], gs[i], 1.e-12)
	}
	// No normal velocity is left at the face
	var u utils.Vec3
	for axis := 0; axis < 3; axis++ {
		u[axis] = ga[types.VelocityIndex(axis)] + a[types.VelocityIndex(axis)]
	}
	assert.InDelta(t, 0., u.Dot(utils.Vec3{1, 2, 2}.Unit()), 1.e-12)
}

func TestSet(t *testing.T) {
	s, err := NewSet(map[int]types.BCFLAG{
		0: types.BC_In,
		1: types.BC_Out,
		2: types.BC_Wall,
		3: types.BC_Slip,
	}, normals{7: {0, 1, 0}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, s.Markers())
	assert.True(t, s.HasMarker(2))
	assert.False(t, s.HasMarker(4))
	assert.Equal(t, types.BC_Wall, s.Flag(2))

	state := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, s.BoundaryValue(state, 7, 0))
	assert.Equal(t, state, s.BoundaryValue(state, 7, 1))
	assert.Equal(t, []float64{1, -2, -3, -4, 5}, s.BoundaryValue(state, 7, 2))
	assert.Equal(t, []float64{1, 2, -3, 4, 5}, s.BoundaryValue(state, 7, 3))
	assert.PanicsWithError(t, "unknown boundary marker: 9 on face 7", func() {
		s.BoundaryValue(state, 7, 9)
	})

	_, err = NewSet(map[int]types.BCFLAG{0: types.BC_Slip}, nil)
	assert.Error(t, err)
	_, err = NewSet(map[int]types.BCFLAG{0: types.BC_None}, nil)
	assert.Error(t, err)
}
