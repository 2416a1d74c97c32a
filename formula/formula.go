// Package formula holds the discrete operators that get assembled into
// sparse matrices. A formula maps a state field to NumReturn values per cell.
package formula

import (
	"fmt"

	"github.com/notargets/fvoperator/field"
	"github.com/notargets/fvoperator/gradient"
	"github.com/notargets/fvoperator/types"
	"github.com/notargets/fvoperator/utils"
)

type Formula interface {
	NumReturn() int
	// Leaves are the cells whose state can change the output at cell
	Leaves(cell int) []int
	Evaluate(state field.Field, cell int) []float64
	IsLinear() bool
}

// Identity returns the first NVal variables of the cell
type Identity struct {
	NVal int
}

func (id Identity) NumReturn() int        { return id.NVal }
func (id Identity) Leaves(cell int) []int { return []int{cell} }
func (id Identity) IsLinear() bool        { return true }
func (id Identity) Evaluate(state field.Field, cell int) (out []float64) {
	out = make([]float64, id.NVal)
	for v := range out {
		out[v] = state.At(cell, v)
	}
	return
}

// Gradient is the least squares gradient of one variable, a single component
// when Axis is 0, 1 or 2 and all three when Axis is -1
type Gradient struct {
	Stencil  *gradient.Stencil
	Variable int
	Axis     int
}

func NewGradient(s *gradient.Stencil, variable, axis int) (g Gradient, err error) {
	if axis < -1 || axis > 2 {
		err = fmt.Errorf("%w: gradient axis %d", utils.ErrIndexOutOfRange, axis)
		return
	}
	if variable < 0 || variable >= types.NumMaxVars {
		err = fmt.Errorf("%w: gradient variable %d", utils.ErrIndexOutOfRange, variable)
		return
	}
	return Gradient{Stencil: s, Variable: variable, Axis: axis}, nil
}

func (g Gradient) NumReturn() int {
	if g.Axis < 0 {
		return 3
	}
	return 1
}
func (g Gradient) Leaves(cell int) []int { return g.Stencil.Leaves(cell) }
func (g Gradient) IsLinear() bool        { return true }
func (g Gradient) Evaluate(state field.Field, cell int) []float64 {
	grad := g.Stencil.Gradient(state, cell, g.Variable)
	if g.Axis < 0 {
		return grad[:]
	}
	return []float64{grad[g.Axis]}
}

// FrozenAdvection is -(u.grad)q for each of the first NVal variables, with the
// advecting velocity u taken from the reference state
type FrozenAdvection struct {
	Stencil   *gradient.Stencil
	Reference field.Field
	NVal      int
}

func (fa FrozenAdvection) NumReturn() int        { return fa.NVal }
func (fa FrozenAdvection) Leaves(cell int) []int { return fa.Stencil.Leaves(cell) }
func (fa FrozenAdvection) IsLinear() bool        { return true }
func (fa FrozenAdvection) Evaluate(state field.Field, cell int) (out []float64) {
	var u utils.Vec3
	for axis := 0; axis < 3; axis++ {
		u[axis] = fa.Reference.At(cell, types.VelocityIndex(axis))
	}
	out = make([]float64, fa.NVal)
	for v := range out {
		out[v] = -u.Dot(fa.Stencil.Gradient(state, cell, v))
	}
	return
}
