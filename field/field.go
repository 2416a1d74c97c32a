// Package field holds cell centered flow states. A state is stored cell by
// cell, so entry (cell, variable) of an n-variable field sits at cell*n+variable,
// the same ordering used for the columns and rows of an assembled operator.
package field

import (
	"fmt"

	"github.com/notargets/fvoperator/types"
	"github.com/notargets/fvoperator/utils"
)

const DefaultGamma = 1.4

// Field is read only access to a cell centered state
type Field interface {
	NumCells() int
	NumVars() int
	At(cell, variable int) float64
}

// Row copies the state vector of one cell
func Row(f Field, cell int) (row []float64) {
	row = make([]float64, f.NumVars())
	for v := range row {
		row[v] = f.At(cell, v)
	}
	return
}

// Dense is a field backed by one contiguous slice
type Dense struct {
	nCell, nVal int
	Data        []float64
}

func NewDense(nCell, nVal int, data []float64) (d *Dense) {
	if data == nil {
		data = make([]float64, nCell*nVal)
	}
	if len(data) != nCell*nVal {
		panic(fmt.Errorf("%w: field of %d cells x %d variables needs %d values, have %d",
			utils.ErrDimensionMismatch, nCell, nVal, nCell*nVal, len(data)))
	}
	return &Dense{nCell: nCell, nVal: nVal, Data: data}
}

// Uniform repeats one state vector in every cell
func Uniform(nCell int, state []float64) (d *Dense) {
	d = NewDense(nCell, len(state), nil)
	for k := 0; k < nCell; k++ {
		copy(d.Data[k*d.nVal:], state)
	}
	return
}

// FromFunc evaluates fn at every cell
func FromFunc(nCell, nVal int, fn func(cell int) []float64) (d *Dense) {
	d = NewDense(nCell, nVal, nil)
	for k := 0; k < nCell; k++ {
		copy(d.Data[k*nVal:(k+1)*nVal], fn(k))
	}
	return
}

func (d *Dense) NumCells() int { return d.nCell }
func (d *Dense) NumVars() int  { return d.nVal }

func (d *Dense) index(cell, variable int) int {
	if cell < 0 || cell >= d.nCell || variable < 0 || variable >= d.nVal {
		panic(fmt.Errorf("%w: (cell %d, variable %d) in a %d x %d field",
			utils.ErrIndexOutOfRange, cell, variable, d.nCell, d.nVal))
	}
	return cell*d.nVal + variable
}

func (d *Dense) At(cell, variable int) float64 { return d.Data[d.index(cell, variable)] }

func (d *Dense) Set(cell, variable int, val float64) { d.Data[d.index(cell, variable)] = val }

// Vector is the flattened field in operator column order
func (d *Dense) Vector() []float64 { return d.Data }

// WithDerived returns a copy of a primitive field extended with total energy
// E = p/(gamma-1) + rho*(u^2+v^2+w^2)/2 and, when requested, temperature
// T = gamma*p/rho.
func WithDerived(prim Field, gamma float64, temperature bool) (d *Dense, err error) {
	if prim.NumVars() != types.NumPrimitive {
		err = fmt.Errorf("%w: derived variables need a %d variable primitive field, have %d",
			utils.ErrDimensionMismatch, types.NumPrimitive, prim.NumVars())
		return
	}
	nVal := types.NumPrimitive + 1
	if temperature {
		nVal++
	}
	d = NewDense(prim.NumCells(), nVal, nil)
	for k := 0; k < prim.NumCells(); k++ {
		var (
			rho     = prim.At(k, int(types.Density))
			u, v, w = prim.At(k, int(types.XVelocity)), prim.At(k, int(types.YVelocity)), prim.At(k, int(types.ZVelocity))
			p       = prim.At(k, int(types.Pressure))
		)
		for n := 0; n < types.NumPrimitive; n++ {
			d.Set(k, n, prim.At(k, n))
		}
		d.Set(k, int(types.Energy), p/(gamma-1.)+0.5*rho*(u*u+v*v+w*w))
		if temperature {
			if rho == 0 {
				err = fmt.Errorf("cell %d has zero density, temperature is undefined", k)
				return nil, err
			}
			d.Set(k, int(types.Temperature), gamma*p/rho)
		}
	}
	return
}
