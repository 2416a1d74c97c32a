// Package probe implements the unit impulse field used to recover operator
// columns. Exactly one primitive entry is 1 and every other primitive is 0.
// When a reference state is given, energy and temperature are reported as the
// linearized response to that impulse about the reference.
package probe

import (
	"errors"
	"fmt"

	"github.com/notargets/fvoperator/field"
	"github.com/notargets/fvoperator/types"
	"github.com/notargets/fvoperator/utils"
)

// ErrMissingReference is returned when derived variables are requested
// without a reference state to linearize about.
var ErrMissingReference = errors.New("derived variables need a reference state")

// Kind tags how a variable of the probe is produced
type Kind uint8

const (
	Primitive Kind = iota
	Energy
	Temperature
)

func (k Kind) String() string {
	return [...]string{"Primitive", "Energy", "Temperature"}[k]
}

// KindOf returns the kind of state variable v
func KindOf(v int) Kind {
	switch types.FlowVariable(v) {
	case types.Energy:
		return Energy
	case types.Temperature:
		return Temperature
	default:
		return Primitive
	}
}

type Probe struct {
	nCell, nVal    int
	ref            field.Field
	gamma          float64
	cell, variable int // Active impulse, cell is -1 when none is set
	kinds          []Kind
}

// New builds a probe over nCell cells with nVal physical variables. nVal is
// NumPrimitive, or NumPrimitive+1 (energy) or NumMaxVars (energy and
// temperature) when ref is given.
func New(nCell, nVal int, ref field.Field, gamma float64) (p *Probe, err error) {
	switch {
	case nCell < 1:
		err = fmt.Errorf("probe needs at least one cell, have %d", nCell)
	case nVal < types.NumPrimitive || nVal > types.NumMaxVars:
		err = fmt.Errorf("probe variables must be between %d and %d, have %d",
			types.NumPrimitive, types.NumMaxVars, nVal)
	case nVal > types.NumPrimitive && ref == nil:
		err = ErrMissingReference
	case ref != nil && (ref.NumCells() != nCell || ref.NumVars() < types.NumPrimitive):
		err = fmt.Errorf("%w: reference is %d x %d, probe needs %d cells with %d primitives",
			utils.ErrDimensionMismatch, ref.NumCells(), ref.NumVars(), nCell, types.NumPrimitive)
	case ref != nil && gamma <= 1:
		err = fmt.Errorf("ratio of specific heats must exceed 1, have %g", gamma)
	}
	if err != nil {
		return
	}
	p = &Probe{
		nCell:    nCell,
		nVal:     nVal,
		ref:      ref,
		gamma:    gamma,
		cell:     -1,
		variable: -1,
		kinds:    make([]Kind, nVal),
	}
	for v := range p.kinds {
		p.kinds[v] = KindOf(v)
	}
	return
}

func (p *Probe) NumCells() int { return p.nCell }
func (p *Probe) NumVars() int  { return p.nVal }

// Set moves the impulse to (cell, variable)
func (p *Probe) Set(cell, variable int) {
	p.check(cell, variable)
	p.cell, p.variable = cell, variable
}

// Reset clears the impulse, all entries read zero afterward
func (p *Probe) Reset() { p.cell, p.variable = -1, -1 }

func (p *Probe) Active() (cell, variable int) { return p.cell, p.variable }

func (p *Probe) check(cell, variable int) {
	if cell < 0 || cell >= p.nCell || variable < 0 || variable >= p.nVal {
		panic(fmt.Errorf("%w: (cell %d, variable %d) in a %d x %d probe",
			utils.ErrIndexOutOfRange, cell, variable, p.nCell, p.nVal))
	}
}

func (p *Probe) At(cell, variable int) float64 {
	p.check(cell, variable)
	switch p.kinds[variable] {
	case Energy:
		return p.energy(cell)
	case Temperature:
		return p.temperature(cell)
	default:
		return p.primitive(cell, variable)
	}
}

func (p *Probe) primitive(cell, variable int) float64 {
	if cell == p.cell && variable == p.variable {
		return 1
	}
	return 0
}

// delta returns the primitive perturbation of one cell and whether any is set
func (p *Probe) delta(cell int) (d [types.NumPrimitive]float64, ok bool) {
	if cell != p.cell || p.variable >= types.NumPrimitive {
		return
	}
	d[p.variable] = 1
	return d, true
}

func (p *Probe) reference(cell int) (rho float64, u utils.Vec3, pr float64) {
	rho = p.ref.At(cell, int(types.Density))
	for axis := 0; axis < 3; axis++ {
		u[axis] = p.ref.At(cell, types.VelocityIndex(axis))
	}
	pr = p.ref.At(cell, int(types.Pressure))
	return
}

// energy is dE = dp/(gamma-1) + drho*|u|^2/2 + rho*(u.du), the linearization
// of E = p/(gamma-1) + rho*|u|^2/2 as field.WithDerived defines it
func (p *Probe) energy(cell int) float64 {
	d, ok := p.delta(cell)
	if !ok {
		return 0
	}
	rho, u, _ := p.reference(cell)
	du := utils.Vec3{d[types.XVelocity], d[types.YVelocity], d[types.ZVelocity]}
	return d[types.Pressure]/(p.gamma-1) + 0.5*d[types.Density]*u.Dot(u) + rho*u.Dot(du)
}

// temperature is dT = gamma*dp/rho - gamma*p*drho/rho^2, the linearization of T = gamma*p/rho
func (p *Probe) temperature(cell int) float64 {
	d, ok := p.delta(cell)
	if !ok {
		return 0
	}
	rho, _, pr := p.reference(cell)
	return p.gamma*d[types.Pressure]/rho - p.gamma*pr*d[types.Density]/(rho*rho)
}
