// Package bc provides the ghost states used on boundary faces. Every
// condition here acts on perturbations, so each is linear in the interior state.
package bc

import (
	"fmt"
	"sort"

	"github.com/notargets/fvoperator/types"
	"github.com/notargets/fvoperator/utils"
)

// BoundaryCondition maps the state of the cell owning a boundary face to the
// ghost state across that face. The returned slice has len(state) entries and
// the input is left untouched.
type BoundaryCondition interface {
	BoundaryValue(state []float64, face, marker int) []float64
}

// NormalSource looks up outward unit face normals
type NormalSource interface {
	FaceNormal(face int) utils.Vec3
}

// ZeroGradient mirrors the interior state
type ZeroGradient struct{}

func (ZeroGradient) BoundaryValue(state []float64, face, marker int) []float64 {
	return append([]float64(nil), state...)
}

// Dirichlet holds the boundary at the reference state, a zero perturbation
type Dirichlet struct{}

func (Dirichlet) BoundaryValue(state []float64, face, marker int) []float64 {
	return make([]float64, len(state))
}

// NoSlipWall reverses the velocity and mirrors the rest
type NoSlipWall struct{}

func (NoSlipWall) BoundaryValue(state []float64, face, marker int) (ghost []float64) {
	ghost = append([]float64(nil), state...)
	if len(ghost) < types.NumPrimitive {
		return
	}
	for axis := 0; axis < 3; axis++ {
		ghost[types.VelocityIndex(axis)] *= -1
	}
	return
}

// SlipWall reflects the velocity about the face: u_g = u - 2(u.n)n
type SlipWall struct {
	Normals NormalSource
}

func (sw SlipWall) BoundaryValue(state []float64, face, marker int) (ghost []float64) {
	ghost = append([]float64(nil), state...)
	if len(ghost) < types.NumPrimitive {
		return
	}
	var (
		n  = sw.Normals.FaceNormal(face)
		u  utils.Vec3
		un float64
	)
	for axis := 0; axis < 3; axis++ {
		u[axis] = state[types.VelocityIndex(axis)]
	}
	un = u.Dot(n)
	for axis := 0; axis < 3; axis++ {
		ghost[types.VelocityIndex(axis)] = u[axis] - 2*un*n[axis]
	}
	return
}

// ForFlag returns the condition used for a boundary type
func ForFlag(flag types.BCFLAG, normals NormalSource) (bc BoundaryCondition, err error) {
	switch flag {
	case types.BC_Out, types.BC_Neuman:
		bc = ZeroGradient{}
	case types.BC_In, types.BC_Dirichlet, types.BC_Far:
		bc = Dirichlet{}
	case types.BC_Wall:
		bc = NoSlipWall{}
	case types.BC_Slip:
		if normals == nil {
			err = fmt.Errorf("slip wall needs face normals")
			return
		}
		bc = SlipWall{Normals: normals}
	default:
		err = fmt.Errorf("no boundary condition for type %s", flag)
	}
	return
}

// Set dispatches on the boundary marker
type Set struct {
	conditions map[int]BoundaryCondition
	flags      map[int]types.BCFLAG
}

func NewSet(flags map[int]types.BCFLAG, normals NormalSource) (s *Set, err error) {
	s = &Set{
		conditions: make(map[int]BoundaryCondition, len(flags)),
		flags:      make(map[int]types.BCFLAG, len(flags)),
	}
	for marker, flag := range flags {
		var bc BoundaryCondition
		if bc, err = ForFlag(flag, normals); err != nil {
			return nil, fmt.Errorf("marker %d: %w", marker, err)
		}
		s.Add(marker, flag, bc)
	}
	return
}

// Add registers or replaces the condition of one marker
func (s *Set) Add(marker int, flag types.BCFLAG, bc BoundaryCondition) {
	s.conditions[marker] = bc
	s.flags[marker] = flag
}

func (s *Set) HasMarker(marker int) bool {
	_, ok := s.conditions[marker]
	return ok
}

func (s *Set) Flag(marker int) types.BCFLAG { return s.flags[marker] }

// Markers lists the registered markers in increasing order
func (s *Set) Markers() (markers []int) {
	for mk := range s.conditions {
		markers = append(markers, mk)
	}
	sort.Ints(markers)
	return
}

func (s *Set) BoundaryValue(state []float64, face, marker int) []float64 {
	bc, ok := s.conditions[marker]
	if !ok {
		panic(fmt.Errorf("%w: %d on face %d", ErrUnknownMarker, marker, face))
	}
	return bc.BoundaryValue(state, face, marker)
}
