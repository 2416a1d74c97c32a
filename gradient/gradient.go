// Package gradient reconstructs cell gradients by least squares. For each cell
// the normal matrix M = sum dx dx^T over its faces is factored once; a gradient
// is then the solution of M g = sum dx dq.
//
// Interior faces use dx = c(nb) - c(cell). Boundary faces use a mirrored
// ghost cell, dx = 2 n |fc - c(cell)|, with the ghost value supplied by the
// boundary condition.
package gradient

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fvoperator/bc"
	"github.com/notargets/fvoperator/field"
	"github.com/notargets/fvoperator/types"
	"github.com/notargets/fvoperator/utils"
)

// ErrSingularStencil is returned when a cell's faces do not span three dimensions
var ErrSingularStencil = errors.New("singular least squares stencil")

// Mesh is the geometry a stencil needs
type Mesh interface {
	NumCells() int
	Neighbors(cell int) []int
	CellFaces(cell int) []int
	Center(cell int) utils.Vec3
	FaceCenter(face int) utils.Vec3
	FaceNormal(face int) utils.Vec3
}

type Stencil struct {
	mesh   Mesh
	bc     bc.BoundaryCondition
	lu     []*mat.LU
	pseudo [][]utils.Vec3 // dx per cell face, parallel to Neighbors
	leaves [][]int
}

func New(m Mesh, bcond bc.BoundaryCondition) (s *Stencil, err error) {
	nCell := m.NumCells()
	s = &Stencil{
		mesh:   m,
		bc:     bcond,
		lu:     make([]*mat.LU, nCell),
		pseudo: make([][]utils.Vec3, nCell),
		leaves: make([][]int, nCell),
	}
	markers, checkMarkers := bcond.(interface{ HasMarker(int) bool })
	for cell := 0; cell < nCell; cell++ {
		var (
			nbs   = m.Neighbors(cell)
			faces = m.CellFaces(cell)
			M     = mat.NewSymDense(3, nil)
		)
		if len(nbs) != len(faces) {
			return nil, fmt.Errorf("%w: cell %d has %d neighbors and %d faces",
				utils.ErrDimensionMismatch, cell, len(nbs), len(faces))
		}
		s.pseudo[cell] = make([]utils.Vec3, len(nbs))
		leaves := []int{cell}
		for k, nb := range nbs {
			if types.IsBoundary(nb) {
				if checkMarkers && !markers.HasMarker(types.SentinelToMarker(nb)) {
					return nil, fmt.Errorf("%w: %d on face %d of cell %d",
						bc.ErrUnknownMarker, types.SentinelToMarker(nb), faces[k], cell)
				}
			} else {
				if nb >= nCell {
					return nil, fmt.Errorf("%w: cell %d has neighbor %d of %d",
						utils.ErrIndexOutOfRange, cell, nb, nCell)
				}
				leaves = append(leaves, nb)
			}
			dx := s.pseudoVector(cell, k)
			s.pseudo[cell][k] = dx
			for i := 0; i < 3; i++ {
				for j := i; j < 3; j++ {
					M.SetSym(i, j, M.At(i, j)+dx[i]*dx[j])
				}
			}
		}
		lu := &mat.LU{}
		lu.Factorize(M)
		if cond := lu.Cond(); math.IsInf(cond, 1) || cond > mat.ConditionTolerance {
			return nil, fmt.Errorf("%w: cell %d, condition number %g", ErrSingularStencil, cell, cond)
		}
		s.lu[cell] = lu
		sort.Ints(leaves)
		s.leaves[cell] = dedup(leaves)
	}
	return
}

func dedup(sorted []int) []int {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func (s *Stencil) pseudoVector(cell, k int) utils.Vec3 {
	var (
		nb = s.mesh.Neighbors(cell)[k]
		c  = s.mesh.Center(cell)
	)
	if !types.IsBoundary(nb) {
		return s.mesh.Center(nb).Sub(c)
	}
	face := s.mesh.CellFaces(cell)[k]
	dist := s.mesh.FaceCenter(face).Sub(c).Norm()
	return s.outwardNormal(cell, face).Scale(2 * dist)
}

// outwardNormal flips a face normal when cell is not the side it points away from
func (s *Stencil) outwardNormal(cell, face int) utils.Vec3 {
	n := s.mesh.FaceNormal(face)
	if n.Dot(s.mesh.FaceCenter(face).Sub(s.mesh.Center(cell))) < 0 {
		return n.Scale(-1)
	}
	return n
}

// PseudoVector is the displacement used for face k of cell
func (s *Stencil) PseudoVector(cell, k int) utils.Vec3 { return s.pseudo[cell][k] }

// Leaves are the cells whose values enter the gradient of cell, sorted
func (s *Stencil) Leaves(cell int) []int { return s.leaves[cell] }

func (s *Stencil) NumCells() int { return s.mesh.NumCells() }

func (s *Stencil) Mesh() Mesh { return s.mesh }

// Gradient of variable at cell
func (s *Stencil) Gradient(f field.Field, cell, variable int) (g utils.Vec3) {
	if cell < 0 || cell >= len(s.lu) {
		panic(fmt.Errorf("%w: cell %d of %d", utils.ErrIndexOutOfRange, cell, len(s.lu)))
	}
	var (
		nbs   = s.mesh.Neighbors(cell)
		faces = s.mesh.CellFaces(cell)
		q     = f.At(cell, variable)
		rhs   utils.Vec3
		row   []float64
	)
	for k, nb := range nbs {
		var dq float64
		if types.IsBoundary(nb) {
			if row == nil {
				row = field.Row(f, cell)
			}
			ghost := s.bc.BoundaryValue(row, faces[k], types.SentinelToMarker(nb))
			dq = ghost[variable] - q
		} else {
			dq = f.At(nb, variable) - q
		}
		rhs = rhs.Add(s.pseudo[cell][k].Scale(dq))
	}
	var x mat.VecDense
	if err := s.lu[cell].SolveVecTo(&x, false, mat.NewVecDense(3, rhs[:])); err != nil {
		panic(fmt.Errorf("%w: cell %d: %v", ErrSingularStencil, cell, err))
	}
	return utils.Vec3{x.AtVec(0), x.AtVec(1), x.AtVec(2)}
}

// GradientAxis is one component of Gradient
func (s *Stencil) GradientAxis(f field.Field, cell, variable, axis int) float64 {
	if axis < 0 || axis > 2 {
		panic(fmt.Errorf("%w: axis %d", utils.ErrIndexOutOfRange, axis))
	}
	return s.Gradient(f, cell, variable)[axis]
}
