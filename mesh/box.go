package mesh

import "fmt"

// Markers of the six sides of a box mesh
const (
	MarkerXMin = iota
	MarkerXMax
	MarkerYMin
	MarkerYMax
	MarkerZMin
	MarkerZMax
)

var boxTags = map[int]string{
	MarkerXMin: "xmin",
	MarkerXMax: "xmax",
	MarkerYMin: "ymin",
	MarkerYMax: "ymax",
	MarkerZMin: "zmin",
	MarkerZMax: "zmax",
}

// NewBoxMesh builds a structured nx*ny*nz hex mesh of the box [0,lx]x[0,ly]x[0,lz].
// Cells are numbered with x fastest: k = i + nx*(j + ny*l).
func NewBoxMesh(nx, ny, nz int, lx, ly, lz float64) (m *Mesh, err error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("box mesh needs at least one cell per direction, have %d x %d x %d", nx, ny, nz)
	}
	if lx <= 0 || ly <= 0 || lz <= 0 {
		return nil, fmt.Errorf("box mesh needs positive extents, have %g x %g x %g", lx, ly, lz)
	}
	var (
		vid = func(i, j, l int) int { return i + (nx+1)*(j+(ny+1)*l) }
		dx  = lx / float64(nx)
		dy  = ly / float64(ny)
		dz  = lz / float64(nz)
	)
	m = NewMesh()
	m.Vertices = make([][]float64, (nx+1)*(ny+1)*(nz+1))
	for l := 0; l <= nz; l++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				m.Vertices[vid(i, j, l)] = []float64{float64(i) * dx, float64(j) * dy, float64(l) * dz}
			}
		}
	}
	m.Elements = make([][]int, 0, nx*ny*nz)
	m.ElementTypes = make([]ElementType, 0, nx*ny*nz)
	for l := 0; l < nz; l++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				m.Elements = append(m.Elements, []int{
					vid(i, j, l), vid(i+1, j, l), vid(i+1, j+1, l), vid(i, j+1, l),
					vid(i, j, l+1), vid(i+1, j, l+1), vid(i+1, j+1, l+1), vid(i, j+1, l+1),
				})
				m.ElementTypes = append(m.ElementTypes, Hex)
			}
		}
	}
	for marker, tag := range boxTags {
		m.BoundaryTags[marker] = tag
	}
	// Boundary quads of each side
	for l := 0; l < nz; l++ {
		for j := 0; j < ny; j++ {
			m.MarkBoundaryFace([]int{vid(0, j, l), vid(0, j+1, l), vid(0, j+1, l+1), vid(0, j, l+1)}, MarkerXMin)
			m.MarkBoundaryFace([]int{vid(nx, j, l), vid(nx, j+1, l), vid(nx, j+1, l+1), vid(nx, j, l+1)}, MarkerXMax)
		}
	}
	for l := 0; l < nz; l++ {
		for i := 0; i < nx; i++ {
			m.MarkBoundaryFace([]int{vid(i, 0, l), vid(i+1, 0, l), vid(i+1, 0, l+1), vid(i, 0, l+1)}, MarkerYMin)
			m.MarkBoundaryFace([]int{vid(i, ny, l), vid(i+1, ny, l), vid(i+1, ny, l+1), vid(i, ny, l+1)}, MarkerYMax)
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			m.MarkBoundaryFace([]int{vid(i, j, 0), vid(i+1, j, 0), vid(i+1, j+1, 0), vid(i, j+1, 0)}, MarkerZMin)
			m.MarkBoundaryFace([]int{vid(i, j, nz), vid(i+1, j, nz), vid(i+1, j+1, nz), vid(i, j+1, nz)}, MarkerZMax)
		}
	}
	if err = m.Finalize(); err != nil {
		return nil, err
	}
	return
}
