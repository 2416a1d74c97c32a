package mesh

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/notargets/fvoperator/types"
	"github.com/notargets/fvoperator/utils"
)

// ElementType represents different element types
type ElementType int

const (
	Tet ElementType = iota
	Hex
	Prism
	Pyramid
)

func (e ElementType) String() string {
	return [...]string{"Tet", "Hex", "Prism", "Pyramid"}[e]
}

// Face represents a face shared by one (boundary) or two (interior) cells
type Face struct {
	Vertices []int // Vertex indices in the orientation of the owning element
	Element  int   // Owning element
	LocalID  int   // Local face ID within the owner
	Neighbor int   // Second element, or the boundary sentinel
}

func (f Face) IsBoundary() bool { return types.IsBoundary(f.Neighbor) }

// Mesh is an unstructured finite volume mesh with cell and face geometry
type Mesh struct {
	// Geometry
	Vertices [][]float64 // Vertex coordinates [nvertices][3]

	// Element data
	Elements     [][]int       // Element to vertex connectivity [nelems][nverts_per_elem]
	ElementTypes []ElementType // Element type for each element

	// Connectivity, built by BuildConnectivity
	EToE [][]int // Element to element, boundary faces hold the marker sentinel
	EToF [][]int // Element to face, parallel to EToE

	// Face data
	Faces        []Face         // All unique faces in mesh
	FaceMap      map[string]int // Map from sorted vertex string to face ID
	BoundaryTags map[int]string // Boundary marker to tag name

	// Boundary faces known before connectivity is built, sorted vertex key to marker
	markedFaces map[string]int

	// Finite volume geometry, built by BuildGeometry
	CellCenters []utils.Vec3
	FaceCenters []utils.Vec3
	FaceNormals []utils.Vec3 // Unit normal pointing out of the owning element

	// Mesh statistics
	NumElements int
	NumVertices int
	NumFaces    int
}

// NewMesh creates a new mesh and builds connectivity
func NewMesh() *Mesh {
	return &Mesh{
		FaceMap:      make(map[string]int),
		BoundaryTags: make(map[int]string),
		markedFaces:  make(map[string]int),
	}
}

// ReadMeshFile reads a mesh file based on extension
func ReadMeshFile(filename string) (*Mesh, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".su2":
		return ReadSU2(filename)
	default:
		return nil, fmt.Errorf("unsupported mesh format: %s", ext)
	}
}

func faceKey(faceVerts []int) string {
	sorted := make([]int, len(faceVerts))
	copy(sorted, faceVerts)
	sort.Ints(sorted)
	return fmt.Sprintf("%v", sorted)
}

// MarkBoundaryFace assigns a boundary marker to the face with these vertices.
// It must be called before BuildConnectivity.
func (m *Mesh) MarkBoundaryFace(faceVerts []int, marker int) {
	if marker < 0 {
		panic(fmt.Errorf("boundary marker must be non-negative, have %d", marker))
	}
	m.markedFaces[faceKey(faceVerts)] = marker
}

// defaultMarker is given to boundary faces that no marker covers
func (m *Mesh) defaultMarker() (marker int) {
	for mk := range m.BoundaryTags {
		if mk >= marker {
			marker = mk + 1
		}
	}
	return
}

// BuildConnectivity builds element-to-element and face connectivity
func (m *Mesh) BuildConnectivity() (err error) {
	m.EToE = make([][]int, m.NumElements)
	m.EToF = make([][]int, m.NumElements)
	m.Faces = m.Faces[:0]
	m.FaceMap = make(map[string]int)

	// Build face connectivity
	for elemID := 0; elemID < m.NumElements; elemID++ {
		elemType := m.ElementTypes[elemID]
		vertices := m.Elements[elemID]
		for _, v := range vertices {
			if v < 0 || v >= m.NumVertices {
				return fmt.Errorf("element %d references vertex %d of %d: %w",
					elemID, v, m.NumVertices, utils.ErrIndexOutOfRange)
			}
		}

		// Get faces for this element type
		faceVertices := GetElementFaces(elemType, vertices)

		m.EToE[elemID] = make([]int, len(faceVertices))
		m.EToF[elemID] = make([]int, len(faceVertices))

		// Process each face
		for localFaceID, faceVerts := range faceVertices {
			key := faceKey(faceVerts)

			if faceID, exists := m.FaceMap[key]; exists {
				// Face already exists - this is an interior face
				face := &m.Faces[faceID]
				if face.Neighbor >= 0 {
					return fmt.Errorf("face %v is shared by more than two elements (%d, %d, %d)",
						faceVerts, face.Element, face.Neighbor, elemID)
				}
				face.Neighbor = elemID

				// Set connectivity
				m.EToE[elemID][localFaceID] = face.Element
				m.EToE[face.Element][face.LocalID] = elemID

				m.EToF[elemID][localFaceID] = faceID
			} else {
				// New face, a boundary until another element claims it
				faceID := len(m.Faces)
				m.Faces = append(m.Faces, Face{
					Vertices: faceVerts,
					Element:  elemID,
					LocalID:  localFaceID,
					Neighbor: -1,
				})
				m.FaceMap[key] = faceID
				m.EToF[elemID][localFaceID] = faceID
			}
		}
	}
	m.NumFaces = len(m.Faces)

	// Boundary faces get the sentinel of their marker
	var (
		defMarker  = m.defaultMarker()
		hasDefault bool
	)
	for faceID := range m.Faces {
		face := &m.Faces[faceID]
		if face.Neighbor >= 0 {
			continue
		}
		marker, ok := m.markedFaces[faceKey(face.Vertices)]
		if !ok {
			marker = defMarker
			hasDefault = true
		}
		face.Neighbor = types.MarkerToSentinel(marker)
		m.EToE[face.Element][face.LocalID] = face.Neighbor
	}
	if hasDefault {
		m.BoundaryTags[defMarker] = "unmarked"
	}
	return
}

// BuildGeometry computes cell centers, face centers and outward face normals.
// Centers are vertex averages, normals come from the area vector of the face
// polygon and are flipped when needed to point away from the owner's center.
func (m *Mesh) BuildGeometry() (err error) {
	vert := func(v int) utils.Vec3 {
		return utils.Vec3{m.Vertices[v][0], m.Vertices[v][1], m.Vertices[v][2]}
	}
	m.CellCenters = make([]utils.Vec3, m.NumElements)
	for k, elem := range m.Elements {
		pts := make([]utils.Vec3, len(elem))
		for i, v := range elem {
			pts[i] = vert(v)
		}
		m.CellCenters[k] = utils.Centroid(pts)
	}
	m.FaceCenters = make([]utils.Vec3, m.NumFaces)
	m.FaceNormals = make([]utils.Vec3, m.NumFaces)
	for f, face := range m.Faces {
		var (
			nv      = len(face.Vertices)
			pts     = make([]utils.Vec3, nv)
			areaVec utils.Vec3
		)
		for i, v := range face.Vertices {
			pts[i] = vert(v)
		}
		fc := utils.Centroid(pts)
		for i := 0; i < nv; i++ {
			a, b := pts[i].Sub(fc), pts[(i+1)%nv].Sub(fc)
			areaVec = areaVec.Add(a.Cross(b))
		}
		normal := areaVec.Unit()
		if normal.Norm() == 0 {
			return fmt.Errorf("face %d of element %d has zero area", f, face.Element)
		}
		if normal.Dot(fc.Sub(m.CellCenters[face.Element])) < 0 {
			normal = normal.Scale(-1)
		}
		m.FaceCenters[f] = fc
		m.FaceNormals[f] = normal
	}
	return
}

// Finalize builds connectivity and geometry after elements and vertices are loaded
func (m *Mesh) Finalize() (err error) {
	m.NumElements = len(m.Elements)
	m.NumVertices = len(m.Vertices)
	if err = m.BuildConnectivity(); err != nil {
		return
	}
	return m.BuildGeometry()
}

func (m *Mesh) NumCells() int                  { return m.NumElements }
func (m *Mesh) Neighbors(cell int) []int       { return m.EToE[cell] }
func (m *Mesh) CellFaces(cell int) []int       { return m.EToF[cell] }
func (m *Mesh) Center(cell int) utils.Vec3     { return m.CellCenters[cell] }
func (m *Mesh) FaceCenter(face int) utils.Vec3 { return m.FaceCenters[face] }
func (m *Mesh) FaceNormal(face int) utils.Vec3 { return m.FaceNormals[face] }
func (m *Mesh) BoundaryTag(marker int) string  { return m.BoundaryTags[marker] }

// GetElementFaces returns the face vertices for each element type
func GetElementFaces(elemType ElementType, vertices []int) [][]int {
	switch elemType {
	case Tet:
		return [][]int{
			{vertices[0], vertices[2], vertices[1]}, // Face 0
			{vertices[0], vertices[1], vertices[3]}, // Face 1
			{vertices[1], vertices[2], vertices[3]}, // Face 2
			{vertices[0], vertices[3], vertices[2]}, // Face 3
		}
	case Hex:
		return [][]int{
			{vertices[0], vertices[3], vertices[2], vertices[1]}, // Face 0 (bottom)
			{vertices[4], vertices[5], vertices[6], vertices[7]}, // Face 1 (top)
			{vertices[0], vertices[1], vertices[5], vertices[4]}, // Face 2
			{vertices[1], vertices[2], vertices[6], vertices[5]}, // Face 3
			{vertices[2], vertices[3], vertices[7], vertices[6]}, // Face 4
			{vertices[3], vertices[0], vertices[4], vertices[7]}, // Face 5
		}
	case Prism:
		return [][]int{
			{vertices[0], vertices[2], vertices[1]},              // Face 0 (bottom tri)
			{vertices[3], vertices[4], vertices[5]},              // Face 1 (top tri)
			{vertices[0], vertices[1], vertices[4], vertices[3]}, // Face 2 (quad)
			{vertices[1], vertices[2], vertices[5], vertices[4]}, // Face 3 (quad)
			{vertices[2], vertices[0], vertices[3], vertices[5]}, // Face 4 (quad)
		}
	case Pyramid:
		return [][]int{
			{vertices[0], vertices[3], vertices[2], vertices[1]}, // Face 0 (base quad)
			{vertices[0], vertices[1], vertices[4]},              // Face 1 (tri)
			{vertices[1], vertices[2], vertices[4]},              // Face 2 (tri)
			{vertices[2], vertices[3], vertices[4]},              // Face 3 (tri)
			{vertices[3], vertices[0], vertices[4]},              // Face 4 (tri)
		}
	default:
		return [][]int{}
	}
}

// Statistics summarizes the mesh for logging
func (m *Mesh) Statistics() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Vertices: %d, Elements: %d, Faces: %d", m.NumVertices, m.NumElements, m.NumFaces)

	// Count element types
	typeCounts := make(map[ElementType]int)
	for _, t := range m.ElementTypes {
		typeCounts[t]++
	}
	for _, t := range []ElementType{Tet, Hex, Prism, Pyramid} {
		if typeCounts[t] != 0 {
			fmt.Fprintf(&sb, ", %s: %d", t, typeCounts[t])
		}
	}

	// Count boundary faces
	boundaryFaces := 0
	for _, face := range m.Faces {
		if face.IsBoundary() {
			boundaryFaces++
		}
	}
	fmt.Fprintf(&sb, ", Boundary faces: %d", boundaryFaces)
	return sb.String()
}
