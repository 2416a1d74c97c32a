package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadSU2 reads an SU2 native format file
func ReadSU2(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseSU2(file)
}

// ParseSU2 reads a three dimensional SU2 mesh, including the boundary marker
// sections. Marker i of the file becomes boundary marker i of the mesh.
func ParseSU2(r io.Reader) (*Mesh, error) {
	var (
		mesh    = NewMesh()
		scanner = bufio.NewScanner(r)
		ndime   int
		lineNum int
	)
	nextLine := func() (line string, err error) {
		for scanner.Scan() {
			lineNum++
			line = strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "%") {
				continue
			}
			return
		}
		if err = scanner.Err(); err == nil {
			err = io.ErrUnexpectedEOF
		}
		return
	}
	readCount := func(line, key string) (n int, err error) {
		if n, err = strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, key))); err != nil {
			err = fmt.Errorf("line %d: bad %s count: %w", lineNum, key, err)
		}
		return
	}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments
		if strings.HasPrefix(line, "%") || line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "NDIME="):
			n, err := readCount(line, "NDIME=")
			if err != nil {
				return nil, err
			}
			if n != 3 {
				return nil, fmt.Errorf("only 3D meshes are supported, got NDIME=%d", n)
			}
			ndime = n

		case strings.HasPrefix(line, "NELEM="):
			nelem, err := readCount(line, "NELEM=")
			if err != nil {
				return nil, err
			}
			mesh.Elements = make([][]int, 0, nelem)
			mesh.ElementTypes = make([]ElementType, 0, nelem)
			for i := 0; i < nelem; i++ {
				if line, err = nextLine(); err != nil {
					return nil, fmt.Errorf("reading element %d: %w", i, err)
				}
				etype, verts, ok, err := parseSU2Element(line)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				if !ok { // 1D and 2D elements do not bound a volume
					continue
				}
				mesh.Elements = append(mesh.Elements, verts)
				mesh.ElementTypes = append(mesh.ElementTypes, etype)
			}

		case strings.HasPrefix(line, "NPOIN="):
			if ndime == 0 {
				return nil, fmt.Errorf("line %d: NPOIN before NDIME", lineNum)
			}
			fields := strings.Fields(strings.TrimPrefix(line, "NPOIN="))
			if len(fields) == 0 {
				return nil, fmt.Errorf("line %d: missing NPOIN count", lineNum)
			}
			npoin, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: bad NPOIN count: %w", lineNum, err)
			}
			mesh.Vertices = make([][]float64, npoin)
			for i := 0; i < npoin; i++ {
				if line, err = nextLine(); err != nil {
					return nil, fmt.Errorf("reading point %d: %w", i, err)
				}
				fields := strings.Fields(line)
				if len(fields) < ndime {
					return nil, fmt.Errorf("line %d: point needs %d coordinates", lineNum, ndime)
				}
				coords := make([]float64, 3)
				for j := 0; j < ndime; j++ {
					if coords[j], err = strconv.ParseFloat(fields[j], 64); err != nil {
						return nil, fmt.Errorf("line %d: %w", lineNum, err)
					}
				}
				// Point ID is the optional last field
				ptID := i
				if len(fields) > ndime {
					if ptID, err = strconv.Atoi(fields[len(fields)-1]); err != nil {
						return nil, fmt.Errorf("line %d: bad point id: %w", lineNum, err)
					}
				}
				if ptID < 0 || ptID >= npoin {
					return nil, fmt.Errorf("line %d: point id %d out of range [0,%d)", lineNum, ptID, npoin)
				}
				mesh.Vertices[ptID] = coords
			}

		case strings.HasPrefix(line, "NMARK="):
			nmark, err := readCount(line, "NMARK=")
			if err != nil {
				return nil, err
			}
			for marker := 0; marker < nmark; marker++ {
				if line, err = nextLine(); err != nil {
					return nil, err
				}
				if !strings.HasPrefix(line, "MARKER_TAG=") {
					return nil, fmt.Errorf("line %d: expected MARKER_TAG=, have %q", lineNum, line)
				}
				mesh.BoundaryTags[marker] = strings.TrimSpace(strings.TrimPrefix(line, "MARKER_TAG="))

				if line, err = nextLine(); err != nil {
					return nil, err
				}
				nMarkerElems, err := readCount(line, "MARKER_ELEMS=")
				if err != nil {
					return nil, err
				}
				for j := 0; j < nMarkerElems; j++ {
					if line, err = nextLine(); err != nil {
						return nil, err
					}
					verts, err := parseSU2BoundaryElement(line)
					if err != nil {
						return nil, fmt.Errorf("line %d: %w", lineNum, err)
					}
					mesh.MarkBoundaryFace(verts, marker)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	for i, v := range mesh.Vertices {
		if v == nil {
			return nil, fmt.Errorf("point %d is missing", i)
		}
	}
	if err := mesh.Finalize(); err != nil {
		return nil, err
	}
	return mesh, nil
}

func parseSU2Element(line string) (etype ElementType, verts []int, ok bool, err error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		err = fmt.Errorf("element line too short: %q", line)
		return
	}
	su2Type, err := strconv.Atoi(fields[0])
	if err != nil {
		return
	}

	// Map SU2 element types to our types
	switch su2Type {
	case 10:
		etype, ok = Tet, true
	case 12:
		etype, ok = Hex, true
	case 13:
		etype, ok = Prism, true
	case 14:
		etype, ok = Pyramid, true
	}
	numNodes := getNumNodesSU2(su2Type)
	if numNodes == 0 {
		err = fmt.Errorf("unknown SU2 element type %d", su2Type)
		return
	}
	if len(fields) < numNodes+1 {
		err = fmt.Errorf("element type %d needs %d vertices: %q", su2Type, numNodes, line)
		return
	}
	if !ok {
		return
	}
	verts = make([]int, numNodes)
	for j := 0; j < numNodes; j++ {
		if verts[j], err = strconv.Atoi(fields[1+j]); err != nil {
			return
		}
	}
	return
}

func parseSU2BoundaryElement(line string) (verts []int, err error) {
	fields := strings.Fields(line)
	if len(fields) < 1 {
		return nil, fmt.Errorf("empty marker element")
	}
	su2Type, err := strconv.Atoi(fields[0])
	if err != nil {
		return
	}
	if su2Type != 5 && su2Type != 9 {
		return nil, fmt.Errorf("marker element type %d is not a triangle or quad", su2Type)
	}
	numNodes := getNumNodesSU2(su2Type)
	if len(fields) < numNodes+1 {
		return nil, fmt.Errorf("marker element needs %d vertices: %q", numNodes, line)
	}
	verts = make([]int, numNodes)
	for j := 0; j < numNodes; j++ {
		if verts[j], err = strconv.Atoi(fields[1+j]); err != nil {
			return
		}
	}
	return
}

// getNumNodesSU2 returns the number of nodes for an SU2 element type
func getNumNodesSU2(su2Type int) int {
	switch su2Type {
	case 3:
		return 2 // Line
	case 5:
		return 3 // Triangle
	case 9:
		return 4 // Quad
	case 10:
		return 4 // Tet
	case 12:
		return 8 // Hex
	case 13:
		return 6 // Prism
	case 14:
		return 5 // Pyramid
	default:
		return 0
	}
}
