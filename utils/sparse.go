package utils

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// Triplet is one (row, column, value) entry of a sparse matrix under assembly
type Triplet struct {
	Row, Col int
	Val      float64
}

// CheckTriplets rejects a triplet list holding an index outside an nr x nc
// matrix, or a second triplet for an already seen (row, col).
func CheckTriplets(nr, nc int, triplets []Triplet) (err error) {
	var seen = make(map[[2]int]struct{}, len(triplets))
	for _, tr := range triplets {
		if tr.Row < 0 || tr.Row >= nr || tr.Col < 0 || tr.Col >= nc {
			err = fmt.Errorf("%w: triplet (%d, %d) in a %d x %d matrix",
				ErrIndexOutOfRange, tr.Row, tr.Col, nr, nc)
			return
		}
		key := [2]int{tr.Row, tr.Col}
		if _, dup := seen[key]; dup {
			err = fmt.Errorf("%w: (%d, %d)", ErrDuplicateEntry, tr.Row, tr.Col)
			return
		}
		seen[key] = struct{}{}
	}
	return
}

// CSR is the compressed, read-only form used for repeated products
type CSR struct {
	M    *sparse.CSR
	name string
}

// NewCSRFromTriplets builds the compressed matrix once from a complete
// triplet list, with the column indices of every row in ascending order. The
// input slice is not modified.
func NewCSRFromTriplets(nr, nc int, triplets []Triplet, name string) (R CSR, err error) {
	if err = CheckTriplets(nr, nc, triplets); err != nil {
		return
	}
	var (
		sorted = slices.Clone(triplets)
		rows   = make([]int, len(triplets))
		cols   = make([]int, len(triplets))
		data   = make([]float64, len(triplets))
	)
	// ToCSR keeps the stream order within a row
	slices.SortFunc(sorted, func(a, b Triplet) int {
		return cmp.Or(cmp.Compare(a.Row, b.Row), cmp.Compare(a.Col, b.Col))
	})
	for ii, tr := range sorted {
		rows[ii], cols[ii], data[ii] = tr.Row, tr.Col, tr.Val
	}
	R = CSR{
		M:    sparse.NewCOO(nr, nc, rows, cols, data).ToCSR(),
		name: name,
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix                 { return m.M.T() }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }
func (m CSR) NNZ() int                      { return m.M.NNZ() }
func (m CSR) Name() string                  { return m.name }

// MulVec returns A*x
func (m CSR) MulVec(x []float64) (y []float64) {
	var nr, nc = m.Dims()
	if len(x) != nc {
		panic(fmt.Errorf("%w: %d x %d matrix times vector of length %d",
			ErrDimensionMismatch, nr, nc, len(x)))
	}
	y = make([]float64, nr)
	m.M.MulVecTo(y, false, x)
	return
}

// WriteMatrixMarket writes the matrix in MatrixMarket coordinate format with
// one based indices
func (m CSR) WriteMatrixMarket(w io.Writer) (err error) {
	var (
		nr, nc = m.Dims()
		raw    = m.RawMatrix()
		bw     = bufio.NewWriter(w)
	)
	fmt.Fprintf(bw, "%%%%MatrixMarket matrix coordinate real general\n")
	fmt.Fprintf(bw, "%% %s\n", m.name)
	fmt.Fprintf(bw, "%d %d %d\n", nr, nc, m.NNZ())
	for i := 0; i < nr; i++ {
		for ii := raw.Indptr[i]; ii < raw.Indptr[i+1]; ii++ {
			if _, err = fmt.Fprintf(bw, "%d %d %.17g\n", i+1, raw.Ind[ii]+1, raw.Data[ii]); err != nil {
				return
			}
		}
	}
	return bw.Flush()
}
