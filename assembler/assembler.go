// Package assembler builds the sparse matrix of a linear cell formula by
// probing. For every owned cell and every input variable a unit impulse is
// placed in the probe field, the formula is evaluated on the cells that can
// see that impulse, and each non-zero output becomes one matrix entry:
//
//	row = cell*NumReturn + output, col = source*nVal + variable
//
// Cells are dealt to ranks round robin and the entries are gathered on the
// leader, which is the only rank that returns a matrix.
package assembler

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/notargets/fvoperator/field"
	"github.com/notargets/fvoperator/formula"
	"github.com/notargets/fvoperator/probe"
	"github.com/notargets/fvoperator/types"
	"github.com/notargets/fvoperator/utils"
)

type State uint8

const (
	Uninitialized State = iota
	Assembling
	Gathering
	Finalized
)

func (s State) String() string {
	return [...]string{"Uninitialized", "Assembling", "Gathering", "Finalized"}[s]
}

type Option func(a *Assembler)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Assembler) { a.logger = logger }
}

func WithGamma(gamma float64) Option {
	return func(a *Assembler) { a.gamma = gamma }
}

// WithProgressInterval sets the percentage step between progress reports
func WithProgressInterval(percent int) Option {
	return func(a *Assembler) { a.progressInterval = percent }
}

// WithPartition changes how cells are dealt to ranks
func WithPartition(strategy utils.PartitionStrategy) Option {
	return func(a *Assembler) { a.strategy = strategy }
}

type Assembler struct {
	target           formula.Formula
	nCell, nVal      int
	nReturn          int
	ref              field.Field
	exec             ExecutionContext
	probe            *probe.Probe
	partition        *utils.PartitionMap
	strategy         utils.PartitionStrategy
	gamma            float64
	logger           *zap.Logger
	progressInterval int
	state            State
}

// New prepares the assembly of target over nCell cells with nVal input
// variables per cell. ref is the reference state derived variables are
// linearized about and may be nil when the formula only reads primitives.
func New(target formula.Formula, nCell, nVal int, ref field.Field,
	exec ExecutionContext, opts ...Option) (a *Assembler, err error) {
	a = &Assembler{
		target:           target,
		nCell:            nCell,
		nVal:             nVal,
		ref:              ref,
		exec:             exec,
		strategy:         utils.RoundRobin,
		gamma:            field.DefaultGamma,
		logger:           zap.NewNop(),
		progressInterval: 10,
	}
	for _, opt := range opts {
		opt(a)
	}
	switch {
	case target == nil:
		err = fmt.Errorf("%w: no formula", ErrConfiguration)
	case exec == nil:
		err = fmt.Errorf("%w: no execution context", ErrConfiguration)
	case !target.IsLinear():
		err = ErrNonLinearFormula
	case nCell < 1:
		err = fmt.Errorf("%w: %d cells", ErrConfiguration, nCell)
	case target.NumReturn() < 1:
		err = fmt.Errorf("%w: formula returns %d values", ErrConfiguration, target.NumReturn())
	case a.progressInterval < 1 || a.progressInterval > 100:
		err = fmt.Errorf("%w: progress interval %d%%", ErrConfiguration, a.progressInterval)
	}
	if err != nil {
		return nil, err
	}
	a.nReturn = target.NumReturn()

	nProbe := types.NumPrimitive
	if ref != nil {
		nProbe = types.NumMaxVars
	}
	if nVal < 1 || nVal > nProbe {
		return nil, fmt.Errorf("%w: %d input variables, the probe carries %d",
			ErrConfiguration, nVal, nProbe)
	}
	if a.probe, err = probe.New(nCell, nProbe, ref, a.gamma); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	a.partition = utils.NewPartitionMap(exec.Size(), nCell, a.strategy)
	return
}

func (a *Assembler) State() State { return a.state }

// Dims are the dimensions of the assembled matrix
func (a *Assembler) Dims() (nr, nc int) { return a.nCell * a.nReturn, a.nCell * a.nVal }

// OwnedCells are the cells this rank evaluates
func (a *Assembler) OwnedCells() []int { return a.partition.Indices(a.exec.Rank()) }

// Assemble runs the local sweep and the gather. The leader returns the
// matrix, every other rank returns nil with its own error status. Assemble
// can only run once.
func (a *Assembler) Assemble(ctx context.Context) (csr *utils.CSR, err error) {
	if a.state != Uninitialized {
		return nil, ErrAlreadyAssembled
	}
	var (
		log   = a.logger.With(zap.Int("rank", a.exec.Rank()))
		start = time.Now()
	)
	a.state = Assembling
	local, localErr := a.sweep(ctx)
	log.Debug("local sweep done",
		zap.Int("cells", a.partition.GetBucketDimension(a.exec.Rank())),
		zap.Int("entries", len(local)),
		zap.Error(localErr))

	a.state = Gathering
	all, err := a.exec.Gather(ctx, local, localErr)
	a.state = Finalized
	if err != nil || !a.exec.IsLeader() {
		return nil, err
	}

	nr, nc := a.Dims()
	m, err := utils.NewCSRFromTriplets(nr, nc, all, "operator")
	if err != nil {
		return nil, err
	}
	log.Info("operator assembled",
		zap.Int("rows", nr),
		zap.Int("cols", nc),
		zap.Int("nnz", m.NNZ()),
		zap.Int("ranks", a.exec.Size()),
		zap.Duration("elapsed", time.Since(start)))
	return &m, nil
}

// sweep probes every owned cell. A panic in the formula or the probe is
// returned as an error so that the gather still takes place.
func (a *Assembler) sweep(ctx context.Context) (triplets []utils.Triplet, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("formula panicked: %w", e)
			} else {
				err = fmt.Errorf("formula panicked: %v", r)
			}
			triplets = nil
		}
	}()
	var (
		cells    = a.OwnedCells()
		progress = newProgress(a.logger, a.nCell, a.exec.Size(), a.progressInterval, a.exec.IsLeader())
	)
	for i, cell := range cells {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		if triplets, err = a.probeCell(cell, triplets); err != nil {
			return nil, err
		}
		progress.update(i + 1)
	}
	return
}

// probeCell adds the entries of the rows owned by cell
func (a *Assembler) probeCell(cell int, triplets []utils.Triplet) ([]utils.Triplet, error) {
	leaves := a.target.Leaves(cell)
	sorted := append([]int(nil), leaves...)
	sort.Ints(sorted)
	for i, s := range sorted {
		if s < 0 || s >= a.nCell {
			return nil, fmt.Errorf("%w: cell %d has leaf %d of %d",
				utils.ErrIndexOutOfRange, cell, s, a.nCell)
		}
		if i > 0 && s == sorted[i-1] {
			return nil, fmt.Errorf("%w: cell %d lists leaf %d twice", utils.ErrDuplicateEntry, cell, s)
		}
	}
	for _, s := range leaves {
		for v := 0; v < a.nVal; v++ {
			a.probe.Set(s, v)
			out := a.target.Evaluate(a.probe, cell)
			if len(out) != a.nReturn {
				return nil, fmt.Errorf("%w: formula returned %d values at cell %d, expected %d",
					utils.ErrDimensionMismatch, len(out), cell, a.nReturn)
			}
			for o, val := range out {
				if utils.IsNan(val) || math.IsInf(val, 0) {
					return nil, fmt.Errorf("%w: cell %d output %d for (cell %d, variable %d)",
						ErrNonFinite, cell, o, s, v)
				}
				if val == 0 {
					continue
				}
				triplets = append(triplets, utils.Triplet{
					Row: cell*a.nReturn + o,
					Col: s*a.nVal + v,
					Val: val,
				})
			}
		}
	}
	a.probe.Reset()
	return triplets, nil
}

// progress estimates the global fraction of cells done from the leader's own
// count, since every rank owns about the same share.
type progress struct {
	logger   *zap.Logger
	total    int
	ranks    int
	interval int
	next     int
	start    time.Time
	enabled  bool
}

func newProgress(logger *zap.Logger, total, ranks, interval int, enabled bool) *progress {
	return &progress{
		logger:   logger,
		total:    total,
		ranks:    max(ranks, 1),
		interval: interval,
		next:     interval,
		start:    time.Now(),
		enabled:  enabled && total > 0,
	}
}

// update logs once for every interval percent crossed
func (p *progress) update(done int) {
	if !p.enabled {
		return
	}
	pct := min(100, 100*done*p.ranks/p.total)
	if pct < p.next {
		return
	}
	p.logger.Info("assembly progress",
		zap.Int("percent", pct),
		zap.Int("cells", done),
		zap.Duration("elapsed", time.Since(p.start)))
	for p.next <= pct {
		p.next += p.interval
	}
}
