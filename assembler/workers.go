package assembler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/notargets/fvoperator/utils"
)

// BuildFunc creates the assembler of one rank
type BuildFunc func(exec ExecutionContext) (*Assembler, error)

// RunWorkers assembles with size in process ranks, one goroutine per rank,
// and returns the leader's matrix. The first error of any rank is returned.
func RunWorkers(ctx context.Context, size int, build BuildFunc) (csr *utils.CSR, err error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d workers", ErrConfiguration, size)
	}
	var (
		comm    = NewCommunicator(size)
		g, gctx = errgroup.WithContext(ctx)
	)
	for r := 0; r < size; r++ {
		exec := comm.Rank(r)
		g.Go(func() error {
			a, err := build(exec)
			if err != nil {
				// The leader still waits on this rank
				if !exec.IsLeader() {
					_, _ = exec.Gather(gctx, nil, err)
				}
				return fmt.Errorf("rank %d: %w", exec.Rank(), err)
			}
			m, err := a.Assemble(gctx)
			if exec.IsLeader() {
				csr = m
			}
			return err
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	return
}
