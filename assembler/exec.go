package assembler

import (
	"context"
	"errors"
	"fmt"

	"github.com/notargets/fvoperator/utils"
)

// ExecutionContext describes where one rank of an assembly runs. Rank 0 is the
// leader and receives the triplets of every rank through Gather.
type ExecutionContext interface {
	Rank() int
	Size() int
	IsLeader() bool
	// Gather sends the local triplets and error of this rank to the leader.
	// The leader gets every rank's triplets in rank order and the joined
	// errors; other ranks get nil and their own error back.
	Gather(ctx context.Context, local []utils.Triplet, localErr error) ([]utils.Triplet, error)
}

type serial struct{}

// Local is a single rank context
func Local() ExecutionContext { return serial{} }

func (serial) Rank() int      { return 0 }
func (serial) Size() int      { return 1 }
func (serial) IsLeader() bool { return true }
func (serial) Gather(ctx context.Context, local []utils.Triplet, localErr error) ([]utils.Triplet, error) {
	return local, localErr
}

type gathered struct {
	triplets []utils.Triplet
	err      error
}

// Communicator connects Size in process ranks through mailboxes
type Communicator struct {
	mb *utils.MailBox[gathered]
}

func NewCommunicator(size int) (c *Communicator) {
	if size < 1 {
		panic(fmt.Errorf("communicator size must be positive, have %d", size))
	}
	return &Communicator{mb: utils.NewMailBox[gathered](size)}
}

func (c *Communicator) Size() int { return c.mb.NP }

// Rank returns the context of rank r
func (c *Communicator) Rank(r int) ExecutionContext {
	if r < 0 || r >= c.mb.NP {
		panic(fmt.Errorf("%w: rank %d of %d", utils.ErrIndexOutOfRange, r, c.mb.NP))
	}
	return &rank{comm: c, rank: r}
}

type rank struct {
	comm *Communicator
	rank int
}

func (r *rank) Rank() int      { return r.rank }
func (r *rank) Size() int      { return r.comm.mb.NP }
func (r *rank) IsLeader() bool { return r.rank == 0 }

func (r *rank) Gather(ctx context.Context, local []utils.Triplet, localErr error) (all []utils.Triplet, err error) {
	if !r.IsLeader() {
		r.comm.mb.PostMessage(r.rank, 0, gathered{triplets: local, err: localErr})
		return nil, localErr
	}
	msgs, err := r.comm.mb.ReceiveMessages(ctx, 0, r.Size()-1)
	if err != nil {
		return nil, errors.Join(localErr, err)
	}
	var errs []error
	if localErr != nil {
		errs = append(errs, fmt.Errorf("rank 0: %w", localErr))
	}
	all = local
	for from := 1; from < r.Size(); from++ {
		msg := msgs[from]
		if msg.err != nil {
			errs = append(errs, fmt.Errorf("rank %d: %w", from, msg.err))
		}
		all = append(all, msg.triplets...)
	}
	if err = errors.Join(errs...); err != nil {
		return nil, err
	}
	return
}
