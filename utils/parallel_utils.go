package utils

import (
	"context"
	"fmt"
)

// Message carries one payload between two threads of a MailBox
type Message[T any] struct {
	From int
	Body T
}

// MailBox connects NP threads with one buffered inbox per thread. Every inbox
// holds NP messages, so each thread can post one message to every other
// thread without blocking.
type MailBox[T any] struct {
	NP           int
	MessageChans []chan Message[T] // One for each thread
}

func NewMailBox[T any](NP int) *MailBox[T] {
	mb := &MailBox[T]{
		NP:           NP,
		MessageChans: make([]chan Message[T], NP),
	}
	for n := 0; n < NP; n++ {
		mb.MessageChans[n] = make(chan Message[T], NP) // Worst case is all-to-all
	}
	return mb
}

func (mb *MailBox[T]) PostMessage(myThread, targetThread int, msg T) {
	if targetThread < 0 || targetThread > mb.NP-1 {
		panic(fmt.Sprintf("Target thread %d out of bounds", targetThread))
	}
	mb.MessageChans[targetThread] <- Message[T]{From: myThread, Body: msg}
}

// ReceiveMessages blocks until count messages have arrived in myThread's inbox
// or ctx is done. Messages are returned indexed by their sender.
func (mb *MailBox[T]) ReceiveMessages(ctx context.Context, myThread, count int) (msgs map[int]T, err error) {
	msgs = make(map[int]T, count)
	for len(msgs) < count {
		select {
		case msg := <-mb.MessageChans[myThread]:
			msgs[msg.From] = msg.Body
		case <-ctx.Done():
			err = fmt.Errorf("thread %d received %d of %d messages: %w",
				myThread, len(msgs), count, ctx.Err())
			return
		}
	}
	return
}

type PartitionStrategy uint8

const (
	BlockPartition PartitionStrategy = iota // Consecutive index ranges
	RoundRobin                              // Distribute cyclically
)

func (ps PartitionStrategy) String() string {
	return [...]string{"BlockPartition", "RoundRobin"}[ps]
}

type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Strategy       PartitionStrategy
	Partitions     [][2]int // Beginning and end index of partitions, BlockPartition only
}

func NewPartitionMap(ParallelDegree, maxIndex int, strategy ...PartitionStrategy) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		panic(fmt.Errorf("parallel degree must be at least 1, have %d", ParallelDegree))
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Strategy:       BlockPartition,
	}
	if len(strategy) != 0 {
		pm.Strategy = strategy[0]
	}
	if pm.Strategy == BlockPartition {
		pm.Partitions = make([][2]int, ParallelDegree)
		for n := 0; n < ParallelDegree; n++ {
			pm.Partitions[n] = pm.Split1D(n)
		}
	}
	return
}

// Indices lists the indices owned by a partition in ascending order
func (pm *PartitionMap) Indices(bucketNum int) (I []int) {
	switch pm.Strategy {
	case RoundRobin:
		I = make([]int, 0, pm.MaxIndex/pm.ParallelDegree+1)
		for k := bucketNum; k < pm.MaxIndex; k += pm.ParallelDegree {
			I = append(I, k)
		}
	default:
		kMin, kMax := pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
		I = make([]int, 0, kMax-kMin)
		for k := kMin; k < kMax; k++ {
			I = append(I, k)
		}
	}
	return
}

func (pm *PartitionMap) GetBucketDimension(bn int) (kMax int) {
	if bn == -1 {
		kMax = pm.MaxIndex
		return
	}
	switch pm.Strategy {
	case RoundRobin:
		if bn < pm.MaxIndex {
			kMax = (pm.MaxIndex-bn-1)/pm.ParallelDegree + 1
		}
	default:
		kMax = pm.Partitions[bn][1] - pm.Partitions[bn][0]
	}
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	// This routine splits one dimension into c.ParallelDegree pieces, with a maximum imbalance of one item
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}
