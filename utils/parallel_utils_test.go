package utils

import (
	"context"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionMap(t *testing.T) {
	{ // Test block PartitionMap
		getHisto := func(K, Np int) (histo map[int]int) {
			pm := NewPartitionMap(Np, K)
			histo = make(map[int]int)
			for np := 0; np < pm.ParallelDegree; np++ {
				maxK := pm.GetBucketDimension(np)
				histo[maxK]++
			}
			return
		}
		getTotal := func(histo map[int]int) (total int) {
			for key, count := range histo {
				total += key * count
			}
			return
		}
		assert.Equal(t, map[int]int{0: 30, 1: 2}, getHisto(2, 32))
		assert.Equal(t, map[int]int{1: 32}, getHisto(32, 32))
		assert.Equal(t, map[int]int{8: 32}, getHisto(256, 32))
		assert.Equal(t, map[int]int{8: 1, 9: 31}, getHisto(287, 32))
		assert.Equal(t, 287, getTotal(getHisto(287, 32)))
		for n := 64; n < 2000; n++ {
			var (
				keys   [2]float64
				keyNum int
			)
			histo := getHisto(n, 32)
			for key := range histo {
				keys[keyNum] = float64(key)
				keyNum++
			}
			if keyNum == 2 {
				assert.Equal(t, 1., math.Abs(keys[0]-keys[1])) // Maximum imbalance of 1
			}
			assert.Equal(t, n, getTotal(histo))
		}
	}
	{ // Every index is owned by exactly one bucket
		for _, strategy := range []PartitionStrategy{BlockPartition, RoundRobin} {
			for maxIndex := 1; maxIndex < 200; maxIndex++ {
				var (
					pm    = NewPartitionMap(5, maxIndex, strategy)
					owner = make([]int, maxIndex)
				)
				for bn := 0; bn < pm.ParallelDegree; bn++ {
					I := pm.Indices(bn)
					assert.Equal(t, pm.GetBucketDimension(bn), len(I))
					for _, k := range I {
						owner[k]++
					}
				}
				for k := range owner {
					assert.Equal(t, 1, owner[k], "index %d", k)
				}
			}
		}
	}
	{ // Round robin is the cyclic assignment {r, r+size, r+2*size, ...}
		pm := NewPartitionMap(4, 10, RoundRobin)
		assert.Equal(t, []int{0, 4, 8}, pm.Indices(0))
		assert.Equal(t, []int{1, 5, 9}, pm.Indices(1))
		assert.Equal(t, []int{2, 6}, pm.Indices(2))
		assert.Equal(t, []int{3, 7}, pm.Indices(3))
		var all []int
		for bn := 0; bn < 4; bn++ {
			all = append(all, pm.Indices(bn)...)
		}
		sort.Ints(all)
		assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)
		// More partitions than indices leaves the tail empty
		pm = NewPartitionMap(8, 3, RoundRobin)
		assert.Empty(t, pm.Indices(5))
		assert.Equal(t, 0, pm.GetBucketDimension(5))
	}
	assert.Panics(t, func() { NewPartitionMap(0, 10) })
}

func TestMailBox(t *testing.T) {
	var (
		NP = 4
		mb = NewMailBox[[]int](NP)
	)
	for n := 1; n < NP; n++ {
		go func(n int) {
			mb.PostMessage(n, 0, []int{n, n * 10})
		}(n)
	}
	msgs, err := mb.ReceiveMessages(context.Background(), 0, NP-1)
	require.NoError(t, err)
	assert.Len(t, msgs, NP-1)
	for n := 1; n < NP; n++ {
		assert.Equal(t, []int{n, n * 10}, msgs[n])
	}
	{ // A missing sender times out instead of blocking forever
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		mb.PostMessage(2, 0, nil)
		msgs, err = mb.ReceiveMessages(ctx, 0, 2)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Len(t, msgs, 1)
	}
	assert.Panics(t, func() { mb.PostMessage(0, NP, nil) })
}
