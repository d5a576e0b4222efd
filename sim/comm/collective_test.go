package comm

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarrier_NoRankLeavesBeforeAllArrive(t *testing.T) {
	// GIVEN 4 ranks each incrementing a counter before the barrier
	var arrived atomic.Int32
	seen := make([]int32, 4)
	errs := runRanks(t, 4, func(ctx context.Context, c *Comm) error {
		for round := 0; round < 3; round++ {
			arrived.Add(1)
			if err := c.Barrier(ctx); err != nil {
				return err
			}
			if round == 0 {
				seen[c.Rank()] = arrived.Load()
			}
			if err := c.Barrier(ctx); err != nil {
				return err
			}
		}
		return nil
	})

	// THEN every rank observed all arrivals of the first round after leaving it
	for _, err := range errs {
		require.NoError(t, err)
	}
	for rank, n := range seen {
		assert.GreaterOrEqual(t, n, int32(4), "rank %d", rank)
	}
	assert.Equal(t, int32(12), arrived.Load())
}

func TestGather_IndexedByRank(t *testing.T) {
	var parts [][]byte
	errs := runRanks(t, 3, func(ctx context.Context, c *Comm) error {
		got, err := c.Gather(ctx, []byte{byte(10 * c.Rank()), byte(c.Rank())}, 0)
		if c.Rank() == 0 {
			parts = got
		} else if got != nil {
			t.Errorf("rank %d received gather result", c.Rank())
		}
		return err
	})
	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, [][]byte{{0, 0}, {10, 1}, {20, 2}}, parts)
}

func TestGather_ContributionSizeMismatchFails(t *testing.T) {
	errs := runRanks(t, 2, func(ctx context.Context, c *Comm) error {
		data := make([]byte, 2+c.Rank())
		_, err := c.Gather(ctx, data, 0)
		return err
	})
	assert.Error(t, errs[0])
}

func TestReduceSum_SumsAtRoot(t *testing.T) {
	results := make([]float64, 4)
	errs := runRanks(t, 4, func(ctx context.Context, c *Comm) error {
		v, err := c.ReduceSum(ctx, float64(c.Rank()+1), 0)
		results[c.Rank()] = v
		return err
	})
	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, []float64{10, 0, 0, 0}, results)
}

func TestReduceSum_SingleRank(t *testing.T) {
	v, err := NewWorld(1).Comm(0).ReduceSum(context.Background(), 7, 0)
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)
}
