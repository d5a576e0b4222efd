package comm

import (
	"context"
	"sync"

	"github.com/3LIAS-MB/halosim/sim"
)

type barrier struct {
	size int

	mu      sync.Mutex
	arrived int
	release chan struct{}
}

func newBarrier(size int) *barrier {
	return &barrier{size: size, release: make(chan struct{})}
}

func (b *barrier) wait(ctx context.Context) error {
	b.mu.Lock()
	release := b.release
	b.arrived++
	if b.arrived == b.size {
		b.arrived = 0
		b.release = make(chan struct{})
		b.mu.Unlock()
		close(release)
		return nil
	}
	b.mu.Unlock()

	select {
	case <-release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Barrier blocks until every rank has entered it.
func (c *Comm) Barrier(ctx context.Context) error {
	return c.world.barrier.wait(ctx)
}

// Gather collects one fixed-size contribution per rank at root. Every rank
// must pass a buffer of the same length; a contribution of any other length
// is a CommError at root. Root receives the contributions indexed by rank;
// every other rank receives nil.
func (c *Comm) Gather(ctx context.Context, data []byte, root int) ([][]byte, error) {
	if err := c.checkPeer(root, tagGather); err != nil {
		return nil, err
	}
	if c.rank != root {
		req, err := c.isend(ctx, data, root, tagGather)
		if err != nil {
			return nil, err
		}
		return nil, req.Wait(ctx)
	}

	parts := make([][]byte, c.world.size)
	for src := range parts {
		buf := make([]byte, len(data))
		if src == root {
			copy(buf, data)
			parts[src] = buf
			continue
		}
		req, err := c.irecv(buf, src, tagGather)
		if err != nil {
			return nil, err
		}
		if err := req.Wait(ctx); err != nil {
			return nil, err
		}
		parts[src] = buf
	}
	return parts, nil
}

// ReduceSum adds one value per rank at root. Values are summed in rank order
// so the result does not depend on arrival order. Non-root ranks receive 0.
func (c *Comm) ReduceSum(ctx context.Context, value float64, root int) (float64, error) {
	if err := c.checkPeer(root, tagReduce); err != nil {
		return 0, err
	}
	payload := sim.EncodeFloat64s([]float64{value})
	if c.rank != root {
		req, err := c.isend(ctx, payload, root, tagReduce)
		if err != nil {
			return 0, err
		}
		return 0, req.Wait(ctx)
	}

	total := 0.0
	for src := 0; src < c.world.size; src++ {
		if src == root {
			total += value
			continue
		}
		buf := make([]byte, len(payload))
		req, err := c.irecv(buf, src, tagReduce)
		if err != nil {
			return 0, err
		}
		if err := req.Wait(ctx); err != nil {
			return 0, err
		}
		v, err := sim.DecodeFloat64s(buf)
		if err != nil {
			return 0, c.commError(src, tagReduce, "decode reduce contribution: %v", err)
		}
		total += v[0]
	}
	return total, nil
}
