package grid

import (
	"context"
	"fmt"

	"github.com/3LIAS-MB/halosim/sim/comm"
	"github.com/3LIAS-MB/halosim/sim/topology"
)

// TagHalo is the message tag of the per-step halo exchange.
const TagHalo = 0

// HaloExchange swaps edges and claims between a block and its neighbours.
// Each side with a neighbour carries one message per step:
//
//	[edge cells facing the side][claims on that side]
//
// Sides on the domain edge send and receive nothing.
type HaloExchange struct {
	comm  *comm.Comm
	block *Block
	send  [4][]byte
	recv  [4][]byte
	reqs  []*comm.Request
}

// NewHaloExchange allocates the message buffers of b.
func NewHaloExchange(c *comm.Comm, b *Block) *HaloExchange {
	x := &HaloExchange{comm: c, block: b, reqs: make([]*comm.Request, 0, 8)}
	for _, s := range topology.Sides {
		if b.part.HasNeighbor(s) {
			n := 2 * b.edgeLen(s)
			x.send[s] = make([]byte, n)
			x.recv[s] = make([]byte, n)
		}
	}
	return x
}

// Exchange posts every receive, then every send, waits for all of them and
// applies the received halos and claims. Local claims are cleared.
func (x *HaloExchange) Exchange(ctx context.Context) error {
	part := x.block.part
	x.reqs = x.reqs[:0]
	for _, s := range topology.Sides {
		if !part.HasNeighbor(s) {
			continue
		}
		req, err := x.comm.Irecv(ctx, x.recv[s], part.Neighbors[s], TagHalo)
		if err != nil {
			return fmt.Errorf("post %s halo receive: %w", s, err)
		}
		x.reqs = append(x.reqs, req)
	}
	for _, s := range topology.Sides {
		if !part.HasNeighbor(s) {
			continue
		}
		x.block.packSide(s, x.send[s])
		req, err := x.comm.Isend(ctx, x.send[s], part.Neighbors[s], TagHalo)
		if err != nil {
			return fmt.Errorf("post %s halo send: %w", s, err)
		}
		x.reqs = append(x.reqs, req)
	}
	if err := comm.WaitAll(ctx, x.reqs); err != nil {
		return fmt.Errorf("halo exchange: %w", err)
	}
	for _, s := range topology.Sides {
		if part.HasNeighbor(s) {
			x.block.unpackSide(s, x.recv[s])
		}
	}
	x.block.clearClaims()
	return nil
}
