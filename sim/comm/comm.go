// Package comm is the in-process message transport shared by all workers of
// a run: non-blocking point-to-point sends and receives with wait-all
// completion, plus the barrier, gather and reduce collectives.
//
// Messages are byte slices delivered in FIFO order per (source, dest, tag).
// A rank keeps at most one outstanding receive per (source, tag).
package comm

import (
	"context"
	"fmt"
	"sync"

	"github.com/3LIAS-MB/halosim/sim"
	"github.com/3LIAS-MB/halosim/sim/trace"
)

// mailboxDepth bounds how many undelivered messages a link buffers before an
// Isend completes in the background instead of immediately.
const mailboxDepth = 16

// Reserved tags used by the collectives. User tags must be >= 0.
const (
	tagGather = -1
	tagReduce = -2
)

type mailboxKey struct {
	src, dst, tag int
}

// World is the fixed set of ranks of one run.
type World struct {
	size int

	mu    sync.Mutex
	boxes map[mailboxKey]chan []byte

	barrier *barrier
}

// NewWorld creates a world of size ranks.
// Panics if size < 1.
func NewWorld(size int) *World {
	if size < 1 {
		panic(fmt.Sprintf("comm.NewWorld: size must be >= 1, got %d", size))
	}
	return &World{
		size:    size,
		boxes:   make(map[mailboxKey]chan []byte),
		barrier: newBarrier(size),
	}
}

// Size returns the number of ranks.
func (w *World) Size() int {
	return w.size
}

// Comm returns the endpoint of rank. Panics if rank is outside [0, Size()).
func (w *World) Comm(rank int) *Comm {
	if rank < 0 || rank >= w.size {
		panic(fmt.Sprintf("comm.World.Comm: rank %d outside [0, %d)", rank, w.size))
	}
	return &Comm{world: w, rank: rank, step: -1}
}

func (w *World) mailbox(src, dst, tag int) chan []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := mailboxKey{src: src, dst: dst, tag: tag}
	ch, ok := w.boxes[key]
	if !ok {
		ch = make(chan []byte, mailboxDepth)
		w.boxes[key] = ch
	}
	return ch
}

// Comm is one rank's endpoint. A Comm is owned by a single goroutine.
type Comm struct {
	world *World
	rank  int
	step  int
	trace *trace.SimulationTrace
}

// Rank returns this endpoint's rank.
func (c *Comm) Rank() int { return c.rank }

// Size returns the number of ranks in the world.
func (c *Comm) Size() int { return c.world.size }

// SetTrace attaches a trace that records every point-to-point message this
// rank issues. Collective traffic is not recorded.
// Passing nil disables recording.
func (c *Comm) SetTrace(st *trace.SimulationTrace) { c.trace = st }

// Trace returns the attached trace, or nil.
func (c *Comm) Trace() *trace.SimulationTrace { return c.trace }

// BeginStep labels subsequent trace records with step.
func (c *Comm) BeginStep(step int) { c.step = step }

// Request is a pending non-blocking operation.
type Request struct {
	done bool
	err  error
	wait func(ctx context.Context) error
}

func completed(err error) *Request {
	return &Request{done: true, err: err}
}

// Wait blocks until the operation completes or ctx is cancelled.
// Waiting on a completed request returns its result again.
func (r *Request) Wait(ctx context.Context) error {
	if !r.done {
		r.err = r.wait(ctx)
		r.done = true
	}
	return r.err
}

// WaitAll waits for every request and returns the first error encountered.
// Requests are always all waited on, so buffers are safe to reuse afterwards
// unless the context was cancelled.
func WaitAll(ctx context.Context, reqs []*Request) error {
	var first error
	for _, r := range reqs {
		if err := r.Wait(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (c *Comm) commError(peer, tag int, format string, args ...any) error {
	return &sim.CommError{Rank: c.rank, Peer: peer, Tag: tag, Err: fmt.Errorf(format, args...)}
}

func (c *Comm) checkPeer(peer, tag int) error {
	if peer < 0 || peer >= c.world.size {
		return c.commError(peer, tag, "peer rank %d outside [0, %d)", peer, c.world.size)
	}
	return nil
}

// Isend starts sending a copy of data to dest. The caller may reuse data as
// soon as Isend returns; the request completes once the message is queued
// for delivery.
func (c *Comm) Isend(ctx context.Context, data []byte, dest, tag int) (*Request, error) {
	if tag < 0 {
		return nil, c.commError(dest, tag, "user tags must be non-negative")
	}
	if err := c.checkPeer(dest, tag); err != nil {
		return nil, err
	}
	if c.trace != nil {
		c.trace.RecordMessage(trace.MessageRecord{Step: c.step, From: c.rank, To: dest, Tag: tag, Bytes: len(data)})
	}
	return c.isend(ctx, data, dest, tag)
}

func (c *Comm) isend(ctx context.Context, data []byte, dest, tag int) (*Request, error) {
	if err := c.checkPeer(dest, tag); err != nil {
		return nil, err
	}
	msg := make([]byte, len(data))
	copy(msg, data)

	box := c.world.mailbox(c.rank, dest, tag)
	select {
	case box <- msg:
		return completed(nil), nil
	default:
	}

	// Mailbox full: deliver in the background so the caller can keep posting.
	delivered := make(chan error, 1)
	go func() {
		select {
		case box <- msg:
			delivered <- nil
		case <-ctx.Done():
			delivered <- ctx.Err()
		}
	}()
	return &Request{wait: func(ctx context.Context) error {
		select {
		case err := <-delivered:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}}, nil
}

// Irecv posts a receive of exactly len(buf) bytes from src. The buffer is
// filled when the request completes; an incoming message of any other length
// completes the request with a CommError.
func (c *Comm) Irecv(ctx context.Context, buf []byte, src, tag int) (*Request, error) {
	if tag < 0 {
		return nil, c.commError(src, tag, "user tags must be non-negative")
	}
	return c.irecv(buf, src, tag)
}

func (c *Comm) irecv(buf []byte, src, tag int) (*Request, error) {
	if err := c.checkPeer(src, tag); err != nil {
		return nil, err
	}
	box := c.world.mailbox(src, c.rank, tag)
	return &Request{wait: func(ctx context.Context) error {
		select {
		case msg := <-box:
			if len(msg) != len(buf) {
				return c.commError(src, tag, "message size mismatch: got %d bytes, want %d", len(msg), len(buf))
			}
			copy(buf, msg)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}}, nil
}

// Send is a blocking Isend.
func (c *Comm) Send(ctx context.Context, data []byte, dest, tag int) error {
	req, err := c.Isend(ctx, data, dest, tag)
	if err != nil {
		return err
	}
	return req.Wait(ctx)
}

// Recv is a blocking Irecv.
func (c *Comm) Recv(ctx context.Context, buf []byte, src, tag int) error {
	req, err := c.Irecv(ctx, buf, src, tag)
	if err != nil {
		return err
	}
	return req.Wait(ctx)
}
