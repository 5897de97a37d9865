package transport

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/open-edt/edtrt"
	"github.com/open-edt/edtrt/slotqueue"
)

// Endpoint is one policy domain's side of the transport: a set of
// named inbound queues it polls (weighted round-robin across them, so
// no inbound class can starve another) and a set of outbound peers it
// can Send to.
type Endpoint struct {
	mu sync.Mutex

	name    string
	inbound map[string]*slotqueue.Queue
	peers   map[string]Peer

	pollOrder []string // precomputed weighted sequence
	pollIdx   int
}

// NewEndpoint creates an Endpoint named name, with one inbound queue
// per (className, depth) pair in inbound and weighted poll shares per
// weights. A class present in inbound but absent from weights gets a
// default weight of 1. The weighted sequence is built once at
// construction, matching the comm platform's fixed INQUEUE_POLL_COUNT
// / INQUEUECE_POLL_COUNT ratio rather than something recomputed every
// poll.
func NewEndpoint(name string, inbound map[string]uint32, weights map[string]int) *Endpoint {
	e := &Endpoint{
		name:    name,
		inbound: make(map[string]*slotqueue.Queue, len(inbound)),
		peers:   make(map[string]Peer),
	}
	for class, depth := range inbound {
		e.inbound[class] = slotqueue.New(depth)
	}

	var classes []string
	for class := range inbound {
		classes = append(classes, class)
	}
	sort.Strings(classes) // deterministic poll order across runs

	for _, class := range classes {
		w := weights[class]
		if w <= 0 {
			w = 1
		}
		for i := 0; i < w; i++ {
			e.pollOrder = append(e.pollOrder, class)
		}
	}
	return e
}

// Name returns the endpoint's identifier.
func (e *Endpoint) Name() string { return e.name }

// InboundQueue exposes a named inbound queue, primarily so peers can
// be registered with AddPeer pointing directly at it.
func (e *Endpoint) InboundQueue(class string) (*slotqueue.Queue, bool) {
	q, ok := e.inbound[class]
	return q, ok
}

// AddPeer registers a destination reachable from this endpoint.
func (e *Endpoint) AddPeer(p Peer) error {
	if p.Queue == nil {
		return fmt.Errorf("%w: peer %s has a nil queue", edtrt.ErrEINVAL, p.Name)
	}
	if _, ok := e.inbound[p.ResponseClass]; !ok {
		return fmt.Errorf("%w: peer %s names unknown response class %q", edtrt.ErrEINVAL, p.Name, p.ResponseClass)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.peers[p.Name] = p
	return nil
}

// Send delivers msg to its Target. A two-way Request first
// pre-reserves a slot on this endpoint's own inbound queue of the
// peer's response class, so the eventual Response is guaranteed a landing spot
// regardless of what else arrives in the meantime; this is what
// prevents two endpoints that request of each other simultaneously
// from deadlocking each other's only inbound slot. A Response instead
// reuses the slot its originating Request pre-reserved, skipping
// Reserve entirely.
//
// Returns edtrt.ErrENOMEM if a queue involved has no capacity at all,
// edtrt.ErrEBUSY if it's transiently full (retry later).
func (e *Endpoint) Send(msg *Message) error {
	if err := msg.Properties.Validate(msg.Kind); err != nil {
		return err
	}

	e.mu.Lock()
	peer, ok := e.peers[msg.Target]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: no peer named %q", edtrt.ErrEINVAL, msg.Target)
	}

	if msg.Kind == Response {
		if msg.response == nil {
			return fmt.Errorf("%w: Response carries no pre-reserved slot", edtrt.ErrEINVAL)
		}
		return msg.response.queue.Validate(msg.response.slot, msg)
	}

	var reserved *responseHandle
	if msg.Properties&PropTwoWay != 0 {
		respQueue := e.inbound[peer.ResponseClass]
		slot, err := respQueue.Reserve()
		if err == edtrt.ErrEAGAIN {
			return edtrt.ErrEBUSY
		}
		if err != nil {
			return err
		}
		reserved = &responseHandle{queue: respQueue, slot: slot}
	}

	outSlot, err := peer.Queue.Reserve()
	if err != nil {
		if reserved != nil {
			_ = reserved.queue.Unreserve(reserved.slot)
		}
		if err == edtrt.ErrEAGAIN {
			return edtrt.ErrEBUSY
		}
		return err
	}

	msg.response = reserved
	return peer.Queue.Validate(outSlot, msg)
}

// Poll checks one round of the weighted inbound sequence for a
// message, starting at the poll cursor and returning the first message
// found, and advances the cursor exactly one step per call regardless
// of whether a message was found — matching the original platform's
// curPollCount, which only advances the class selector, not the read
// position within a class (slotqueue.Queue tracks that itself).
// Returns edtrt.ErrEAGAIN if nothing was available this round.
func (e *Endpoint) Poll() (*Message, error) {
	if len(e.pollOrder) == 0 {
		return nil, edtrt.ErrENOMEM
	}

	e.mu.Lock()
	start := e.pollIdx
	e.pollIdx = (e.pollIdx + 1) % len(e.pollOrder)
	e.mu.Unlock()

	for i := 0; i < len(e.pollOrder); i++ {
		class := e.pollOrder[(start+i)%len(e.pollOrder)]
		q := e.inbound[class]
		slot, payload, err := q.Read()
		if err == edtrt.ErrEAGAIN {
			continue
		}
		if err != nil {
			return nil, err
		}
		msg, ok := payload.(*Message)
		if !ok {
			_ = q.Empty(slot)
			return nil, fmt.Errorf("%w: queue %q held a non-Message payload", edtrt.ErrEINVAL, class)
		}
		if err := q.Empty(slot); err != nil {
			return nil, err
		}
		return msg, nil
	}
	return nil, edtrt.ErrEAGAIN
}

// Wait blocks, polling every inbound class in turn, until a message
// arrives or ctx is cancelled.
func (e *Endpoint) Wait(ctx context.Context) (*Message, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		msg, err := e.Poll()
		if err == nil {
			return msg, nil
		}
		if err != edtrt.ErrEAGAIN {
			return nil, err
		}
	}
}
