// Package transport implements the inter-policy-domain message
// transport: every policy domain's Endpoint owns one or more named
// inbound slotqueue.Queues and a set of peers it can send to. Because
// every policy domain in this runtime lives in the same process, an
// outbound "connection" to a peer is simply a pointer to that peer's
// inbound queue — the same sharing the teacher's CE-pthread comm
// platform relies on within one node.
//
// Two features exist solely to avoid deadlock between peers that both
// want to talk to each other at once: splitting inbound traffic across
// two independently-polled queues (so a response from a peer one is
// still waiting on for a different request can't be blocked behind
// that peer's own unrelated requests), and pre-reserving the slot a
// response will eventually occupy before the request that provokes it
// is even sent.
package transport

import (
	"fmt"

	"github.com/open-edt/edtrt"
	"github.com/open-edt/edtrt/slotqueue"
)

// Kind distinguishes the three message shapes the transport carries.
type Kind int

const (
	// OneWay carries no response obligation.
	OneWay Kind = iota
	// Request is a message that requires a Response back to its
	// sender before the sender considers the exchange complete.
	Request
	// Response answers a specific Request, reusing the slot the
	// requester pre-reserved for it.
	Response
)

func (k Kind) String() string {
	switch k {
	case Request:
		return "request"
	case Response:
		return "response"
	default:
		return "one-way"
	}
}

// Properties are per-message flags separate from Kind: Persist
// affects how the payload's lifetime is managed by the caller (kept
// here for symmetry with the original comm platform's
// COMQUEUE_FREE_PTR bookkeeping; this transport's payload is a plain
// Go value so no explicit free is needed, but TwoWay still needs
// validating on every Request).
type Properties uint8

const (
	// PropTwoWay marks a Request that expects a Response. Combined
	// with Kind, catches a caller declaring a Response as two-way
	// (meaningless: a Response doesn't itself expect a further reply)
	// or an OneWay message marked two-way.
	PropTwoWay Properties = 1 << iota
)

// Validate rejects a Kind/Properties combination that can't occur on
// the wire: only a Request may carry PropTwoWay, and every Request
// must carry it (a Request with no expected answer is just OneWay).
func (p Properties) Validate(k Kind) error {
	twoWay := p&PropTwoWay != 0
	switch k {
	case Request:
		if !twoWay {
			return fmt.Errorf("%w: Request must set PropTwoWay", edtrt.ErrEINVAL)
		}
	case Response, OneWay:
		if twoWay {
			return fmt.Errorf("%w: %s cannot set PropTwoWay", edtrt.ErrEINVAL, k)
		}
	}
	return nil
}

// responseHandle names the exact slot a Response must land in: the
// requester's own inbound queue and the slot it pre-reserved there.
// Embedding this in the outgoing Request (mirroring msgId in the
// original comm platform) lets the eventual responder skip Reserve
// entirely and Validate directly into a slot it doesn't own.
type responseHandle struct {
	queue *slotqueue.Queue
	slot  uint32
}

// Message is one unit of transport traffic.
type Message struct {
	Kind       Kind
	Properties Properties
	Source     string
	Target     string
	Payload    any

	response *responseHandle
}

// Peer describes one destination Endpoint.Send can reach: its
// inbound queue (shared directly, since sender and peer share a
// process), and which of the sender's own named inbound queue classes
// should hold a Response coming back from it.
type Peer struct {
	Name          string
	Queue         *slotqueue.Queue
	ResponseClass string
}
