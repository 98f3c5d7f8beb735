// Package arq implements a Selective-Repeat ARQ transport core: a sender
// that frames application messages into sequence-numbered packets and
// retransmits on timeout, and a receiver that buffers out-of-order
// arrivals and delivers payloads upward in strict sequence order.
//
// The package is transport agnostic. Both endpoints reach the outside
// world only through the Channel, Deliverer and Timer interfaces, so the
// same state machines run over the sim package's event-driven channel
// model or the transport package's UDP sockets. Every entry point must be
// invoked serially by the embedding collaborator; the core holds no locks
// and spawns no goroutines.
package arq

import (
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"
)

var log = logging.Logger("arq")

const (
	// PayloadSize is the fixed length of every application payload.
	PayloadSize = 20

	// NotInUse fills the seqnum of pure ACKs and the acknum of data
	// packets. It lies outside the valid sequence range.
	NotInUse = -1
)

// ErrWindowFull is returned by Sender.Submit while the window already
// holds WindowSize outstanding packets. The rejected message is not
// queued; backpressure is synchronous.
var ErrWindowFull = errors.New("send window full")

// Params fixes the protocol constants for one session. Sender and
// receiver of a session must agree on them.
type Params struct {
	// WindowSize is the maximum number of unacknowledged packets the
	// sender may have outstanding.
	WindowSize int

	// SeqSpace is the size of the sequence-number ring. It must be at
	// least twice the window size so a late duplicate from the previous
	// cycle can never pass for a current-cycle packet.
	SeqSpace int

	// RTT is the retransmission timer length.
	RTT time.Duration
}

// DefaultParams returns the classic configuration: window 6, sequence
// space 12, 16 time units of timeout with one unit represented as a
// second.
func DefaultParams() Params {
	return Params{WindowSize: 6, SeqSpace: 12, RTT: 16 * time.Second}
}

func (p Params) validate() error {
	if p.WindowSize < 1 {
		return errors.Errorf("window size must be at least 1, got %d", p.WindowSize)
	}
	if p.SeqSpace < 2*p.WindowSize {
		return errors.Errorf("sequence space %d too small for window %d: need at least twice the window size",
			p.SeqSpace, p.WindowSize)
	}
	if p.RTT <= 0 {
		return errors.Errorf("retransmission timeout must be positive, got %v", p.RTT)
	}
	return nil
}

// Channel carries packets toward the peer endpoint. Implementations may
// delay, corrupt or drop what they are handed, but must preserve the
// order of packets sent in one direction.
type Channel interface {
	Send(Packet)
}

// ChannelFunc adapts a function to the Channel interface.
type ChannelFunc func(Packet)

func (f ChannelFunc) Send(p Packet) { f(p) }

// Deliverer accepts reassembled payloads from the receiver, in sequence
// order with no gaps and no repeats.
type Deliverer interface {
	Deliver(Payload)
}

// DeliverFunc adapts a function to the Deliverer interface.
type DeliverFunc func(Payload)

func (f DeliverFunc) Deliver(p Payload) { f(p) }

// Timer is the sender's single retransmission timer. The sender starts it
// only when no timer is running (window was empty, or right after a stop
// during a window slide), so implementations need not support restart
// semantics on Start.
type Timer interface {
	Start(time.Duration)
	Stop()
}
