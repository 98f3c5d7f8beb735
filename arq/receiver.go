package arq

import "github.com/pkg/errors"

type recvState uint8

const (
	recvFree recvState = iota
	recvBuffered
)

type recvSlot struct {
	payload Payload
	state   recvState
}

// ReceiverStats counts protocol events at the receiver. All counters are
// cumulative since the last Reset.
type ReceiverStats struct {
	// PacketsReceived counts arrivals that passed the checksum and
	// carried an in-range sequence number, duplicates included.
	PacketsReceived int

	// Corrupt counts arrivals dropped on checksum failure.
	Corrupt int

	// Invalid counts arrivals whose sequence number lies outside the
	// sequence space entirely.
	Invalid int

	// Buffered counts payloads stored into the reassembly buffer.
	Buffered int

	// Duplicates counts packets acknowledged again without buffering.
	Duplicates int

	// OutOfRange counts packets in neither the receive window nor the
	// re-acknowledgment zone below it.
	OutOfRange int

	// Delivered counts payloads handed to the application.
	Delivered int

	// AcksSent counts acknowledgment packets emitted.
	AcksSent int
}

// Receiver is the receiving half of a Selective-Repeat session. It
// buffers packets landing inside the receive window, acknowledges every
// acceptable packet individually and delivers payloads upward the moment
// the run starting at the expected sequence number is contiguous.
//
// Methods must be called serially; see the package comment.
type Receiver struct {
	params   Params
	ch       Channel
	app      Deliverer
	expected int
	slots    []recvSlot
	stats    ReceiverStats
}

// NewReceiver validates params and returns a receiver in its initial
// state. ACKs go to ch; reassembled payloads go to app.
func NewReceiver(params Params, ch Channel, app Deliverer) (*Receiver, error) {
	if err := params.validate(); err != nil {
		return nil, errors.Wrap(err, "receiver params")
	}
	if ch == nil || app == nil {
		return nil, errors.New("receiver needs a channel and a deliverer")
	}
	r := &Receiver{params: params, ch: ch, app: app}
	r.Reset()
	return r, nil
}

// Reset returns the receiver to its initial state: expecting sequence
// zero, every buffer slot free, zeroed counters.
func (r *Receiver) Reset() {
	r.expected = 0
	r.slots = make([]recvSlot, r.params.SeqSpace)
	r.stats = ReceiverStats{}
}

// HandlePacket processes one data packet from the channel. The sequence
// space splits into three zones relative to the expected sequence number:
// the receive window ahead of it, where packets are buffered and
// acknowledged; the window-sized stretch just below it, whose packets
// were already delivered and are only acknowledged again in case the
// first ACK was lost; and the rest, which an order-preserving channel
// never produces and which is dropped without acknowledgment.
//
// Packets in the below-window zone must not touch the buffer: their slot
// may already hold a fresh payload for the next trip around the ring, and
// re-buffering a stale copy would hand the application old data.
func (r *Receiver) HandlePacket(pkt Packet) {
	if pkt.Corrupted() {
		r.stats.Corrupt++
		log.Debugf("corrupted packet, dropping")
		return
	}
	if pkt.SeqNum < 0 || pkt.SeqNum >= r.params.SeqSpace {
		r.stats.Invalid++
		log.Debugf("packet %d outside sequence space, dropping", pkt.SeqNum)
		return
	}
	r.stats.PacketsReceived++

	dist := (pkt.SeqNum - r.expected + r.params.SeqSpace) % r.params.SeqSpace
	switch {
	case dist < r.params.WindowSize:
		if r.slots[pkt.SeqNum].state == recvFree {
			r.slots[pkt.SeqNum] = recvSlot{payload: pkt.Payload, state: recvBuffered}
			r.stats.Buffered++
			log.Debugf("buffered packet %d", pkt.SeqNum)
		} else {
			r.stats.Duplicates++
			log.Debugf("duplicate packet %d in window", pkt.SeqNum)
		}
		r.drain()
	case r.params.SeqSpace-dist <= r.params.WindowSize:
		r.stats.Duplicates++
		log.Debugf("packet %d below window, acknowledging again", pkt.SeqNum)
	default:
		r.stats.OutOfRange++
		log.Warnf("packet %d outside both window zones (expecting %d), dropping", pkt.SeqNum, r.expected)
		return
	}

	r.ch.Send(newAck(pkt.SeqNum))
	r.stats.AcksSent++
}

// drain delivers the contiguous buffered run starting at the expected
// sequence number, freeing each slot as its payload goes up.
func (r *Receiver) drain() {
	for r.slots[r.expected].state == recvBuffered {
		r.app.Deliver(r.slots[r.expected].payload)
		r.slots[r.expected] = recvSlot{}
		r.expected = (r.expected + 1) % r.params.SeqSpace
		r.stats.Delivered++
	}
}

// Expected returns the sequence number the next delivery is waiting on.
func (r *Receiver) Expected() int { return r.expected }

// Stats returns a copy of the receiver's counters.
func (r *Receiver) Stats() ReceiverStats { return r.stats }
