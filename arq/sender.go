package arq

import "github.com/pkg/errors"

type sendState uint8

const (
	sendEmpty sendState = iota
	sendPending
	sendAcked
)

// sendSlot holds one outstanding packet together with its acknowledgment
// state. Keeping the mark on the slot rather than in a table indexed by
// sequence number means a slid-out slot leaves nothing behind to confuse
// the next trip around the sequence ring.
type sendSlot struct {
	pkt   Packet
	state sendState
}

// SenderStats counts protocol events at the sender. All counters are
// cumulative since the last Reset.
type SenderStats struct {
	// MessagesAccepted counts messages taken into the window and sent.
	MessagesAccepted int

	// WindowFull counts messages rejected because the window was full.
	WindowFull int

	// PacketsSent counts data transmissions handed to the channel,
	// originals and retransmissions alike.
	PacketsSent int

	// Retransmits counts timeout-driven resends.
	Retransmits int

	// NewAcks counts ACKs that acknowledged an outstanding packet for
	// the first time.
	NewAcks int

	// DuplicateAcks counts well-formed ACKs that carried no new
	// information.
	DuplicateAcks int

	// CorruptAcks counts ACKs discarded on checksum failure.
	CorruptAcks int
}

// Sender is the sending half of a Selective-Repeat session. It owns a
// ring of WindowSize slots, a monotonically wrapping sequence counter and
// one retransmission timer tracking the oldest unacknowledged packet.
//
// Methods must be called serially; see the package comment.
type Sender struct {
	params Params
	ch     Channel
	timer  Timer

	window  []sendSlot
	first   int // ring index of the oldest outstanding packet
	count   int // outstanding packets, acknowledged-but-not-slid included
	nextSeq int

	stats SenderStats
}

// NewSender validates params and returns a sender in its initial state.
// Outbound packets go to ch; timer is armed against params.RTT while any
// packet is outstanding.
func NewSender(params Params, ch Channel, timer Timer) (*Sender, error) {
	if err := params.validate(); err != nil {
		return nil, errors.Wrap(err, "sender params")
	}
	if ch == nil || timer == nil {
		return nil, errors.New("sender needs a channel and a timer")
	}
	s := &Sender{params: params, ch: ch, timer: timer}
	s.Reset()
	return s, nil
}

// Reset returns the sender to its initial state: sequence zero, empty
// window, zeroed counters. It assumes the timer is idle and does not
// touch it.
func (s *Sender) Reset() {
	s.window = make([]sendSlot, s.params.WindowSize)
	s.first = 0
	s.count = 0
	s.nextSeq = 0
	s.stats = SenderStats{}
}

// Submit frames one application message and hands the packet to the
// channel. While the window is full the message is rejected with
// ErrWindowFull; the rejection is counted and the message is not queued,
// so the caller decides whether to retry.
func (s *Sender) Submit(m Message) error {
	if s.count == s.params.WindowSize {
		s.stats.WindowFull++
		log.Debugf("window full, rejecting message")
		return ErrWindowFull
	}

	pkt := Packet{SeqNum: s.nextSeq, AckNum: NotInUse, Payload: m.Data}
	pkt.Checksum = pkt.ComputeChecksum()

	s.window[(s.first+s.count)%s.params.WindowSize] = sendSlot{pkt: pkt, state: sendPending}
	s.count++
	s.stats.MessagesAccepted++

	log.Debugf("sending packet %d", pkt.SeqNum)
	s.ch.Send(pkt)
	s.stats.PacketsSent++

	// A lone outstanding packet means no timer was running.
	if s.count == 1 {
		s.timer.Start(s.params.RTT)
	}
	s.nextSeq = (s.nextSeq + 1) % s.params.SeqSpace
	return nil
}

// HandleAck processes one acknowledgment from the channel. Corrupt ACKs
// carry no trustworthy information and are dropped; the timeout path
// recovers the loss. A duplicate, whether for an already-marked slot or
// for a packet that has long slid out, changes nothing.
func (s *Sender) HandleAck(pkt Packet) {
	if pkt.Corrupted() {
		s.stats.CorruptAcks++
		log.Debugf("corrupted ACK, dropping")
		return
	}

	idx, ok := s.pendingSlot(pkt.AckNum)
	if !ok {
		s.stats.DuplicateAcks++
		log.Debugf("duplicate ACK %d", pkt.AckNum)
		return
	}

	s.window[idx].state = sendAcked
	s.stats.NewAcks++
	log.Debugf("new ACK %d", pkt.AckNum)

	if idx != s.first {
		return
	}

	// The oldest packet is acknowledged: slide over the contiguous
	// acknowledged run, clearing each slot on the way out.
	for s.count > 0 && s.window[s.first].state == sendAcked {
		s.window[s.first] = sendSlot{}
		s.first = (s.first + 1) % s.params.WindowSize
		s.count--
	}

	// Re-arm against the new oldest outstanding packet, if any.
	s.timer.Stop()
	if s.count > 0 {
		s.timer.Start(s.params.RTT)
	}
}

// pendingSlot locates the window slot holding seq unacknowledged.
func (s *Sender) pendingSlot(seq int) (int, bool) {
	for i := 0; i < s.count; i++ {
		idx := (s.first + i) % s.params.WindowSize
		if s.window[idx].pkt.SeqNum == seq && s.window[idx].state == sendPending {
			return idx, true
		}
	}
	return 0, false
}

// HandleTimeout resends the packet at the window head and re-arms the
// timer. Only the oldest packet goes out per expiry; anything else still
// missing gets its turn once it reaches the head.
func (s *Sender) HandleTimeout() {
	if s.count == 0 {
		log.Warnf("timeout with empty window")
		return
	}
	pkt := s.window[s.first].pkt
	log.Debugf("timeout, resending packet %d", pkt.SeqNum)
	s.ch.Send(pkt)
	s.stats.Retransmits++
	s.stats.PacketsSent++
	s.timer.Start(s.params.RTT)
}

// Outstanding returns the number of packets sent but not yet slid out of
// the window. Packets acknowledged out of order keep counting until the
// window head catches up with them.
func (s *Sender) Outstanding() int { return s.count }

// NextSeq returns the sequence number the next accepted message will
// carry.
func (s *Sender) NextSeq() int { return s.nextSeq }

// Stats returns a copy of the sender's counters.
func (s *Sender) Stats() SenderStats { return s.stats }
