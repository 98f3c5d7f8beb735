package sim

import (
	"container/heap"
	"math/rand"
	"time"

	"github.com/tjohn327/selective_repeat_arq/arq"
)

// Harness wires one sender and one receiver back to back through the
// simulated channel and drives them from a single-threaded event loop.
// All randomness comes from one seeded source, so a run is reproducible
// from its Config alone.
type Harness struct {
	cfg     Config
	rng     *rand.Rand
	now     time.Duration
	nextID  int64
	events  eventQueue
	channel *lossyChannel
	timer   *simTimer

	sender   *arq.Sender
	receiver *arq.Receiver

	generated int
	accepted  []arq.Payload
	delivered []arq.Payload
	timings   []MessageTiming
	truncated bool
}

// New validates cfg and assembles a harness ready to Run.
func New(cfg Config) (*Harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &Harness{cfg: cfg}
	h.rng = rand.New(rand.NewSource(cfg.Seed))
	h.channel = &lossyChannel{
		rng:         h.rng,
		lossProb:    cfg.LossProb,
		corruptProb: cfg.CorruptProb,
	}
	h.timer = &simTimer{h: h}

	var err error
	h.sender, err = arq.NewSender(cfg.params(), arq.ChannelFunc(func(pkt arq.Packet) {
		h.transmit(aToB, pkt)
	}), h.timer)
	if err != nil {
		return nil, err
	}
	h.receiver, err = arq.NewReceiver(cfg.params(), arq.ChannelFunc(func(pkt arq.Packet) {
		h.transmit(bToA, pkt)
	}), arq.DeliverFunc(h.deliver))
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Run plays the whole timeline and reports on it. The loop ends when the
// event queue drains, which happens once every accepted message is
// delivered and acknowledged, or when virtual time passes the configured
// cap.
func (h *Harness) Run() *Report {
	h.scheduleNextMessage()
	for h.events.Len() > 0 {
		e := heap.Pop(&h.events).(*event)
		if e.canceled {
			continue
		}
		if e.at > h.cfg.MaxTime.Duration {
			log.Warnf("run truncated at virtual time cap %v", h.cfg.MaxTime.Duration)
			h.truncated = true
			break
		}
		h.now = e.at

		switch e.kind {
		case evGenerate:
			h.generateMessage()
		case evArrival:
			if e.dir == aToB {
				h.receiver.HandlePacket(e.pkt)
			} else {
				h.sender.HandleAck(e.pkt)
			}
		case evTimer:
			h.timer.fired()
			h.sender.HandleTimeout()
		}
	}
	return h.report()
}

// schedule stamps e with its insertion sequence and queues it.
func (h *Harness) schedule(e *event) *event {
	e.seq = h.nextID
	h.nextID++
	heap.Push(&h.events, e)
	return e
}

// transmit pushes a packet into the channel model and queues its arrival
// unless the channel lost it.
func (h *Harness) transmit(dir direction, pkt arq.Packet) {
	out, at, ok := h.channel.send(h.now, dir, pkt)
	if !ok {
		log.Debugf("channel lost packet (seq %d ack %d)", pkt.SeqNum, pkt.AckNum)
		return
	}
	h.schedule(&event{at: at, kind: evArrival, dir: dir, pkt: out})
}

// scheduleNextMessage queues the next traffic arrival, uniformly spread
// around the configured mean.
func (h *Harness) scheduleNextMessage() {
	if h.generated >= h.cfg.Messages {
		return
	}
	gap := time.Duration(h.rng.Float64() * 2 * float64(h.cfg.MeanInterarrival.Duration))
	h.schedule(&event{at: h.now + gap, kind: evGenerate})
}

// generateMessage offers one message to the sender. Payloads cycle
// through the alphabet so a misdelivery is visible in the report. A
// rejection is final for that message; the generator does not retry.
func (h *Harness) generateMessage() {
	var p arq.Payload
	fill := byte('a' + h.generated%26)
	for i := range p {
		p[i] = fill
	}
	h.generated++
	h.scheduleNextMessage()

	if err := h.sender.Submit(arq.Message{Data: p}); err != nil {
		log.Debugf("message %d rejected: %v", h.generated-1, err)
		return
	}
	h.accepted = append(h.accepted, p)
	h.timings = append(h.timings, MessageTiming{
		Index:       len(h.accepted) - 1,
		SubmittedAt: h.now,
	})
}

// deliver records one payload coming out of the receiver and closes the
// timing row it completes.
func (h *Harness) deliver(p arq.Payload) {
	h.delivered = append(h.delivered, p)
	if i := len(h.delivered) - 1; i < len(h.timings) {
		h.timings[i].DeliveredAt = h.now
		h.timings[i].Delivered = true
	}
}

func (h *Harness) report() *Report {
	return &Report{
		Generated: h.generated,
		Accepted:  h.accepted,
		Delivered: h.delivered,
		Timings:   h.timings,
		Sender:    h.sender.Stats(),
		Receiver:  h.receiver.Stats(),
		Channel:   h.channel.stats,
		Elapsed:   h.now,
		Complete:  !h.truncated && len(h.delivered) == len(h.accepted),
	}
}
