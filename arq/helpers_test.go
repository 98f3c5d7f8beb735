package arq

import "time"

// recordChannel captures every packet sent through it.
type recordChannel struct {
	sent []Packet
}

func (c *recordChannel) Send(p Packet) { c.sent = append(c.sent, p) }

// recordTimer tracks start and stop calls without a clock behind it.
type recordTimer struct {
	running bool
	starts  int
	stops   int
	last    time.Duration
}

func (t *recordTimer) Start(d time.Duration) {
	t.running = true
	t.starts++
	t.last = d
}

func (t *recordTimer) Stop() {
	t.running = false
	t.stops++
}

// recordApp captures delivered payloads in order.
type recordApp struct {
	delivered []Payload
}

func (a *recordApp) Deliver(p Payload) { a.delivered = append(a.delivered, p) }

func payloadOf(b byte) Payload {
	var p Payload
	for i := range p {
		p[i] = b
	}
	return p
}

func dataPacket(seq int, fill byte) Packet {
	pkt := Packet{SeqNum: seq, AckNum: NotInUse, Payload: payloadOf(fill)}
	pkt.Checksum = pkt.ComputeChecksum()
	return pkt
}
