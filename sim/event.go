package sim

import (
	"time"

	"github.com/tjohn327/selective_repeat_arq/arq"
)

type eventKind uint8

const (
	evGenerate eventKind = iota // hand the next message to the sender
	evArrival                   // a packet reaches the far side of the channel
	evTimer                     // the retransmission timer expires
)

// direction of a packet in flight.
type direction uint8

const (
	aToB direction = iota // data, sender to receiver
	bToA                  // acks, receiver to sender
)

// event is one entry on the virtual timeline. Timer events are canceled
// in place rather than removed, so the heap never needs a search.
type event struct {
	at       time.Duration
	seq      int64
	kind     eventKind
	dir      direction
	pkt      arq.Packet
	canceled bool
}

// eventQueue is a min-heap ordered by time, with the insertion sequence
// breaking ties so simultaneous events dispatch in schedule order.
type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) {
	*q = append(*q, x.(*event))
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil // let the GC reclaim the entry
	*q = old[:n-1]
	return e
}
