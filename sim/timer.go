package sim

import "time"

// simTimer arms retransmission expiries on the harness event queue.
// Stopping marks the pending event canceled in place; the dispatch loop
// skips it when its time comes.
type simTimer struct {
	h       *Harness
	pending *event
}

func (t *simTimer) Start(d time.Duration) {
	if t.pending != nil && !t.pending.canceled {
		log.Warnf("timer start at %v while already running, keeping the earlier expiry", t.h.now)
		return
	}
	t.pending = t.h.schedule(&event{at: t.h.now + d, kind: evTimer})
}

func (t *simTimer) Stop() {
	if t.pending == nil || t.pending.canceled {
		log.Warnf("timer stop at %v while not running", t.h.now)
		t.pending = nil
		return
	}
	t.pending.canceled = true
	t.pending = nil
}

// fired clears the pending reference once the dispatch loop pops a live
// expiry, so the handler may re-arm.
func (t *simTimer) fired() {
	t.pending = nil
}
