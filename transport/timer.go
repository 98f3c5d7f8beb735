package transport

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Timer arms the sender's retransmission timeout on a real clock. The
// expiry callback takes the shared endpoint mutex before running, so it
// is serialized with every other protocol entry point; a generation
// counter discards expiries that lost the race against a Stop or a newer
// Start while waiting for that lock.
//
// Start and Stop must be called with the endpoint mutex held, which the
// protocol core guarantees since it runs under it.
type Timer struct {
	mu   *sync.Mutex
	clk  clock.Clock
	fire func()

	gen   uint64
	inner *clock.Timer
}

// NewTimer builds a timer whose expiries run fire under mu.
func NewTimer(mu *sync.Mutex, clk clock.Clock, fire func()) *Timer {
	return &Timer{mu: mu, clk: clk, fire: fire}
}

func (t *Timer) Start(d time.Duration) {
	t.gen++
	gen := t.gen
	t.inner = t.clk.AfterFunc(d, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if gen != t.gen {
			return // superseded while waiting for the lock
		}
		t.fire()
	})
}

func (t *Timer) Stop() {
	t.gen++
	if t.inner != nil {
		t.inner.Stop()
		t.inner = nil
	}
}
