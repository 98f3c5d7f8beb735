package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

// countedTimer wires a mock-driven timer to a fire counter. The expiry
// callback runs under the returned mutex on another goroutine, so reads
// of the counter go through the returned getter, which takes the same
// lock.
func countedTimer(mock *clock.Mock) (*Timer, *sync.Mutex, func() int) {
	var mu sync.Mutex
	fired := 0
	tm := NewTimer(&mu, mock, func() { fired++ })
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return fired
	}
	return tm, &mu, count
}

func TestTimerFiresAtDeadline(t *testing.T) {
	mock := clock.NewMock()
	tm, mu, count := countedTimer(mock)

	mu.Lock()
	tm.Start(100 * time.Millisecond)
	mu.Unlock()

	mock.Add(99 * time.Millisecond)
	assert.Equal(t, 0, count())
	mock.Add(time.Millisecond)
	assert.Equal(t, 1, count())

	// One-shot: nothing further without a restart.
	mock.Add(time.Second)
	assert.Equal(t, 1, count())
}

func TestTimerStopPreventsFire(t *testing.T) {
	mock := clock.NewMock()
	tm, mu, count := countedTimer(mock)

	mu.Lock()
	tm.Start(100 * time.Millisecond)
	tm.Stop()
	mu.Unlock()

	mock.Add(time.Second)
	assert.Equal(t, 0, count())
}

func TestTimerRestartSupersedes(t *testing.T) {
	mock := clock.NewMock()
	tm, mu, count := countedTimer(mock)

	mu.Lock()
	tm.Start(100 * time.Millisecond)
	tm.Stop()
	tm.Start(50 * time.Millisecond)
	mu.Unlock()

	mock.Add(50 * time.Millisecond)
	assert.Equal(t, 1, count())
	mock.Add(100 * time.Millisecond)
	assert.Equal(t, 1, count())
}

func TestTimerRearmsFromItsOwnExpiry(t *testing.T) {
	var mu sync.Mutex
	mock := clock.NewMock()
	fired := 0

	// The expiry handler restarts the timer the way the protocol core
	// does after a retransmission: it already holds the mutex. Counter
	// reads below take the same lock.
	var tm *Timer
	tm = NewTimer(&mu, mock, func() {
		fired++
		tm.Start(100 * time.Millisecond)
	})
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return fired
	}

	mu.Lock()
	tm.Start(100 * time.Millisecond)
	mu.Unlock()

	mock.Add(100 * time.Millisecond)
	assert.Equal(t, 1, count())
	mock.Add(100 * time.Millisecond)
	assert.Equal(t, 2, count())
	mock.Add(200 * time.Millisecond)
	assert.Equal(t, 4, count())
}
