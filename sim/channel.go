package sim

import (
	"math/rand"
	"time"

	"github.com/tjohn327/selective_repeat_arq/arq"
)

const (
	// transitBase is the minimum one-way transit time.
	transitBase = 1 * time.Second

	// transitSpread is the uniformly distributed extra transit time.
	transitSpread = 9 * time.Second
)

// ChannelStats counts what the medium did to traffic, both directions
// combined.
type ChannelStats struct {
	Sent      int
	Lost      int
	Corrupted int
}

// lossyChannel models the medium: it drops packets, corrupts survivors
// and assigns arrival times that keep each direction order-preserving. A
// packet is never scheduled to land before one sent earlier in the same
// direction.
type lossyChannel struct {
	rng         *rand.Rand
	lossProb    float64
	corruptProb float64
	last        [2]time.Duration // latest scheduled arrival per direction
	stats       ChannelStats
}

// send passes pkt into the medium at virtual time now. It returns the
// possibly corrupted packet and its arrival time, or ok false when the
// medium ate it.
func (c *lossyChannel) send(now time.Duration, dir direction, pkt arq.Packet) (arq.Packet, time.Duration, bool) {
	c.stats.Sent++
	if c.rng.Float64() < c.lossProb {
		c.stats.Lost++
		return arq.Packet{}, 0, false
	}
	if c.rng.Float64() < c.corruptProb {
		pkt = c.corrupt(pkt)
		c.stats.Corrupted++
	}

	base := c.last[dir]
	if now > base {
		base = now
	}
	at := base + transitBase + time.Duration(c.rng.Float64()*float64(transitSpread))
	c.last[dir] = at
	return pkt, at, true
}

// corrupt damages one field without touching the checksum: usually the
// first payload byte, sometimes the sequence or acknowledgment number.
func (c *lossyChannel) corrupt(pkt arq.Packet) arq.Packet {
	x := c.rng.Float64()
	switch {
	case x < 0.75:
		pkt.Payload[0] = 'Z'
	case x < 0.875:
		pkt.SeqNum = 999999
	default:
		pkt.AckNum = 999999
	}
	return pkt
}
