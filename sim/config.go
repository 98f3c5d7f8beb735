// Package sim drives a Selective-Repeat session through a discrete-event
// simulation: virtual time, a bidirectional channel model with loss,
// corruption and per-direction order preservation, and a traffic
// generator feeding the sender. Nothing in here sleeps; a multi-hour
// virtual run finishes in milliseconds.
package sim

import (
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"

	"github.com/tjohn327/selective_repeat_arq/arq"
)

var log = logging.Logger("sim")

// Duration wraps time.Duration so TOML duration strings like "16s"
// decode directly into config fields.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Config describes one simulation run.
type Config struct {
	WindowSize       int      `toml:"window_size"`
	SeqSpace         int      `toml:"seq_space"`
	RTT              Duration `toml:"rtt"`
	LossProb         float64  `toml:"loss_prob"`
	CorruptProb      float64  `toml:"corrupt_prob"`
	MeanInterarrival Duration `toml:"mean_interarrival"`
	Messages         int      `toml:"messages"`
	Seed             int64    `toml:"seed"`
	MaxTime          Duration `toml:"max_time"`
}

// DefaultConfig returns a lossless run with the classic protocol
// constants and a modest amount of traffic.
func DefaultConfig() Config {
	return Config{
		WindowSize:       6,
		SeqSpace:         12,
		RTT:              Duration{16 * time.Second},
		MeanInterarrival: Duration{10 * time.Second},
		Messages:         20,
		Seed:             1,
	}
}

// defaultMaxTime caps runs that can never finish, such as a channel
// configured to lose everything. Virtual time is free, so the cap is
// generous.
const defaultMaxTime = 1000000 * time.Second

// Validate bounds-checks the channel and traffic settings and fills in
// the time cap when none is given. Protocol constants are checked again
// by the arq constructors.
func (c *Config) Validate() error {
	if c.LossProb < 0 || c.LossProb > 1 {
		return errors.Errorf("loss probability must be within [0,1], got %v", c.LossProb)
	}
	if c.CorruptProb < 0 || c.CorruptProb > 1 {
		return errors.Errorf("corruption probability must be within [0,1], got %v", c.CorruptProb)
	}
	if c.MeanInterarrival.Duration <= 0 {
		return errors.Errorf("mean interarrival must be positive, got %v", c.MeanInterarrival.Duration)
	}
	if c.Messages < 0 {
		return errors.Errorf("message count must not be negative, got %d", c.Messages)
	}
	if c.MaxTime.Duration < 0 {
		return errors.Errorf("max time must not be negative, got %v", c.MaxTime.Duration)
	}
	if c.MaxTime.Duration == 0 {
		c.MaxTime = Duration{defaultMaxTime}
	}
	return nil
}

func (c Config) params() arq.Params {
	return arq.Params{
		WindowSize: c.WindowSize,
		SeqSpace:   c.SeqSpace,
		RTT:        c.RTT.Duration,
	}
}
