package sim

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/tjohn327/selective_repeat_arq/arq"
)

// MessageTiming records when one accepted message entered the sender and
// when its payload came out of the receiver.
type MessageTiming struct {
	Index       int
	SubmittedAt time.Duration
	DeliveredAt time.Duration
	Delivered   bool
}

// Latency returns the virtual time the message spent in transit, zero
// while undelivered.
func (t MessageTiming) Latency() time.Duration {
	if !t.Delivered {
		return 0
	}
	return t.DeliveredAt - t.SubmittedAt
}

// Report summarizes one simulation run.
type Report struct {
	// Generated counts messages the traffic source produced, accepted
	// or not.
	Generated int

	// Accepted holds the payloads the sender took into its window, in
	// submission order.
	Accepted []arq.Payload

	// Delivered holds the payloads the receiver handed up, in delivery
	// order. A correct run ends with Delivered equal to Accepted.
	Delivered []arq.Payload

	// Timings holds one row per accepted message.
	Timings []MessageTiming

	Sender   arq.SenderStats
	Receiver arq.ReceiverStats
	Channel  ChannelStats

	// Elapsed is the virtual time of the last dispatched event.
	Elapsed time.Duration

	// Complete reports whether every accepted payload was delivered
	// before the time cap.
	Complete bool
}

// InOrder reports whether the delivered payloads form a prefix of the
// accepted ones. A complete run delivers the whole sequence; a truncated
// run may stop short, but must never reorder or invent a payload.
func (r *Report) InOrder() bool {
	if len(r.Delivered) > len(r.Accepted) {
		return false
	}
	for i, p := range r.Delivered {
		if p != r.Accepted[i] {
			return false
		}
	}
	return true
}

// MeanLatency averages the transit time of the delivered messages.
func (r *Report) MeanLatency() time.Duration {
	var total time.Duration
	n := 0
	for _, t := range r.Timings {
		if t.Delivered {
			total += t.Latency()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}

// WriteCSV dumps one row per accepted message: index, submission time,
// delivery time and latency, all in virtual seconds. Undelivered
// messages leave the last two columns empty.
func (r *Report) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "message,submitted_s,delivered_s,latency_s")
	for _, t := range r.Timings {
		if t.Delivered {
			fmt.Fprintf(bw, "%d,%.3f,%.3f,%.3f\n",
				t.Index, t.SubmittedAt.Seconds(), t.DeliveredAt.Seconds(), t.Latency().Seconds())
		} else {
			fmt.Fprintf(bw, "%d,%.3f,,\n", t.Index, t.SubmittedAt.Seconds())
		}
	}
	return errors.Wrap(bw.Flush(), "write csv")
}

// WriteCSVFile writes the timing rows to a fresh file at path.
func (r *Report) WriteCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create csv file")
	}
	defer f.Close()
	return r.WriteCSV(f)
}
