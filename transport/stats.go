package transport

import "sync"

// RateTracker keeps a sliding window of recent samples. The sender
// endpoint feeds it the number of retransmissions spent per acknowledged
// packet; the average gives a cheap recent-loss signal for the metrics
// exporter.
type RateTracker struct {
	samples []float64
	length  int
	mutex   sync.Mutex
}

// NewRateTracker returns a tracker remembering the last length samples.
func NewRateTracker(length int) *RateTracker {
	if length < 1 {
		length = 1
	}
	return &RateTracker{
		samples: make([]float64, 0, length),
		length:  length,
	}
}

// Insert records one sample, evicting the oldest once the window is full.
func (s *RateTracker) Insert(v float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.samples = append(s.samples, v)
	if len(s.samples) > s.length {
		s.samples = s.samples[1:]
	}
}

// Latest returns the most recent sample, zero when empty.
func (s *RateTracker) Latest() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if len(s.samples) == 0 {
		return 0
	}
	return s.samples[len(s.samples)-1]
}

// Average returns the mean over the remembered samples, zero when empty.
func (s *RateTracker) Average() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if len(s.samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s.samples {
		sum += v
	}
	return sum / float64(len(s.samples))
}

// Max returns the largest remembered sample, zero when empty.
func (s *RateTracker) Max() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	max := 0.0
	for _, v := range s.samples {
		if v > max {
			max = v
		}
	}
	return max
}
