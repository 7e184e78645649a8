package domain

import (
	"sync"
	"time"
)

// DefaultLatencyWindow is the number of recent completion durations averaged.
const DefaultLatencyWindow = 100

// LatencyWindow keeps the last N durations in a ring buffer.
type LatencyWindow struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int
	full    bool
}

// NewLatencyWindow creates a window of size samples; non-positive sizes use
// DefaultLatencyWindow.
func NewLatencyWindow(size int) *LatencyWindow {
	if size <= 0 {
		size = DefaultLatencyWindow
	}
	return &LatencyWindow{samples: make([]time.Duration, size)}
}

// Record adds a sample, dropping the oldest once the window is full.
func (w *LatencyWindow) Record(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples[w.next] = d
	w.next = (w.next + 1) % len(w.samples)
	if w.next == 0 {
		w.full = true
	}
}

// Average returns the mean of the recorded samples and how many there are.
func (w *LatencyWindow) Average() (time.Duration, int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := w.next
	if w.full {
		n = len(w.samples)
	}
	if n == 0 {
		return 0, 0
	}

	var sum time.Duration
	for _, d := range w.samples[:n] {
		sum += d
	}
	return sum / time.Duration(n), n
}
