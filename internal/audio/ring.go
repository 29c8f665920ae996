package audio

import "sync"

// SampleRing is a fixed-capacity circular buffer of 16-bit PCM samples shared
// by one producer and one consumer. One slot is sacrificed to distinguish a
// full ring from an empty one, so a ring created with capacity N holds at most
// N-1 samples. All operations serialize on a single mutex; hold time is
// bounded by the number of samples copied, never by I/O.
type SampleRing struct {
	buf   []int16
	write int
	read  int
	mu    sync.Mutex
}

// NewSampleRing creates a ring with the given slot count. Usable capacity is
// capacity-1 samples.
func NewSampleRing(capacity int) *SampleRing {
	if capacity < 2 {
		capacity = 2
	}
	return &SampleRing{
		buf: make([]int16, capacity),
	}
}

// Push copies all samples into the ring in order. When the ring is at usable
// capacity the oldest sample is evicted for each new one written, so Push
// never blocks and never rejects data. Returns the number of evicted samples;
// sustained overflow is silently lossy and not an error.
func (r *SampleRing) Push(samples []int16) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.buf)
	evicted := 0

	for _, s := range samples {
		next := (r.write + 1) % n
		if next == r.read {
			// Full: advance the read cursor by one whole sample so
			// frame boundaries stay aligned across overflow.
			r.read = (r.read + 1) % n
			evicted++
		}
		r.buf[r.write] = s
		r.write = next
	}

	return evicted
}

// Pop removes and returns up to max samples in FIFO order. A short or empty
// result means the producer has not caught up yet; callers must check the
// returned length.
func (r *SampleRing) Pop(max int) []int16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if max < 0 {
		max = 0
	}

	n := len(r.buf)
	used := (r.write - r.read + n) % n
	count := used
	if max < count {
		count = max
	}

	out := make([]int16, count)
	first := n - r.read
	if first > count {
		first = count
	}
	copy(out, r.buf[r.read:r.read+first])
	copy(out[first:], r.buf[:count-first])
	r.read = (r.read + count) % n

	return out
}

// Used returns the number of samples currently buffered.
func (r *SampleRing) Used() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.buf)
	return (r.write - r.read + n) % n
}

// Available returns the number of samples that can be pushed before eviction
// starts.
func (r *SampleRing) Available() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.buf)
	used := (r.write - r.read + n) % n
	return n - 1 - used
}

// Capacity returns the usable sample capacity of the ring.
func (r *SampleRing) Capacity() int {
	return len(r.buf) - 1
}

// Reset moves both cursors back to zero, making the ring logically empty.
// Stale samples stay in the backing array but are never read again.
func (r *SampleRing) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.write = 0
	r.read = 0
}
