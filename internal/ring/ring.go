// Package ring implements a single-producer/single-consumer, bounded,
// lock-free FIFO of float32 audio samples, fixed to a capacity of two
// seconds at 48 kHz (96,000 samples). Push and pop never block: both fail
// fast on full/empty, and overflow/underflow are counted rather than
// surfaced as hard errors.
package ring

import "sync/atomic"

// Capacity is the fixed ring size: 2 seconds at 48 kHz.
const Capacity = 96000

// Buffer is a fixed-capacity SPSC sample ring. Zero value is not usable;
// use New(). No allocation occurs after construction.
type Buffer struct {
	data [Capacity]float32
	head atomic.Uint64 // next read position (consumer-owned)
	tail atomic.Uint64 // next write position (producer-owned)

	overflows  atomic.Uint64
	underflows atomic.Uint64
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Push appends one sample. Returns false (and counts an overflow) if the
// ring is full; never blocks the producer.
func (b *Buffer) Push(s float32) bool {
	tail := b.tail.Load()
	head := b.head.Load()
	if tail-head >= Capacity {
		b.overflows.Add(1)
		return false
	}
	b.data[tail%Capacity] = s
	b.tail.Store(tail + 1)
	return true
}

// PushBatch pushes as many samples from src as fit, in order, stopping (and
// counting remaining samples as overflow) once the ring is full. Returns
// the number of samples actually pushed.
func (b *Buffer) PushBatch(src []float32) int {
	n := 0
	for _, s := range src {
		if !b.Push(s) {
			break
		}
		n++
	}
	// The first rejected sample was already counted by Push.
	if rem := len(src) - n; rem > 1 {
		b.overflows.Add(uint64(rem - 1))
	}
	return n
}

// Pop removes and returns one sample. Returns false (and counts an
// underflow) if the ring is empty; never blocks the consumer.
func (b *Buffer) Pop() (float32, bool) {
	head := b.head.Load()
	tail := b.tail.Load()
	if head >= tail {
		b.underflows.Add(1)
		return 0, false
	}
	s := b.data[head%Capacity]
	b.head.Store(head + 1)
	return s, true
}

// PopBatch pops up to len(dst) samples into dst, returning the number
// actually popped. Does not zero the unfilled tail of dst.
func (b *Buffer) PopBatch(dst []float32) int {
	n := 0
	for n < len(dst) {
		s, ok := b.Pop()
		if !ok {
			break
		}
		dst[n] = s
		n++
	}
	return n
}

// Len reports the current occupancy: samples available to the consumer.
// Queryable by the consumer for flow control.
func (b *Buffer) Len() int {
	head := b.head.Load()
	tail := b.tail.Load()
	if tail <= head {
		return 0
	}
	return int(tail - head)
}

// Free reports the remaining capacity available to the producer.
func (b *Buffer) Free() int {
	return Capacity - b.Len()
}

// Overflows returns the cumulative count of dropped samples due to a full
// ring.
func (b *Buffer) Overflows() uint64 {
	return b.overflows.Load()
}

// Underflows returns the cumulative count of failed pops due to an empty
// ring.
func (b *Buffer) Underflows() uint64 {
	return b.underflows.Load()
}
