// internal/buffer/buffer.go
// Package buffer holds raw ADC codes between the sampling tick (producer)
// and the detector (consumer).
package buffer

import (
	"sync"

	"github.com/ColonelBlimp/lasertag/internal/log"
	"github.com/ColonelBlimp/lasertag/internal/queue"
)

// DefaultCapacity absorbs roughly a third of a second of 100 kHz samples.
const DefaultCapacity = 32768

// Buffer is a single-producer/single-consumer circular buffer of raw ADC
// codes. The producer never blocks or fails; when full the oldest sample is
// evicted. The mutex only ever covers a single push or pop.
type Buffer struct {
	mu         sync.Mutex
	q          *queue.Queue[uint16]
	highWater  int
	overwrites uint64
}

// New creates an empty buffer. A non-positive capacity panics since the
// buffer is a startup precondition.
func New(capacity int) *Buffer {
	return &Buffer{q: queue.MustNew[uint16](capacity, "adc")}
}

// PushOverwrite stores v, evicting the oldest sample if the buffer is full.
func (b *Buffer) PushOverwrite(v uint16) {
	b.mu.Lock()
	if b.q.IsFull() {
		b.overwrites++
	}
	b.q.OverwritePush(v)
	if n := b.q.ElementCount(); n > b.highWater {
		b.highWater = n
	}
	b.mu.Unlock()
}

// Pop removes the oldest sample. ok is false if the buffer was empty.
func (b *Buffer) Pop() (v uint16, ok bool) {
	b.mu.Lock()
	v, ok = b.popLocked()
	b.mu.Unlock()
	return v, ok
}

// PopUnguarded is Pop without taking the lock, for callers that have
// already stopped the producer.
func (b *Buffer) PopUnguarded() (uint16, bool) {
	return b.popLocked()
}

// PopLegacy returns 0 on an empty buffer. Prefer Pop.
func (b *Buffer) PopLegacy() uint16 {
	v, ok := b.Pop()
	if !ok {
		log.Errorf("buffer: pop on empty buffer")
	}
	return v
}

func (b *Buffer) popLocked() (uint16, bool) {
	if b.q.IsEmpty() {
		return 0, false
	}
	return b.q.Pop()
}

// Elements returns the current occupancy.
func (b *Buffer) Elements() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.q.ElementCount()
}

// Capacity returns the fixed size of the buffer.
func (b *Buffer) Capacity() int {
	return b.q.Capacity()
}

// HighWater returns the largest occupancy observed since the last Clear.
func (b *Buffer) HighWater() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.highWater
}

// Overwrites returns how many samples were evicted unread since the last Clear.
func (b *Buffer) Overwrites() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overwrites
}

// Clear empties the buffer and zeroes its storage and statistics.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.q.Reset()
	b.highWater = 0
	b.overwrites = 0
	b.mu.Unlock()
}
