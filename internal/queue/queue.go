// internal/queue/queue.go
// Package queue provides the fixed-capacity circular queue that backs every
// stage of the filter bank and the raw sample buffer.
package queue

import (
	"errors"
	"fmt"

	"github.com/ColonelBlimp/lasertag/internal/log"
)

var (
	// ErrInvalidCapacity indicates capacity must be positive
	ErrInvalidCapacity = errors.New("queue capacity must be positive")
	// ErrIndexOutOfRange indicates a read outside [0, ElementCount())
	ErrIndexOutOfRange = errors.New("queue index out of range")
)

// Sample is the set of element types a Queue can hold.
type Sample interface {
	~int16 | ~uint16 | ~int32 | ~uint32 | ~int | ~float32 | ~float64
}

// Queue is a fixed-capacity FIFO with random access by age.
// Index 0 is the oldest retained element, ElementCount()-1 the newest.
// A Queue is not safe for concurrent use.
type Queue[T Sample] struct {
	name         string
	data         []T
	indexIn      int // next open slot
	indexOut     int // oldest element
	elementCount int

	// overflowFlag is set by Push on a full queue and cleared by a successful Pop.
	overflowFlag bool
	// underflowFlag is set by Pop on an empty queue and cleared by a successful Push.
	underflowFlag bool
}

// New allocates an empty queue holding at most capacity elements.
func New[T Sample](capacity int, name string) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%s: %w (got %d)", name, ErrInvalidCapacity, capacity)
	}
	return &Queue[T]{
		name: name,
		data: make([]T, capacity),
	}, nil
}

// MustNew is New for startup code where a bad capacity is a programming error.
func MustNew[T Sample](capacity int, name string) *Queue[T] {
	q, err := New[T](capacity, name)
	if err != nil {
		panic(err)
	}
	return q
}

// Name returns the diagnostic name given at construction.
func (q *Queue[T]) Name() string { return q.name }

// Capacity returns the maximum number of stored elements.
func (q *Queue[T]) Capacity() int { return len(q.data) }

// ElementCount returns the number of stored elements.
func (q *Queue[T]) ElementCount() int { return q.elementCount }

// IsFull reports whether the queue holds Capacity() elements.
func (q *Queue[T]) IsFull() bool { return q.elementCount == len(q.data) }

// IsEmpty reports whether the queue holds no elements.
func (q *Queue[T]) IsEmpty() bool { return q.elementCount == 0 }

// Overflow reports whether the last failed operation was a Push on a full queue.
func (q *Queue[T]) Overflow() bool { return q.overflowFlag }

// Underflow reports whether the last failed operation was a Pop on an empty queue.
func (q *Queue[T]) Underflow() bool { return q.underflowFlag }

// Push appends v. If the queue is full it sets the overflow flag, leaves the
// queue unchanged and returns false.
func (q *Queue[T]) Push(v T) bool {
	if q.IsFull() {
		q.overflowFlag = true
		log.Warnf("queue %s: push on full queue (capacity %d)", q.name, len(q.data))
		return false
	}
	q.data[q.indexIn] = v
	q.indexIn = (q.indexIn + 1) % len(q.data)
	q.elementCount++
	q.underflowFlag = false
	return true
}

// Pop removes and returns the oldest element. If the queue is empty it sets
// the underflow flag and returns the zero value and false.
func (q *Queue[T]) Pop() (T, bool) {
	var zero T
	if q.IsEmpty() {
		q.underflowFlag = true
		log.Warnf("queue %s: pop on empty queue", q.name)
		return zero, false
	}
	v := q.data[q.indexOut]
	q.indexOut = (q.indexOut + 1) % len(q.data)
	q.elementCount--
	q.overflowFlag = false
	return v, true
}

// PopLegacy is Pop for callers that only understand the zero sentinel.
// An empty queue and a stored zero are indistinguishable except via Underflow.
func (q *Queue[T]) PopLegacy() T {
	v, _ := q.Pop()
	return v
}

// OverwritePush appends v, silently evicting the oldest element when full.
func (q *Queue[T]) OverwritePush(v T) {
	if q.IsFull() {
		q.indexOut = (q.indexOut + 1) % len(q.data)
		q.elementCount--
		q.overflowFlag = false
	}
	q.Push(v)
}

// ReadElementAt returns the element at age index i without removing it.
func (q *Queue[T]) ReadElementAt(i int) (T, error) {
	var zero T
	if i < 0 || i >= q.elementCount {
		log.Warnf("queue %s: read at %d with %d elements", q.name, i, q.elementCount)
		return zero, fmt.Errorf("%s: %w: %d not in [0,%d)", q.name, ErrIndexOutOfRange, i, q.elementCount)
	}
	return q.data[(q.indexOut+i)%len(q.data)], nil
}

// at is ReadElementAt for callers that have already bounds-checked i.
func (q *Queue[T]) at(i int) T {
	return q.data[(q.indexOut+i)%len(q.data)]
}

// Oldest returns element 0, or the zero value if empty.
func (q *Queue[T]) Oldest() T {
	if q.IsEmpty() {
		var zero T
		return zero
	}
	return q.at(0)
}

// Newest returns the most recently pushed element, or the zero value if empty.
func (q *Queue[T]) Newest() T {
	if q.IsEmpty() {
		var zero T
		return zero
	}
	return q.at(q.elementCount - 1)
}

// Window copies the newest min(len(dst), ElementCount()) elements into dst,
// oldest first, and returns how many were copied.
func (q *Queue[T]) Window(dst []T) int {
	n := min(len(dst), q.elementCount)
	if n == 0 {
		return 0
	}
	start := (q.indexOut + q.elementCount - n) % len(q.data)
	first := copy(dst[:n], q.data[start:])
	if first < n {
		copy(dst[first:n], q.data[:n-first])
	}
	return n
}

// Fill overwrite-pushes v until the queue is full.
func (q *Queue[T]) Fill(v T) {
	for !q.IsFull() {
		q.Push(v)
	}
}

// Reset empties the queue and clears both flags. Storage is kept.
func (q *Queue[T]) Reset() {
	clear(q.data)
	q.indexIn = 0
	q.indexOut = 0
	q.elementCount = 0
	q.overflowFlag = false
	q.underflowFlag = false
}
