package queue

import (
	"errors"
	"testing"
)

func newTestQueue(t *testing.T, capacity int) *Queue[float64] {
	t.Helper()
	q, err := New[float64](capacity, "test")
	if err != nil {
		t.Fatalf("New(%d) error = %v", capacity, err)
	}
	return q
}

func TestNew_InvalidCapacity(t *testing.T) {
	for _, c := range []int{0, -1, -100} {
		_, err := New[float64](c, "bad")
		if !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("New(%d) error = %v, want ErrInvalidCapacity", c, err)
		}
	}
}

func TestMustNew_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustNew(0) did not panic")
		}
	}()
	MustNew[float64](0, "bad")
}

func TestNew_Empty(t *testing.T) {
	q := newTestQueue(t, 5)
	if !q.IsEmpty() || q.IsFull() {
		t.Errorf("new queue IsEmpty=%v IsFull=%v, want true/false", q.IsEmpty(), q.IsFull())
	}
	if q.Capacity() != 5 {
		t.Errorf("Capacity() = %d, want 5", q.Capacity())
	}
	if q.Name() != "test" {
		t.Errorf("Name() = %q, want test", q.Name())
	}
}

func TestPush_Overflow(t *testing.T) {
	q := newTestQueue(t, 3)
	for i := 1; i <= 3; i++ {
		if !q.Push(float64(i)) {
			t.Fatalf("Push(%d) failed before full", i)
		}
	}
	if q.Push(4) {
		t.Error("Push on full queue returned true")
	}
	if !q.Overflow() {
		t.Error("Overflow() = false after push on full queue")
	}
	if q.ElementCount() != 3 || q.Newest() != 3 || q.Oldest() != 1 {
		t.Errorf("queue changed by failed push: count=%d oldest=%v newest=%v", q.ElementCount(), q.Oldest(), q.Newest())
	}

	if _, ok := q.Pop(); !ok {
		t.Fatal("Pop failed on full queue")
	}
	if q.Overflow() {
		t.Error("Overflow() still set after successful Pop")
	}
}

func TestPop_Underflow(t *testing.T) {
	q := newTestQueue(t, 2)
	v, ok := q.Pop()
	if ok || v != 0 {
		t.Errorf("Pop on empty = (%v, %v), want (0, false)", v, ok)
	}
	if !q.Underflow() {
		t.Error("Underflow() = false after pop on empty queue")
	}
	if q.PopLegacy() != 0 {
		t.Error("PopLegacy on empty did not return sentinel 0")
	}

	q.Push(7)
	if q.Underflow() {
		t.Error("Underflow() still set after successful Push")
	}
	if got := q.PopLegacy(); got != 7 {
		t.Errorf("PopLegacy() = %v, want 7", got)
	}
}

func TestFIFOOrder(t *testing.T) {
	q := newTestQueue(t, 4)
	// Wrap the indices a few times.
	next := 0.0
	want := 0.0
	for round := 0; round < 5; round++ {
		for i := 0; i < 3; i++ {
			q.Push(next)
			next++
		}
		for i := 0; i < 3; i++ {
			got, ok := q.Pop()
			if !ok || got != want {
				t.Fatalf("round %d: Pop() = (%v, %v), want (%v, true)", round, got, ok, want)
			}
			want++
		}
	}
}

func TestOverwritePush_RetainsMostRecent(t *testing.T) {
	capacities := []int{1, 2, 5, 11}
	for _, c := range capacities {
		q := newTestQueue(t, c)
		total := 3*c + 2
		for i := 0; i < total; i++ {
			q.OverwritePush(float64(i))
			if q.ElementCount() > q.Capacity() {
				t.Fatalf("capacity %d: ElementCount %d exceeds capacity", c, q.ElementCount())
			}
			newest, err := q.ReadElementAt(q.ElementCount() - 1)
			if err != nil || newest != float64(i) {
				t.Fatalf("capacity %d: newest = (%v, %v), want %d", c, newest, err, i)
			}
		}
		for i := 0; i < c; i++ {
			got, err := q.ReadElementAt(i)
			want := float64(total - c + i)
			if err != nil || got != want {
				t.Errorf("capacity %d: ReadElementAt(%d) = (%v, %v), want %v", c, i, got, err, want)
			}
		}
		if q.Overflow() {
			t.Errorf("capacity %d: OverwritePush left overflow flag set", c)
		}
	}
}

func TestReadElementAt_OutOfRange(t *testing.T) {
	q := newTestQueue(t, 3)
	q.Push(1)
	q.Push(2)

	for _, idx := range []int{-1, 2, 3, 100} {
		v, err := q.ReadElementAt(idx)
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("ReadElementAt(%d) error = %v, want ErrIndexOutOfRange", idx, err)
		}
		if v != 0 {
			t.Errorf("ReadElementAt(%d) = %v, want sentinel 0", idx, v)
		}
	}
	if q.ElementCount() != 2 || q.Oldest() != 1 || q.Newest() != 2 {
		t.Error("out-of-range read modified the queue")
	}
}

func TestWindow(t *testing.T) {
	q := newTestQueue(t, 5)
	for i := 0; i < 8; i++ { // wraps: holds 3..7
		q.OverwritePush(float64(i))
	}

	tests := []struct {
		name string
		size int
		want []float64
	}{
		{"full", 5, []float64{3, 4, 5, 6, 7}},
		{"newest three", 3, []float64{5, 6, 7}},
		{"one", 1, []float64{7}},
		{"larger than count", 7, []float64{3, 4, 5, 6, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]float64, tt.size)
			n := q.Window(dst)
			if n != len(tt.want) {
				t.Fatalf("Window() copied %d, want %d", n, len(tt.want))
			}
			for i, w := range tt.want {
				if dst[i] != w {
					t.Errorf("dst[%d] = %v, want %v", i, dst[i], w)
				}
			}
		})
	}
}

func TestFillAndReset(t *testing.T) {
	q := newTestQueue(t, 4)
	q.Push(9)
	q.Fill(0)
	if !q.IsFull() {
		t.Fatal("Fill did not fill the queue")
	}
	if q.Oldest() != 9 || q.Newest() != 0 {
		t.Errorf("Fill order: oldest=%v newest=%v, want 9/0", q.Oldest(), q.Newest())
	}

	q.Push(1) // sets overflow
	q.Reset()
	if !q.IsEmpty() || q.Overflow() || q.Underflow() {
		t.Error("Reset did not empty the queue and clear flags")
	}
}

func TestIntegerSamples(t *testing.T) {
	q := MustNew[uint16](2, "adc")
	q.OverwritePush(4095)
	q.OverwritePush(0)
	q.OverwritePush(2048)
	if got, _ := q.Pop(); got != 0 {
		t.Errorf("Pop() = %d, want 0", got)
	}
	if got, _ := q.Pop(); got != 2048 {
		t.Errorf("Pop() = %d, want 2048", got)
	}
}
