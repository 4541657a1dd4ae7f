package session

// window is a fixed-capacity slice used for the history and log buffers.
// It is not safe for concurrent use; Manager.mu guards it.
type window[T any] struct {
	items    []T
	capacity int
}

func newWindow[T any](capacity int) *window[T] {
	return &window[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// push appends v, evicting the oldest (first) item when full.
func (w *window[T]) push(v T) {
	if len(w.items) < w.capacity {
		w.items = append(w.items, v)
		return
	}
	copy(w.items, w.items[1:])
	w.items[len(w.items)-1] = v
}

// pushFront prepends v, evicting the last item when full.
func (w *window[T]) pushFront(v T) {
	if len(w.items) < w.capacity {
		var zero T
		w.items = append(w.items, zero)
	}
	copy(w.items[1:], w.items)
	w.items[0] = v
}

func (w *window[T]) len() int {
	return len(w.items)
}

// snapshot returns a copy that callers may keep and modify.
func (w *window[T]) snapshot() []T {
	out := make([]T, len(w.items))
	copy(out, w.items)
	return out
}
