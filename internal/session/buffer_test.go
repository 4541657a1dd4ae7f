package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowPushEvictsOldest(t *testing.T) {
	w := newWindow[int](3)
	for i := 1; i <= 5; i++ {
		w.push(i)
	}
	assert.Equal(t, []int{3, 4, 5}, w.snapshot())
	assert.Equal(t, 3, w.len())
}

func TestWindowPushFrontEvictsTail(t *testing.T) {
	w := newWindow[int](3)
	w.pushFront(1)
	w.pushFront(2)
	assert.Equal(t, []int{2, 1}, w.snapshot())

	w.pushFront(3)
	w.pushFront(4)
	assert.Equal(t, []int{4, 3, 2}, w.snapshot())
}

func TestWindowSnapshotIsCopy(t *testing.T) {
	w := newWindow[int](2)
	w.push(1)

	snap := w.snapshot()
	snap[0] = 42
	assert.Equal(t, []int{1}, w.snapshot())
}
