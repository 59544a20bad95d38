package lock

import (
	"fmt"

	"go.uber.org/atomic"
)

// RefCount tracks holders and waiters of a keyed lock; the entry is dropped
// from its Table when the count reaches zero.
type RefCount struct {
	count atomic.Int32
}

func NewRefCount() *RefCount {
	r := &RefCount{}
	r.count.Store(1)
	return r
}

func (r *RefCount) Inc() {
	r.count.Inc()
}

func (r *RefCount) Dec() bool {
	newCount := r.count.Dec()
	if newCount < 0 {
		panic("refcount dropped below zero")
	}
	return newCount == 0
}

func (r *RefCount) Get() int32 {
	return r.count.Load()
}

func (r *RefCount) String() string {
	return fmt.Sprintf("RefCount: %d", r.Get())
}
