package core

import (
	"fmt"
	"sync"
)

// IDAllocator hands out small integer client identities.
// Released identities are reused in the order they were released.
type IDAllocator struct {
	mu   sync.Mutex
	max  int
	free []int
	held map[int]struct{}
}

// NewIDAllocator creates an allocator whose first identity is 1.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{held: make(map[int]struct{})}
}

// Acquire returns the oldest released identity, or a fresh one.
func (a *IDAllocator) Acquire() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	var id int
	if len(a.free) > 0 {
		id = a.free[0]
		a.free = a.free[1:]
	} else {
		a.max++
		id = a.max
	}
	a.held[id] = struct{}{}
	return id
}

// Release returns id to the pool. Releasing an identity that is not held is an error
// and leaves the pool untouched.
func (a *IDAllocator) Release(id int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.held[id]; !ok {
		return fmt.Errorf("release %d: %w", id, ErrIdentityNotHeld)
	}
	delete(a.held, id)
	a.free = append(a.free, id)
	return nil
}

// Held reports whether id is currently assigned.
func (a *IDAllocator) Held(id int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.held[id]
	return ok
}

// Active returns the number of identities currently assigned.
func (a *IDAllocator) Active() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.held)
}
