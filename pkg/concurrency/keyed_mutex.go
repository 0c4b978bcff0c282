// Package concurrency provides fine-grained, key-based locking utilities.
package concurrency

import (
	"sync"
)

// KeyedMutex hands out an independent mutex per key so that work against
// different keys can proceed in parallel while work against the same key
// is serialized. Unused entries are reference-counted and returned to a
// pool once their last holder unlocks.
type KeyedMutex[T comparable] struct {
	mu    sync.Mutex
	locks map[T]*entry
	pool  sync.Pool
}

type entry struct {
	mu       sync.Mutex
	refCount int
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex[T comparable]() *KeyedMutex[T] {
	return &KeyedMutex[T]{
		locks: make(map[T]*entry),
		pool: sync.Pool{
			New: func() interface{} {
				return &entry{}
			},
		},
	}
}

// Len returns the number of keys currently locked or awaited.
func (km *KeyedMutex[T]) Len() int {
	km.mu.Lock()
	defer km.mu.Unlock()
	return len(km.locks)
}

// Lock acquires the lock for key, blocking until it is available.
func (km *KeyedMutex[T]) Lock(key T) {
	km.mu.Lock()
	e, ok := km.locks[key]
	if !ok {
		e = km.pool.Get().(*entry)
		e.refCount = 1
		km.locks[key] = e
	} else {
		e.refCount++
	}
	km.mu.Unlock()

	e.mu.Lock()
}

// TryLock attempts to acquire the lock for key without blocking.
//
// On true: the caller holds the lock and must call Unlock.
// On false: no lock was taken and Unlock must not be called.
func (km *KeyedMutex[T]) TryLock(key T) bool {
	km.mu.Lock()
	e, ok := km.locks[key]
	if !ok {
		// New key: claim the per-key lock before releasing km.mu, or a
		// racing goroutine could grab it between the two unlocks and
		// turn this "immediate" TryLock into a blocking one.
		e = km.pool.Get().(*entry)
		e.refCount = 1
		e.mu.Lock()
		km.locks[key] = e
		km.mu.Unlock()

		return true
	}

	if e.mu.TryLock() {
		e.refCount++
		km.mu.Unlock()
		return true
	}

	km.mu.Unlock()
	return false
}

// Unlock releases the lock for key. It panics if key is not locked.
func (km *KeyedMutex[T]) Unlock(key T) {
	km.mu.Lock()
	defer km.mu.Unlock()

	e, ok := km.locks[key]
	if !ok {
		panic("concurrency: Unlock of unlocked KeyedMutex key")
	}

	e.mu.Unlock()

	e.refCount--
	if e.refCount <= 0 {
		delete(km.locks, key)
		km.pool.Put(e)
	}
}

// WithLock locks key, runs action, and unlocks key once action returns,
// even if action returns an error.
func (km *KeyedMutex[T]) WithLock(key T, action func() error) error {
	km.Lock(key)
	defer km.Unlock(key)
	return action()
}
