package statemachine

import (
	"sync"
)

// StateFn is a state expressed as a function, following Rob Pike's lexer
// pattern: each state does its work against the entity and returns the next
// state function, or nil to terminate.
type StateFn[T any] func(*T) StateFn[T]

// Machine drives an entity through StateFn states. It is safe for concurrent
// use; the entity itself must be guarded by its owner.
type Machine[T any] struct {
	entity  *T
	stateFn StateFn[T]
	mu      sync.RWMutex
}

// New creates a machine for entity starting at initial.
func New[T any](entity *T, initial StateFn[T]) *Machine[T] {
	return &Machine[T]{
		entity:  entity,
		stateFn: initial,
	}
}

// Dispatch sets stateFn as the current state, runs it once, and records the
// state it returns.
func (m *Machine[T]) Dispatch(stateFn StateFn[T]) {
	m.mu.Lock()
	m.stateFn = stateFn
	m.mu.Unlock()

	if stateFn == nil {
		return
	}

	next := stateFn(m.entity)

	m.mu.Lock()
	m.stateFn = next
	m.mu.Unlock()
}

// Current returns the current state function.
func (m *Machine[T]) Current() StateFn[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stateFn
}

// Set replaces the current state without running it.
func (m *Machine[T]) Set(stateFn StateFn[T]) {
	m.mu.Lock()
	m.stateFn = stateFn
	m.mu.Unlock()
}
