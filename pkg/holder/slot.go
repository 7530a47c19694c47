package holder

import (
	"sync"
	"time"
)

// Entry is one stored value with its write metadata.
type Entry[T any] struct {
	Value T
	SetAt time.Time
	Seq   uint64 // 0 until the first Set
}

// Slot holds the most recently generated token response. It is shared by the hook
// (the only writer) and downstream handlers. Last write wins; no history is kept.
type Slot[T any] struct {
	mu    sync.RWMutex
	entry Entry[T]
	now   func() time.Time
}

func New[T any]() *Slot[T] { return &Slot[T]{now: time.Now} }

// Get returns the latest value, or ok=false when nothing has been stored yet.
func (s *Slot[T]) Get() (v T, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry.Value, s.entry.Seq > 0
}

func (s *Slot[T]) Set(v T) {
	s.mu.Lock()
	s.entry = Entry[T]{Value: v, SetAt: s.now(), Seq: s.entry.Seq + 1}
	s.mu.Unlock()
}

// Snapshot returns value and metadata read together.
func (s *Slot[T]) Snapshot() Entry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry
}

// Available reports whether a value has been stored.
func (s *Slot[T]) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry.Seq > 0
}
