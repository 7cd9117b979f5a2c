package syncx

// Slot holds a lazily constructed value guarded by its own SpinLock.
//
// Independent slots never contend with each other, so a slow first use of
// one subsystem does not stall callers of another.
type Slot[T any] struct {
	lock SpinLock
	inst *T
}

// GetOrCreate returns the value held by the slot, constructing it with
// factory exactly once if the slot is empty.
func (s *Slot[T]) GetOrCreate(factory func() *T) *T {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.inst == nil {
		s.inst = factory()
	}

	return s.inst
}

// Peek returns the current value without constructing it. The result is nil
// if the slot was never populated.
func (s *Slot[T]) Peek() *T {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.inst
}

// Take empties the slot and returns what it held.
func (s *Slot[T]) Take() *T {
	s.lock.Lock()
	defer s.lock.Unlock()

	inst := s.inst
	s.inst = nil
	return inst
}
