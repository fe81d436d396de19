package cart

import "sync"

// Store holds a cart state behind a single-writer lock and notifies
// subscribers after every dispatch. The service keeps one per user as the
// in-memory cart, with the database as the durable copy.
type Store struct {
	mu          sync.RWMutex
	state       State
	nextSubID   int
	subscribers map[int]func(State)
}

// NewStore builds a store seeded with the provided state.
func NewStore(initial State) *Store {
	return &Store{state: initial}
}

// Dispatch runs the action through the reducer and returns the next state.
// Subscribers observe states in dispatch order.
func (s *Store) Dispatch(action Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, action)
	next := s.state
	subscribers := make([]func(State), 0, len(s.subscribers))
	for _, notify := range s.subscribers {
		subscribers = append(subscribers, notify)
	}
	s.mu.Unlock()

	for _, notify := range subscribers {
		notify(next)
	}
	return next
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers a callback invoked after each dispatch and returns a
// cancel func that unregisters it.
func (s *Store) Subscribe(fn func(State)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribers == nil {
		s.subscribers = map[int]func(State){}
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}
