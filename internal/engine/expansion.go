package engine

import "sync"

// ExpansionSet tracks which item keys are currently open in the view.
// Membership is independent of the detail cache: expanding a key does not
// imply its detail is fetched, and collapsing never discards a fetched
// detail.
type ExpansionSet struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// NewExpansionSet returns an empty ExpansionSet.
func NewExpansionSet() *ExpansionSet {
	return &ExpansionSet{keys: make(map[string]struct{})}
}

// Toggle flips key's membership and reports whether the key is expanded
// afterwards.
func (s *ExpansionSet) Toggle(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key]; ok {
		delete(s.keys, key)
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

// Expanded reports whether key is currently expanded.
func (s *ExpansionSet) Expanded(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok
}

// Keys returns the expanded keys in unspecified order.
func (s *ExpansionSet) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.keys))
	for key := range s.keys {
		out = append(out, key)
	}
	return out
}

// Len reports how many keys are expanded.
func (s *ExpansionSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}
