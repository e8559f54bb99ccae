package engine

import (
	"context"
	"sync"

	"github.com/capitalens/capitalens/internal/api"
)

// DetailOutcome is the last known state of one key's detail fetch.
type DetailOutcome struct {
	// Phase is the key's lifecycle state.
	Phase Phase
	// Payload holds the fetched summary when Phase is PhaseDone.
	Payload *api.ListingSummary
	// Err holds the failure when Phase is PhaseError.
	Err error
}

// DetailFetchFunc loads the detail payload for one key.
type DetailFetchFunc func(ctx context.Context, key string) (*api.ListingSummary, error)

// DetailStore maps item keys to their detail-fetch outcomes. It is the
// client-side memory that makes detail fetches lazy and non-redundant:
//
//   - Request on an Idle or Error key issues exactly one fetch.
//   - Request while that key is Loading is a no-op, so concurrent requests
//     for one key never produce duplicate remote calls.
//   - A Done key is never refetched; the cached payload is authoritative
//     until the session ends. Entries are never evicted.
//
// Outcome transitions are guarded per key and the key map by its own
// short-lived lock; no lock is held across the remote call, so fetches for
// unrelated keys run and resolve fully independently.
type DetailStore struct {
	fetch  DetailFetchFunc
	notify func()

	mu      sync.RWMutex
	entries map[string]*detailEntry
}

// detailEntry holds one key's outcome behind its own lock.
type detailEntry struct {
	mu      sync.Mutex
	phase   Phase
	payload *api.ListingSummary
	err     error
}

// NewDetailStore builds a DetailStore around fetch. notify is invoked after
// every outcome transition, outside any lock; pass nil when no notification
// is needed.
func NewDetailStore(fetch DetailFetchFunc, notify func()) *DetailStore {
	if notify == nil {
		notify = func() {}
	}
	return &DetailStore{
		fetch:   fetch,
		notify:  notify,
		entries: make(map[string]*detailEntry),
	}
}

// Get returns the current outcome for key. Keys never requested report
// PhaseIdle.
func (s *DetailStore) Get(key string) DetailOutcome {
	s.mu.RLock()
	entry := s.entries[key]
	s.mu.RUnlock()

	if entry == nil {
		return DetailOutcome{Phase: PhaseIdle}
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return DetailOutcome{Phase: entry.phase, Payload: entry.payload, Err: entry.err}
}

// Request triggers a detail fetch for key unless one is already in flight or
// the key already resolved successfully. It reports whether a new fetch was
// issued. Requesting a key in PhaseError retries it exactly like a first
// request.
func (s *DetailStore) Request(key string) bool {
	entry := s.entry(key)

	entry.mu.Lock()
	if entry.phase == PhaseLoading || entry.phase == PhaseDone {
		entry.mu.Unlock()
		return false
	}
	entry.phase = PhaseLoading
	entry.err = nil
	entry.mu.Unlock()

	s.notify()

	// Detail fetches are never cancelled: a fetch that outlives the interest
	// that triggered it still delivers valid user-requested data into the
	// cache. The transport bounds its own duration.
	go s.run(entry, key)

	return true
}

// run executes one detail fetch and records its resolution on the entry.
func (s *DetailStore) run(entry *detailEntry, key string) {
	payload, err := s.fetch(context.Background(), key)

	entry.mu.Lock()
	if err != nil {
		entry.phase = PhaseError
		entry.err = err
		entry.payload = nil
	} else {
		entry.phase = PhaseDone
		entry.payload = payload
		entry.err = nil
	}
	entry.mu.Unlock()

	s.notify()
}

// entry returns the entry for key, creating it on first use.
func (s *DetailStore) entry(key string) *detailEntry {
	s.mu.RLock()
	entry := s.entries[key]
	s.mu.RUnlock()
	if entry != nil {
		return entry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry = s.entries[key]; entry == nil {
		entry = &detailEntry{phase: PhaseIdle}
		s.entries[key] = entry
	}
	return entry
}

// Len reports how many keys hold an outcome.
func (s *DetailStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
