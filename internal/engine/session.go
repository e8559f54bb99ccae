package engine

import (
	"context"

	"github.com/capitalens/capitalens/internal/api"
)

// CollectionSource loads the full listing collection. Partial collections do
// not exist at this boundary: the source either returns a complete snapshot
// or fails.
type CollectionSource interface {
	LatestListings(ctx context.Context) (*api.ListingCollection, error)
}

// DetailSource loads the expensive summary for one listing code.
type DetailSource interface {
	ListingSummary(ctx context.Context, code string) (*api.ListingSummary, error)
}

// Session binds the collection controller, the detail store, and the
// expansion set behind the fetch-on-expand policy:
//
//   - expanding a key whose outcome is Idle or Error requests its detail;
//   - expanding a key that is Loading or Done takes no fetch action;
//   - collapsing a key never touches the detail store.
//
// All mutation flows through Fetch, Toggle, and Close. The view layer reads
// state through CollectionState, Expanded, and DetailFor, and learns about
// transitions from Events.
type Session struct {
	collection *Controller[*api.ListingCollection]
	details    *DetailStore
	expansion  *ExpansionSet
	events     chan struct{}
}

// NewSession wires a Session to its remote sources. The api.Client satisfies
// both source interfaces.
func NewSession(collection CollectionSource, details DetailSource) *Session {
	s := &Session{
		expansion: NewExpansionSet(),
		events:    make(chan struct{}, 1),
	}
	s.collection = NewController(collection.LatestListings, s.signal)
	s.details = NewDetailStore(details.ListingSummary, s.signal)
	return s
}

// Fetch loads the listing collection, superseding any fetch already in
// flight. Also the manual retry path after a collection error.
func (s *Session) Fetch() {
	s.collection.Fetch()
}

// Toggle flips key's expansion state. Expanding consults the detail cache
// and requests the detail when it is missing or previously failed; the
// request itself is deduplicated per key. Collapsing never mutates the
// cache, so re-expanding a fetched key renders instantly.
func (s *Session) Toggle(key string) {
	expanded := s.expansion.Toggle(key)
	if expanded {
		if outcome := s.details.Get(key); outcome.Phase == PhaseIdle || outcome.Phase == PhaseError {
			s.details.Request(key)
		}
	}
	s.signal()
}

// RetryDetail re-requests key's detail after a failure. A key that is
// Loading or Done is left untouched.
func (s *Session) RetryDetail(key string) {
	s.details.Request(key)
}

// CollectionState returns the collection fetch phase with the last applied
// snapshot and error.
func (s *Session) CollectionState() (Phase, *api.ListingCollection, error) {
	return s.collection.State()
}

// Expanded reports whether key is open in the view.
func (s *Session) Expanded(key string) bool {
	return s.expansion.Expanded(key)
}

// ExpandedKeys returns the open keys in unspecified order.
func (s *Session) ExpandedKeys() []string {
	return s.expansion.Keys()
}

// DetailFor returns key's detail outcome, PhaseIdle when never requested.
func (s *Session) DetailFor(key string) DetailOutcome {
	return s.details.Get(key)
}

// Events returns a channel that receives a signal after state transitions.
// Signals coalesce: one receive may cover several transitions, so consumers
// should re-read all projections on each wakeup.
func (s *Session) Events() <-chan struct{} {
	return s.events
}

// Close cancels the in-flight collection fetch, if any. Detail fetches are
// left to finish into the store. Required on teardown.
func (s *Session) Close() {
	s.collection.Close()
}

// signal wakes Events consumers without blocking state transitions.
func (s *Session) signal() {
	select {
	case s.events <- struct{}{}:
	default:
	}
}
