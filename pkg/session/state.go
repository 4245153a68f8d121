package session

import (
	"context"
	"sync"
)

// Snapshot is a point-in-time view of the auth state.
type Snapshot struct {
	User          *User
	Loading       bool
	Authenticated bool
	Seq           uint64
}

// State is the process-wide current-user cell. Writers reserve a sequence
// number with Begin before doing any slow work; Apply rejects a result whose
// number is older than one already applied, so a slow initial fetch can never
// overwrite a sign-in or sign-out that raced past it.
type State struct {
	client *Client

	mu      sync.Mutex
	user    *User
	loading bool
	next    uint64
	applied uint64
	subs    map[int]chan Snapshot
	nextSub int
}

// NewState builds a State bound to the given client. It starts in the loading
// phase; the first Apply (usually from Refresh) ends it.
func NewState(client *Client) *State {
	return &State{
		client:  client,
		loading: true,
		subs:    make(map[int]chan Snapshot),
	}
}

// Begin reserves the next sequence number for an update in flight.
func (s *State) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

// Apply installs user as the result of the update numbered seq. It reports
// whether the update took effect; a stale seq is dropped.
func (s *State) Apply(seq uint64, user *User) bool {
	s.mu.Lock()
	if seq <= s.applied {
		s.mu.Unlock()
		return false
	}
	s.applied = seq
	s.user = user
	s.loading = false
	snap := s.snapshotLocked()
	subs := make([]chan Snapshot, 0, len(s.subs))
	for _, ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snap:
		default: // slow subscriber keeps the previous event
		}
	}
	return true
}

// SetUser applies user under a freshly reserved sequence number.
func (s *State) SetUser(user *User) {
	s.Apply(s.Begin(), user)
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{
		User:          s.user,
		Loading:       s.loading,
		Authenticated: s.user != nil,
		Seq:           s.applied,
	}
}

// Subscribe registers for state changes. The returned cancel func must be
// called to release the subscription.
func (s *State) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return ch, cancel
}

// Refresh re-fetches the current user from the provider and applies the
// result. A fetch failure (expired token, no session, provider down) applies
// a signed-out state; the error is returned for logging but the state is
// settled either way.
func (s *State) Refresh(ctx context.Context) error {
	seq := s.Begin()

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		s.Apply(seq, nil)
		return err
	}
	s.Apply(seq, user)
	return nil
}
