package sync

import (
	"errors"
	"sync"

	"boardsync/internal/store"
)

// State is the lifecycle state of one board session.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateSaving  State = "saving"
	StateError   State = "error"
)

// session serializes writes for one board. Every in-flight write is
// stamped with a monotonically increasing token; a write whose token has
// been superseded by a committed newer one is discarded, never applied.
type session struct {
	mu        sync.Mutex
	state     State
	lastToken uint64
	committed uint64
	closed    bool
}

// begin transitions the session into next and issues a fresh token.
func (s *session) begin(next State) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = next
	s.closed = false
	s.lastToken++
	return s.lastToken
}

// nextToken issues a token without a state transition (autosave).
func (s *session) nextToken() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastToken++
	return s.lastToken
}

// commit applies fn under the session lock if token is still the newest
// write for the board and the session is still active. Returns false when
// the write was discarded as stale. fn is at most one local store
// transaction; no network I/O happens under this lock.
func (s *session) commit(token uint64, fn func() error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || token <= s.committed {
		return false, nil
	}
	if fn != nil {
		if err := fn(); err != nil {
			return true, err
		}
	}
	s.committed = token
	return true, nil
}

// fail moves the session into the error state unless a newer write has
// already committed past this token.
func (s *session) fail(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || token <= s.committed {
		return
	}
	s.state = StateError
}

// settle records the post-commit state for an operation's token.
func (s *session) settle(token uint64, next State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || token < s.committed {
		return
	}
	s.state = next
}

// close marks the session inactive; results of already-dispatched
// operations are discarded on arrival.
func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.state = StateIdle
}

// current returns the session state.
func (s *session) current() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// sessionTable hands out one session per board id. Sessions are never
// removed: tokens must stay monotonic for the lifetime of the process so
// late results from closed sessions are still recognizably stale.
type sessionTable struct {
	mu       sync.Mutex
	sessions map[int64]*session
}

func newSessionTable() *sessionTable {
	return &sessionTable{sessions: make(map[int64]*session)}
}

func (t *sessionTable) get(boardID int64) *session {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[boardID]
	if !ok {
		s = &session{state: StateIdle}
		t.sessions[boardID] = s
	}
	return s
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
