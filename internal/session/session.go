// Package session owns the per-conversation state that survives between
// turns: the field record, the gate memory, and the one-shot flags.
package session

import (
	"sync"
	"time"

	"leadtriage_backend/internal/gate"
	"leadtriage_backend/internal/intake"
)

// Session is the mutable state of one lead conversation.
type Session struct {
	ID     string
	Record *intake.Record
	Gate   *gate.State

	// HotEmitted guards the at-most-once hot lead signal.
	HotEmitted bool
	// Completed flips when the lead has been classified and assigned;
	// later turns on a completed session only update the record.
	Completed bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store keeps sessions in process memory. Access to a session is
// serialized through With so a turn never interleaves with another turn
// of the same conversation.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	locks    map[string]*sync.Mutex
	now      func() time.Time
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
		now:      time.Now,
	}
}

// SetClock overrides the store clock. Used by tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// With runs fn while holding the session's lock, creating the session
// on first use. The session must not be retained past the callback.
func (s *Store) With(id string, fn func(*Session) error) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		now := s.now()
		sess = &Session{
			ID:        id,
			Record:    intake.NewRecord(id),
			Gate:      gate.NewState(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.sessions[id] = sess
		s.locks[id] = &sync.Mutex{}
	}
	lock := s.locks[id]
	s.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	err := fn(sess)
	sess.UpdatedAt = s.now()
	return err
}

// Snapshot returns a deep copy of the session taken under its lock, so
// a reader never observes a turn in progress. Does not create the
// session.
func (s *Store) Snapshot(id string) (Session, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	lock := s.locks[id]
	s.mu.Unlock()
	if !ok {
		return Session{}, false
	}

	lock.Lock()
	defer lock.Unlock()

	out := *sess
	out.Record = sess.Record.Clone()
	out.Gate = sess.Gate.Clone()
	return out, true
}

// Reset discards a session so the next turn starts from scratch.
func (s *Store) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.locks, id)
}

// Len reports how many sessions are live.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
