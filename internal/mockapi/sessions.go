package mockapi

import (
	"sync"
	"time"
)

// session is the mock's view of one downstream session.
type session struct {
	// user is nil when the submitted details matched nobody.
	user          *User
	detailsPosted bool
	channel       string
	preference    string
	// expires is zero for sessions created implicitly by a data call.
	expires time.Time
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

// get returns a copy of the session, creating it on first use.
func (s *sessionStore) get(id string) session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{}
		s.sessions[id] = sess
	}
	return *sess
}

// open registers a session that stops being valid at expires.
func (s *sessionStore) open(id string, expires time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &session{expires: expires}
}

// valid reports whether the session exists and has not expired at now.
func (s *sessionStore) valid(id string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	return sess.expires.IsZero() || now.Before(sess.expires)
}

// update applies fn to the session under the store lock.
func (s *sessionStore) update(id string, fn func(*session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{}
		s.sessions[id] = sess
	}
	fn(sess)
}

func (s *sessionStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
