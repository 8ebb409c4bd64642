// Package auth signs users in with Google and tracks their sessions.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// ErrNoSession marks a missing or expired session token.
var ErrNoSession = errors.New("auth: no session")

// User is the identity attached to a session. Email doubles as the account
// ID.
type User struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type session struct {
	user      User
	expiresAt time.Time
}

// Sessions is an in-memory session table. The TTL is an inactivity window:
// every authenticated request pushes the expiry out again.
type Sessions struct {
	ttl  time.Duration
	now  func() time.Time
	done chan struct{}

	mu       sync.Mutex
	sessions map[string]session
}

// NewSessions creates a session table and starts a sweeper that drops
// expired entries every sweepInterval.
func NewSessions(ttl, sweepInterval time.Duration) *Sessions {
	s := &Sessions{
		ttl:      ttl,
		now:      time.Now,
		done:     make(chan struct{}),
		sessions: make(map[string]session),
	}
	go s.sweep(sweepInterval)
	return s
}

// New creates a session for user and returns its token.
func (s *Sessions) New(user User) string {
	token := newToken()

	s.mu.Lock()
	s.sessions[token] = session{user: user, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()

	return token
}

// Get resolves a token to its user and extends the session's expiry.
func (s *Sessions) Get(token string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok || !s.now().Before(sess.expiresAt) {
		delete(s.sessions, token)
		return User{}, ErrNoSession
	}

	sess.expiresAt = s.now().Add(s.ttl)
	s.sessions[token] = sess
	return sess.user, nil
}

// Delete removes a session. Unknown tokens are ignored.
func (s *Sessions) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Close stops the sweeper.
func (s *Sessions) Close() {
	close(s.done)
}

func (s *Sessions) sweep(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired(s.now())
		case <-s.done:
			return
		}
	}
}

func (s *Sessions) removeExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.sessions {
		if !now.Before(sess.expiresAt) {
			delete(s.sessions, token)
		}
	}
}

func newToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
