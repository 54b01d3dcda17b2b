package repository

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolio-mainframe/internal/persona"
	"portfolio-mainframe/internal/session"
)

const (
	defaultSessionTTL = 30 * time.Minute
	maxSessionIDLen   = 64
)

// Session groups the per-page state machines.
type Session struct {
	ID      string
	Chat    *session.Chat
	Drafter *session.Drafter
	Menu    *session.Menu

	lastActivity time.Time
}

// Store keeps page sessions in process memory. Sessions idle for longer than
// the TTL are dropped.
type Store struct {
	gen     session.Generator
	profile persona.Profile
	ttl     time.Duration
	now     func() time.Time

	mu        sync.Mutex
	sessions  map[string]*Session
	lastSweep time.Time
}

// New creates a Store whose sessions use gen for text generation.
func New(gen session.Generator, profile persona.Profile, ttl time.Duration) (*Store, error) {
	if gen == nil {
		return nil, errors.New("repository: generator must not be nil")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Store{
		gen:      gen,
		profile:  profile,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}, nil
}

// GetOrCreate returns the live session for id. An empty id gets a fresh uuid;
// an unknown or expired id starts a new session under that id. At most once
// per TTL it also drops every expired session, so idle entries are reclaimed
// without a background sweeper.
func (s *Store) GetOrCreate(id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if len(id) > maxSessionIDLen {
		return nil, fmt.Errorf("repository: session id longer than %d characters", maxSessionIDLen)
	}
	if id == "" {
		id = newUUID()
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > s.ttl {
		s.sweepLocked(now)
		s.lastSweep = now
	}

	if sess, ok := s.sessions[id]; ok && !s.expired(sess, now) {
		sess.lastActivity = now
		return sess, nil
	}

	sess, err := s.newSession(id)
	if err != nil {
		return nil, err
	}
	sess.lastActivity = now
	s.sessions[id] = sess
	return sess, nil
}

func (s *Store) newSession(id string) (*Session, error) {
	chat, err := session.NewChat(s.gen, s.profile)
	if err != nil {
		return nil, fmt.Errorf("repository: new chat: %w", err)
	}
	drafter, err := session.NewDrafter(s.gen, s.profile)
	if err != nil {
		return nil, fmt.Errorf("repository: new drafter: %w", err)
	}
	return &Session{ID: id, Chat: chat, Drafter: drafter, Menu: &session.Menu{}}, nil
}

// Sweep drops expired sessions and reports how many were removed. Sessions
// with a request in flight are kept.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

func (s *Store) sweepLocked(now time.Time) int {
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	if sess.Chat.Loading() || sess.Drafter.Loading() {
		return false
	}
	return now.Sub(sess.lastActivity) > s.ttl
}

var newUUID = func() string {
	return uuid.NewString()
}
