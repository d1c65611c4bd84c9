// Package mcpsession tracks MCP client sessions (spec.md §4.6, component
// C6): the initialize/initialized handshake, the per-session set of
// documents read (enforcing the read-before-edit rule in editengine), and
// a lazy TTL sweep so idle sessions don't accumulate forever.
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package mcpsession

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/lens-academy/relay/metrics"
)

// ClientInfo is the subset of the MCP "initialize" request's client_info
// the relay retains for diagnostics.
type ClientInfo struct {
	Name    string
	Version string
}

// Session is one MCP client connection's server-side state.
type Session struct {
	ID              string
	ProtocolVersion string
	Client          ClientInfo
	Initialized     bool

	CreatedAt    time.Time
	LastActivity time.Time

	mu       sync.Mutex
	readDocs map[string]struct{}
}

// MarkRead records that docID was read in this session, satisfying the
// read-before-edit precondition editengine checks (spec.md §4.8).
func (s *Session) MarkRead(docID string) {
	s.mu.Lock()
	s.readDocs[docID] = struct{}{}
	s.mu.Unlock()
}

// HasRead reports whether docID was read in this session.
func (s *Session) HasRead(docID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.readDocs[docID]
	return ok
}

// Manager owns the live session table. The zero value is not usable;
// construct with New.
type Manager struct {
	ttl time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
	lastSwept time.Time
}

func New(ttl time.Duration) *Manager {
	return &Manager{
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Create mints a new session with an opaque, unguessable id.
func (m *Manager) Create(protocolVersion string, client ClientInfo) *Session {
	now := time.Now()
	s := &Session{
		ID:              newSessionID(),
		ProtocolVersion: protocolVersion,
		Client:          client,
		CreatedAt:       now,
		LastActivity:    now,
		readDocs:        make(map[string]struct{}),
	}

	m.mu.Lock()
	m.sweepLocked(now)
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()
	metrics.SessionsActive.Set(float64(count))
	return s
}

// Get looks up a session by id, touching its last-activity timestamp. Every
// call invokes the lazy TTL sweep (throttled, see sweepLocked) rather than
// relying on a dedicated goroutine, per spec.md §4.6 ("no background sweep
// timer required"); a session idle past the TTL is never returned, even
// when the throttled sweep skipped this call.
func (m *Manager) Get(id string) (*Session, bool) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked(now)
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	if m.ttl > 0 && now.Sub(s.LastActivity) > m.ttl {
		delete(m.sessions, id)
		return nil, false
	}
	s.LastActivity = now
	return s, true
}

// MarkInitialized records that the session completed the MCP handshake
// (the "notifications/initialized" message).
func (m *Manager) MarkInitialized(id string) bool {
	s, ok := m.Get(id)
	if !ok {
		return false
	}
	s.Initialized = true
	return true
}

// Remove deletes a session immediately, e.g. on explicit client teardown.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()
	metrics.SessionsActive.Set(float64(count))
}

// Count reports the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// sweepLocked removes sessions idle past the TTL. Must be called with m.mu
// held. Runs at most once per TTL/4 interval so a hot path of Get calls
// doesn't re-scan the whole table every time.
func (m *Manager) sweepLocked(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	if !m.lastSwept.IsZero() && now.Sub(m.lastSwept) < m.ttl/4 {
		return
	}
	m.lastSwept = now
	for id, s := range m.sessions {
		if now.Sub(s.LastActivity) > m.ttl {
			delete(m.sessions, id)
		}
	}
}

func newSessionID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing is unrecoverable; the process has no safe way
		// to mint unguessable ids.
		panic("mcpsession: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}
