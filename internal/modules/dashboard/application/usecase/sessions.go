package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mesaYaWaitlist/internal/modules/dashboard/application/port"
)

// ClientFactory builds the client for a new session id.
type ClientFactory func(id string) *Client

type sessionEntry struct {
	client *Client
	views  int
}

// Sessions keeps the live front desk clients keyed by session id. A session
// is closed when its last view detaches or when it has had no view and no
// activity for longer than the idle TTL.
type Sessions struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry
	factory ClientFactory
	idleTTL time.Duration
	now     func() time.Time
	newID   func() string
}

// NewSessions builds an empty registry.
func NewSessions(factory ClientFactory, idleTTL time.Duration) *Sessions {
	return &Sessions{
		entries: make(map[string]*sessionEntry),
		factory: factory,
		idleTTL: idleTTL,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Create registers and mounts a new session.
func (s *Sessions) Create() *Client {
	id := s.newID()
	client := s.factory(id)
	s.mu.Lock()
	s.entries[id] = &sessionEntry{client: client}
	s.mu.Unlock()
	client.Mount()
	slog.Info("waitlist session created", slog.String("sessionId", id), slog.Int("sessions", s.Len()))
	return client
}

// Get returns a live session.
func (s *Sessions) Get(id string) (*Client, error) {
	s.mu.RLock()
	entry, ok := s.entries[strings.TrimSpace(id)]
	s.mu.RUnlock()
	if !ok || entry.client.Closed() {
		return nil, port.ErrSessionNotFound
	}
	return entry.client, nil
}

// GetOrCreate returns the live session for id or a freshly mounted one.
func (s *Sessions) GetOrCreate(id string) (*Client, bool) {
	if client, err := s.Get(id); err == nil {
		return client, false
	}
	return s.Create(), true
}

// Attach records an open view on the session.
func (s *Sessions) Attach(id string) (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[strings.TrimSpace(id)]
	if !ok || entry.client.Closed() {
		return nil, port.ErrSessionNotFound
	}
	entry.views++
	return entry.client, nil
}

// Detach records a closed view. When no view is left the session is
// unmounted: its pending requests are cancelled and it is forgotten.
func (s *Sessions) Detach(id string) {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	entry, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	entry.views--
	if entry.views > 0 {
		s.mu.Unlock()
		return
	}
	delete(s.entries, id)
	s.mu.Unlock()

	entry.client.Close()
	slog.Info("waitlist session unmounted", slog.String("sessionId", id))
}

// Each calls fn for every live session.
func (s *Sessions) Each(fn func(*Client)) {
	s.mu.RLock()
	clients := make([]*Client, 0, len(s.entries))
	for _, entry := range s.entries {
		clients = append(clients, entry.client)
	}
	s.mu.RUnlock()

	for _, client := range clients {
		if client.Closed() {
			continue
		}
		fn(client)
	}
}

// Len returns the number of registered sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Reap closes sessions without views that have been idle longer than the TTL.
func (s *Sessions) Reap() int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	stale := make([]*Client, 0)
	for id, entry := range s.entries {
		if entry.views > 0 && !entry.client.Closed() {
			continue
		}
		if entry.client.Closed() || entry.client.LastActive().Before(cutoff) {
			stale = append(stale, entry.client)
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()

	for _, client := range stale {
		client.Close()
	}
	if len(stale) > 0 {
		slog.Info("waitlist sessions reaped", slog.Int("count", len(stale)))
	}
	return len(stale)
}

// Run reaps idle sessions every interval until ctx ends, then closes every session.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.CloseAll()
			return
		case <-ticker.C:
			s.Reap()
		}
	}
}

// CloseAll closes and forgets every session.
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	entries := s.entries
	s.entries = make(map[string]*sessionEntry)
	s.mu.Unlock()
	for _, entry := range entries {
		entry.client.Close()
	}
}
