package game

import (
	"sort"
	"sync"
)

// Registry holds the live game session of each channel.
// It is the sole admission-control gate: at most one session may be
// registered per channel at any instant. An instance is injected into
// every component that needs it; there is no package-level registry.
type Registry struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Register admits a session for its channel.
// It returns false, registering nothing, if the channel already has a
// live session.
func (r *Registry) Register(channelID string, s *Session) bool {
	if s == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[channelID]; exists {
		return false
	}
	r.sessions[channelID] = s
	return true
}

// Get returns the live session for a channel, or nil.
func (r *Registry) Get(channelID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[channelID]
}

// Unregister removes the channel's entry only if the registered session
// is the same instance, so a stale session can never evict the one that
// replaced it. It reports whether this call removed the entry; under
// concurrent end attempts exactly one caller observes true, and only
// that caller may commit end-of-round side effects.
func (r *Registry) Unregister(channelID string, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sessions[channelID]; ok && current == s {
		delete(r.sessions, channelID)
		return true
	}
	return false
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Channels returns the channels with a live session, sorted.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		channels = append(channels, id)
	}
	sort.Strings(channels)
	return channels
}

// Sessions returns a snapshot of the live sessions.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}
