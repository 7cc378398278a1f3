package app

import (
	"sync"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/logger"
)

// Pusher one live connection handle the registry can deliver to
type Pusher interface {
	Push(resp domain.WSResponse) error
}

// PresenceRegistry single source of truth for which users are reachable.
// One user owns zero or more handles (multi-device); the online/offline
// transition is decided on the handle set's emptiness inside the lock, so
// concurrent connects and disconnects for the same user can never flip the
// state out of order.
type PresenceRegistry struct {
	mu      sync.RWMutex
	entries map[string]map[Pusher]struct{}
}

// NewPresenceRegistry create an empty registry
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		entries: make(map[string]map[Pusher]struct{}),
	}
}

// Register adds the handle to the user's entry. Returns true when this is
// the user's first handle, i.e. the user just came online.
func (p *PresenceRegistry) Register(userID string, h Pusher) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	handles, ok := p.entries[userID]
	if !ok {
		handles = make(map[Pusher]struct{})
		p.entries[userID] = handles
	}
	wasEmpty := len(handles) == 0
	handles[h] = struct{}{}
	return wasEmpty
}

// Unregister removes the handle. Returns true when the user's entry became
// empty, i.e. the user just went offline. Removing a handle that was never
// registered (or was already superseded) never reports an offline
// transition for a user who still has live handles.
func (p *PresenceRegistry) Unregister(userID string, h Pusher) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	handles, ok := p.entries[userID]
	if !ok {
		return false
	}
	if _, registered := handles[h]; !registered {
		return false
	}
	delete(handles, h)
	if len(handles) == 0 {
		delete(p.entries, userID)
		return true
	}
	return false
}

// IsReachable reports whether the user has at least one live handle
func (p *PresenceRegistry) IsReachable(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries[userID]) > 0
}

// HandlesFor snapshot of the user's live handles
func (p *PresenceRegistry) HandlesFor(userID string) []Pusher {
	p.mu.RLock()
	defer p.mu.RUnlock()

	handles := make([]Pusher, 0, len(p.entries[userID]))
	for h := range p.entries[userID] {
		handles = append(handles, h)
	}
	return handles
}

// PushTo delivers resp to every live handle of userID, at most once per
// handle. A handle that errors at push time is skipped; its own disconnect
// path cleans it up. Returns the number of successful pushes.
func (p *PresenceRegistry) PushTo(userID string, resp domain.WSResponse) int {
	delivered := 0
	for _, h := range p.HandlesFor(userID) {
		if err := h.Push(resp); err != nil {
			logger.Log.Errorf("push to dead handle skipped:", err)
			continue
		}
		delivered++
	}
	return delivered
}

// Broadcast delivers resp to every handle of every user. Used for global
// presence transitions.
func (p *PresenceRegistry) Broadcast(resp domain.WSResponse) {
	p.mu.RLock()
	all := make([]Pusher, 0, len(p.entries))
	for _, handles := range p.entries {
		for h := range handles {
			all = append(all, h)
		}
	}
	p.mu.RUnlock()

	for _, h := range all {
		if err := h.Push(resp); err != nil {
			logger.Log.Errorf("broadcast push skipped:", err)
		}
	}
}
