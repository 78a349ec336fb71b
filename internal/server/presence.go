package server

import (
	"sort"
	"sync"
	"time"
)

// typingWindow is the inactivity window after which a typing indicator
// expires without an explicit stop event.
const typingWindow = 5 * time.Second

// presenceTracker maintains the typing set. Entries carry the time they
// were recorded so that a periodic sweep can expire stale indicators.
// The online set is derived from the connection registry, not stored here.
type presenceTracker struct {
	mu     sync.Mutex
	typing map[string]time.Time
	window time.Duration
}

func newPresenceTracker(window time.Duration) *presenceTracker {
	return &presenceTracker{
		typing: make(map[string]time.Time),
		window: window,
	}
}

// markTyping records a typing indicator for username. It reports whether
// the typing set changed.
func (p *presenceTracker) markTyping(username string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, present := p.typing[username]
	p.typing[username] = time.Now()
	return !present
}

// clearTyping removes username's typing indicator. Removal is idempotent
// so an explicit stop racing a sweep expiry is harmless.
func (p *presenceTracker) clearTyping(username string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, present := p.typing[username]; !present {
		return false
	}
	delete(p.typing, username)
	return true
}

// sweepExpired removes entries recorded more than window before now and
// returns the usernames that were removed.
func (p *presenceTracker) sweepExpired(now time.Time) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var expired []string
	for username, at := range p.typing {
		if now.Sub(at) > p.window {
			delete(p.typing, username)
			expired = append(expired, username)
		}
	}

	sort.Strings(expired)
	return expired
}

// typingUsers returns a sorted snapshot of the typing set.
func (p *presenceTracker) typingUsers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	users := make([]string, 0, len(p.typing))
	for username := range p.typing {
		users = append(users, username)
	}

	sort.Strings(users)
	return users
}
