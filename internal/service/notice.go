package service

import (
	"sync"
	"time"
)

// DefaultNoticeTTL is how long a notice stays up when no TTL is configured.
const DefaultNoticeTTL = 5 * time.Second

// Notifier holds the single error message area of the UI. Each Show
// replaces the message and restarts the dismissal timer.
type Notifier struct {
	ttl time.Duration

	mu      sync.Mutex
	message string
	timer   *time.Timer
	gen     uint64
}

// NewNotifier returns a Notifier that clears messages after ttl.
func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &Notifier{ttl: ttl}
}

// Show displays message and schedules its removal. A pending removal of
// an earlier message is cancelled.
func (n *Notifier) Show(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
	}
	n.gen++
	gen := n.gen
	n.message = message
	n.timer = time.AfterFunc(n.ttl, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		// A timer that fired while Show held the lock must not clear the newer message.
		if n.gen == gen {
			n.message = ""
			n.timer = nil
		}
	})
}

// Message returns the text currently displayed, or "".
func (n *Notifier) Message() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.message
}

// Clear removes the message now.
func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.gen++
	n.message = ""
}
