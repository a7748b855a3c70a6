package input

import (
	"sync"

	"onelane/types"
)

// Mailbox holds the most recent frame. Publishing replaces whatever was there;
// frames that were never taken are dropped.
type Mailbox struct {
	mu     sync.Mutex
	latest *types.Frame
}

// Publish stores f as the latest frame.
func (m *Mailbox) Publish(f *types.Frame) {
	m.mu.Lock()
	m.latest = f
	m.mu.Unlock()
}

// TakeLatest returns the latest frame without removing it, so a fast consumer may see
// the same frame more than once.
func (m *Mailbox) TakeLatest() (*types.Frame, bool) {
	m.mu.Lock()
	f := m.latest
	m.mu.Unlock()
	return f, f != nil
}
