package types

import "sync"

// DebugLog keeps the most recent diagnostic notes for the on-screen overlay.
// It is written by the control loop and read by the display.
type DebugLog struct {
	mu      sync.Mutex
	enabled bool
	lines   []string
	maxLogs int
}

// NewDebugLog creates a debug log holding at most maxLogs lines.
func NewDebugLog(maxLogs int) *DebugLog {
	return &DebugLog{maxLogs: maxLogs, enabled: true}
}

// Log adds a message to the buffer, dropping the oldest when full.
func (d *DebugLog) Log(message string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.enabled || message == "" {
		return
	}
	d.lines = append(d.lines, message)
	if len(d.lines) > d.maxLogs {
		d.lines = d.lines[len(d.lines)-d.maxLogs:]
	}
}

// Lines returns a copy of the buffered messages, oldest first.
func (d *DebugLog) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	lines := make([]string, len(d.lines))
	copy(lines, d.lines)
	return lines
}

// Toggle flips whether new messages are kept and reports the new setting.
// Disabling clears the buffer.
func (d *DebugLog) Toggle() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.enabled = !d.enabled
	if !d.enabled {
		d.lines = nil
	}
	return d.enabled
}

// Enabled reports whether messages are being kept.
func (d *DebugLog) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}
