package domain

import "sync"

// TempEntry is one synthesized file registered for cleanup.
type TempEntry struct {
	Path string `json:"path"`
	Role Role   `json:"role"`
}

// TempLedger tracks synthesized temporary files in registration order.
// A ledger belongs to a single run.
type TempLedger struct {
	mu      sync.Mutex
	entries []TempEntry
}

func NewTempLedger() *TempLedger {
	return &TempLedger{}
}

func (l *TempLedger) Register(path string, role Role) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, TempEntry{Path: path, Role: role})
}

// All returns a copy of the entries in registration order.
func (l *TempLedger) All() []TempEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]TempEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *TempLedger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
