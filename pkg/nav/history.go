package nav

import "sync"

// historyDepth is the number of entries HistoryStack keeps.
const historyDepth = 2

// HistoryEntry is one committed title/state pair.
type HistoryEntry struct {
	Title string
	State string
}

// HistoryStack remembers the last two committed entries. It mirrors the
// browser history only far enough to know what to go back to when an overlay
// closes.
type HistoryStack struct {
	mu      sync.Mutex
	entries []HistoryEntry
}

// NewHistoryStack creates an empty stack.
func NewHistoryStack() *HistoryStack {
	return &HistoryStack{entries: make([]HistoryEntry, 0, historyDepth)}
}

// Push appends an entry, evicting the oldest once the stack is full.
func (h *HistoryStack) Push(title, state string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == historyDepth {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:historyDepth-1]
	}
	h.entries = append(h.entries, HistoryEntry{Title: title, State: state})
}

// ReplaceTop overwrites the most recent entry, or pushes when empty.
func (h *HistoryStack) ReplaceTop(title, state string) {
	h.mu.Lock()
	if n := len(h.entries); n > 0 {
		h.entries[n-1] = HistoryEntry{Title: title, State: state}
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()
	h.Push(title, state)
}

// Current returns the most recent entry.
func (h *HistoryStack) Current() (HistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return HistoryEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// Previous returns the entry before the most recent one, or the only entry
// when just one exists.
func (h *HistoryStack) Previous() (HistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch n := len(h.entries); n {
	case 0:
		return HistoryEntry{}, false
	case 1:
		return h.entries[0], true
	default:
		return h.entries[n-2], true
	}
}

// Len returns the number of entries, never more than two.
func (h *HistoryStack) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
