package tui

import "strings"

// History keeps submitted input lines for Up/Down recall. The line being
// typed when recall starts is kept as a draft and restored when the player
// scrolls back past the newest entry.
type History struct {
	entries []string
	max     int
	offset  int // 0 = editing the draft, n = n-th newest entry
	draft   string
}

// NewHistory creates a history holding at most max entries.
func NewHistory(max int) *History {
	return &History{entries: make([]string, 0, max), max: max}
}

// Push records a submitted line. Blank lines and repeats of the newest entry
// are skipped. Recall restarts from the newest entry.
func (h *History) Push(line string) {
	h.offset = 0
	h.draft = ""
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Prev steps to an older entry. current is the unsubmitted input, saved as
// the draft on the first step. The oldest entry repeats at the boundary.
func (h *History) Prev(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.offset == 0 {
		h.draft = current
	}
	if h.offset < len(h.entries) {
		h.offset++
	}
	return h.entries[len(h.entries)-h.offset], true
}

// Next steps to a newer entry. Stepping past the newest entry returns the
// draft; after that there is nothing newer.
func (h *History) Next() (string, bool) {
	if h.offset == 0 {
		return "", false
	}
	h.offset--
	if h.offset == 0 {
		return h.draft, true
	}
	return h.entries[len(h.entries)-h.offset], true
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	return len(h.entries)
}
