package watcher

import (
	"encoding/json"
	"fmt"
)

// HistorySize is the number of recently scrobbled labels remembered for
// deduplication. Old enough repeats fall outside the window and scrobble
// again.
const HistorySize = 5

// History is a fixed-capacity FIFO of the labels whose sessions were
// closed and scrobbled. Empty slots hold the empty string, which never
// matches a real label because labels in the default set are never
// checked against history.
type History struct {
	labels []string
}

// NewHistory returns an empty history with all slots pre-filled
func NewHistory() *History {
	return &History{labels: make([]string, HistorySize)}
}

// Contains reports whether label occupies any slot
func (h *History) Contains(label string) bool {
	for _, l := range h.labels {
		if l != "" && l == label {
			return true
		}
	}
	return false
}

// Push inserts label, evicting the oldest entry
func (h *History) Push(label string) {
	h.labels = append(h.labels[1:], label)
}

// Labels returns a copy of the slots, oldest first
func (h *History) Labels() []string {
	out := make([]string, len(h.labels))
	copy(out, h.labels)
	return out
}

// Encode renders the history for slot storage
func (h *History) Encode() (string, error) {
	data, err := json.Marshal(h.labels)
	if err != nil {
		return "", fmt.Errorf("failed to encode history: %w", err)
	}
	return string(data), nil
}

// DecodeHistory parses a stored history. A malformed or wrongly sized
// value yields a fresh history rather than an error, so a corrupt slot
// cannot wedge the watcher.
func DecodeHistory(value string) *History {
	var labels []string
	if err := json.Unmarshal([]byte(value), &labels); err != nil || len(labels) != HistorySize {
		return NewHistory()
	}
	return &History{labels: labels}
}
