package risk

import "github.com/arjunkp/crowdshield/internal/models"

// DefaultHistoryCap is the hard cap on retained entries guaranteed to
// history consumers.
const DefaultHistoryCap = 50

// History is a FIFO ring of fused scores, owned by exactly one session.
// Insertion order is chronological; the oldest entry is evicted first.
type History struct {
	entries []models.RiskHistoryEntry
	start   int
	count   int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &History{entries: make([]models.RiskHistoryEntry, capacity)}
}

func (h *History) Append(e models.RiskHistoryEntry) {
	idx := (h.start + h.count) % len(h.entries)
	h.entries[idx] = e
	if h.count < len(h.entries) {
		h.count++
		return
	}
	h.start = (h.start + 1) % len(h.entries)
}

// Entries returns a chronological copy of the retained entries.
func (h *History) Entries() []models.RiskHistoryEntry {
	out := make([]models.RiskHistoryEntry, 0, h.count)
	for i := 0; i < h.count; i++ {
		out = append(out, h.entries[(h.start+i)%len(h.entries)])
	}
	return out
}

func (h *History) Len() int {
	return h.count
}

func (h *History) Latest() (models.RiskHistoryEntry, bool) {
	if h.count == 0 {
		return models.RiskHistoryEntry{}, false
	}
	return h.entries[(h.start+h.count-1)%len(h.entries)], true
}
