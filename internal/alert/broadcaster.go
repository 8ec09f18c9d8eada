// Package alert distributes severity transitions to external alerting
// collaborators. The core only exposes transitions; SMS/TTS delivery and
// rendering belong to the consumers.
package alert

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/arjunkp/crowdshield/internal/models"
)

// SeverityChange is emitted when the fused severity level crosses a
// threshold between refresh cycles.
type SeverityChange struct {
	From     models.SeverityLevel `json:"from"`
	To       models.SeverityLevel `json:"to"`
	Combined float64              `json:"combined_score"`
	At       time.Time            `json:"at"`
}

// Escalated reports whether the transition moved up the severity ladder.
func (c SeverityChange) Escalated() bool {
	return c.To.Above(c.From)
}

type Broadcaster struct {
	subscribers map[uint64]chan SeverityChange
	nextID      atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan SeverityChange),
	}
}

func (b *Broadcaster) Subscribe() (uint64, chan SeverityChange) {
	id := b.nextID.Add(1)
	ch := make(chan SeverityChange, 16)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Broadcast(change SeverityChange) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- change:
		default:
			// Skip slow subscribers
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels so consumers exit gracefully.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
