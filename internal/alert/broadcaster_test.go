package alert

import (
	"sync"
	"testing"
	"time"

	"github.com/arjunkp/crowdshield/internal/models"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func change(from, to models.SeverityLevel) SeverityChange {
	return SeverityChange{From: from, To: to, Combined: 0.6, At: time.Now()}
}

func TestBroadcaster_SubscribeAndReceive(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	sent := change(models.SeverityLow, models.SeverityHigh)
	b.Broadcast(sent)

	select {
	case got := <-ch:
		if got.To != models.SeverityHigh {
			t.Errorf("expected HIGH, got %s", got.To)
		}
		if !got.Escalated() {
			t.Error("LOW -> HIGH should report as escalation")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestBroadcaster_MultipleSubscribers(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	const n = 5
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		_, ch := b.Subscribe()
		wg.Add(1)
		go func(ch chan SeverityChange) {
			defer wg.Done()
			<-ch
		}(ch)
	}

	if b.SubscriberCount() != n {
		t.Fatalf("expected %d subscribers, got %d", n, b.SubscriberCount())
	}

	b.Broadcast(change(models.SeverityModerate, models.SeverityCritical))
	wg.Wait()
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	id, ch := b.Subscribe()
	b.Unsubscribe(id)

	if _, open := <-ch; open {
		t.Error("channel should be closed after unsubscribe")
	}
	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", b.SubscriberCount())
	}
}

func TestBroadcaster_SlowSubscriberSkipped(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()

	// Fill the buffer without draining; broadcasts beyond it must not block.
	_, _ = b.Subscribe()
	for i := 0; i < 100; i++ {
		b.Broadcast(change(models.SeverityLow, models.SeverityModerate))
	}
}

func TestSeverityChange_Escalated(t *testing.T) {
	if change(models.SeverityHigh, models.SeverityLow).Escalated() {
		t.Error("HIGH -> LOW is a de-escalation")
	}
	if change(models.SeverityLow, models.SeverityLow).Escalated() {
		t.Error("no level change is not an escalation")
	}
}
