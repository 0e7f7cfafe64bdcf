package events

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/greenpoint-eco/greenpoint/internal/domain"
	"github.com/greenpoint-eco/greenpoint/internal/infra/observability"
)

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	b := NewBus(nil)
	var got1, got2 []domain.EventKind
	b.Subscribe(func(ev domain.Event) { got1 = append(got1, ev.Kind()) })
	b.Subscribe(func(ev domain.Event) { got2 = append(got2, ev.Kind()) })

	b.Publish(domain.TeamScoreChanged{TeamID: "team-1", NewScore: 10, PointChange: 10})
	b.Publish(domain.UserDataChanged{UserID: "u1"})

	if len(got1) != 2 || len(got2) != 2 {
		t.Fatalf("expected 2 events each, got %d and %d", len(got1), len(got2))
	}
	if got1[0] != domain.KindTeamScoreChanged || got1[1] != domain.KindUserDataChanged {
		t.Errorf("unexpected order for single subscriber: %v", got1)
	}
}

func TestBus_OnlyEventsAfterSubscribe(t *testing.T) {
	b := NewBus(nil)
	b.Publish(domain.UserDataChanged{UserID: "early"})

	var seen []string
	b.Subscribe(func(ev domain.Event) {
		seen = append(seen, ev.(domain.UserDataChanged).UserID)
	})
	b.Publish(domain.UserDataChanged{UserID: "late"})

	if len(seen) != 1 || seen[0] != "late" {
		t.Errorf("seen = %v, want [late]", seen)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := NewBus(nil)
	count := 0
	unsub := b.Subscribe(func(domain.Event) { count++ })

	b.Publish(domain.UserDataChanged{})
	unsub()
	unsub() // idempotent
	b.Publish(domain.UserDataChanged{})

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if b.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", b.SubscriberCount())
	}
}

func TestBus_UnsubscribeFromHandler(t *testing.T) {
	b := NewBus(nil)
	count := 0
	var unsub func()
	unsub = b.Subscribe(func(domain.Event) {
		count++
		unsub()
	})

	b.Publish(domain.UserDataChanged{})
	b.Publish(domain.UserDataChanged{})

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestBus_PanickingHandlerIsIsolated(t *testing.T) {
	b := NewBus(nil)
	delivered := 0
	b.Subscribe(func(domain.Event) { panic("boom") })
	b.Subscribe(func(domain.Event) { delivered++ })

	panics := observability.EventHandlerPanics.WithLabelValues(string(domain.KindUserDataChanged))
	before := testutil.ToFloat64(panics)

	b.Publish(domain.UserDataChanged{})
	b.Publish(domain.UserDataChanged{})

	if delivered != 2 {
		t.Errorf("second subscriber got %d events, want 2", delivered)
	}
	if got := testutil.ToFloat64(panics) - before; got != 2 {
		t.Errorf("recorded panics = %v, want 2", got)
	}
}

func TestBus_SubscribeChan_DropsWhenFull(t *testing.T) {
	b := NewBus(nil)
	ch, unsub := b.SubscribeChan(1)
	defer unsub()

	b.Publish(domain.TeamScoreChanged{TeamID: "a"})
	b.Publish(domain.TeamScoreChanged{TeamID: "b"}) // dropped

	ev := <-ch
	if ev.(domain.TeamScoreChanged).TeamID != "a" {
		t.Errorf("first event = %v, want team a", ev)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected buffered event %v", extra)
	default:
	}
}

func TestBus_ConcurrentPublishSubscribe(t *testing.T) {
	b := NewBus(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub := b.Subscribe(func(domain.Event) {})
			unsub()
		}()
		go func() {
			defer wg.Done()
			b.Publish(domain.UserStatsChanged{UserID: "u"})
		}()
	}
	wg.Wait()
}
