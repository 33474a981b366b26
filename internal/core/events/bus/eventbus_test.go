package bus

import (
	"errors"
	"testing"
)

type testObserver struct {
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got Event
	_, err := b.Subscribe("test.event", func(e Event) error {
		got = e
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err = b.Publish(NewEvent("test.event", "tester", 123)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got == nil || got.Data() != 123 || got.Source() != "tester" {
		t.Fatalf("handler not called with event: %#v", got)
	}
}

func TestDeliveryFollowsSubscriptionOrder(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 5; i++ {
		_, _ = b.Subscribe("ev", func(Event) error { order = append(order, i); return nil })
	}
	_ = b.Publish(NewEvent("ev", "src", nil))
	for i, v := range order {
		if v != i {
			t.Fatalf("unexpected delivery order: %v", order)
		}
	}
	if len(order) != 5 {
		t.Fatalf("expected 5 deliveries, got %d", len(order))
	}
}

func TestPublishJoinsHandlerErrors(t *testing.T) {
	b := New()
	errA := errors.New("a")
	errB := errors.New("b")
	_, _ = b.Subscribe("x", func(Event) error { return errA })
	_, _ = b.Subscribe("x", func(Event) error { return errB })
	err := b.PublishBatch(NewEvent("x", "src", nil), NewEvent("y", "src", nil))
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected joined error, got %v", err)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	count := 0
	sub, _ := b.Subscribe("ev", func(Event) error { count++; return nil })
	_ = b.Publish(NewEvent("ev", "src", nil))
	if err := b.Unsubscribe(sub); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if sub.IsActive() {
		t.Fatal("subscription still active after cancel")
	}
	_ = sub.Cancel()
	_ = b.Publish(NewEvent("ev", "src", nil))
	if count != 1 {
		t.Fatalf("expected one delivery, got %d", count)
	}
	if err := b.Unsubscribe(nil); err != nil {
		t.Fatalf("nil unsubscribe: %v", err)
	}
}

func TestObserverMetricsOptional(t *testing.T) {
	b := New()
	_, _ = b.Subscribe("e", func(e Event) error { return nil })
	_ = b.Publish(NewEvent("e", "s", nil))
	if m := b.GetMetrics(); m.Published != 0 || m.DeliveredHandlers != 0 {
		t.Fatalf("metrics should be zero without observers: %+v", m)
	}
	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	m := b.GetMetrics()
	if m.Published != 1 || m.DeliveredHandlers != 1 || m.SubscribersActive != 1 {
		t.Fatalf("metrics should update with observer: %+v", m)
	}
	if obs.deliveredCount != 1 {
		t.Fatalf("observer not called: %+v", obs)
	}
	b.RemoveObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	if obs.deliveredCount != 1 {
		t.Fatalf("removed observer still called: %+v", obs)
	}
}

func TestSubscribeRejectsNilHandler(t *testing.T) {
	if _, err := New().Subscribe("e", nil); err == nil {
		t.Fatal("expected error for nil handler")
	}
}

func TestCancelConcurrentWithPublish(t *testing.T) {
	b := New()
	sub, _ := b.Subscribe("ev", func(Event) error { return nil })
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = b.Publish(NewEvent("ev", "src", i))
		}
	}()
	_ = sub.Cancel()
	<-done
	if sub.IsActive() {
		t.Fatal("subscription still active after cancel")
	}
}
