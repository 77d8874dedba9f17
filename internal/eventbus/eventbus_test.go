package eventbus

import "testing"

type note struct {
	seq int
}

func TestPublishFanOut(t *testing.T) {
	bus := New[note]()
	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.Publish(note{seq: 1})

	if got := <-a; got.seq != 1 {
		t.Fatalf("subscriber a: got seq %d, want 1", got.seq)
	}
	if got := <-b; got.seq != 1 {
		t.Fatalf("subscriber b: got seq %d, want 1", got.seq)
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	bus := NewBuffered[note](1)
	sub := bus.Subscribe()

	bus.Publish(note{seq: 1})
	bus.Publish(note{seq: 2}) // buffer full, dropped

	if got := <-sub; got.seq != 1 {
		t.Fatalf("got seq %d, want 1", got.seq)
	}
	select {
	case extra, ok := <-sub:
		if ok {
			t.Fatalf("unexpected event %v", extra)
		}
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New[note]()
	sub := bus.Subscribe()
	bus.Unsubscribe(sub)

	if _, ok := <-sub; ok {
		t.Fatalf("expected closed channel after unsubscribe")
	}
	bus.Publish(note{seq: 9}) // must not panic
}

func TestCloseStopsDelivery(t *testing.T) {
	bus := New[note]()
	sub := bus.Subscribe()
	bus.Close()

	if _, ok := <-sub; ok {
		t.Fatalf("expected closed channel after bus close")
	}
	if late := bus.Subscribe(); late == nil {
		t.Fatalf("subscribe after close should return a closed channel")
	}
}
