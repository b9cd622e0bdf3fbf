package session

import "testing"

func TestBroadcasterDropsWhenQueueFull(t *testing.T) {
	var drops []uint64
	b := NewBroadcaster(1, func(id string, dropped uint64) {
		if id != "p1" {
			t.Fatalf("unexpected drop for %s", id)
		}
		drops = append(drops, dropped)
	})
	ch := b.Register("p1")

	if !b.SendTo("p1", Outbound{Event: "a"}) {
		t.Fatalf("expected first send to queue")
	}
	if b.SendTo("p1", Outbound{Event: "b"}) {
		t.Fatalf("expected second send to be dropped")
	}
	b.Broadcast(Outbound{Event: "c"})
	if len(drops) != 2 || drops[1] != 2 {
		t.Fatalf("expected cumulative drop counts, got %v", drops)
	}
	if msg := <-ch; msg.Event != "a" {
		t.Fatalf("expected queued message a, got %s", msg.Event)
	}
	if b.SendTo("missing", Outbound{}) {
		t.Fatalf("expected send to unknown subscriber to fail")
	}
}

func TestBroadcasterRegisterReplacesQueue(t *testing.T) {
	b := NewBroadcaster(4, nil)
	first := b.Register("p1")
	second := b.Register("p1")

	if _, ok := <-first; ok {
		t.Fatalf("expected replaced queue to be closed")
	}
	if b.Unregister("p1", first) {
		t.Fatalf("stale queue must not unregister the live one")
	}
	b.SendMany([]string{"p1", "p2"}, Outbound{Event: "x"})
	if msg := <-second; msg.Event != "x" {
		t.Fatalf("expected live queue to receive, got %s", msg.Event)
	}
	if !b.Unregister("p1", second) || b.SubscriberCount() != 0 {
		t.Fatalf("expected live queue to unregister")
	}
}
