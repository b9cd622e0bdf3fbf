package session

import (
	"sync"
	"sync/atomic"
)

// DefaultOutboundBuffer is the per-connection queue length.
const DefaultOutboundBuffer = 64

// Outbound is one server event queued for a connection. Encoding happens on
// the connection's writer with its negotiated codec.
type Outbound struct {
	Event string
	Data  any
}

type subscriber struct {
	ch      chan Outbound
	dropped atomic.Uint64
}

// Broadcaster fans events out to per-player queues. Sends never block: a
// full queue drops the message and reports the drop.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	buffer      int
	onDrop      func(id string, dropped uint64)
}

// NewBroadcaster constructs a broadcaster. onDrop may be nil.
func NewBroadcaster(buffer int, onDrop func(id string, dropped uint64)) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultOutboundBuffer
	}
	return &Broadcaster{
		subscribers: make(map[string]*subscriber),
		buffer:      buffer,
		onDrop:      onDrop,
	}
}

// Register opens a fresh queue for id, closing any previous one.
func (b *Broadcaster) Register(id string) <-chan Outbound {
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.subscribers[id]; ok {
		close(old.ch)
	}
	sub := &subscriber{ch: make(chan Outbound, b.buffer)}
	b.subscribers[id] = sub
	return sub.ch
}

// Unregister closes id's queue if it is still the one given. A stale queue
// replaced by a later Register is left alone.
func (b *Broadcaster) Unregister(id string, ch <-chan Outbound) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subscribers[id]
	if !ok || (<-chan Outbound)(sub.ch) != ch {
		return false
	}
	close(sub.ch)
	delete(b.subscribers, id)
	return true
}

// SendTo queues msg for one subscriber.
func (b *Broadcaster) SendTo(id string, msg Outbound) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sub, ok := b.subscribers[id]
	if !ok {
		return false
	}
	return b.offer(id, sub, msg)
}

// SendMany queues msg for each listed subscriber.
func (b *Broadcaster) SendMany(ids []string, msg Outbound) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, id := range ids {
		if sub, ok := b.subscribers[id]; ok {
			b.offer(id, sub, msg)
		}
	}
}

// Broadcast queues msg for every subscriber.
func (b *Broadcaster) Broadcast(msg Outbound) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, sub := range b.subscribers {
		b.offer(id, sub, msg)
	}
}

func (b *Broadcaster) offer(id string, sub *subscriber, msg Outbound) bool {
	select {
	case sub.ch <- msg:
		return true
	default:
		dropped := sub.dropped.Add(1)
		if b.onDrop != nil {
			b.onDrop(id, dropped)
		}
		return false
	}
}

// SubscriberCount returns the number of open queues.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
