package waves

import (
	"time"

	"coop-defense/server/internal/catalog"
)

// Kind distinguishes queued wave events.
type Kind uint8

const (
	// KindSpawn creates one enemy.
	KindSpawn Kind = iota + 1
	// KindFallback runs the delayed round-completion check.
	KindFallback
)

func (k Kind) String() string {
	switch k {
	case KindSpawn:
		return "spawn"
	case KindFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Event is one scheduled entry. FireAt is measured on the owning room's
// simulation clock.
type Event struct {
	RoomID string
	Round  int
	Kind   Kind
	Enemy  catalog.EnemyKind
	FireAt time.Duration

	seq   uint64
	index int
}

// eventQueue is a min-heap ordered by fire time, then by insertion order.
type eventQueue []*Event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].FireAt != q[j].FireAt {
		return q[i].FireAt < q[j].FireAt
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *eventQueue) Push(x any) {
	event := x.(*Event)
	event.index = len(*q)
	*q = append(*q, event)
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	event := old[n-1]
	old[n-1] = nil
	event.index = -1
	*q = old[:n-1]
	return event
}
