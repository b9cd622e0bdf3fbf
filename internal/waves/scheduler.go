// Package waves expands wave definitions into a timed queue of spawn events
// driven by a room's own clock. Nothing here starts timers; the owning
// simulation polls Due once per tick.
package waves

import (
	"container/heap"
	"time"

	"coop-defense/server/internal/catalog"
)

// FallbackBuffer is added after the last scheduled spawn before the
// round-completion fallback fires.
const FallbackBuffer = 5000 * time.Millisecond

const (
	scheduledMetricKey = "waves_scheduled_events_total"
	cancelledMetricKey = "waves_cancelled_events_total"
)

type telemetryMetrics interface {
	Add(string, uint64)
}

// Scheduler owns the pending wave events of one room. It is not safe for
// concurrent use; the room serialises access under its own lock.
type Scheduler struct {
	roomID  string
	queue   eventQueue
	seq     uint64
	metrics telemetryMetrics
}

// NewScheduler returns an empty scheduler whose events are tagged with roomID.
func NewScheduler(roomID string, metrics telemetryMetrics) *Scheduler {
	return &Scheduler{roomID: roomID, metrics: metrics}
}

// Schedule queues every spawn of wave relative to now, followed by the
// fallback check. Each group starts after its delay with spawns spaced by
// its spacing; the running offset then advances by delay + count*spacing.
// It returns the total spawn span before the fallback buffer.
func (s *Scheduler) Schedule(now time.Duration, wave catalog.WaveDefinition) time.Duration {
	var offset time.Duration
	before := s.queue.Len()
	for _, group := range wave.Groups {
		for i := 0; i < group.Count; i++ {
			s.push(&Event{
				RoomID: s.roomID,
				Round:  wave.Round,
				Kind:   KindSpawn,
				Enemy:  group.Enemy,
				FireAt: now + offset + group.Delay + time.Duration(i)*group.Spacing,
			})
		}
		offset += group.Delay + time.Duration(group.Count)*group.Spacing
	}
	s.push(&Event{
		RoomID: s.roomID,
		Round:  wave.Round,
		Kind:   KindFallback,
		FireAt: now + offset + FallbackBuffer,
	})
	if s.metrics != nil {
		s.metrics.Add(scheduledMetricKey, uint64(s.queue.Len()-before))
	}
	return offset
}

func (s *Scheduler) push(event *Event) {
	s.seq++
	event.seq = s.seq
	heap.Push(&s.queue, event)
}

// Due pops every event whose fire time is at or before now, in fire order.
func (s *Scheduler) Due(now time.Duration) []Event {
	var due []Event
	for s.queue.Len() > 0 && s.queue[0].FireAt <= now {
		event := heap.Pop(&s.queue).(*Event)
		due = append(due, *event)
	}
	return due
}

// PendingSpawns counts queued spawn events for a round.
func (s *Scheduler) PendingSpawns(round int) int {
	count := 0
	for _, event := range s.queue {
		if event.Kind == KindSpawn && event.Round == round {
			count++
		}
	}
	return count
}

// Len reports every queued event, fallbacks included.
func (s *Scheduler) Len() int {
	return s.queue.Len()
}

// NextAt returns the fire time of the earliest queued event.
func (s *Scheduler) NextAt() (time.Duration, bool) {
	if s.queue.Len() == 0 {
		return 0, false
	}
	return s.queue[0].FireAt, true
}

// CancelRoom removes every event tagged with roomID and returns how many
// were dropped.
func (s *Scheduler) CancelRoom(roomID string) int {
	kept := s.queue[:0]
	removed := 0
	for _, event := range s.queue {
		if event.RoomID == roomID {
			event.index = -1
			removed++
			continue
		}
		kept = append(kept, event)
	}
	for i := len(kept); i < len(s.queue); i++ {
		s.queue[i] = nil
	}
	s.queue = kept
	for i, event := range s.queue {
		event.index = i
	}
	heap.Init(&s.queue)
	if removed > 0 && s.metrics != nil {
		s.metrics.Add(cancelledMetricKey, uint64(removed))
	}
	return removed
}
