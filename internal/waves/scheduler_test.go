package waves

import (
	"testing"
	"time"

	"coop-defense/server/internal/catalog"
)

type countingMetrics struct {
	values map[string]uint64
}

func (m *countingMetrics) Add(key string, delta uint64) {
	if m.values == nil {
		m.values = make(map[string]uint64)
	}
	m.values[key] += delta
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func TestScheduleOffsetsGroupsByDelayAndSpacing(t *testing.T) {
	wave := catalog.WaveDefinition{
		Round: 3,
		Groups: []catalog.SpawnGroup{
			{Enemy: catalog.EnemyBasic, Count: 2, Delay: 0, Spacing: ms(600)},
			{Enemy: catalog.EnemyFast, Count: 2, Delay: ms(2000), Spacing: ms(1000)},
		},
	}
	s := NewScheduler("room", nil)
	start := ms(500)
	total := s.Schedule(start, wave)

	// Group one spans 0+2*600; group two starts 2000 later and spans 2*1000.
	if total != ms(1200+2000+2000) {
		t.Fatalf("unexpected total span %v", total)
	}

	due := s.Due(start + time.Hour)
	expected := []struct {
		kind   Kind
		enemy  catalog.EnemyKind
		fireAt time.Duration
	}{
		{KindSpawn, catalog.EnemyBasic, start},
		{KindSpawn, catalog.EnemyBasic, start + ms(600)},
		{KindSpawn, catalog.EnemyFast, start + ms(1200+2000)},
		{KindSpawn, catalog.EnemyFast, start + ms(1200+3000)},
		{KindFallback, 0, start + total + FallbackBuffer},
	}
	if len(due) != len(expected) {
		t.Fatalf("expected %d events, got %d", len(expected), len(due))
	}
	for i, want := range expected {
		got := due[i]
		if got.Kind != want.kind || got.Enemy != want.enemy || got.FireAt != want.fireAt {
			t.Fatalf("event %d: expected %v/%v@%v, got %v/%v@%v", i, want.kind, want.enemy, want.fireAt, got.Kind, got.Enemy, got.FireAt)
		}
		if got.Round != 3 || got.RoomID != "room" {
			t.Fatalf("event %d: unexpected tags %+v", i, got)
		}
	}
}

func TestDueOnlyReleasesElapsedEvents(t *testing.T) {
	s := NewScheduler("room", nil)
	s.Schedule(0, catalog.WaveDefinition{Round: 1, Groups: []catalog.SpawnGroup{
		{Enemy: catalog.EnemyBasic, Count: 3, Spacing: ms(1000)},
	}})

	if got := s.Due(0); len(got) != 1 {
		t.Fatalf("expected first spawn at t=0, got %d events", len(got))
	}
	if got := s.Due(ms(999)); len(got) != 0 {
		t.Fatalf("expected nothing before 1s, got %d", len(got))
	}
	if got := s.PendingSpawns(1); got != 2 {
		t.Fatalf("expected 2 pending spawns, got %d", got)
	}
	if got := s.Due(ms(2000)); len(got) != 2 {
		t.Fatalf("expected two spawns by 2s, got %d", len(got))
	}
	if got := s.PendingSpawns(1); got != 0 {
		t.Fatalf("expected spawns drained, got %d", got)
	}
	if next, ok := s.NextAt(); !ok || next != ms(3000)+FallbackBuffer {
		t.Fatalf("expected fallback at 8s, got %v %v", next, ok)
	}
}

func TestSameInstantEventsKeepInsertionOrder(t *testing.T) {
	s := NewScheduler("room", nil)
	s.Schedule(0, catalog.WaveDefinition{Round: 1, Groups: []catalog.SpawnGroup{
		{Enemy: catalog.EnemyBoss, Count: 3},
	}})
	due := s.Due(0)
	if len(due) != 3 {
		t.Fatalf("expected three simultaneous spawns, got %d", len(due))
	}
	for i := 1; i < len(due); i++ {
		if due[i].seq < due[i-1].seq {
			t.Fatalf("events released out of insertion order")
		}
	}
}

func TestCancelRoomDropsEverything(t *testing.T) {
	metrics := &countingMetrics{}
	s := NewScheduler("room", metrics)
	wave, _ := catalog.Default().Wave(1)
	s.Schedule(0, wave)
	if s.Len() != 11 {
		t.Fatalf("expected 10 spawns plus fallback, got %d", s.Len())
	}
	if removed := s.CancelRoom("other"); removed != 0 {
		t.Fatalf("expected no events for another room, removed %d", removed)
	}
	if removed := s.CancelRoom("room"); removed != 11 {
		t.Fatalf("expected 11 events removed, got %d", removed)
	}
	if got := s.Due(time.Hour); len(got) != 0 {
		t.Fatalf("expected no events after cancellation, got %d", len(got))
	}
	if metrics.values[scheduledMetricKey] != 11 || metrics.values[cancelledMetricKey] != 11 {
		t.Fatalf("unexpected metrics %+v", metrics.values)
	}
}

func TestEmptyWaveStillSchedulesFallback(t *testing.T) {
	s := NewScheduler("room", nil)
	if total := s.Schedule(ms(100), catalog.WaveDefinition{Round: 4}); total != 0 {
		t.Fatalf("expected zero span, got %v", total)
	}
	due := s.Due(ms(100) + FallbackBuffer)
	if len(due) != 1 || due[0].Kind != KindFallback {
		t.Fatalf("expected lone fallback, got %+v", due)
	}
}
