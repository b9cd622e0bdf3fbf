package combat

import (
	"context"
	"testing"

	"coop-defense/server/internal/catalog"
	"coop-defense/server/internal/state"
	"coop-defense/server/logging"
	loggingcombat "coop-defense/server/logging/combat"
)

type capturePublisher struct {
	events []logging.Event
}

func (p *capturePublisher) Publish(ctx context.Context, event logging.Event) {
	p.events = append(p.events, event)
}

func TestNewShotTelemetryRecorder(t *testing.T) {
	pub := &capturePublisher{}

	recorder := NewShotTelemetryRecorder(ShotTelemetryRecorderConfig{
		Publisher:   pub,
		RoomID:      "room-1",
		CurrentTick: func() uint64 { return 42 },
	})
	if recorder == nil {
		t.Fatalf("expected recorder")
	}

	tower := &state.Tower{ID: "tower-1", Kind: catalog.TowerBasic, Level: 1, OwnerID: "p1"}
	result := Result{
		TowerID: "tower-1",
		OwnerID: "p1",
		Hits:    []Hit{{EnemyID: "enemy_0", Damage: 1}},
		Defeats: []Defeat{{EnemyID: "enemy_0", Kind: catalog.EnemyBasic, Reward: 2, OwnerID: "p1"}},
	}
	recorder(tower, result)

	if len(pub.events) != 2 {
		t.Fatalf("expected fired and defeated events, got %d", len(pub.events))
	}

	fired := pub.events[0]
	if fired.Type != loggingcombat.EventTowerFired || fired.Tick != 42 || fired.Room != "room-1" {
		t.Fatalf("unexpected fired event: %+v", fired)
	}
	if fired.Actor != logging.TowerRef("tower-1") {
		t.Fatalf("unexpected actor ref: %+v", fired.Actor)
	}
	if len(fired.Targets) != 1 || fired.Targets[0] != logging.EnemyRef("enemy_0") {
		t.Fatalf("unexpected targets: %+v", fired.Targets)
	}
	payload, ok := fired.Payload.(loggingcombat.TowerFiredPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", fired.Payload)
	}
	if payload.TowerType != "basic_tower" || payload.Hits != 1 || payload.TotalDamage != 1 {
		t.Fatalf("unexpected payload %+v", payload)
	}

	defeated := pub.events[1]
	if defeated.Type != loggingcombat.EventEnemyDefeated {
		t.Fatalf("unexpected event type %q", defeated.Type)
	}
	defeat, ok := defeated.Payload.(loggingcombat.EnemyDefeatedPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", defeated.Payload)
	}
	if defeat.EnemyType != "basic_bloon" || defeat.Reward != 2 || defeat.Owner != "p1" {
		t.Fatalf("unexpected defeat payload %+v", defeat)
	}
}

func TestShotTelemetrySkipsMisses(t *testing.T) {
	pub := &capturePublisher{}
	recorder := NewShotTelemetryRecorder(ShotTelemetryRecorderConfig{Publisher: pub})
	recorder(&state.Tower{ID: "t"}, Result{TowerID: "t"})
	if len(pub.events) != 0 {
		t.Fatalf("expected no events for an empty shot, got %d", len(pub.events))
	}
}

func TestNewShotTelemetryRecorderNilPublisher(t *testing.T) {
	if recorder := NewShotTelemetryRecorder(ShotTelemetryRecorderConfig{}); recorder != nil {
		t.Fatalf("expected nil recorder when publisher missing")
	}
}
