package state

import "testing"

func TestNewGameStateSeedsCurrency(t *testing.T) {
	gs := NewGameState([]Player{{ID: "a"}, {ID: "b"}})
	if gs.Lives != StartingLives || !gs.Active || gs.Round != 0 {
		t.Fatalf("unexpected initial state %+v", gs)
	}
	for _, id := range []string{"a", "b"} {
		if gs.Currency[id] != StartingCurrency {
			t.Fatalf("expected %s to start with %d, got %d", id, StartingCurrency, gs.Currency[id])
		}
	}
}

func TestDebitNeverGoesNegative(t *testing.T) {
	gs := NewGameState([]Player{{ID: "a"}})
	if !gs.Debit("a", StartingCurrency) {
		t.Fatalf("expected exact debit to succeed")
	}
	if gs.Debit("a", 1) {
		t.Fatalf("expected overdraft to fail")
	}
	if gs.Currency["a"] != 0 {
		t.Fatalf("expected balance 0, got %d", gs.Currency["a"])
	}
	if gs.Debit("missing", 0) {
		t.Fatalf("expected debit for unknown player to fail")
	}
}

func TestRemoveEnemyPreservesOrder(t *testing.T) {
	gs := NewGameState(nil)
	gs.Enemies = []*Enemy{{ID: "e1"}, {ID: "e2"}, {ID: "e3"}}
	if !gs.RemoveEnemy("e2") {
		t.Fatalf("expected removal to succeed")
	}
	if len(gs.Enemies) != 2 || gs.Enemies[0].ID != "e1" || gs.Enemies[1].ID != "e3" {
		t.Fatalf("unexpected enemies after removal: %+v", gs.Enemies)
	}
	if gs.RemoveEnemy("e2") {
		t.Fatalf("expected second removal to report false")
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	gs := NewGameState([]Player{{ID: "a"}})
	gs.Enemies = []*Enemy{{ID: "e1", Health: 2, Effects: []Effect{{Type: EffectFreeze}}}}
	gs.Towers = []*Tower{{ID: "t1", Level: 1}}

	snap := gs.Snapshot("room")
	gs.Enemies[0].Health = 0
	gs.Enemies[0].Effects[0].Type = EffectStun
	gs.Towers[0].Level = 3
	gs.Currency["a"] = 1

	if snap.Enemies[0].Health != 2 || snap.Enemies[0].Effects[0].Type != EffectFreeze {
		t.Fatalf("snapshot enemy mutated: %+v", snap.Enemies[0])
	}
	if tower, ok := snap.Tower("t1"); !ok || tower.Level != 1 {
		t.Fatalf("snapshot tower mutated: %+v", tower)
	}
	if snap.PlayerMoney["a"] != StartingCurrency {
		t.Fatalf("snapshot currency mutated: %d", snap.PlayerMoney["a"])
	}
}
