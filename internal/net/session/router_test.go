package session

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"coop-defense/server/internal/lobby"
	"coop-defense/server/internal/net/proto"
	"coop-defense/server/internal/state"
	"coop-defense/server/logging"
	"coop-defense/server/logging/network"
	"coop-defense/server/logging/sinks"
)

func newTestRouter(t *testing.T, grace time.Duration) (*Router, *sinks.MemorySink) {
	t.Helper()
	events := sinks.NewMemorySink()
	cfg := Config{
		Lobby:       lobby.DefaultConfig(),
		ResumeGrace: grace,
		Publisher: logging.PublisherFunc(func(_ context.Context, event logging.Event) {
			_ = events.Write(event)
		}),
	}
	// Ticks are driven by intents only.
	cfg.Lobby.Room.TickInterval = time.Hour
	router := NewRouter(context.Background(), cfg)
	t.Cleanup(router.Close)
	return router, events
}

func intent(t *testing.T, event string, data any) proto.ClientMessage {
	t.Helper()
	frame := map[string]any{"event": event}
	if data != nil {
		frame["data"] = data
	}
	raw, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshal intent: %v", err)
	}
	msg, err := proto.JSON.Decode(raw)
	if err != nil {
		t.Fatalf("decode intent: %v", err)
	}
	return msg
}

// drain returns every message currently queued for the attachment.
func drain(att *Attachment) []Outbound {
	var out []Outbound
	for {
		select {
		case msg, ok := <-att.Outbound:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func find(t *testing.T, msgs []Outbound, event string) Outbound {
	t.Helper()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Event == event {
			return msgs[i]
		}
	}
	t.Fatalf("no %s message among %d queued", event, len(msgs))
	return Outbound{}
}

func absent(t *testing.T, msgs []Outbound, event string) {
	t.Helper()
	for _, msg := range msgs {
		if msg.Event == event {
			t.Fatalf("unexpected %s message: %+v", event, msg.Data)
		}
	}
}

// seatTwo creates a room owned by alice with bob joined and drains both
// queues.
func seatTwo(t *testing.T, router *Router) (alice, bob *Attachment, roomID string) {
	t.Helper()
	alice = router.Connect("")
	bob = router.Connect("")
	router.Handle(alice, intent(t, proto.TypeCreateRoom, map[string]any{"roomName": "alpha", "username": "alice"}))
	router.Handle(bob, intent(t, proto.TypeJoinRoom, map[string]any{"roomName": "alpha", "username": "bob"}))
	detail, ok := router.Registry().Room("alpha")
	if !ok || len(detail.Members) != 2 {
		t.Fatalf("expected two seated players, got %+v", detail)
	}
	drain(alice)
	drain(bob)
	return alice, bob, detail.ID
}

func TestConnectAnnouncesSessionFirst(t *testing.T) {
	router, _ := newTestRouter(t, 0)
	att := router.Connect("unknown-token")
	msgs := drain(att)
	if len(msgs) == 0 || msgs[0].Event != proto.TypeSession {
		t.Fatalf("expected session message first, got %+v", msgs)
	}
	announced := msgs[0].Data.(proto.Session)
	if announced.Token == "" || announced.Token == "unknown-token" || announced.Resumed {
		t.Fatalf("expected a freshly issued token, got %+v", announced)
	}
	if announced.PlayerID != att.PlayerID || announced.Token == announced.PlayerID {
		t.Fatalf("expected distinct public player id, got %+v", announced)
	}
}

func TestLobbyFlowBroadcastsOwnership(t *testing.T) {
	router, _ := newTestRouter(t, 0)
	alice := router.Connect("")
	bob := router.Connect("")
	drain(alice)
	drain(bob)

	router.Handle(alice, intent(t, proto.TypeCreateRoom, map[string]any{"roomName": "alpha", "username": "alice"}))
	aliceMsgs := drain(alice)
	owner := find(t, aliceMsgs, proto.TypePlayersInRoom).Data.(proto.PlayersInRoom)
	if !owner.IsOwner || len(owner.Players) != 1 || owner.Players[0] != "alice" {
		t.Fatalf("unexpected playersInRoom for creator %+v", owner)
	}
	if list := find(t, drain(bob), proto.TypeRoomsList).Data.(proto.RoomsList); len(list) != 1 || list[0].Players != 1 {
		t.Fatalf("expected room list broadcast to everyone, got %+v", list)
	}

	router.Handle(bob, intent(t, proto.TypeJoinRoom, map[string]any{"roomName": "alpha", "username": "bob"}))
	forAlice := find(t, drain(alice), proto.TypePlayersInRoom).Data.(proto.PlayersInRoom)
	forBob := find(t, drain(bob), proto.TypePlayersInRoom).Data.(proto.PlayersInRoom)
	if !forAlice.IsOwner || forBob.IsOwner {
		t.Fatalf("expected only alice to own the room: alice=%v bob=%v", forAlice.IsOwner, forBob.IsOwner)
	}
	if fmt.Sprint(forBob.Players) != "[alice bob]" {
		t.Fatalf("unexpected player list %v", forBob.Players)
	}

	router.Handle(bob, intent(t, proto.TypeGetRooms, nil))
	if list := find(t, drain(bob), proto.TypeRoomsList).Data.(proto.RoomsList); list[0].Players != 2 {
		t.Fatalf("expected 2 players listed, got %+v", list)
	}
}

func TestIntentsWithoutRoomAreSilentlyRejected(t *testing.T) {
	router, events := newTestRouter(t, 0)
	att := router.Connect("")
	drain(att)

	router.Handle(att, intent(t, proto.TypePlaceTower, map[string]any{"type": "basic_tower", "x": 100, "y": 100}))
	router.Handle(att, intent(t, proto.TypeStartRound, nil))
	router.Handle(att, intent(t, "fly", nil))
	if msgs := drain(att); len(msgs) != 0 {
		t.Fatalf("expected no reply to rejected intents, got %+v", msgs)
	}
	if got := len(events.EventsOfType(network.EventIntentRejected)); got != 3 {
		t.Fatalf("expected 3 intent_rejected events, got %d", got)
	}
}

func TestGameIntentsBroadcastSnapshotAndDelta(t *testing.T) {
	router, _ := newTestRouter(t, 0)
	alice, bob, roomID := seatTwo(t, router)

	router.Handle(bob, intent(t, proto.TypeStartGame, map[string]any{"roomId": roomID}))
	find(t, drain(alice), proto.TypeGameStarting)
	find(t, drain(bob), proto.TypeGameStarting)

	router.Handle(alice, intent(t, proto.TypeGetGameState, nil))
	aliceMsgs := drain(alice)
	player := find(t, aliceMsgs, proto.TypePlayerData).Data.(state.Player)
	if player.Section.Y != 0 || player.Section.Height != 360 {
		t.Fatalf("expected alice in the top half, got %+v", player.Section)
	}
	absent(t, drain(bob), proto.TypeGameState)

	router.Handle(alice, intent(t, proto.TypePlaceTower, map[string]any{"type": "basic_tower", "x": 100, "y": 100}))
	bobMsgs := drain(bob)
	snapshot := find(t, bobMsgs, proto.TypeGameState).Data.(state.Snapshot)
	tower := find(t, bobMsgs, proto.TypeTowerPlaced).Data.(state.Tower)
	if snapshot.PlayerMoney[alice.PlayerID] != 450 || len(snapshot.Towers) != 1 {
		t.Fatalf("unexpected snapshot after placement %+v", snapshot)
	}
	if tower.OwnerID != alice.PlayerID || tower.Level != 1 {
		t.Fatalf("unexpected tower %+v", tower)
	}
	drain(alice)

	// Bob may not upgrade alice's tower; nothing is broadcast.
	router.Handle(bob, intent(t, proto.TypeUpgradeTower, map[string]any{"towerId": tower.ID}))
	absent(t, drain(alice), proto.TypeTowerUpgraded)

	router.Handle(alice, intent(t, proto.TypeUpgradeTower, map[string]any{"towerId": tower.ID}))
	upgraded := find(t, drain(bob), proto.TypeTowerUpgraded).Data.(proto.TowerUpgraded)
	if upgraded.TowerID != tower.ID || upgraded.Level != 2 {
		t.Fatalf("unexpected upgrade %+v", upgraded)
	}
	drain(alice)

	router.Handle(bob, intent(t, proto.TypeStartRound, nil))
	if round := find(t, drain(alice), proto.TypeRoundStart).Data.(proto.RoundStart); round.Round != 1 {
		t.Fatalf("expected round 1, got %d", round.Round)
	}
	router.Handle(bob, intent(t, proto.TypeStartRound, nil))
	absent(t, drain(alice), proto.TypeRoundStart)
}

func TestDisconnectWithoutGraceLeavesRoom(t *testing.T) {
	router, _ := newTestRouter(t, 0)
	alice, bob, roomID := seatTwo(t, router)

	router.Disconnect(alice)
	if _, ok := <-alice.Outbound; ok {
		t.Fatalf("expected alice's queue closed")
	}
	remaining := find(t, drain(bob), proto.TypePlayersInRoom).Data.(proto.PlayersInRoom)
	if !remaining.IsOwner || fmt.Sprint(remaining.Players) != "[bob]" {
		t.Fatalf("expected bob to inherit ownership, got %+v", remaining)
	}

	router.Handle(bob, intent(t, proto.TypeReturnToLobby, nil))
	if _, ok := router.Registry().Room(roomID); ok {
		t.Fatalf("expected empty room torn down")
	}
	if stats := router.Stats(); stats.Sessions != 1 || stats.Rooms != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestResumeWithinGraceKeepsSeat(t *testing.T) {
	router, _ := newTestRouter(t, time.Minute)
	alice, bob, roomID := seatTwo(t, router)
	router.Handle(alice, intent(t, proto.TypeStartGame, nil))
	drain(bob)

	router.Disconnect(alice)
	if detail, _ := router.Registry().Room(roomID); !detail.Has(alice.PlayerID) {
		t.Fatalf("expected seat kept during grace")
	}

	resumed := router.Connect(alice.Token)
	if !resumed.Resumed || resumed.PlayerID != alice.PlayerID {
		t.Fatalf("expected session resumed, got %+v", resumed)
	}
	msgs := drain(resumed)
	announced := msgs[0].Data.(proto.Session)
	if msgs[0].Event != proto.TypeSession || !announced.Resumed || announced.RoomID != roomID {
		t.Fatalf("unexpected session announcement %+v", msgs[0])
	}
	find(t, msgs, proto.TypeGameState)
	find(t, msgs, proto.TypePlayerData)

	// The replaced attachment must not detach the live one.
	router.Disconnect(alice)
	if stats := router.Stats(); stats.Attached != 2 {
		t.Fatalf("expected both sessions attached, got %+v", stats)
	}
}

func TestGraceExpiryFreesSeat(t *testing.T) {
	router, _ := newTestRouter(t, 10*time.Millisecond)
	alice := router.Connect("")
	router.Handle(alice, intent(t, proto.TypeCreateRoom, map[string]any{"roomName": "solo", "username": "alice"}))
	router.Disconnect(alice)

	deadline := time.Now().Add(2 * time.Second)
	for router.Registry().Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected expired session to vacate its room")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if resumed := router.Connect(alice.Token); resumed.Resumed {
		t.Fatalf("expected expired token to start a new session")
	}
}

func TestObserverCallbacksReachRoomMembers(t *testing.T) {
	router, _ := newTestRouter(t, 0)
	alice, bob, roomID := seatTwo(t, router)
	outsider := router.Connect("")
	drain(outsider)

	router.GameOver(roomID, true)
	router.EnemySpawned(roomID, state.Enemy{ID: "enemy_0"})
	for _, att := range []*Attachment{alice, bob} {
		msgs := drain(att)
		if result := find(t, msgs, proto.TypeGameOver).Data.(proto.GameOver); !result.Victory {
			t.Fatalf("expected victory")
		}
		find(t, msgs, proto.TypeEnemySpawned)
	}
	if msgs := drain(outsider); len(msgs) != 0 {
		t.Fatalf("outsider received room traffic: %+v", msgs)
	}
}
