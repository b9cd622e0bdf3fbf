package lobby

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"coop-defense/server/internal/catalog"
	"coop-defense/server/internal/room"
	"coop-defense/server/logging"
	"coop-defense/server/logging/lifecycle"
	"coop-defense/server/logging/sinks"
)

func newTestRegistry(t *testing.T) (*Registry, *sinks.MemorySink) {
	t.Helper()
	events := sinks.NewMemorySink()
	ids := 0
	cfg := DefaultConfig()
	// Keep the loop slow so tests drive state without racing ticks.
	cfg.Room.TickInterval = time.Hour
	cfg.Publisher = logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		_ = events.Write(event)
	})
	cfg.NewID = func() string {
		ids++
		return fmt.Sprintf("room-%d", ids)
	}
	registry := NewRegistry(cfg)
	t.Cleanup(registry.Close)
	return registry, events
}

func member(i int) Member {
	return Member{ID: fmt.Sprintf("p%d", i), Username: fmt.Sprintf("player%d", i)}
}

func TestCreateRoomSeatsCreatorAsOwner(t *testing.T) {
	registry, events := newTestRegistry(t)
	detail, err := registry.CreateRoom("  alpha ", member(1))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if detail.Name != "alpha" || detail.Status != StatusLobby || len(detail.Members) != 1 {
		t.Fatalf("unexpected room %+v", detail)
	}
	owner, ok := detail.Owner()
	if !ok || owner.ID != "p1" || owner.Position != 0 {
		t.Fatalf("expected creator to own the room, got %+v", owner)
	}

	list := registry.ListRooms()
	if len(list) != 1 || list[0] != (Summary{ID: detail.ID, Name: "alpha", Players: 1, MaxPlayers: Capacity}) {
		t.Fatalf("unexpected room list %+v", list)
	}
	if got := len(events.EventsOfType(lifecycle.EventRoomCreated)); got != 1 {
		t.Fatalf("expected room_created event, got %d", got)
	}
}

func TestCreateRoomRequiresNameAndIdentity(t *testing.T) {
	registry, _ := newTestRegistry(t)
	if _, err := registry.CreateRoom(" ", member(1)); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected invalid name, got %v", err)
	}
	if _, err := registry.CreateRoom("alpha", Member{Username: "anon"}); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected invalid identity, got %v", err)
	}
	if registry.Len() != 0 {
		t.Fatalf("expected no rooms created")
	}
}

func TestJoinRoomCapacity(t *testing.T) {
	registry, _ := newTestRegistry(t)
	detail, _ := registry.CreateRoom("alpha", member(1))
	for i := 2; i <= 5; i++ {
		if _, err := registry.JoinRoom(detail.ID, member(i)); err != nil {
			t.Fatalf("join %d failed: %v", i, err)
		}
	}

	sixth, err := registry.JoinRoom(detail.ID, member(6))
	if err != nil {
		t.Fatalf("expected 6th join to succeed: %v", err)
	}
	if len(sixth.Members) != 6 || sixth.Members[5].Position != 5 {
		t.Fatalf("unexpected seats after 6th join %+v", sixth.Members)
	}

	if _, err := registry.JoinRoom(detail.ID, member(7)); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("expected 7th join to be rejected, got %v", err)
	}
	if current, _ := registry.Room(detail.ID); len(current.Members) != 6 {
		t.Fatalf("expected room to stay at 6, got %d", len(current.Members))
	}
}

func TestJoinRoomByNameUsesFirstMatch(t *testing.T) {
	registry, _ := newTestRegistry(t)
	first, _ := registry.CreateRoom("dup", member(1))
	second, _ := registry.CreateRoom("dup", member(2))

	joined, err := registry.JoinRoom("dup", member(3))
	if err != nil {
		t.Fatalf("join by name failed: %v", err)
	}
	if joined.ID != first.ID {
		t.Fatalf("expected first room %s, got %s", first.ID, joined.ID)
	}
	byID, err := registry.JoinRoom(second.ID, member(4))
	if err != nil || byID.ID != second.ID {
		t.Fatalf("expected id lookup to win, got %+v %v", byID, err)
	}
}

func TestJoinRoomRejections(t *testing.T) {
	registry, _ := newTestRegistry(t)
	detail, _ := registry.CreateRoom("alpha", member(1))

	if _, err := registry.JoinRoom("missing", member(2)); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := registry.JoinRoom(detail.ID, member(1)); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected already member, got %v", err)
	}
	registry.JoinRoom(detail.ID, member(2))
	if _, _, err := registry.StartGame(context.Background(), detail.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := registry.JoinRoom(detail.ID, member(3)); !errors.Is(err, ErrRoomActive) {
		t.Fatalf("expected active room to reject joins, got %v", err)
	}
}

func TestStartGame(t *testing.T) {
	registry, events := newTestRegistry(t)
	detail, _ := registry.CreateRoom("alpha", member(1))

	if _, _, err := registry.StartGame(context.Background(), detail.ID); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("expected not enough players, got %v", err)
	}
	if _, ok := registry.Simulation(detail.ID); ok {
		t.Fatalf("lobby room must not have a simulation")
	}

	registry.JoinRoom(detail.ID, member(2))
	started, sim, err := registry.StartGame(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if started.Status != StatusActive || !started.Active() {
		t.Fatalf("expected active room, got %v", started.Status)
	}
	if sim == nil || sim.ID() != detail.ID || sim.PlayerCount() != 2 {
		t.Fatalf("unexpected simulation %+v", sim)
	}
	snap := sim.Snapshot()
	if snap.PlayerMoney["p1"] != 650 || snap.PlayerMoney["p2"] != 650 {
		t.Fatalf("expected seeded currency, got %+v", snap.PlayerMoney)
	}
	if p, _ := snap.Player("p2"); p.Section.Y != 360 {
		t.Fatalf("expected second player in the bottom half, got %+v", p.Section)
	}
	if list := registry.ListRooms(); !list[0].Active {
		t.Fatalf("expected room list to show active")
	}
	if _, _, err := registry.StartGame(context.Background(), detail.ID); !errors.Is(err, ErrRoomActive) {
		t.Fatalf("expected second start to fail, got %v", err)
	}
	if got := len(events.EventsOfType(lifecycle.EventRoomStarted)); got != 1 {
		t.Fatalf("expected one room_started event, got %d", got)
	}
}

func TestRemovePlayerTearsDownEmptyRoom(t *testing.T) {
	registry, events := newTestRegistry(t)
	detail, _ := registry.CreateRoom("alpha", member(1))
	registry.JoinRoom(detail.ID, member(2))
	_, sim, err := registry.StartGame(context.Background(), detail.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := sim.StartRound(); err != nil {
		t.Fatalf("start round failed: %v", err)
	}

	departure, err := registry.RemovePlayer(detail.ID, "p1", "returnToLobby")
	if err != nil || departure.Closed {
		t.Fatalf("expected room to survive first departure: %+v %v", departure, err)
	}
	if owner, _ := departure.Room.Owner(); owner.ID != "p2" {
		t.Fatalf("expected ownership to pass to p2, got %+v", owner)
	}
	if departure.Room.Status != StatusActive || sim.PlayerCount() != 1 {
		t.Fatalf("expected match to continue for remaining player")
	}

	departure, err = registry.RemovePlayer(detail.ID, "p2", "disconnect")
	if err != nil || !departure.Closed {
		t.Fatalf("expected room closed: %+v %v", departure, err)
	}
	if registry.Len() != 0 {
		t.Fatalf("expected registry empty")
	}
	if sim.Active() {
		t.Fatalf("expected simulation stopped")
	}
	if _, err := sim.PlaceTower("p2", catalog.TowerBasic, 100, 100); !errors.Is(err, room.ErrInactive) {
		t.Fatalf("expected stopped simulation to reject intents, got %v", err)
	}
	if _, err := registry.RemovePlayer(detail.ID, "p2", "disconnect"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected not found after teardown, got %v", err)
	}
	if got := len(events.EventsOfType(lifecycle.EventRoomClosed)); got != 1 {
		t.Fatalf("expected room_closed event, got %d", got)
	}
}

func TestJoinAfterDepartureKeepsPositionsUnique(t *testing.T) {
	registry, _ := newTestRegistry(t)
	detail, _ := registry.CreateRoom("alpha", member(1))
	registry.JoinRoom(detail.ID, member(2))
	registry.RemovePlayer(detail.ID, "p1", "returnToLobby")

	joined, err := registry.JoinRoom(detail.ID, member(3))
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if joined.Members[0].Position != 1 || joined.Members[1].Position != 2 {
		t.Fatalf("unexpected positions %+v", joined.Members)
	}
	if _, err := registry.RemovePlayer(detail.ID, "ghost", "disconnect"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected not member, got %v", err)
	}
}
