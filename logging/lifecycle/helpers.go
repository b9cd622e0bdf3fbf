package lifecycle

import (
	"context"

	"coop-defense/server/logging"
)

const (
	// EventRoomCreated is emitted when a lobby room is opened.
	EventRoomCreated logging.EventType = "lifecycle.room_created"
	// EventPlayerJoined is emitted when a player joins a lobby room.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventPlayerLeft is emitted when a player leaves a room for any reason.
	EventPlayerLeft logging.EventType = "lifecycle.player_left"
	// EventRoomStarted is emitted when a room moves from lobby to active.
	EventRoomStarted logging.EventType = "lifecycle.room_started"
	// EventRoomClosed is emitted when the last player leaves and the room is torn down.
	EventRoomClosed logging.EventType = "lifecycle.room_closed"
	// EventSessionResumed is emitted when a client reconnects with a live token.
	EventSessionResumed logging.EventType = "lifecycle.session_resumed"
	// EventSessionExpired is emitted when a detached session outlives its grace window.
	EventSessionExpired logging.EventType = "lifecycle.session_expired"
)

// RoomPayload describes a room at the moment of the event.
type RoomPayload struct {
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"`
}

// PlayerLeftPayload captures why a player left.
type PlayerLeftPayload struct {
	Username string `json:"username"`
	Reason   string `json:"reason"`
}

// SessionPayload identifies the session a client resumed or lost.
type SessionPayload struct {
	PlayerID string `json:"playerId,omitempty"`
	RoomID   string `json:"roomId,omitempty"`
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, room string, actor logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Room:     room,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}

// RoomCreated publishes a room creation event with the creator as actor.
func RoomCreated(ctx context.Context, pub logging.Publisher, room string, actor logging.EntityRef, payload RoomPayload, extra map[string]any) {
	publish(ctx, pub, EventRoomCreated, room, actor, payload, extra)
}

// PlayerJoined publishes a lobby join event.
func PlayerJoined(ctx context.Context, pub logging.Publisher, room string, actor logging.EntityRef, payload RoomPayload, extra map[string]any) {
	publish(ctx, pub, EventPlayerJoined, room, actor, payload, extra)
}

// PlayerLeft publishes a player departure event.
func PlayerLeft(ctx context.Context, pub logging.Publisher, room string, actor logging.EntityRef, payload PlayerLeftPayload, extra map[string]any) {
	publish(ctx, pub, EventPlayerLeft, room, actor, payload, extra)
}

// RoomStarted publishes the lobby to active transition.
func RoomStarted(ctx context.Context, pub logging.Publisher, room string, payload RoomPayload, extra map[string]any) {
	publish(ctx, pub, EventRoomStarted, room, logging.RoomRef(room), payload, extra)
}

// RoomClosed publishes a room teardown.
func RoomClosed(ctx context.Context, pub logging.Publisher, room string, payload RoomPayload, extra map[string]any) {
	publish(ctx, pub, EventRoomClosed, room, logging.RoomRef(room), payload, extra)
}

// SessionResumed publishes a successful reconnection.
func SessionResumed(ctx context.Context, pub logging.Publisher, session string, payload SessionPayload, extra map[string]any) {
	publish(ctx, pub, EventSessionResumed, payload.RoomID, logging.EntityRef{ID: session, Kind: logging.EntityKindSession}, payload, extra)
}

// SessionExpired publishes the end of a detached session's grace window.
func SessionExpired(ctx context.Context, pub logging.Publisher, session string, payload SessionPayload, extra map[string]any) {
	publish(ctx, pub, EventSessionExpired, payload.RoomID, logging.EntityRef{ID: session, Kind: logging.EntityKindSession}, payload, extra)
}
