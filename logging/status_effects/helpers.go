package status_effects

import (
	"context"

	"coop-defense/server/logging"
)

const (
	// EventApplied is emitted when a status effect is applied to an enemy.
	EventApplied logging.EventType = "status_effects.applied"
	// EventExpired is emitted when a status effect runs out.
	EventExpired logging.EventType = "status_effects.expired"
)

// AppliedPayload captures details about a status effect application.
type AppliedPayload struct {
	StatusEffect string  `json:"statusEffect"`
	Magnitude    float64 `json:"magnitude"`
	DurationMs   int64   `json:"durationMs,omitempty"`
	Replaced     bool    `json:"replaced,omitempty"`
}

// ExpiredPayload names the effect that ended and the resulting speed.
type ExpiredPayload struct {
	StatusEffect string  `json:"statusEffect"`
	Speed        float64 `json:"speed"`
}

// Applied publishes a status effect application event.
func Applied(ctx context.Context, pub logging.Publisher, room string, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload AppliedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventApplied,
		Room:     room,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryStatusEffects,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Expired publishes a status effect expiry with the enemy as actor.
func Expired(ctx context.Context, pub logging.Publisher, room string, tick uint64, actor logging.EntityRef, payload ExpiredPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventExpired,
		Room:     room,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryStatusEffects,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
