package network

import (
	"context"

	"coop-defense/server/logging"
)

const (
	// EventIntentRejected is emitted when a client intent fails validation.
	EventIntentRejected logging.EventType = "network.intent_rejected"
	// EventSlowConsumer is emitted when a connection's outbound queue overflows.
	EventSlowConsumer logging.EventType = "network.slow_consumer"
)

// IntentRejectedPayload captures the intent name and failure reason.
type IntentRejectedPayload struct {
	Intent string `json:"intent"`
	Reason string `json:"reason"`
}

// SlowConsumerPayload records how many messages were dropped.
type SlowConsumerPayload struct {
	Dropped uint64 `json:"dropped"`
}

// IntentRejected publishes a debug event for a silently rejected intent.
func IntentRejected(ctx context.Context, pub logging.Publisher, room string, session string, actor logging.EntityRef, payload IntentRejectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:      EventIntentRejected,
		Room:      room,
		SessionID: session,
		Actor:     actor,
		Severity:  logging.SeverityDebug,
		Category:  "network",
		Payload:   payload,
		Extra:     extra,
	}
	pub.Publish(ctx, event)
}

// SlowConsumer publishes a warning when broadcasts to a session are dropped.
func SlowConsumer(ctx context.Context, pub logging.Publisher, room string, session string, payload SlowConsumerPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:      EventSlowConsumer,
		Room:      room,
		SessionID: session,
		Actor:     logging.EntityRef{ID: session, Kind: logging.EntityKindSession},
		Severity:  logging.SeverityWarn,
		Category:  "network",
		Payload:   payload,
		Extra:     extra,
	}
	pub.Publish(ctx, event)
}
