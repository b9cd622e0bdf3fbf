package simulation

import (
	"context"

	"coop-defense/server/logging"
)

const (
	// EventTickFault is emitted when a tick panics and is recovered.
	EventTickFault logging.EventType = "simulation.tick_fault"
	// EventLoopHalted is emitted when a room stops ticking after repeated faults.
	EventLoopHalted logging.EventType = "simulation.loop_halted"
	// EventGameOver is emitted when a match ends in victory or defeat.
	EventGameOver logging.EventType = "simulation.game_over"
	// EventWaveFallback is emitted when the wave fallback check clears a round.
	EventWaveFallback logging.EventType = "simulation.wave_fallback"
	// EventRoundCompleted is emitted when a round's enemies are all gone.
	EventRoundCompleted logging.EventType = "simulation.round_completed"
)

// TickFaultPayload captures a recovered panic.
type TickFaultPayload struct {
	Error       string `json:"error"`
	Consecutive int    `json:"consecutive"`
}

// LoopHaltedPayload captures why the loop stopped.
type LoopHaltedPayload struct {
	Faults int `json:"faults"`
}

// GameOverPayload captures the outcome of a match.
type GameOverPayload struct {
	Victory bool `json:"victory"`
	Round   int  `json:"round"`
	Lives   int  `json:"lives"`
}

// RoundPayload identifies a round.
type RoundPayload struct {
	Round int `json:"round"`
	Bonus int `json:"bonus,omitempty"`
}

// TickFault publishes a recovered tick panic.
func TickFault(ctx context.Context, pub logging.Publisher, room string, tick uint64, payload TickFaultPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTickFault,
		Room:     room,
		Tick:     tick,
		Actor:    logging.RoomRef(room),
		Severity: logging.SeverityError,
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// LoopHalted publishes a room loop shutdown caused by faults.
func LoopHalted(ctx context.Context, pub logging.Publisher, room string, tick uint64, payload LoopHaltedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventLoopHalted,
		Room:     room,
		Tick:     tick,
		Actor:    logging.RoomRef(room),
		Severity: logging.SeverityError,
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// GameOver publishes the end of a match.
func GameOver(ctx context.Context, pub logging.Publisher, room string, tick uint64, payload GameOverPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventGameOver,
		Room:     room,
		Tick:     tick,
		Actor:    logging.RoomRef(room),
		Severity: logging.SeverityInfo,
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// WaveFallback publishes a round cleared by the delayed fallback check.
func WaveFallback(ctx context.Context, pub logging.Publisher, room string, tick uint64, payload RoundPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventWaveFallback,
		Room:     room,
		Tick:     tick,
		Actor:    logging.RoomRef(room),
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// RoundCompleted publishes a cleared round and its bonus.
func RoundCompleted(ctx context.Context, pub logging.Publisher, room string, tick uint64, payload RoundPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventRoundCompleted,
		Room:     room,
		Tick:     tick,
		Actor:    logging.RoomRef(room),
		Severity: logging.SeverityInfo,
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
