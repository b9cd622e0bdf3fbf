package economy

import (
	"context"

	"coop-defense/server/logging"
)

const (
	// EventCurrencyDebited is emitted when a purchase is paid for.
	EventCurrencyDebited logging.EventType = "economy.currency_debited"
	// EventCurrencyCredited is emitted whenever a player earns currency.
	EventCurrencyCredited logging.EventType = "economy.currency_credited"
)

// Reasons attached to currency movements.
const (
	ReasonTowerPlaced   = "tower_placed"
	ReasonTowerUpgraded = "tower_upgraded"
	ReasonEnemyReward   = "enemy_reward"
	ReasonIncome        = "income"
	ReasonRoundBonus    = "round_bonus"
)

// CurrencyPayload describes a single balance change.
type CurrencyPayload struct {
	Amount  int    `json:"amount"`
	Balance int    `json:"balance"`
	Reason  string `json:"reason"`
	Source  string `json:"source,omitempty"`
}

// CurrencyDebited publishes a purchase.
func CurrencyDebited(ctx context.Context, pub logging.Publisher, room string, tick uint64, actor logging.EntityRef, payload CurrencyPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventCurrencyDebited,
		Room:     room,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// CurrencyCredited publishes earnings. Routine credits are debug level.
func CurrencyCredited(ctx context.Context, pub logging.Publisher, room string, tick uint64, actor logging.EntityRef, payload CurrencyPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	severity := logging.SeverityDebug
	if payload.Reason == ReasonRoundBonus {
		severity = logging.SeverityInfo
	}
	event := logging.Event{
		Type:     EventCurrencyCredited,
		Room:     room,
		Tick:     tick,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryEconomy,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
