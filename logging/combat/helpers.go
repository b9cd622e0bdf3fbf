package combat

import (
	"context"

	"coop-defense/server/logging"
)

const (
	// EventTowerFired is emitted when a tower resolves a shot with at least one hit.
	EventTowerFired logging.EventType = "combat.tower_fired"
	// EventEnemyDefeated is emitted when an enemy's health reaches zero.
	EventEnemyDefeated logging.EventType = "combat.enemy_defeated"
	// EventEnemyLeaked is emitted when an enemy reaches the end of the path.
	EventEnemyLeaked logging.EventType = "combat.enemy_leaked"
)

// TowerFiredPayload summarises one resolved shot.
type TowerFiredPayload struct {
	TowerType   string  `json:"towerType"`
	Level       int     `json:"level"`
	Hits        int     `json:"hits"`
	TotalDamage float64 `json:"totalDamage"`
}

// EnemyDefeatedPayload describes the fatal blow.
type EnemyDefeatedPayload struct {
	EnemyType string `json:"enemyType"`
	Reward    int    `json:"reward"`
	Owner     string `json:"owner,omitempty"`
	Cause     string `json:"cause,omitempty"`
}

// EnemyLeakedPayload records lives lost to an escaping enemy.
type EnemyLeakedPayload struct {
	EnemyType      string `json:"enemyType"`
	LivesLost      int    `json:"livesLost"`
	LivesRemaining int    `json:"livesRemaining"`
}

// TowerFired publishes a resolved shot with the tower as actor.
func TowerFired(ctx context.Context, pub logging.Publisher, room string, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, payload TowerFiredPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTowerFired,
		Room:     room,
		Tick:     tick,
		Actor:    actor,
		Targets:  targets,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// EnemyDefeated publishes a defeat event for the eliminated enemy.
func EnemyDefeated(ctx context.Context, pub logging.Publisher, room string, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload EnemyDefeatedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventEnemyDefeated,
		Room:     room,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// EnemyLeaked publishes a breach of the path end.
func EnemyLeaked(ctx context.Context, pub logging.Publisher, room string, tick uint64, actor logging.EntityRef, payload EnemyLeakedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventEnemyLeaked,
		Room:     room,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
