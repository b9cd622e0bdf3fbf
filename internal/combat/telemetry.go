package combat

import (
	"context"

	"coop-defense/server/internal/state"
	"coop-defense/server/logging"
	loggingcombat "coop-defense/server/logging/combat"
)

// ShotTelemetryRecorderConfig captures the dependencies required to publish
// combat telemetry for one room.
type ShotTelemetryRecorderConfig struct {
	Publisher   logging.Publisher
	RoomID      string
	CurrentTick func() uint64
}

// NewShotTelemetryRecorder constructs a hook that emits a tower_fired event
// for every shot with hits and an enemy_defeated event per defeat. It
// returns nil when no publisher is configured.
func NewShotTelemetryRecorder(cfg ShotTelemetryRecorderConfig) func(tower *state.Tower, result Result) {
	if cfg.Publisher == nil {
		return nil
	}

	tick := cfg.CurrentTick
	if tick == nil {
		tick = func() uint64 { return 0 }
	}

	return func(tower *state.Tower, result Result) {
		if !result.Fired() {
			return
		}
		now := tick()
		towerRef := logging.TowerRef(tower.ID)

		targets := make([]logging.EntityRef, 0, len(result.Hits))
		for _, hit := range result.Hits {
			targets = append(targets, logging.EnemyRef(hit.EnemyID))
		}
		loggingcombat.TowerFired(
			context.Background(),
			cfg.Publisher,
			cfg.RoomID,
			now,
			towerRef,
			targets,
			loggingcombat.TowerFiredPayload{
				TowerType:   tower.Kind.String(),
				Level:       tower.Level,
				Hits:        len(result.Hits),
				TotalDamage: result.TotalDamage(),
			},
			nil,
		)

		for _, defeat := range result.Defeats {
			loggingcombat.EnemyDefeated(
				context.Background(),
				cfg.Publisher,
				cfg.RoomID,
				now,
				towerRef,
				logging.EnemyRef(defeat.EnemyID),
				loggingcombat.EnemyDefeatedPayload{
					EnemyType: defeat.Kind.String(),
					Reward:    defeat.Reward,
					Owner:     defeat.OwnerID,
					Cause:     tower.Kind.String(),
				},
				nil,
			)
		}
	}
}
