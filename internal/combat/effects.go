package combat

import (
	"time"

	"coop-defense/server/internal/state"
)

const (
	freezeBaseMagnitude     = 0.3
	freezeMagnitudePerLevel = 0.1
	freezeBaseDuration      = 2000 * time.Millisecond
	freezeDurationPerLevel  = 1000 * time.Millisecond
)

// FreezeFor builds the freeze effect a tower of the given level applies at now.
func FreezeFor(level int, now time.Duration) state.Effect {
	duration := freezeBaseDuration + time.Duration(level)*freezeDurationPerLevel
	return state.Effect{
		Type:      state.EffectFreeze,
		Magnitude: freezeBaseMagnitude + freezeMagnitudePerLevel*float64(level),
		Duration:  duration,
		ExpiresAt: now + duration,
	}
}

// ApplyEffect attaches effect to the enemy, replacing any active effect of
// the same type, and recomputes speed. It reports whether one was replaced.
func ApplyEffect(enemy *state.Enemy, effect state.Effect) bool {
	replaced := false
	kept := enemy.Effects[:0]
	for _, existing := range enemy.Effects {
		if existing.Type == effect.Type {
			replaced = true
			continue
		}
		kept = append(kept, existing)
	}
	enemy.Effects = append(kept, effect)
	RecomputeSpeed(enemy)
	return replaced
}

// RecomputeSpeed derives the current speed from base speed and every active
// effect. Stun wins over freeze; several slows never stack past the
// strongest one.
func RecomputeSpeed(enemy *state.Enemy) {
	slow := 0.0
	for _, effect := range enemy.Effects {
		switch effect.Type {
		case state.EffectStun:
			enemy.Speed = 0
			return
		case state.EffectFreeze:
			if effect.Magnitude > slow {
				slow = effect.Magnitude
			}
		}
	}
	if slow > 1 {
		slow = 1
	}
	enemy.Speed = enemy.BaseSpeed * (1 - slow)
}

// ExpireEffects drops effects whose expiry is at or before now and returns
// them. Speed is recomputed whenever anything expired.
func ExpireEffects(enemy *state.Enemy, now time.Duration) []state.Effect {
	var expired []state.Effect
	kept := enemy.Effects[:0]
	for _, effect := range enemy.Effects {
		if now >= effect.ExpiresAt {
			expired = append(expired, effect)
			continue
		}
		kept = append(kept, effect)
	}
	enemy.Effects = kept
	if len(expired) > 0 {
		RecomputeSpeed(enemy)
	}
	return expired
}

// PoisonTick deals poison damage for an elapsed interval. It returns the
// damage dealt and the owner credited should the enemy die from it.
func PoisonTick(enemy *state.Enemy, elapsed time.Duration) (float64, string) {
	for _, effect := range enemy.Effects {
		if effect.Type != state.EffectPoison {
			continue
		}
		damage := effect.Magnitude * elapsed.Seconds()
		if damage <= 0 {
			return 0, ""
		}
		applyDamage(enemy, damage)
		return damage, effect.OwnerID
	}
	return 0, ""
}

func applyDamage(enemy *state.Enemy, damage float64) {
	enemy.Health -= damage
	if enemy.Health < 0 {
		enemy.Health = 0
	}
}
