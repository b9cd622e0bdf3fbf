package room

import (
	"context"
	"fmt"
	"time"

	"coop-defense/server/internal/catalog"
	"coop-defense/server/internal/combat"
	"coop-defense/server/internal/state"
	"coop-defense/server/internal/waves"
	"coop-defense/server/logging"
	loggingcombat "coop-defense/server/logging/combat"
	loggingeconomy "coop-defense/server/logging/economy"
	loggingsimulation "coop-defense/server/logging/simulation"
	loggingstatus "coop-defense/server/logging/status_effects"
)

// Step advances the simulation by dt. Inactive rooms ignore it. A panic
// inside the tick is recovered and counted; after MaxConsecutiveFaults in a
// row the room is halted and reported as lost.
func (s *Simulation) Step(dt time.Duration) {
	s.deliver(s.step(dt))
}

func (s *Simulation) step(dt time.Duration) (out outbox) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Active || dt <= 0 {
		return out
	}
	s.clock += dt
	s.tick++
	s.cfg.Metrics.Add("room_ticks_total", 1)

	if s.advanceRecovered(dt, &out) {
		s.faults = 0
	}
	snapshot := s.state.Snapshot(s.id)
	out.snapshot = &snapshot
	return out
}

func (s *Simulation) advanceRecovered(dt time.Duration, out *outbox) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			s.recordFaultLocked(r, out)
		}
	}()
	if hook := s.cfg.Hooks.BeforeTick; hook != nil {
		hook(s.tick)
	}
	s.advanceLocked(dt, out)
	return true
}

func (s *Simulation) recordFaultLocked(r any, out *outbox) {
	s.faults++
	s.cfg.Metrics.Add("room_tick_faults_total", 1)
	s.logger.Errorf("tick %d panicked (%d in a row): %v", s.tick, s.faults, r)
	loggingsimulation.TickFault(context.Background(), s.cfg.Publisher, s.id, s.tick, loggingsimulation.TickFaultPayload{
		Error:       fmt.Sprint(r),
		Consecutive: s.faults,
	}, nil)
	if s.faults < s.cfg.MaxConsecutiveFaults {
		return
	}
	s.logger.Errorf("halting room after %d consecutive faults", s.faults)
	loggingsimulation.LoopHalted(context.Background(), s.cfg.Publisher, s.id, s.tick, loggingsimulation.LoopHaltedPayload{Faults: s.faults}, nil)
	s.endLocked(false, out)
}

func (s *Simulation) advanceLocked(dt time.Duration, out *outbox) {
	s.processWaveEventsLocked(out)
	s.runTowersLocked()
	s.moveEnemiesLocked(dt)

	if s.state.Lives <= 0 {
		s.endLocked(false, out)
		return
	}
	s.completeRoundLocked(out)
}

func (s *Simulation) processWaveEventsLocked(out *outbox) {
	for _, event := range s.scheduler.Due(s.clock) {
		switch event.Kind {
		case waves.KindSpawn:
			enemy, ok := s.spawnLocked(event.Enemy)
			if ok {
				out.spawned = append(out.spawned, enemy)
			}
		case waves.KindFallback:
			s.fallbackLocked(event.Round)
		}
	}
}

func (s *Simulation) spawnLocked(kind catalog.EnemyKind) (state.Enemy, bool) {
	stats, ok := kind.Stats()
	if !ok {
		return state.Enemy{}, false
	}
	health := stats.HealthForRound(s.state.Round)
	start := s.path.PointAt(0)
	enemy := &state.Enemy{
		ID:        fmt.Sprintf("enemy_%d", s.state.EnemyCounter),
		Kind:      kind,
		Health:    health,
		MaxHealth: health,
		Speed:     stats.Speed,
		BaseSpeed: stats.Speed,
		X:         start.X,
		Y:         start.Y,
		Effects:   make([]state.Effect, 0),
	}
	s.state.EnemyCounter++
	s.state.Enemies = append(s.state.Enemies, enemy)
	s.cfg.Metrics.Add("room_enemies_spawned_total", 1)
	copied := *enemy
	copied.Effects = nil
	return copied, true
}

// fallbackLocked clears a round whose enemies are already gone. It never
// pays the round bonus; that stays with the tick's completion check.
func (s *Simulation) fallbackLocked(round int) {
	if round != s.state.Round || !s.state.RoundInProgress || len(s.state.Enemies) > 0 {
		return
	}
	s.state.RoundInProgress = false
	s.logger.Warnf("wave fallback cleared round %d", round)
	loggingsimulation.WaveFallback(context.Background(), s.cfg.Publisher, s.id, s.tick, loggingsimulation.RoundPayload{Round: round}, nil)
}

func (s *Simulation) runTowersLocked() {
	for _, tower := range s.state.Towers {
		stats, ok := tower.Kind.Stats()
		if !ok {
			continue
		}
		if stats.Income {
			if s.clock-tower.LastIncome >= catalog.IncomeInterval {
				tower.LastIncome += catalog.IncomeInterval
				s.creditLocked(tower.OwnerID, stats.IncomeAt(tower.Level), loggingeconomy.ReasonIncome, tower.ID)
			}
			continue
		}
		if stats.Attack == catalog.AttackNone {
			continue
		}
		if tower.HasFired && s.clock-tower.LastFired < stats.FireIntervalAt(tower.Level) {
			continue
		}
		result := combat.Resolve(tower, s.state.Enemies, s.state.Round, s.clock)
		if !result.Fired() {
			continue
		}
		tower.LastFired = s.clock
		tower.HasFired = true
		s.publishEffectsLocked(tower, result)
		if s.recordShot != nil {
			s.recordShot(tower, result)
		}
		for _, defeat := range result.Defeats {
			s.state.RemoveEnemy(defeat.EnemyID)
			s.cfg.Metrics.Add("room_enemies_defeated_total", 1)
			s.creditLocked(defeat.OwnerID, defeat.Reward, loggingeconomy.ReasonEnemyReward, defeat.EnemyID)
		}
	}
}

func (s *Simulation) publishEffectsLocked(tower *state.Tower, result combat.Result) {
	for _, hit := range result.Hits {
		if hit.Effect == nil {
			continue
		}
		loggingstatus.Applied(context.Background(), s.cfg.Publisher, s.id, s.tick, logging.TowerRef(tower.ID), logging.EnemyRef(hit.EnemyID), loggingstatus.AppliedPayload{
			StatusEffect: string(hit.Effect.Type),
			Magnitude:    hit.Effect.Magnitude,
			DurationMs:   hit.Effect.Duration.Milliseconds(),
		}, nil)
	}
}

func (s *Simulation) moveEnemiesLocked(dt time.Duration) {
	elapsedMs := float64(dt) / float64(time.Millisecond)
	// Iterate over a copy; leaks and poison defeats shrink the list.
	enemies := append([]*state.Enemy(nil), s.state.Enemies...)
	for _, enemy := range enemies {
		enemy.PathProgress += enemy.Speed * elapsedMs * progressPerMs
		if enemy.PathProgress >= 1 {
			enemy.PathProgress = 1
			s.leakLocked(enemy)
			continue
		}
		pos := s.path.PointAt(enemy.PathProgress)
		enemy.X, enemy.Y = pos.X, pos.Y

		for _, effect := range combat.ExpireEffects(enemy, s.clock) {
			loggingstatus.Expired(context.Background(), s.cfg.Publisher, s.id, s.tick, logging.EnemyRef(enemy.ID), loggingstatus.ExpiredPayload{
				StatusEffect: string(effect.Type),
				Speed:        enemy.Speed,
			}, nil)
		}

		if _, owner := combat.PoisonTick(enemy, dt); !enemy.Alive() {
			s.state.RemoveEnemy(enemy.ID)
			reward := combat.Reward(enemy.Kind, s.state.Round)
			s.cfg.Metrics.Add("room_enemies_defeated_total", 1)
			loggingcombat.EnemyDefeated(context.Background(), s.cfg.Publisher, s.id, s.tick, logging.PlayerRef(owner), logging.EnemyRef(enemy.ID), loggingcombat.EnemyDefeatedPayload{
				EnemyType: enemy.Kind.String(),
				Reward:    reward,
				Owner:     owner,
				Cause:     string(state.EffectPoison),
			}, nil)
			s.creditLocked(owner, reward, loggingeconomy.ReasonEnemyReward, enemy.ID)
			continue
		}

		if stats, ok := enemy.Kind.Stats(); ok && stats.Regenerates && enemy.Health < enemy.MaxHealth {
			enemy.Health += enemy.MaxHealth * catalog.RegenRatePerSecond * dt.Seconds()
			if enemy.Health > enemy.MaxHealth {
				enemy.Health = enemy.MaxHealth
			}
		}
	}
}

func (s *Simulation) leakLocked(enemy *state.Enemy) {
	stats, _ := enemy.Kind.Stats()
	s.state.RemoveEnemy(enemy.ID)
	s.state.Lives -= stats.LivesDamage
	if s.state.Lives < 0 {
		s.state.Lives = 0
	}
	s.cfg.Metrics.Add("room_enemies_leaked_total", 1)
	loggingcombat.EnemyLeaked(context.Background(), s.cfg.Publisher, s.id, s.tick, logging.EnemyRef(enemy.ID), loggingcombat.EnemyLeakedPayload{
		EnemyType:      enemy.Kind.String(),
		LivesLost:      stats.LivesDamage,
		LivesRemaining: s.state.Lives,
	}, nil)
}

// completeRoundLocked pays the round bonus once, when the round's enemies
// are gone and none are still queued. Clearing the final round wins.
func (s *Simulation) completeRoundLocked(out *outbox) {
	if !s.state.RoundInProgress || len(s.state.Enemies) > 0 {
		return
	}
	if s.scheduler.PendingSpawns(s.state.Round) > 0 {
		return
	}
	round := s.state.Round
	s.state.RoundInProgress = false
	bonus := RoundBonusBase + round*RoundBonusPerRound
	for _, player := range s.state.Players {
		s.creditLocked(player.ID, bonus, loggingeconomy.ReasonRoundBonus, "")
	}
	loggingsimulation.RoundCompleted(context.Background(), s.cfg.Publisher, s.id, s.tick, loggingsimulation.RoundPayload{Round: round, Bonus: bonus}, nil)

	if round >= s.cfg.Catalog.FinalRound() && s.state.Lives > 0 {
		s.endLocked(true, out)
	}
}

func (s *Simulation) creditLocked(playerID string, amount int, reason, source string) {
	if !s.state.Credit(playerID, amount) {
		return
	}
	loggingeconomy.CurrencyCredited(context.Background(), s.cfg.Publisher, s.id, s.tick, logging.PlayerRef(playerID), loggingeconomy.CurrencyPayload{
		Amount:  amount,
		Balance: s.state.Currency[playerID],
		Reason:  reason,
		Source:  source,
	}, nil)
}

// endLocked marks the match finished, drops pending spawns and queues the
// game over notification. The tick loop notices and exits.
func (s *Simulation) endLocked(victory bool, out *outbox) {
	if !s.state.Active {
		return
	}
	s.state.Active = false
	s.state.Victory = victory
	s.state.RoundInProgress = false
	s.scheduler.CancelRoom(s.id)
	out.finish(victory)
	s.logger.Printf("game over: victory=%t round=%d lives=%d", victory, s.state.Round, s.state.Lives)
	loggingsimulation.GameOver(context.Background(), s.cfg.Publisher, s.id, s.tick, loggingsimulation.GameOverPayload{
		Victory: victory,
		Round:   s.state.Round,
		Lives:   s.state.Lives,
	}, nil)
}
