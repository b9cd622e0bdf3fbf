package room

import (
	"context"
	"fmt"

	"coop-defense/server/internal/catalog"
	"coop-defense/server/internal/state"
	"coop-defense/server/logging"
	loggingeconomy "coop-defense/server/logging/economy"
)

// PlaceTower validates and places a level 1 tower. Every check runs before
// any mutation, so a rejected placement leaves the state untouched.
func (s *Simulation) PlaceTower(playerID string, kind catalog.TowerKind, x, y float64) (state.Tower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Active {
		return state.Tower{}, ErrInactive
	}
	player, ok := s.state.Player(playerID)
	if !ok {
		return state.Tower{}, ErrUnknownPlayer
	}
	stats, ok := kind.Stats()
	if !ok {
		return state.Tower{}, ErrInvalidTowerKind
	}
	if !player.Section.Contains(x, y) {
		return state.Tower{}, ErrOutsideSection
	}
	if s.state.Currency[playerID] < stats.Cost {
		return state.Tower{}, ErrInsufficientFunds
	}
	target := catalog.Point{X: x, Y: y}
	for _, existing := range s.state.Towers {
		if existing.Point().Distance(target) < catalog.MinTowerSeparation {
			return state.Tower{}, fmt.Errorf("%w: %s", ErrTooClose, existing.ID)
		}
	}

	if !s.state.Debit(playerID, stats.Cost) {
		return state.Tower{}, ErrInsufficientFunds
	}
	tower := &state.Tower{
		ID:         s.cfg.NewID(),
		Kind:       kind,
		Level:      1,
		X:          x,
		Y:          y,
		OwnerID:    playerID,
		LastIncome: s.clock,
	}
	s.state.Towers = append(s.state.Towers, tower)
	s.cfg.Metrics.Add("room_towers_placed_total", 1)
	loggingeconomy.CurrencyDebited(context.Background(), s.cfg.Publisher, s.id, s.tick, logging.PlayerRef(playerID), loggingeconomy.CurrencyPayload{
		Amount:  stats.Cost,
		Balance: s.state.Currency[playerID],
		Reason:  loggingeconomy.ReasonTowerPlaced,
		Source:  tower.ID,
	}, map[string]any{"towerType": kind.String()})
	return *tower, nil
}

// UpgradeTower raises an owned tower by one level.
func (s *Simulation) UpgradeTower(playerID, towerID string) (state.Tower, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Active {
		return state.Tower{}, ErrInactive
	}
	if _, ok := s.state.Player(playerID); !ok {
		return state.Tower{}, ErrUnknownPlayer
	}
	tower := s.state.Tower(towerID)
	if tower == nil {
		return state.Tower{}, ErrUnknownTower
	}
	if tower.OwnerID != playerID {
		return state.Tower{}, ErrNotOwner
	}
	if tower.Level >= catalog.MaxTowerLevel {
		return state.Tower{}, ErrMaxLevel
	}
	stats, ok := tower.Kind.Stats()
	if !ok {
		return state.Tower{}, ErrInvalidTowerKind
	}
	cost := stats.UpgradeCost(tower.Level)
	if !s.state.Debit(playerID, cost) {
		return state.Tower{}, ErrInsufficientFunds
	}
	tower.Level++
	s.cfg.Metrics.Add("room_towers_upgraded_total", 1)
	loggingeconomy.CurrencyDebited(context.Background(), s.cfg.Publisher, s.id, s.tick, logging.PlayerRef(playerID), loggingeconomy.CurrencyPayload{
		Amount:  cost,
		Balance: s.state.Currency[playerID],
		Reason:  loggingeconomy.ReasonTowerUpgraded,
		Source:  tower.ID,
	}, map[string]any{"level": tower.Level})
	return *tower, nil
}

// StartRound begins the next defined round and queues its spawns. The
// round counter only advances when the next wave exists.
func (s *Simulation) StartRound() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Active {
		return 0, ErrInactive
	}
	if s.state.RoundInProgress {
		return 0, ErrRoundInProgress
	}
	next := s.state.Round + 1
	wave, ok := s.cfg.Catalog.Wave(next)
	if !ok {
		return 0, ErrNoMoreRounds
	}
	s.state.Round = next
	s.state.RoundInProgress = true
	span := s.scheduler.Schedule(s.clock, wave)
	s.logger.Debugf("round %d started: %d enemies over %s", next, wave.EnemyCount(), span)
	return next, nil
}

// RemovePlayer drops a participant and their balance. Their towers keep
// defending. It reports whether the player was present.
func (s *Simulation) RemovePlayer(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.RemovePlayer(playerID)
}
