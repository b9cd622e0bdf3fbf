// Package state defines the authoritative match records owned by a room
// simulation and the snapshot copies handed to the presentation layer.
package state

import (
	"time"

	"coop-defense/server/internal/catalog"
)

const (
	// StartingCurrency seeds every player's balance when a match starts.
	StartingCurrency = 650
	// StartingLives seeds the shared lives counter.
	StartingLives = 100
)

// EffectType enumerates timed status modifiers.
type EffectType string

const (
	EffectFreeze EffectType = "freeze"
	EffectPoison EffectType = "poison"
	EffectStun   EffectType = "stun"
)

// Effect is a timed modifier attached to an enemy. ExpiresAt is measured
// on the owning room's simulation clock.
type Effect struct {
	Type      EffectType    `json:"type"`
	Magnitude float64       `json:"value"`
	Duration  time.Duration `json:"-"`
	ExpiresAt time.Duration `json:"-"`
	SourceID  string        `json:"-"`
	OwnerID   string        `json:"-"`
}

// Player is a participant of an active match.
type Player struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Section  catalog.Section `json:"section"`
	Position int             `json:"position"`
}

// Tower is a placed defensive unit.
type Tower struct {
	ID      string            `json:"id"`
	Kind    catalog.TowerKind `json:"type"`
	Level   int               `json:"level"`
	X       float64           `json:"x"`
	Y       float64           `json:"y"`
	OwnerID string            `json:"ownerId"`

	// Simulation clock readings; hasFired distinguishes "never fired".
	LastFired  time.Duration `json:"-"`
	HasFired   bool          `json:"-"`
	LastIncome time.Duration `json:"-"`
}

// Point returns the tower's map position.
func (t *Tower) Point() catalog.Point {
	return catalog.Point{X: t.X, Y: t.Y}
}

// Enemy is a hostile unit moving along the path.
type Enemy struct {
	ID           string            `json:"id"`
	Kind         catalog.EnemyKind `json:"type"`
	Health       float64           `json:"health"`
	MaxHealth    float64           `json:"maxHealth"`
	Speed        float64           `json:"speed"`
	BaseSpeed    float64           `json:"baseSpeed"`
	PathProgress float64           `json:"pathProgress"`
	X            float64           `json:"x"`
	Y            float64           `json:"y"`
	Effects      []Effect          `json:"effects"`
}

// Point returns the enemy's last resolved map position.
func (e *Enemy) Point() catalog.Point {
	return catalog.Point{X: e.X, Y: e.Y}
}

// Alive reports whether the enemy still has health.
func (e *Enemy) Alive() bool {
	return e.Health > 0
}

// GameState is the complete authoritative state of one match.
type GameState struct {
	Round           int
	Lives           int
	RoundInProgress bool
	Active          bool
	Victory         bool
	EnemyCounter    uint64
	Players         []Player
	Currency        map[string]int
	Towers          []*Tower
	Enemies         []*Enemy
}

// NewGameState seeds a match for the given players.
func NewGameState(players []Player) *GameState {
	gs := &GameState{
		Lives:    StartingLives,
		Active:   true,
		Players:  append([]Player(nil), players...),
		Currency: make(map[string]int, len(players)),
		Towers:   make([]*Tower, 0),
		Enemies:  make([]*Enemy, 0),
	}
	for _, p := range players {
		gs.Currency[p.ID] = StartingCurrency
	}
	return gs
}

// Player looks up a participant by id.
func (gs *GameState) Player(id string) (Player, bool) {
	for _, p := range gs.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Tower looks up a tower by id.
func (gs *GameState) Tower(id string) *Tower {
	for _, t := range gs.Towers {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Credit adds currency to a player still in the match.
func (gs *GameState) Credit(playerID string, amount int) bool {
	if amount <= 0 {
		return false
	}
	if _, ok := gs.Currency[playerID]; !ok {
		return false
	}
	gs.Currency[playerID] += amount
	return true
}

// Debit removes currency when the balance covers it.
func (gs *GameState) Debit(playerID string, amount int) bool {
	balance, ok := gs.Currency[playerID]
	if !ok || amount < 0 || balance < amount {
		return false
	}
	gs.Currency[playerID] = balance - amount
	return true
}

// RemoveEnemy drops an enemy by id, preserving the order of the rest.
func (gs *GameState) RemoveEnemy(id string) bool {
	for i, e := range gs.Enemies {
		if e.ID == id {
			copy(gs.Enemies[i:], gs.Enemies[i+1:])
			gs.Enemies[len(gs.Enemies)-1] = nil
			gs.Enemies = gs.Enemies[:len(gs.Enemies)-1]
			return true
		}
	}
	return false
}

// RemovePlayer drops a participant and their balance. Their towers stay on
// the map.
func (gs *GameState) RemovePlayer(id string) bool {
	for i, p := range gs.Players {
		if p.ID == id {
			gs.Players = append(gs.Players[:i], gs.Players[i+1:]...)
			delete(gs.Currency, id)
			return true
		}
	}
	return false
}
