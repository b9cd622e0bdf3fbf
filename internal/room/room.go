// Package room runs the authoritative simulation of one match: player
// intents and the fixed-interval tick mutate the same GameState under a
// single per-room lock.
package room

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"coop-defense/server/internal/catalog"
	"coop-defense/server/internal/combat"
	"coop-defense/server/internal/state"
	"coop-defense/server/internal/telemetry"
	"coop-defense/server/internal/waves"
	"coop-defense/server/logging"
)

var (
	ErrInactive          = errors.New("room: simulation inactive")
	ErrUnknownPlayer     = errors.New("room: unknown player")
	ErrUnknownTower      = errors.New("room: unknown tower")
	ErrInvalidTowerKind  = errors.New("room: invalid tower type")
	ErrOutsideSection    = errors.New("room: position outside player section")
	ErrInsufficientFunds = errors.New("room: insufficient currency")
	ErrTooClose          = errors.New("room: too close to an existing tower")
	ErrNotOwner          = errors.New("room: tower owned by another player")
	ErrMaxLevel          = errors.New("room: tower already at max level")
	ErrRoundInProgress   = errors.New("room: round already in progress")
	ErrNoMoreRounds      = errors.New("room: no further rounds defined")
)

const (
	// DefaultTickInterval is the fixed simulation period.
	DefaultTickInterval = 100 * time.Millisecond
	// MaxConsecutiveFaults halts a room whose tick keeps panicking.
	MaxConsecutiveFaults = 5
	// RoundBonusBase and RoundBonusPerRound define the round completion credit.
	RoundBonusBase     = 100
	RoundBonusPerRound = 50
	// progressPerMs converts speed into path progress per elapsed millisecond.
	progressPerMs = 1.0 / 10000.0
)

// Hooks exposes tick sequencing callbacks for diagnostics and tests.
type Hooks struct {
	// BeforeTick runs under the room lock at the start of every tick.
	BeforeTick func(tick uint64)
}

// Config tunes a Simulation.
type Config struct {
	TickInterval         time.Duration
	MaxConsecutiveFaults int
	Catalog              *catalog.Catalog
	Logger               telemetry.Logger
	Metrics              telemetry.Metrics
	Publisher            logging.Publisher
	Observer             Observer
	Hooks                Hooks
	// NewID mints tower ids.
	NewID func() string
}

// DefaultConfig returns the standard tick rate on the default catalog.
func DefaultConfig() Config {
	return Config{
		TickInterval:         DefaultTickInterval,
		MaxConsecutiveFaults: MaxConsecutiveFaults,
		Catalog:              catalog.Default(),
	}
}

func (c Config) normalized() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.MaxConsecutiveFaults <= 0 {
		c.MaxConsecutiveFaults = MaxConsecutiveFaults
	}
	if c.Catalog == nil {
		c.Catalog = catalog.Default()
	}
	if c.Logger == nil {
		c.Logger = telemetry.Discard()
	}
	if c.Metrics == nil {
		c.Metrics = telemetry.WrapMetrics(nil)
	}
	if c.Publisher == nil {
		c.Publisher = logging.NopPublisher()
	}
	if c.Observer == nil {
		c.Observer = ObserverFuncs{}
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	return c
}

// Simulation owns one match's GameState.
type Simulation struct {
	id     string
	cfg    Config
	logger telemetry.Logger
	path   *catalog.Path

	mu         sync.Mutex
	state      *state.GameState
	scheduler  *waves.Scheduler
	clock      time.Duration
	tick       uint64
	faults     int
	recordShot func(*state.Tower, combat.Result)

	loopMu  sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// New seeds a match for players in join order. Sections are assigned by
// position from the partition for the player count, replacing any section
// the caller set.
func New(id string, players []state.Player, cfg Config) *Simulation {
	cfg = cfg.normalized()
	sections := catalog.PartitionSections(len(players))
	seeded := make([]state.Player, len(players))
	for i, p := range players {
		p.Position = i
		if i < len(sections) {
			p.Section = sections[i]
		}
		seeded[i] = p
	}
	s := &Simulation{
		id:        id,
		cfg:       cfg,
		logger:    telemetry.WithFields(cfg.Logger, map[string]any{"room": id}),
		path:      cfg.Catalog.Path(),
		state:     state.NewGameState(seeded),
		scheduler: waves.NewScheduler(id, cfg.Metrics),
	}
	s.recordShot = combat.NewShotTelemetryRecorder(combat.ShotTelemetryRecorderConfig{
		Publisher:   cfg.Publisher,
		RoomID:      id,
		CurrentTick: func() uint64 { return s.tick },
	})
	return s
}

// ID returns the room id the simulation belongs to.
func (s *Simulation) ID() string {
	return s.id
}

// Active reports whether the match is still running.
func (s *Simulation) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Active
}

// Now returns the simulation clock.
func (s *Simulation) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// Snapshot copies the current state.
func (s *Simulation) Snapshot() state.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot(s.id)
}

// PlayerData returns a participant with their assigned section.
func (s *Simulation) PlayerData(playerID string) (state.Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Player(playerID)
}

// PlayerCount reports how many participants remain.
func (s *Simulation) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Players)
}
