package room

import "coop-defense/server/internal/state"

// Observer receives simulation output after the room lock is released.
// Implementations must not block.
type Observer interface {
	EnemySpawned(roomID string, enemy state.Enemy)
	Tick(roomID string, snapshot state.Snapshot)
	GameOver(roomID string, victory bool)
}

// ObserverFuncs adapts optional callbacks into an Observer.
type ObserverFuncs struct {
	OnEnemySpawned func(roomID string, enemy state.Enemy)
	OnTick         func(roomID string, snapshot state.Snapshot)
	OnGameOver     func(roomID string, victory bool)
}

func (o ObserverFuncs) EnemySpawned(roomID string, enemy state.Enemy) {
	if o.OnEnemySpawned != nil {
		o.OnEnemySpawned(roomID, enemy)
	}
}

func (o ObserverFuncs) Tick(roomID string, snapshot state.Snapshot) {
	if o.OnTick != nil {
		o.OnTick(roomID, snapshot)
	}
}

func (o ObserverFuncs) GameOver(roomID string, victory bool) {
	if o.OnGameOver != nil {
		o.OnGameOver(roomID, victory)
	}
}

// outbox collects observer notifications produced under the lock.
type outbox struct {
	spawned  []state.Enemy
	gameOver *bool
	snapshot *state.Snapshot
}

func (o *outbox) finish(victory bool) {
	o.gameOver = &victory
}

func (s *Simulation) deliver(out outbox) {
	for _, enemy := range out.spawned {
		s.cfg.Observer.EnemySpawned(s.id, enemy)
	}
	if out.snapshot != nil {
		s.cfg.Observer.Tick(s.id, *out.snapshot)
	}
	if out.gameOver != nil {
		s.cfg.Observer.GameOver(s.id, *out.gameOver)
	}
}
