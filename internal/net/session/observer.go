package session

import (
	"coop-defense/server/internal/net/proto"
	"coop-defense/server/internal/room"
	"coop-defense/server/internal/state"
)

var _ room.Observer = (*Router)(nil)

// EnemySpawned forwards a spawn to the room's members.
func (r *Router) EnemySpawned(roomID string, enemy state.Enemy) {
	r.broadcastRoom(roomID, proto.TypeEnemySpawned, enemy)
}

// Tick forwards the post-tick snapshot to the room's members.
func (r *Router) Tick(roomID string, snapshot state.Snapshot) {
	r.broadcastRoom(roomID, proto.TypeGameState, snapshot)
}

// GameOver announces the match result.
func (r *Router) GameOver(roomID string, victory bool) {
	r.logger.Printf("room %s finished: victory=%t", roomID, victory)
	r.broadcastRoom(roomID, proto.TypeGameOver, proto.GameOver{Victory: victory})
}
