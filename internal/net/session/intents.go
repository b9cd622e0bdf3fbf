package session

import (
	"strings"

	"coop-defense/server/internal/lobby"
	"coop-defense/server/internal/net/proto"
	"coop-defense/server/internal/state"
)

func (r *Router) createRoom(v view, msg proto.ClientMessage) error {
	var req proto.CreateRoomRequest
	if err := msg.Bind(&req); err != nil {
		return err
	}
	if v.roomID != "" {
		return ErrAlreadyInRoom
	}
	username := usernameOr(req.Username, v.username)
	detail, err := r.registry.CreateRoom(req.RoomName, lobby.Member{ID: v.playerID, Username: username})
	if err != nil {
		return err
	}
	r.setRoom(v.token, detail.ID, username)
	r.broadcastRoomsList()
	r.sendPlayersInRoom(detail)
	return nil
}

func (r *Router) joinRoom(v view, msg proto.ClientMessage) error {
	var req proto.JoinRoomRequest
	if err := msg.Bind(&req); err != nil {
		return err
	}
	if v.roomID != "" {
		return ErrAlreadyInRoom
	}
	username := usernameOr(req.Username, v.username)
	detail, err := r.registry.JoinRoom(req.Ref(), lobby.Member{ID: v.playerID, Username: username})
	if err != nil {
		return err
	}
	r.setRoom(v.token, detail.ID, username)
	r.broadcastRoomsList()
	r.sendPlayersInRoom(detail)
	return nil
}

func (r *Router) startGame(v view, msg proto.ClientMessage) error {
	var req proto.StartGameRequest
	if err := msg.Bind(&req); err != nil {
		return err
	}
	if v.roomID == "" {
		return ErrNotInRoom
	}
	ref := req.Ref()
	if ref == "" {
		ref = v.roomID
	}
	detail, ok := r.registry.Room(ref)
	if !ok {
		return lobby.ErrRoomNotFound
	}
	if !detail.Has(v.playerID) {
		return lobby.ErrNotMember
	}
	started, _, err := r.registry.StartGame(r.ctx, detail.ID)
	if err != nil {
		return err
	}
	r.broadcastRoomsList()
	r.broadcastRoom(started.ID, proto.TypeGameStarting, proto.GameStarting{RoomID: started.ID})
	return nil
}

func (r *Router) getGameState(v view) error {
	sim, err := r.simulation(v)
	if err != nil {
		return err
	}
	r.sendGameState(v, sim)
	return nil
}

func (r *Router) placeTower(v view, msg proto.ClientMessage) error {
	var req proto.PlaceTowerRequest
	if err := msg.Bind(&req); err != nil {
		return err
	}
	sim, err := r.simulation(v)
	if err != nil {
		return err
	}
	tower, err := sim.PlaceTower(v.playerID, req.Type, req.X, req.Y)
	if err != nil {
		return err
	}
	r.broadcastMutation(v.roomID, sim.Snapshot(), proto.TypeTowerPlaced, tower)
	return nil
}

func (r *Router) upgradeTower(v view, msg proto.ClientMessage) error {
	var req proto.UpgradeTowerRequest
	if err := msg.Bind(&req); err != nil {
		return err
	}
	sim, err := r.simulation(v)
	if err != nil {
		return err
	}
	tower, err := sim.UpgradeTower(v.playerID, req.TowerID)
	if err != nil {
		return err
	}
	r.broadcastMutation(v.roomID, sim.Snapshot(), proto.TypeTowerUpgraded, proto.TowerUpgraded{
		TowerID: tower.ID,
		Level:   tower.Level,
	})
	return nil
}

func (r *Router) startRound(v view) error {
	sim, err := r.simulation(v)
	if err != nil {
		return err
	}
	round, err := sim.StartRound()
	if err != nil {
		return err
	}
	r.broadcastRoom(v.roomID, proto.TypeRoundStart, proto.RoundStart{Round: round})
	return nil
}

func (r *Router) returnToLobby(v view) error {
	if v.roomID == "" {
		return ErrNotInRoom
	}
	r.leave(v, "returnToLobby")
	return nil
}

// broadcastMutation sends the full snapshot followed by the presentation
// delta.
func (r *Router) broadcastMutation(roomID string, snapshot state.Snapshot, event string, delta any) {
	r.broadcastRoom(roomID, proto.TypeGameState, snapshot)
	r.broadcastRoom(roomID, event, delta)
}

func usernameOr(requested, current string) string {
	if name := strings.TrimSpace(requested); name != "" {
		return name
	}
	return current
}
