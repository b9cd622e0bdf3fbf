// Package lobby owns the set of rooms, their membership and the
// lobby -> active -> ended lifecycle. A room gets its Simulation when the
// game starts and loses it when the last player leaves.
package lobby

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"coop-defense/server/internal/catalog"
	"coop-defense/server/internal/room"
	"coop-defense/server/internal/state"
	"coop-defense/server/internal/telemetry"
	"coop-defense/server/logging"
	"coop-defense/server/logging/lifecycle"
)

var (
	ErrRoomNotFound     = errors.New("lobby: room not found")
	ErrRoomFull         = errors.New("lobby: room is full")
	ErrRoomActive       = errors.New("lobby: room already started")
	ErrNotEnoughPlayers = errors.New("lobby: not enough players to start")
	ErrInvalidName      = errors.New("lobby: room name and player identity are required")
	ErrAlreadyMember    = errors.New("lobby: player already in room")
	ErrNotMember        = errors.New("lobby: player not in room")
)

const (
	// Capacity is the fixed number of seats per room.
	Capacity = catalog.MaxPlayers
	// MinPlayersToStart is the smallest party that may start a match.
	MinPlayersToStart = 2
)

// Status is a room's lifecycle stage.
type Status int

const (
	StatusLobby Status = iota
	StatusActive
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusLobby:
		return "lobby"
	case StatusActive:
		return "active"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Member is a seat in a room. Position is the join order and never changes;
// the first remaining member owns the room.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Position int    `json:"position"`
}

// Summary is the room list entry.
type Summary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Active     bool   `json:"active"`
}

// Detail is a full view of one room.
type Detail struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Members    []Member `json:"players"`
	MaxPlayers int      `json:"maxPlayers"`
	Status     Status   `json:"status"`
}

// Active reports whether a match is running or finished but not yet vacated.
func (d Detail) Active() bool {
	return d.Status != StatusLobby
}

// Owner returns the first remaining member.
func (d Detail) Owner() (Member, bool) {
	if len(d.Members) == 0 {
		return Member{}, false
	}
	return d.Members[0], true
}

// Usernames lists member names in seat order.
func (d Detail) Usernames() []string {
	names := make([]string, 0, len(d.Members))
	for _, m := range d.Members {
		names = append(names, m.Username)
	}
	return names
}

// Has reports whether the player holds a seat.
func (d Detail) Has(playerID string) bool {
	for _, m := range d.Members {
		if m.ID == playerID {
			return true
		}
	}
	return false
}

// Departure describes the outcome of RemovePlayer.
type Departure struct {
	Room   Detail
	Member Member
	// Closed is set when the room was torn down because it emptied.
	Closed bool
}

// Config wires a Registry.
type Config struct {
	// Room is the template every started Simulation is built from.
	Room      room.Config
	Logger    telemetry.Logger
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	NewID     func() string
}

// DefaultConfig returns a registry configuration with default simulations.
func DefaultConfig() Config {
	return Config{Room: room.DefaultConfig()}
}

func (c Config) normalized() Config {
	if c.Logger == nil {
		c.Logger = telemetry.Discard()
	}
	if c.Publisher == nil {
		c.Publisher = logging.NopPublisher()
	}
	if c.Metrics == nil {
		c.Metrics = telemetry.WrapMetrics(nil)
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	if c.Room.Logger == nil {
		c.Room.Logger = c.Logger
	}
	if c.Room.Publisher == nil {
		c.Room.Publisher = c.Publisher
	}
	if c.Room.Metrics == nil {
		c.Room.Metrics = c.Metrics
	}
	return c
}

type lobbyRoom struct {
	id      string
	name    string
	members []Member
	started bool
	sim     *room.Simulation
}

func (r *lobbyRoom) status() Status {
	switch {
	case !r.started:
		return StatusLobby
	case r.sim != nil && r.sim.Active():
		return StatusActive
	default:
		return StatusEnded
	}
}

func (r *lobbyRoom) detail() Detail {
	return Detail{
		ID:         r.id,
		Name:       r.name,
		Members:    append([]Member(nil), r.members...),
		MaxPlayers: Capacity,
		Status:     r.status(),
	}
}

func (r *lobbyRoom) summary() Summary {
	return Summary{
		ID:         r.id,
		Name:       r.name,
		Players:    len(r.members),
		MaxPlayers: Capacity,
		Active:     r.started,
	}
}

func (r *lobbyRoom) indexOf(playerID string) int {
	for i, m := range r.members {
		if m.ID == playerID {
			return i
		}
	}
	return -1
}

// Registry is the process-wide room table. Construct one at startup and
// Close it on shutdown.
type Registry struct {
	cfg    Config
	logger telemetry.Logger

	mu    sync.Mutex
	rooms map[string]*lobbyRoom
	order []string
}

// NewRegistry constructs an empty registry.
func NewRegistry(cfg Config) *Registry {
	cfg = cfg.normalized()
	return &Registry{
		cfg:    cfg,
		logger: telemetry.WithFields(cfg.Logger, map[string]any{"component": "lobby"}),
		rooms:  make(map[string]*lobbyRoom),
	}
}

// ListRooms returns every room in creation order.
func (r *Registry) ListRooms() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]Summary, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.rooms[id].summary())
	}
	return list
}

// Len reports how many rooms exist.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// CreateRoom opens a lobby room with the creator in seat 0.
func (r *Registry) CreateRoom(name string, creator Member) (Detail, error) {
	name = strings.TrimSpace(name)
	if name == "" || creator.ID == "" {
		return Detail{}, ErrInvalidName
	}
	creator.Position = 0

	r.mu.Lock()
	lr := &lobbyRoom{
		id:      r.cfg.NewID(),
		name:    name,
		members: []Member{creator},
	}
	r.rooms[lr.id] = lr
	r.order = append(r.order, lr.id)
	detail := lr.detail()
	r.mu.Unlock()

	r.cfg.Metrics.Add("lobby_rooms_created_total", 1)
	r.logger.Printf("room %s (%q) created by %s", detail.ID, name, creator.Username)
	lifecycle.RoomCreated(context.Background(), r.cfg.Publisher, detail.ID, logging.PlayerRef(creator.ID), lifecycle.RoomPayload{
		Name:        name,
		PlayerCount: 1,
	}, nil)
	return detail, nil
}

// lookupLocked resolves a room by id, falling back to the first room in
// creation order whose name matches.
func (r *Registry) lookupLocked(ref string) *lobbyRoom {
	if lr, ok := r.rooms[ref]; ok {
		return lr
	}
	for _, id := range r.order {
		if lr := r.rooms[id]; lr.name == ref {
			return lr
		}
	}
	return nil
}

// Room returns a room by id or name.
func (r *Registry) Room(ref string) (Detail, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lr := r.lookupLocked(ref)
	if lr == nil {
		return Detail{}, false
	}
	return lr.detail(), true
}

// Simulation returns the running simulation of a started room.
func (r *Registry) Simulation(roomID string) (*room.Simulation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lr, ok := r.rooms[roomID]
	if !ok || lr.sim == nil {
		return nil, false
	}
	return lr.sim, true
}

// JoinRoom seats a player in a lobby room addressed by id or name.
func (r *Registry) JoinRoom(ref string, member Member) (Detail, error) {
	if member.ID == "" {
		return Detail{}, ErrInvalidName
	}

	r.mu.Lock()
	lr := r.lookupLocked(ref)
	switch {
	case lr == nil:
		r.mu.Unlock()
		return Detail{}, ErrRoomNotFound
	case lr.started:
		r.mu.Unlock()
		return Detail{}, ErrRoomActive
	case lr.indexOf(member.ID) >= 0:
		r.mu.Unlock()
		return Detail{}, ErrAlreadyMember
	case len(lr.members) >= Capacity:
		r.mu.Unlock()
		return Detail{}, ErrRoomFull
	}
	// Positions keep counting up after departures so seats stay unique.
	member.Position = 0
	if n := len(lr.members); n > 0 {
		member.Position = lr.members[n-1].Position + 1
	}
	lr.members = append(lr.members, member)
	detail := lr.detail()
	r.mu.Unlock()

	lifecycle.PlayerJoined(context.Background(), r.cfg.Publisher, detail.ID, logging.PlayerRef(member.ID), lifecycle.RoomPayload{
		Name:        detail.Name,
		PlayerCount: len(detail.Members),
	}, map[string]any{"username": member.Username})
	return detail, nil
}

// StartGame moves a lobby room to active and launches its simulation under
// ctx. The simulation's tick loop is already running when StartGame returns.
func (r *Registry) StartGame(ctx context.Context, ref string) (Detail, *room.Simulation, error) {
	r.mu.Lock()
	lr := r.lookupLocked(ref)
	switch {
	case lr == nil:
		r.mu.Unlock()
		return Detail{}, nil, ErrRoomNotFound
	case lr.started:
		r.mu.Unlock()
		return Detail{}, nil, ErrRoomActive
	case len(lr.members) < MinPlayersToStart:
		r.mu.Unlock()
		return Detail{}, nil, ErrNotEnoughPlayers
	}

	players := make([]state.Player, 0, len(lr.members))
	for _, m := range lr.members {
		players = append(players, state.Player{ID: m.ID, Username: m.Username})
	}
	sim := room.New(lr.id, players, r.cfg.Room)
	lr.sim = sim
	lr.started = true
	detail := lr.detail()
	r.mu.Unlock()

	sim.Start(ctx)
	r.cfg.Metrics.Add("lobby_games_started_total", 1)
	r.logger.Printf("room %s started with %d players", detail.ID, len(players))
	lifecycle.RoomStarted(context.Background(), r.cfg.Publisher, detail.ID, lifecycle.RoomPayload{
		Name:        detail.Name,
		PlayerCount: len(players),
	}, nil)
	return detail, sim, nil
}

// RemovePlayer frees a player's seat, removing them from the running match
// as well. An emptied room is deleted and its simulation stopped.
func (r *Registry) RemovePlayer(roomID, playerID, reason string) (Departure, error) {
	r.mu.Lock()
	lr, ok := r.rooms[roomID]
	if !ok {
		r.mu.Unlock()
		return Departure{}, ErrRoomNotFound
	}
	idx := lr.indexOf(playerID)
	if idx < 0 {
		r.mu.Unlock()
		return Departure{}, ErrNotMember
	}
	member := lr.members[idx]
	lr.members = append(lr.members[:idx], lr.members[idx+1:]...)
	sim := lr.sim
	closed := len(lr.members) == 0
	if closed {
		delete(r.rooms, roomID)
		for i, id := range r.order {
			if id == roomID {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	detail := lr.detail()
	r.mu.Unlock()

	if sim != nil {
		sim.RemovePlayer(playerID)
	}
	lifecycle.PlayerLeft(context.Background(), r.cfg.Publisher, roomID, logging.PlayerRef(playerID), lifecycle.PlayerLeftPayload{
		Username: member.Username,
		Reason:   reason,
	}, nil)

	if closed {
		if sim != nil {
			sim.Stop()
		}
		r.cfg.Metrics.Add("lobby_rooms_closed_total", 1)
		r.logger.Printf("room %s closed", roomID)
		lifecycle.RoomClosed(context.Background(), r.cfg.Publisher, roomID, lifecycle.RoomPayload{Name: detail.Name}, nil)
	}
	return Departure{Room: detail, Member: member, Closed: closed}, nil
}

// Close stops every running simulation and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	sims := make([]*room.Simulation, 0, len(r.rooms))
	for _, lr := range r.rooms {
		if lr.sim != nil {
			sims = append(sims, lr.sim)
		}
	}
	r.rooms = make(map[string]*lobbyRoom)
	r.order = nil
	r.mu.Unlock()

	for _, sim := range sims {
		sim.Stop()
	}
}
