// Package session maps connections to players and rooms, dispatches client
// intents to the lobby and the room simulations and fans the results back
// out. Every rejected intent is silent on the wire.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"coop-defense/server/internal/lobby"
	"coop-defense/server/internal/net/proto"
	"coop-defense/server/internal/room"
	"coop-defense/server/internal/telemetry"
	"coop-defense/server/logging"
	"coop-defense/server/logging/lifecycle"
	"coop-defense/server/logging/network"
)

var (
	ErrNotInRoom     = errors.New("session: not in a room")
	ErrAlreadyInRoom = errors.New("session: already in a room")
	ErrNoGame        = errors.New("session: room has no running game")
	ErrUnknownIntent = errors.New("session: unknown intent")
)

// Config wires a Router.
type Config struct {
	Lobby lobby.Config
	// ResumeGrace keeps a disconnected session's seat for this long. Zero
	// makes a disconnect behave exactly like returnToLobby.
	ResumeGrace    time.Duration
	OutboundBuffer int
	Logger         telemetry.Logger
	Publisher      logging.Publisher
	Metrics        telemetry.Metrics
	NewToken       func() string
}

func (c Config) normalized() Config {
	if c.ResumeGrace < 0 {
		c.ResumeGrace = 0
	}
	if c.OutboundBuffer <= 0 {
		c.OutboundBuffer = DefaultOutboundBuffer
	}
	if c.Logger == nil {
		c.Logger = telemetry.Discard()
	}
	if c.Publisher == nil {
		c.Publisher = logging.NopPublisher()
	}
	if c.Metrics == nil {
		c.Metrics = telemetry.WrapMetrics(nil)
	}
	if c.NewToken == nil {
		c.NewToken = uuid.NewString
	}
	if c.Lobby.Logger == nil {
		c.Lobby.Logger = c.Logger
	}
	if c.Lobby.Publisher == nil {
		c.Lobby.Publisher = c.Publisher
	}
	if c.Lobby.Metrics == nil {
		c.Lobby.Metrics = c.Metrics
	}
	return c
}

type session struct {
	token    string
	playerID string
	username string
	roomID   string
	attached bool
	gen      uint64
	expiry   *time.Timer
}

// view is an unlocked copy of a session used while handling one intent.
type view struct {
	token    string
	playerID string
	username string
	roomID   string
}

func (s *session) view() view {
	return view{token: s.token, playerID: s.playerID, username: s.username, roomID: s.roomID}
}

// Attachment binds one transport connection to a session. Outbound closes
// when the connection is replaced or detached.
type Attachment struct {
	Token    string
	PlayerID string
	Resumed  bool
	Outbound <-chan Outbound
	gen      uint64
}

// Stats summarises the router for diagnostics.
type Stats struct {
	Sessions    int `json:"sessions"`
	Attached    int `json:"attached"`
	Subscribers int `json:"subscribers"`
	Rooms       int `json:"rooms"`
}

// Router owns the session table and the lobby registry. It also observes
// every simulation it starts.
type Router struct {
	cfg         Config
	logger      telemetry.Logger
	registry    *lobby.Registry
	broadcaster *Broadcaster

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*session
}

// NewRouter constructs a router. Simulations started through it run under
// ctx and stop when Close is called.
func NewRouter(ctx context.Context, cfg Config) *Router {
	cfg = cfg.normalized()
	runCtx, cancel := context.WithCancel(ctx)
	r := &Router{
		cfg:      cfg,
		logger:   telemetry.WithFields(cfg.Logger, map[string]any{"component": "session"}),
		ctx:      runCtx,
		cancel:   cancel,
		sessions: make(map[string]*session),
	}
	r.broadcaster = NewBroadcaster(cfg.OutboundBuffer, r.slowConsumer)
	lobbyCfg := cfg.Lobby
	lobbyCfg.Room.Observer = r
	r.registry = lobby.NewRegistry(lobbyCfg)
	return r
}

// Registry exposes the lobby for read-only endpoints.
func (r *Router) Registry() *lobby.Registry {
	return r.registry
}

// Close stops pending expiries and every running simulation.
func (r *Router) Close() {
	r.mu.Lock()
	for _, s := range r.sessions {
		if s.expiry != nil {
			s.expiry.Stop()
		}
	}
	r.mu.Unlock()
	r.registry.Close()
	r.cancel()
}

// Stats returns counters for diagnostics.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	stats := Stats{Sessions: len(r.sessions)}
	for _, s := range r.sessions {
		if s.attached {
			stats.Attached++
		}
	}
	r.mu.Unlock()
	stats.Subscribers = r.broadcaster.SubscriberCount()
	stats.Rooms = r.registry.Len()
	return stats
}

// Connect attaches a connection. A known token resumes its session, seat
// included; anything else starts a new session. The first queued message is
// always the session announcement.
func (r *Router) Connect(token string) *Attachment {
	r.mu.Lock()
	s, resumed := r.sessions[token]
	if resumed {
		if s.expiry != nil {
			s.expiry.Stop()
			s.expiry = nil
		}
	} else {
		s = &session{token: r.cfg.NewToken(), playerID: uuid.NewString()}
		r.sessions[s.token] = s
	}
	s.gen++
	s.attached = true
	v := s.view()
	att := &Attachment{Token: s.token, PlayerID: s.playerID, Resumed: resumed, gen: s.gen}
	r.mu.Unlock()

	att.Outbound = r.broadcaster.Register(v.playerID)
	r.send(v.playerID, proto.TypeSession, proto.Session{
		Token:    v.token,
		PlayerID: v.playerID,
		Resumed:  resumed,
		RoomID:   v.roomID,
	})
	r.cfg.Metrics.Add("session_connects_total", 1)
	if resumed {
		r.logger.Debugf("session %s resumed by player %s", v.token, v.playerID)
		lifecycle.SessionResumed(context.Background(), r.cfg.Publisher, v.token, lifecycle.SessionPayload{
			PlayerID: v.playerID,
			RoomID:   v.roomID,
		}, nil)
		if v.roomID != "" {
			if sim, ok := r.registry.Simulation(v.roomID); ok {
				r.sendGameState(v, sim)
			}
		}
	}
	return att
}

// Disconnect detaches a connection. Stale attachments, replaced by a later
// Connect with the same token, only release their own queue.
func (r *Router) Disconnect(att *Attachment) {
	if att == nil {
		return
	}
	r.broadcaster.Unregister(att.PlayerID, att.Outbound)

	r.mu.Lock()
	s, ok := r.sessions[att.Token]
	if !ok || s.gen != att.gen {
		r.mu.Unlock()
		return
	}
	s.attached = false
	if r.cfg.ResumeGrace <= 0 {
		delete(r.sessions, s.token)
		v := s.view()
		r.mu.Unlock()
		r.leave(v, "disconnect")
		return
	}
	gen := s.gen
	s.expiry = time.AfterFunc(r.cfg.ResumeGrace, func() { r.expire(att.Token, gen) })
	r.mu.Unlock()
}

func (r *Router) expire(token string, gen uint64) {
	r.mu.Lock()
	s, ok := r.sessions[token]
	if !ok || s.attached || s.gen != gen {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, token)
	v := s.view()
	r.mu.Unlock()

	r.logger.Debugf("session %s expired", token)
	lifecycle.SessionExpired(context.Background(), r.cfg.Publisher, token, lifecycle.SessionPayload{
		PlayerID: v.playerID,
		RoomID:   v.roomID,
	}, nil)
	r.leave(v, "expired")
}

func (r *Router) lookup(att *Attachment) (view, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[att.Token]
	if !ok || s.gen != att.gen {
		return view{}, false
	}
	return s.view(), true
}

func (r *Router) setRoom(token, roomID, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[token]; ok {
		s.roomID = roomID
		if username != "" {
			s.username = username
		}
	}
}

// Handle dispatches one decoded intent from an attached connection.
func (r *Router) Handle(att *Attachment, msg proto.ClientMessage) {
	v, ok := r.lookup(att)
	if !ok {
		return
	}
	r.cfg.Metrics.Add("session_intents_total", 1)

	var err error
	switch msg.Event {
	case proto.TypeGetRooms:
		r.send(v.playerID, proto.TypeRoomsList, proto.RoomsList(r.registry.ListRooms()))
	case proto.TypeCreateRoom:
		err = r.createRoom(v, msg)
	case proto.TypeJoinRoom:
		err = r.joinRoom(v, msg)
	case proto.TypeStartGame:
		err = r.startGame(v, msg)
	case proto.TypeGetGameState:
		err = r.getGameState(v)
	case proto.TypePlaceTower:
		err = r.placeTower(v, msg)
	case proto.TypeUpgradeTower:
		err = r.upgradeTower(v, msg)
	case proto.TypeStartRound:
		err = r.startRound(v)
	case proto.TypeReturnToLobby:
		err = r.returnToLobby(v)
	default:
		err = ErrUnknownIntent
	}
	if err != nil {
		r.reject(v, msg.Event, err)
	}
}

func (r *Router) reject(v view, intent string, err error) {
	r.cfg.Metrics.Add("session_intents_rejected_total", 1)
	r.logger.Debugf("%s from player %s rejected: %v", intent, v.playerID, err)
	network.IntentRejected(context.Background(), r.cfg.Publisher, v.roomID, v.token, logging.PlayerRef(v.playerID), network.IntentRejectedPayload{
		Intent: intent,
		Reason: err.Error(),
	}, nil)
}

func (r *Router) slowConsumer(playerID string, dropped uint64) {
	r.cfg.Metrics.Add("session_broadcast_dropped_total", 1)
	if dropped != 1 && dropped%100 != 0 {
		return
	}
	r.logger.Warnf("outbound queue full for player %s (%d dropped)", playerID, dropped)
	network.SlowConsumer(context.Background(), r.cfg.Publisher, "", playerID, network.SlowConsumerPayload{Dropped: dropped}, nil)
}

func (r *Router) send(playerID, event string, data any) {
	r.broadcaster.SendTo(playerID, Outbound{Event: event, Data: data})
}

func (r *Router) broadcastRoom(roomID, event string, data any) {
	detail, ok := r.registry.Room(roomID)
	if !ok || detail.ID != roomID {
		return
	}
	ids := make([]string, 0, len(detail.Members))
	for _, m := range detail.Members {
		ids = append(ids, m.ID)
	}
	r.broadcaster.SendMany(ids, Outbound{Event: event, Data: data})
}

func (r *Router) broadcastRoomsList() {
	r.broadcaster.Broadcast(Outbound{Event: proto.TypeRoomsList, Data: proto.RoomsList(r.registry.ListRooms())})
}

// sendPlayersInRoom tells every member who is seated; only the owner's copy
// carries isOwner.
func (r *Router) sendPlayersInRoom(detail lobby.Detail) {
	owner, _ := detail.Owner()
	names := detail.Usernames()
	for _, m := range detail.Members {
		r.send(m.ID, proto.TypePlayersInRoom, proto.PlayersInRoom{
			RoomID:  detail.ID,
			Players: names,
			IsOwner: m.ID == owner.ID,
		})
	}
}

func (r *Router) sendGameState(v view, sim *room.Simulation) {
	r.send(v.playerID, proto.TypeGameState, sim.Snapshot())
	if player, ok := sim.PlayerData(v.playerID); ok {
		r.send(v.playerID, proto.TypePlayerData, player)
	}
}

func (r *Router) simulation(v view) (*room.Simulation, error) {
	if v.roomID == "" {
		return nil, ErrNotInRoom
	}
	sim, ok := r.registry.Simulation(v.roomID)
	if !ok {
		return nil, ErrNoGame
	}
	return sim, nil
}

func (r *Router) leave(v view, reason string) {
	if v.roomID == "" {
		return
	}
	r.setRoom(v.token, "", "")
	departure, err := r.registry.RemovePlayer(v.roomID, v.playerID, reason)
	if err != nil {
		r.logger.Debugf("leave %s for player %s: %v", v.roomID, v.playerID, err)
		return
	}
	if !departure.Closed {
		r.sendPlayersInRoom(departure.Room)
	}
	r.broadcastRoomsList()
}
