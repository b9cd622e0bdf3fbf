package proto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"coop-defense/server/internal/catalog"
	"coop-defense/server/internal/lobby"
	"coop-defense/server/internal/state"
)

// Version tracks the wire-protocol revision expected by clients.
const Version = 1

// Client intent identifiers.
const (
	TypeGetRooms      = "getRooms"
	TypeCreateRoom    = "createRoom"
	TypeJoinRoom      = "joinRoom"
	TypeStartGame     = "startGame"
	TypeGetGameState  = "getGameState"
	TypePlaceTower    = "placeTower"
	TypeUpgradeTower  = "upgradeTower"
	TypeStartRound    = "startRound"
	TypeReturnToLobby = "returnToLobby"
)

// Server event identifiers.
const (
	TypeSession       = "session"
	TypeRoomsList     = "roomsList"
	TypePlayersInRoom = "playersInRoom"
	TypeGameStarting  = "gameStarting"
	TypeGameState     = "gameState"
	TypePlayerData    = "playerData"
	TypeEnemySpawned  = "enemySpawned"
	TypeTowerPlaced   = "towerPlaced"
	TypeTowerUpgraded = "towerUpgraded"
	TypeRoundStart    = "roundStart"
	TypeGameOver      = "gameOver"
)

// ClientMessage is a decoded inbound envelope. Data stays encoded until the
// router binds it to the intent's request type.
type ClientMessage struct {
	Ver   int
	Event string
	data  []byte
	codec Codec
}

// Bind decodes the envelope's data into v. A missing data field leaves v
// untouched.
func (m ClientMessage) Bind(v any) error {
	if len(m.data) == 0 || m.codec == nil {
		return nil
	}
	return m.codec.unmarshal(m.data, v)
}

// CreateRoomRequest is the createRoom payload.
type CreateRoomRequest struct {
	RoomName string `json:"roomName"`
	Username string `json:"username"`
}

// JoinRoomRequest addresses a room by id, falling back to its name.
type JoinRoomRequest struct {
	RoomID   string `json:"roomId,omitempty"`
	RoomName string `json:"roomName,omitempty"`
	Username string `json:"username"`
}

// Ref returns the id when present, otherwise the name.
func (r JoinRoomRequest) Ref() string {
	if r.RoomID != "" {
		return r.RoomID
	}
	return r.RoomName
}

// StartGameRequest addresses a room by id, falling back to its name.
type StartGameRequest struct {
	RoomID   string `json:"roomId,omitempty"`
	RoomName string `json:"roomName,omitempty"`
}

// Ref returns the id when present, otherwise the name.
func (r StartGameRequest) Ref() string {
	if r.RoomID != "" {
		return r.RoomID
	}
	return r.RoomName
}

// PlaceTowerRequest is the placeTower payload. Unknown type names decode to
// the zero kind and are rejected by the simulation.
type PlaceTowerRequest struct {
	Type catalog.TowerKind `json:"type"`
	X    float64           `json:"x"`
	Y    float64           `json:"y"`
}

// UpgradeTowerRequest is the upgradeTower payload.
type UpgradeTowerRequest struct {
	TowerID string `json:"towerId"`
}

// Session is the first message on every connection.
type Session struct {
	Token    string `json:"token"`
	PlayerID string `json:"playerId"`
	Resumed  bool   `json:"resumed"`
	RoomID   string `json:"roomId,omitempty"`
}

// RoomsList carries the lobby room table.
type RoomsList []lobby.Summary

// PlayersInRoom lists a room's usernames in seat order; IsOwner is computed
// per recipient.
type PlayersInRoom struct {
	RoomID  string   `json:"roomId"`
	Players []string `json:"players"`
	IsOwner bool     `json:"isOwner"`
}

// GameStarting announces the lobby -> active transition.
type GameStarting struct {
	RoomID string `json:"roomId"`
}

// TowerUpgraded carries the new level of an upgraded tower.
type TowerUpgraded struct {
	TowerID string `json:"towerId"`
	Level   int    `json:"level"`
}

// RoundStart announces the round that just began.
type RoundStart struct {
	Round int `json:"round"`
}

// GameOver reports the match result.
type GameOver struct {
	Victory bool `json:"victory"`
}

// Server payload aliases keep the router's call sites typed.
type (
	GameState    = state.Snapshot
	PlayerData   = state.Player
	EnemySpawned = state.Enemy
	TowerPlaced  = state.Tower
)

// Codec frames envelopes for one connection.
type Codec interface {
	Name() string
	// Binary reports whether frames must be sent as binary websocket messages.
	Binary() bool
	Encode(event string, data any) ([]byte, error)
	Decode(payload []byte) (ClientMessage, error)
	unmarshal(data []byte, v any) error
}

// CodecByName resolves a codec from the connection's query parameter. The
// empty name selects JSON.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return MsgPack, nil
	default:
		return nil, fmt.Errorf("unsupported codec %q", name)
	}
}

var (
	// JSON is the default text codec.
	JSON Codec = jsonCodec{}
	// MsgPack is the binary codec. It reuses the json struct tags so both
	// codecs share field names.
	MsgPack Codec = msgpackCodec{}
)

func checkVersion(msg ClientMessage) (ClientMessage, error) {
	if msg.Ver == 0 {
		msg.Ver = Version
	}
	if msg.Ver != Version {
		return msg, fmt.Errorf("unsupported client protocol version %d", msg.Ver)
	}
	if msg.Event == "" {
		return msg, fmt.Errorf("missing event name")
	}
	return msg, nil
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Binary() bool { return false }

func (jsonCodec) Encode(event string, data any) ([]byte, error) {
	frame := struct {
		Ver   int    `json:"ver"`
		Event string `json:"event"`
		Data  any    `json:"data,omitempty"`
	}{Ver: Version, Event: event, Data: data}
	return json.Marshal(frame)
}

func (c jsonCodec) Decode(payload []byte) (ClientMessage, error) {
	var frame struct {
		Ver   int             `json:"ver,omitempty"`
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &frame); err != nil {
		return ClientMessage{}, err
	}
	msg := ClientMessage{Ver: frame.Ver, Event: frame.Event, codec: c}
	if len(frame.Data) > 0 && !bytes.Equal(frame.Data, []byte("null")) {
		msg.data = frame.Data
	}
	return checkVersion(msg)
}

func (jsonCodec) unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Binary() bool { return true }

func (msgpackCodec) Encode(event string, data any) ([]byte, error) {
	frame := struct {
		Ver   int    `json:"ver"`
		Event string `json:"event"`
		Data  any    `json:"data,omitempty"`
	}{Ver: Version, Event: event, Data: data}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(&frame); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c msgpackCodec) Decode(payload []byte) (ClientMessage, error) {
	var frame struct {
		Ver   int                `json:"ver,omitempty"`
		Event string             `json:"event"`
		Data  msgpack.RawMessage `json:"data"`
	}
	if err := c.unmarshal(payload, &frame); err != nil {
		return ClientMessage{}, err
	}
	msg := ClientMessage{Ver: frame.Ver, Event: frame.Event, codec: c}
	if len(frame.Data) > 0 && !bytes.Equal(frame.Data, []byte{0xc0}) {
		msg.data = frame.Data
	}
	return checkVersion(msg)
}

func (msgpackCodec) unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
