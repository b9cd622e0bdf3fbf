// Package ws bridges websocket connections to the session router.
package ws

import (
	nethttp "net/http"

	"github.com/gorilla/websocket"

	"coop-defense/server/internal/net/proto"
	"coop-defense/server/internal/net/session"
	"coop-defense/server/internal/telemetry"
)

type HandlerConfig struct {
	Logger telemetry.Logger
	// MaxMessageSize caps inbound frames. Zero selects DefaultMaxMessageSize.
	MaxMessageSize int64
}

type Handler struct {
	router   *session.Router
	logger   telemetry.Logger
	upgrader websocket.Upgrader
	maxSize  int64
}

func NewHandler(router *session.Router, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.Discard()
	}
	maxSize := cfg.MaxMessageSize
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSize
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		router:   router,
		logger:   telemetry.WithFields(logger, map[string]any{"component": "ws"}),
		upgrader: upgrader,
		maxSize:  maxSize,
	}
}

// Handle upgrades the request and serves the connection until it closes.
// The optional token query parameter resumes an earlier session and codec
// selects the wire encoding.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	query := r.URL.Query()
	codec, err := proto.CodecByName(query.Get("codec"))
	if err != nil {
		nethttp.Error(w, err.Error(), nethttp.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnf("upgrade failed from %s: %v", r.RemoteAddr, err)
		return
	}

	att := h.router.Connect(query.Get("token"))
	h.logger.Debugf("player %s connected (codec=%s resumed=%t)", att.PlayerID, codec.Name(), att.Resumed)

	c := &client{
		conn:    conn,
		codec:   codec,
		att:     att,
		router:  h.router,
		logger:  h.logger,
		maxSize: h.maxSize,
	}
	go c.writePump()
	c.readPump()

	h.router.Disconnect(att)
	h.logger.Debugf("player %s disconnected", att.PlayerID)
}
