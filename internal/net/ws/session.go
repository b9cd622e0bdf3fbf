package ws

import (
	"time"

	"github.com/gorilla/websocket"

	"coop-defense/server/internal/net/proto"
	"coop-defense/server/internal/net/session"
	"coop-defense/server/internal/telemetry"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	DefaultMaxMessageSize = 4096
)

// client pumps one websocket connection. Reads and writes run on separate
// goroutines; gorilla allows one concurrent reader and one writer.
type client struct {
	conn    *websocket.Conn
	codec   proto.Codec
	att     *session.Attachment
	router  *session.Router
	logger  telemetry.Logger
	maxSize int64
}

// readPump decodes intents until the connection fails. Malformed frames are
// dropped without closing the connection.
func (c *client) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(c.maxSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Warnf("set read deadline for %s: %v", c.att.PlayerID, err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Debugf("read from %s: %v", c.att.PlayerID, err)
			}
			return
		}
		msg, err := c.codec.Decode(payload)
		if err != nil {
			c.logger.Debugf("discarding malformed message from %s: %v", c.att.PlayerID, err)
			continue
		}
		c.router.Handle(c.att, msg)
	}
}

// writePump drains the attachment's queue. It exits when the queue closes
// or a write fails; either way the connection is closed so readPump returns.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.codec.Binary() {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case msg, ok := <-c.att.Outbound:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session replaced"))
				return
			}
			data, err := c.codec.Encode(msg.Event, msg.Data)
			if err != nil {
				c.logger.Errorf("encode %s for %s: %v", msg.Event, c.att.PlayerID, err)
				continue
			}
			if err := c.conn.WriteMessage(frameType, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
