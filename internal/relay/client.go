package relay

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Signaling payloads are
	// SDP blobs and ICE candidates; 64 KB is plenty.
	maxMessageSize = 64 * 1024
)

// Client wraps a single websocket connection to the relay.
type Client struct {
	relay *Relay
	conn  *websocket.Conn
	log   zerolog.Logger

	// send buffers outbound messages for the write pump. Delivery is
	// best effort: a client that stops draining its queue loses
	// messages rather than blocking the sender. mu orders deliveries
	// against the close in the reader's teardown: broadcasts send from
	// membership snapshots taken outside the registry lock, so a
	// deliver can race the closing client's cleanup.
	mu     sync.Mutex
	closed bool
	send   chan *Message
}

// deliver queues a message for the client without blocking. It reports
// whether the message was accepted; a closed client accepts nothing.
func (c *Client) deliver(msg *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend marks the client closed and releases the write pump.
// Idempotent; after it returns no deliver can touch the channel.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump pumps messages from the websocket connection to the relay
// dispatcher. It runs in a per-connection goroutine; all reads happen
// here. Frames that do not parse as control messages are dropped and
// the connection stays open.
func (c *Client) ReadPump() {
	defer func() {
		c.relay.HandleClose(c)
		c.closeSend()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Msg("read error")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Debug().Err(err).Msg("dropping malformed message")
			continue
		}

		c.relay.HandleMessage(c, &msg)
	}
}

// WritePump pumps messages from the send queue to the websocket
// connection and keeps the connection alive with periodic pings. It
// runs in a per-connection goroutine; all writes happen here.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Debug().Err(err).Msg("write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
