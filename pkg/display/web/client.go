package web

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Client is a single websocket connection to the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	ID         uint8
	RemoteAddr string

	mu         sync.Mutex
	avgLatency uint16
}

// Latency returns the moving average round trip time to the client,
// in milliseconds.
func (c *Client) Latency() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.avgLatency
}

// readPump forwards pad masks from the client to the hub, until the
// connection closes.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(64)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(data string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		rtt, ok := tcpRTT(c.conn.UnderlyingConn())
		if !ok && len(data) == 8 {
			sent := time.Unix(0, int64(binary.LittleEndian.Uint64([]byte(data))))
			rtt, ok = uint16(time.Since(sent).Milliseconds()), true
		}
		if ok {
			c.mu.Lock()
			c.avgLatency = (c.avgLatency*9 + rtt) / 10
			c.mu.Unlock()
		}
		return nil
	})

	for {
		typ, message, err := c.conn.ReadMessage()
		if err != nil {
			return // connection closed
		}
		if typ != websocket.BinaryMessage || len(message) != 1 {
			continue
		}

		select {
		case c.hub.pad <- message[0]:
		default:
			c.hub.log.Debugf("web: dropping pad input from client %d", c.ID)
		}
	}
}

// writePump writes queued messages to the client and pings it
// periodically to measure latency.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	ping := make([]byte, 8)
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// the hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			binary.LittleEndian.PutUint64(ping, uint64(time.Now().UnixNano()))
			if err := c.conn.WriteControl(websocket.PingMessage, ping, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
