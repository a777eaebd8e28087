package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 128
)

var errConnClosed = errors.New("realtime: connection closed")

// Connection adapts one websocket to the Peer contract: outbound frames go
// through a buffered channel drained by a single write loop, so Deliver
// never blocks the dispatcher.
type Connection struct {
	id string

	ws     *websocket.Conn
	send   chan ServerEvent
	once   sync.Once
	closed chan struct{}
}

func NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		id:     uuid.NewString(),
		ws:     ws,
		send:   make(chan ServerEvent, sendBuffer),
		closed: make(chan struct{}),
	}
}

func (c *Connection) ID() string { return c.id }

// Live reports whether the connection can still accept deliveries.
func (c *Connection) Live() bool {
	select {
	case <-c.closed:
		return false
	default:
		return true
	}
}

// Deliver enqueues one event. A slow client whose buffer is full gets the
// connection closed to keep backpressure bounded.
func (c *Connection) Deliver(evt ServerEvent) error {
	select {
	case <-c.closed:
		return errConnClosed
	case c.send <- evt:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return errors.New("realtime: send buffer exceeded")
	}
}

// Start launches the write loop. Call exactly once per connection.
func (c *Connection) Start() {
	go c.writeLoop()
}

// Close terminates the connection and stops the write loop. Idempotent.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.closed)
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case evt := <-c.send:
			if err := c.writeEvent(evt); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.writePing(); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) writeEvent(evt ServerEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *Connection) writePing() error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}
