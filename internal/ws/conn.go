package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

const (
	writeTimeout   = 10 * time.Second
	maxMessageSize = 64 << 10 // 64 KB, chat lines are short
	sendQueueSize  = 64
)

var connIDCounter uint64

// Conn is one chat client. Outbound frames go through a bounded queue
// drained by a single writer, so a stalled client never holds up a
// broadcast; a client that falls a full queue behind is disconnected.
type Conn struct {
	ws     *websocket.Conn
	server *Server
	id     string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	nick string // set by Server.Join
}

func newConn(ws *websocket.Conn, server *Server) *Conn {
	id := atomic.AddUint64(&connIDCounter, 1)
	return &Conn{
		ws:     ws,
		server: server,
		id:     "c" + strconv.FormatUint(id, 10),
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// ID returns a unique identifier for this connection.
func (c *Conn) ID() string {
	return c.id
}

// Nick returns the joined nickname ("" if the client has not joined).
func (c *Conn) Nick() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nick
}

func (c *Conn) setNick(nick string) {
	c.mu.Lock()
	c.nick = nick
	c.mu.Unlock()
}

// Joined reports whether the client has taken a nick and so receives room
// traffic.
func (c *Conn) Joined() bool {
	return c.Nick() != ""
}

// Done is closed when the connection shuts down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// SendAck queues an ack for request id. Acks reach unjoined clients too.
func SendAck[T any](c *Conn, id int64, data T) {
	queueJSON(c, AckMessage[T]{ID: id, Data: data})
}

// SendEvent queues a push event for this client only.
func SendEvent[T any](c *Conn, event string, data T) {
	queueJSON(c, ServerMessage[T]{Event: event, Data: data})
}

func queueJSON[T any](c *Conn, v T) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("ws marshal", "err", err)
		return
	}
	c.enqueue(data)
}

// deliver queues room traffic if the client has joined.
func (c *Conn) deliver(data []byte) {
	if c.Joined() {
		c.enqueue(data)
	}
}

func (c *Conn) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		slog.Warn("ws send queue full, dropping client", "conn", c.id, "nick", c.Nick())
		go c.Close()
	}
}

// writePump is the only writer on the socket.
func (c *Conn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := c.ws.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				slog.Debug("ws write", "conn", c.id, "err", err)
				c.Close()
				return
			}
		}
	}
}

// readPump reads messages from the WebSocket and dispatches them until the
// client goes away.
func (c *Conn) readPump(ctx context.Context) {
	defer func() {
		c.server.remove(c)
		c.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			slog.Debug("ws read", "conn", c.id, "err", err)
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("ws unmarshal", "conn", c.id, "err", err)
			continue
		}

		c.server.dispatch(c, &msg)
	}
}

// Close shuts down the connection. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close(websocket.StatusNormalClosure, "")
	})
}
