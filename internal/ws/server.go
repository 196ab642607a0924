package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/coder/websocket"
)

// HandlerFunc processes a client message. Handlers registered with Handle
// run on their own goroutine; inline handlers run on the read pump and must
// return quickly.
type HandlerFunc func(c *Conn, msg *ClientMessage)

type handler struct {
	fn     HandlerFunc
	inline bool
}

// Server manages WebSocket connections, the nicknames they joined under,
// and message dispatch.
type Server struct {
	mu    sync.RWMutex
	conns map[*Conn]struct{}
	nicks map[string]*Conn

	handlers     map[string]handler
	connectFn    func(c *Conn)
	disconnectFn func(c *Conn) // called when a connection is removed
}

func NewServer() *Server {
	return &Server{
		conns:    make(map[*Conn]struct{}),
		nicks:    make(map[string]*Conn),
		handlers: make(map[string]handler),
	}
}

// Handle registers a handler for a named event.
func (s *Server) Handle(event string, fn HandlerFunc) {
	s.handlers[event] = handler{fn: fn}
}

// HandleInline registers a handler that runs on the connection's read pump,
// so messages from one client are handled in the order they were sent.
func (s *Server) HandleInline(event string, fn HandlerFunc) {
	s.handlers[event] = handler{fn: fn, inline: true}
}

// HandleConnect registers a handler that fires when a new WebSocket connection
// is established (before the read pump starts).
func (s *Server) HandleConnect(fn func(c *Conn)) {
	s.connectFn = fn
}

// OnDisconnect registers a callback that fires when a connection is removed.
func (s *Server) OnDisconnect(fn func(c *Conn)) {
	s.disconnectFn = fn
}

// ServeHTTP upgrades the HTTP request to a WebSocket connection.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Chat clients may be served from anywhere.
		InsecureSkipVerify: true,
	})
	if err != nil {
		slog.Error("ws accept", "err", err)
		return
	}

	c := newConn(ws, s)
	s.add(c)

	slog.Debug("ws connected", "remote", r.RemoteAddr, "conn", c.ID())

	if s.connectFn != nil {
		s.connectFn(c)
	}

	go c.writePump()
	// Block on the read pump; this goroutine is owned by net/http.
	c.readPump(r.Context())
}

// Broadcast marshals the event once and sends it to every joined
// connection.
func Broadcast[T any](s *Server, event string, data T) {
	raw, err := json.Marshal(ServerMessage[T]{Event: event, Data: data})
	if err != nil {
		slog.Error("ws marshal broadcast", "err", err)
		return
	}
	s.BroadcastBytes(raw)
}

// BroadcastBytes sends pre-marshaled JSON bytes to every joined connection.
func (s *Server) BroadcastBytes(data []byte) {
	s.mu.RLock()
	targets := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		targets = append(targets, c)
	}
	s.mu.RUnlock()

	for _, c := range targets {
		c.deliver(data)
	}
}

// Join claims nick for c. It fails if another connection holds the nick;
// joining again under a new nick releases the old one.
func (s *Server) Join(c *Conn, nick string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, taken := s.nicks[nick]; taken {
		return owner == c
	}
	if old := c.Nick(); old != "" {
		delete(s.nicks, old)
	}
	s.nicks[nick] = c
	c.setNick(nick)
	return true
}

// ConnectionCount returns the number of active connections.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Nicks returns the joined nicknames, sorted.
func (s *Server) Nicks() []string {
	s.mu.RLock()
	nicks := make([]string, 0, len(s.nicks))
	for n := range s.nicks {
		nicks = append(nicks, n)
	}
	s.mu.RUnlock()
	sort.Strings(nicks)
	return nicks
}

// CloseAll closes every connection.
func (s *Server) CloseAll() {
	s.mu.RLock()
	all := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		all = append(all, c)
	}
	s.mu.RUnlock()

	for _, c := range all {
		c.Close()
	}
}

func (s *Server) add(c *Conn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) remove(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	if nick := c.Nick(); nick != "" && s.nicks[nick] == c {
		delete(s.nicks, nick)
	}
	s.mu.Unlock()

	if s.disconnectFn != nil {
		s.disconnectFn(c)
	}

	slog.Debug("ws disconnected", "conn", c.ID(), "remaining", s.ConnectionCount())
}

func (s *Server) dispatch(c *Conn, msg *ClientMessage) {
	h, ok := s.handlers[msg.Event]
	if ok && h.inline {
		s.Dispatch(c, msg)
		return
	}
	// Run other handlers in their own goroutine so slow ones don't block
	// the read pump and delay other messages.
	go s.Dispatch(c, msg)
}

// Dispatch looks up and invokes the handler for the given message event.
func (s *Server) Dispatch(c *Conn, msg *ClientMessage) {
	h, ok := s.handlers[msg.Event]
	if !ok {
		slog.Warn("ws unknown event", "event", msg.Event)
		if msg.ID != nil {
			SendAck(c, *msg.ID, ErrorResponse{OK: false, Msg: "unknown event: " + msg.Event})
		}
		return
	}
	h.fn(c, msg)
}
