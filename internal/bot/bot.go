// Package bot answers container lookups asked in a group chat room.
package bot

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cfilipov/harpoon/internal/inventory"
	"github.com/cfilipov/harpoon/internal/locate"
	"github.com/cfilipov/harpoon/internal/ws"
)

// Room events.
const (
	EventJoin    = "join"
	EventMessage = "message"
)

// ChatMessage is one line in the room. Delayed marks history replayed by a
// client after reconnecting; the bot never answers those.
type ChatMessage struct {
	Nick    string `json:"nick"`
	Body    string `json:"body"`
	Delayed bool   `json:"delayed,omitempty"`
}

// JoinArgs are the arguments of the join event.
type JoinArgs struct {
	Nick string `json:"nick"`
}

// Locator runs a lookup against a host list.
type Locator interface {
	Locate(ctx context.Context, hosts []string, target string) []string
}

// Bot relays room messages and answers lookup commands.
type Bot struct {
	Nick    string
	Hosts   inventory.Provider
	Locator Locator
	Log     *slog.Logger

	server *ws.Server
}

// New returns a bot posting as nick.
func New(nick string, hosts inventory.Provider, loc Locator, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}
	return &Bot{
		Nick:    nick,
		Hosts:   hosts,
		Locator: loc,
		Log:     log,
		server:  ws.NewServer(),
	}
}

// Handler returns the room's HTTP handler: the websocket endpoint at /ws
// and a health check at /healthz. Lookups run under ctx.
func (b *Bot) Handler(ctx context.Context) http.Handler {
	b.server.HandleInline(EventJoin, b.handleJoin)
	b.server.HandleInline(EventMessage, func(c *ws.Conn, msg *ws.ClientMessage) {
		b.handleMessage(ctx, c, msg)
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", b.server)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Close disconnects every client.
func (b *Bot) Close() {
	b.server.CloseAll()
}

func (b *Bot) handleJoin(c *ws.Conn, msg *ws.ClientMessage) {
	var args JoinArgs
	if err := json.Unmarshal(msg.Args, &args); err != nil || strings.TrimSpace(args.Nick) == "" {
		ackError(c, msg, "join needs a nick")
		return
	}
	nick := strings.TrimSpace(args.Nick)
	if nick == b.Nick || !b.server.Join(c, nick) {
		ackError(c, msg, "nick in use: "+nick)
		return
	}
	b.Log.Debug("joined", "nick", nick, "conn", c.ID())
	ackOK(c, msg)
}

func (b *Bot) handleMessage(ctx context.Context, c *ws.Conn, msg *ws.ClientMessage) {
	nick := c.Nick()
	if nick == "" {
		ackError(c, msg, "join first")
		return
	}
	var in ChatMessage
	if err := json.Unmarshal(msg.Args, &in); err != nil {
		ackError(c, msg, "bad message")
		return
	}

	// The sender is whoever joined on this connection.
	out := ChatMessage{Nick: nick, Body: in.Body, Delayed: in.Delayed}
	ws.Broadcast(b.server, EventMessage, out)
	ackOK(c, msg)

	if out.Delayed {
		return
	}
	target, ok := commandTarget(out.Body)
	if !ok {
		return
	}
	go b.answer(ctx, nick, target)
}

// answer runs the lookup and posts the result to the room.
func (b *Bot) answer(ctx context.Context, asker, target string) {
	b.Log.Info("lookup", "nick", asker, "target", target)

	hosts, err := b.Hosts.Hosts(ctx)
	if err != nil {
		b.Log.Error("host list", "err", err)
		b.say("Could not load the host list: " + err.Error())
		return
	}

	reports := b.Locator.Locate(ctx, hosts, target)
	if len(reports) == 0 {
		b.say(locate.NotFound(target, locate.Classify(target), hosts))
		return
	}
	b.say(strings.Join(reports, "\n"))
}

func (b *Bot) say(body string) {
	ws.Broadcast(b.server, EventMessage, ChatMessage{Nick: b.Nick, Body: body})
}

func ackOK(c *ws.Conn, msg *ws.ClientMessage) {
	if msg.ID != nil {
		ws.SendAck(c, *msg.ID, ws.OkResponse{OK: true})
	}
}

func ackError(c *ws.Conn, msg *ws.ClientMessage, text string) {
	if msg.ID != nil {
		ws.SendAck(c, *msg.ID, ws.ErrorResponse{Msg: text})
	}
}
