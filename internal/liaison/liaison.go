// Package liaison bridges one in-process channel pair to one external
// websocket endpoint shaped as a request-router socket: many anonymous
// peers reach one bound address, each identified by an opaque routing
// identity.
//
// Each connection runs two loops: an inbound loop decodes JSON off the
// socket, an outbound loop drains a channel and writes JSON back.
// websocket.Conn forbids concurrent writers, so each connection gets its
// own outbound pump goroutine reading from a buffered per-peer channel,
// in place of a per-connection write mutex.
package liaison

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Inbound is one decoded message together with the peer identity of the
// connection it arrived on.
type Inbound[T any] struct {
	Msg  *T
	Peer string
}

// connection is one peer's websocket plus its dedicated outbound pump.
type connection struct {
	conn   *websocket.Conn
	outbox chan []byte
	once   sync.Once
}

func (c *connection) close() {
	c.once.Do(func() {
		close(c.outbox)
	})
}

// Liaison manages the set of live peer connections for one endpoint and
// bridges them to the supervisor's in-process channels.
type Liaison[In, Out any] struct {
	logger *slog.Logger
	parse  func([]byte) (*In, error)

	mu    sync.Mutex
	peers map[string]*connection
}

// New builds a Liaison that decodes inbound frames with parse.
func New[In, Out any](logger *slog.Logger, parse func([]byte) (*In, error)) *Liaison[In, Out] {
	return &Liaison[In, Out]{
		logger: logger,
		parse:  parse,
		peers:  make(map[string]*connection),
	}
}

// HandleConnection upgrades an incoming HTTP request to a websocket, assigns
// it an opaque peer identity, starts its outbound pump, and runs the
// inbound read loop until the connection closes. Decoded messages are
// pushed to inbound; malformed frames are dropped silently, never torn
// down or logged as fatal.
func (l *Liaison[In, Out]) HandleConnection(w http.ResponseWriter, r *http.Request, inbound chan<- Inbound[In]) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.logger.Warn("liaison: upgrade failed", "error", err)
		return
	}

	peer := uuid.NewString()
	conn := &connection{conn: ws, outbox: make(chan []byte, 32)}

	l.mu.Lock()
	l.peers[peer] = conn
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.peers, peer)
		l.mu.Unlock()
		conn.close()
		ws.Close()
	}()

	go l.outboundPump(conn)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		parsed, err := l.parse(data)
		if err != nil {
			l.logger.Debug("liaison: dropping unparseable message", "peer", peer, "error", err)
			continue
		}
		inbound <- Inbound[In]{Msg: parsed, Peer: peer}
	}
}

// outboundPump is the one and only goroutine allowed to call WriteMessage
// on conn.conn, satisfying gorilla/websocket's single-writer requirement.
func (l *Liaison[In, Out]) outboundPump(conn *connection) {
	for data := range conn.outbox {
		if err := conn.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			l.logger.Warn("liaison: write failed", "error", err)
			return
		}
	}
}

// Send serializes msg as JSON and routes it to peer's outbound pump. A
// peer that has since disconnected silently drops the message instead of
// erroring back to the caller.
func (l *Liaison[In, Out]) Send(peer string, msg *Out) {
	data, err := json.Marshal(msg)
	if err != nil {
		l.logger.Error("liaison: serialize failed", "peer", peer, "error", err)
		return
	}

	// Hold the lock through the (non-blocking) send so HandleConnection
	// cannot remove and close this peer's outbox in between.
	l.mu.Lock()
	defer l.mu.Unlock()
	conn, ok := l.peers[peer]
	if !ok {
		l.logger.Debug("liaison: send to unknown peer dropped", "peer", peer)
		return
	}

	select {
	case conn.outbox <- data:
	default:
		l.logger.Warn("liaison: outbound queue full, dropping message", "peer", peer)
	}
}
