package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/projecthub/internal/account"
	"github.com/nerrad567/projecthub/internal/auth"
	"github.com/nerrad567/projecthub/internal/events"
	"github.com/nerrad567/projecthub/internal/infrastructure/config"
	"github.com/nerrad567/projecthub/internal/infrastructure/logging"
)

// Message types on the event stream.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"

	wsSendBufferSize = 256
)

// Subscription channels. New connections start on ChannelProjects.
const (
	ChannelProjects = "projects"
	ChannelAccounts = "accounts"
)

var knownChannels = map[string]bool{ChannelProjects: true, ChannelAccounts: true}

// WSMessage is an outbound frame.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"eventType,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload is the body of subscribe and unsubscribe requests.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

type wsRequest struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub implements events.Publisher for WebSocket clients. An event reaches
// a client only if the client is subscribed to its channel and the
// client's caller could read the record through the REST API.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

// WSClient is one upgraded connection.
type WSClient struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	caller auth.Caller

	// mu guards caller and subscriptions.
	mu            sync.RWMutex
	subscriptions map[string]struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The CORS middleware has already vetted the origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{cfg: cfg, logger: logger, clients: make(map[*WSClient]struct{})}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

func (h *Hub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "account_id", c.caller.AccountID, "clients", n)
}

// Unregister is idempotent. The send channel is closed by whichever call
// actually removes the client.
func (h *Hub) Unregister(c *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		close(c.send)
		h.logger.Debug("websocket client disconnected", "account_id", c.caller.AccountID, "clients", n)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish implements events.Publisher.
func (h *Hub) Publish(_ context.Context, e events.Event) {
	msg := WSMessage{
		Type:      WSTypeEvent,
		EventType: string(e.Resource) + "." + string(e.Action),
		Timestamp: e.OccurredAt.UTC().Format(time.RFC3339),
		Payload:   e.Data,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encoding event frame", "event", msg.EventType, "error", err)
		return
	}

	channel := ChannelProjects
	if e.Resource == events.ResourceAccount {
		channel = ChannelAccounts
	}

	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if e.Resource == events.ResourceAccount {
		targets = h.revalidate(targets, e)
	}

	sent := 0
	for _, c := range targets {
		if c.isSubscribed(channel) && c.mayReceive(e) {
			c.trySend(data)
			sent++
		}
	}
	if sent > 0 {
		h.logger.Debug("event delivered", "event", msg.EventType, "recipients", sent)
	}
}

// revalidate applies an account change to the sessions of that account
// before anything else is delivered. A deleted or deactivated account is
// disconnected; an updated one takes the new permission level. It returns
// the clients still connected.
func (h *Hub) revalidate(clients []*WSClient, e events.Event) []*WSClient {
	kept := clients[:0]
	for _, c := range clients {
		if c.accountID() != e.ID {
			kept = append(kept, c)
			continue
		}

		data, ok := e.Data.(account.EventData)
		switch {
		case e.Action == events.ActionDeleted:
			h.logger.Info("closing websocket of removed account", "account_id", e.ID)
			h.Unregister(c)
			continue
		case e.Action != events.ActionUpdated:
		case !ok || !data.AccountActive:
			h.logger.Info("closing websocket of inactive account", "account_id", e.ID)
			h.Unregister(c)
			continue
		default:
			c.setLevel(data.PermissionLevel)
		}
		kept = append(kept, c)
	}
	return kept
}

// mayReceive applies the same ownership rule as a REST read of the record.
func (c *WSClient) mayReceive(e events.Event) bool {
	caller := c.currentCaller()
	switch e.Resource {
	case events.ResourceProject:
		return auth.AuthorizeRecord(caller, e.OwnerID) == nil
	case events.ResourceAccount:
		return auth.AuthorizeRecord(caller, e.ID) == nil
	}
	return caller.Elevated()
}

func (c *WSClient) currentCaller() auth.Caller {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.caller
}

func (c *WSClient) accountID() string {
	return c.currentCaller().AccountID
}

func (c *WSClient) setLevel(level auth.PermissionLevel) {
	c.mu.Lock()
	c.caller.PermissionLevel = level
	c.mu.Unlock()
}

// handleWebSocket serves GET /api/v1/ws?ticket=... The ticket is single
// use and the account behind it is reloaded so a deactivated account
// cannot connect with a ticket issued earlier.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		writeError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "ticket query parameter is required")
		return
	}
	caller, err := s.tickets.Redeem(r.Context(), ticket)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, errTicketInvalid.Error())
		return
	}
	a, err := s.accounts.FindByID(r.Context(), caller.AccountID)
	if err != nil || !a.AccountActive {
		writeError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, errTicketInvalid.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "account_id", a.ID, "error", err)
		return
	}

	c := &WSClient{
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		caller:        a.Caller(),
		subscriptions: map[string]struct{}{ChannelProjects: {}},
	}
	s.hub.Register(c)

	go c.writePump(s.wsCfg)
	go c.readPump(s.wsCfg)
}

// keepalive returns the ping interval and pong wait, 30s and 10s if unset.
func keepalive(cfg config.WebSocketConfig) (ping, pong time.Duration) {
	ping, pong = 30*time.Second, 10*time.Second
	if cfg.PingInterval > 0 {
		ping = time.Duration(cfg.PingInterval) * time.Second
	}
	if cfg.PongTimeout > 0 {
		pong = time.Duration(cfg.PongTimeout) * time.Second
	}
	return ping, pong
}

func (c *WSClient) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	ping, pong := keepalive(cfg)
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(ping + pong)) }

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	extend() //nolint:errcheck // a failed deadline surfaces on the next read
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "account_id", c.caller.AccountID, "error", err)
			}
			return
		}
		extend() //nolint:errcheck // see above
		c.handleMessage(data)
	}
}

func (c *WSClient) writePump(cfg config.WebSocketConfig) {
	ping, pong := keepalive(cfg)
	ticker := time.NewTicker(ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	write := func(kind int, data []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(pong)) //nolint:errcheck // write reports the failure
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				write(websocket.CloseMessage, nil) //nolint:errcheck // closing anyway
				return
			}
			if err := write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) handleMessage(data []byte) {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("", "invalid JSON message")
		return
	}

	switch req.Type {
	case WSTypeSubscribe, WSTypeUnsubscribe:
		c.updateSubscriptions(req)
	case WSTypePing:
		c.reply(req.ID, WSTypePong, nil)
	default:
		c.sendError(req.ID, "unknown message type: "+req.Type)
	}
}

func (c *WSClient) updateSubscriptions(req wsRequest) {
	var body WSSubscribePayload
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		c.sendError(req.ID, "invalid "+req.Type+" payload")
		return
	}
	for _, ch := range body.Channels {
		if !knownChannels[ch] {
			c.sendError(req.ID, "unknown channel: "+ch)
			return
		}
	}

	subscribe := req.Type == WSTypeSubscribe
	c.mu.Lock()
	for _, ch := range body.Channels {
		if subscribe {
			c.subscriptions[ch] = struct{}{}
		} else {
			delete(c.subscriptions, ch)
		}
	}
	c.mu.Unlock()

	key := "unsubscribed"
	if subscribe {
		key = "subscribed"
	}
	c.reply(req.ID, WSTypeResponse, map[string]any{key: body.Channels})
}

// trySend drops data when the buffer is full or the client has already
// been unregistered.
func (c *WSClient) trySend(data []byte) {
	defer func() { recover() }() //nolint:errcheck // send on closed channel

	select {
	case c.send <- data:
	default:
	}
}

func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[channel]
	return ok
}

func (c *WSClient) reply(id, msgType string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err == nil {
		c.trySend(data)
	}
}

func (c *WSClient) sendError(id, message string) {
	c.reply(id, WSTypeError, map[string]string{"message": message})
}
