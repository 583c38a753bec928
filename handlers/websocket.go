package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"focus-server/middleware"
	"focus-server/models"
	"focus-server/notify"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // extension origins are chrome-extension://<id>
	},
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var ErrNoClients = errors.New("no extension client connected")

// ActionFunc handles one boundary action frame.
type ActionFunc func(ctx context.Context, req models.ActionRequest) models.ActionResponse

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	clientID string
	name     string

	mu         sync.RWMutex
	canNotify  bool
	audioReady bool
}

// inboundMessage keeps the payload raw so each frame type decodes its own shape.
type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	auth       *middleware.Authenticator
	logger     *zap.Logger
	mu         sync.RWMutex

	dispatch   ActionFunc
	onAudioEnd func(ctx context.Context)
	onTouch    func(clientID string)
}

func NewHub(auth *middleware.Authenticator, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		done:       make(chan struct{}),
		auth:       auth,
		logger:     logger.With(zap.String("component", "ws")),
	}
}

// SetDispatcher routes incoming action frames. It must be called before Run.
func (h *Hub) SetDispatcher(fn ActionFunc) {
	h.dispatch = fn
}

// OnAudioEnded registers the handler for track-ended reports from the media element.
func (h *Hub) OnAudioEnded(fn func(ctx context.Context)) {
	h.onAudioEnd = fn
}

// OnClientSeen is called with the client id whenever a socket registers.
func (h *Hub) OnClientSeen(fn func(clientID string)) {
	h.onTouch = fn
}

// Run serves register, unregister and broadcast requests until ctx is done,
// then closes every connection.
func (h *Hub) Run(ctx context.Context) error {
	h.logger.Info("hub started")
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			h.logger.Info("hub stopped")
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("client registered",
				zap.String("client_id", client.clientID),
				zap.String("name", client.name),
				zap.Int("clients", clientCount))
			if h.onTouch != nil {
				h.onTouch(client.clientID)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			clientCount := len(h.clients)
			h.mu.Unlock()

			if ok {
				h.logger.Info("client unregistered",
					zap.String("client_id", client.clientID),
					zap.Int("clients", clientCount))
			}

		case message := <-h.broadcast:
			h.sendTo(message, func(*Client) bool { return true })
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// sendTo queues message for every client accepted by filter and returns how
// many got it. Clients with a full buffer are dropped.
func (h *Hub) sendTo(message []byte, filter func(*Client) bool) int {
	sent := 0
	var stale []*Client

	h.mu.RLock()
	for client := range h.clients {
		if !filter(client) {
			continue
		}
		select {
		case client.send <- message:
			sent++
		default:
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	if len(stale) > 0 {
		h.mu.Lock()
		for _, client := range stale {
			if _, ok := h.clients[client]; ok {
				h.logger.Warn("client buffer full, dropping", zap.String("client_id", client.clientID))
				close(client.send)
				delete(h.clients, client)
			}
		}
		h.mu.Unlock()
	}
	return sent
}

func (h *Hub) BroadcastAll(msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("broadcast marshal failed", zap.String("type", msg.Type), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast queue full, message dropped", zap.String("type", msg.Type))
	}
}

// Notify shows n on every client that granted notification permission.
func (h *Hub) Notify(_ context.Context, n models.Notification) error {
	data, err := json.Marshal(models.WSMessage{Type: models.WSTypeNotification, Payload: n})
	if err != nil {
		return err
	}
	sent := h.sendTo(data, (*Client).notificationsAllowed)
	if sent == 0 {
		return notify.ErrPermissionDenied
	}
	h.logger.Debug("notification sent", zap.String("title", n.Title), zap.Int("clients", sent))
	return nil
}

// SendAudioCommand forwards cmd to the clients hosting a media element. When
// none announced one, every client gets it.
func (h *Hub) SendAudioCommand(cmd models.AudioCommand) error {
	data, err := json.Marshal(models.WSMessage{Type: models.WSTypeAudio, Payload: cmd})
	if err != nil {
		return err
	}
	if h.sendTo(data, (*Client).hostsAudio) > 0 {
		return nil
	}
	if h.sendTo(data, func(*Client) bool { return true }) > 0 {
		return nil
	}
	return ErrNoClients
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.logger.Debug("connection rejected, no token", zap.String("remote", r.RemoteAddr))
		http.Error(w, "Token required", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		h.logger.Info("connection rejected, invalid token", zap.String("remote", r.RemoteAddr), zap.Error(err))
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.String("client_id", claims.ClientID), zap.Error(err))
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 256),
		clientID: claims.ClientID,
		name:     claims.ClientName,
	}

	welcome, _ := json.Marshal(models.WSMessage{
		Type:    models.WSTypeWelcome,
		Payload: map[string]string{"message": "connected", "client_id": claims.ClientID},
	})
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, welcome); err != nil {
		h.logger.Warn("failed to send welcome", zap.String("client_id", claims.ClientID), zap.Error(err))
		conn.Close()
		return
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) notificationsAllowed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.canNotify
}

func (c *Client) hostsAudio() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.audioReady
}

func (c *Client) readPump() {
	logger := c.hub.logger.With(zap.String("client_id", c.clientID))
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Warn("unexpected close", zap.Error(err))
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Debug("unreadable frame", zap.Error(err))
			continue
		}

		switch msg.Type {
		case models.WSTypeAction:
			c.handleAction(msg.Payload)

		case models.WSTypeNotifyPerm:
			var p struct {
				Granted bool `json:"granted"`
			}
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				logger.Debug("bad permission payload", zap.Error(err))
				continue
			}
			c.mu.Lock()
			c.canNotify = p.Granted
			c.mu.Unlock()
			logger.Info("notification permission", zap.Bool("granted", p.Granted))

		case models.WSTypeAudioReady:
			c.mu.Lock()
			c.audioReady = true
			c.mu.Unlock()
			logger.Info("client hosts audio element")

		case models.WSTypeAudioEnded:
			if c.hub.onAudioEnd != nil {
				c.hub.onAudioEnd(context.Background())
			}

		default:
			logger.Debug("unknown frame type", zap.String("type", msg.Type))
		}
	}
}

func (c *Client) handleAction(payload json.RawMessage) {
	var req models.ActionRequest
	resp := models.ActionResponse{}
	if err := json.Unmarshal(payload, &req); err != nil {
		resp.Error = "invalid action payload"
	} else if c.hub.dispatch == nil {
		resp = models.ActionResponse{RequestID: req.RequestID, Error: "actions unavailable"}
	} else {
		resp = c.hub.dispatch(context.Background(), req)
	}

	data, err := json.Marshal(models.WSMessage{Type: models.WSTypeActionResult, Payload: resp})
	if err != nil {
		c.hub.logger.Error("action result marshal failed", zap.Error(err))
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("client buffer full, action result dropped", zap.String("client_id", c.clientID))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Debug("write failed", zap.String("client_id", c.clientID), zap.Error(err))
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
