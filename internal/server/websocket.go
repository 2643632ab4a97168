package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"hackathon-portal/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type adminCommand struct {
	Action string `json:"action"`
}

type hubConfig struct {
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

func defaultHubConfig() hubConfig {
	return hubConfig{
		WriteTimeout:   10 * time.Second,
		PongTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     64,
	}
}

// hub fans events out to every connected client. Delivery is best effort: a
// client whose buffer is full is dropped.
type hub struct {
	cfg     hubConfig
	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	principal *auth.Principal
}

func newHub(cfg hubConfig) *hub {
	return &hub{
		cfg:     cfg,
		clients: make(map[*client]struct{}),
	}
}

func (h *hub) Add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *hub) Remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) Send(c *client, event string, data any) {
	payload, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
		log.Warn().Str("connection_id", c.id).Msg("send buffer full, dropping connection")
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) Broadcast(event string, data any) {
	payload, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("encode broadcast")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			log.Warn().Str("connection_id", c.id).Msg("send buffer full, dropping connection")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (s *Server) handleWebsocket(c *gin.Context) {
	var principal *auth.Principal
	if raw := bearerToken(c.Request); raw != "" {
		p, err := s.issuer.Parse(raw)
		if err != nil {
			writeError(c, http.StatusUnauthorized, "unauthorized", "Invalid token.")
			return
		}
		principal = &p
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	cl := &client{
		id:        uuid.NewString(),
		conn:      conn,
		send:      make(chan []byte, s.hub.cfg.SendBuffer),
		principal: principal,
	}
	s.hub.Add(cl)
	log.Info().Str("connection_id", cl.id).Str("remote", c.Request.RemoteAddr).Msg("ws connected")

	s.hub.Send(cl, eventTimerUpdate, s.timer.Snapshot())
	go s.writeWS(cl)
	go s.readWS(cl)
}

func (s *Server) writeWS(cl *client) {
	ticker := time.NewTicker(s.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case message, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteTimeout))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.hub.Remove(cl)
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteTimeout))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.hub.Remove(cl)
				return
			}
		}
	}
}

func (s *Server) readWS(cl *client) {
	defer s.hub.Remove(cl)
	cl.conn.SetReadLimit(s.hub.cfg.MaxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(s.hub.cfg.PongTimeout))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(s.hub.cfg.PongTimeout))
	})
	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Str("connection_id", cl.id).Msg("ws disconnected")
			return
		}
		_ = cl.conn.SetReadDeadline(time.Now().Add(s.hub.cfg.PongTimeout))
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.hub.Send(cl, eventError, gin.H{"error": "invalid message"})
			continue
		}
		if msg.Event == eventAdminCommand {
			s.handleAdminCommand(cl, msg.Data)
		}
	}
}

// handleAdminCommand applies start/pause from an admin connection. Other
// connections get an error event and nothing changes.
func (s *Server) handleAdminCommand(cl *client, raw json.RawMessage) {
	if cl.principal == nil || !cl.principal.Can(auth.CapTimerControl) {
		s.hub.Send(cl, eventError, gin.H{"error": "forbidden"})
		return
	}
	var cmd adminCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		s.hub.Send(cl, eventError, gin.H{"error": "invalid command"})
		return
	}
	var paused bool
	switch strings.ToLower(strings.TrimSpace(cmd.Action)) {
	case "start":
		paused = false
	case "pause":
		paused = true
	default:
		s.hub.Send(cl, eventError, gin.H{"error": "unknown action"})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, _, err := s.workflow.SetHalt(ctx, paused); err != nil {
		log.Error().Err(err).Msg("admin command failed")
		s.hub.Send(cl, eventError, gin.H{"error": "command failed"})
		return
	}
	s.recordEvent(ctx, auditHaltChanged, "", cl.principal.ID, EventPayload{Paused: boolPtr(paused), Source: "websocket"})
}
