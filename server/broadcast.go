package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teranos/gitpulse/pulse"
)

// WebSocket timeout constants following Gorilla best practices
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Outbound buffer per client; slow consumers drop messages rather
	// than block the broadcaster
	sendBufferSize = 16
)

// MaxClients caps concurrent WebSocket connections
const MaxClients = 32

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// StateMessage is the WebSocket frame pushed on every scheduler
// transition
type StateMessage struct {
	Type      string         `json:"type"`
	Data      pulse.Snapshot `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

// HandleWebSocket upgrades the connection and streams state snapshots
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.originAllowed(origin)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("WebSocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}

	s.mu.Lock()
	if len(s.clients) >= MaxClients {
		s.mu.Unlock()
		s.logger.Warnw("Max WebSocket clients reached, rejecting connection",
			"max_clients", MaxClients)
		conn.Close()
		return
	}
	s.clients[c] = true
	total := len(s.clients)
	s.mu.Unlock()

	s.logger.Infow("WebSocket client connected", "total_clients", total)

	// Seed the new client with the current state
	if payload, err := marshalState(s.control.Snapshot()); err == nil {
		select {
		case c.send <- payload:
		default:
		}
	}

	s.wg.Add(2)
	go s.writePump(c)
	go s.readPump(c)
}

// BroadcastSnapshot fans a scheduler snapshot out to every connected
// client. Called by the scheduler loop on each state transition;
// clients with full buffers are skipped, never waited on.
func (s *Server) BroadcastSnapshot(snap pulse.Snapshot) {
	payload, err := marshalState(snap)
	if err != nil {
		s.logger.Warnw("Failed to marshal state snapshot", "error", err)
		return
	}

	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- payload:
		default:
		}
	}
}

func marshalState(snap pulse.Snapshot) ([]byte, error) {
	return json.Marshal(StateMessage{
		Type:      "state",
		Data:      snap,
		Timestamp: time.Now().Unix(),
	})
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
	}
	s.mu.Unlock()
	c.conn.Close()
}

// readPump discards inbound frames and detects disconnects
func (s *Server) readPump(c *client) {
	defer s.wg.Done()
	defer s.removeClient(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump drains the client's send channel and keeps the connection
// alive with pings
func (s *Server) writePump(c *client) {
	defer s.wg.Done()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case <-s.ctx.Done():
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(writeWait))
			return
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
