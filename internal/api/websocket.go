package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"glide/internal/engine"
	"glide/internal/protocol"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API only listens on loopback
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSManager handles WebSocket connections and broadcasting
type WSManager struct {
	server     *Server
	clients    map[*WebSocketClient]bool
	clientsMu  sync.RWMutex
	broadcast  chan []byte
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	shutdown   chan struct{}
	startOnce  sync.Once
	stopOnce   sync.Once
}

// WebSocketClient represents a connected control client
type WebSocketClient struct {
	manager *WSManager
	conn    *websocket.Conn
	send    chan []byte
	ip      string

	// sendMu guards closed so readPump never sends on a channel the hub closed
	sendMu sync.Mutex
	closed bool
}

// trySend queues message without blocking. It reports false if the queue is
// full or the hub already dropped the client.
func (c *WebSocketClient) trySend(message []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// closeSend closes the send queue once
func (c *WebSocketClient) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func newWSManager(s *Server) *WSManager {
	return &WSManager{
		server:     s,
		clients:    make(map[*WebSocketClient]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
		shutdown:   make(chan struct{}),
	}
}

func (m *WSManager) start() {
	m.startOnce.Do(func() { go m.run() })
}

func (m *WSManager) stop() {
	m.stopOnce.Do(func() { close(m.shutdown) })
}

func (m *WSManager) run() {
	for {
		select {
		case client := <-m.register:
			m.clientsMu.Lock()
			m.clients[client] = true
			total := len(m.clients)
			m.clientsMu.Unlock()
			log.Printf("WS: New client registered from %s. Total clients: %d", client.ip, total)

		case client := <-m.unregister:
			m.clientsMu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				client.closeSend()
				log.Printf("WS: Client unregistered from %s. Total clients: %d", client.ip, len(m.clients))
			}
			m.clientsMu.Unlock()

		case message := <-m.broadcast:
			m.broadcastMessage(message)

		case <-m.shutdown:
			m.clientsMu.Lock()
			for client := range m.clients {
				client.closeSend()
				delete(m.clients, client)
			}
			m.clientsMu.Unlock()
			return
		}
	}
}

func (m *WSManager) broadcastMessage(message []byte) {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()

	for client := range m.clients {
		if !client.trySend(message) {
			// Slow client, drop it
			client.closeSend()
			delete(m.clients, client)
		}
	}
}

// clientCount returns the number of registered clients
func (m *WSManager) clientCount() int {
	m.clientsMu.RLock()
	defer m.clientsMu.RUnlock()
	return len(m.clients)
}

// publishEvent is subscribed to the engine. It runs on the motion goroutine, so
// it never blocks: when the queue is full the event is dropped.
func (m *WSManager) publishEvent(ev engine.Event) {
	data, err := encodeEvent(ev)
	if err != nil {
		log.Printf("WS: Failed to encode event: %v", err)
		return
	}
	select {
	case m.broadcast <- data:
	default:
	}
}

func encodeEvent(ev engine.Event) ([]byte, error) {
	var msg protocol.Message
	var err error
	switch ev.Type {
	case engine.EventParams:
		msg, err = protocol.New(protocol.TypeParams, protocol.ParamsPayload{Params: ev.Params})
	default:
		payload := protocol.StatePayload{State: ev.State.String(), Enabled: ev.Enabled}
		if ev.Type == engine.EventState {
			payload.From = ev.From.String()
		}
		msg, err = protocol.New(protocol.TypeState, payload)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

func (m *WSManager) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WS: Failed to upgrade connection: %v", err)
		return
	}

	client := &WebSocketClient{
		manager: m,
		conn:    conn,
		send:    make(chan []byte, 256),
		ip:      r.RemoteAddr,
	}

	// Greet with a snapshot so the client does not wait for the next change
	eng := m.server.engine
	for _, ev := range []engine.Event{
		{Type: engine.EventEnabled, State: eng.State(), Enabled: eng.Enabled()},
		{Type: engine.EventParams, Params: eng.Params()},
	} {
		if data, err := encodeEvent(ev); err == nil {
			client.trySend(data)
		}
	}

	select {
	case m.register <- client:
	case <-m.shutdown:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub.
func (c *WebSocketClient) readPump() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.shutdown:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS: Read error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(50 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WebSocketClient) handleMessage(data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("WS: Invalid message format: %v", err)
		return
	}

	s := c.manager.server
	switch msg.Type {
	case protocol.TypeEnable:
		log.Printf("WS: Enable requested from %s", c.ip)
		s.engine.Enable()

	case protocol.TypeDisable:
		log.Printf("WS: Disable requested from %s", c.ip)
		s.engine.Disable()

	case protocol.TypeParams:
		var fields map[string]interface{}
		if err := msg.DecodePayload(&fields); err != nil {
			log.Printf("WS: Invalid params payload: %v", err)
			return
		}
		if _, err := s.switcher.PatchParams(fields); err != nil {
			log.Printf("WS: Rejected params update from %s: %v", c.ip, err)
		}

	case protocol.TypePing:
		if reply, err := json.Marshal(protocol.Message{Type: protocol.TypePing}); err == nil {
			c.trySend(reply)
		}

	default:
		log.Printf("WS: Unknown message type '%s' from %s", msg.Type, c.ip)
	}
}
