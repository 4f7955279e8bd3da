package handlers

import (
	"log"
	"sync"
	"time"

	"skylock-backend/models"
)

// jsonWriter is the part of *websocket.Conn the manager needs.
type jsonWriter interface {
	WriteJSON(v interface{}) error
}

// Client - 세션에 연결된 WebSocket 클라이언트
type Client struct {
	conn      jsonWriter
	SessionID string

	writeMu sync.Mutex
}

// Send writes one message; writes on a connection are serialised.
func (c *Client) Send(msgType string, data interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(models.WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

// ClientManager - 세션별 WebSocket 클라이언트 관리
type ClientManager struct {
	mu      sync.RWMutex
	clients map[*Client]bool
}

// Manager - 전역 클라이언트 관리자
var Manager = NewClientManager()

// NewClientManager - 클라이언트 관리자 생성
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[*Client]bool),
	}
}

// Register - 클라이언트 등록
func (m *ClientManager) Register(conn jsonWriter, sessionID string) *Client {
	client := &Client{conn: conn, SessionID: sessionID}

	m.mu.Lock()
	m.clients[client] = true
	m.mu.Unlock()

	log.Printf("클라이언트 등록: 세션 %s", sessionID)
	return client
}

// Unregister - 클라이언트 제거
func (m *ClientManager) Unregister(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[client]; ok {
		delete(m.clients, client)
		log.Printf("클라이언트 해제: 세션 %s", client.SessionID)
	}
}

// BroadcastToSession pushes a message to every client of one session and
// returns how many received it. Clients whose write fails are dropped.
func (m *ClientManager) BroadcastToSession(sessionID, msgType string, data interface{}) int {
	m.mu.RLock()
	targets := make([]*Client, 0, len(m.clients))
	for client := range m.clients {
		if client.SessionID == sessionID {
			targets = append(targets, client)
		}
	}
	m.mu.RUnlock()

	sent := 0
	for _, client := range targets {
		if err := client.Send(msgType, data); err != nil {
			log.Printf("전송 실패 (세션 %s): %v", sessionID, err)
			m.Unregister(client)
			continue
		}
		sent++
	}
	return sent
}

// GetClientCount returns connected clients per session.
func (m *ClientManager) GetClientCount() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := make(map[string]int)
	for client := range m.clients {
		count[client.SessionID]++
	}
	return count
}

// Total returns the number of connected clients.
func (m *ClientManager) Total() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
