package server

import (
	"sync"

	"github.com/coder/websocket"
)

// ConnectionManager maps sockets to the table tokens they speak for.
// Why tokens and not usernames: a seat survives a dropped socket, and the
// token is what a new socket presents to take it back.
type ConnectionManager struct {
	connections map[string]*websocket.Conn // connectionID → socket
	tokens      map[string]string          // token → connectionID
	mu          sync.RWMutex
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*websocket.Conn),
		tokens:      make(map[string]string),
	}
}

func (cm *ConnectionManager) AddConnection(id string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[id] = conn
}

// AddConnectionWithToken registers the socket and binds token to it. It
// returns the connection the token was bound to before, or "" if none.
func (cm *ConnectionManager) AddConnectionWithToken(id string, conn *websocket.Conn, token string) string {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	oldID := cm.tokens[token]
	cm.connections[id] = conn
	cm.tokens[token] = id
	return oldID
}

// RemoveConnection forgets the socket and any token still bound to it.
// A token already rebound to a newer connection is left alone.
func (cm *ConnectionManager) RemoveConnection(id string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	delete(cm.connections, id)
	for token, connID := range cm.tokens {
		if connID == id {
			delete(cm.tokens, token)
		}
	}
}

// UnmapToken releases a token without closing its socket, used when a member
// leaves or their table is closed.
func (cm *ConnectionManager) UnmapToken(token string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.tokens, token)
}

// GetTokenByConnection returns the token bound to a connection
func (cm *ConnectionManager) GetTokenByConnection(connectionID string) string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	for token, connID := range cm.tokens {
		if connID == connectionID {
			return token
		}
	}
	return ""
}

// GetConnectionByToken returns connectionID for a token
func (cm *ConnectionManager) GetConnectionByToken(token string) string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.tokens[token]
}

// GetConnection returns websocket for connectionID
func (cm *ConnectionManager) GetConnection(connectionID string) *websocket.Conn {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.connections[connectionID]
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}
