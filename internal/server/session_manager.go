package server

import (
	"errors"
	"sync"
)

// SessionInfo ties a token handed out by open_table or join_table to the
// table it was issued for.
type SessionInfo struct {
	Token    string
	RoomCode string
	Username string
}

type SessionManager struct {
	sessions map[string]SessionInfo // Token -> SessionInfo
	mu       sync.RWMutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]SessionInfo),
	}
}

func (sm *SessionManager) StoreSession(info SessionInfo) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[info.Token] = info
}

func (sm *SessionManager) GetSession(token string) (SessionInfo, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[token]
	if !exists {
		return SessionInfo{}, errors.New("TOKEN_NOT_FOUND: Invalid session token")
	}

	return session, nil
}

// Used for members who leave on purpose
func (sm *SessionManager) RemoveSession(token string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, token)
}

// RemoveRoom drops every session issued for a closed table and returns the
// tokens it dropped.
// Why return tokens: sockets still bound to them must be released too, or
// they stay stuck on a table that no longer exists.
func (sm *SessionManager) RemoveRoom(roomCode string) []string {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	var removed []string
	for token, session := range sm.sessions {
		if session.RoomCode == roomCode {
			delete(sm.sessions, token)
			removed = append(removed, token)
		}
	}
	return removed
}

func (sm *SessionManager) GetAllSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sessions := make([]SessionInfo, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		sessions = append(sessions, session)
	}

	return sessions
}
