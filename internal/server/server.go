package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"scala40-advisor/internal/config"
)

const cleanupInterval = time.Minute

type Server struct {
	cfg               *config.Config
	connectionManager *ConnectionManager
	tableManager      *TableManager
	sessionManager    *SessionManager
	rateLimiter       *RateLimiter
	connectionHealth  *ConnectionHealth
}

func newServer(cfg *config.Config) *Server {
	return &Server{
		cfg:               cfg,
		connectionManager: NewConnectionManager(),
		tableManager:      NewTableManager(),
		sessionManager:    NewSessionManager(),
		rateLimiter:       NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		connectionHealth:  NewConnectionHealth(),
	}
}

// NewServer builds the HTTP server and starts the background cleanup, which
// stops when ctx is cancelled.
func NewServer(ctx context.Context, cfg *config.Config) *http.Server {
	s := newServer(cfg)

	go s.cleanupTask(ctx, cleanupInterval)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}

// cleanupTask closes idle tables, drops their sessions and hangs up on
// connections that stopped talking.
func (s *Server) cleanupTask(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *Server) cleanup() {
	timeout := s.cfg.TableIdleTimeout

	// Tables first: closing one releases its members' sockets, which may
	// then be picked up below if they have gone quiet as well.
	for _, code := range s.tableManager.CleanupIdle(timeout) {
		tokens := s.sessionManager.RemoveRoom(code)
		for _, token := range tokens {
			s.releaseToken(code, token)
		}
		log.Info().Str("room", code).Int("sessions", len(tokens)).Msg("closed idle table")
	}

	for _, connID := range s.connectionHealth.GetInactiveConnections(timeout) {
		// Why re-check: a message may have arrived since the list was built
		if !s.connectionHealth.IsInactive(connID, timeout) {
			continue
		}
		if conn := s.connectionManager.GetConnection(connID); conn != nil {
			conn.Close(websocket.StatusGoingAway, "Inactive")
		}
		s.connectionHealth.RemoveConnection(connID)
		log.Info().Str("connection", connID).Msg("closed inactive connection")
	}

	s.rateLimiter.Cleanup()
}

// releaseToken unbinds a token whose table was closed and tells the socket
// still holding it, so the client can open or join another table.
func (s *Server) releaseToken(roomCode, token string) {
	connID := s.connectionManager.GetConnectionByToken(token)
	s.connectionManager.UnmapToken(token)
	if connID == "" {
		return
	}

	conn := s.connectionManager.GetConnection(connID)
	if conn == nil {
		return
	}

	msg := ServerMessage{
		Type:    "table_closed",
		Payload: TableClosedNotification{RoomCode: roomCode, Reason: "Table closed after inactivity"},
	}
	if err := s.sendMessage(conn, context.Background(), msg); err != nil {
		log.Warn().Err(err).Str("room", roomCode).Msg("table_closed failed")
	}
}
