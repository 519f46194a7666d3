package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"scala40-advisor/internal/scala40"
)

const maxAdviceBody = 64 << 10

func (s *Server) RegisterRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.HelloWorldHandler)

	mux.HandleFunc("/health", s.healthHandler)

	mux.HandleFunc("/advice", s.adviceHandler)

	mux.HandleFunc("/websocket", s.websocketHandler)

	return s.corsMiddleware(mux)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

// errorCode extracts the CODE from a "CODE: message" error string.
func errorCode(msg string) string {
	code, _, found := strings.Cut(msg, ":")
	if !found || code == "" || strings.ContainsAny(code, " \t") || code != strings.ToUpper(code) {
		return ""
	}
	return code
}

func errorMessage(msg string) ErrorMessage {
	return ErrorMessage{Message: msg, Code: errorCode(msg)}
}

func (s *Server) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Scala 40 advisor"})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Tables:      s.tableManager.Count(),
		Sessions:    len(s.sessionManager.GetAllSessions()),
		Connections: s.connectionManager.Count(),
	})
}

func (s *Server) adviceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorMessage("METHOD_NOT_ALLOWED: Use POST"))
		return
	}

	var req AdviceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAdviceBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorMessage("INVALID_JSON: "+err.Error()))
		return
	}

	var ledger []scala40.Card
	if req.Table != "" {
		played, err := s.tableManager.Played(req.Table)
		if err != nil {
			writeJSON(w, http.StatusNotFound, errorMessage(err.Error()))
			return
		}
		ledger = played
	}

	view, err := s.advise(req, ledger)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorMessage(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// advise parses the request and runs the advisor. ledger holds cards seen
// on a shared table and is counted along with req.Played.
func (s *Server) advise(req AdviceRequest, ledger []scala40.Card) (AdviceResponse, error) {
	hand, err := scala40.ParseCards(req.Hand)
	if err != nil {
		return AdviceResponse{}, fmt.Errorf("%w in hand", err)
	}
	played, err := scala40.ParseCards(req.Played)
	if err != nil {
		return AdviceResponse{}, fmt.Errorf("%w in played cards", err)
	}

	phase := s.cfg.DefaultPhase
	if req.Phase != "" {
		phase = scala40.ParsePhase(req.Phase)
	}

	start := time.Now()
	advice, err := scala40.Advise(scala40.Request{
		Hand:    hand,
		Phase:   phase,
		Played:  append(played, ledger...),
		Opening: s.cfg.OpeningOptions(),
	})
	if err != nil {
		return AdviceResponse{}, err
	}

	log.Debug().
		Str("phase", string(advice.Phase)).
		Int("candidates", len(advice.Candidates)).
		Bool("canOpen", advice.Opening.CanOpen).
		Dur("took", time.Since(start)).
		Msg("advice computed")

	return advice.View(), nil
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		http.Error(w, "Failed to open websocket", http.StatusInternalServerError)
		return
	}
	defer socket.Close(websocket.StatusGoingAway, "Server closing")

	ctx := r.Context()

	connectionID := uuid.New().String()
	log.Info().Str("connection", connectionID).Msg("new connection")
	s.connectionManager.AddConnection(connectionID, socket)
	defer s.disconnect(connectionID)

	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			log.Debug().Str("connection", connectionID).Err(err).Msg("read error")
			return
		}

		if msgType != websocket.MessageText {
			log.Warn().Str("connection", connectionID).Msg("non-text input")
			continue
		}

		if !s.rateLimiter.Allow(connectionID) {
			log.Warn().Str("connection", connectionID).Msg("rate limited")
			s.sendError(socket, ctx, "RATE_LIMIT_EXCEEDED: Too many messages, slow down")
			continue
		}
		s.connectionHealth.UpdateActivity(connectionID)

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Str("connection", connectionID).Err(err).Msg("invalid JSON")
			s.sendError(socket, ctx, "INVALID_JSON: Invalid JSON")
			continue
		}

		if err := ValidateMessageType(msg.Type); err != nil {
			s.sendError(socket, ctx, err.Error())
			continue
		}

		log.Debug().Str("connection", connectionID).Str("type", msg.Type).Msg("message")

		switch msg.Type {
		case "ping":
			s.handlePing(socket, ctx, connectionID, msg.Payload)

		case "open_table":
			s.handleOpenTable(socket, ctx, connectionID, msg.Payload)

		case "join_table":
			s.handleJoinTable(socket, ctx, connectionID, msg.Payload)

		case "record_played":
			s.handleRecordPlayed(socket, ctx, connectionID, msg.Payload)

		case "advise":
			s.handleAdvise(socket, ctx, connectionID, msg.Payload)

		case "leave_table":
			s.handleLeaveTable(socket, ctx, connectionID, msg.Payload)

		case "rejoin_table":
			s.handleRejoinTable(socket, ctx, connectionID, msg.Payload)
		}
	}
}

// disconnect forgets the connection and marks its table seat as away.
func (s *Server) disconnect(connectionID string) {
	token := s.connectionManager.GetTokenByConnection(connectionID)

	s.connectionManager.RemoveConnection(connectionID)
	s.rateLimiter.RemoveConnection(connectionID)
	s.connectionHealth.RemoveConnection(connectionID)
	log.Info().Str("connection", connectionID).Msg("connection closed")

	if token == "" {
		return
	}

	session, err := s.sessionManager.GetSession(token)
	if err != nil {
		return
	}

	table, err := s.tableManager.SetConnected(session.RoomCode, token, false)
	if err != nil {
		// The table may have been closed by cleanup
		log.Debug().Err(err).Str("room", session.RoomCode).Msg("mark disconnected")
		return
	}

	s.broadcastTableUpdate(table)
}

func (s *Server) handlePing(socket *websocket.Conn, ctx context.Context, connectionID string, _ json.RawMessage) {
	response := ServerMessage{
		Type:    "pong",
		Payload: struct{}{},
	}

	if err := s.sendMessage(socket, ctx, response); err != nil {
		log.Error().Err(err).Str("connection", connectionID).Msg("failed to send pong")
	}
}

func (s *Server) sendMessage(socket *websocket.Conn, ctx context.Context, msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}

	return socket.Write(ctx, websocket.MessageText, data)
}

func (s *Server) sendError(socket *websocket.Conn, ctx context.Context, msg string) {
	response := ServerMessage{
		Type:    "error",
		Payload: errorMessage(msg),
	}

	if err := s.sendMessage(socket, ctx, response); err != nil {
		log.Error().Err(err).Msg("failed to send error message")
	}
}

// requireSession returns the session of the table this connection sits at.
func (s *Server) requireSession(connectionID string) (SessionInfo, error) {
	token := s.connectionManager.GetTokenByConnection(connectionID)
	if token == "" {
		return SessionInfo{}, errors.New("NOT_AT_TABLE: Open or join a table first")
	}
	return s.sessionManager.GetSession(token)
}

func (s *Server) handleOpenTable(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req OpenTableRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "INVALID_PAYLOAD: Invalid open_table payload")
		return
	}

	if s.connectionManager.GetTokenByConnection(connectionID) != "" {
		s.sendError(socket, ctx, "ALREADY_AT_TABLE: Leave your current table first")
		return
	}

	table, token, err := s.tableManager.OpenTable(req.Username)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	s.sessionManager.StoreSession(SessionInfo{
		Token:    token,
		RoomCode: table.RoomCode,
		Username: req.Username,
	})
	s.connectionManager.AddConnectionWithToken(connectionID, socket, token)
	log.Info().Str("room", table.RoomCode).Str("username", req.Username).Msg("table opened")

	response := ServerMessage{
		Type: "table_opened",
		Payload: OpenTableResponse{
			RoomCode: table.RoomCode,
			Token:    token,
		},
	}
	if err := s.sendMessage(socket, ctx, response); err != nil {
		log.Error().Err(err).Msg("failed to send table_opened")
		return
	}

	s.broadcastTableUpdate(table)
}

func (s *Server) handleJoinTable(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req JoinTableRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "INVALID_PAYLOAD: Invalid join_table payload")
		return
	}

	if s.connectionManager.GetTokenByConnection(connectionID) != "" {
		s.sendError(socket, ctx, "ALREADY_AT_TABLE: Leave your current table first")
		return
	}

	table, token, err := s.tableManager.JoinTable(req.RoomCode, req.Username)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	s.sessionManager.StoreSession(SessionInfo{
		Token:    token,
		RoomCode: table.RoomCode,
		Username: req.Username,
	})
	s.connectionManager.AddConnectionWithToken(connectionID, socket, token)
	log.Info().Str("room", table.RoomCode).Str("username", req.Username).Msg("table joined")

	response := ServerMessage{
		Type: "table_joined",
		Payload: JoinTableResponse{
			Success:  true,
			RoomCode: table.RoomCode,
			Token:    token,
		},
	}
	if err := s.sendMessage(socket, ctx, response); err != nil {
		log.Error().Err(err).Msg("failed to send table_joined")
		return
	}

	s.broadcastTableUpdate(table)
}

// handleRejoinTable gives a member their seat back on a new socket.
// Why by token: usernames are taken while the seat is held, so the token
// handed out by open_table or join_table is the only proof of the seat.
func (s *Server) handleRejoinTable(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req RejoinTableRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "INVALID_PAYLOAD: Invalid rejoin_table payload")
		return
	}

	session, err := s.sessionManager.GetSession(req.Token)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	if current := s.connectionManager.GetTokenByConnection(connectionID); current != "" && current != req.Token {
		s.sendError(socket, ctx, "ALREADY_AT_TABLE: Leave your current table first")
		return
	}

	// Bind before flagging the seat connected, so a late disconnect from the
	// old socket no longer resolves to this token.
	oldConnectionID := s.connectionManager.AddConnectionWithToken(connectionID, socket, req.Token)
	if oldConnectionID != "" && oldConnectionID != connectionID {
		if oldConn := s.connectionManager.GetConnection(oldConnectionID); oldConn != nil {
			s.sendMessage(oldConn, context.Background(), ServerMessage{
				Type:    "disconnected_elsewhere",
				Payload: DisconnectedElsewhereNotification{Message: "You rejoined from another connection"},
			})
			oldConn.Close(websocket.StatusNormalClosure, "Rejoined from another connection")
		}
		s.connectionManager.RemoveConnection(oldConnectionID)
	}

	table, err := s.tableManager.SetConnected(session.RoomCode, req.Token, true)
	if err != nil {
		s.connectionManager.UnmapToken(req.Token)
		s.sessionManager.RemoveSession(req.Token)
		s.sendError(socket, ctx, err.Error())
		return
	}

	log.Info().Str("room", table.RoomCode).Str("username", session.Username).Msg("table rejoined")

	response := ServerMessage{
		Type: "table_rejoined",
		Payload: JoinTableResponse{
			Success:  true,
			RoomCode: table.RoomCode,
			Token:    req.Token,
		},
	}
	if err := s.sendMessage(socket, ctx, response); err != nil {
		log.Error().Err(err).Msg("failed to send table_rejoined")
		return
	}

	s.broadcastTableUpdate(table)
}

func (s *Server) handleRecordPlayed(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req RecordPlayedRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "INVALID_PAYLOAD: Invalid record_played payload")
		return
	}

	session, err := s.requireSession(connectionID)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	cards, err := scala40.ParseCards(req.Cards)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	table, err := s.tableManager.RecordPlayed(session.RoomCode, session.Token, cards)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	log.Debug().Str("room", table.RoomCode).Int("played", len(table.Played)).Msg("ledger updated")
	s.broadcastTableUpdate(table)
}

func (s *Server) handleAdvise(socket *websocket.Conn, ctx context.Context, connectionID string, payload json.RawMessage) {
	var req AdviceRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.sendError(socket, ctx, "INVALID_PAYLOAD: Invalid advise payload")
		return
	}

	roomCode := req.Table
	if roomCode == "" {
		if session, err := s.requireSession(connectionID); err == nil {
			roomCode = session.RoomCode
		}
	}

	var ledger []scala40.Card
	if roomCode != "" {
		played, err := s.tableManager.Played(roomCode)
		if err != nil {
			s.sendError(socket, ctx, err.Error())
			return
		}
		ledger = played
	}

	view, err := s.advise(req, ledger)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	if err := s.sendMessage(socket, ctx, ServerMessage{Type: "advice", Payload: view}); err != nil {
		log.Error().Err(err).Msg("failed to send advice")
	}
}

func (s *Server) handleLeaveTable(socket *websocket.Conn, ctx context.Context, connectionID string, _ json.RawMessage) {
	session, err := s.requireSession(connectionID)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	table, err := s.tableManager.LeaveTable(session.RoomCode, session.Token)
	if err != nil {
		s.sendError(socket, ctx, err.Error())
		return
	}

	s.sessionManager.RemoveSession(session.Token)
	s.connectionManager.UnmapToken(session.Token)
	log.Info().Str("room", table.RoomCode).Str("username", session.Username).Msg("table left")

	response := ServerMessage{
		Type: "table_left",
		Payload: struct {
			RoomCode string `json:"roomCode"`
		}{
			RoomCode: table.RoomCode,
		},
	}
	if err := s.sendMessage(socket, ctx, response); err != nil {
		log.Error().Err(err).Msg("failed to send table_left")
	}

	if len(table.Members) > 0 {
		s.broadcastTableUpdate(table)
	}
}

// broadcastTableUpdate sends every connected member their own view of the
// table.
func (s *Server) broadcastTableUpdate(table Table) {
	for _, member := range table.Members {
		connID := s.connectionManager.GetConnectionByToken(member.Token)
		if connID == "" {
			continue
		}

		conn := s.connectionManager.GetConnection(connID)
		if conn == nil {
			continue
		}

		msg := ServerMessage{
			Type:    "table_update",
			Payload: s.buildTableState(table, member.Token),
		}
		if err := s.sendMessage(conn, context.Background(), msg); err != nil {
			log.Warn().Err(err).Str("room", table.RoomCode).Msg("table_update failed")
		}
	}
}

func (s *Server) buildTableState(table Table, forToken string) TableState {
	members := make([]TableMember, 0, len(table.Members))
	for _, m := range table.Members {
		members = append(members, TableMember{
			Username:  m.Username,
			Connected: m.Connected,
			IsYou:     m.Token == forToken,
		})
	}

	return TableState{
		RoomCode:    table.RoomCode,
		Members:     members,
		Played:      scala40.CardStrings(table.Played),
		PlayedCount: len(table.Played),
	}
}
