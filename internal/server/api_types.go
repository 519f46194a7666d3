package server

import "scala40-advisor/internal/scala40"

// ============================================================================
// ERROR RESPONSES
// ============================================================================
type ErrorMessage struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ============================================================================
// ADVICE (advise over websocket, POST /advice over HTTP)
// ============================================================================
type AdviceRequest struct {
	Hand   []string `json:"hand"`
	Phase  string   `json:"phase,omitempty"`
	Played []string `json:"played,omitempty"`
	// Table is a room code whose ledger is added to Played. Over the
	// websocket the caller's own table is used when this is empty.
	Table string `json:"table,omitempty"`
}

type AdviceResponse = scala40.AdviceView

// ============================================================================
// OPEN TABLE (open_table)
// ============================================================================
type OpenTableRequest struct {
	Username string `json:"username"`
}

type OpenTableResponse struct {
	RoomCode string `json:"roomCode"`
	Token    string `json:"token"`
}

// ============================================================================
// JOIN TABLE (join_table)
// ============================================================================
type JoinTableRequest struct {
	RoomCode string `json:"roomCode"`
	Username string `json:"username"`
}

type JoinTableResponse struct {
	Success  bool   `json:"success"`
	RoomCode string `json:"roomCode"`
	Token    string `json:"token"`
}

// ============================================================================
// RECORD PLAYED (record_played)
// ============================================================================
type RecordPlayedRequest struct {
	Cards []string `json:"cards"`
}

// ============================================================================
// REJOIN TABLE (rejoin_table)
// ============================================================================
// Answered with table_rejoined, which carries a JoinTableResponse.
type RejoinTableRequest struct {
	Token string `json:"token"`
}

// ============================================================================
// SEAT / TABLE NOTIFICATIONS (disconnected_elsewhere, table_closed)
// ============================================================================
type DisconnectedElsewhereNotification struct {
	Message string `json:"message"`
}

type TableClosedNotification struct {
	RoomCode string `json:"roomCode"`
	Reason   string `json:"reason"`
}

// ============================================================================
// TABLE STATE (table_update broadcast)
// ============================================================================
type TableState struct {
	RoomCode    string        `json:"roomCode"`
	Members     []TableMember `json:"members"`
	Played      []string      `json:"played"`
	PlayedCount int           `json:"playedCount"`
}

type TableMember struct {
	Username  string `json:"username"`
	Connected bool   `json:"connected"`
	IsYou     bool   `json:"isYou"` // Personalized for each client
}

// ============================================================================
// HEALTH (GET /health)
// ============================================================================
type HealthResponse struct {
	Status      string `json:"status"`
	Tables      int    `json:"tables"`
	Sessions    int    `json:"sessions"`
	Connections int    `json:"connections"`
}
