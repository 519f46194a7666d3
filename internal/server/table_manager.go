package server

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"scala40-advisor/internal/scala40"
)

// MaxTableMembers is the largest Scala 40 table.
const MaxTableMembers = 6

type TableManager struct {
	tables    map[string]*Table
	usedCodes map[string]bool
	mu        sync.RWMutex
}

// Table is a group of players sharing one ledger of cards seen on the
// table. Methods on TableManager hand out copies, never the live table.
type Table struct {
	RoomCode  string
	Members   []Member
	Played    []scala40.Card
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Member struct {
	Username  string
	Token     string
	Connected bool
	JoinedAt  time.Time
}

func NewTableManager() *TableManager {
	return &TableManager{
		tables:    make(map[string]*Table),
		usedCodes: make(map[string]bool),
	}
}

func (t *Table) snapshot() Table {
	cp := *t
	cp.Members = slices.Clone(t.Members)
	cp.Played = slices.Clone(t.Played)
	return cp
}

func (t *Table) memberIndex(token string) int {
	return slices.IndexFunc(t.Members, func(m Member) bool { return m.Token == token })
}

func (tm *TableManager) OpenTable(username string) (Table, string, error) {
	if err := ValidateUsername(username); err != nil {
		return Table{}, "", err
	}

	token := uuid.New().String()
	now := time.Now()

	tm.mu.Lock()
	defer tm.mu.Unlock()

	roomCode := GenerateRoomCode(tm.usedCodes)
	tm.usedCodes[roomCode] = true

	table := &Table{
		RoomCode: roomCode,
		Members: []Member{{
			Username:  username,
			Token:     token,
			Connected: true,
			JoinedAt:  now,
		}},
		Played:    []scala40.Card{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	tm.tables[roomCode] = table

	return table.snapshot(), token, nil
}

func (tm *TableManager) JoinTable(roomCode, username string) (Table, string, error) {
	roomCode = NormalizeRoomCode(roomCode)
	if err := ValidateRoomCode(roomCode); err != nil {
		return Table{}, "", err
	}
	if err := ValidateUsername(username); err != nil {
		return Table{}, "", err
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	table, exists := tm.tables[roomCode]
	if !exists {
		return Table{}, "", errors.New("ROOM_NOT_FOUND: Table not found")
	}

	taken := lo.ContainsBy(table.Members, func(m Member) bool {
		return strings.EqualFold(m.Username, username)
	})
	if taken {
		return Table{}, "", errors.New("USERNAME_TAKEN: Username already at this table")
	}

	if len(table.Members) >= MaxTableMembers {
		return Table{}, "", fmt.Errorf("TABLE_FULL: Table is full (%d/%d players)", len(table.Members), MaxTableMembers)
	}

	token := uuid.New().String()
	now := time.Now()
	table.Members = append(table.Members, Member{
		Username:  username,
		Token:     token,
		Connected: true,
		JoinedAt:  now,
	})
	table.UpdatedAt = now

	return table.snapshot(), token, nil
}

// RecordPlayed adds cards to the table ledger. The whole batch is rejected
// if any card would appear more often than the pack holds it.
func (tm *TableManager) RecordPlayed(roomCode, token string, cards []scala40.Card) (Table, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	table, err := tm.memberTable(roomCode, token)
	if err != nil {
		return Table{}, err
	}

	// Why check the whole batch first: a partial append would leave the
	// ledger holding half of what the client sent with no way to tell which
	// half.
	counts := lo.CountValues(table.Played)
	for _, card := range cards {
		counts[card]++
		if counts[card] > scala40.Copies(card) {
			return Table{}, fmt.Errorf("LEDGER_OVERFLOW: %s recorded more often than the pack holds it", card)
		}
	}

	table.Played = append(table.Played, cards...)
	table.UpdatedAt = time.Now()

	return table.snapshot(), nil
}

// Played returns the ledger of a table.
func (tm *TableManager) Played(roomCode string) ([]scala40.Card, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	table, exists := tm.tables[NormalizeRoomCode(roomCode)]
	if !exists {
		return nil, errors.New("ROOM_NOT_FOUND: Table not found")
	}

	return slices.Clone(table.Played), nil
}

// LeaveTable removes the member. The last one out closes the table and
// frees its room code.
func (tm *TableManager) LeaveTable(roomCode, token string) (Table, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	table, err := tm.memberTable(roomCode, token)
	if err != nil {
		return Table{}, err
	}

	table.Members = slices.DeleteFunc(table.Members, func(m Member) bool { return m.Token == token })
	table.UpdatedAt = time.Now()

	if len(table.Members) == 0 {
		tm.closeTable(table.RoomCode)
	}

	return table.snapshot(), nil
}

func (tm *TableManager) GetTable(roomCode string) (Table, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	table, exists := tm.tables[NormalizeRoomCode(roomCode)]
	if !exists {
		return Table{}, errors.New("ROOM_NOT_FOUND: Table not found")
	}

	return table.snapshot(), nil
}

// SetConnected flags a member as connected or not. Disconnected members keep
// their seat so they can come back through rejoin_table with the same token.
func (tm *TableManager) SetConnected(roomCode, token string, connected bool) (Table, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	table, err := tm.memberTable(roomCode, token)
	if err != nil {
		return Table{}, err
	}

	table.Members[table.memberIndex(token)].Connected = connected
	table.UpdatedAt = time.Now()

	return table.snapshot(), nil
}

// CleanupIdle closes tables nobody has touched within timeout and returns
// their room codes.
func (tm *TableManager) CleanupIdle(timeout time.Duration) []string {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	cutoff := time.Now().Add(-timeout)
	var closed []string
	for code, table := range tm.tables {
		if table.UpdatedAt.Before(cutoff) {
			tm.closeTable(code)
			closed = append(closed, code)
		}
	}
	return closed
}

func (tm *TableManager) Count() int {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return len(tm.tables)
}

// memberTable must be called with tm.mu held.
func (tm *TableManager) memberTable(roomCode, token string) (*Table, error) {
	table, exists := tm.tables[NormalizeRoomCode(roomCode)]
	if !exists {
		return nil, errors.New("ROOM_NOT_FOUND: Table not found")
	}
	if table.memberIndex(token) == -1 {
		return nil, errors.New("NOT_AT_TABLE: Invalid token")
	}
	return table, nil
}

func (tm *TableManager) closeTable(roomCode string) {
	delete(tm.tables, roomCode)
	delete(tm.usedCodes, roomCode)
}
