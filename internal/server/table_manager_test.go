package server

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scala40-advisor/internal/scala40"
)

func mustCards(t *testing.T, notations ...string) []scala40.Card {
	t.Helper()
	cards, err := scala40.ParseCards(notations)
	if err != nil {
		t.Fatal(err)
	}
	return cards
}

func TestOpenTable(t *testing.T) {
	assert := assert.New(t)
	tm := NewTableManager()

	table, token, err := tm.OpenTable("Alice")
	assert.NoError(err)

	assert.NoError(ValidateRoomCode(table.RoomCode))
	assert.NotEmpty(token)
	assert.Len(table.Members, 1)
	assert.Equal("Alice", table.Members[0].Username)
	assert.True(table.Members[0].Connected)
	assert.Empty(table.Played)
	assert.Equal(1, tm.Count())

	_, _, err = tm.OpenTable("")
	assert.ErrorContains(err, "USERNAME_INVALID")
}

func TestJoinTable(t *testing.T) {
	assert := assert.New(t)
	tm := NewTableManager()

	opened, _, _ := tm.OpenTable("Alice")

	table, token, err := tm.JoinTable(opened.RoomCode, "Bob")
	assert.NoError(err)
	assert.NotEmpty(token)
	assert.Len(table.Members, 2)

	// Room codes are case-insensitive
	_, _, err = tm.JoinTable(" "+strings.ToLower(opened.RoomCode), "Cat")
	assert.NoError(err)
}

func TestJoinTableErrors(t *testing.T) {
	tm := NewTableManager()
	opened, _, _ := tm.OpenTable("Alice")

	for i := 1; i < MaxTableMembers; i++ {
		_, _, err := tm.JoinTable(opened.RoomCode, fmt.Sprintf("P%d", i))
		assert.NoError(t, err)
	}

	tests := []struct {
		name     string
		roomCode string
		username string
		wantErr  string
	}{
		{"bad code", "AB1", "Zed", "ROOM_CODE_INVALID"},
		{"unknown table", nextCode(opened.RoomCode), "Zed", "ROOM_NOT_FOUND"},
		{"taken username", opened.RoomCode, "alice", "USERNAME_TAKEN"},
		{"full table", opened.RoomCode, "Zed", "TABLE_FULL"},
		{"empty username", opened.RoomCode, "", "USERNAME_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tm.JoinTable(tt.roomCode, tt.username)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

// nextCode returns a valid room code different from code.
func nextCode(code string) string {
	if code == "AAAA" {
		return "BBBB"
	}
	return "AAAA"
}

func TestRecordPlayed(t *testing.T) {
	assert := assert.New(t)
	tm := NewTableManager()

	opened, token, _ := tm.OpenTable("Alice")

	table, err := tm.RecordPlayed(opened.RoomCode, token, mustCards(t, "5H", "7C", "JOKER"))
	assert.NoError(err)
	assert.Equal(mustCards(t, "5H", "7C", "JOKER"), table.Played)

	table, err = tm.RecordPlayed(opened.RoomCode, token, mustCards(t, "5H"))
	assert.NoError(err)
	assert.Len(table.Played, 4)

	played, err := tm.Played(opened.RoomCode)
	assert.NoError(err)
	assert.Equal(table.Played, played)
}

func TestRecordPlayedRejectsImpossibleLedger(t *testing.T) {
	assert := assert.New(t)
	tm := NewTableManager()

	opened, token, _ := tm.OpenTable("Alice")
	_, err := tm.RecordPlayed(opened.RoomCode, token, mustCards(t, "5H", "5H"))
	assert.NoError(err)

	// A third 5♥ cannot exist in a two-deck pack; the batch is dropped whole
	_, err = tm.RecordPlayed(opened.RoomCode, token, mustCards(t, "KS", "5H"))
	assert.ErrorContains(err, "LEDGER_OVERFLOW")

	played, _ := tm.Played(opened.RoomCode)
	assert.Len(played, 2)

	_, err = tm.RecordPlayed(opened.RoomCode, token, mustCards(t, "JOKER", "JOKER", "JOKER", "JOKER"))
	assert.NoError(err)
	_, err = tm.RecordPlayed(opened.RoomCode, token, mustCards(t, "JOKER"))
	assert.ErrorContains(err, "LEDGER_OVERFLOW")
}

func TestRecordPlayedNeedsMember(t *testing.T) {
	tm := NewTableManager()
	opened, _, _ := tm.OpenTable("Alice")

	_, err := tm.RecordPlayed(opened.RoomCode, "stranger", mustCards(t, "5H"))
	assert.ErrorContains(t, err, "NOT_AT_TABLE")

	_, err = tm.Played(nextCode(opened.RoomCode))
	assert.ErrorContains(t, err, "ROOM_NOT_FOUND")
}

func TestSnapshotsAreCopies(t *testing.T) {
	tm := NewTableManager()
	opened, token, _ := tm.OpenTable("Alice")
	tm.RecordPlayed(opened.RoomCode, token, mustCards(t, "5H"))

	played, _ := tm.Played(opened.RoomCode)
	played[0] = scala40.JokerCard

	table, _ := tm.GetTable(opened.RoomCode)
	assert.Equal(t, mustCards(t, "5H"), table.Played)
}

func TestLeaveTable(t *testing.T) {
	assert := assert.New(t)
	tm := NewTableManager()

	opened, aliceToken, _ := tm.OpenTable("Alice")
	_, bobToken, _ := tm.JoinTable(opened.RoomCode, "Bob")

	table, err := tm.LeaveTable(opened.RoomCode, aliceToken)
	assert.NoError(err)
	assert.Len(table.Members, 1)
	assert.Equal("Bob", table.Members[0].Username)

	_, err = tm.LeaveTable(opened.RoomCode, aliceToken)
	assert.ErrorContains(err, "NOT_AT_TABLE")

	// Last one out closes the table
	table, err = tm.LeaveTable(opened.RoomCode, bobToken)
	assert.NoError(err)
	assert.Empty(table.Members)
	assert.Equal(0, tm.Count())

	_, err = tm.GetTable(opened.RoomCode)
	assert.ErrorContains(err, "ROOM_NOT_FOUND")
}

func TestSetConnected(t *testing.T) {
	assert := assert.New(t)
	tm := NewTableManager()

	opened, token, _ := tm.OpenTable("Alice")

	table, err := tm.SetConnected(opened.RoomCode, token, false)
	assert.NoError(err)
	assert.False(table.Members[0].Connected)

	table, err = tm.SetConnected(opened.RoomCode, token, true)
	assert.NoError(err)
	assert.True(table.Members[0].Connected)
}

func TestCleanupIdle(t *testing.T) {
	assert := assert.New(t)
	tm := NewTableManager()

	stale, _, _ := tm.OpenTable("Alice")
	fresh, _, _ := tm.OpenTable("Bob")

	tm.mu.Lock()
	tm.tables[stale.RoomCode].UpdatedAt = time.Now().Add(-3 * time.Hour)
	tm.mu.Unlock()

	closed := tm.CleanupIdle(2 * time.Hour)

	assert.Equal([]string{stale.RoomCode}, closed)
	assert.Equal(1, tm.Count())
	_, err := tm.GetTable(fresh.RoomCode)
	assert.NoError(err)

	tm.mu.RLock()
	assert.NotContains(tm.usedCodes, stale.RoomCode)
	tm.mu.RUnlock()
}
