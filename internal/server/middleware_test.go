package server

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	limiter := NewRateLimiter(10, time.Second)

	for i := range 10 {
		assert.True(t, limiter.Allow("conn-1"), "request %d should be allowed", i+1)
	}
	assert.False(t, limiter.Allow("conn-1"), "11th request should be denied")
}

func TestRateLimiter_WindowReset(t *testing.T) {
	assert := assert.New(t)
	limiter := NewRateLimiter(2, 100*time.Millisecond)

	assert.True(limiter.Allow("conn-1"))
	assert.True(limiter.Allow("conn-1"))
	assert.False(limiter.Allow("conn-1"))

	time.Sleep(150 * time.Millisecond)

	assert.True(limiter.Allow("conn-1"), "window should have slid past the old requests")
}

func TestRateLimiter_PerConnection(t *testing.T) {
	limiter := NewRateLimiter(5, time.Second)

	for range 5 {
		limiter.Allow("conn-1")
	}
	assert.False(t, limiter.Allow("conn-1"))

	for i := range 5 {
		assert.True(t, limiter.Allow("conn-2"), "conn-2 request %d", i+1)
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	limiter := NewRateLimiter(10, 100*time.Millisecond)

	for i := range 5 {
		limiter.Allow(fmt.Sprintf("conn-%d", i))
	}

	limiter.mu.Lock()
	assert.Len(t, limiter.requests, 5)
	limiter.mu.Unlock()

	time.Sleep(200 * time.Millisecond)
	limiter.Allow("fresh")
	limiter.Cleanup()

	limiter.mu.Lock()
	assert.Len(t, limiter.requests, 1)
	assert.Contains(t, limiter.requests, "fresh")
	limiter.mu.Unlock()
}

func TestConnectionHealth_IsInactive(t *testing.T) {
	assert := assert.New(t)
	health := NewConnectionHealth()

	assert.False(health.IsInactive("conn", time.Minute), "untracked connections are never inactive")

	health.UpdateActivity("conn")
	assert.False(health.IsInactive("conn", time.Minute))

	health.mu.Lock()
	health.lastActivity["conn"] = time.Now().Add(-2 * time.Minute)
	health.mu.Unlock()

	assert.True(health.IsInactive("conn", time.Minute))
}

func TestConnectionHealth_GetInactiveConnections(t *testing.T) {
	health := NewConnectionHealth()

	health.UpdateActivity("active-1")
	health.UpdateActivity("active-2")

	health.mu.Lock()
	health.lastActivity["inactive-1"] = time.Now().Add(-6 * time.Minute)
	health.lastActivity["inactive-2"] = time.Now().Add(-10 * time.Minute)
	health.mu.Unlock()

	inactive := health.GetInactiveConnections(5 * time.Minute)
	assert.ElementsMatch(t, []string{"inactive-1", "inactive-2"}, inactive)

	health.RemoveConnection("inactive-1")
	assert.Equal(t, []string{"inactive-2"}, health.GetInactiveConnections(5*time.Minute))
}

func TestValidateMessageType(t *testing.T) {
	for _, msgType := range []string{"ping", "open_table", "join_table", "record_played", "advise", "leave_table", "rejoin_table"} {
		assert.NoError(t, ValidateMessageType(msgType), msgType)
	}

	for _, msgType := range []string{"invalid", "create_game", "PING", ""} {
		assert.ErrorContains(t, ValidateMessageType(msgType), "INVALID_MESSAGE_TYPE", msgType)
	}
}

func TestValidateUsername(t *testing.T) {
	for _, name := range []string{"Alice", "Bob123", "Player 1", "用户"} {
		assert.NoError(t, ValidateUsername(name), name)
	}

	assert.ErrorContains(t, ValidateUsername(""), "USERNAME_INVALID")
	assert.ErrorContains(t, ValidateUsername("ThisUsernameIsWayTooLongAndShouldFail"), "USERNAME_INVALID")
}
