package server_test

import (
	"scala40-advisor/internal/server"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRoomCodeFormat(t *testing.T) {
	assert := assert.New(t)
	usedCodes := make(map[string]bool)

	for range 100 {
		code := server.GenerateRoomCode(usedCodes)

		assert.Len(code, 4)
		assert.NoError(server.ValidateRoomCode(code))
	}
}

func TestGenerateRoomCodeAvoidsUsedCodes(t *testing.T) {
	usedCodes := make(map[string]bool)
	for range 1000 {
		code := server.GenerateRoomCode(usedCodes)
		assert.False(t, usedCodes[code], "Code %s was generated twice", code)
		usedCodes[code] = true
	}

	assert.Len(t, usedCodes, 1000)
}

func TestValidateRoomCode(t *testing.T) {
	tests := []struct {
		code    string
		wantErr string
	}{
		{"BEAR", ""},
		{"zzzz", ""},
		{"", "exactly 4 characters"},
		{"ABC", "exactly 4 characters"},
		{"ABCDE", "exactly 4 characters"},
		{"A1B2", "only letters A-Z"},
		{"T@ST", "only letters A-Z"},
		{" ABC", "only letters A-Z"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := server.ValidateRoomCode(tt.code)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
			assert.ErrorContains(t, err, "ROOM_CODE_INVALID")
		})
	}
}

func TestNormalizeRoomCode(t *testing.T) {
	assert.Equal(t, "BEAR", server.NormalizeRoomCode(" bear "))
	assert.Equal(t, "GAME", server.NormalizeRoomCode("GaMe"))
}
