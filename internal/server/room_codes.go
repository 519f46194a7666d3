package server

import (
	"errors"
	"math/rand/v2"
	"strings"
)

const roomCodeLength = 4

// GenerateRoomCode returns a random code of upper-case letters not in
// usedCodes. Callers record the code themselves.
func GenerateRoomCode(usedCodes map[string]bool) string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = 'A' + byte(rand.IntN(26))
		}
		roomCode := string(code)

		if !usedCodes[roomCode] {
			return roomCode
		}
	}
}

func ValidateRoomCode(code string) error {
	if len(code) != roomCodeLength {
		return errors.New("ROOM_CODE_INVALID: Room code must be exactly 4 characters")
	}

	for _, ch := range strings.ToUpper(code) {
		if ch < 'A' || ch > 'Z' {
			return errors.New("ROOM_CODE_INVALID: Room code must contain only letters A-Z")
		}
	}

	return nil
}

func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
