package utils

import (
	"strings"

	"github.com/google/uuid"
)

const roomCodeLength = 11

// CreateRoomCode returns a new opaque room identifier: the uppercase
// UUID without dashes, truncated to a short join code players can read
// out loud.
func CreateRoomCode() string {
	code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	if len(code) < roomCodeLength {
		return code
	}
	return code[:roomCodeLength]
}
