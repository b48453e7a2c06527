package pkg

import "github.com/google/uuid"

// GenerateGameID - allocates a globally-unique identifier for a game.
func GenerateGameID() string {
	return uuid.NewString()
}

// GenerateNewSessionID - allocates a fresh player session identifier.
func GenerateNewSessionID() string {
	return uuid.NewString()
}
