package websocket

import (
	"encoding/json"

	"github.com/gridclash/tictactoe-backend/internal/entity"
)

// Message - the envelope for every frame in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// mustMarshalPayload - Payload contains only marshalable fields, so a
// failure here is a programming error.
func mustMarshalPayload(payload *Payload) json.RawMessage {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return raw
}

// Payload - the union of fields used by the individual actions. Unused
// fields are omitted on the wire.
type Payload struct {
	Player *entity.Player `json:"player,omitempty"`
	Game   *entity.Game   `json:"game,omitempty"`
	Games  []entity.Game  `json:"games,omitempty"`
	GameID string         `json:"game_id,omitempty"`
	Name   string         `json:"name,omitempty"`
	Cell   *int           `json:"cell,omitempty"`
	Error  string         `json:"error,omitempty"`
}
