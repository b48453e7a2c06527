package entity

// Player - a session identity resolved by the transport layer. The id is
// opaque; games reference players by id only.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}
