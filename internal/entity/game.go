package entity

import "time"

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"

	MarkX = "X"
	MarkO = "O"

	EmptyCell = ""

	// MaxFriendlyNameLength - longer names are truncated silently on create.
	MaxFriendlyNameLength = 50
)

// Board - the 3x3 grid in row-major order, cells 0-8.
// It is a plain array, so assigning a Board (or a Game holding one) copies it.
type Board [9]string

// WithCell - returns a copy of the board with mark written into cell.
// The receiver is taken by value, the original board is never touched.
func (that Board) WithCell(cell int, mark string) Board {
	that[cell] = mark
	return that
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}
	return true
}

// Game - a single match between a host (always X) and a guest (always O).
// Game is a value type: the registry hands out copies, never live references.
type Game struct {
	ID           string    `json:"id"`
	FriendlyName string    `json:"friendly_name"`
	HostPlayer   string    `json:"host_player"`
	GuestPlayer  string    `json:"guest_player,omitempty"`
	Board        Board     `json:"board"`
	Status       string    `json:"status"`
	Turn         string    `json:"player_turn,omitempty"`
	Winner       string    `json:"winner,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewGame - a fresh waiting game; the host moves first.
func NewGame(id, friendlyName, hostPlayer string) Game {
	return Game{
		ID:           id,
		FriendlyName: friendlyName,
		HostPlayer:   hostPlayer,
		Board:        Board{},
		Status:       StatusWaiting,
		Turn:         hostPlayer,
		CreatedAt:    time.Now(),
	}
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) HasGuest() bool {
	return that.GuestPlayer != ""
}

// IsParticipant - player ids are opaque and compared by exact equality.
func (that *Game) IsParticipant(playerID string) bool {
	return playerID == that.HostPlayer || (that.HasGuest() && playerID == that.GuestPlayer)
}

// MarkOf - the mark bound to playerID for this game, or EmptyCell if the
// player is not a participant.
func (that *Game) MarkOf(playerID string) string {
	switch {
	case playerID == that.HostPlayer:
		return MarkX
	case that.HasGuest() && playerID == that.GuestPlayer:
		return MarkO
	default:
		return EmptyCell
	}
}

// PlayerOf - the participant bound to mark. Turn passing is keyed off marks,
// not id comparison, so colliding display names can never confuse it.
func (that *Game) PlayerOf(mark string) string {
	if mark == MarkX {
		return that.HostPlayer
	}
	return that.GuestPlayer
}
