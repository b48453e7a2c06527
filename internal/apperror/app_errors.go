package apperror

import (
	"errors"
	"fmt"
)

// Failure categories. Every error returned by the registry wraps exactly one
// of these, so callers can branch with errors.Is on the category or on one of
// the specific errors below.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrForbidden    = errors.New("forbidden")
)

var (
	ErrGameNotFound = fmt.Errorf("%w: game does not exist", ErrNotFound)

	ErrGameFull = fmt.Errorf("%w: game already has a guest", ErrConflict)
	ErrOwnGame  = fmt.Errorf("%w: cannot join your own game", ErrConflict)

	ErrGameIsNotStarted = fmt.Errorf("%w: game is not started", ErrInvalidState)
	ErrGameFinished     = fmt.Errorf("%w: game is already finished", ErrInvalidState)
	ErrNotYourTurn      = fmt.Errorf("%w: it's not your turn", ErrInvalidState)
	ErrCellOccupied     = fmt.Errorf("%w: cell is already occupied", ErrInvalidState)
	ErrNotInGame        = fmt.Errorf("%w: player is not in this game", ErrInvalidState)

	ErrNotParticipant = fmt.Errorf("%w: player is not a participant of this game", ErrForbidden)

	ErrInvalidCell = fmt.Errorf("%w: invalid cell index", ErrValidation)
)
