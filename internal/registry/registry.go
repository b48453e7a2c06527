package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gridclash/tictactoe-backend/internal/apperror"
	"github.com/gridclash/tictactoe-backend/internal/entity"
	"github.com/gridclash/tictactoe-backend/internal/pkg"
	"github.com/gridclash/tictactoe-backend/internal/tictactoe"
)

// Registry - the authoritative in-memory store of active games. A single
// RWMutex guards the map; every mutation replaces the stored Game value
// whole, so readers only ever see complete snapshots. The lock is never held
// across anything but in-memory work.
//
// All returned Games are copies. Mutating a returned value has no effect on
// the stored state.
type Registry struct {
	mu    sync.RWMutex
	games map[string]entity.Game
}

func New() *Registry {
	return &Registry{
		games: make(map[string]entity.Game),
	}
}

// CreateGame - registers a new waiting game hosted by hostPlayer. The
// friendly name is trimmed and silently truncated to
// entity.MaxFriendlyNameLength characters.
func (that *Registry) CreateGame(hostPlayer, friendlyName string) (entity.Game, error) {
	if isBlank(hostPlayer) {
		return entity.Game{}, fmt.Errorf("%w: host player id is blank", apperror.ErrValidation)
	}

	name := strings.TrimSpace(friendlyName)
	if name == "" {
		return entity.Game{}, fmt.Errorf("%w: friendly name is blank", apperror.ErrValidation)
	}

	if runes := []rune(name); len(runes) > entity.MaxFriendlyNameLength {
		name = string(runes[:entity.MaxFriendlyNameLength])
	}

	game := entity.NewGame(pkg.GenerateGameID(), name, hostPlayer)

	that.mu.Lock()
	that.games[game.ID] = game
	that.mu.Unlock()

	return game, nil
}

// JoinGame - seats guestPlayer as O and starts the game. The host keeps the
// first move. Joining your own game is rejected with a conflict.
func (that *Registry) JoinGame(gameID, guestPlayer string) (entity.Game, error) {
	if isBlank(guestPlayer) {
		return entity.Game{}, fmt.Errorf("%w: guest player id is blank", apperror.ErrValidation)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[gameID]
	if !ok {
		return entity.Game{}, fmt.Errorf("%w: id %s", apperror.ErrGameNotFound, gameID)
	}

	if game.IsFinished() {
		return entity.Game{}, apperror.ErrGameFinished
	}

	if game.HasGuest() {
		return entity.Game{}, fmt.Errorf("%w: id %s", apperror.ErrGameFull, gameID)
	}

	if guestPlayer == game.HostPlayer {
		return entity.Game{}, apperror.ErrOwnGame
	}

	game.GuestPlayer = guestPlayer
	game.Status = entity.StatusOngoing
	that.games[gameID] = game

	return game, nil
}

// GetGame - a read-only snapshot of a single game.
func (that *Registry) GetGame(gameID string) (entity.Game, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	game, ok := that.games[gameID]
	if !ok {
		return entity.Game{}, fmt.Errorf("%w: id %s", apperror.ErrGameNotFound, gameID)
	}

	return game, nil
}

// MakeMove - applies player's move to cell and stores the resulting game.
// The read-check-write runs under one critical section, so two racing moves
// on the same cell can never both land.
func (that *Registry) MakeMove(gameID, player string, cell int) (entity.Game, error) {
	if isBlank(gameID) {
		return entity.Game{}, fmt.Errorf("%w: game id is blank", apperror.ErrValidation)
	}

	if isBlank(player) {
		return entity.Game{}, fmt.Errorf("%w: player id is blank", apperror.ErrValidation)
	}

	if cell < 0 || cell > 8 {
		return entity.Game{}, fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[gameID]
	if !ok {
		return entity.Game{}, fmt.Errorf("%w: id %s", apperror.ErrGameNotFound, gameID)
	}

	if game.IsFinished() {
		return entity.Game{}, apperror.ErrGameFinished
	}

	if game.IsWaiting() || !game.HasGuest() {
		return entity.Game{}, apperror.ErrGameIsNotStarted
	}

	mark := game.MarkOf(player)
	if mark == entity.EmptyCell {
		return entity.Game{}, apperror.ErrNotInGame
	}

	if game.Turn != player {
		return entity.Game{}, apperror.ErrNotYourTurn
	}

	if game.Board[cell] != entity.EmptyCell {
		return entity.Game{}, apperror.ErrCellOccupied
	}

	board, outcome := tictactoe.Apply(game.Board, cell, mark)
	game.Board = board

	switch outcome {
	case entity.MarkX, entity.MarkO:
		game.Winner = game.PlayerOf(outcome)
		game.Status = entity.StatusFinished
		game.Turn = ""
	case tictactoe.Tie:
		game.Status = entity.StatusFinished
		game.Turn = ""
	default:
		game.Turn = game.PlayerOf(tictactoe.ToggleMark(mark))
	}

	that.games[gameID] = game

	return game, nil
}

// CancelGame - forces the game to finished regardless of its prior status.
// Board and winner are left as they were, so a cancelled game never
// fabricates a result. Only a participant may cancel.
func (that *Registry) CancelGame(gameID, player string) (entity.Game, error) {
	if isBlank(gameID) {
		return entity.Game{}, fmt.Errorf("%w: game id is blank", apperror.ErrValidation)
	}

	if isBlank(player) {
		return entity.Game{}, fmt.Errorf("%w: player id is blank", apperror.ErrValidation)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[gameID]
	if !ok {
		return entity.Game{}, fmt.Errorf("%w: id %s", apperror.ErrGameNotFound, gameID)
	}

	if !game.IsParticipant(player) {
		return entity.Game{}, apperror.ErrNotParticipant
	}

	game.Status = entity.StatusFinished
	game.Turn = ""
	that.games[gameID] = game

	return game, nil
}

// GetAll - snapshot of every game regardless of status, in no particular
// order.
func (that *Registry) GetAll() []entity.Game {
	that.mu.RLock()
	defer that.mu.RUnlock()

	games := make([]entity.Game, 0, len(that.games))
	for _, game := range that.games {
		games = append(games, game)
	}

	return games
}

// GetAllNonFinished - snapshot of every waiting or ongoing game.
func (that *Registry) GetAllNonFinished() []entity.Game {
	that.mu.RLock()
	defer that.mu.RUnlock()

	games := make([]entity.Game, 0, len(that.games))
	for _, game := range that.games {
		if !game.IsFinished() {
			games = append(games, game)
		}
	}

	return games
}

// GetWaitingForOpponent - the lobby view: games still waiting for a guest,
// sorted by creation time with the game id as tie-break so the order is
// stable for consumers.
func (that *Registry) GetWaitingForOpponent() []entity.Game {
	that.mu.RLock()

	games := make([]entity.Game, 0, len(that.games))
	for _, game := range that.games {
		if game.IsWaiting() {
			games = append(games, game)
		}
	}

	that.mu.RUnlock()

	sort.Slice(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].ID < games[j].ID
		}
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})

	return games
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
