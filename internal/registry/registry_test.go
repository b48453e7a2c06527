package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridclash/tictactoe-backend/internal/apperror"
	"github.com/gridclash/tictactoe-backend/internal/entity"
)

func TestRegistry_CreateGame(t *testing.T) {
	t.Run("Creates a waiting game with the host on turn", func(t *testing.T) {
		reg := New()

		// When: a host creates a game
		game, err := reg.CreateGame("alice", "Friday match")

		// Then: the game waits for an opponent with an empty board
		require.NoError(t, err)
		assert.NotEmpty(t, game.ID)
		assert.Equal(t, "Friday match", game.FriendlyName)
		assert.Equal(t, "alice", game.HostPlayer)
		assert.Empty(t, game.GuestPlayer)
		assert.Equal(t, entity.StatusWaiting, game.Status)
		assert.Equal(t, "alice", game.Turn)
		assert.Equal(t, entity.Board{}, game.Board)
	})

	t.Run("Trims the friendly name", func(t *testing.T) {
		reg := New()

		game, err := reg.CreateGame("alice", "  spaced out  ")

		require.NoError(t, err)
		assert.Equal(t, "spaced out", game.FriendlyName)
	})

	t.Run("Silently truncates names longer than the limit", func(t *testing.T) {
		reg := New()

		// Given: a name well over the limit
		longName := strings.Repeat("x", entity.MaxFriendlyNameLength+20)

		game, err := reg.CreateGame("alice", longName)

		// Then: no error, the name is cut to the limit
		require.NoError(t, err)
		assert.Len(t, game.FriendlyName, entity.MaxFriendlyNameLength)
	})

	t.Run("Rejects a blank host id", func(t *testing.T) {
		reg := New()

		_, err := reg.CreateGame("   ", "Friday match")

		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("Rejects a blank friendly name", func(t *testing.T) {
		reg := New()

		_, err := reg.CreateGame("alice", "   ")

		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("Allocates unique ids under concurrent creates", func(t *testing.T) {
		reg := New()

		const n = 50

		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func(i int) {
				defer wg.Done()
				_, err := reg.CreateGame(fmt.Sprintf("host-%d", i), "race")
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		games := reg.GetAll()
		require.Len(t, games, n)

		seen := make(map[string]bool, n)
		for _, game := range games {
			assert.False(t, seen[game.ID], "duplicate game id %s", game.ID)
			seen[game.ID] = true
		}
	})
}

func TestRegistry_JoinGame(t *testing.T) {
	t.Run("Starts the game and keeps the host on turn", func(t *testing.T) {
		reg := New()
		created, err := reg.CreateGame("alice", "g1")
		require.NoError(t, err)

		// When: a distinct guest joins
		game, err := reg.JoinGame(created.ID, "bob")

		// Then: the game is in progress, the host still moves first
		require.NoError(t, err)
		assert.Equal(t, "bob", game.GuestPlayer)
		assert.Equal(t, entity.StatusOngoing, game.Status)
		assert.Equal(t, "alice", game.Turn)
	})

	t.Run("Fails with not found for an unknown game", func(t *testing.T) {
		reg := New()

		_, err := reg.JoinGame("missing", "bob")

		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("Rejects a blank guest id", func(t *testing.T) {
		reg := New()
		created, err := reg.CreateGame("alice", "g1")
		require.NoError(t, err)

		_, err = reg.JoinGame(created.ID, " ")

		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("Rejects joining a full game", func(t *testing.T) {
		reg := New()
		created, err := reg.CreateGame("alice", "g1")
		require.NoError(t, err)

		_, err = reg.JoinGame(created.ID, "bob")
		require.NoError(t, err)

		// When: a third player tries to join
		_, err = reg.JoinGame(created.ID, "carol")

		// Then: the game is full
		assert.ErrorIs(t, err, apperror.ErrGameFull)
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("Rejects joining a cancelled game", func(t *testing.T) {
		reg := New()
		created, err := reg.CreateGame("alice", "g1")
		require.NoError(t, err)
		_, err = reg.CancelGame(created.ID, "alice")
		require.NoError(t, err)

		// When: a guest tries to join after cancellation
		_, err = reg.JoinGame(created.ID, "bob")

		// Then: the game never restarts
		assert.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Rejects the host joining their own game", func(t *testing.T) {
		reg := New()
		created, err := reg.CreateGame("alice", "g1")
		require.NoError(t, err)

		// When: the host tries to join as guest
		_, err = reg.JoinGame(created.ID, "alice")

		// Then: the join is a conflict and the game keeps waiting
		assert.ErrorIs(t, err, apperror.ErrOwnGame)

		game, err := reg.GetGame(created.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusWaiting, game.Status)
		assert.Empty(t, game.GuestPlayer)
	})

	t.Run("Exactly one of two racing guests wins the seat", func(t *testing.T) {
		reg := New()
		created, err := reg.CreateGame("alice", "g1")
		require.NoError(t, err)

		errs := make(chan error, 2)

		var wg sync.WaitGroup
		wg.Add(2)
		for _, guest := range []string{"bob", "carol"} {
			go func(guest string) {
				defer wg.Done()
				_, joinErr := reg.JoinGame(created.ID, guest)
				errs <- joinErr
			}(guest)
		}
		wg.Wait()
		close(errs)

		var failures int
		for joinErr := range errs {
			if joinErr != nil {
				assert.ErrorIs(t, joinErr, apperror.ErrConflict)
				failures++
			}
		}
		assert.Equal(t, 1, failures)
	})
}

func TestRegistry_GetGame(t *testing.T) {
	t.Run("Returns a snapshot detached from stored state", func(t *testing.T) {
		reg := New()
		created, err := reg.CreateGame("alice", "g1")
		require.NoError(t, err)

		// When: the caller mutates the returned copy
		game, err := reg.GetGame(created.ID)
		require.NoError(t, err)
		game.Board[0] = entity.MarkX
		game.Status = entity.StatusFinished

		// Then: the stored game is untouched
		stored, err := reg.GetGame(created.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.EmptyCell, stored.Board[0])
		assert.Equal(t, entity.StatusWaiting, stored.Status)
	})

	t.Run("Fails with not found for an unknown game", func(t *testing.T) {
		reg := New()

		_, err := reg.GetGame("missing")

		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestRegistry_MakeMove(t *testing.T) {
	newOngoing := func(t *testing.T) (*Registry, entity.Game) {
		t.Helper()

		reg := New()
		created, err := reg.CreateGame("alice", "g1")
		require.NoError(t, err)
		game, err := reg.JoinGame(created.ID, "bob")
		require.NoError(t, err)

		return reg, game
	}

	t.Run("Rejects out-of-range cells without touching stored state", func(t *testing.T) {
		reg, game := newOngoing(t)

		for _, cell := range []int{-1, 9, 100} {
			_, err := reg.MakeMove(game.ID, "alice", cell)
			assert.ErrorIs(t, err, apperror.ErrInvalidCell)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		}

		stored, err := reg.GetGame(game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.Board{}, stored.Board)
		assert.Equal(t, "alice", stored.Turn)
	})

	t.Run("Rejects blank ids", func(t *testing.T) {
		reg, game := newOngoing(t)

		_, err := reg.MakeMove("", "alice", 0)
		assert.ErrorIs(t, err, apperror.ErrValidation)

		_, err = reg.MakeMove(game.ID, "  ", 0)
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("Fails with not found for an unknown game", func(t *testing.T) {
		reg := New()

		_, err := reg.MakeMove("missing", "alice", 0)

		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("Rejects moves before an opponent joined", func(t *testing.T) {
		reg := New()
		created, err := reg.CreateGame("alice", "g1")
		require.NoError(t, err)

		_, err = reg.MakeMove(created.ID, "alice", 0)

		assert.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
		assert.ErrorIs(t, err, apperror.ErrInvalidState)
	})

	t.Run("Rejects a non-participant", func(t *testing.T) {
		reg, game := newOngoing(t)

		_, err := reg.MakeMove(game.ID, "mallory", 0)

		assert.ErrorIs(t, err, apperror.ErrNotInGame)
	})

	t.Run("Rejects a move out of turn", func(t *testing.T) {
		reg, game := newOngoing(t)

		// When: the guest moves while it is the host's turn
		_, err := reg.MakeMove(game.ID, "bob", 0)

		// Then: the move is rejected and the board stays empty
		assert.ErrorIs(t, err, apperror.ErrNotYourTurn)

		stored, err := reg.GetGame(game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.Board{}, stored.Board)
	})

	t.Run("Rejects a move onto an occupied cell", func(t *testing.T) {
		reg, game := newOngoing(t)

		_, err := reg.MakeMove(game.ID, "alice", 0)
		require.NoError(t, err)

		// When: the guest targets the same cell
		_, err = reg.MakeMove(game.ID, "bob", 0)

		// Then: the cell is occupied and the stored mark is unchanged
		assert.ErrorIs(t, err, apperror.ErrCellOccupied)

		stored, err := reg.GetGame(game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.MarkX, stored.Board[0])
		assert.Equal(t, "bob", stored.Turn)
	})

	t.Run("Plays a full game to a host win", func(t *testing.T) {
		reg, game := newOngoing(t)

		// When: alice and bob alternate until alice completes the top row
		moves := []struct {
			player string
			cell   int
		}{
			{"alice", 0},
			{"bob", 4},
			{"alice", 1},
			{"bob", 5},
			{"alice", 2},
		}

		var final entity.Game
		var err error
		for _, move := range moves {
			final, err = reg.MakeMove(game.ID, move.player, move.cell)
			require.NoError(t, err, "move %+v", move)
		}

		// Then: alice wins with (0,1,2) and the game is finished
		assert.Equal(t, entity.StatusFinished, final.Status)
		assert.Equal(t, "alice", final.Winner)
		assert.Empty(t, final.Turn)
		assert.Equal(t, entity.MarkX, final.Board[0])
		assert.Equal(t, entity.MarkX, final.Board[1])
		assert.Equal(t, entity.MarkX, final.Board[2])
		assert.Equal(t, entity.MarkO, final.Board[4])
		assert.Equal(t, entity.MarkO, final.Board[5])

		// And: no further moves are accepted
		_, err = reg.MakeMove(game.ID, "bob", 8)
		assert.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Alternates the turn after each non-terminal move", func(t *testing.T) {
		reg, game := newOngoing(t)

		updated, err := reg.MakeMove(game.ID, "alice", 0)
		require.NoError(t, err)
		assert.Equal(t, "bob", updated.Turn)

		updated, err = reg.MakeMove(game.ID, "bob", 4)
		require.NoError(t, err)
		assert.Equal(t, "alice", updated.Turn)
	})

	t.Run("Plays a full game to a draw", func(t *testing.T) {
		reg, game := newOngoing(t)

		// When: nine legal moves fill the board without a line
		moves := []struct {
			player string
			cell   int
		}{
			{"alice", 0},
			{"bob", 1},
			{"alice", 2},
			{"bob", 4},
			{"alice", 3},
			{"bob", 5},
			{"alice", 7},
			{"bob", 6},
			{"alice", 8},
		}

		var final entity.Game
		var err error
		for _, move := range moves {
			final, err = reg.MakeMove(game.ID, move.player, move.cell)
			require.NoError(t, err, "move %+v", move)
		}

		// Then: the game is finished with no winner
		assert.Equal(t, entity.StatusFinished, final.Status)
		assert.Empty(t, final.Winner)
		assert.Empty(t, final.Turn)
		assert.True(t, final.Board.IsFull())
	})

	t.Run("Exactly one of two racing moves on the same cell lands", func(t *testing.T) {
		reg, game := newOngoing(t)

		type result struct {
			game entity.Game
			err  error
		}

		results := make(chan result, 2)

		var wg sync.WaitGroup
		wg.Add(2)
		for _, player := range []string{"alice", "bob"} {
			go func(player string) {
				defer wg.Done()
				updated, err := reg.MakeMove(game.ID, player, 0)
				results <- result{game: updated, err: err}
			}(player)
		}
		wg.Wait()
		close(results)

		var successes, failures int
		for res := range results {
			if res.err != nil {
				// losing either the turn race or the cell race
				assert.ErrorIs(t, res.err, apperror.ErrInvalidState)
				failures++
				continue
			}
			successes++
		}

		assert.Equal(t, 1, successes)
		assert.Equal(t, 1, failures)

		// Then: the cell holds a single mark and no winner was declared
		stored, err := reg.GetGame(game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.MarkX, stored.Board[0])
		assert.Empty(t, stored.Winner)
	})
}

func TestRegistry_CancelGame(t *testing.T) {
	t.Run("Host cancels a waiting game", func(t *testing.T) {
		reg := New()
		created, err := reg.CreateGame("alice", "g1")
		require.NoError(t, err)

		game, err := reg.CancelGame(created.ID, "alice")

		require.NoError(t, err)
		assert.Equal(t, entity.StatusFinished, game.Status)
		assert.Empty(t, game.Turn)
		assert.Empty(t, game.Winner)
	})

	t.Run("Guest cancels mid-game without fabricating a winner", func(t *testing.T) {
		reg := New()
		created, err := reg.CreateGame("alice", "g1")
		require.NoError(t, err)
		_, err = reg.JoinGame(created.ID, "bob")
		require.NoError(t, err)
		_, err = reg.MakeMove(created.ID, "alice", 0)
		require.NoError(t, err)

		// When: the guest cancels mid-game
		game, err := reg.CancelGame(created.ID, "bob")

		// Then: the board survives, no winner appears
		require.NoError(t, err)
		assert.Equal(t, entity.StatusFinished, game.Status)
		assert.Equal(t, entity.MarkX, game.Board[0])
		assert.Empty(t, game.Winner)

		// And: the game is gone from the live listings
		for _, g := range reg.GetAllNonFinished() {
			assert.NotEqual(t, created.ID, g.ID)
		}
		for _, g := range reg.GetWaitingForOpponent() {
			assert.NotEqual(t, created.ID, g.ID)
		}
	})

	t.Run("Rejects a non-participant", func(t *testing.T) {
		reg := New()
		created, err := reg.CreateGame("alice", "g1")
		require.NoError(t, err)

		_, err = reg.CancelGame(created.ID, "mallory")

		assert.ErrorIs(t, err, apperror.ErrForbidden)

		game, err := reg.GetGame(created.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusWaiting, game.Status)
	})

	t.Run("Rejects blank ids", func(t *testing.T) {
		reg := New()

		_, err := reg.CancelGame("", "alice")
		assert.ErrorIs(t, err, apperror.ErrValidation)

		_, err = reg.CancelGame("some-game", " ")
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("Fails with not found for an unknown game", func(t *testing.T) {
		reg := New()

		_, err := reg.CancelGame("missing", "alice")

		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestRegistry_Listings(t *testing.T) {
	t.Run("GetAll returns every game regardless of status", func(t *testing.T) {
		reg := New()

		waiting, err := reg.CreateGame("alice", "waiting")
		require.NoError(t, err)

		ongoing, err := reg.CreateGame("carol", "ongoing")
		require.NoError(t, err)
		_, err = reg.JoinGame(ongoing.ID, "dave")
		require.NoError(t, err)

		finished, err := reg.CreateGame("erin", "finished")
		require.NoError(t, err)
		_, err = reg.CancelGame(finished.ID, "erin")
		require.NoError(t, err)

		all := reg.GetAll()
		assert.Len(t, all, 3)

		nonFinished := reg.GetAllNonFinished()
		assert.Len(t, nonFinished, 2)
		for _, game := range nonFinished {
			assert.NotEqual(t, finished.ID, game.ID)
		}

		lobby := reg.GetWaitingForOpponent()
		require.Len(t, lobby, 1)
		assert.Equal(t, waiting.ID, lobby[0].ID)
	})

	t.Run("GetWaitingForOpponent is deterministically ordered", func(t *testing.T) {
		reg := New()

		var created []entity.Game
		for i := 0; i < 5; i++ {
			game, err := reg.CreateGame(fmt.Sprintf("host-%d", i), fmt.Sprintf("game-%d", i))
			require.NoError(t, err)
			created = append(created, game)
		}

		// Given: the expected order, creation time with id as tie-break
		sort.Slice(created, func(i, j int) bool {
			if created[i].CreatedAt.Equal(created[j].CreatedAt) {
				return created[i].ID < created[j].ID
			}
			return created[i].CreatedAt.Before(created[j].CreatedAt)
		})

		// Then: repeated listings return exactly that order
		for range [3]struct{}{} {
			lobby := reg.GetWaitingForOpponent()
			require.Len(t, lobby, len(created))
			for i := range created {
				assert.Equal(t, created[i].ID, lobby[i].ID)
			}
		}
	})
}
