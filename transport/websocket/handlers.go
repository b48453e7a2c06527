package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/gridclash/tictactoe-backend/internal/entity"
	"github.com/gridclash/tictactoe-backend/internal/metrics"
	"github.com/gridclash/tictactoe-backend/internal/pkg"
	"github.com/gridclash/tictactoe-backend/internal/repository"
)

// handleConnect - binds a player identity to the connection. A client may
// present a previously issued id to resume its session; unknown or missing
// ids get a fresh identity.
func (that *Server) handleConnect(ctx context.Context, cl *client, msg *Message) error {
	log := that.logger.With("method", "handleConnect")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		return that.sendErrorResponse(cl, msg.Action, "malformed payload")
	}

	var presentedID, name string
	if payloadReq.Player != nil {
		presentedID = payloadReq.Player.ID
		name = payloadReq.Player.Name
	}

	player, err := that.resolvePlayer(ctx, presentedID, name)
	if err != nil {
		log.Error("failed to resolve player", "error", err)
		return that.sendErrorResponse(cl, msg.Action, "failed to resolve player")
	}

	that.register(cl, player.ID)

	log.Info("player connected", "playerID", player.ID)

	return cl.send(&Message{
		Action:  msg.Action,
		Payload: mustMarshalPayload(&Payload{Player: player}),
	})
}

func (that *Server) resolvePlayer(ctx context.Context, presentedID, name string) (*entity.Player, error) {
	if presentedID != "" {
		player, err := that.players.GetByID(ctx, presentedID)
		if err == nil {
			if name != "" && name != player.Name {
				player.Name = name
				if err = that.players.CreateOrUpdate(ctx, player); err != nil {
					return nil, fmt.Errorf("failed to update player: %w", err)
				}
			}
			return player, nil
		}

		if !errors.Is(err, repository.ErrPlayerNotFound) {
			return nil, fmt.Errorf("failed to get player: %w", err)
		}
	}

	// unknown or missing session, issue a new identity
	player := &entity.Player{
		ID:   pkg.GenerateNewSessionID(),
		Name: name,
	}

	if err := that.players.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

func (that *Server) handleCreateGame(_ context.Context, cl *client, msg *Message) error {
	log := that.logger.With("method", "handleCreateGame")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		return that.sendErrorResponse(cl, msg.Action, "malformed payload")
	}

	if cl.playerID == "" {
		return that.sendErrorResponse(cl, msg.Action, "connect first")
	}

	game, err := that.registry.CreateGame(cl.playerID, payloadReq.Name)
	if err != nil {
		log.Error("failed to create game", "error", err)
		return that.sendErrorResponse(cl, msg.Action, err.Error())
	}

	metrics.GamesCreated.Inc()
	that.updateActiveGames()

	log.Info("game created", "gameID", game.ID, "playerID", cl.playerID)

	if err = cl.send(&Message{
		Action:  msg.Action,
		Payload: mustMarshalPayload(&Payload{Game: &game}),
	}); err != nil {
		return err
	}

	that.broadcastLobby()

	return nil
}

func (that *Server) handleJoinGame(_ context.Context, cl *client, msg *Message) error {
	log := that.logger.With("method", "handleJoinGame")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		return that.sendErrorResponse(cl, msg.Action, "malformed payload")
	}

	if cl.playerID == "" {
		return that.sendErrorResponse(cl, msg.Action, "connect first")
	}

	game, err := that.registry.JoinGame(payloadReq.GameID, cl.playerID)
	if err != nil {
		log.Error("failed to join game", "gameID", payloadReq.GameID, "error", err)
		return that.sendErrorResponse(cl, msg.Action, err.Error())
	}

	log.Info("player joined game", "gameID", game.ID, "playerID", cl.playerID)

	that.broadcastGame(msg.Action, &game)
	that.broadcastLobby()

	return nil
}

func (that *Server) handleGameTurn(_ context.Context, cl *client, msg *Message) error {
	log := that.logger.With("method", "handleGameTurn")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		return that.sendErrorResponse(cl, msg.Action, "malformed payload")
	}

	if cl.playerID == "" {
		return that.sendErrorResponse(cl, msg.Action, "connect first")
	}

	if payloadReq.Cell == nil {
		return that.sendErrorResponse(cl, msg.Action, "cell is required")
	}

	game, err := that.registry.MakeMove(payloadReq.GameID, cl.playerID, *payloadReq.Cell)
	if err != nil {
		log.Error("failed to make turn", "gameID", payloadReq.GameID, "error", err)
		return that.sendErrorResponse(cl, msg.Action, err.Error())
	}

	metrics.MovesPlayed.Inc()
	if game.IsFinished() {
		metrics.GamesFinished.Inc()
		that.updateActiveGames()
	}

	that.broadcastGame(msg.Action, &game)

	return nil
}

func (that *Server) handleCancelGame(_ context.Context, cl *client, msg *Message) error {
	log := that.logger.With("method", "handleCancelGame")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		return that.sendErrorResponse(cl, msg.Action, "malformed payload")
	}

	if cl.playerID == "" {
		return that.sendErrorResponse(cl, msg.Action, "connect first")
	}

	game, err := that.registry.CancelGame(payloadReq.GameID, cl.playerID)
	if err != nil {
		log.Error("failed to cancel game", "gameID", payloadReq.GameID, "error", err)
		return that.sendErrorResponse(cl, msg.Action, err.Error())
	}

	metrics.GamesFinished.Inc()
	that.updateActiveGames()

	log.Info("game cancelled", "gameID", game.ID, "playerID", cl.playerID)

	that.broadcastGame(msg.Action, &game)
	that.broadcastLobby()

	return nil
}

// handleLobbySubscribe - marks the connection as a lobby watcher and sends
// it the current waiting list immediately.
func (that *Server) handleLobbySubscribe(_ context.Context, cl *client, msg *Message) error {
	that.connectionsMutex.Lock()
	that.lobbySubscribers[cl] = struct{}{}
	that.connectionsMutex.Unlock()

	return cl.send(&Message{
		Action:  msg.Action,
		Payload: mustMarshalPayload(&Payload{Games: that.registry.GetWaitingForOpponent()}),
	})
}

// broadcastGame - pushes the updated game to both participants. A missing
// connection is not an error; the player re-subscribes to current state on
// reconnect.
func (that *Server) broadcastGame(action string, game *entity.Game) {
	log := that.logger.With("method", "broadcastGame", "gameID", game.ID)

	participants := []string{game.HostPlayer}
	if game.HasGuest() {
		participants = append(participants, game.GuestPlayer)
	}

	for _, playerID := range participants {
		conn, ok := that.connectionByPlayerID(playerID)
		if !ok {
			log.Warn("connection not found for player", "playerID", playerID)
			continue
		}

		if err := conn.send(&Message{
			Action:  action,
			Payload: mustMarshalPayload(&Payload{Game: game}),
		}); err != nil {
			log.Error("failed to send game update", "playerID", playerID, "error", err)
		}
	}
}

// broadcastLobby - pushes the current waiting-game list to every lobby
// subscriber.
func (that *Server) broadcastLobby() {
	log := that.logger.With("method", "broadcastLobby")

	games := that.registry.GetWaitingForOpponent()

	that.connectionsMutex.RLock()
	subscribers := make([]*client, 0, len(that.lobbySubscribers))
	for cl := range that.lobbySubscribers {
		subscribers = append(subscribers, cl)
	}
	that.connectionsMutex.RUnlock()

	for _, cl := range subscribers {
		if err := cl.send(&Message{
			Action:  actionLobbyUpdate,
			Payload: mustMarshalPayload(&Payload{Games: games}),
		}); err != nil {
			log.Error("failed to send lobby update", "error", err)
		}
	}
}

// sendErrorResponse - reports a failure to the invoking connection only.
func (that *Server) sendErrorResponse(cl *client, action, errMsg string) error {
	return cl.send(&Message{
		Action:  action,
		Payload: mustMarshalPayload(&Payload{Error: errMsg}),
	})
}

func (that *Server) updateActiveGames() {
	metrics.ActiveGames.Set(float64(len(that.registry.GetAllNonFinished())))
}
