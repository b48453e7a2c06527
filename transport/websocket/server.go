package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gridclash/tictactoe-backend/internal/entity"
)

const (
	actionConnect        = "connect"
	actionGameCreate     = "game:create"
	actionGameJoin       = "game:join"
	actionGameTurn       = "game:turn"
	actionGameCancel     = "game:cancel"
	actionLobbySubscribe = "lobby:subscribe"
	actionLobbyUpdate    = "lobby:update"
)

type gameRegistry interface {
	CreateGame(hostPlayer, friendlyName string) (entity.Game, error)
	JoinGame(gameID, guestPlayer string) (entity.Game, error)
	GetGame(gameID string) (entity.Game, error)
	MakeMove(gameID, player string, cell int) (entity.Game, error)
	CancelGame(gameID, player string) (entity.Game, error)
	GetAllNonFinished() []entity.Game
	GetWaitingForOpponent() []entity.Game
}

type playerRepository interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

// client - one websocket connection. gorilla allows a single concurrent
// writer, so every write goes through the mutex.
type client struct {
	conn *websocket.Conn

	writeMu  sync.Mutex
	playerID string
}

func (that *client) send(msg *Message) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := that.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

type Server struct {
	logger   *slog.Logger
	registry gameRegistry
	players  playerRepository

	upgrader websocket.Upgrader

	connectionsMutex sync.RWMutex
	connections      map[string]*client
	lobbySubscribers map[*client]struct{}

	handlers map[string]func(ctx context.Context, cl *client, message *Message) error
}

func New(logger *slog.Logger, registry gameRegistry, players playerRepository) *Server {
	server := &Server{
		logger:   logger,
		registry: registry,
		players:  players,

		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},

		connections:      make(map[string]*client),
		lobbySubscribers: make(map[*client]struct{}),

		handlers: make(map[string]func(context.Context, *client, *Message) error),
	}

	server.handlers[actionConnect] = server.handleConnect
	server.handlers[actionGameCreate] = server.handleCreateGame
	server.handlers[actionGameJoin] = server.handleJoinGame
	server.handlers[actionGameTurn] = server.handleGameTurn
	server.handlers[actionGameCancel] = server.handleCancelGame
	server.handlers[actionLobbySubscribe] = server.handleLobbySubscribe

	return server
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveConnection - upgrades the connection and processes its messages until
// it closes.
func (that *Server) serveConnection(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	cl := &client{conn: conn}

	defer func() {
		that.unregister(cl)
		_ = conn.Close()
	}()

	log.Info("WebSocket connection established")

	if err = that.handleMessages(ctx, cl); err != nil {
		log.Debug("connection closed", "error", err)
	}
}

// handleMessages - reads and dispatches messages from a single client.
// Malformed frames and handler failures are reported to the sender only;
// they never terminate the connection.
func (that *Server) handleMessages(ctx context.Context, cl *client) error {
	log := that.logger.With("method", "handleMessages")

	for {
		var message Message
		if err := cl.conn.ReadJSON(&message); err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)

			if err := that.sendErrorResponse(cl, message.Action, "unknown action"); err != nil {
				return err
			}
			continue
		}

		if err := handler(ctx, cl, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// unregister - drops the client from the connection and lobby maps.
func (that *Server) unregister(cl *client) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	if cl.playerID != "" && that.connections[cl.playerID] == cl {
		delete(that.connections, cl.playerID)
	}

	delete(that.lobbySubscribers, cl)
}

func (that *Server) register(cl *client, playerID string) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	cl.playerID = playerID
	that.connections[playerID] = cl
}

func (that *Server) connectionByPlayerID(playerID string) (*client, bool) {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	cl, ok := that.connections[playerID]

	return cl, ok
}

func decodePayload(message *Message) (*Payload, error) {
	var payload Payload

	if len(message.Payload) == 0 {
		return &payload, nil
	}

	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return &payload, nil
}
