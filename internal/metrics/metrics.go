package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters are bumped by the transport layer only; the registry itself never
// calls outward.
var (
	GamesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tictactoe_games_created_total",
		Help: "Number of games created.",
	})

	GamesFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tictactoe_games_finished_total",
		Help: "Number of games that reached a terminal state, cancellations included.",
	})

	MovesPlayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tictactoe_moves_played_total",
		Help: "Number of successfully applied moves.",
	})

	ActiveGames = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tictactoe_active_games",
		Help: "Games currently waiting or in progress.",
	})
)
