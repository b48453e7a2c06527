package rest

import (
	"encoding/json"
	"net/http"
)

func pingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

// gamesHandler - the lobby view over plain HTTP: every game still waiting
// for an opponent, in creation order.
func gamesHandler(games gameLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(games.GetWaitingForOpponent()); err != nil {
			http.Error(w, "failed to encode games", http.StatusInternalServerError)
		}
	}
}
