// Package metrics exposes the broker's operational counters on a side HTTP
// listener, scrape-ready for Prometheus.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lobby_connections_accepted_total",
		Help: "Total accepted client connections",
	})

	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lobby_logins_total",
		Help: "Successful logins by role",
	}, []string{"role"})

	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lobby_commands_total",
		Help: "Dispatched commands by name",
	}, []string{"cmd"})

	OpenRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lobby_open_rooms",
		Help: "Rooms currently open",
	})

	GamesRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lobby_game_processes",
		Help: "Game server processes currently tracked",
	})
)

// Serve exposes /metrics on addr. It blocks, so callers run it in its own
// goroutine; an empty addr disables metrics entirely.
func Serve(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server failed", "err", err)
	}
}
