// Package handlers wires the broker together: the TCP listener, the
// per-connection read/dispatch/write loop, and the command handlers that
// touch the session registries, room manager, process supervisor and the
// persistence gateway.
package handlers

import (
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"

	"gamehub/internal/lobby/gameproc"
	"gamehub/internal/lobby/metrics"
	"gamehub/internal/lobby/protocol"
	"gamehub/internal/lobby/rooms"
	"gamehub/internal/lobby/session"
	"gamehub/internal/lobby/store"
)

type Server struct {
	ListenAddr string

	store        store.Store
	players      *session.Registry
	devs         *session.Registry
	events       *session.Broadcaster
	rooms        *rooms.Manager
	games        *gameproc.Supervisor
	gameStoreDir string

	ln      net.Listener
	closing atomic.Bool
}

func NewServer(addr, gameStoreDir string, st store.Store, sup *gameproc.Supervisor) *Server {
	players := session.NewRegistry("player")
	return &Server{
		ListenAddr:   addr,
		store:        st,
		players:      players,
		devs:         session.NewRegistry("developer"),
		events:       session.NewBroadcaster(players),
		rooms:        rooms.NewManager(),
		games:        sup,
		gameStoreDir: gameStoreDir,
	}
}

// Listen binds the TCP listener without accepting yet.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.ListenAddr, err)
	}
	s.ln = ln
	slog.Info("lobby listening", "addr", ln.Addr())
	return nil
}

// Addr is the bound listen address, useful when ListenAddr asked for port 0.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.ListenAddr
}

// ListenAndServe accepts connections until Shutdown closes the listener,
// spawning one goroutine per connection.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Serve runs the accept loop on an already bound listener.
func (s *Server) Serve() error {
	ln := s.ln
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closing.Load() {
				return nil
			}
			slog.Warn("accept failed", "err", err)
			continue
		}
		metrics.ConnectionsAccepted.Inc()
		go s.handleConn(conn)
	}
}

// Shutdown stops accepting, tells every live session the server is going
// away, closes their connections and terminates tracked game processes.
// All of it is best-effort.
func (s *Server) Shutdown() {
	if !s.closing.CompareAndSwap(false, true) {
		return
	}
	slog.Info("lobby shutting down")

	evt := &protocol.Event{Cmd: protocol.EvtServerShutdown, Message: "Server shutting down"}
	for _, reg := range []*session.Registry{s.players, s.devs} {
		for _, c := range reg.Conns() {
			if err := c.SendEvent(evt); err != nil {
				slog.Debug("shutdown notice failed", "conn", c.ID(), "err", err)
			}
			c.Close()
		}
	}

	s.games.Shutdown()
	if s.ln != nil {
		s.ln.Close()
	}
}
