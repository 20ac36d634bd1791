package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"gamehub/internal/lobby/metrics"
	"gamehub/internal/lobby/protocol"
	"gamehub/internal/lobby/session"
	"gamehub/internal/lobby/store"
)

func (s *Server) handlePlayerRegister(req *protocol.Request) *protocol.Response {
	return s.register(protocol.CmdPlayerRegister, req, s.store.CreatePlayer)
}

func (s *Server) handleDeveloperRegister(req *protocol.Request) *protocol.Response {
	return s.register(protocol.CmdDeveloperRegister, req, s.store.CreateDeveloper)
}

func (s *Server) register(cmd string, req *protocol.Request, create func(username, password, displayName string) error) *protocol.Response {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return protocol.Fail(cmd, protocol.ErrBadInput, "username and password are required")
	}
	displayName := req.DisplayName
	if displayName == "" {
		displayName = username
	}

	if err := create(username, req.Password, displayName); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return protocol.Fail(cmd, protocol.ErrUsernameTaken, "username already taken")
		}
		slog.Error("account creation failed", "cmd", cmd, "user", username, "err", err)
		return protocol.Fail(cmd, protocol.ErrInternal, "internal error")
	}
	slog.Info("account registered", "cmd", cmd, "user", username)
	return protocol.OKResp(cmd, "register success")
}

func (s *Server) handlePlayerLogin(c *client, req *protocol.Request) *protocol.Response {
	return s.login(protocol.CmdPlayerLogin, c, req, s.players, s.store.VerifyPlayerPassword, "player")
}

func (s *Server) handleDeveloperLogin(c *client, req *protocol.Request) *protocol.Response {
	return s.login(protocol.CmdDeveloperLogin, c, req, s.devs, s.store.VerifyDeveloperPassword, "developer")
}

func (s *Server) login(cmd string, c *client, req *protocol.Request, reg *session.Registry, verify func(username, password string) (bool, error), role string) *protocol.Response {
	username := strings.TrimSpace(req.Username)
	ok, err := verify(username, req.Password)
	if err != nil {
		return dbFail(cmd, err)
	}
	if !ok {
		return protocol.Fail(cmd, protocol.ErrInvalidCreds, "invalid username or password")
	}

	reg.Bind(username, c)
	metrics.Logins.WithLabelValues(role).Inc()
	slog.Info("login", "role", role, "user", username, "conn", c.id)
	return protocol.OKResp(cmd, "login success")
}
