package handlers

import (
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"gamehub/internal/lobby/protocol"
)

func (s *Server) requirePlayer(c *client, cmd string) (string, *protocol.Response) {
	username, ok := s.players.NameOf(c)
	if !ok {
		return "", protocol.Fail(cmd, protocol.ErrNotLoggedIn, "login required")
	}
	return username, nil
}

func (s *Server) requireDeveloper(c *client, cmd string) (string, *protocol.Response) {
	devname, ok := s.devs.NameOf(c)
	if !ok {
		return "", protocol.Fail(cmd, protocol.ErrNotLoggedIn, "developer login required")
	}
	return devname, nil
}

// requireAnyLogin admits both roles; catalog reads are open to players and
// developers alike.
func (s *Server) requireAnyLogin(c *client, cmd string) *protocol.Response {
	if _, ok := s.players.NameOf(c); ok {
		return nil
	}
	if _, ok := s.devs.NameOf(c); ok {
		return nil
	}
	return protocol.Fail(cmd, protocol.ErrNotLoggedIn, "login required")
}

// asInt64 coerces a decoded JSON value to an integer, accepting whole
// numbers and numeric strings the way the desktop clients send them.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func asInt(v any) (int, bool) {
	parsed, ok := asInt64(v)
	return int(parsed), ok
}

// dbFail logs a persistence failure and turns it into a DB_ERROR response.
func dbFail(cmd string, err error) *protocol.Response {
	slog.Error("persistence failure", "cmd", cmd, "err", err)
	return protocol.Fail(cmd, protocol.ErrDB, "storage error")
}
