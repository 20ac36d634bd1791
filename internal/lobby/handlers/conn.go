package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"

	"gamehub/internal/lobby/metrics"
	"gamehub/internal/lobby/protocol"
	"gamehub/internal/lobby/rooms"
)

// client is one live connection. Writes are serialized by wmu because event
// broadcasts arrive from other connections' goroutines while the owning
// goroutine writes responses.
type client struct {
	id   string
	conn net.Conn
	wmu  sync.Mutex
}

func (c *client) ID() string { return c.id }

func (c *client) SendEvent(evt *protocol.Event) error {
	return c.send(evt)
}

func (c *client) Close() error { return c.conn.Close() }

func (c *client) send(v any) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return protocol.WriteMessage(c.conn, v)
}

// handleConn runs one connection's read-dispatch-write loop. Malformed input
// skips the iteration; only end-of-stream or a transport error ends the loop
// and triggers cleanup.
func (s *Server) handleConn(conn net.Conn) {
	c := &client{id: uuid.NewString(), conn: conn}
	slog.Info("client connected", "conn", c.id, "remote", conn.RemoteAddr())
	defer s.cleanup(c)

	reader := bufio.NewReader(conn)
	for {
		raw, err := protocol.ReadMessage(reader)
		if err != nil {
			if errors.Is(err, protocol.ErrMalformed) {
				slog.Warn("dropping malformed line", "conn", c.id, "err", err)
				continue
			}
			if err != io.EOF {
				slog.Debug("read failed", "conn", c.id, "err", err)
			}
			return
		}

		var req protocol.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			slog.Warn("dropping malformed request", "conn", c.id, "err", err)
			continue
		}

		resp := s.dispatch(c, &req)
		resp.ReqID = req.ReqID
		if err := c.send(resp); err != nil {
			slog.Debug("write failed", "conn", c.id, "err", err)
			return
		}
	}
}

// dispatch routes a request to exactly one handler. The command set is
// closed; anything else is answered with UNKNOWN_CMD.
func (s *Server) dispatch(c *client, req *protocol.Request) *protocol.Response {
	switch req.Cmd {
	case protocol.CmdPlayerRegister:
		return s.countCmd(req.Cmd, s.handlePlayerRegister(req))
	case protocol.CmdPlayerLogin:
		return s.countCmd(req.Cmd, s.handlePlayerLogin(c, req))
	case protocol.CmdDeveloperRegister:
		return s.countCmd(req.Cmd, s.handleDeveloperRegister(req))
	case protocol.CmdDeveloperLogin:
		return s.countCmd(req.Cmd, s.handleDeveloperLogin(c, req))
	case protocol.CmdCreateRoom:
		return s.countCmd(req.Cmd, s.handleCreateRoom(c, req))
	case protocol.CmdJoinRoom:
		return s.countCmd(req.Cmd, s.handleJoinRoom(c, req))
	case protocol.CmdLeaveRoom:
		return s.countCmd(req.Cmd, s.handleLeaveRoom(c, req))
	case protocol.CmdListRooms:
		return s.countCmd(req.Cmd, s.handleListRooms(c, req))
	case protocol.CmdRoomInfo:
		return s.countCmd(req.Cmd, s.handleRoomInfo(c, req))
	case protocol.CmdListGames:
		return s.countCmd(req.Cmd, s.handleListGames(c, req))
	case protocol.CmdDeveloperCreateGame:
		return s.countCmd(req.Cmd, s.handleDeveloperCreateGame(c, req))
	case protocol.CmdDeveloperListGames:
		return s.countCmd(req.Cmd, s.handleDeveloperListGames(c, req))
	case protocol.CmdDeveloperDeleteGame:
		return s.countCmd(req.Cmd, s.handleDeveloperDeleteGame(c, req))
	case protocol.CmdDeveloperCreateVer:
		return s.countCmd(req.Cmd, s.handleDeveloperCreateVersion(c, req))
	case protocol.CmdGetGameDetail:
		return s.countCmd(req.Cmd, s.handleGetGameDetail(c, req))
	case protocol.CmdAddRating:
		return s.countCmd(req.Cmd, s.handleAddRating(c, req))
	case protocol.CmdStartGame:
		return s.countCmd(req.Cmd, s.handleStartGame(c, req))
	case protocol.CmdFinishGame:
		return s.countCmd(req.Cmd, s.handleFinishGame(c, req))
	default:
		return protocol.Fail(req.Cmd, protocol.ErrUnknownCmd, fmt.Sprintf("unknown cmd: %s", req.Cmd))
	}
}

func (s *Server) countCmd(cmd string, resp *protocol.Response) *protocol.Response {
	metrics.Commands.WithLabelValues(cmd).Inc()
	return resp
}

// cleanup runs when a connection's loop exits, explicit disconnect and
// transport failure alike. If this connection still held a player session
// and that player was in a room, the departure follows exactly the
// leave_room branching, broadcasts included. An evicted connection (a newer
// login owns the identity now) tears down nothing beyond itself.
func (s *Server) cleanup(c *client) {
	c.conn.Close()

	if devname, ok := s.devs.UnbindConn(c); ok {
		slog.Info("developer disconnected", "conn", c.id, "dev", devname)
	}
	username, ok := s.players.UnbindConn(c)
	if !ok {
		slog.Info("client disconnected", "conn", c.id)
		return
	}
	slog.Info("player disconnected", "conn", c.id, "user", username)

	res, err := s.rooms.Leave(username)
	if err != nil {
		return // not in any room
	}
	s.afterLeave(username, res)
}

// afterLeave applies the side effects a departure has beyond the room
// manager: member notifications, the open-rooms gauge and the persisted row.
func (s *Server) afterLeave(username string, res rooms.LeaveResult) {
	if res.Closed {
		s.events.Broadcast(res.Remaining, &protocol.Event{
			Cmd:     protocol.EvtRoomClosed,
			RoomID:  &res.RoomID,
			Message: fmt.Sprintf("host %s left, room closed", res.Host),
		})
		metrics.OpenRooms.Dec()
		if err := s.store.DeleteRoom(res.RoomID); err != nil {
			slog.Error("deleting room row", "room", res.RoomID, "err", err)
		}
		return
	}
	s.events.Broadcast(res.Remaining, &protocol.Event{
		Cmd:     protocol.EvtRoomUpdate,
		RoomID:  &res.RoomID,
		Players: res.Remaining,
	})
}
