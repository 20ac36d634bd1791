package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"gamehub/internal/lobby/metrics"
	"gamehub/internal/lobby/protocol"
	"gamehub/internal/lobby/rooms"
	"gamehub/internal/lobby/store"
)

func (s *Server) handleCreateRoom(c *client, req *protocol.Request) *protocol.Response {
	const cmd = protocol.CmdCreateRoom
	username, fail := s.requirePlayer(c, cmd)
	if fail != nil {
		return fail
	}

	gameID, ok := asInt64(req.GameID)
	if !ok {
		return protocol.Fail(cmd, protocol.ErrBadInput, "game_id must be an integer")
	}
	game, err := s.store.GameByID(gameID)
	if errors.Is(err, store.ErrNotFound) {
		return protocol.Fail(cmd, protocol.ErrNoSuchGame, fmt.Sprintf("game %d not found", gameID))
	}
	if err != nil {
		return dbFail(cmd, err)
	}
	if game.Status != store.GameActive {
		return protocol.Fail(cmd, protocol.ErrGameNotActive,
			"owner of the game deleted this game, you cannot create the room")
	}
	// capacity comes from the catalog entry, never from the client
	if game.MaxPlayers <= 0 {
		return protocol.Fail(cmd, protocol.ErrBadInput, "max_players must be > 0")
	}

	host, err := s.store.PlayerByUsername(username)
	if errors.Is(err, store.ErrNotFound) {
		return protocol.Fail(cmd, protocol.ErrNoSuchPlayer, "player not found")
	}
	if err != nil {
		return dbFail(cmd, err)
	}

	roomID, err := s.store.CreateRoom(host.ID, gameID, game.MaxPlayers, game.Name)
	if err != nil {
		return dbFail(cmd, err)
	}
	s.rooms.Create(rooms.Room{
		ID:         roomID,
		Host:       username,
		GameID:     gameID,
		GameName:   game.Name,
		MaxPlayers: game.MaxPlayers,
	})
	metrics.OpenRooms.Inc()
	slog.Info("room created", "room", roomID, "host", username, "game", game.Name)

	resp := protocol.OKResp(cmd, "room created")
	resp.RoomID = &roomID
	resp.GameID = &gameID
	resp.MaxPlayers = &game.MaxPlayers
	return resp
}

func (s *Server) handleJoinRoom(c *client, req *protocol.Request) *protocol.Response {
	const cmd = protocol.CmdJoinRoom
	username, fail := s.requirePlayer(c, cmd)
	if fail != nil {
		return fail
	}

	roomID, ok := asInt64(req.RoomID)
	if !ok {
		return protocol.Fail(cmd, protocol.ErrBadInput, "room_id must be an integer")
	}
	players, err := s.rooms.Join(roomID, username)
	if errors.Is(err, rooms.ErrNoSuchRoom) {
		return protocol.Fail(cmd, protocol.ErrNoSuchRoom, fmt.Sprintf("room %d not found", roomID))
	}
	if errors.Is(err, rooms.ErrRoomFull) {
		return protocol.Fail(cmd, protocol.ErrRoomFull, fmt.Sprintf("room %d is full, please join another room", roomID))
	}

	// everyone already present learns about the newcomer; the joiner gets
	// the roster in the synchronous response instead
	var others []string
	for _, name := range players {
		if name != username {
			others = append(others, name)
		}
	}
	s.events.Broadcast(others, &protocol.Event{
		Cmd:     protocol.EvtRoomUpdate,
		RoomID:  &roomID,
		Players: players,
	})

	resp := protocol.OKResp(cmd, "joined room")
	resp.RoomID = &roomID
	resp.Players = players
	return resp
}

func (s *Server) handleLeaveRoom(c *client, req *protocol.Request) *protocol.Response {
	const cmd = protocol.CmdLeaveRoom
	username, fail := s.requirePlayer(c, cmd)
	if fail != nil {
		return fail
	}

	res, err := s.rooms.Leave(username)
	if errors.Is(err, rooms.ErrNotInRoom) {
		return protocol.Fail(cmd, protocol.ErrNotInRoom, "you are not in any room")
	}
	s.afterLeave(username, res)

	message := "left room"
	if res.Closed {
		message = "left room as host, room closed"
	}
	resp := protocol.OKResp(cmd, message)
	resp.RoomID = &res.RoomID
	return resp
}

func (s *Server) handleListRooms(c *client, req *protocol.Request) *protocol.Response {
	const cmd = protocol.CmdListRooms
	if _, fail := s.requirePlayer(c, cmd); fail != nil {
		return fail
	}

	open := s.rooms.ListOpen()
	summaries := make([]protocol.RoomSummary, 0, len(open))
	for _, r := range open {
		summaries = append(summaries, protocol.RoomSummary{
			RoomID:         r.ID,
			Host:           r.Host,
			GameName:       r.GameName,
			GameID:         r.GameID,
			CurrentPlayers: len(r.Players),
			MaxPlayers:     r.MaxPlayers,
			Status:         r.Status,
		})
	}
	resp := protocol.OKResp(cmd, "")
	resp.Rooms = summaries
	return resp
}

func (s *Server) handleRoomInfo(c *client, req *protocol.Request) *protocol.Response {
	const cmd = protocol.CmdRoomInfo
	if _, fail := s.requirePlayer(c, cmd); fail != nil {
		return fail
	}

	roomID, ok := asInt64(req.RoomID)
	if !ok {
		return protocol.Fail(cmd, protocol.ErrBadInput, "room_id must be an integer")
	}
	players, err := s.rooms.Members(roomID)
	if err != nil {
		return protocol.Fail(cmd, protocol.ErrNoSuchRoom, fmt.Sprintf("room %d not found", roomID))
	}
	resp := protocol.OKResp(cmd, "")
	resp.RoomID = &roomID
	resp.Players = players
	return resp
}
