package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"gamehub/internal/lobby/metrics"
	"gamehub/internal/lobby/protocol"
	"gamehub/internal/lobby/store"
)

func (s *Server) handleStartGame(c *client, req *protocol.Request) *protocol.Response {
	const cmd = protocol.CmdStartGame
	username, fail := s.requirePlayer(c, cmd)
	if fail != nil {
		return fail
	}
	roomID, ok := asInt64(req.RoomID)
	if !ok {
		return protocol.Fail(cmd, protocol.ErrBadInput, "room_id must be an integer")
	}

	room, ok := s.rooms.Get(roomID)
	if !ok || room.Host != username {
		return protocol.Fail(cmd, protocol.ErrNotHost, "only host can start")
	}
	members, err := s.rooms.Members(roomID)
	if err != nil {
		return protocol.Fail(cmd, protocol.ErrNoSuchRoom, fmt.Sprintf("room %d not found", roomID))
	}
	if len(members) < 2 {
		return protocol.Fail(cmd, protocol.ErrNotEnoughPlayers, "need at least 2 players")
	}

	game, err := s.store.GameByID(room.GameID)
	if err != nil {
		return dbFail(cmd, err)
	}
	latest, err := s.store.LatestActiveVersion(room.GameID)
	if errors.Is(err, store.ErrNotFound) {
		return protocol.Fail(cmd, protocol.ErrInternal, "game has no uploaded version")
	}
	if err != nil {
		return dbFail(cmd, err)
	}
	dev, err := s.store.DeveloperByID(game.DeveloperID)
	if err != nil {
		return dbFail(cmd, err)
	}

	versionDir := filepath.Join(s.gameStoreDir, dev.Username,
		fmt.Sprintf("%d_%s", game.ID, game.Name), "v"+latest.Version)
	gameHost, gamePort, err := s.games.Launch(versionDir, roomID)
	if err != nil {
		slog.Error("launching game server", "room", roomID, "dir", versionDir, "err", err)
		return protocol.Fail(cmd, protocol.ErrInternal, "failed to launch game server")
	}

	// each member gets a play-session row; that is what later makes them
	// eligible to rate the game
	for _, name := range members {
		player, err := s.store.PlayerByUsername(name)
		if err != nil {
			slog.Error("resolving member for play session", "user", name, "err", err)
			continue
		}
		if err := s.store.CreatePlaySession(player.ID, room.GameID); err != nil {
			slog.Error("recording play session", "user", name, "err", err)
		}
	}

	s.events.Broadcast(members, &protocol.Event{
		Cmd:         protocol.EvtGameStart,
		RoomID:      &roomID,
		GameID:      &room.GameID,
		GameHost:    gameHost,
		GamePort:    &gamePort,
		GameVersion: latest.Version,
		GameName:    game.Name,
		HostName:    username,
	})
	slog.Info("game started", "room", roomID, "game", game.Name, "port", gamePort)

	resp := protocol.OKResp(cmd, "game started")
	resp.RoomID = &roomID
	resp.GameHost = gameHost
	resp.GamePort = &gamePort
	return resp
}

func (s *Server) handleFinishGame(c *client, req *protocol.Request) *protocol.Response {
	const cmd = protocol.CmdFinishGame
	if _, fail := s.requirePlayer(c, cmd); fail != nil {
		return fail
	}
	roomID, ok := asInt64(req.RoomID)
	if !ok {
		return protocol.Fail(cmd, protocol.ErrBadInput, "room_id must be an integer")
	}

	row, err := s.store.RoomByID(roomID)
	if errors.Is(err, store.ErrNotFound) {
		return protocol.Fail(cmd, protocol.ErrNoSuchRoom, "room not found")
	}
	if err != nil {
		return dbFail(cmd, err)
	}

	_, tracked := s.rooms.Get(roomID)
	members := s.rooms.Remove(roomID)
	if tracked {
		metrics.OpenRooms.Dec()
	}
	for _, name := range members {
		player, err := s.store.PlayerByUsername(name)
		if err != nil {
			slog.Error("resolving member for session finish", "user", name, "err", err)
			continue
		}
		if err := s.store.FinishPlaySessions(player.ID, row.GameID); err != nil {
			slog.Error("finishing play sessions", "user", name, "err", err)
		}
	}

	s.games.Terminate(roomID)
	if err := s.store.DeleteRoom(roomID); err != nil {
		slog.Error("deleting room row", "room", roomID, "err", err)
	}
	slog.Info("game finished", "room", roomID)

	resp := protocol.OKResp(cmd, "room closed")
	resp.RoomID = &roomID
	return resp
}
