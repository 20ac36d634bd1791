package handlers

import (
	"errors"

	"gamehub/internal/lobby/protocol"
	"gamehub/internal/lobby/store"
)

func (s *Server) handleAddRating(c *client, req *protocol.Request) *protocol.Response {
	const cmd = protocol.CmdAddRating
	username, fail := s.requirePlayer(c, cmd)
	if fail != nil {
		return fail
	}

	gameID, ok := asInt64(req.GameID)
	if !ok {
		return protocol.Fail(cmd, protocol.ErrBadInput, "game_id must be an integer")
	}
	score, ok := asInt(req.Score)
	if !ok {
		return protocol.Fail(cmd, protocol.ErrBadInput, "score must be an integer")
	}
	if score < 1 || score > 5 {
		return protocol.Fail(cmd, protocol.ErrBadInput, "score must be 1-5")
	}

	player, err := s.store.PlayerByUsername(username)
	if errors.Is(err, store.ErrNotFound) {
		return protocol.Fail(cmd, protocol.ErrNoSuchPlayer, "player not found")
	}
	if err != nil {
		return dbFail(cmd, err)
	}

	played, err := s.store.HasFinished(player.ID, gameID)
	if err != nil {
		return dbFail(cmd, err)
	}
	if !played {
		return protocol.Fail(cmd, protocol.ErrNotPlayed, "play the game before rating it")
	}

	if err := s.store.AddRating(player.ID, gameID, score, req.Comment); err != nil {
		return dbFail(cmd, err)
	}
	ratings, err := s.store.RatingsForGame(gameID)
	if err != nil {
		return dbFail(cmd, err)
	}

	resp := protocol.OKResp(cmd, "rating added")
	resp.GameID = &gameID
	resp.Ratings = toProtocolRatings(ratings)
	return resp
}
