package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gamehub/internal/lobby/protocol"
	"gamehub/internal/lobby/store"
)

func (s *Server) handleListGames(c *client, req *protocol.Request) *protocol.Response {
	const cmd = protocol.CmdListGames
	if fail := s.requireAnyLogin(c, cmd); fail != nil {
		return fail
	}

	games, err := s.store.ListActiveGames()
	if err != nil {
		return dbFail(cmd, err)
	}
	summaries := make([]protocol.GameSummary, 0, len(games))
	for _, g := range games {
		summaries = append(summaries, s.summarize(g))
	}
	resp := protocol.OKResp(cmd, "")
	resp.Games = summaries
	return resp
}

// summarize folds a catalog entry and its latest active version into one
// list row. A game without uploads simply has no version fields.
func (s *Server) summarize(g store.Game) protocol.GameSummary {
	summary := protocol.GameSummary{
		GameID:          g.ID,
		GameName:        g.Name,
		GameDescription: g.Description,
		MaxPlayers:      g.MaxPlayers,
	}
	latest, err := s.store.LatestActiveVersion(g.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("resolving latest version", "game", g.ID, "err", err)
		}
		return summary
	}
	summary.LatestVersion = latest.Version
	summary.LatestVersionID = &latest.ID
	summary.UploadPath = latest.UploadPath
	return summary
}

func (s *Server) handleDeveloperCreateGame(c *client, req *protocol.Request) *protocol.Response {
	const cmd = protocol.CmdDeveloperCreateGame
	devname, fail := s.requireDeveloper(c, cmd)
	if fail != nil {
		return fail
	}

	name := strings.TrimSpace(req.GameName)
	if name == "" {
		return protocol.Fail(cmd, protocol.ErrBadInput, "game_name is required")
	}
	maxPlayers, ok := asInt(req.MaxPlayers)
	if !ok {
		return protocol.Fail(cmd, protocol.ErrBadInput, "max_players must be an integer")
	}

	dev, err := s.store.DeveloperByUsername(devname)
	if errors.Is(err, store.ErrNotFound) {
		return protocol.Fail(cmd, protocol.ErrNoSuchDev, "developer not found")
	}
	if err != nil {
		return dbFail(cmd, err)
	}

	gameID, err := s.store.CreateGame(dev.ID, name, strings.TrimSpace(req.GameDesc), maxPlayers)
	if err != nil {
		return dbFail(cmd, err)
	}
	slog.Info("game created", "game", gameID, "name", name, "dev", devname)

	resp := protocol.OKResp(cmd, "game created; please upload first version")
	resp.GameID = &gameID
	resp.GameName = name
	return resp
}

func (s *Server) handleDeveloperListGames(c *client, req *protocol.Request) *protocol.Response {
	const cmd = protocol.CmdDeveloperListGames
	devname, fail := s.requireDeveloper(c, cmd)
	if fail != nil {
		return fail
	}

	dev, err := s.store.DeveloperByUsername(devname)
	if errors.Is(err, store.ErrNotFound) {
		return protocol.Fail(cmd, protocol.ErrNoSuchDev, "developer not found")
	}
	if err != nil {
		return dbFail(cmd, err)
	}
	games, err := s.store.ListGamesByDeveloper(dev.ID)
	if err != nil {
		return dbFail(cmd, err)
	}
	summaries := make([]protocol.GameSummary, 0, len(games))
	for _, g := range games {
		summaries = append(summaries, s.summarize(g))
	}
	resp := protocol.OKResp(cmd, "")
	resp.Games = summaries
	return resp
}

// ownedGame resolves a game and checks the calling developer owns it.
func (s *Server) ownedGame(cmd, devname string, gameID int64) (*store.Game, *protocol.Response) {
	game, err := s.store.GameByID(gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, protocol.Fail(cmd, protocol.ErrNoSuchGame, fmt.Sprintf("game %d not found", gameID))
	}
	if err != nil {
		return nil, dbFail(cmd, err)
	}
	dev, err := s.store.DeveloperByUsername(devname)
	if err != nil || game.DeveloperID != dev.ID {
		return nil, protocol.Fail(cmd, protocol.ErrNotOwner, "you are not the developer of this game")
	}
	return game, nil
}

func (s *Server) handleDeveloperDeleteGame(c *client, req *protocol.Request) *protocol.Response {
	const cmd = protocol.CmdDeveloperDeleteGame
	devname, fail := s.requireDeveloper(c, cmd)
	if fail != nil {
		return fail
	}
	gameID, ok := asInt64(req.GameID)
	if !ok {
		return protocol.Fail(cmd, protocol.ErrBadInput, "game_id must be an integer")
	}
	game, fail := s.ownedGame(cmd, devname, gameID)
	if fail != nil {
		return fail
	}

	if err := s.store.MarkGameDeleted(game.ID); err != nil {
		return dbFail(cmd, err)
	}
	if err := s.store.DeactivateVersions(game.ID); err != nil {
		return dbFail(cmd, err)
	}
	slog.Info("game soft-deleted", "game", game.ID, "dev", devname)

	resp := protocol.OKResp(cmd, "game marked as deleted")
	resp.GameID = &gameID
	return resp
}

func (s *Server) handleDeveloperCreateVersion(c *client, req *protocol.Request) *protocol.Response {
	const cmd = protocol.CmdDeveloperCreateVer
	devname, fail := s.requireDeveloper(c, cmd)
	if fail != nil {
		return fail
	}
	gameID, ok := asInt64(req.GameID)
	if !ok {
		return protocol.Fail(cmd, protocol.ErrBadInput, "game_id must be an integer")
	}
	version := strings.TrimSpace(req.GameVersion)
	if version == "" {
		return protocol.Fail(cmd, protocol.ErrBadInput, "game_version required")
	}
	game, fail := s.ownedGame(cmd, devname, gameID)
	if fail != nil {
		return fail
	}

	// the archive itself travels over the file-transfer channel; the broker
	// only reserves the path and records the metadata
	uploadPath := fmt.Sprintf("game_store/%s/%d_%s/v%s.zip", devname, game.ID, game.Name, version)

	// a new upload also revives a soft-deleted game and its version history
	if err := s.store.MarkGameActive(game.ID); err != nil {
		return dbFail(cmd, err)
	}
	if err := s.store.ActivateVersions(game.ID); err != nil {
		return dbFail(cmd, err)
	}
	versionID, err := s.store.CreateVersion(game.ID, version, req.Changelog, uploadPath)
	if err != nil {
		return dbFail(cmd, err)
	}
	slog.Info("version recorded", "game", game.ID, "version", version, "dev", devname)

	resp := protocol.OKResp(cmd, "version metadata created")
	resp.GameID = &gameID
	resp.VersionID = &versionID
	resp.GameVersion = version
	resp.UploadPath = uploadPath
	return resp
}

func (s *Server) handleGetGameDetail(c *client, req *protocol.Request) *protocol.Response {
	const cmd = protocol.CmdGetGameDetail
	if fail := s.requireAnyLogin(c, cmd); fail != nil {
		return fail
	}
	gameID, ok := asInt64(req.GameID)
	if !ok {
		return protocol.Fail(cmd, protocol.ErrBadInput, "game_id must be an integer")
	}

	game, err := s.store.GameByID(gameID)
	if errors.Is(err, store.ErrNotFound) {
		return protocol.Fail(cmd, protocol.ErrNoSuchGame, "game not found")
	}
	if err != nil {
		return dbFail(cmd, err)
	}
	if game.Status != store.GameActive {
		return protocol.Fail(cmd, protocol.ErrNoSuchGame, "game not found")
	}

	detail := &protocol.GameDetail{
		GameID:          game.ID,
		GameName:        game.Name,
		GameDescription: game.Description,
		MaxPlayers:      game.MaxPlayers,
	}
	if latest, err := s.store.LatestActiveVersion(gameID); err == nil {
		detail.LatestVersion = latest.Version
		detail.UploadPath = latest.UploadPath
	}
	ratings, err := s.store.RatingsForGame(gameID)
	if err != nil {
		return dbFail(cmd, err)
	}

	resp := protocol.OKResp(cmd, "")
	resp.Game = detail
	resp.Ratings = toProtocolRatings(ratings)
	return resp
}

func toProtocolRatings(rs []store.Rating) []protocol.Rating {
	out := make([]protocol.Rating, 0, len(rs))
	for _, r := range rs {
		out = append(out, protocol.Rating{
			Player:    r.Player,
			Score:     r.Score,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return out
}
