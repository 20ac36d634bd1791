package handlers

import (
	"sync"
	"time"

	"gamehub/internal/lobby/store"
)

// fakeStore is an in-memory store.Store for handler tests.
type fakeStore struct {
	mu sync.Mutex

	players    map[string]*store.Player
	devs       map[string]*store.Developer
	passwords  map[string]string
	games      map[int64]*store.Game
	versions   []store.Version
	ratings    map[int64][]store.Rating
	sessions   []playSession
	rooms      map[int64]*store.Room
	nextID     int64
	nextRoomID int64
}

type playSession struct {
	playerID int64
	gameID   int64
	finished bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players:   make(map[string]*store.Player),
		devs:      make(map[string]*store.Developer),
		passwords: make(map[string]string),
		games:     make(map[int64]*store.Game),
		ratings:   make(map[int64][]store.Rating),
		rooms:     make(map[int64]*store.Room),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreatePlayer(username, password, displayName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.players[username]; ok {
		return store.ErrUsernameTaken
	}
	f.players[username] = &store.Player{ID: f.id(), Username: username, DisplayName: displayName}
	f.passwords["p:"+username] = password
	return nil
}

func (f *fakeStore) PlayerByUsername(username string) (*store.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) VerifyPlayerPassword(username, password string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.passwords["p:"+username]
	return ok && stored == password, nil
}

func (f *fakeStore) CreateDeveloper(username, password, displayName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.devs[username]; ok {
		return store.ErrUsernameTaken
	}
	f.devs[username] = &store.Developer{ID: f.id(), Username: username, DisplayName: displayName}
	f.passwords["d:"+username] = password
	return nil
}

func (f *fakeStore) DeveloperByUsername(username string) (*store.Developer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.devs[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) DeveloperByID(id int64) (*store.Developer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.devs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) VerifyDeveloperPassword(username, password string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.passwords["d:"+username]
	return ok && stored == password, nil
}

func (f *fakeStore) CreateGame(developerID int64, name, description string, maxPlayers int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.games[id] = &store.Game{
		ID:          id,
		DeveloperID: developerID,
		Name:        name,
		Description: description,
		Status:      store.GameActive,
		MaxPlayers:  maxPlayers,
		CreatedAt:   time.Now(),
	}
	return id, nil
}

func (f *fakeStore) GameByID(id int64) (*store.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return g, nil
}

func (f *fakeStore) ListActiveGames() ([]store.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Game
	for _, g := range f.games {
		if g.Status == store.GameActive {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeStore) ListGamesByDeveloper(developerID int64) ([]store.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Game
	for _, g := range f.games {
		if g.DeveloperID == developerID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkGameActive(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.games[id]; ok {
		g.Status = store.GameActive
	}
	return nil
}

func (f *fakeStore) MarkGameDeleted(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.games[id]; ok {
		g.Status = store.GameDeleted
	}
	return nil
}

func (f *fakeStore) CreateVersion(gameID int64, version, changelog, uploadPath string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.versions = append(f.versions, store.Version{
		ID:         id,
		GameID:     gameID,
		Version:    version,
		Changelog:  changelog,
		UploadPath: uploadPath,
		Active:     true,
		UploadedAt: time.Now(),
	})
	return id, nil
}

func (f *fakeStore) LatestActiveVersion(gameID int64) (*store.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []store.Version
	for _, v := range f.versions {
		if v.GameID == gameID && v.Active {
			active = append(active, v)
		}
	}
	latest := store.PickLatest(active)
	if latest == nil {
		return nil, store.ErrNotFound
	}
	return latest, nil
}

func (f *fakeStore) ActivateVersions(gameID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.versions {
		if f.versions[i].GameID == gameID {
			f.versions[i].Active = true
		}
	}
	return nil
}

func (f *fakeStore) DeactivateVersions(gameID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.versions {
		if f.versions[i].GameID == gameID {
			f.versions[i].Active = false
		}
	}
	return nil
}

func (f *fakeStore) AddRating(playerID, gameID int64, score int, comment string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var name string
	for _, p := range f.players {
		if p.ID == playerID {
			name = p.Username
		}
	}
	f.ratings[gameID] = append(f.ratings[gameID], store.Rating{
		Player:    name,
		Score:     score,
		Comment:   comment,
		CreatedAt: time.Now(),
	})
	return nil
}

func (f *fakeStore) RatingsForGame(gameID int64) ([]store.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Rating(nil), f.ratings[gameID]...), nil
}

func (f *fakeStore) CreatePlaySession(playerID, gameID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, playSession{playerID: playerID, gameID: gameID})
	return nil
}

func (f *fakeStore) FinishPlaySessions(playerID, gameID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sessions {
		if f.sessions[i].playerID == playerID && f.sessions[i].gameID == gameID {
			f.sessions[i].finished = true
		}
	}
	return nil
}

func (f *fakeStore) HasFinished(playerID, gameID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.playerID == playerID && s.gameID == gameID && s.finished {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateRoom(hostPlayerID, gameID int64, maxPlayers int, gameName string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextRoomID++
	id := f.nextRoomID
	f.rooms[id] = &store.Room{
		ID:           id,
		HostPlayerID: hostPlayerID,
		GameID:       gameID,
		GameName:     gameName,
		MaxPlayers:   maxPlayers,
	}
	return id, nil
}

func (f *fakeStore) RoomByID(id int64) (*store.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) DeleteRoom(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, id)
	return nil
}
