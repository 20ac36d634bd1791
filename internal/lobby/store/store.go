// Package store is the broker's persistence gateway: synchronous CRUD over
// accounts, the game catalog, version logs, ratings, play sessions and room
// rows. Handlers consume the Store interface; Postgres is the production
// implementation.
package store

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken is returned on account creation with a duplicate name.
	ErrUsernameTaken = errors.New("username taken")
)

// Game catalog statuses.
const (
	GameActive  = "active"
	GameDeleted = "deleted"
)

type Player struct {
	ID          int64
	Username    string
	DisplayName string
}

type Developer struct {
	ID          int64
	Username    string
	DisplayName string
}

type Game struct {
	ID          int64
	DeveloperID int64
	Name        string
	Description string
	Status      string
	MaxPlayers  int
	CreatedAt   time.Time
}

type Version struct {
	ID         int64
	GameID     int64
	Version    string
	Changelog  string
	UploadPath string
	Active     bool
	UploadedAt time.Time
}

type Rating struct {
	Player    string
	Score     int
	Comment   string
	CreatedAt time.Time
}

type Room struct {
	ID           int64
	HostPlayerID int64
	GameID       int64
	GameName     string
	MaxPlayers   int
}

// Store is the full gateway surface consumed by the command handlers.
type Store interface {
	// Accounts.
	CreatePlayer(username, password, displayName string) error
	PlayerByUsername(username string) (*Player, error)
	VerifyPlayerPassword(username, password string) (bool, error)
	CreateDeveloper(username, password, displayName string) error
	DeveloperByUsername(username string) (*Developer, error)
	DeveloperByID(id int64) (*Developer, error)
	VerifyDeveloperPassword(username, password string) (bool, error)

	// Game catalog.
	CreateGame(developerID int64, name, description string, maxPlayers int) (int64, error)
	GameByID(id int64) (*Game, error)
	ListActiveGames() ([]Game, error)
	ListGamesByDeveloper(developerID int64) ([]Game, error)
	MarkGameActive(id int64) error
	MarkGameDeleted(id int64) error

	// Version log.
	CreateVersion(gameID int64, version, changelog, uploadPath string) (int64, error)
	LatestActiveVersion(gameID int64) (*Version, error)
	ActivateVersions(gameID int64) error
	DeactivateVersions(gameID int64) error

	// Ratings and play sessions.
	AddRating(playerID, gameID int64, score int, comment string) error
	RatingsForGame(gameID int64) ([]Rating, error)
	CreatePlaySession(playerID, gameID int64) error
	FinishPlaySessions(playerID, gameID int64) error
	HasFinished(playerID, gameID int64) (bool, error)

	// Rooms.
	CreateRoom(hostPlayerID, gameID int64, maxPlayers int, gameName string) (int64, error)
	RoomByID(id int64) (*Room, error)
	DeleteRoom(id int64) error
}
