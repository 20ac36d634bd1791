package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Postgres implements Store over a database/sql connection pool.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func hashPassword(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (p *Postgres) CreatePlayer(username, password, displayName string) error {
	query := "INSERT INTO players (username, password_hash, display_name) VALUES ($1, $2, $3)"
	_, err := p.db.Exec(query, username, hashPassword(password), displayName)
	if isUniqueViolation(err) {
		return ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("creating player %s: %w", username, err)
	}
	return nil
}

func (p *Postgres) PlayerByUsername(username string) (*Player, error) {
	var pl Player
	query := "SELECT id, username, display_name FROM players WHERE username = $1"
	err := p.db.QueryRow(query, username).Scan(&pl.ID, &pl.Username, &pl.DisplayName)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching player %s: %w", username, err)
	}
	return &pl, nil
}

func (p *Postgres) VerifyPlayerPassword(username, password string) (bool, error) {
	var ok bool
	query := "SELECT EXISTS(SELECT 1 FROM players WHERE username = $1 AND password_hash = $2)"
	err := p.db.QueryRow(query, username, hashPassword(password)).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("verifying player password: %w", err)
	}
	return ok, nil
}

func (p *Postgres) CreateDeveloper(username, password, displayName string) error {
	query := "INSERT INTO developers (username, password_hash, display_name) VALUES ($1, $2, $3)"
	_, err := p.db.Exec(query, username, hashPassword(password), displayName)
	if isUniqueViolation(err) {
		return ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("creating developer %s: %w", username, err)
	}
	return nil
}

func (p *Postgres) DeveloperByUsername(username string) (*Developer, error) {
	var d Developer
	query := "SELECT id, username, display_name FROM developers WHERE username = $1"
	err := p.db.QueryRow(query, username).Scan(&d.ID, &d.Username, &d.DisplayName)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching developer %s: %w", username, err)
	}
	return &d, nil
}

func (p *Postgres) DeveloperByID(id int64) (*Developer, error) {
	var d Developer
	query := "SELECT id, username, display_name FROM developers WHERE id = $1"
	err := p.db.QueryRow(query, id).Scan(&d.ID, &d.Username, &d.DisplayName)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching developer %d: %w", id, err)
	}
	return &d, nil
}

func (p *Postgres) VerifyDeveloperPassword(username, password string) (bool, error) {
	var ok bool
	query := "SELECT EXISTS(SELECT 1 FROM developers WHERE username = $1 AND password_hash = $2)"
	err := p.db.QueryRow(query, username, hashPassword(password)).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("verifying developer password: %w", err)
	}
	return ok, nil
}
