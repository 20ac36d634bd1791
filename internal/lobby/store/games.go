package store

import (
	"database/sql"
	"fmt"
)

func (p *Postgres) CreateGame(developerID int64, name, description string, maxPlayers int) (int64, error) {
	var id int64
	query := `INSERT INTO games (developer_id, game_name, game_description, max_players, game_status)
		VALUES ($1, $2, $3, $4, 'active') RETURNING id`
	err := p.db.QueryRow(query, developerID, name, description, maxPlayers).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating game %s: %w", name, err)
	}
	return id, nil
}

func (p *Postgres) GameByID(id int64) (*Game, error) {
	var g Game
	query := `SELECT id, developer_id, game_name, game_description, game_status, max_players, created_at
		FROM games WHERE id = $1`
	err := p.db.QueryRow(query, id).Scan(
		&g.ID, &g.DeveloperID, &g.Name, &g.Description, &g.Status, &g.MaxPlayers, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching game %d: %w", id, err)
	}
	return &g, nil
}

func (p *Postgres) ListActiveGames() ([]Game, error) {
	query := `SELECT id, developer_id, game_name, game_description, game_status, max_players, created_at
		FROM games WHERE game_status = 'active' ORDER BY id`
	return p.queryGames(query)
}

func (p *Postgres) ListGamesByDeveloper(developerID int64) ([]Game, error) {
	query := `SELECT id, developer_id, game_name, game_description, game_status, max_players, created_at
		FROM games WHERE developer_id = $1 ORDER BY id`
	return p.queryGames(query, developerID)
}

func (p *Postgres) queryGames(query string, args ...any) ([]Game, error) {
	rows, err := p.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		var g Game
		if err := rows.Scan(&g.ID, &g.DeveloperID, &g.Name, &g.Description,
			&g.Status, &g.MaxPlayers, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning game row: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (p *Postgres) MarkGameActive(id int64) error {
	_, err := p.db.Exec("UPDATE games SET game_status = 'active' WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("marking game %d active: %w", id, err)
	}
	return nil
}

func (p *Postgres) MarkGameDeleted(id int64) error {
	_, err := p.db.Exec("UPDATE games SET game_status = 'deleted' WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("marking game %d deleted: %w", id, err)
	}
	return nil
}
