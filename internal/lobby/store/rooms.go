package store

import (
	"database/sql"
	"fmt"
)

func (p *Postgres) CreateRoom(hostPlayerID, gameID int64, maxPlayers int, gameName string) (int64, error) {
	var id int64
	query := `INSERT INTO rooms (host_player_id, game_id, max_players, game_name)
		VALUES ($1, $2, $3, $4) RETURNING id`
	err := p.db.QueryRow(query, hostPlayerID, gameID, maxPlayers, gameName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating room for game %d: %w", gameID, err)
	}
	return id, nil
}

func (p *Postgres) RoomByID(id int64) (*Room, error) {
	var r Room
	query := "SELECT id, host_player_id, game_id, max_players, game_name FROM rooms WHERE id = $1"
	err := p.db.QueryRow(query, id).Scan(&r.ID, &r.HostPlayerID, &r.GameID, &r.MaxPlayers, &r.GameName)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching room %d: %w", id, err)
	}
	return &r, nil
}

func (p *Postgres) DeleteRoom(id int64) error {
	if _, err := p.db.Exec("DELETE FROM rooms WHERE id = $1", id); err != nil {
		return fmt.Errorf("deleting room %d: %w", id, err)
	}
	return nil
}
