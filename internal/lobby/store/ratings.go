package store

import "fmt"

func (p *Postgres) AddRating(playerID, gameID int64, score int, comment string) error {
	query := "INSERT INTO ratings (player_id, game_id, score, comment) VALUES ($1, $2, $3, $4)"
	if _, err := p.db.Exec(query, playerID, gameID, score, comment); err != nil {
		return fmt.Errorf("adding rating for game %d: %w", gameID, err)
	}
	return nil
}

func (p *Postgres) RatingsForGame(gameID int64) ([]Rating, error) {
	query := `SELECT COALESCE(NULLIF(pl.display_name, ''), pl.username), r.score, r.comment, r.created_at
		FROM ratings r JOIN players pl ON r.player_id = pl.id
		WHERE r.game_id = $1 ORDER BY r.created_at DESC, r.id DESC`
	rows, err := p.db.Query(query, gameID)
	if err != nil {
		return nil, fmt.Errorf("listing ratings for game %d: %w", gameID, err)
	}
	defer rows.Close()

	var ratings []Rating
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.Player, &r.Score, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning rating row: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

func (p *Postgres) CreatePlaySession(playerID, gameID int64) error {
	query := "INSERT INTO player_sessions (player_id, game_id) VALUES ($1, $2)"
	if _, err := p.db.Exec(query, playerID, gameID); err != nil {
		return fmt.Errorf("creating play session: %w", err)
	}
	return nil
}

func (p *Postgres) FinishPlaySessions(playerID, gameID int64) error {
	query := `UPDATE player_sessions SET finished_at = NOW()
		WHERE player_id = $1 AND game_id = $2 AND finished_at IS NULL`
	if _, err := p.db.Exec(query, playerID, gameID); err != nil {
		return fmt.Errorf("finishing play sessions: %w", err)
	}
	return nil
}

// HasFinished reports whether the player has at least one finished play
// session for the game; rating eligibility hangs off this.
func (p *Postgres) HasFinished(playerID, gameID int64) (bool, error) {
	var ok bool
	query := `SELECT EXISTS(SELECT 1 FROM player_sessions
		WHERE player_id = $1 AND game_id = $2 AND finished_at IS NOT NULL)`
	if err := p.db.QueryRow(query, playerID, gameID).Scan(&ok); err != nil {
		return false, fmt.Errorf("checking play history: %w", err)
	}
	return ok, nil
}
