package store

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

func (p *Postgres) CreateVersion(gameID int64, version, changelog, uploadPath string) (int64, error) {
	var id int64
	query := `INSERT INTO gamelog (game_id, game_version, changelog, upload_path, is_active)
		VALUES ($1, $2, $3, $4, TRUE) RETURNING id`
	err := p.db.QueryRow(query, gameID, version, changelog, uploadPath).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating version %s for game %d: %w", version, gameID, err)
	}
	return id, nil
}

// LatestActiveVersion returns the highest semantic version among a game's
// active uploads, not the most recent one: uploading 1.1.0 after 1.2.0 must
// not regress the reported latest. Returns ErrNotFound when no active
// version exists.
func (p *Postgres) LatestActiveVersion(gameID int64) (*Version, error) {
	query := `SELECT id, game_id, game_version, changelog, upload_path, is_active, uploaded_at
		FROM gamelog WHERE game_id = $1 AND is_active ORDER BY uploaded_at, id`
	rows, err := p.db.Query(query, gameID)
	if err != nil {
		return nil, fmt.Errorf("listing versions for game %d: %w", gameID, err)
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		var v Version
		if err := rows.Scan(&v.ID, &v.GameID, &v.Version, &v.Changelog,
			&v.UploadPath, &v.Active, &v.UploadedAt); err != nil {
			return nil, fmt.Errorf("scanning version row: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	latest := PickLatest(versions)
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

// PickLatest selects the highest semantic version from vs. Entries that do
// not parse as semver rank below every parseable one; ties and unparseable
// sets fall back to upload order (vs must be sorted oldest first).
func PickLatest(vs []Version) *Version {
	var best *Version
	var bestSem *semver.Version
	for i := range vs {
		v := &vs[i]
		sem, err := semver.NewVersion(v.Version)
		switch {
		case best == nil:
			best, bestSem = v, nil
			if err == nil {
				bestSem = sem
			}
		case err != nil:
			if bestSem == nil {
				best = v // neither parses, prefer the later upload
			}
		case bestSem == nil || !sem.LessThan(bestSem):
			best, bestSem = v, sem
		}
	}
	return best
}

func (p *Postgres) ActivateVersions(gameID int64) error {
	_, err := p.db.Exec("UPDATE gamelog SET is_active = TRUE WHERE game_id = $1", gameID)
	if err != nil {
		return fmt.Errorf("activating versions for game %d: %w", gameID, err)
	}
	return nil
}

func (p *Postgres) DeactivateVersions(gameID int64) error {
	_, err := p.db.Exec("UPDATE gamelog SET is_active = FALSE WHERE game_id = $1", gameID)
	if err != nil {
		return fmt.Errorf("deactivating versions for game %d: %w", gameID, err)
	}
	return nil
}
