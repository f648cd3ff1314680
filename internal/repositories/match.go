package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytstream/internal/shared"
)

// MatchRepository remembers which video a normalized query resolved to.
type MatchRepository struct {
	db *sql.DB
}

func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// GetMatch returns the video id stored for key, or [shared.ErrNoMatchFound].
func (r *MatchRepository) GetMatch(ctx context.Context, key string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT video_id FROM matches WHERE query_key = ?`, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", shared.ErrNoMatchFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read match: %w", err)
	}
	return id, nil
}

// PutMatch stores or replaces the resolution for key.
func (r *MatchRepository) PutMatch(ctx context.Context, key, id string, score float64) error {
	query := `
		INSERT INTO matches (query_key, video_id, score, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(query_key) DO UPDATE SET
			video_id = excluded.video_id,
			score = excluded.score
	`
	if _, err := r.db.ExecContext(ctx, query, key, id, score, time.Now()); err != nil {
		return fmt.Errorf("failed to store match: %w", err)
	}
	return nil
}

// Forget removes the resolution for key.
func (r *MatchRepository) Forget(ctx context.Context, key string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE query_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return checkAffected(result, shared.ErrNoMatchFound, key)
}
