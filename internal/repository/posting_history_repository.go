package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/maheshrc27/crosspost/internal/models"
)

// PostingHistoryRepository keeps an audit row per platform per run in
// Postgres. The JSON queue stays the source of truth.
type PostingHistoryRepository interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, ph *models.PostingHistory) (int64, error)
	ListByContentID(ctx context.Context, contentID int64) ([]*models.PostingHistory, error)
}

type postingHistoryRepository struct {
	db *sql.DB
}

func NewPostingHistoryRepository(db *sql.DB) PostingHistoryRepository {
	return &postingHistoryRepository{db: db}
}

func (r *postingHistoryRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS posting_history (
			id          BIGSERIAL PRIMARY KEY,
			run_id      TEXT NOT NULL,
			content_id  BIGINT NOT NULL,
			platform    TEXT NOT NULL,
			outcome     TEXT NOT NULL,
			detail      TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS posting_history_content_id_idx ON posting_history (content_id);
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create posting_history: %w", err)
	}
	return nil
}

func (r *postingHistoryRepository) Create(ctx context.Context, ph *models.PostingHistory) (int64, error) {
	query := `
		INSERT INTO posting_history (run_id, content_id, platform, outcome, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, ph.RunID, ph.ContentID, string(ph.Platform), string(ph.Outcome), ph.Detail).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert posting history: %w", err)
	}
	return id, nil
}

func (r *postingHistoryRepository) ListByContentID(ctx context.Context, contentID int64) ([]*models.PostingHistory, error) {
	query := `
		SELECT id, run_id, content_id, platform, outcome, detail, created_at
		FROM posting_history
		WHERE content_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, contentID)
	if err != nil {
		return nil, fmt.Errorf("query posting history: %w", err)
	}
	defer rows.Close()

	var history []*models.PostingHistory
	for rows.Next() {
		var ph models.PostingHistory
		var platform, outcome string
		if err := rows.Scan(&ph.ID, &ph.RunID, &ph.ContentID, &platform, &outcome, &ph.Detail, &ph.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan posting history: %w", err)
		}
		ph.Platform = models.Platform(platform)
		ph.Outcome = models.ResultKind(outcome)
		history = append(history, &ph)
	}
	return history, rows.Err()
}
