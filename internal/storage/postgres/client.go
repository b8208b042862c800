// internal/storage/postgres/client.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"opening-server/internal/config"
	"opening-server/internal/models"
	"opening-server/internal/storage"
)

// Client is an OpeningStore backed by PostgreSQL.
type Client struct {
	db *sql.DB
}

func NewClient(cfg config.PostgresConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	client := &Client{db: db}
	if err := client.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return client, nil
}

func (c *Client) ensureSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS openings (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			title       TEXT NOT NULL,
			theme       TEXT NOT NULL,
			video_url   TEXT NOT NULL,
			preview_url TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS openings_user_id_idx ON openings (user_id)`

	if _, err := c.db.Exec(query); err != nil {
		return fmt.Errorf("failed to ensure openings schema: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Save(ctx context.Context, opening *models.Opening) error {
	query := `
		INSERT INTO openings (id, user_id, title, theme, video_url, preview_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title`

	_, err := c.db.ExecContext(ctx, query,
		opening.ID,
		opening.UserID,
		opening.Title,
		opening.Theme,
		opening.VideoURL,
		opening.PreviewURL,
		opening.CreatedAt,
	)
	return err
}

func (c *Client) Get(ctx context.Context, id string) (*models.Opening, error) {
	query := `
		SELECT id, user_id, title, theme, video_url, preview_url, created_at
		FROM openings
		WHERE id = $1`

	var opening models.Opening
	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&opening.ID,
		&opening.UserID,
		&opening.Title,
		&opening.Theme,
		&opening.VideoURL,
		&opening.PreviewURL,
		&opening.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrOpeningNotFound
		}
		return nil, err
	}

	return &opening, nil
}

func (c *Client) ListByUser(ctx context.Context, userID string) ([]models.Opening, error) {
	query := `
		SELECT id, user_id, title, theme, video_url, preview_url, created_at
		FROM openings
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	openings := make([]models.Opening, 0)
	for rows.Next() {
		var opening models.Opening
		if err := rows.Scan(
			&opening.ID,
			&opening.UserID,
			&opening.Title,
			&opening.Theme,
			&opening.VideoURL,
			&opening.PreviewURL,
			&opening.CreatedAt,
		); err != nil {
			return nil, err
		}
		openings = append(openings, opening)
	}

	return openings, rows.Err()
}

func (c *Client) Delete(ctx context.Context, id, userID string) error {
	owner := ""
	err := c.db.QueryRowContext(ctx, `SELECT user_id FROM openings WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if err == sql.ErrNoRows {
			return storage.ErrOpeningNotFound
		}
		return err
	}
	if owner != userID {
		return storage.ErrNotOwner
	}

	_, err = c.db.ExecContext(ctx, `DELETE FROM openings WHERE id = $1`, id)
	return err
}
