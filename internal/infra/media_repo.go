package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Vovarama1992/cableposter/internal/models"
	"github.com/Vovarama1992/cableposter/internal/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// pgxIface is the subset of *pgxpool.Pool the repo needs; pgxmock satisfies it too.
type pgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresMediaRepo struct {
	pool pgxIface
	now  func() time.Time
}

func NewPostgresMediaRepo(pool pgxIface) *PostgresMediaRepo {
	return &PostgresMediaRepo{pool: pool, now: time.Now}
}

var _ ports.MediaRepository = (*PostgresMediaRepo)(nil)

func (r *PostgresMediaRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, mediaSchema); err != nil {
		return fmt.Errorf("ensure media schema: %w", err)
	}
	return nil
}

func (r *PostgresMediaRepo) Insert(ctx context.Context, rec *models.MediaRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now().UTC()
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal media %s: %w", rec.PostID, err)
	}

	query := `
		INSERT INTO media (post_id, doc, is_posted, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = r.pool.Exec(ctx, query, rec.PostID, raw, rec.IsPosted, rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("insert media %s: %w", rec.PostID, ports.ErrDuplicateKey)
		}
		return fmt.Errorf("insert media %s: %w", rec.PostID, err)
	}
	return nil
}

func (r *PostgresMediaRepo) ExistsByPostID(ctx context.Context, postID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM media WHERE post_id = $1)`,
		postID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists media %s: %w", postID, err)
	}
	return exists, nil
}

func (r *PostgresMediaRepo) FindUnpublished(ctx context.Context) (*models.MediaRecord, error) {
	query := `
		SELECT doc, is_posted, posted_at
		FROM media
		WHERE NOT is_posted
		ORDER BY created_at ASC, post_id ASC
		LIMIT 1
	`
	rec, err := scanMedia(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find unpublished: %w", err)
	}
	return rec, nil
}

func (r *PostgresMediaRepo) FindAllPublished(ctx context.Context) ([]models.MediaRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doc, is_posted, posted_at
		FROM media
		WHERE is_posted
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("find published: %w", err)
	}
	defer rows.Close()

	var out []models.MediaRecord
	for rows.Next() {
		rec, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan published: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// MarkPublished is idempotent: posted_at keeps the first publication time.
func (r *PostgresMediaRepo) MarkPublished(ctx context.Context, rec *models.MediaRecord) error {
	now := r.now().UTC()
	query := `
		UPDATE media
		SET is_posted = true,
		    posted_at = COALESCE(posted_at, $2)
		WHERE post_id = $1
	`
	tag, err := r.pool.Exec(ctx, query, rec.PostID, now)
	if err != nil {
		return fmt.Errorf("mark published %s: %w", rec.PostID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark published %s: no such record", rec.PostID)
	}

	rec.IsPosted = true
	if rec.PostedAt == nil {
		rec.PostedAt = &now
	}
	return nil
}

func (r *PostgresMediaRepo) Stats(ctx context.Context) (models.MediaStats, error) {
	var s models.MediaStats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE NOT is_posted),
		       COUNT(*) FILTER (WHERE is_posted)
		FROM media
	`).Scan(&s.Total, &s.Unpublished, &s.Published)
	if err != nil {
		return s, fmt.Errorf("media stats: %w", err)
	}
	return s, nil
}

func scanMedia(row pgx.Row) (*models.MediaRecord, error) {
	var (
		raw      []byte
		isPosted bool
		postedAt *time.Time
	)
	if err := row.Scan(&raw, &isPosted, &postedAt); err != nil {
		return nil, err
	}

	var m models.MediaRecord
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode media doc: %w", err)
	}
	// columns are authoritative for the publication state
	m.IsPosted = isPosted
	m.PostedAt = postedAt
	return &m, nil
}
