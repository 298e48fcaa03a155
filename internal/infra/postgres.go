package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPgxPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

const mediaSchema = `
CREATE TABLE IF NOT EXISTS media (
	post_id    TEXT PRIMARY KEY,
	doc        JSONB NOT NULL,
	is_posted  BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL,
	posted_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_media_unposted ON media (created_at) WHERE NOT is_posted;
CREATE INDEX IF NOT EXISTS idx_media_doc_gin ON media USING GIN (doc);
`
