package ports

import (
	"context"
	"io"

	"github.com/Vovarama1992/cableposter/internal/models"
)

type FeedSource interface {
	Fetch(ctx context.Context) ([]models.Candidate, error)
}

type MediaDownloader interface {
	Download(ctx context.Context, url string, w io.Writer) error
}
