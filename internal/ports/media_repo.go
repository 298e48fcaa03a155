package ports

import (
	"context"

	"github.com/Vovarama1992/cableposter/internal/models"
)

type MediaRepository interface {
	// FindUnpublished returns the oldest record with isPosted=false, or nil.
	FindUnpublished(ctx context.Context) (*models.MediaRecord, error)
	FindAllPublished(ctx context.Context) ([]models.MediaRecord, error)
	ExistsByPostID(ctx context.Context, postID string) (bool, error)

	// Insert fails with ErrDuplicateKey when postID is already stored.
	Insert(ctx context.Context, rec *models.MediaRecord) error
	MarkPublished(ctx context.Context, rec *models.MediaRecord) error

	Stats(ctx context.Context) (models.MediaStats, error)
}
