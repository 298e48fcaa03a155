package stations

import (
	"context"
	"fmt"
	"os"

	"github.com/Vovarama1992/cableposter/internal/models"
	"github.com/Vovarama1992/cableposter/internal/ports"
	"github.com/Vovarama1992/go-utils/logger"
)

type S4FetchStored struct {
	store ports.ObjectStorage
	dir   string
	log   *logger.ZapLogger
}

func NewS4FetchStored(store ports.ObjectStorage, dir string, log *logger.ZapLogger) *S4FetchStored {
	return &S4FetchStored{store: store, dir: dir, log: log}
}

// Run copies the stored media of rec into <dir>/<postID>.jpg and returns the path.
func (s *S4FetchStored) Run(ctx context.Context, rec *models.MediaRecord) (string, error) {
	data, err := s.store.Get(ctx, rec.PictName)
	if err != nil {
		logEntry(s.log, "warn", "[S4][ERR] fetch stored", map[string]any{"postId": rec.PostID, "key": rec.PictName}, err)
		return "", fmt.Errorf("%w: %v", ports.ErrDownloadFailed, err)
	}

	path, err := tempPath(s.dir, rec.PostID)
	if err != nil {
		return "", fmt.Errorf("%w: temp dir: %v", ports.ErrDownloadFailed, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		_ = Release(path)
		return "", fmt.Errorf("%w: write %s: %v", ports.ErrDownloadFailed, path, err)
	}

	logEntry(s.log, "debug", "[S4][OK] fetch stored", map[string]any{"postId": rec.PostID, "bytes": len(data)}, nil)
	return path, nil
}
