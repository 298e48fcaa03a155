package stations

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Vovarama1992/cableposter/internal/models"
	"github.com/Vovarama1992/cableposter/internal/ports"
	"github.com/Vovarama1992/cableposter/internal/textutil"
	"github.com/Vovarama1992/go-utils/logger"
)

type S2DownloadMedia struct {
	dl  ports.MediaDownloader
	dir string
	log *logger.ZapLogger
}

func NewS2DownloadMedia(dl ports.MediaDownloader, dir string, log *logger.ZapLogger) *S2DownloadMedia {
	return &S2DownloadMedia{dl: dl, dir: dir, log: log}
}

// Run downloads the candidate media into <dir>/<postID>.jpg and returns the path.
// On failure nothing is left on disk.
func (s *S2DownloadMedia) Run(ctx context.Context, c models.Candidate) (string, error) {
	start := time.Now()
	logEntry(s.log, "debug", "[S2][START] download", map[string]any{"postId": c.ID, "url": textutil.Truncate(c.MediaURL, 180)}, nil)

	path, err := tempPath(s.dir, c.ID)
	if err != nil {
		return "", fmt.Errorf("%w: temp dir: %v", ports.ErrDownloadFailed, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %v", ports.ErrDownloadFailed, path, err)
	}

	dlErr := s.dl.Download(ctx, c.MediaURL, f)
	closeErr := f.Close()
	if dlErr == nil {
		dlErr = closeErr
	}
	if dlErr != nil {
		_ = Release(path)
		logEntry(s.log, "warn", "[S2][ERR] download", map[string]any{"postId": c.ID}, dlErr)
		return "", fmt.Errorf("%w: %v", ports.ErrDownloadFailed, dlErr)
	}

	logEntry(s.log, "debug", "[S2][OK] download", map[string]any{"postId": c.ID, "dur": time.Since(start).String()}, nil)
	return path, nil
}
