package stations

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Vovarama1992/cableposter/internal/ports"
	"github.com/Vovarama1992/go-utils/logger"
)

const mediaContentType = "image/jpeg"

// MediaKey derives the object storage key for a post: <prefix>/media/<postID>.jpg.
func MediaKey(prefix, postID string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return "media/" + postID + ".jpg"
	}
	return prefix + "/media/" + postID + ".jpg"
}

type S3UploadStorage struct {
	store  ports.ObjectStorage
	prefix string
	log    *logger.ZapLogger
}

func NewS3UploadStorage(store ports.ObjectStorage, prefix string, log *logger.ZapLogger) *S3UploadStorage {
	return &S3UploadStorage{store: store, prefix: prefix, log: log}
}

// Run uploads the local file publicly and returns the storage key.
func (s *S3UploadStorage) Run(ctx context.Context, postID, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ports.ErrUploadFailed, path, err)
	}

	key, err := s.store.Put(ctx, MediaKey(s.prefix, postID), data, ports.PutOptions{
		Public:      true,
		ContentType: mediaContentType,
	})
	if err != nil {
		logEntry(s.log, "warn", "[S3][ERR] upload", map[string]any{"postId": postID}, err)
		return "", fmt.Errorf("%w: %v", ports.ErrUploadFailed, err)
	}

	logEntry(s.log, "debug", "[S3][OK] upload", map[string]any{"postId": postID, "key": key, "bytes": len(data)}, nil)
	return key, nil
}
