package stations

import (
	"context"
	"fmt"
	"os"

	"github.com/Vovarama1992/cableposter/internal/ports"
	"github.com/Vovarama1992/go-utils/logger"
)

type S5Publish struct {
	platform ports.SocialPlatform
	log      *logger.ZapLogger
}

func NewS5Publish(platform ports.SocialPlatform, log *logger.ZapLogger) *S5Publish {
	return &S5Publish{platform: platform, log: log}
}

// Run uploads the image at path and posts text with it. A failed media
// upload degrades to a text-only post; withMedia reports which one went out.
func (s *S5Publish) Run(ctx context.Context, postID, path, text string) (withMedia bool, err error) {
	var mediaID string

	data, err := os.ReadFile(path)
	if err != nil {
		logEntry(s.log, "warn", "[S5][ERR] read media, posting text only", map[string]any{"postId": postID}, err)
	} else {
		mediaID, err = s.platform.UploadMedia(ctx, data)
		if err != nil {
			mediaID = ""
			logEntry(s.log, "warn", "[S5][ERR] media upload, posting text only",
				map[string]any{"postId": postID},
				fmt.Errorf("%w: %v", ports.ErrPlatformUploadFailed, err))
		}
	}

	if err := s.platform.Post(ctx, ports.PostRequest{Text: text, MediaID: mediaID}); err != nil {
		logEntry(s.log, "error", "[S5][ERR] post", map[string]any{"postId": postID}, err)
		return false, fmt.Errorf("%w: %v", ports.ErrPlatformPostFailed, err)
	}

	logEntry(s.log, "debug", "[S5][OK] post", map[string]any{"postId": postID, "withMedia": mediaID != ""}, nil)
	return mediaID != "", nil
}
