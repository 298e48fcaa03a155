package ports

import "context"

type PostRequest struct {
	Text    string
	MediaID string // optional
}

type SocialPlatform interface {
	UploadMedia(ctx context.Context, data []byte) (string, error)
	Post(ctx context.Context, req PostRequest) error
}
