package ports

import "errors"

var (
	ErrDuplicateKey = errors.New("duplicate key")

	ErrFeedUnavailable  = errors.New("feed unavailable")
	ErrNoMedia          = errors.New("no media")
	ErrUnsupportedMedia = errors.New("unsupported media")
	ErrDuplicateItem    = errors.New("already ingested")
	ErrDownloadFailed   = errors.New("download failed")
	ErrUploadFailed     = errors.New("upload failed")

	ErrPlatformUploadFailed = errors.New("platform media upload failed")
	ErrPlatformPostFailed   = errors.New("platform post failed")
	ErrNoMediaAvailable     = errors.New("no media available")
)
