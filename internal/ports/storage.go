package ports

import "context"

type PutOptions struct {
	Public      bool
	ContentType string
}

type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, opts PutOptions) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}
