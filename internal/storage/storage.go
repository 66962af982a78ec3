package storage

import (
	"context"
	"io"
	"time"
)

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// Service persists generated export files in remote object storage.
type Service interface {
	// Upload writes body to bucket/key and returns the s3:// location.
	Upload(ctx context.Context, bucket, key string, body io.Reader) (string, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}
