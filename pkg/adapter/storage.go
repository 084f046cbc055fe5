package adapter

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

// Storage is an object store for memory exports.
type Storage interface {
	// Put returns a writer for the object at key
	Put(ctx context.Context, key string) (io.WriteCloser, error)
	// Get opens the object at key for reading
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

type gcsStorage struct {
	bucket string
	client *storage.Client
}

// NewStorage opens a Cloud Storage bucket as an export destination.
func NewStorage(ctx context.Context, bucket string) (Storage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	return &gcsStorage{bucket: bucket, client: client}, nil
}

func (s *gcsStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	return s.client.Bucket(s.bucket).Object(key).NewWriter(ctx), nil
}

func (s *gcsStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read from storage",
			goerr.V("bucket", s.bucket), goerr.V("key", key))
	}
	return reader, nil
}

// localStorage implements Storage on a plain directory, for exports
// that stay on the local machine.
type localStorage struct {
	baseDir string
}

func NewLocalStorage(baseDir string) Storage {
	return &localStorage{baseDir: baseDir}
}

func (s *localStorage) Put(_ context.Context, key string) (io.WriteCloser, error) {
	path := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create export directory", goerr.V("path", path))
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create export file", goerr.V("path", path))
	}
	return f, nil
}

func (s *localStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	path := filepath.Join(s.baseDir, filepath.FromSlash(key))
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open export file", goerr.V("path", path))
	}
	return f, nil
}
