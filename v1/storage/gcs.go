package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSBackend stores objects in Google Cloud Storage
type GCSBackend struct {
	Client  *storage.Client
	Timeout time.Duration
}

// NewGCSBackend creates a GCS client. Must call Close when done.
func NewGCSBackend(ctx context.Context, credentialsFile string, timeout time.Duration) (*GCSBackend, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSBackend{Client: client, Timeout: timeout}, nil
}

// Close releases the client
func (g *GCSBackend) Close() error {
	if g == nil || g.Client == nil {
		return nil
	}
	return g.Client.Close()
}

// Upload writes the object, overwriting any existing one with the same name
func (g *GCSBackend) Upload(ctx context.Context, bucket, name, contentType string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	wc := g.Client.Bucket(bucket).Object(name).NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=3600"
	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to upload object %q: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to write object %q to bucket %q: %w", name, bucket, err)
	}
	return nil
}

// Delete removes the object; a missing object is not an error
func (g *GCSBackend) Delete(ctx context.Context, bucket, name string) error {
	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	err := g.Client.Bucket(bucket).Object(name).Delete(ctx)
	if err != nil && err != storage.ErrObjectNotExist {
		return fmt.Errorf("failed to delete object %q from bucket %q: %w", name, bucket, err)
	}
	return nil
}

// List returns object names under prefix; empty if none
func (g *GCSBackend) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	names := []string{}
	it := g.Client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list bucket %q objects: %w", bucket, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}
