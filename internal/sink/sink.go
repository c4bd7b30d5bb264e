// Package sink writes an encoded output document to its destination:
// stdout, the local filesystem or a GCS bucket.
package sink

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
)

// Sink stores one named document.
type Sink interface {
	Write(ctx context.Context, name, contentType string, data []byte) error
}

// Stdout streams the document to standard output, for piping into other
// tools.
type Stdout struct {
	Out io.Writer
}

func (s Stdout) Write(_ context.Context, _, _ string, data []byte) error {
	out := s.Out
	if out == nil {
		out = os.Stdout
	}
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write stdout: %w", err)
	}
	return nil
}

// File writes the document to the local filesystem.
type File struct{}

func (File) Write(_ context.Context, name, _ string, data []byte) error {
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// GCS uploads the document to a bucket with its content type set.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS constructs a GCS sink.
func NewGCS(client *storage.Client, bucket string) (*GCS, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &GCS{client: client, bucket: bucket}, nil
}

func (s *GCS) Write(ctx context.Context, name, contentType string, data []byte) error {
	writer := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := writer.Write(data); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return fmt.Errorf("write object: %w (close writer: %v)", err, closeErr)
		}
		return fmt.Errorf("write object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}
