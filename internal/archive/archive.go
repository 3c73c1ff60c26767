// Package archive stores a copy of every uploaded statement in Google Cloud
// Storage. Credentials come from Application Default Credentials.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const uploadTimeout = 2 * time.Minute

// GCS writes statements to one bucket under a prefix.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
	now    func() time.Time
}

// NewGCS opens a storage client for bucket.
func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, prefix: prefix, now: time.Now}, nil
}

// Archive uploads data as the statement of import importID and returns the
// object name to Fetch it by.
func (g *GCS) Archive(ctx context.Context, importID uuid.UUID, fileName string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	name := ObjectName(g.prefix, importID, fileName, g.now())
	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "text/csv"
	w.Metadata = map[string]string{
		"import-id": importID.String(),
		"file-name": fileName,
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy statement to gs://%s/%s: %w", g.bucket, name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize gs://%s/%s: %w", g.bucket, name, err)
	}
	return name, nil
}

// Fetch downloads an archived statement.
func (g *GCS) Fetch(ctx context.Context, objectName string) ([]byte, error) {
	rc, err := g.client.Bucket(g.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", g.bucket, objectName, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (g *GCS) Close() error {
	return g.client.Close()
}

// ObjectName lays statements out by upload day:
// <prefix>/2025/01/31/<import id>-<file name>.
func ObjectName(prefix string, importID uuid.UUID, fileName string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "statement.csv"
	}
	return path.Join(strings.Trim(prefix, "/"), at.UTC().Format("2006/01/02"), importID.String()+"-"+base)
}
