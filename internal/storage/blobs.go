package storage

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	storage_go "github.com/supabase-community/storage-go"

	"github.com/gomemo-fmtpla/backend/internal/config"
)

// BlobStore holds uploaded audio objects. Deleting an absent object is not an
// error, which keeps retention sweeps idempotent.
type BlobStore struct {
	client *storage_go.Client
	bucket string
}

func NewBlobStore(cfg config.Config) *BlobStore {
	return &BlobStore{
		client: storage_go.NewClient(cfg.StorageURL, cfg.StorageKey, nil),
		bucket: cfg.StorageBucket,
	}
}

// Put uploads the object under a fresh unique name derived from filename's
// extension and returns its public URL.
func (b *BlobStore) Put(r io.Reader, filename string, contentType string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	name := uuid.NewString() + ext

	upsert := false
	_, err := b.client.UploadFile(b.bucket, name, r, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("upload object %s: %w", name, err)
	}

	return b.client.GetPublicUrl(b.bucket, name).SignedURL, nil
}

// Delete removes an object by name. Missing objects are ignored.
func (b *BlobStore) Delete(name string) error {
	_, err := b.client.RemoveFile(b.bucket, []string{name})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil
		}
		return fmt.Errorf("delete object %s: %w", name, err)
	}
	return nil
}

// ResolveName extracts the object name from a content URL. It reports false
// for URLs that do not point into this bucket, e.g. third-party video links.
func (b *BlobStore) ResolveName(rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	marker := "/" + b.bucket + "/"
	idx := strings.LastIndex(parsed.Path, marker)
	if idx < 0 {
		return "", false
	}
	name := parsed.Path[idx+len(marker):]
	if name == "" {
		return "", false
	}
	return name, true
}
