package artifacts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/reportlabeler/internal/failure"
	"github.com/Lllllllleong/reportlabeler/internal/gcp"
)

// GCSStore writes artifacts into a bucket, optionally under a prefix.
type GCSStore struct {
	bucket *storage.BucketHandle
	name   string
	prefix string
}

// NewGCSStore builds a GCSStore for bucket.
func NewGCSStore(client *storage.Client, bucket, prefix string) (*GCSStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &GCSStore{bucket: client.Bucket(bucket), name: bucket, prefix: prefix}, nil
}

// Put uploads data only if no object exists under name yet, so a name
// collision fails instead of overwriting an earlier artifact.
func (s *GCSStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", failure.New(failure.KindPersist, "put "+name, err)
	}
	object := path.Join(s.prefix, name)
	if err := gcp.SaveToGCSAtomically(ctx, s.bucket, object, ContentType, data); err != nil {
		if errors.Is(err, gcp.ErrObjectExists) {
			return "", failure.Status(failure.KindPersist, "put "+name, http.StatusPreconditionFailed, err)
		}
		return "", failure.New(failure.KindPersist, "put "+name, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.name, object), nil
}
