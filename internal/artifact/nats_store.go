package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/book-expert/voice-service/internal/core"
)

// NATSStore implements core.ArtifactStore on a NATS JetStream object store
// bucket. Object puts publish metadata only after all chunks are written,
// so a concurrent reader never observes a partially-written artifact.
type NATSStore struct {
	jetstreamContext nats.JetStreamContext
	bucket           string
	store            nats.ObjectStore
}

// NewNATSStore creates a bucket-backed store, creating the bucket on first
// use and binding to it when it already exists.
func NewNATSStore(jetstreamContext nats.JetStreamContext, bucketName string) (*NATSStore, error) {
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Artifact storage for the %s bucket.", bucketName),
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})
	if err != nil {
		if errors.Is(err, jetstream.ErrBucketExists) {
			store, err = jetstreamContext.ObjectStore(bucketName)
			if err != nil {
				return nil, fmt.Errorf("failed to bind to existing artifact bucket '%s': %w",
					bucketName, err)
			}
		} else {
			return nil, fmt.Errorf("failed to create artifact bucket '%s': %w", bucketName, err)
		}
	}

	return &NATSStore{
		jetstreamContext: jetstreamContext,
		bucket:           bucketName,
		store:            store,
	}, nil
}

// Upload persists artifact bytes under key.
func (s *NATSStore) Upload(_ context.Context, key string, data []byte) error {
	reader := bytes.NewReader(data)

	_, err := s.store.Put(&nats.ObjectMeta{
		Name:        key,
		Description: "",
		Headers:     nil,
		Metadata:    nil,
		Opts:        nil,
	}, reader)
	if err != nil {
		return fmt.Errorf("%w: put '%s' to bucket '%s': %w", core.ErrStoreWrite, key, s.bucket, err)
	}

	return nil
}

// Download retrieves artifact bytes. An unknown key is reported as
// core.ErrNotFound, the expected outcome for stale or fabricated references.
func (s *NATSStore) Download(_ context.Context, key string) ([]byte, error) {
	obj, err := s.store.Get(key)
	if err != nil {
		if errors.Is(err, nats.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: '%s'", core.ErrNotFound, key)
		}

		return nil, fmt.Errorf("%w: get '%s' from bucket '%s': %w", core.ErrStoreIO, key, s.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("%w: read '%s': %w", core.ErrStoreIO, key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("%w: close '%s': %w", core.ErrStoreIO, key, closeErr)
	}

	return data, nil
}

// Delete removes an artifact. Deleting a key that is already gone succeeds,
// so concurrent cleanup attempts on the same artifact do not fail each other.
func (s *NATSStore) Delete(_ context.Context, key string) error {
	err := s.store.Delete(key)
	if err != nil && !errors.Is(err, nats.ErrObjectNotFound) {
		return fmt.Errorf("%w: delete '%s' from bucket '%s': %w", core.ErrStoreIO, key, s.bucket, err)
	}

	return nil
}

// List returns the keys of every live artifact in the bucket.
func (s *NATSStore) List(_ context.Context) ([]string, error) {
	infos, err := s.store.List()
	if err != nil {
		if errors.Is(err, nats.ErrNoObjectsFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: list bucket '%s': %w", core.ErrStoreIO, s.bucket, err)
	}

	keys := make([]string, 0, len(infos))

	for _, info := range infos {
		if info.Deleted {
			continue
		}

		keys = append(keys, info.Name)
	}

	return keys, nil
}
