// Package identity persists speaker embeddings alongside the uploaded
// sample artifacts they were derived from.
//
// The identity key is derived from the sample id by a pure, invertible
// function, so either reference can always be located from the other
// without a lookup index.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/book-expert/voice-service/internal/core"
)

// keySuffix marks identity records in the artifact store. It sorts apart
// from audio extensions, so bulk cleanup of generated speech never matches.
const keySuffix = ".embedding.json"

// Repository implements core.IdentityRepository over an artifact store.
type Repository struct {
	store core.ArtifactStore
}

// record is the stored form of an identity. DerivedFrom is a back-reference
// only: the sample may be deleted while the identity remains valid, since
// the vector is self-contained once extracted.
type record struct {
	DerivedFrom string         `json:"derived_from"`
	Vector      core.Embedding `json:"vector"`
}

// NewRepository creates a repository backed by the given store.
func NewRepository(store core.ArtifactStore) *Repository {
	return &Repository{store: store}
}

// KeyForSample derives the identity key for an uploaded-sample id.
func KeyForSample(sampleID string) string {
	return sampleID + keySuffix
}

// SampleForKey inverts KeyForSample. The second return is false when key is
// not an identity key.
func SampleForKey(key string) (string, bool) {
	if !IsIdentityKey(key) {
		return "", false
	}

	return strings.TrimSuffix(key, keySuffix), true
}

// IsIdentityKey reports whether key names a stored speaker identity.
func IsIdentityKey(key string) bool {
	return strings.HasSuffix(key, keySuffix) && len(key) > len(keySuffix)
}

// Store persists vector under the key derived from sampleID and returns
// that key as the identity reference. Storing again for the same sample id
// overwrites the prior vector, giving re-upload semantics.
func (r *Repository) Store(
	ctx context.Context,
	sampleID string,
	vector core.Embedding,
) (string, error) {
	rec := record{
		DerivedFrom: sampleID,
		Vector:      vector,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to encode identity record for sample '%s': %w", sampleID, err)
	}

	key := KeyForSample(sampleID)

	err = r.store.Upload(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("failed to persist identity '%s': %w", key, err)
	}

	return key, nil
}

// Load resolves an identity reference to its embedding. A reference that
// does not resolve is a client-facing condition, reported as
// core.ErrIdentityNotFound rather than a store fault.
func (r *Repository) Load(ctx context.Context, identityRef string) (core.Embedding, error) {
	if !IsIdentityKey(identityRef) {
		return nil, fmt.Errorf("%w: '%s' is not an identity reference",
			core.ErrIdentityNotFound, identityRef)
	}

	data, err := r.store.Download(ctx, identityRef)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", core.ErrIdentityNotFound, identityRef)
		}

		return nil, fmt.Errorf("failed to read identity '%s': %w", identityRef, err)
	}

	var rec record

	err = json.Unmarshal(data, &rec)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt identity record '%s': %w",
			core.ErrStoreIO, identityRef, err)
	}

	return rec.Vector, nil
}
