// Package core defines the capability interfaces and the request-outcome
// error taxonomy shared by the voice-service components.
package core

import "context"

// Embedding is a speaker identity vector derived from an uploaded sample.
// It is opaque to the orchestrator: produced by the Extractor, stored by the
// IdentityRepository, and handed back to the Synthesizer unmodified.
type Embedding []float64

// ArtifactStore is a key-value blob store for audio artifacts and identity
// records. Upload either fully publishes the object or leaves nothing
// readable under the key; Download and Delete of an unknown key report
// ErrNotFound, which is a normal outcome rather than a store fault.
type ArtifactStore interface {
	Upload(ctx context.Context, key string, data []byte) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}

// IdentityRepository binds extracted speaker embeddings to the sample
// artifact they were derived from. Store is idempotent per sample id;
// Load of an unknown reference reports ErrIdentityNotFound.
type IdentityRepository interface {
	Store(ctx context.Context, sampleID string, vector Embedding) (string, error)
	Load(ctx context.Context, identityRef string) (Embedding, error)
}

// SynthesisRequest holds the inputs for one synthesis call. A nil Speaker
// selects the engine's default voice.
type SynthesisRequest struct {
	Text     string
	Language string
	Speaker  Embedding
}

// Synthesizer is the external neural engine that turns text into waveform
// bytes. Calls may block for seconds; the orchestrator bounds concurrency.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error)
	Close() error
}

// Extractor is the external capability that derives a speaker embedding
// from uploaded sample audio. The sample key is passed for diagnostics only.
type Extractor interface {
	Extract(ctx context.Context, sampleKey string, audio []byte) (Embedding, error)
	Close() error
}
