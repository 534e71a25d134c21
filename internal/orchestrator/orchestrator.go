// Package orchestrator coordinates the three request flows of the service:
// generic synthesis, sample upload with identity extraction, and
// voice-cloned synthesis. It owns no state between requests; any number of
// orchestrator instances can run against the same store.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/book-expert/logger"

	"github.com/book-expert/voice-service/internal/artifact"
	"github.com/book-expert/voice-service/internal/core"
	"github.com/book-expert/voice-service/internal/languages"
)

const defaultAdapterSlots = 4

// Kind labels returned with synthesis results.
const (
	KindGeneric = "generic"
	KindCustom  = "custom"
)

// Notifier receives the id of every successfully synthesized artifact.
// A nil Notifier disables notification.
type Notifier interface {
	AudioCreated(audioKey string) error
}

// SampleResult is the outcome of a sample upload: the persisted sample
// artifact and the identity reference derived from it.
type SampleResult struct {
	SampleRef   string
	IdentityRef string
}

// Orchestrator drives the artifact store, identity repository, and the two
// external engines in the order each flow requires, and maps every failure
// to the caller-visible taxonomy in core.
type Orchestrator struct {
	store      core.ArtifactStore
	identities core.IdentityRepository
	engine     core.Synthesizer
	extractor  core.Extractor
	notifier   Notifier
	log        *logger.Logger

	// slots bounds concurrent engine calls. Engine calls block for
	// seconds; a bounded pool keeps many callers in flight without
	// letting them pile onto the engine, and unrelated requests never
	// serialize on a shared session.
	slots chan struct{}
}

// New creates an orchestrator. workers bounds concurrent engine calls; a
// non-positive value selects a small default.
func New(
	store core.ArtifactStore,
	identities core.IdentityRepository,
	engine core.Synthesizer,
	extractor core.Extractor,
	notifier Notifier,
	workers int,
	log *logger.Logger,
) *Orchestrator {
	if workers <= 0 {
		workers = defaultAdapterSlots
	}

	return &Orchestrator{
		store:      store,
		identities: identities,
		engine:     engine,
		extractor:  extractor,
		notifier:   notifier,
		log:        log,
		slots:      make(chan struct{}, workers),
	}
}

// Synthesize runs the generic synthesis flow: validate, synthesize with the
// default voice, persist under a fresh generic id. No artifact is readable
// unless the whole flow succeeded.
func (o *Orchestrator) Synthesize(ctx context.Context, text, language string) (string, error) {
	text, language, err := validateText(text, language)
	if err != nil {
		return "", err
	}

	audioData, err := o.synthesizeWithSlot(ctx, core.SynthesisRequest{
		Text:     text,
		Language: language,
		Speaker:  nil,
	})
	if err != nil {
		return "", err
	}

	audioKey := artifact.NewGenericID()

	err = o.publishArtifact(ctx, audioKey, audioData)
	if err != nil {
		return "", err
	}

	o.log.Info("Synthesized generic speech: %s (%d bytes)", audioKey, len(audioData))

	return audioKey, nil
}

// RegisterSample runs the upload flow: persist the sample, extract its
// speaker embedding, and bind the identity to the sample id. The sample is
// kept even when extraction fails, because the raw upload is independently
// useful; the identity reference is handed back only once both writes
// succeeded.
func (o *Orchestrator) RegisterSample(
	ctx context.Context,
	filename string,
	audio []byte,
) (SampleResult, error) {
	if len(audio) == 0 {
		return SampleResult{}, fmt.Errorf("%w: uploaded file is empty", core.ErrInvalidRequest)
	}

	sampleKey, err := artifact.NewSampleID(filename)
	if err != nil {
		return SampleResult{}, err
	}

	err = o.store.Upload(ctx, sampleKey, audio)
	if err != nil {
		return SampleResult{}, fmt.Errorf("failed to persist sample '%s': %w", sampleKey, err)
	}

	vector, err := o.extractor.Extract(ctx, sampleKey, audio)
	if err != nil {
		if !errors.Is(err, core.ErrExtractionFailed) {
			err = fmt.Errorf("%w: %w", core.ErrExtractionFailed, err)
		}

		o.log.Error("Embedding extraction failed for sample %s: %v", sampleKey, err)

		return SampleResult{}, err
	}

	identityRef, err := o.identities.Store(ctx, sampleKey, vector)
	if err != nil {
		return SampleResult{}, err
	}

	o.log.Info("Registered sample %s with identity %s", sampleKey, identityRef)

	return SampleResult{
		SampleRef:   sampleKey,
		IdentityRef: identityRef,
	}, nil
}

// SynthesizeCustom runs the voice-cloned flow. The identity is resolved
// before any synthesis work, so a stale or fabricated reference is reported
// as core.ErrIdentityNotFound and never as a synthesis failure.
func (o *Orchestrator) SynthesizeCustom(
	ctx context.Context,
	text, language, identityRef string,
) (string, error) {
	text, language, err := validateText(text, language)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(identityRef) == "" {
		return "", fmt.Errorf("%w: identity reference is required", core.ErrInvalidRequest)
	}

	vector, err := o.identities.Load(ctx, identityRef)
	if err != nil {
		return "", err
	}

	audioData, err := o.synthesizeWithSlot(ctx, core.SynthesisRequest{
		Text:     text,
		Language: language,
		Speaker:  vector,
	})
	if err != nil {
		return "", err
	}

	audioKey := artifact.NewCustomID()

	err = o.publishArtifact(ctx, audioKey, audioData)
	if err != nil {
		return "", err
	}

	o.log.Info("Synthesized custom speech: %s (identity %s)", audioKey, identityRef)

	return audioKey, nil
}

// Fetch resolves an artifact reference to its bytes for serving.
func (o *Orchestrator) Fetch(ctx context.Context, ref string) ([]byte, error) {
	data, err := o.store.Download(ctx, ref)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// Cleanup removes every generated speech artifact and reports the count.
// Uploaded samples and stored identities are never matched, so cleanup can
// run frequently without destroying reusable voice identities.
func (o *Orchestrator) Cleanup(ctx context.Context) (int, error) {
	deleted, err := artifact.DeleteMatching(ctx, o.store, artifact.IsGenerated)
	if err != nil {
		o.log.Error("Cleanup removed %d artifacts before failing: %v", deleted, err)

		return deleted, err
	}

	o.log.Info("Cleanup removed %d generated artifacts", deleted)

	return deleted, nil
}

// synthesizeWithSlot runs one engine call inside the bounded slot pool.
func (o *Orchestrator) synthesizeWithSlot(
	ctx context.Context,
	req core.SynthesisRequest,
) ([]byte, error) {
	select {
	case o.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", core.ErrSynthesisFailed, ctx.Err())
	}

	defer func() { <-o.slots }()

	audioData, err := o.engine.Synthesize(ctx, req)
	if err != nil {
		if errors.Is(err, core.ErrSynthesisFailed) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", core.ErrSynthesisFailed, err)
	}

	return audioData, nil
}

// publishArtifact writes synthesized bytes under audioKey and notifies. A
// failed write deletes the key best-effort so no partially-published
// artifact remains readable.
func (o *Orchestrator) publishArtifact(ctx context.Context, audioKey string, data []byte) error {
	err := o.store.Upload(ctx, audioKey, data)
	if err != nil {
		removeErr := o.store.Delete(ctx, audioKey)
		if removeErr != nil {
			o.log.Warn("Failed to discard artifact '%s' after write failure: %v",
				audioKey, removeErr)
		}

		return fmt.Errorf("failed to persist artifact '%s': %w", audioKey, err)
	}

	if o.notifier != nil {
		notifyErr := o.notifier.AudioCreated(audioKey)
		if notifyErr != nil {
			// Notification is fire-and-forget; the artifact is already live.
			o.log.Warn("Failed to publish audio created event for '%s': %v",
				audioKey, notifyErr)
		}
	}

	return nil
}

// validateText applies the shared request validation: text must be
// non-empty after trimming, and the default language fills an absent code.
// Unknown codes are forwarded to the engine unvalidated.
func validateText(text, language string) (string, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", fmt.Errorf("%w: text is required", core.ErrInvalidRequest)
	}

	language = strings.TrimSpace(language)
	if language == "" {
		language = languages.Default
	}

	return text, language, nil
}
