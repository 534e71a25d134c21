// Package synthesis wraps the external neural synthesis engine behind the
// core.Synthesizer interface. The engine is a standalone HTTP service with a
// JSON-in, WAV-out contract; model loading, caching, and GPU residency are
// its concern, not ours.
package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/book-expert/voice-service/internal/core"
)

// API endpoints and paths.
const (
	apiGenerateSpeech = "/v1/generate/speech"
	apiHealth         = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeWAV    = "audio/wav"
)

// Client calls the synthesis engine over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// engineRequest is the JSON payload sent to the engine. SpeakerEmbedding is
// omitted for default-voice synthesis.
type engineRequest struct {
	Text             string         `json:"text"`
	Language         string         `json:"language"`
	SpeakerEmbedding core.Embedding `json:"speaker_embedding,omitempty"`
}

// engineError is the structured error body the engine returns on failure.
type engineError struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewClient creates a synthesis client for the engine at baseURL. The
// timeout applies to every request, so a hung engine surfaces as a
// synthesis failure rather than a stuck caller.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize sends one generation request and returns the raw WAV bytes.
// Every failure mode, including an unsupported language the engine rejects,
// is reported as core.ErrSynthesisFailed with the engine's diagnostics.
func (c *Client) Synthesize(ctx context.Context, req core.SynthesisRequest) ([]byte, error) {
	requestBody, err := json.Marshal(engineRequest{
		Text:             req.Text,
		Language:         req.Language,
		SpeakerEmbedding: req.Speaker,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal engine request: %w", core.ErrSynthesisFailed, err)
	}

	url := c.baseURL + apiGenerateSpeech

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		url,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create engine request: %w", core.ErrSynthesisFailed, err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeWAV)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: engine at %s unreachable: %w",
			core.ErrSynthesisFailed, c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read engine response: %w", core.ErrSynthesisFailed, err)
	}

	if len(audioData) == 0 {
		return nil, fmt.Errorf("%w: engine returned empty audio", core.ErrSynthesisFailed)
	}

	return audioData, nil
}

// HealthCheck verifies the engine is reachable and reporting healthy.
func (c *Client) HealthCheck(ctx context.Context) error {
	url := c.baseURL + apiHealth

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for engine at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

// Close is a no-op; the HTTP client holds no resources needing release.
// Kept for lifecycle symmetry with in-process engine implementations.
func (c *Client) Close() error {
	return nil
}

// parseErrorResponse decodes the engine's structured error body, falling
// back to the raw body so diagnostics survive non-JSON failures.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var engineErr engineError

	err := json.NewDecoder(resp.Body).Decode(&engineErr)
	if err == nil {
		return fmt.Errorf("%w: engine error (%s): %s (code: %s)",
			core.ErrSynthesisFailed, resp.Status, engineErr.Detail, engineErr.ErrorCode)
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf("%w: engine returned %s: %s",
		core.ErrSynthesisFailed, resp.Status, string(body))
}
