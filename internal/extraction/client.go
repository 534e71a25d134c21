// Package extraction wraps the external speaker-embedding engine behind the
// core.Extractor interface. The sample audio is posted as multipart form
// data; the engine answers with the embedding vector as JSON.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/book-expert/voice-service/internal/core"
)

const apiExtractEmbedding = "/v1/extract/embedding"

// Form field names.
const (
	formFieldAudio = "audio"
)

const headerContentType = "Content-Type"

// Client calls the embedding-extraction engine over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// engineResponse is the engine's JSON answer.
type engineResponse struct {
	Embedding core.Embedding `json:"embedding"`
}

// NewClient creates an extraction client for the engine at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Extract derives a speaker embedding from sample audio. Corrupt or
// too-short audio, unsupported codecs, and engine faults are all reported
// as core.ErrExtractionFailed carrying the engine's diagnostics; sampleKey
// appears in errors so a failure can be traced without logging audio bytes.
func (c *Client) Extract(
	ctx context.Context,
	sampleKey string,
	audio []byte,
) (core.Embedding, error) {
	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(formFieldAudio, sampleKey)
	if err != nil {
		return nil, fmt.Errorf("%w: create form file for '%s': %w",
			core.ErrExtractionFailed, sampleKey, err)
	}

	_, err = part.Write(audio)
	if err != nil {
		return nil, fmt.Errorf("%w: write sample '%s' to form: %w",
			core.ErrExtractionFailed, sampleKey, err)
	}

	closeErr := writer.Close()
	if closeErr != nil {
		return nil, fmt.Errorf("%w: close multipart writer: %w",
			core.ErrExtractionFailed, closeErr)
	}

	url := c.baseURL + apiExtractEmbedding

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: create engine request: %w", core.ErrExtractionFailed, err)
	}

	req.Header.Set(headerContentType, writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: engine at %s unreachable: %w",
			core.ErrExtractionFailed, c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return nil, fmt.Errorf("%w: engine returned %s for '%s': %s",
			core.ErrExtractionFailed, resp.Status, sampleKey, string(body))
	}

	var engineResp engineResponse

	err = json.NewDecoder(resp.Body).Decode(&engineResp)
	if err != nil {
		return nil, fmt.Errorf("%w: decode engine response: %w", core.ErrExtractionFailed, err)
	}

	if len(engineResp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: engine returned empty embedding for '%s'",
			core.ErrExtractionFailed, sampleKey)
	}

	return engineResp.Embedding, nil
}

// Close is a no-op, kept for lifecycle symmetry with in-process engines.
func (c *Client) Close() error {
	return nil
}
