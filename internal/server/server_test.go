// Package server_test tests the HTTP surface end to end against an
// in-memory store and fake engines.
package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/book-expert/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voice-service/internal/artifact"
	"github.com/book-expert/voice-service/internal/core"
	"github.com/book-expert/voice-service/internal/identity"
	"github.com/book-expert/voice-service/internal/orchestrator"
	"github.com/book-expert/voice-service/internal/server"
)

var errEngineDown = errors.New("engine down")

type fakeSynthesizer struct {
	shouldFail bool
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, req core.SynthesisRequest) ([]byte, error) {
	if f.shouldFail {
		return nil, errEngineDown
	}

	return []byte("WAV:" + req.Text), nil
}

func (f *fakeSynthesizer) Close() error { return nil }

type fakeExtractor struct {
	shouldFail bool
}

func (f *fakeExtractor) Extract(_ context.Context, _ string, _ []byte) (core.Embedding, error) {
	if f.shouldFail {
		return nil, fmt.Errorf("%w: unsupported codec", core.ErrExtractionFailed)
	}

	return core.Embedding{1, 2, 3}, nil
}

func (f *fakeExtractor) Close() error { return nil }

type testAPI struct {
	router *gin.Engine
	engine *fakeSynthesizer
	ext    *fakeExtractor
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = testLogger.Close() })

	store := artifact.NewMemoryStore()
	engine := &fakeSynthesizer{}
	ext := &fakeExtractor{}

	orch := orchestrator.New(
		store,
		identity.NewRepository(store),
		engine,
		ext,
		nil,
		4,
		testLogger,
	)

	return &testAPI{
		router: server.New(orch, testLogger).Router(),
		engine: engine,
		ext:    ext,
	}
}

func (a *testAPI) postJSON(t *testing.T, path string, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	a.router.ServeHTTP(recorder, req)

	return recorder
}

func (a *testAPI) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	recorder := httptest.NewRecorder()
	a.router.ServeHTTP(recorder, req)

	return recorder
}

func (a *testAPI) uploadSample(t *testing.T, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", filename)
	require.NoError(t, err)

	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/samples", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	recorder := httptest.NewRecorder()
	a.router.ServeHTTP(recorder, req)

	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any

	err := json.Unmarshal(recorder.Body.Bytes(), &body)
	require.NoError(t, err)

	return body
}

func TestSynthesizeEndpoint_Success(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	recorder := api.postJSON(t, "/synthesize", map[string]string{
		"text":     "hello",
		"language": "en",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, "generic", body["kind"])

	audioRef, ok := body["audio_ref"].(string)
	require.True(t, ok)
	require.NotEmpty(t, audioRef)

	// The returned reference resolves to non-empty bytes.
	artifactResp := api.get(t, "/artifacts/"+audioRef)
	require.Equal(t, http.StatusOK, artifactResp.Code)
	assert.Equal(t, "audio/wav", artifactResp.Header().Get("Content-Type"))
	assert.Equal(t, "WAV:hello", artifactResp.Body.String())
}

func TestSynthesizeEndpoint_EmptyTextIsBadRequest(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	recorder := api.postJSON(t, "/synthesize", map[string]string{"text": ""})
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Contains(t, body, "error")
}

func TestSynthesizeEndpoint_EngineFailureIsServerError(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	api.engine.shouldFail = true

	recorder := api.postJSON(t, "/synthesize", map[string]string{"text": "hello"})
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestArtifactEndpoint_UnknownIsNotFound(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	recorder := api.get(t, "/artifacts/tts_missing.wav")
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestSamplesEndpoint_Success(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	recorder := api.uploadSample(t, "my-voice.wav", []byte("riff bytes"))
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)

	sampleRef, ok := body["sample_ref"].(string)
	require.True(t, ok)
	require.NotEmpty(t, sampleRef)

	identityRef, ok := body["identity_ref"].(string)
	require.True(t, ok)
	require.NotEmpty(t, identityRef)

	// Both references are independently resolvable.
	sampleResp := api.get(t, "/artifacts/"+sampleRef)
	require.Equal(t, http.StatusOK, sampleResp.Code)
	assert.Equal(t, "riff bytes", sampleResp.Body.String())

	identityResp := api.get(t, "/artifacts/"+identityRef)
	require.Equal(t, http.StatusOK, identityResp.Code)
}

func TestSamplesEndpoint_MissingFileIsBadRequest(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/samples", strings.NewReader(""))
	recorder := httptest.NewRecorder()
	api.router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestSamplesEndpoint_ExtractionFailureIsServerError(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	api.ext.shouldFail = true

	recorder := api.uploadSample(t, "short.wav", []byte("x"))
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestSynthesizeCustomEndpoint_RoundTrip(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	uploadResp := api.uploadSample(t, "voice.wav", []byte("riff"))
	require.Equal(t, http.StatusOK, uploadResp.Code)

	identityRef, ok := decodeBody(t, uploadResp)["identity_ref"].(string)
	require.True(t, ok)

	recorder := api.postJSON(t, "/synthesize-custom", map[string]string{
		"text":         "cloned speech",
		"language":     "en",
		"identity_ref": identityRef,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, "custom", body["kind"])

	audioRef, ok := body["audio_ref"].(string)
	require.True(t, ok)

	artifactResp := api.get(t, "/artifacts/"+audioRef)
	require.Equal(t, http.StatusOK, artifactResp.Code)
	assert.NotEmpty(t, artifactResp.Body.Bytes())
}

func TestSynthesizeCustomEndpoint_StaleIdentityIsNotFound(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	recorder := api.postJSON(t, "/synthesize-custom", map[string]string{
		"text":         "hello",
		"identity_ref": "sample_gone.wav.embedding.json",
	})
	require.Equal(t, http.StatusNotFound, recorder.Code)

	body := decodeBody(t, recorder)
	errMsg, ok := body["error"].(string)
	require.True(t, ok)
	assert.Contains(t, errMsg, "identity not found")
}

func TestLanguagesEndpoint(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	recorder := api.get(t, "/languages")
	require.Equal(t, http.StatusOK, recorder.Code)

	var catalog map[string]string

	err := json.Unmarshal(recorder.Body.Bytes(), &catalog)
	require.NoError(t, err)
	assert.Equal(t, "English", catalog["en"])
	assert.Len(t, catalog, 12)
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	recorder := api.get(t, "/health")
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, "healthy", body["status"])
}

func TestCleanupEndpoint(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	uploadResp := api.uploadSample(t, "voice.wav", []byte("riff"))
	require.Equal(t, http.StatusOK, uploadResp.Code)

	uploadBody := decodeBody(t, uploadResp)
	sampleRef := uploadBody["sample_ref"].(string)
	identityRef := uploadBody["identity_ref"].(string)

	synthResp := api.postJSON(t, "/synthesize", map[string]string{"text": "hello"})
	require.Equal(t, http.StatusOK, synthResp.Code)

	audioRef := decodeBody(t, synthResp)["audio_ref"].(string)

	cleanupReq := httptest.NewRequest(http.MethodPost, "/cleanup", http.NoBody)
	cleanupRec := httptest.NewRecorder()
	api.router.ServeHTTP(cleanupRec, cleanupReq)
	require.Equal(t, http.StatusOK, cleanupRec.Code)

	count, ok := decodeBody(t, cleanupRec)["deleted_count"].(float64)
	require.True(t, ok)
	assert.Equal(t, float64(1), count)

	// Generated output is gone; the sample and identity survive.
	assert.Equal(t, http.StatusNotFound, api.get(t, "/artifacts/"+audioRef).Code)
	assert.Equal(t, http.StatusOK, api.get(t, "/artifacts/"+sampleRef).Code)
	assert.Equal(t, http.StatusOK, api.get(t, "/artifacts/"+identityRef).Code)
}
