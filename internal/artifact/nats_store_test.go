package artifact_test

import (
	"context"
	"testing"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voice-service/internal/artifact"
	"github.com/book-expert/voice-service/internal/core"
)

// startTestServer starts an in-memory NATS server for testing purposes.
func startTestServer(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	opts.JetStream = true
	natsServer := test.RunServer(&opts)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	return natsServer, natsConnection
}

func newTestStore(t *testing.T, bucket string) *artifact.NATSStore {
	t.Helper()

	natsServer, natsConnection := startTestServer(t)
	t.Cleanup(func() {
		natsConnection.Close()
		natsServer.Shutdown()
	})

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	store, err := artifact.NewNATSStore(jetstreamContext, bucket)
	require.NoError(t, err)

	return store
}

func TestNATSStore_UploadDownload(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, "artifact-roundtrip")
	ctx := context.Background()

	key := artifact.NewGenericID()
	uploadData := []byte("synthesized waveform bytes")

	err := store.Upload(ctx, key, uploadData)
	require.NoError(t, err)

	downloadData, err := store.Download(ctx, key)
	require.NoError(t, err)
	require.Equal(t, uploadData, downloadData)
}

func TestNATSStore_DownloadUnknownIsNotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, "artifact-missing")

	_, err := store.Download(context.Background(), "tts_never-written.wav")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestNATSStore_DeleteAlreadyGoneSucceeds(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, "artifact-delete")
	ctx := context.Background()

	key := artifact.NewCustomID()
	require.NoError(t, store.Upload(ctx, key, []byte("audio")))

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))

	_, err := store.Download(ctx, key)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestNATSStore_List(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, "artifact-list")
	ctx := context.Background()

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	first := artifact.NewGenericID()
	second := artifact.NewCustomID()
	require.NoError(t, store.Upload(ctx, first, []byte("a")))
	require.NoError(t, store.Upload(ctx, second, []byte("b")))

	keys, err = store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first, second}, keys)
}

func TestNATSStore_ReuploadOverwrites(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, "artifact-overwrite")
	ctx := context.Background()

	key := "sample_voice_fixed.wav.embedding.json"
	require.NoError(t, store.Upload(ctx, key, []byte("old")))
	require.NoError(t, store.Upload(ctx, key, []byte("new")))

	data, err := store.Download(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)
}
