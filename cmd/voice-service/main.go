// main package for the voice-service
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/voice-service/internal/artifact"
	"github.com/book-expert/voice-service/internal/config"
	"github.com/book-expert/voice-service/internal/extraction"
	"github.com/book-expert/voice-service/internal/identity"
	"github.com/book-expert/voice-service/internal/notify"
	"github.com/book-expert/voice-service/internal/orchestrator"
	"github.com/book-expert/voice-service/internal/server"
	"github.com/book-expert/voice-service/internal/synthesis"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "voice-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return serve(cfg, finalLog)
}

// serve wires the store, repositories, engine adapters, and the HTTP
// surface, then blocks serving requests.
func serve(cfg *config.Config, log *logger.Logger) error {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := artifact.NewNATSStore(jetstreamContext, cfg.NATS.ArtifactBucket)
	if err != nil {
		return fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	identities := identity.NewRepository(store)

	engine := synthesis.NewClient(
		cfg.Synthesis.BaseURL,
		time.Duration(cfg.Synthesis.TimeoutSeconds)*time.Second,
	)

	defer func() {
		closeErr := engine.Close()
		if closeErr != nil {
			log.Warn("Failed to close synthesis engine: %v", closeErr)
		}
	}()

	extractor := extraction.NewClient(
		cfg.Extraction.BaseURL,
		time.Duration(cfg.Extraction.TimeoutSeconds)*time.Second,
	)

	defer func() {
		closeErr := extractor.Close()
		if closeErr != nil {
			log.Warn("Failed to close extraction engine: %v", closeErr)
		}
	}()

	notifier := notify.NewPublisher(natsConnection, cfg.NATS.AudioCreatedSubject)

	orch := orchestrator.New(
		store,
		identities,
		engine,
		extractor,
		notifier,
		cfg.Synthesis.Workers,
		log,
	)

	api := server.New(orch, log)

	log.System("voice-service listening on %s", cfg.HTTP.ListenAddress)

	err = api.Run(cfg.HTTP.ListenAddress)
	if err != nil {
		return fmt.Errorf("http server failed: %w", err)
	}

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
