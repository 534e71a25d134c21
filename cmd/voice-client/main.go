// Command voice-client exercises the voice-service HTTP API: generic
// synthesis, sample upload, voice-cloned synthesis, cleanup, and health.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Flag names.
const (
	flagServer   = "server"
	flagText     = "text"
	flagLanguage = "language"
	flagIdentity = "identity"
	flagSample   = "sample"
	flagOutput   = "output"
	flagHealth   = "health"
	flagCleanup  = "cleanup"
)

// Flag descriptions.
const (
	flagServerDesc   = "Base URL of the voice-service"
	flagTextDesc     = "Text to convert to speech"
	flagLanguageDesc = "Language code (default applied by the service when empty)"
	flagIdentityDesc = "Identity reference for voice-cloned synthesis"
	flagSampleDesc   = "Audio file to upload as a voice sample"
	flagOutputDesc   = "Output file path for downloaded audio"
	flagHealthDesc   = "Check service health and exit"
	flagCleanupDesc  = "Delete generated speech artifacts and exit"
)

const (
	defaultServer     = "http://localhost:8080"
	defaultOutputFile = "output.wav"
	requestTimeout    = 120 * time.Second
)

var errNoAction = errors.New("one of --text, --sample, --health, or --cleanup must be provided")

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	server   string
	text     string
	language string
	identity string
	sample   string
	output   string
	health   bool
	cleanup  bool
}

type synthesizeResponse struct {
	AudioRef string `json:"audio_ref"`
	Kind     string `json:"kind"`
	Error    string `json:"error"`
}

type sampleResponse struct {
	SampleRef   string `json:"sample_ref"`
	IdentityRef string `json:"identity_ref"`
	Error       string `json:"error"`
}

type cleanupResponse struct {
	DeletedCount int    `json:"deleted_count"`
	Error        string `json:"error"`
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()
	client := &http.Client{Timeout: requestTimeout}

	switch {
	case flags.health:
		return checkHealth(client, flags.server)
	case flags.cleanup:
		return runCleanup(client, flags.server)
	case flags.sample != "":
		return uploadSample(client, flags)
	case flags.text != "":
		return synthesize(client, flags)
	default:
		return errNoAction
	}
}

func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.server, flagServer, defaultServer, flagServerDesc)
	flag.StringVar(&flags.text, flagText, "", flagTextDesc)
	flag.StringVar(&flags.language, flagLanguage, "", flagLanguageDesc)
	flag.StringVar(&flags.identity, flagIdentity, "", flagIdentityDesc)
	flag.StringVar(&flags.sample, flagSample, "", flagSampleDesc)
	flag.StringVar(&flags.output, flagOutput, defaultOutputFile, flagOutputDesc)
	flag.BoolVar(&flags.health, flagHealth, false, flagHealthDesc)
	flag.BoolVar(&flags.cleanup, flagCleanup, false, flagCleanupDesc)
	flag.Parse()

	return flags
}

func checkHealth(client *http.Client, server string) error {
	resp, err := client.Get(server + "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service is not healthy: %s", resp.Status)
	}

	fmt.Println("voice-service is healthy")

	return nil
}

func runCleanup(client *http.Client, server string) error {
	resp, err := client.Post(server+"/cleanup", "application/json", http.NoBody)
	if err != nil {
		return fmt.Errorf("cleanup request failed: %w", err)
	}
	defer resp.Body.Close()

	var result cleanupResponse

	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return fmt.Errorf("failed to decode cleanup response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cleanup failed: %s", result.Error)
	}

	fmt.Printf("Deleted %d generated artifacts\n", result.DeletedCount)

	return nil
}

// synthesize requests speech for --text, picking the custom endpoint when
// --identity is set, and downloads the produced artifact to --output.
func synthesize(client *http.Client, flags appFlags) error {
	endpoint := flags.server + "/synthesize"
	if flags.identity != "" {
		endpoint = flags.server + "/synthesize-custom"
	}

	payload, err := json.Marshal(map[string]string{
		"text":         flags.text,
		"language":     flags.language,
		"identity_ref": flags.identity,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	var result synthesizeResponse

	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return fmt.Errorf("failed to decode synthesis response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("synthesis failed (%s): %s", resp.Status, result.Error)
	}

	err = downloadArtifact(client, flags.server, result.AudioRef, flags.output)
	if err != nil {
		return err
	}

	fmt.Printf("Generated %s speech: %s -> %s\n", result.Kind, result.AudioRef, flags.output)

	return nil
}

func uploadSample(client *http.Client, flags appFlags) error {
	data, err := os.ReadFile(flags.sample)
	if err != nil {
		return fmt.Errorf("failed to read sample file: %w", err)
	}

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", filepath.Base(flags.sample))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}

	_, err = part.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write sample data: %w", err)
	}

	err = writer.Close()
	if err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	resp, err := client.Post(flags.server+"/samples", writer.FormDataContentType(), &buf)
	if err != nil {
		return fmt.Errorf("sample upload failed: %w", err)
	}
	defer resp.Body.Close()

	var result sampleResponse

	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return fmt.Errorf("failed to decode upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sample upload failed (%s): %s", resp.Status, result.Error)
	}

	fmt.Printf("Sample stored as %s\n", result.SampleRef)
	fmt.Printf("Identity reference: %s\n", result.IdentityRef)

	return nil
}

func downloadArtifact(client *http.Client, server, ref, outputPath string) error {
	resp, err := client.Get(server + "/artifacts/" + ref)
	if err != nil {
		return fmt.Errorf("failed to download artifact '%s': %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("artifact '%s' not retrievable: %s", ref, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read artifact bytes: %w", err)
	}

	err = os.WriteFile(outputPath, data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}
