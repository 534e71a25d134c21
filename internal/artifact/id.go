// Package artifact implements the artifact store: collision-resistant id
// allocation, blob persistence, and predicate-based bulk deletion for
// synthesized speech outputs, uploaded voice samples, and identity records.
package artifact

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/book-expert/voice-service/internal/core"
)

// Artifact id prefixes. The kind of an artifact is carried in its id so no
// separate index is needed to tell generated output from uploaded samples.
const (
	genericPrefix = "tts_"
	customPrefix  = "custom_"
	samplePrefix  = "sample_"
)

const (
	wavExtension           = ".wav"
	invalidCharReplacement = "_"
	maxSampleBaseLength    = 64
)

// NewGenericID allocates a fresh id for a generic speech artifact. Ids are
// uuid-backed, so concurrent allocation from any number of callers never
// requires a shared counter.
func NewGenericID() string {
	return genericPrefix + uuid.NewString() + wavExtension
}

// NewCustomID allocates a fresh id for a voice-cloned speech artifact.
func NewCustomID() string {
	return customPrefix + uuid.NewString() + wavExtension
}

// NewSampleID folds a sanitized form of the uploaded filename into a fresh
// uploaded-sample id, keeping the id human-readable while remaining unique.
// Filenames that reduce to nothing after sanitization are invalid input.
func NewSampleID(filename string) (string, error) {
	base, ext, err := sanitizeUploadName(filename)
	if err != nil {
		return "", err
	}

	return samplePrefix + base + "_" + uuid.NewString() + ext, nil
}

// IsGenerated reports whether id names a synthesized speech output
// (generic or custom). Cleanup removes exactly this class.
func IsGenerated(id string) bool {
	return strings.HasPrefix(id, genericPrefix) || strings.HasPrefix(id, customPrefix)
}

// IsSample reports whether id names an uploaded voice sample.
func IsSample(id string) bool {
	return strings.HasPrefix(id, samplePrefix)
}

// sanitizeUploadName strips directory components from a client-supplied
// filename and replaces characters that could collide with store internals.
// It returns the cleaned base name and the original extension.
func sanitizeUploadName(filename string) (string, string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return "", "", fmt.Errorf("%w: unusable filename %q", core.ErrInvalidRequest, filename)
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	replacer := strings.NewReplacer(
		"<", invalidCharReplacement,
		">", invalidCharReplacement,
		":", invalidCharReplacement,
		"\"", invalidCharReplacement,
		"/", invalidCharReplacement,
		"\\", invalidCharReplacement,
		"|", invalidCharReplacement,
		"?", invalidCharReplacement,
		"*", invalidCharReplacement,
		" ", invalidCharReplacement,
	)
	base = replacer.Replace(base)
	base = strings.Trim(base, "._")

	if base == "" {
		return "", "", fmt.Errorf("%w: filename %q reduces to nothing after sanitization",
			core.ErrInvalidRequest, filename)
	}

	if len(base) > maxSampleBaseLength {
		// Back up to a rune boundary so the id stays valid UTF-8.
		cut := maxSampleBaseLength
		for cut > 0 && !utf8.RuneStart(base[cut]) {
			cut--
		}

		base = base[:cut]
	}

	if ext == "." || ext == "" {
		ext = wavExtension
	} else {
		ext = "." + replacer.Replace(strings.TrimPrefix(ext, "."))
	}

	return base, ext, nil
}
