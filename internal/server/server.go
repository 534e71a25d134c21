// Package server maps the orchestrator flows onto the HTTP surface.
package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/book-expert/logger"
	"github.com/gin-gonic/gin"

	"github.com/book-expert/voice-service/internal/core"
	"github.com/book-expert/voice-service/internal/languages"
	"github.com/book-expert/voice-service/internal/orchestrator"
)

const (
	serviceName = "voice-service"

	formFieldAudio = "audio"

	contentTypeWAV    = "audio/wav"
	contentTypeMPEG   = "audio/mpeg"
	contentTypeBinary = "application/octet-stream"

	maxUploadBytes = 32 << 20
)

// Server wires the HTTP routes to the orchestrator.
type Server struct {
	orchestrator *orchestrator.Orchestrator
	log          *logger.Logger
}

// synthesizeRequest is the JSON body of both synthesis endpoints.
type synthesizeRequest struct {
	Text        string `json:"text"`
	Language    string `json:"language"`
	IdentityRef string `json:"identity_ref"`
}

// New creates a server around the given orchestrator.
func New(orch *orchestrator.Orchestrator, log *logger.Logger) *Server {
	return &Server{
		orchestrator: orch,
		log:          log,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = maxUploadBytes

	router.POST("/synthesize", s.handleSynthesize)
	router.POST("/samples", s.handleSampleUpload)
	router.POST("/synthesize-custom", s.handleSynthesizeCustom)
	router.GET("/artifacts/:ref", s.handleArtifact)
	router.GET("/languages", s.handleLanguages)
	router.GET("/health", s.handleHealth)
	router.POST("/cleanup", s.handleCleanup)

	return router
}

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) handleSynthesize(c *gin.Context) {
	var req synthesizeRequest

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be JSON"})

		return
	}

	audioRef, err := s.orchestrator.Synthesize(c.Request.Context(), req.Text, req.Language)
	if err != nil {
		s.writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"audio_ref": audioRef, "kind": orchestrator.KindGeneric})
}

func (s *Server) handleSampleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile(formFieldAudio)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart file field 'audio' is required"})

		return
	}

	if strings.TrimSpace(fileHeader.Filename) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uploaded file has no name"})

		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})

		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})

		return
	}

	result, err := s.orchestrator.RegisterSample(c.Request.Context(), fileHeader.Filename, audio)
	if err != nil {
		s.writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sample_ref":   result.SampleRef,
		"identity_ref": result.IdentityRef,
	})
}

func (s *Server) handleSynthesizeCustom(c *gin.Context) {
	var req synthesizeRequest

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be JSON"})

		return
	}

	audioRef, err := s.orchestrator.SynthesizeCustom(
		c.Request.Context(), req.Text, req.Language, req.IdentityRef)
	if err != nil {
		s.writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"audio_ref": audioRef, "kind": orchestrator.KindCustom})
}

func (s *Server) handleArtifact(c *gin.Context) {
	ref := c.Param("ref")

	data, err := s.orchestrator.Fetch(c.Request.Context(), ref)
	if err != nil {
		s.writeError(c, err)

		return
	}

	c.Data(http.StatusOK, contentTypeFor(ref), data)
}

func (s *Server) handleLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, languages.Supported())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
}

func (s *Server) handleCleanup(c *gin.Context) {
	deleted, err := s.orchestrator.Cleanup(c.Request.Context())
	if err != nil {
		// Deletion is best-effort; report the fault along with the
		// progress made before it.
		s.log.Error("Cleanup failed after removing %d artifacts: %v", deleted, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":         err.Error(),
			"deleted_count": deleted,
		})

		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted_count": deleted})
}

// writeError translates the core taxonomy into a stable status code and a
// structured body. Artifact ids already appear in the error text; request
// payloads never do.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, core.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrIdentityNotFound), errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		s.log.Error("Request failed: %v", err)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// contentTypeFor picks the response content type from the artifact id's
// extension; artifacts are stored as opaque bytes with no recorded type.
func contentTypeFor(ref string) string {
	switch {
	case strings.HasSuffix(ref, ".wav"):
		return contentTypeWAV
	case strings.HasSuffix(ref, ".mp3"):
		return contentTypeMPEG
	default:
		return contentTypeBinary
	}
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
