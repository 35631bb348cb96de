package videohttp

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/relai/server/internal/domain/job"
	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/inbound"
	apperrors "github.com/relai/server/internal/utils/errors"
	"github.com/relai/server/internal/utils/response"
)

const (
	videoContentType = "video/mp4"
	acceptedMessage  = "Video generation started"
)

// Handler handles video job HTTP requests.
type Handler struct {
	jobs   inbound.JobDomain
	voices inbound.VoiceCatalog
}

// NewHandler creates a new video handler.
func NewHandler(jobs inbound.JobDomain, voices inbound.VoiceCatalog) *Handler {
	return &Handler{jobs: jobs, voices: voices}
}

// RegisterRoutes registers video routes. guards wrap the generate endpoint
// only, such as rate limiting and idempotency.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guards ...gin.HandlerFunc) {
	r.GET("/voices", h.ListVoices)

	videoGroup := r.Group("/video")
	{
		videoGroup.POST("/generate", append(guards, h.Generate)...)
		videoGroup.GET("/status/:id", h.GetStatus)
		videoGroup.GET("/download/:id", h.Download)
		videoGroup.DELETE("/:id", h.Cancel)
	}
}

// Generate accepts a video job and returns before any provider work starts.
func (h *Handler) Generate(c *gin.Context) {
	var input inbound.GenerateVideoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode, ok := model.ParseVoiceMode(input.VoiceType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown voice_type %q", input.VoiceType)})
		return
	}

	created, err := h.jobs.Submit(c.Request.Context(), &model.GenerationRequest{
		ImageID:   input.UserImageID,
		Prompt:    input.Prompt,
		VoiceMode: mode,
		VoiceID:   input.VoiceFileID,
		Duration:  input.Duration,
	})
	if err != nil {
		handleJobError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, inbound.GenerateVideoOutput{
		VideoID: created.ID,
		Status:  created.State,
		Message: acceptedMessage,
	})
}

// GetStatus returns the job record.
func (h *Handler) GetStatus(c *gin.Context) {
	status, err := h.jobs.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleJobError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// Cancel stops a running job.
func (h *Handler) Cancel(c *gin.Context) {
	cancelled, err := h.jobs.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleJobError(c, err)
		return
	}

	c.JSON(http.StatusOK, cancelled)
}

// Download streams the finished video.
func (h *Handler) Download(c *gin.Context) {
	id := c.Param("id")
	artifact, rc, err := h.jobs.OpenResult(c.Request.Context(), id)
	if err != nil {
		handleDownloadError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="relai_video_%s.mp4"`, id))
	if artifact.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(artifact.Size, 10))
	}
	c.Header("Content-Type", videoContentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		_ = c.Error(fmt.Errorf("stream video %s: %w", id, err))
	}
}

// ListVoices returns the narration voices offered by the speech provider.
func (h *Handler) ListVoices(c *gin.Context) {
	voices, err := h.voices.ListVoices(c.Request.Context())
	if err != nil {
		response.HandleErrorWithDefault(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, inbound.VoicesOutput{Voices: voices})
}

var jobErrors = []response.ErrorMapping{
	{Err: job.ErrImageNotFound, Status: http.StatusNotFound, Code: "IMAGE_NOT_FOUND", Message: "User image not found"},
	{Err: job.ErrVoiceNotFound, Status: http.StatusNotFound, Code: "VOICE_NOT_FOUND", Message: "Voice file not found"},
	{Err: job.ErrJobNotFound, Status: http.StatusNotFound, Code: "VIDEO_NOT_FOUND", Message: "Video not found"},
	{Err: job.ErrJobTerminal, Status: http.StatusConflict, Code: "VIDEO_FINISHED"},
	{Err: job.ErrResultNotReady, Status: http.StatusConflict, Code: "VIDEO_NOT_READY"},
	{Err: job.ErrShuttingDown, Status: http.StatusServiceUnavailable, Code: "SHUTTING_DOWN"},
}

// handleJobError maps job domain errors to HTTP responses.
func handleJobError(c *gin.Context, err error) {
	if errors.Is(err, job.ErrInvalidRequest) {
		response.Error(c, apperrors.ValidationError(err.Error()))
		return
	}
	response.HandleErrorWithDefault(c, err, jobErrors)
}

// handleDownloadError reports a missing or unfinished video as not found.
func handleDownloadError(c *gin.Context, err error) {
	response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
		{Err: job.ErrJobNotFound, Status: http.StatusNotFound, Code: "VIDEO_NOT_FOUND", Message: "Video not found"},
		{Err: job.ErrResultNotReady, Status: http.StatusNotFound, Code: "VIDEO_NOT_FOUND", Message: "Video not found"},
	})
}

// Compile-time interface check
var _ inbound.VideoHttpPort = (*Handler)(nil)
