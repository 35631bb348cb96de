package mediahttp

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/relai/server/internal/domain/media"
	"github.com/relai/server/internal/model"
	"github.com/relai/server/internal/port/inbound"
	"github.com/relai/server/internal/utils/response"
)

const formField = "file"

// ErrUploadTooLarge is returned when an upload exceeds the size limit.
var ErrUploadTooLarge = errors.New("file too large")

// Handler handles upload HTTP requests.
type Handler struct {
	domain   inbound.MediaDomain
	maxBytes int64
}

// NewHandler creates a new upload handler. maxBytes <= 0 disables the limit.
func NewHandler(domain inbound.MediaDomain, maxBytes int64) *Handler {
	return &Handler{domain: domain, maxBytes: maxBytes}
}

// RegisterRoutes registers upload routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	upload := r.Group("/upload")
	{
		upload.POST("/image", h.UploadImage)
		upload.POST("/voice", h.UploadVoice)
	}
}

// UploadImage stores the reference photo for a video.
func (h *Handler) UploadImage(c *gin.Context) {
	h.upload(c, model.MediaCategoryImage, "File must be an image", "Image uploaded successfully")
}

// UploadVoice stores a voice sample for narration or cloning.
func (h *Handler) UploadVoice(c *gin.Context) {
	h.upload(c, model.MediaCategoryVoice, "File must be an audio file", "Voice uploaded successfully")
}

func (h *Handler) upload(c *gin.Context, category model.MediaCategory, typeMessage, okMessage string) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	header, err := c.FormFile(formField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleUploadError(c, ErrUploadTooLarge, typeMessage)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	data, err := readFormFile(header)
	if err != nil {
		handleUploadError(c, err, typeMessage)
		return
	}

	artifact, err := h.domain.Save(c.Request.Context(), &inbound.SaveMediaInput{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
		Category:    category,
	})
	if err != nil {
		handleUploadError(c, err, typeMessage)
		return
	}

	c.JSON(http.StatusOK, inbound.UploadOutput{
		FileID:   artifact.ID,
		Filename: header.Filename,
		Message:  okMessage,
	})
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

// handleUploadError maps media domain errors to HTTP responses.
func handleUploadError(c *gin.Context, err error, typeMessage string) {
	response.HandleErrorWithDefault(c, err, []response.ErrorMapping{
		{Err: media.ErrInvalidMediaType, Status: http.StatusBadRequest, Code: "INVALID_MEDIA_TYPE", Message: typeMessage},
		{Err: media.ErrEmptyMedia, Status: http.StatusBadRequest, Code: "EMPTY_FILE"},
		{Err: ErrUploadTooLarge, Status: http.StatusRequestEntityTooLarge, Code: "FILE_TOO_LARGE"},
	})
}

// Compile-time interface check
var _ inbound.MediaHttpPort = (*Handler)(nil)
