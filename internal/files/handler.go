package files

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"file-management-api/internal/shared/server/respond"
	"file-management-api/internal/shared/util"
)

const (
	// DefaultMaxUploadSize applies when the handler is built without a limit.
	DefaultMaxUploadSize = 32 << 20
	// multipartOverhead is the room left in the request body for part headers
	// and boundaries on top of the file limit.
	multipartOverhead = 64 << 10
)

// Handler maps the file routes onto the Uploader and Retriever.
type Handler struct {
	Uploader      *Uploader
	Retriever     *Retriever
	MaxUploadSize int64
}

// NewHandler constructs a Handler.
func NewHandler(uploader *Uploader, retriever *Retriever, maxUploadSize int64) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &Handler{Uploader: uploader, Retriever: retriever, MaxUploadSize: maxUploadSize}
}

// RegisterRoutes attaches the file routes under rg. uploadMiddleware runs
// before the upload handler only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, uploadMiddleware ...gin.HandlerFunc) {
	g := rg.Group("/files")
	g.POST("/:userId/upload", append(uploadMiddleware, h.upload)...)
	g.GET("/:userId", h.list)
	g.GET("/:userId/by-name", h.byName)
	g.GET("/download/:id", h.download)
	// Same lookup as /:userId/by-name; the segment after /download/ is the user id.
	g.GET("/download/:id/by-name", h.downloadByName)
	g.GET("/text/:id", h.text)
}

func (h *Handler) upload(c *gin.Context) {
	userID := c.Param("userId")
	c.Set("userId", userID)
	bodyLimit := h.MaxUploadSize + multipartOverhead
	if c.Request.ContentLength > bodyLimit {
		h.bodyTooLarge(c, bodyLimit)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.bodyTooLarge(c, bodyLimit)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > h.MaxUploadSize {
		respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large",
			"file exceeds the limit of "+strconv.FormatInt(h.MaxUploadSize, 10)+" bytes", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	meta, err := h.Uploader.Upload(c.Request.Context(), UploadInput{
		UserID:      userID,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		writeError(c, err, "failed to upload file")
		return
	}

	c.Set("fileId", meta.ID)
	respond.JSON(c, http.StatusCreated, toResponse(meta))
}

func (h *Handler) list(c *gin.Context) {
	userID := c.Param("userId")
	c.Set("userId", userID)

	records, err := h.Retriever.ListByUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "failed to list files")
		return
	}
	respond.OK(c, toResponses(records))
}

func (h *Handler) byName(c *gin.Context) {
	h.serveByName(c, c.Param("userId"))
}

func (h *Handler) downloadByName(c *gin.Context) {
	h.serveByName(c, c.Param("id"))
}

func (h *Handler) serveByName(c *gin.Context, userID string) {
	c.Set("userId", userID)

	fileName := c.Query("fileName")
	if fileName == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fileName is required", nil)
		return
	}

	dl, err := h.Retriever.GetByUserAndName(c.Request.Context(), userID, fileName)
	if err != nil {
		writeError(c, err, "failed to fetch file")
		return
	}
	sendFile(c, dl)
}

func (h *Handler) download(c *gin.Context) {
	id := c.Param("id")
	c.Set("fileId", id)

	dl, err := h.Retriever.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to fetch file")
		return
	}
	sendFile(c, dl)
}

func (h *Handler) text(c *gin.Context) {
	id := c.Param("id")
	c.Set("fileId", id)

	text, err := h.Retriever.GetExtractedText(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNoContent) {
			c.Status(http.StatusNoContent)
			return
		}
		writeError(c, err, "failed to fetch extracted text")
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (h *Handler) bodyTooLarge(c *gin.Context, limit int64) {
	respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large",
		"request body exceeds the limit of "+strconv.FormatInt(limit, 10)+" bytes", nil)
}

func sendFile(c *gin.Context, dl Download) {
	c.Set("userId", dl.Metadata.UserID)
	c.Set("fileId", dl.Metadata.ID)
	c.Header("Content-Disposition", util.AttachmentDisposition(dl.Metadata.FileName))
	c.Header("Content-Length", strconv.Itoa(len(dl.Data)))
	c.Data(http.StatusOK, "application/octet-stream", dl.Data)
}

func writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
	case errors.Is(err, ErrStoreInconsistency):
		respond.Error(c, http.StatusInternalServerError, "store_inconsistency", "file content is missing from storage", nil)
	case errors.Is(err, ErrUpstreamWrite):
		respond.Error(c, http.StatusBadGateway, "upstream_write_failed", message, nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", message, nil)
	}
}
