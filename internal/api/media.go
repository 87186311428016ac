package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thornlink/thorn/backend/internal/models"
	"github.com/thornlink/thorn/backend/internal/service"
)

// MediaHandler accepts banner and background uploads and stages the stored
// image into the caller's session.
type MediaHandler struct {
	uploader MediaUploader
	editor   Editor
}

func NewMediaHandler(uploader MediaUploader, editor Editor) *MediaHandler {
	return &MediaHandler{uploader: uploader, editor: editor}
}

func (h *MediaHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	router.POST("/editor/media/:slot", auth, h.Upload)
}

type uploadResponse struct {
	URL     string              `json:"url"`
	Session service.SessionView `json:"session"`
}

func (h *MediaHandler) Upload(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	slot, err := service.ParseMediaSlot(c.Param("slot"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxMediaSize+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(models.NewValidationError("file", "multipart field \"file\" is required and must be at most 5 MiB"))
		return
	}
	if fh.Size > service.MaxMediaSize {
		_ = c.Error(models.NewValidationError("file", "file exceeds 5 MiB"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer f.Close()

	url, err := h.uploader.Upload(c.Request.Context(), id.OwnerID, slot, f)
	if err != nil {
		_ = c.Error(err)
		return
	}

	view, err := h.editor.Stage(c.Request.Context(), id, slot.Patch(url))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, uploadResponse{URL: url, Session: view})
}
