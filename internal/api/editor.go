package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thornlink/thorn/backend/internal/models"
	"github.com/thornlink/thorn/backend/internal/service"
)

// EditorHandler exposes the edit session of the caller.
type EditorHandler struct {
	editor Editor
}

func NewEditorHandler(editor Editor) *EditorHandler {
	return &EditorHandler{editor: editor}
}

// RegisterRoutes mounts the session routes behind auth; commitLimit runs
// before Commit.
func (h *EditorHandler) RegisterRoutes(router *gin.RouterGroup, auth, commitLimit gin.HandlerFunc) {
	session := router.Group("/editor/session")
	session.Use(auth)
	{
		session.POST("", h.Open)
		session.GET("", h.Get)
		session.PATCH("", h.Stage)
		session.DELETE("", h.Discard)
		session.POST("/links", h.AddLink)
		session.DELETE("/links/:index", h.RemoveLink)
		session.POST("/commit", commitLimit, h.Commit)
	}
}

func (h *EditorHandler) respond(c *gin.Context, view service.SessionView, err error) {
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *EditorHandler) Open(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	view, err := h.editor.Open(c.Request.Context(), id)
	h.respond(c, view, err)
}

func (h *EditorHandler) Get(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	view, err := h.editor.Session(c.Request.Context(), id)
	h.respond(c, view, err)
}

// Stage merges a partial profile into the working copy. Identity fields in
// the body are ignored; a body with nothing else returns the session as is.
func (h *EditorHandler) Stage(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	var patch models.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		_ = c.Error(bindError(err))
		return
	}
	if patch.IsEmpty() {
		view, err := h.editor.Session(c.Request.Context(), id)
		h.respond(c, view, err)
		return
	}

	view, err := h.editor.Stage(c.Request.Context(), id, patch)
	h.respond(c, view, err)
}

type addLinkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

func (h *EditorHandler) AddLink(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	var req addLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	view, err := h.editor.AddLink(c.Request.Context(), id, req.Title, req.URL)
	h.respond(c, view, err)
}

func (h *EditorHandler) RemoveLink(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		_ = c.Error(models.NewValidationError("index", "index must be an integer"))
		return
	}

	view, err := h.editor.RemoveLink(c.Request.Context(), id, index)
	h.respond(c, view, err)
}

// Commit saves the working copy. When storage fails the session, with its
// working copy intact, is returned as the error detail.
func (h *EditorHandler) Commit(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	view, err := h.editor.Commit(c.Request.Context(), id)
	if err != nil {
		ginErr := c.Error(err)
		if errors.Is(err, models.ErrTransport) {
			ginErr.SetMeta(view)
		}
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *EditorHandler) Discard(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	if err := h.editor.Discard(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
