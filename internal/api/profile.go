package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thornlink/thorn/backend/internal/models"
)

// ProfileHandler handles claiming a handle and reading one's own profile.
type ProfileHandler struct {
	editor Editor
}

func NewProfileHandler(editor Editor) *ProfileHandler {
	return &ProfileHandler{editor: editor}
}

// RegisterRoutes mounts the routes behind auth; claimLimit runs before Claim.
func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup, auth, claimLimit gin.HandlerFunc) {
	router.POST("/profiles/claim", auth, claimLimit, h.Claim)
	router.GET("/me", auth, h.Me)
}

type claimRequest struct {
	Username    string `json:"username" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
}

func (h *ProfileHandler) Claim(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	profile, err := h.editor.Claim(c.Request.Context(), id, req.Username, req.DisplayName)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// Me returns the caller's profile. Without one the client is pointed at
// onboarding.
func (h *ProfileHandler) Me(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	profile, err := h.editor.Me(c.Request.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "onboarding": true})
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
