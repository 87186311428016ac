package api

import (
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/blake2b"

	"github.com/thornlink/thorn/backend/internal/models"
	"github.com/thornlink/thorn/backend/internal/render"
)

// PublicHandler serves rendered public pages.
type PublicHandler struct {
	profiles ProfileFinder
}

func NewPublicHandler(profiles ProfileFinder) *PublicHandler {
	return &PublicHandler{profiles: profiles}
}

func (h *PublicHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/public/:username", h.GetPage)
}

// GetPage returns the view model of a handle. Unknown handles are a plain
// 404 whatever the reason.
func (h *PublicHandler) GetPage(c *gin.Context) {
	profile, err := h.profiles.FetchByHandle(c.Request.Context(), c.Param("username"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if profile == nil {
		_ = c.Error(&models.NotFoundError{What: "profile"})
		return
	}

	body, err := json.Marshal(render.Render(*profile))
	if err != nil {
		_ = c.Error(err)
		return
	}

	etag := pageETag(body)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "public, max-age=60")
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func pageETag(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
