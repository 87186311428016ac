// Package api holds the gin handlers of the public page, the claim flow and
// the dashboard editor.
package api

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thornlink/thorn/backend/internal/middleware"
	"github.com/thornlink/thorn/backend/internal/models"
	"github.com/thornlink/thorn/backend/internal/service"
)

// ProfileFinder looks up published profiles by handle.
type ProfileFinder interface {
	FetchByHandle(ctx context.Context, username string) (*models.Profile, error)
}

// Editor is the dashboard behaviour the handlers depend on.
type Editor interface {
	Claim(ctx context.Context, id service.Identity, username, displayName string) (*models.Profile, error)
	Me(ctx context.Context, id service.Identity) (*models.Profile, error)
	Open(ctx context.Context, id service.Identity) (service.SessionView, error)
	Session(ctx context.Context, id service.Identity) (service.SessionView, error)
	Stage(ctx context.Context, id service.Identity, patch models.ProfilePatch) (service.SessionView, error)
	AddLink(ctx context.Context, id service.Identity, title, url string) (service.SessionView, error)
	RemoveLink(ctx context.Context, id service.Identity, index int) (service.SessionView, error)
	Commit(ctx context.Context, id service.Identity) (service.SessionView, error)
	Discard(ctx context.Context, id service.Identity) error
}

// MediaUploader stores uploaded profile images.
type MediaUploader interface {
	Upload(ctx context.Context, ownerID uuid.UUID, slot service.MediaSlot, r io.Reader) (string, error)
}

var (
	_ Editor        = (*service.EditorService)(nil)
	_ MediaUploader = (*service.MediaService)(nil)
)

// identity returns the caller set by middleware.AuthMiddleware. Routes using
// it are always mounted behind that middleware.
func identity(c *gin.Context) (service.Identity, bool) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return id, ok
}

// bindError turns a request decoding failure into a validation error.
func bindError(err error) error {
	return models.NewValidationError("body", "invalid request body: "+err.Error())
}
