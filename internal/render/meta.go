package render

import (
	"fmt"
	"strings"

	"github.com/thornlink/thorn/backend/internal/models"
)

// DefaultDescription is used when a profile has no bio.
const DefaultDescription = "Check out my bio link!"

// Meta carries the document title and preview card of a public page.
type Meta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}

func PageMeta(p models.Profile) Meta {
	m := Meta{
		Title:       fmt.Sprintf("%s (@%s)", p.DisplayName, p.Username),
		Description: DefaultDescription,
		Image:       p.AvatarURL,
	}
	if p.Bio != nil && strings.TrimSpace(*p.Bio) != "" {
		m.Description = *p.Bio
	}
	return m
}
