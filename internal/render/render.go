// Package render turns a stored profile into the view model of its public
// page. Everything here is pure: no I/O and no mutation of the input.
package render

import (
	"strings"

	"github.com/thornlink/thorn/backend/internal/models"
)

// Media kinds of a resolved banner or background.
const (
	KindImage           = "image"
	KindAmbientDefault  = "ambient-default"
	KindGradientDefault = "gradient-default"
)

// Link states of a page.
const (
	LinksPresent = "present"
	LinksEmpty   = "empty"
)

// EmptyLinksPlaceholder is shown instead of an empty link region.
const EmptyLinksPlaceholder = "No links yet."

// Media is a resolved banner or background. URL is set only for KindImage.
type Media struct {
	Kind string `json:"kind"`
	URL  string `json:"url,omitempty"`
}

// LinkView is one rendered link.
type LinkView struct {
	Title string       `json:"title"`
	URL   string       `json:"url"`
	Icon  IconCategory `json:"icon"`
}

// View is the fully resolved public page.
type View struct {
	Username         string     `json:"username"`
	DisplayName      string     `json:"display_name"`
	Bio              string     `json:"bio,omitempty"`
	AvatarURL        string     `json:"avatar_url"`
	Theme            string     `json:"theme"`
	Verified         bool       `json:"verified"`
	Banner           Media      `json:"banner"`
	Background       Media      `json:"background"`
	Links            []LinkView `json:"links"`
	LinksState       string     `json:"links_state"`
	EmptyPlaceholder string     `json:"empty_placeholder,omitempty"`
	Meta             Meta       `json:"meta"`
}

// Render builds the public view of p.
func Render(p models.Profile) View {
	v := View{
		Username:    p.Username,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Theme:       p.Theme,
		Verified:    p.IsVerified,
		Banner:      resolveMedia(p.BannerURL, KindGradientDefault),
		Background:  resolveMedia(p.BackgroundURL, KindAmbientDefault),
		Links:       make([]LinkView, 0, len(p.Links)),
		Meta:        PageMeta(p),
	}
	if v.Theme == "" {
		v.Theme = models.ThemeDark
	}
	if p.Bio != nil {
		v.Bio = *p.Bio
	}

	for _, link := range p.Links.ToOrderedSequence() {
		v.Links = append(v.Links, LinkView{
			Title: link.Title,
			URL:   link.URL,
			Icon:  ResolveIcon(link.Title),
		})
	}

	if len(v.Links) == 0 {
		v.LinksState = LinksEmpty
		v.EmptyPlaceholder = EmptyLinksPlaceholder
	} else {
		v.LinksState = LinksPresent
	}
	return v
}

func resolveMedia(url *string, fallback string) Media {
	if url == nil || strings.TrimSpace(*url) == "" {
		return Media{Kind: fallback}
	}
	return Media{Kind: KindImage, URL: strings.TrimSpace(*url)}
}
