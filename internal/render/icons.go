package render

import "strings"

// IconCategory names the icon drawn next to a link.
type IconCategory string

const (
	IconDiscord   IconCategory = "discord"
	IconTwitter   IconCategory = "twitter"
	IconGitHub    IconCategory = "github"
	IconYouTube   IconCategory = "youtube"
	IconInstagram IconCategory = "instagram"
	IconSpotify   IconCategory = "spotify"
	IconGeneric   IconCategory = "generic-link"
)

// iconTable is matched top to bottom against the lowercased title; the first
// entry with a matching substring wins. Order is significant.
var iconTable = []struct {
	match    string
	category IconCategory
}{
	{"discord", IconDiscord},
	{"twitter", IconTwitter},
	{"x", IconTwitter},
	{"github", IconGitHub},
	{"youtube", IconYouTube},
	{"instagram", IconInstagram},
	{"spotify", IconSpotify},
}

// ResolveIcon infers the icon category of a link from its title.
func ResolveIcon(title string) IconCategory {
	t := strings.ToLower(title)
	for _, entry := range iconTable {
		if strings.Contains(t, entry.match) {
			return entry.category
		}
	}
	return IconGeneric
}
