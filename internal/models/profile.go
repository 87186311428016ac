package models

import (
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Themes a profile can request. The renderer treats the value as a hint.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// MaxUsernameLength bounds a handle so it stays usable as a URL segment.
const MaxUsernameLength = 32

var knownThemes = map[string]bool{
	ThemeDark:  true,
	ThemeLight: true,
}

// Profile is the public page of one identity.
type Profile struct {
	ID            uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	Username      string    `gorm:"size:32;not null;uniqueIndex" json:"username"`
	DisplayName   string    `gorm:"size:255;not null" json:"display_name"`
	Bio           *string   `gorm:"type:text" json:"bio"`
	AvatarURL     string    `gorm:"size:1024;not null" json:"avatar_url"`
	BannerURL     *string   `gorm:"size:1024" json:"banner_url"`
	BackgroundURL *string   `gorm:"size:1024" json:"background_url"`
	Theme         string    `gorm:"size:32;not null;default:'dark'" json:"theme"`
	IsVerified    bool      `gorm:"not null;default:false" json:"is_verified"`
	Links         LinkList  `gorm:"type:jsonb;not null;default:'[]'" json:"links"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for Profile
func (Profile) TableName() string {
	return "profiles"
}

// ProfilePatch carries the owner-editable fields. A nil field is left as is.
// Identity fields (id, username, avatar_url, is_verified) have no place here,
// so payloads that carry them have those keys dropped during decoding.
type ProfilePatch struct {
	DisplayName   *string     `json:"display_name,omitempty"`
	Bio           *string     `json:"bio,omitempty"`
	BannerURL     *string     `json:"banner_url,omitempty"`
	BackgroundURL *string     `json:"background_url,omitempty"`
	Theme         *string     `json:"theme,omitempty"`
	Links         *[]LinkItem `json:"links,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.DisplayName == nil && p.Bio == nil && p.BannerURL == nil &&
		p.BackgroundURL == nil && p.Theme == nil && p.Links == nil
}

// NormalizeUsername lowercases a handle and strips every whitespace rune.
func NormalizeUsername(username string) string {
	var b strings.Builder
	b.Grow(len(username))
	for _, r := range username {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func validateUsername(username string) error {
	if username == "" {
		return NewValidationError("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return NewValidationError("username", "username must be at most 32 characters")
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
		default:
			return NewValidationError("username", "username may only contain letters, digits, '.', '_' and '-'")
		}
	}
	return nil
}

// NewProfile builds the record created when an identity claims a handle.
func NewProfile(ownerID uuid.UUID, username, displayName, avatarURL string) (*Profile, error) {
	if ownerID == uuid.Nil {
		return nil, NewValidationError("id", "owner id is required")
	}
	username = NormalizeUsername(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, NewValidationError("display_name", "display name is required")
	}
	avatarURL = strings.TrimSpace(avatarURL)
	if avatarURL == "" {
		return nil, NewValidationError("avatar_url", "identity has no avatar")
	}

	return &Profile{
		ID:          ownerID,
		Username:    username,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		Theme:       ThemeDark,
		IsVerified:  false,
		Links:       LinkList{},
	}, nil
}

// Validate checks the owner-editable invariants of a record.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.DisplayName) == "" {
		return NewValidationError("display_name", "display name is required")
	}
	if !knownThemes[p.Theme] {
		return NewValidationError("theme", "unknown theme "+p.Theme)
	}
	for _, link := range p.Links {
		if err := link.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the record.
func (p Profile) Clone() Profile {
	out := p
	out.Bio = cloneString(p.Bio)
	out.BannerURL = cloneString(p.BannerURL)
	out.BackgroundURL = cloneString(p.BackgroundURL)
	out.Links = p.Links.Clone()
	return out
}

// SameContent reports whether both records carry the same owner-editable
// fields. Bookkeeping timestamps are not compared.
func (p Profile) SameContent(o Profile) bool {
	return p.ID == o.ID &&
		p.DisplayName == o.DisplayName &&
		equalString(p.Bio, o.Bio) &&
		equalString(p.BannerURL, o.BannerURL) &&
		equalString(p.BackgroundURL, o.BackgroundURL) &&
		p.Theme == o.Theme &&
		slices.Equal(p.Links, o.Links)
}

// WithUpdatedFields returns a copy of p with the patch applied. The receiver
// is not modified. Empty strings clear optional fields.
func (p Profile) WithUpdatedFields(patch ProfilePatch) Profile {
	out := p.Clone()

	if patch.DisplayName != nil {
		out.DisplayName = strings.TrimSpace(*patch.DisplayName)
	}
	if patch.Bio != nil {
		out.Bio = optionalText(*patch.Bio)
	}
	if patch.BannerURL != nil {
		out.BannerURL = optionalURL(*patch.BannerURL)
	}
	if patch.BackgroundURL != nil {
		out.BackgroundURL = optionalURL(*patch.BackgroundURL)
	}
	if patch.Theme != nil {
		out.Theme = strings.ToLower(strings.TrimSpace(*patch.Theme))
	}
	if patch.Links != nil {
		out.Links = LinkList(*patch.Links).Normalized()
	}

	return out
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// optionalText keeps inner newlines of free text but clears blank values.
func optionalText(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func optionalURL(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
