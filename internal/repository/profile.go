// Package repository is the boundary between the profile model and durable
// storage. Every failure of the underlying database is reported as a
// models.TransportError, and uniqueness violations as models.ConflictError.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thornlink/thorn/backend/internal/database"
	"github.com/thornlink/thorn/backend/internal/models"
)

// ProfileStore is the persistence capability the editor and the public page
// depend on.
type ProfileStore interface {
	FetchByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Profile, error)
	FetchByHandle(ctx context.Context, username string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Save(ctx context.Context, profile *models.Profile) error
}

// mutableColumns are the columns an upsert may overwrite. Identity columns
// are written only on insert.
var mutableColumns = []string{
	"display_name",
	"bio",
	"banner_url",
	"background_url",
	"theme",
	"links",
	"updated_at",
}

// ProfileRepository stores profiles in the profiles table.
type ProfileRepository struct {
	db *gorm.DB
}

// Ensure ProfileRepository implements ProfileStore
var _ ProfileStore = (*ProfileRepository)(nil)

// NewProfileRepository creates a new ProfileRepository instance
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FetchByOwner returns the profile owned by ownerID, or nil if the identity
// has not claimed one yet.
func (r *ProfileRepository) FetchByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("id = ?", ownerID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("fetch profile by owner", err)
	}
	return &profile, nil
}

// FetchByHandle returns the profile with the given handle, matched
// case-insensitively, or nil if there is none.
func (r *ProfileRepository) FetchByHandle(ctx context.Context, username string) (*models.Profile, error) {
	handle := models.NormalizeUsername(username)
	if handle == "" {
		return nil, nil
	}

	var profile models.Profile
	err := r.db.WithContext(ctx).Where("LOWER(username) = ?", handle).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("fetch profile by handle", err)
	}
	return &profile, nil
}

// Create inserts a freshly claimed profile.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	now := database.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if profile.Links == nil {
		profile.Links = models.LinkList{}
	}

	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return classify("create profile", err)
	}
	return nil
}

// Save writes the whole record in one statement, inserting it if missing.
// username, avatar_url and is_verified of an existing row are kept.
// UpdatedAt on profile is stamped with the write time.
func (r *ProfileRepository) Save(ctx context.Context, profile *models.Profile) error {
	rec := profile.Clone()
	rec.UpdatedAt = database.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(mutableColumns),
	}).Create(&rec).Error
	if err != nil {
		return classify("save profile", err)
	}

	profile.CreatedAt = rec.CreatedAt
	profile.UpdatedAt = rec.UpdatedAt
	return nil
}

// SetVerified flips the verified badge. It is an operator action and is
// never reachable from the editor.
func (r *ProfileRepository) SetVerified(ctx context.Context, ownerID uuid.UUID, verified bool) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", ownerID).
		Updates(map[string]interface{}{"is_verified": verified, "updated_at": database.Now()})
	if res.Error != nil {
		return classify("set verified", res.Error)
	}
	if res.RowsAffected == 0 {
		return &models.NotFoundError{What: "profile"}
	}
	return nil
}

func classify(op string, err error) error {
	if ok, reason := uniqueViolation(err); ok {
		return &models.ConflictError{Reason: reason}
	}
	return &models.TransportError{Op: op, Err: err}
}

// uniqueViolation reports whether err is a unique index violation and which
// rule it broke: the primary key (one profile per identity) or the handle.
func uniqueViolation(err error) (bool, string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code != "23505" {
			return false, ""
		}
		if pqErr.Constraint == "profiles_pkey" {
			return true, models.ReasonAlreadyClaimed
		}
		return true, models.ReasonUsernameTaken
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		if strings.Contains(msg, "profiles.id") {
			return true, models.ReasonAlreadyClaimed
		}
		return true, models.ReasonUsernameTaken
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true, models.ReasonUsernameTaken
	}
	return false, ""
}
