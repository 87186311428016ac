package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thornlink/thorn/backend/internal/logging"
	"github.com/thornlink/thorn/backend/internal/mocks"
	"github.com/thornlink/thorn/backend/internal/models"
	"github.com/thornlink/thorn/backend/internal/repository"
	"github.com/thornlink/thorn/backend/internal/service"
)

func newEditor(t *testing.T, store repository.ProfileStore) *service.EditorService {
	t.Helper()
	return service.NewEditorService(store, service.NewMemoryDraftStore(time.Hour), logging.Nop{})
}

func identity() service.Identity {
	return service.Identity{OwnerID: uuid.New(), AvatarURL: "https://cdn.example.com/avatar.png"}
}

func TestEditorClaim(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	editor := newEditor(t, repo)
	id := identity()

	p, err := editor.Claim(ctx, id, " Ghost ", "Ghost")
	require.NoError(t, err)
	assert.Equal(t, "ghost", p.Username)
	assert.Equal(t, id.OwnerID, p.ID)
	assert.Equal(t, id.AvatarURL, p.AvatarURL)

	me, err := editor.Me(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, p.ID, me.ID)

	// second claim by the same identity
	_, err = editor.Claim(ctx, id, "other", "Ghost")
	require.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, models.ReasonAlreadyClaimed, err.Error())

	// handle taken, compared case-insensitively
	_, err = editor.Claim(ctx, identity(), "GHOST", "Someone")
	require.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, models.ReasonUsernameTaken, err.Error())

	_, err = editor.Claim(ctx, identity(), "", "Someone")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = editor.Claim(ctx, identity(), "ghost/../admin", "Someone")
	assert.ErrorIs(t, err, models.ErrValidation)

	// an identity without an avatar cannot claim
	_, err = editor.Claim(ctx, service.Identity{OwnerID: uuid.New()}, "casper", "Casper")
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "avatar_url", verr.Field)
}

func TestEditorMeWithoutProfile(t *testing.T) {
	editor := newEditor(t, newRepo(t))

	_, err := editor.Me(context.Background(), identity())
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = editor.Session(context.Background(), identity())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestEditorClaimRaceLosesOnUniqueIndex(t *testing.T) {
	store := new(mocks.MockProfileStore)
	editor := newEditor(t, store)
	id := identity()

	store.On("FetchByOwner", mock.Anything, id.OwnerID).Return(nil, nil)
	store.On("FetchByHandle", mock.Anything, "ghost").Return(nil, nil)
	store.On("Create", mock.Anything, mock.AnythingOfType("*models.Profile")).
		Return(&models.ConflictError{Reason: models.ReasonUsernameTaken})

	_, err := editor.Claim(context.Background(), id, "ghost", "Ghost")
	assert.ErrorIs(t, err, models.ErrConflict)
	store.AssertExpectations(t)
}

func TestEditorSessionAcrossRequests(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	editor := newEditor(t, repo)
	id := identity()
	_, err := editor.Claim(ctx, id, "ghost", "Ghost")
	require.NoError(t, err)

	view, err := editor.AddLink(ctx, id, "GitHub", "https://github.com/ghost")
	require.NoError(t, err)
	assert.True(t, view.Dirty)

	view, err = editor.Stage(ctx, id, models.ProfilePatch{Bio: strPtr("boo")})
	require.NoError(t, err)
	assert.Len(t, view.Working.Links, 1)

	_, err = editor.RemoveLink(ctx, id, 3)
	assert.ErrorIs(t, err, models.ErrIndex)

	view, err = editor.Session(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "boo", *view.Working.Bio)
	assert.Len(t, view.Working.Links, 1)

	view, err = editor.Commit(ctx, id)
	require.NoError(t, err)
	assert.False(t, view.Dirty)

	stored, err := repo.FetchByOwner(ctx, id.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, "boo", *stored.Bio)
	assert.Len(t, stored.Links, 1)
}

func TestEditorOpenAndDiscardDropDraft(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	editor := newEditor(t, repo)
	id := identity()
	_, err := editor.Claim(ctx, id, "ghost", "Ghost")
	require.NoError(t, err)

	_, err = editor.AddLink(ctx, id, "GitHub", "https://github.com/ghost")
	require.NoError(t, err)

	view, err := editor.Open(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, view.Working.Links)

	_, err = editor.AddLink(ctx, id, "GitHub", "https://github.com/ghost")
	require.NoError(t, err)
	require.NoError(t, editor.Discard(ctx, id))

	view, err = editor.Session(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, view.Working.Links)
	assert.False(t, view.Dirty)
}

func TestEditorCommitFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	store := &flakyStore{ProfileStore: repo}
	editor := newEditor(t, store)
	id := identity()
	_, err := editor.Claim(ctx, id, "ghost", "Ghost")
	require.NoError(t, err)

	_, err = editor.AddLink(ctx, id, "Spotify", "https://s")
	require.NoError(t, err)

	store.failNextSave()
	view, err := editor.Commit(ctx, id)
	require.ErrorIs(t, err, models.ErrTransport)
	assert.Equal(t, service.StateFailed, view.State)
	assert.Len(t, view.Working.Links, 1)

	view, err = editor.Session(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, service.StateFailed, view.State)
	assert.True(t, view.Dirty)

	view, err = editor.Commit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, service.StateOpen, view.State)
	assert.Empty(t, view.LastError)
}

func TestEditorCommitsAreSerialized(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	store := newBlockingStore(repo)
	editor := newEditor(t, store)
	id := identity()
	_, err := editor.Claim(ctx, id, "ghost", "Ghost")
	require.NoError(t, err)
	_, err = editor.AddLink(ctx, id, "X", "https://x.com/ghost")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := editor.Commit(ctx, id)
		done <- err
	}()
	<-store.entered

	_, err = editor.Commit(ctx, id)
	assert.ErrorIs(t, err, service.ErrCommitInFlight)
	_, err = editor.Stage(ctx, id, models.ProfilePatch{Bio: strPtr("x")})
	assert.ErrorIs(t, err, service.ErrCommitInFlight)
	assert.ErrorIs(t, editor.Discard(ctx, id), service.ErrCommitInFlight)

	// other identities are not blocked
	_, err = editor.Me(ctx, identity())
	assert.ErrorIs(t, err, models.ErrNotFound)

	close(store.release)
	require.NoError(t, <-done)
}

func TestEditorEditUnderWayIsPartOfCommit(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	store := newBlockingStore(repo)
	drafts := newPausingDrafts()
	editor := service.NewEditorService(store, drafts, logging.Nop{})
	id := identity()
	_, err := editor.Claim(ctx, id, "ghost", "Ghost")
	require.NoError(t, err)

	drafts.armed.Store(true)
	added := make(chan error, 1)
	go func() {
		_, err := editor.AddLink(ctx, id, "Spotify", "https://s")
		added <- err
	}()
	<-drafts.entered

	committed := make(chan service.SessionView, 1)
	commitErr := make(chan error, 1)
	go func() {
		view, err := editor.Commit(ctx, id)
		committed <- view
		commitErr <- err
	}()
	// let the commit start while the edit is still loading its draft
	time.Sleep(50 * time.Millisecond)

	close(drafts.release)
	require.NoError(t, <-added)

	<-store.entered
	close(store.release)
	require.NoError(t, <-commitErr)
	view := <-committed
	assert.Len(t, view.Working.Links, 1)
	assert.False(t, view.Dirty)

	saved, err := repo.FetchByOwner(ctx, id.OwnerID)
	require.NoError(t, err)
	require.Len(t, saved.Links, 1)
	assert.Equal(t, "Spotify", saved.Links[0].Title)
}

func TestEditorConcurrentEditsAreNotLost(t *testing.T) {
	ctx := context.Background()
	drafts := newPausingDrafts()
	editor := service.NewEditorService(newRepo(t), drafts, logging.Nop{})
	id := identity()
	_, err := editor.Claim(ctx, id, "ghost", "Ghost")
	require.NoError(t, err)

	drafts.armed.Store(true)
	first := make(chan error, 1)
	go func() {
		_, err := editor.AddLink(ctx, id, "GitHub", "https://github.com/ghost")
		first <- err
	}()
	<-drafts.entered

	second := make(chan error, 1)
	go func() {
		_, err := editor.AddLink(ctx, id, "Discord", "https://discord.gg/ghost")
		second <- err
	}()
	time.Sleep(50 * time.Millisecond)

	close(drafts.release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	view, err := editor.Session(ctx, id)
	require.NoError(t, err)
	assert.Len(t, view.Working.Links, 2)
}
