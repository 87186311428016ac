package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thornlink/thorn/backend/internal/models"
	"github.com/thornlink/thorn/backend/internal/testhelpers"
)

func testSnapshot(t *testing.T, owner uuid.UUID) SessionSnapshot {
	t.Helper()
	p, err := models.NewProfile(owner, "ghost", "Ghost", "a.png")
	require.NoError(t, err)
	working := p.Clone()
	require.NoError(t, working.Links.Append("Discord", "https://discord.gg/ghost"))
	return SessionSnapshot{Baseline: *p, Working: working, State: StateFailed, LastError: "save profile: connection refused"}
}

func runDraftStoreSuite(t *testing.T, store DraftStore) {
	ctx := context.Background()
	owner := uuid.New()

	got, err := store.Load(ctx, owner)
	require.NoError(t, err)
	assert.Nil(t, got)

	snap := testSnapshot(t, owner)
	require.NoError(t, store.Store(ctx, owner, snap))

	got, err = store.Load(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StateFailed, got.State)
	assert.Equal(t, snap.LastError, got.LastError)
	assert.Equal(t, snap.Working.Links.ToOrderedSequence(), got.Working.Links.ToOrderedSequence())
	assert.True(t, snap.Baseline.SameContent(got.Baseline))

	require.NoError(t, store.Delete(ctx, owner))
	got, err = store.Load(ctx, owner)
	require.NoError(t, err)
	assert.Nil(t, got)

	// deleting a missing draft is fine
	require.NoError(t, store.Delete(ctx, owner))
}

func TestMemoryDraftStore(t *testing.T) {
	runDraftStoreSuite(t, NewMemoryDraftStore(time.Hour))
}

func TestMemoryDraftStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDraftStore(time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	owner := uuid.New()
	require.NoError(t, store.Store(ctx, owner, testSnapshot(t, owner)))

	now = now.Add(59 * time.Minute)
	got, err := store.Load(ctx, owner)
	require.NoError(t, err)
	assert.NotNil(t, got)

	now = now.Add(time.Minute)
	got, err = store.Load(ctx, owner)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryDraftStoreLoadIsACopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDraftStore(time.Hour)
	owner := uuid.New()
	require.NoError(t, store.Store(ctx, owner, testSnapshot(t, owner)))

	got, err := store.Load(ctx, owner)
	require.NoError(t, err)
	got.Working.Links[0].Title = "changed"

	again, err := store.Load(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "Discord", again.Working.Links[0].Title)
}

func TestRedisDraftStore(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	store := NewRedisDraftStore(client, time.Hour)
	runDraftStoreSuite(t, store)

	owner := uuid.New()
	require.NoError(t, store.Store(context.Background(), owner, testSnapshot(t, owner)))
	ttl, err := client.TTL(context.Background(), draftKey(owner)).Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
}
