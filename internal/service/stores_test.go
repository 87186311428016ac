package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/thornlink/thorn/backend/internal/models"
	"github.com/thornlink/thorn/backend/internal/repository"
	"github.com/thornlink/thorn/backend/internal/service"
	"github.com/thornlink/thorn/backend/internal/testhelpers"
)

var errOutage = errors.New("connection refused")

// flakyStore fails the next Save when armed.
type flakyStore struct {
	repository.ProfileStore

	mu       sync.Mutex
	failNext bool
}

func (s *flakyStore) failNextSave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = true
}

func (s *flakyStore) Save(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	fail := s.failNext
	s.failNext = false
	s.mu.Unlock()
	if fail {
		return &models.TransportError{Op: "save profile", Err: errOutage}
	}
	return s.ProfileStore.Save(ctx, p)
}

// blockingStore holds every Save until released.
type blockingStore struct {
	repository.ProfileStore

	entered chan struct{}
	release chan struct{}
}

func newBlockingStore(inner repository.ProfileStore) *blockingStore {
	return &blockingStore{
		ProfileStore: inner,
		entered:      make(chan struct{}, 1),
		release:      make(chan struct{}),
	}
}

func (s *blockingStore) Save(ctx context.Context, p *models.Profile) error {
	s.entered <- struct{}{}
	<-s.release
	return s.ProfileStore.Save(ctx, p)
}

// pausingDrafts holds the next Load, once armed, until released.
type pausingDrafts struct {
	service.DraftStore

	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newPausingDrafts() *pausingDrafts {
	return &pausingDrafts{
		DraftStore: service.NewMemoryDraftStore(time.Hour),
		entered:    make(chan struct{}, 1),
		release:    make(chan struct{}),
	}
}

func (d *pausingDrafts) Load(ctx context.Context, ownerID uuid.UUID) (*service.SessionSnapshot, error) {
	if d.armed.CompareAndSwap(true, false) {
		d.entered <- struct{}{}
		<-d.release
	}
	return d.DraftStore.Load(ctx, ownerID)
}

func newRepo(t *testing.T) *repository.ProfileRepository {
	t.Helper()
	return repository.NewProfileRepository(testhelpers.SetupSQLite(t).DB)
}

func seedProfile(t *testing.T, repo repository.ProfileStore, username string) *models.Profile {
	t.Helper()
	p, err := models.NewProfile(uuid.New(), username, "Ghost", "a.png")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}
