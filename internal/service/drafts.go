package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/thornlink/thorn/backend/internal/models"
)

// DraftStore keeps open editor sessions between requests.
type DraftStore interface {
	// Load returns the stored snapshot, or nil when there is none.
	Load(ctx context.Context, ownerID uuid.UUID) (*SessionSnapshot, error)
	Store(ctx context.Context, ownerID uuid.UUID, snap SessionSnapshot) error
	Delete(ctx context.Context, ownerID uuid.UUID) error
}

// RedisDraftStore keeps drafts in Redis with a sliding TTL.
type RedisDraftStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{redis: client, ttl: ttl}
}

func draftKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("profile:draft:%s", ownerID)
}

func (s *RedisDraftStore) Load(ctx context.Context, ownerID uuid.UUID) (*SessionSnapshot, error) {
	data, err := s.redis.Get(ctx, draftKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &models.TransportError{Op: "load draft", Err: err}
	}

	var snap SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &snap, nil
}

func (s *RedisDraftStore) Store(ctx context.Context, ownerID uuid.UUID, snap SessionSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := s.redis.Set(ctx, draftKey(ownerID), data, s.ttl).Err(); err != nil {
		return &models.TransportError{Op: "store draft", Err: err}
	}
	return nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, ownerID uuid.UUID) error {
	if err := s.redis.Del(ctx, draftKey(ownerID)).Err(); err != nil {
		return &models.TransportError{Op: "delete draft", Err: err}
	}
	return nil
}

// MemoryDraftStore keeps drafts in process memory. It is used when Redis is
// not configured; drafts do not survive a restart.
type MemoryDraftStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	drafts map[uuid.UUID]memoryDraft
}

type memoryDraft struct {
	snap    SessionSnapshot
	expires time.Time
}

func NewMemoryDraftStore(ttl time.Duration) *MemoryDraftStore {
	return &MemoryDraftStore{
		ttl:    ttl,
		now:    time.Now,
		drafts: make(map[uuid.UUID]memoryDraft),
	}
}

func (s *MemoryDraftStore) Load(_ context.Context, ownerID uuid.UUID) (*SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[ownerID]
	if !ok {
		return nil, nil
	}
	if !s.now().Before(d.expires) {
		delete(s.drafts, ownerID)
		return nil, nil
	}
	snap := SessionSnapshot{
		Baseline:  d.snap.Baseline.Clone(),
		Working:   d.snap.Working.Clone(),
		State:     d.snap.State,
		LastError: d.snap.LastError,
	}
	return &snap, nil
}

func (s *MemoryDraftStore) Store(_ context.Context, ownerID uuid.UUID, snap SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, d := range s.drafts {
		if !now.Before(d.expires) {
			delete(s.drafts, id)
		}
	}
	s.drafts[ownerID] = memoryDraft{snap: snap, expires: now.Add(s.ttl)}
	return nil
}

func (s *MemoryDraftStore) Delete(_ context.Context, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, ownerID)
	return nil
}
