package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/thornlink/thorn/backend/internal/models"
	"github.com/thornlink/thorn/backend/internal/service"
)

// MockTokenValidator is a mock implementation of middleware.TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(token string) (*service.Identity, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Identity), args.Error(1)
}

// MockEditor is a mock implementation of api.Editor
type MockEditor struct {
	mock.Mock
}

func (m *MockEditor) Claim(ctx context.Context, id service.Identity, username, displayName string) (*models.Profile, error) {
	args := m.Called(ctx, id, username, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockEditor) Me(ctx context.Context, id service.Identity) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockEditor) Open(ctx context.Context, id service.Identity) (service.SessionView, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(service.SessionView), args.Error(1)
}

func (m *MockEditor) Session(ctx context.Context, id service.Identity) (service.SessionView, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(service.SessionView), args.Error(1)
}

func (m *MockEditor) Stage(ctx context.Context, id service.Identity, patch models.ProfilePatch) (service.SessionView, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(service.SessionView), args.Error(1)
}

func (m *MockEditor) AddLink(ctx context.Context, id service.Identity, title, url string) (service.SessionView, error) {
	args := m.Called(ctx, id, title, url)
	return args.Get(0).(service.SessionView), args.Error(1)
}

func (m *MockEditor) RemoveLink(ctx context.Context, id service.Identity, index int) (service.SessionView, error) {
	args := m.Called(ctx, id, index)
	return args.Get(0).(service.SessionView), args.Error(1)
}

func (m *MockEditor) Commit(ctx context.Context, id service.Identity) (service.SessionView, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(service.SessionView), args.Error(1)
}

func (m *MockEditor) Discard(ctx context.Context, id service.Identity) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMediaUploader is a mock implementation of api.MediaUploader
type MockMediaUploader struct {
	mock.Mock
}

func (m *MockMediaUploader) Upload(ctx context.Context, ownerID uuid.UUID, slot service.MediaSlot, r io.Reader) (string, error) {
	args := m.Called(ctx, ownerID, slot, r)
	return args.String(0), args.Error(1)
}
