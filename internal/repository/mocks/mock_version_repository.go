package mocks

import (
	"context"

	"docvault/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockVersionRepository struct {
	mock.Mock
}

func (m *MockVersionRepository) Create(ctx context.Context, ownerID string, v *model.Version) (*model.Version, error) {
	args := m.Called(ctx, ownerID, v)
	if f, ok := args.Get(0).(func(context.Context, string, *model.Version) *model.Version); ok {
		return f(ctx, ownerID, v), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Version), args.Error(1)
}

func (m *MockVersionRepository) ListByDocument(ctx context.Context, ownerID, documentID string) ([]model.Version, error) {
	args := m.Called(ctx, ownerID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Version), args.Error(1)
}

func (m *MockVersionRepository) FindByID(ctx context.Context, ownerID, documentID, versionID string) (*model.Version, error) {
	args := m.Called(ctx, ownerID, documentID, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Version), args.Error(1)
}
