package mocks

import (
	"context"

	"docvault/internal/model"
	"docvault/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document, first *model.Version) (*model.Document, *model.Version, error) {
	args := m.Called(ctx, doc, first)
	var outDoc *model.Document
	var outVer *model.Version
	if args.Get(0) != nil {
		outDoc = args.Get(0).(*model.Document)
	}
	if args.Get(1) != nil {
		outVer = args.Get(1).(*model.Version)
	}
	return outDoc, outVer, args.Error(2)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, ownerID, id string) (*model.Document, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	args := m.Called(ctx, ownerID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Document]), args.Error(1)
}

func (m *MockDocumentRepository) SearchByTag(ctx context.Context, ownerID, tagSubstring string) ([]model.Document, error) {
	args := m.Called(ctx, ownerID, tagSubstring)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, ownerID, id string, upd repository.DocumentUpdate) error {
	args := m.Called(ctx, ownerID, id, upd)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}
