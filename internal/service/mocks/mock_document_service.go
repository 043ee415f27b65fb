package mocks

import (
	"context"
	"io"
	"time"

	"docvault/internal/model"
	"docvault/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Create(ctx context.Context, ownerID, title, description, tag string, r io.Reader, originalFilename string, size int64) (*model.Document, *model.Version, error) {
	args := m.Called(ctx, ownerID, title, description, tag, r, originalFilename, size)
	var doc *model.Document
	var ver *model.Version
	if args.Get(0) != nil {
		doc = args.Get(0).(*model.Document)
	}
	if args.Get(1) != nil {
		ver = args.Get(1).(*model.Version)
	}
	return doc, ver, args.Error(2)
}

func (m *MockDocumentService) AddVersion(ctx context.Context, ownerID, documentID string, r io.Reader, originalFilename string, size int64) (*model.Version, error) {
	args := m.Called(ctx, ownerID, documentID, r, originalFilename, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Version), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, ownerID string, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) SearchByTag(ctx context.Context, ownerID, tagSubstring string) ([]model.Document, error) {
	args := m.Called(ctx, ownerID, tagSubstring)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) ListVersions(ctx context.Context, ownerID, documentID string) ([]model.Version, error) {
	args := m.Called(ctx, ownerID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Version), args.Error(1)
}

func (m *MockDocumentService) GetVersionContent(ctx context.Context, ownerID, documentID, versionID string) (*service.VersionDownload, error) {
	args := m.Called(ctx, ownerID, documentID, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VersionDownload), args.Error(1)
}

func (m *MockDocumentService) PresignVersionURL(ctx context.Context, ownerID, documentID, versionID string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, ownerID, documentID, versionID, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) UpdateMetadata(ctx context.Context, ownerID, documentID string, upd service.MetadataUpdate) error {
	args := m.Called(ctx, ownerID, documentID, upd)
	return args.Error(0)
}

func (m *MockDocumentService) Delete(ctx context.Context, ownerID, documentID string) (*service.DeleteResult, error) {
	args := m.Called(ctx, ownerID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DeleteResult), args.Error(1)
}
