package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

var (
	ErrIDRequired    = errors.New("id is required")
	ErrTitleRequired = errors.New("title is required")
	ErrReaderNil     = errors.New("reader is nil")
	ErrEmptyContent  = errors.New("content is empty")
	// ErrNotFound covers both "does not exist" and "owned by someone else";
	// callers cannot distinguish the two.
	ErrNotFound = errors.New("document not found")
	// ErrStorageInconsistent means the database has a version row whose blob is
	// missing from object storage. It is deliberately distinct from ErrNotFound:
	// the former is data loss that needs operator attention, the latter is a
	// routine miss.
	ErrStorageInconsistent = errors.New("stored content missing for version")
)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// MetadataUpdate carries optional new metadata values; nil fields are left unchanged.
type MetadataUpdate struct {
	Title       *string
	Description *string
	Tag         *string
}

// DeleteResult reports the outcome of a document delete. LeakedKeys lists blobs
// whose deletion failed after the database rows were already gone; the document
// is still deleted, the keys are surfaced for operator reconciliation.
type DeleteResult struct {
	LeakedKeys []string `json:"leaked_content_keys,omitempty"`
}

// VersionDownload bundles a version's content stream with its metadata.
// The caller owns closing Content.
type VersionDownload struct {
	Content     io.ReadCloser
	Version     *model.Version
	Size        int64
	ContentType string
}

// DocumentService defines the use cases for handling versioned documents.
// Every method takes the caller identity and only ever touches that owner's rows.
type DocumentService interface {
	// Create uploads content to object storage and records a new document with
	// version 1 in one transaction. If the database write fails, the just-written
	// blob is rolled back so no partial document is left behind.
	Create(ctx context.Context, ownerID, title, description, tag string, r io.Reader, originalFilename string, size int64) (*model.Document, *model.Version, error)

	// AddVersion appends a new revision to an owned document. The version number
	// is assigned under a per-document lock, so concurrent uploads to one
	// document always receive distinct consecutive numbers.
	AddVersion(ctx context.Context, ownerID, documentID string, r io.Reader, originalFilename string, size int64) (*model.Version, error)

	// List returns the owner's documents, newest first, using limit/offset and a total count.
	List(ctx context.Context, ownerID string, limit, offset int) (*DocumentListResult, error)

	// SearchByTag returns the owner's documents whose tag contains the substring,
	// case-insensitively, newest first. An empty substring yields an empty result
	// by policy; use List to fetch everything.
	SearchByTag(ctx context.Context, ownerID, tagSubstring string) ([]model.Document, error)

	// ListVersions returns an owned document's versions, highest number first.
	ListVersions(ctx context.Context, ownerID, documentID string) ([]model.Version, error)

	// GetVersionContent streams one version's content along with its original filename.
	GetVersionContent(ctx context.Context, ownerID, documentID, versionID string) (*VersionDownload, error)

	// PresignVersionURL returns a time-limited direct download URL for one version's blob.
	PresignVersionURL(ctx context.Context, ownerID, documentID, versionID string, expiry time.Duration) (string, error)

	// UpdateMetadata applies a partial update to title/description/tag.
	UpdateMetadata(ctx context.Context, ownerID, documentID string, upd MetadataUpdate) error

	// Delete removes an owned document, its versions, and their blobs. Blob
	// deletion happens only after the database delete committed; blob failures
	// do not fail the operation and are reported in the result.
	Delete(ctx context.Context, ownerID, documentID string) (*DeleteResult, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store    storage.Storage
	docs     repository.DocumentRepository
	versions repository.VersionRepository
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, docs repository.DocumentRepository, versions repository.VersionRepository) DocumentService {
	return &documentService{store: store, docs: docs, versions: versions}
}

func (s *documentService) Create(ctx context.Context, ownerID, title, description, tag string, r io.Reader, originalFilename string, size int64) (*model.Document, *model.Version, error) {
	if ownerID == "" {
		return nil, nil, ErrIDRequired
	}
	if title == "" {
		return nil, nil, ErrTitleRequired
	}
	if r == nil {
		return nil, nil, ErrReaderNil
	}
	if size == 0 {
		return nil, nil, ErrEmptyContent
	}

	docID := uuid.New().String()
	key := contentKey(docID, originalFilename)

	info, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size: size,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("upload to storage: %w", err)
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:          docID,
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Tag:         tag,
		CreatedAt:   now,
	}
	first := &model.Version{
		ID:               uuid.New().String(),
		DocumentID:       docID,
		ContentKey:       info.Key,
		OriginalFilename: originalFilename,
		CreatedAt:        now,
	}

	storedDoc, storedVer, err := s.docs.Create(ctx, doc, first)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logEvent(map[string]any{
				"level":       "error",
				"msg":         "create_rollback_delete_failed",
				"content_key": key,
				"error":       delErr.Error(),
			})
			return nil, nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, nil, fmt.Errorf("db save failed: %w", err)
	}
	return storedDoc, storedVer, nil
}

func (s *documentService) AddVersion(ctx context.Context, ownerID, documentID string, r io.Reader, originalFilename string, size int64) (*model.Version, error) {
	if documentID == "" {
		return nil, ErrIDRequired
	}
	if r == nil {
		return nil, ErrReaderNil
	}
	if size == 0 {
		return nil, ErrEmptyContent
	}

	// Fail fast before transferring bytes. The ownership check repeats inside
	// the insert transaction under the document row lock, so this read is
	// advisory only.
	if _, err := s.docs.FindByID(ctx, ownerID, documentID); err != nil {
		return nil, mapNoRows(err)
	}

	key := contentKey(documentID, originalFilename)
	info, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size: size,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	v := &model.Version{
		ID:               uuid.New().String(),
		DocumentID:       documentID,
		ContentKey:       info.Key,
		OriginalFilename: originalFilename,
		CreatedAt:        time.Now().UTC(),
	}
	stored, err := s.versions.Create(ctx, ownerID, v)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logEvent(map[string]any{
				"level":       "error",
				"msg":         "version_rollback_delete_failed",
				"document_id": documentID,
				"content_key": key,
				"error":       delErr.Error(),
			})
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, mapNoRowsWrapped(err, "db save failed")
	}
	return stored, nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, ownerID string, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.docs.List(ctx, ownerID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) SearchByTag(ctx context.Context, ownerID, tagSubstring string) ([]model.Document, error) {
	// Empty filter is a policy miss, not an error; "give me everything" is List's job.
	if tagSubstring == "" {
		return []model.Document{}, nil
	}
	return s.docs.SearchByTag(ctx, ownerID, tagSubstring)
}

func (s *documentService) ListVersions(ctx context.Context, ownerID, documentID string) ([]model.Version, error) {
	if documentID == "" {
		return nil, ErrIDRequired
	}
	versions, err := s.versions.ListByDocument(ctx, ownerID, documentID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return versions, nil
}

func (s *documentService) GetVersionContent(ctx context.Context, ownerID, documentID, versionID string) (*VersionDownload, error) {
	if documentID == "" || versionID == "" {
		return nil, ErrIDRequired
	}
	v, err := s.versions.FindByID(ctx, ownerID, documentID, versionID)
	if err != nil {
		return nil, mapNoRows(err)
	}

	rc, info, err := s.store.Get(ctx, v.ContentKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			logEvent(map[string]any{
				"level":          "error",
				"msg":            "storage_inconsistency",
				"document_id":    documentID,
				"version_id":     versionID,
				"version_number": v.VersionNumber,
				"content_key":    v.ContentKey,
			})
			return nil, fmt.Errorf("%w: key %s", ErrStorageInconsistent, v.ContentKey)
		}
		return nil, fmt.Errorf("fetch from storage: %w", err)
	}
	return &VersionDownload{
		Content:     rc,
		Version:     v,
		Size:        info.Size,
		ContentType: info.ContentType,
	}, nil
}

func (s *documentService) PresignVersionURL(ctx context.Context, ownerID, documentID, versionID string, expiry time.Duration) (string, error) {
	if documentID == "" || versionID == "" {
		return "", ErrIDRequired
	}
	v, err := s.versions.FindByID(ctx, ownerID, documentID, versionID)
	if err != nil {
		return "", mapNoRows(err)
	}
	return s.store.PresignGet(ctx, v.ContentKey, expiry)
}

func (s *documentService) UpdateMetadata(ctx context.Context, ownerID, documentID string, upd MetadataUpdate) error {
	if documentID == "" {
		return ErrIDRequired
	}
	if upd.Title != nil && *upd.Title == "" {
		return ErrTitleRequired
	}
	err := s.docs.Update(ctx, ownerID, documentID, repository.DocumentUpdate{
		Title:       upd.Title,
		Description: upd.Description,
		Tag:         upd.Tag,
	})
	return mapNoRows(err)
}

// Delete removes the document's rows first and only then touches object
// storage. Deleting a blob before its row commits would open a window where a
// version row points at missing content; a leaked blob is the safer failure.
func (s *documentService) Delete(ctx context.Context, ownerID, documentID string) (*DeleteResult, error) {
	if documentID == "" {
		return nil, ErrIDRequired
	}

	versions, err := s.versions.ListByDocument(ctx, ownerID, documentID)
	if err != nil {
		return nil, mapNoRows(err)
	}

	if err := s.docs.Delete(ctx, ownerID, documentID); err != nil {
		return nil, mapNoRows(err)
	}

	res := &DeleteResult{}
	for _, v := range versions {
		if err := s.store.Delete(ctx, v.ContentKey); err != nil {
			logEvent(map[string]any{
				"level":          "warn",
				"msg":            "blob_delete_failed",
				"document_id":    documentID,
				"version_number": v.VersionNumber,
				"content_key":    v.ContentKey,
				"error":          err.Error(),
			})
			res.LeakedKeys = append(res.LeakedKeys, v.ContentKey)
		}
	}
	return res, nil
}

// contentKey builds a collision-resistant storage key. The original filename
// contributes only its extension; the key is never the filename itself.
func contentKey(documentID, originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	return filepath.ToSlash(filepath.Join("documents", documentID, uuid.New().String()+ext))
}

func mapNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func mapNoRowsWrapped(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func logEvent(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		data["level"] = "info"
	}
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal service log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
