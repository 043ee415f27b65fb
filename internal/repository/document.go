package repository

// Package repository contains data access layer abstractions.
// Implementations can live in subpackages (e.g., postgres) inside this directory.
//
// Every query method takes the owner id as a mandatory filter. There is
// deliberately no fetch-by-id-only variant: a caller can never reach another
// owner's rows through this layer.

import (
	"context"

	"docvault/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document row together with its initial version row
	// in a single transaction, so a document is never visible without version 1.
	// The version's number is assigned by the repository and is always 1.
	// Returns the stored document and version (may include values set by the DB).
	Create(ctx context.Context, doc *model.Document, first *model.Version) (*model.Document, *model.Version, error)

	// FindByID returns the owner's document by its ID, or sql.ErrNoRows when the
	// document does not exist or belongs to a different owner.
	FindByID(ctx context.Context, ownerID, id string) (*model.Document, error)

	// List returns a paginated list of the owner's documents, newest first,
	// plus the total row count for that owner.
	List(ctx context.Context, ownerID string, pq PageQuery) (*PageResult[model.Document], error)

	// SearchByTag returns the owner's documents whose tag contains the given
	// substring case-insensitively, newest first. The substring is matched
	// literally; SQL pattern metacharacters have no special meaning.
	SearchByTag(ctx context.Context, ownerID, tagSubstring string) ([]model.Document, error)

	// Update applies a partial metadata update. Nil fields keep their prior
	// value. Returns sql.ErrNoRows when no owned row matched.
	Update(ctx context.Context, ownerID, id string, upd DocumentUpdate) error

	// Delete removes the owner's document; version rows go with it via the
	// ON DELETE CASCADE constraint. Returns sql.ErrNoRows when no owned row matched.
	Delete(ctx context.Context, ownerID, id string) error
}

// DocumentUpdate carries optional new values for a partial metadata update.
type DocumentUpdate struct {
	Title       *string
	Description *string
	Tag         *string
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
