package repository

import (
	"context"

	"docvault/internal/model"
)

// VersionRepository is the ledger of a document's revisions. It assigns version
// numbers and enumerates existing versions, always scoped by owner.
type VersionRepository interface {
	// Create inserts a new version row for the owner's document with the next
	// version number. The read-max-then-insert runs inside one transaction that
	// holds a lock on the document row, so concurrent calls for the same
	// document serialize and never hand out duplicate numbers. Returns
	// sql.ErrNoRows when the document does not exist or is not owned by ownerID.
	Create(ctx context.Context, ownerID string, v *model.Version) (*model.Version, error)

	// ListByDocument returns all versions of the owner's document, highest
	// version number first. An existing document with versions only returns a
	// non-empty slice; sql.ErrNoRows is returned when the document itself is
	// absent or not owned.
	ListByDocument(ctx context.Context, ownerID, documentID string) ([]model.Version, error)

	// FindByID resolves one version of the owner's document, or sql.ErrNoRows
	// when the owner/document/version triple does not match.
	FindByID(ctx context.Context, ownerID, documentID, versionID string) (*model.Version, error)
}
