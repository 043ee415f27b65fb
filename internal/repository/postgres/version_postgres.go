package postgres

import (
	"context"
	"database/sql"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// VersionPostgres is a PostgreSQL implementation of repository.VersionRepository.
type VersionPostgres struct {
	db *sql.DB
}

// NewVersionPostgres creates a new VersionPostgres repository.
func NewVersionPostgres(db *sql.DB) *VersionPostgres {
	return &VersionPostgres{db: db}
}

var _ repository.VersionRepository = (*VersionPostgres)(nil)

const versionColumns = "id, document_id, version_number, content_key, original_filename, created_at"

func scanVersion(row interface{ Scan(...any) error }) (*model.Version, error) {
	var v model.Version
	if err := row.Scan(
		&v.ID,
		&v.DocumentID,
		&v.VersionNumber,
		&v.ContentKey,
		&v.OriginalFilename,
		&v.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}

// Create assigns the next version number and inserts the row in one transaction.
// The document row is locked FOR UPDATE for the duration of the
// read-max-then-insert, so two concurrent uploads to the same document cannot
// both observe the same maximum. The lock is per document row; uploads to
// different documents never contend.
func (r *VersionPostgres) Create(ctx context.Context, ownerID string, v *model.Version) (*model.Version, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Lock the document row; owner scoping and existence collapse into the
	// same sql.ErrNoRows as everywhere else.
	const qLock = `SELECT id FROM documents WHERE id = $1 AND owner_id = $2 FOR UPDATE`
	var lockedID string
	if err := tx.QueryRowContext(ctx, qLock, v.DocumentID, ownerID).Scan(&lockedID); err != nil {
		return nil, err
	}

	const qMax = `SELECT COALESCE(MAX(version_number), 0) FROM versions WHERE document_id = $1`
	var maxVersion int
	if err := tx.QueryRowContext(ctx, qMax, v.DocumentID).Scan(&maxVersion); err != nil {
		return nil, err
	}

	const qInsert = `
		INSERT INTO versions (id, document_id, version_number, content_key, original_filename, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + versionColumns
	out, err := scanVersion(tx.QueryRowContext(ctx, qInsert,
		v.ID,
		v.DocumentID,
		maxVersion+1,
		v.ContentKey,
		v.OriginalFilename,
		v.CreatedAt,
	))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByDocument enumerates the owner's document versions, newest number first.
func (r *VersionPostgres) ListByDocument(ctx context.Context, ownerID, documentID string) ([]model.Version, error) {
	// Distinguish "document absent/not owned" from "document with no versions".
	const qOwn = `SELECT id FROM documents WHERE id = $1 AND owner_id = $2`
	var id string
	if err := r.db.QueryRowContext(ctx, qOwn, documentID, ownerID).Scan(&id); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + versionColumns + `
		FROM versions
		WHERE document_id = $1
		ORDER BY version_number DESC
	`
	rows, err := r.db.QueryContext(ctx, qList, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Version, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID resolves a version by the owner/document/version triple.
func (r *VersionPostgres) FindByID(ctx context.Context, ownerID, documentID, versionID string) (*model.Version, error) {
	const q = `
		SELECT v.id, v.document_id, v.version_number, v.content_key, v.original_filename, v.created_at
		FROM versions v
		JOIN documents d ON d.id = v.document_id
		WHERE v.id = $1 AND v.document_id = $2 AND d.owner_id = $3
	`
	return scanVersion(r.db.QueryRowContext(ctx, q, versionID, documentID, ownerID))
}
