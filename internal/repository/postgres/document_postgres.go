package postgres

import (
	"context"
	"database/sql"
	"strings"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = "id, owner_id, title, description, tag, created_at"

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.OwnerID,
		&d.Title,
		&d.Description,
		&d.Tag,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts the document row and its version 1 row in one transaction.
// Neither row becomes visible without the other.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document, first *model.Version) (*model.Document, *model.Version, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	const qDoc = `
		INSERT INTO documents (id, owner_id, title, description, tag, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + documentColumns
	outDoc, err := scanDocument(tx.QueryRowContext(ctx, qDoc,
		doc.ID,
		doc.OwnerID,
		doc.Title,
		doc.Description,
		doc.Tag,
		doc.CreatedAt,
	))
	if err != nil {
		return nil, nil, err
	}

	const qVer = `
		INSERT INTO versions (id, document_id, version_number, content_key, original_filename, created_at)
		VALUES ($1, $2, 1, $3, $4, $5)
		RETURNING id, document_id, version_number, content_key, original_filename, created_at
	`
	var outVer model.Version
	if err := tx.QueryRowContext(ctx, qVer,
		first.ID,
		doc.ID,
		first.ContentKey,
		first.OriginalFilename,
		first.CreatedAt,
	).Scan(
		&outVer.ID,
		&outVer.DocumentID,
		&outVer.VersionNumber,
		&outVer.ContentKey,
		&outVer.OriginalFilename,
		&outVer.CreatedAt,
	); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return outDoc, &outVer, nil
}

// FindByID fetches a single document scoped by owner.
func (r *DocumentPostgres) FindByID(ctx context.Context, ownerID, id string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1 AND owner_id = $2
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id, ownerID))
}

// List returns the owner's documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `SELECT COUNT(*) FROM documents WHERE owner_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, ownerID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, ownerID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := collectDocuments(rows)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// SearchByTag matches the substring case-insensitively against the tag column.
// ILIKE metacharacters in the substring are escaped so it matches literally.
func (r *DocumentPostgres) SearchByTag(ctx context.Context, ownerID, tagSubstring string) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1 AND tag <> '' AND tag ILIKE $2 ESCAPE '\'
		ORDER BY created_at DESC, id DESC
	`
	pattern := "%" + escapeLike(tagSubstring) + "%"
	rows, err := r.db.QueryContext(ctx, q, ownerID, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// Update applies a partial update; nil pointers leave the column untouched.
func (r *DocumentPostgres) Update(ctx context.Context, ownerID, id string, upd repository.DocumentUpdate) error {
	const q = `
		UPDATE documents
		SET title       = COALESCE($3, title),
		    description = COALESCE($4, description),
		    tag         = COALESCE($5, tag)
		WHERE id = $1 AND owner_id = $2
	`
	res, err := r.db.ExecContext(ctx, q, id, ownerID, upd.Title, upd.Description, upd.Tag)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the owner's document row; versions cascade at the schema level.
func (r *DocumentPostgres) Delete(ctx context.Context, ownerID, id string) error {
	const q = `DELETE FROM documents WHERE id = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func collectDocuments(rows *sql.Rows) ([]model.Document, error) {
	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// escapeLike makes a user-supplied substring safe for use inside a LIKE/ILIKE
// pattern with ESCAPE '\'.
func escapeLike(s string) string {
	rep := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return rep.Replace(s)
}
