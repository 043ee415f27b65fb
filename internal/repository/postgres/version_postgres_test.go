package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"docvault/internal/model"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verRows(versions ...*model.Version) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "document_id", "version_number", "content_key", "original_filename", "created_at"})
	for _, v := range versions {
		rows.AddRow(v.ID, v.DocumentID, v.VersionNumber, v.ContentKey, v.OriginalFilename, v.CreatedAt)
	}
	return rows
}

func TestVersionPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVersionPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	v := &model.Version{
		ID:               "ver-2",
		DocumentID:       "doc-1",
		ContentKey:       "documents/doc-1/blob2.txt",
		OriginalFilename: "spec.txt",
		CreatedAt:        now,
	}

	t.Run("locks the document row and inserts max+1", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM documents WHERE id = (.+) AND owner_id = (.+) FOR UPDATE").
			WithArgs("doc-1", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("doc-1"))
		mock.ExpectQuery("SELECT COALESCE\\(MAX\\(version_number\\), 0\\) FROM versions").
			WithArgs("doc-1").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1))
		mock.ExpectQuery("INSERT INTO versions").
			WithArgs(v.ID, v.DocumentID, 2, v.ContentKey, v.OriginalFilename, v.CreatedAt).
			WillReturnRows(verRows(&model.Version{
				ID: v.ID, DocumentID: v.DocumentID, VersionNumber: 2,
				ContentKey: v.ContentKey, OriginalFilename: v.OriginalFilename, CreatedAt: now,
			}))
		mock.ExpectCommit()

		out, err := repo.Create(ctx, "user-1", v)

		assert.NoError(t, err)
		assert.Equal(t, 2, out.VersionNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("first version of a document gets number 1", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM documents WHERE id = (.+) AND owner_id = (.+) FOR UPDATE").
			WithArgs("doc-1", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("doc-1"))
		mock.ExpectQuery("SELECT COALESCE\\(MAX\\(version_number\\), 0\\) FROM versions").
			WithArgs("doc-1").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
		mock.ExpectQuery("INSERT INTO versions").
			WithArgs(v.ID, v.DocumentID, 1, v.ContentKey, v.OriginalFilename, v.CreatedAt).
			WillReturnRows(verRows(&model.Version{ID: v.ID, DocumentID: v.DocumentID, VersionNumber: 1, CreatedAt: now}))
		mock.ExpectCommit()

		out, err := repo.Create(ctx, "user-1", v)

		assert.NoError(t, err)
		assert.Equal(t, 1, out.VersionNumber)
	})

	t.Run("missing or foreign document aborts before any insert", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM documents WHERE id = (.+) AND owner_id = (.+) FOR UPDATE").
			WithArgs("doc-1", "user-2").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		out, err := repo.Create(ctx, "user-2", v)

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, out)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM documents WHERE id = (.+) AND owner_id = (.+) FOR UPDATE").
			WithArgs("doc-1", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("doc-1"))
		mock.ExpectQuery("SELECT COALESCE\\(MAX\\(version_number\\), 0\\) FROM versions").
			WithArgs("doc-1").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))
		mock.ExpectQuery("INSERT INTO versions").
			WillReturnError(errors.New("unique violation"))
		mock.ExpectRollback()

		_, err := repo.Create(ctx, "user-1", v)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVersionPostgres_ListByDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVersionPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("newest version number first", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM documents WHERE id = (.+) AND owner_id").
			WithArgs("doc-1", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("doc-1"))
		mock.ExpectQuery("SELECT (.+) FROM versions").
			WithArgs("doc-1").
			WillReturnRows(verRows(
				&model.Version{ID: "v2", DocumentID: "doc-1", VersionNumber: 2, CreatedAt: now},
				&model.Version{ID: "v1", DocumentID: "doc-1", VersionNumber: 1, CreatedAt: now},
			))

		versions, err := repo.ListByDocument(ctx, "user-1", "doc-1")

		assert.NoError(t, err)
		require.Len(t, versions, 2)
		assert.Equal(t, 2, versions[0].VersionNumber)
		assert.Equal(t, 1, versions[1].VersionNumber)
	})

	t.Run("absent document is sql.ErrNoRows, not an empty list", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM documents WHERE id = (.+) AND owner_id").
			WithArgs("doc-9", "user-1").
			WillReturnError(sql.ErrNoRows)

		versions, err := repo.ListByDocument(ctx, "user-1", "doc-9")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, versions)
	})
}

func TestVersionPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVersionPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM versions v").
			WithArgs("ver-1", "doc-1", "user-1").
			WillReturnRows(verRows(&model.Version{ID: "ver-1", DocumentID: "doc-1", VersionNumber: 1, CreatedAt: time.Now()}))

		v, err := repo.FindByID(ctx, "user-1", "doc-1", "ver-1")

		assert.NoError(t, err)
		assert.Equal(t, "ver-1", v.ID)
	})

	t.Run("wrong owner in the triple", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM versions v").
			WithArgs("ver-1", "doc-1", "user-2").
			WillReturnError(sql.ErrNoRows)

		v, err := repo.FindByID(ctx, "user-2", "doc-1", "ver-1")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, v)
	})
}
