package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"docvault/internal/model"
	"docvault/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docRows(docs ...*model.Document) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "owner_id", "title", "description", "tag", "created_at"})
	for _, d := range docs {
		rows.AddRow(d.ID, d.OwnerID, d.Title, d.Description, d.Tag, d.CreatedAt)
	}
	return rows
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	doc := &model.Document{
		ID:        "doc-uuid",
		OwnerID:   "user-1",
		Title:     "Spec",
		Tag:       "eng",
		CreatedAt: now,
	}
	first := &model.Version{
		ID:               "ver-uuid",
		DocumentID:       "doc-uuid",
		ContentKey:       "documents/doc-uuid/blob.txt",
		OriginalFilename: "spec.txt",
		CreatedAt:        now,
	}

	t.Run("inserts document and version 1 in one transaction", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(doc.ID, doc.OwnerID, doc.Title, doc.Description, doc.Tag, doc.CreatedAt).
			WillReturnRows(docRows(doc))
		mock.ExpectQuery("INSERT INTO versions").
			WithArgs(first.ID, doc.ID, first.ContentKey, first.OriginalFilename, first.CreatedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "version_number", "content_key", "original_filename", "created_at"}).
				AddRow(first.ID, doc.ID, 1, first.ContentKey, first.OriginalFilename, first.CreatedAt))
		mock.ExpectCommit()

		outDoc, outVer, err := repo.Create(ctx, doc, first)

		assert.NoError(t, err)
		assert.Equal(t, doc.ID, outDoc.ID)
		assert.Equal(t, 1, outVer.VersionNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("version insert failure rolls back the document row", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO documents").
			WillReturnRows(docRows(doc))
		mock.ExpectQuery("INSERT INTO versions").
			WillReturnError(errors.New("constraint violation"))
		mock.ExpectRollback()

		_, _, err := repo.Create(ctx, doc, first)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents").
			WithArgs("doc-1", "user-1").
			WillReturnRows(docRows(&model.Document{ID: "doc-1", OwnerID: "user-1", Title: "Spec", CreatedAt: time.Now()}))

		doc, err := repo.FindByID(ctx, "user-1", "doc-1")

		assert.NoError(t, err)
		assert.Equal(t, "doc-1", doc.ID)
	})

	t.Run("not owned behaves exactly like absent", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents").
			WithArgs("doc-1", "user-2").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, "user-2", "doc-1")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, doc)
	})
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents WHERE owner_id").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM documents WHERE owner_id (.+) ORDER BY").
		WithArgs("user-1", 10, 0).
		WillReturnRows(docRows(&model.Document{ID: "doc-1", OwnerID: "user-1", Title: "Spec", CreatedAt: time.Now()}))

	res, err := repo.List(ctx, "user-1", repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_SearchByTag(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("substring is wrapped in wildcards", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE owner_id (.+) ILIKE").
			WithArgs("user-1", "%proj%").
			WillReturnRows(docRows(&model.Document{ID: "doc-1", OwnerID: "user-1", Tag: "Project-X", CreatedAt: time.Now()}))

		docs, err := repo.SearchByTag(ctx, "user-1", "proj")

		assert.NoError(t, err)
		assert.Len(t, docs, 1)
		assert.Equal(t, "Project-X", docs[0].Tag)
	})

	t.Run("pattern metacharacters are escaped", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE owner_id (.+) ILIKE").
			WithArgs("user-1", `%100\%\_done%`).
			WillReturnRows(docRows())

		docs, err := repo.SearchByTag(ctx, "user-1", "100%_done")

		assert.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `plain`, escapeLike(`plain`))
	assert.Equal(t, `\%`, escapeLike(`%`))
	assert.Equal(t, `\_`, escapeLike(`_`))
	assert.Equal(t, `\\\%`, escapeLike(`\%`))
}

func TestDocumentPostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	title := "New title"

	t.Run("updated", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents").
			WithArgs("doc-1", "user-1", &title, nil, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Update(ctx, "user-1", "doc-1", repository.DocumentUpdate{Title: &title})

		assert.NoError(t, err)
	})

	t.Run("no matching owned row", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents").
			WithArgs("doc-1", "user-2", &title, nil, nil).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(ctx, "user-2", "doc-1", repository.DocumentUpdate{Title: &title})

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("deleted", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM documents WHERE id = (.+) AND owner_id").
			WithArgs("doc-1", "user-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(ctx, "user-1", "doc-1")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no matching owned row", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM documents WHERE id = (.+) AND owner_id").
			WithArgs("doc-1", "user-2").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(ctx, "user-2", "doc-1")

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}
