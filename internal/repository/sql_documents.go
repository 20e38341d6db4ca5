package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/RishiKendai/plagcheck/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	createDocumentsTable = `CREATE TABLE IF NOT EXISTS documents (
	id BIGSERIAL PRIMARY KEY,
	content TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectDocuments = `SELECT id, content, created_at FROM documents ORDER BY id`
	insertDocument  = `INSERT INTO documents (content, created_at) VALUES ($1, $2) RETURNING id`
)

// SQLAcquirer hands out a connection pool for a single operation.
type SQLAcquirer interface {
	Acquire(ctx context.Context) (*sql.DB, func(), error)
}

// SQLDocumentsRepository is the Postgres alternative to DocumentsRepository.
type SQLDocumentsRepository struct {
	acquirer SQLAcquirer
}

func NewSQLDocumentsRepository(acquirer SQLAcquirer) *SQLDocumentsRepository {
	return &SQLDocumentsRepository{acquirer: acquirer}
}

func (r *SQLDocumentsRepository) ListAll(ctx context.Context) ([]models.StoredDocument, error) {
	db, release, err := r.acquirer.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := ensureDocumentsTable(ctx, db); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectDocuments)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query documents: %w", models.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var docs []models.StoredDocument
	for rows.Next() {
		var (
			id        int64
			content   sql.NullString
			createdAt time.Time
		)
		if err := rows.Scan(&id, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan document: %w", models.ErrStoreUnavailable, err)
		}
		docs = append(docs, rowToDocument(id, content, createdAt))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read documents: %w", models.ErrStoreUnavailable, err)
	}

	log.Debug().Int("documents", len(docs)).Msg("Loaded corpus from Postgres")
	return docs, nil
}

func (r *SQLDocumentsRepository) Insert(ctx context.Context, content string) (string, error) {
	db, release, err := r.acquirer.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	if err := ensureDocumentsTable(ctx, db); err != nil {
		return "", err
	}

	var id int64
	if err := db.QueryRowContext(ctx, insertDocument, content, time.Now().UTC()).Scan(&id); err != nil {
		return "", fmt.Errorf("%w: failed to insert document: %w", models.ErrStoreUnavailable, err)
	}

	return strconv.FormatInt(id, 10), nil
}

func ensureDocumentsTable(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createDocumentsTable); err != nil {
		return fmt.Errorf("%w: failed to ensure documents table: %w", models.ErrStoreUnavailable, err)
	}
	return nil
}

// rowToDocument leaves Content nil for NULL so the matcher skips the row.
func rowToDocument(id int64, content sql.NullString, createdAt time.Time) models.StoredDocument {
	doc := models.StoredDocument{
		ID:        strconv.FormatInt(id, 10),
		CreatedAt: createdAt,
	}
	if content.Valid {
		doc.Content = content.String
	}
	return doc
}
